package ingest

import (
	"context"
	"fmt"

	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/engine"
	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/storage"
	"golang.org/x/sync/errgroup"
)

// EntryStore is the storage surface the embedder needs.
type EntryStore interface {
	ListEntriesWithoutEmbedding() ([]storage.Entry, error)
	SetEmbedding(id string, embedding []float32) error
}

// Embedder wraps an Engine to generate entry embeddings.
type Embedder struct {
	engine engine.Engine
	model  string
}

// NewEmbedder creates an Embedder using the given Engine and model name.
func NewEmbedder(e engine.Engine, model string) *Embedder {
	return &Embedder{engine: e, model: model}
}

// Embed returns the embedding vector for a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.engine.Embed(ctx, e.model, text)
	if err != nil {
		return nil, fmt.Errorf("embedding text: %w", err)
	}
	return vec, nil
}

// EmbedBatch returns embedding vectors for multiple texts concurrently.
// Returns nil (not error) for empty/nil input.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	results := make([][]float32, len(texts))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(4) // Bound concurrency to avoid overwhelming the engine.

	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			vec, err := e.engine.Embed(gCtx, e.model, text)
			if err != nil {
				return fmt.Errorf("embedding text %d: %w", i, err)
			}
			results[i] = vec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// EmbedPending embeds every stored entry that has no embedding yet, using
// compose to turn an entry into embedding input. It returns the number of
// entries embedded.
func (e *Embedder) EmbedPending(ctx context.Context, store EntryStore, compose func(storage.Entry) string) (int, error) {
	pending, err := store.ListEntriesWithoutEmbedding()
	if err != nil {
		return 0, fmt.Errorf("listing pending entries: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	texts := make([]string, len(pending))
	for i, entry := range pending {
		texts[i] = compose(entry)
	}

	vecs, err := e.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, err
	}

	for i, entry := range pending {
		if err := store.SetEmbedding(entry.ID, vecs[i]); err != nil {
			return i, fmt.Errorf("storing embedding for %s: %w", entry.ID, err)
		}
	}
	return len(pending), nil
}
