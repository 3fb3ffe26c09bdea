package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIEngine implements Engine on top of the OpenAI embeddings API. It has
// no local model management; PullModel always fails.
type OpenAIEngine struct {
	client openai.Client
}

// NewOpenAIEngine creates an OpenAIEngine. baseURL overrides the API
// endpoint when non-empty (used by tests and OpenAI-compatible servers).
func NewOpenAIEngine(apiKey, baseURL string) *OpenAIEngine {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIEngine{client: openai.NewClient(opts...)}
}

func (e *OpenAIEngine) Embed(ctx context.Context, model string, text string) ([]float32, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(model),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: []string{text},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai embed: empty response")
	}

	vec := make([]float32, len(resp.Data[0].Embedding))
	for i, f := range resp.Data[0].Embedding {
		vec[i] = float32(f)
	}
	return vec, nil
}

func (e *OpenAIEngine) IsRunning(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := e.client.Models.List(ctx)
	return err == nil
}

func (e *OpenAIEngine) ListModels(ctx context.Context) ([]string, error) {
	page, err := e.client.Models.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("openai list models: %w", err)
	}

	names := make([]string, len(page.Data))
	for i, m := range page.Data {
		names[i] = m.ID
	}
	return names, nil
}

func (e *OpenAIEngine) HasModel(ctx context.Context, name string) bool {
	models, err := e.ListModels(ctx)
	if err != nil {
		return false
	}
	for _, m := range models {
		if m == name {
			return true
		}
	}
	return false
}

func (e *OpenAIEngine) PullModel(ctx context.Context, name string, onProgress func(PullProgress)) error {
	return fmt.Errorf("openai backend does not support pulling models")
}
