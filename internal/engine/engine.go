package engine

import "context"

// Engine abstracts an embedding backend (local Ollama or the OpenAI API).
// Consumers embed entries through this interface instead of depending on a
// concrete client.
type Engine interface {
	// Embed returns the embedding vector for the given text using the specified model.
	Embed(ctx context.Context, model string, text string) ([]float32, error)

	// IsRunning reports whether the backend is reachable.
	IsRunning(ctx context.Context) bool

	// ListModels returns the names of the models the backend offers.
	ListModels(ctx context.Context) ([]string, error)

	// HasModel reports whether the given model name is available.
	HasModel(ctx context.Context, name string) bool

	// PullModel downloads a model. The optional callback receives progress
	// updates. Backends without local model management return an error.
	PullModel(ctx context.Context, name string, onProgress func(PullProgress)) error
}

// PullProgress reports download progress for a model pull operation.
type PullProgress struct {
	Status    string `json:"status"`
	Total     int64  `json:"total,omitempty"`
	Completed int64  `json:"completed,omitempty"`
}
