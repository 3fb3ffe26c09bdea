package engine

import "fmt"

// DetectConfig selects and parameterizes the embedding backend.
type DetectConfig struct {
	Provider      string // "ollama" or "openai"
	OllamaBaseURL string
	OpenAIAPIKey  string
	OpenAIBaseURL string
}

// Detect returns the Engine for the configured provider.
func Detect(cfg DetectConfig) (Engine, error) {
	switch cfg.Provider {
	case "", "ollama":
		return NewOllamaEngine(cfg.OllamaBaseURL), nil
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		return NewOpenAIEngine(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
