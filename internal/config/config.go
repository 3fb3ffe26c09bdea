package config

type Config struct {
	Server    ServerConfig
	Embedding EmbeddingConfig
	Analysis  AnalysisConfig
	Storage   StorageConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port     int
	APIToken string
}

type EmbeddingConfig struct {
	Provider      string
	BaseURL       string
	Model         string
	OpenAIModel   string
	OpenAIBaseURL string
	OpenAIAPIKey  string
}

type AnalysisConfig struct {
	Themes         int
	Contamination  float64
	AnomalyTopN    int
	WeekWindow     int
	Seed           int
	TrendEpsilon   float64
	CycleThreshold float64
	Restarts       int
	Trees          int
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	dataDir := defaultDataDir()
	return Config{
		Server: ServerConfig{
			Port: 4600,
		},
		Embedding: EmbeddingConfig{
			Provider:    "ollama",
			BaseURL:     "http://localhost:11434",
			Model:       "nomic-embed-text",
			OpenAIModel: "text-embedding-3-small",
		},
		Analysis: AnalysisConfig{
			Themes:         5,
			Contamination:  0.1,
			AnomalyTopN:    3,
			WeekWindow:     7,
			Seed:           42,
			TrendEpsilon:   0.05,
			CycleThreshold: 0.6,
			Restarts:       10,
			Trees:          100,
		},
		Storage: StorageConfig{
			DataDir: dataDir,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON backend at
// $XDG_CONFIG_HOME/pie/config.json, then applies environment variable
// overrides (PIE_*). Secrets such as the OpenAI API key are read from
// environment variables only and never touch the config file.
func Load() (Config, error) {
	return loadWith(newPlatformBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	return cfg, nil
}
