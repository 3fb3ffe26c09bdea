package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kFloat
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "PIE_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.api_token", typ: kString, env: "PIE_API_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Server.APIToken = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.APIToken },
	},
	{
		key: "embedding.provider", typ: kString, env: "PIE_EMBEDDING_PROVIDER",
		apply:   func(cfg *Config, v any) { cfg.Embedding.Provider = v.(string) },
		extract: func(cfg Config) any { return cfg.Embedding.Provider },
	},
	{
		key: "embedding.base_url", typ: kString, env: "PIE_EMBEDDING_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Embedding.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Embedding.BaseURL },
	},
	{
		key: "embedding.model", typ: kString, env: "PIE_EMBEDDING_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Embedding.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.Embedding.Model },
	},
	{
		key: "embedding.openai_model", typ: kString, env: "PIE_OPENAI_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Embedding.OpenAIModel = v.(string) },
		extract: func(cfg Config) any { return cfg.Embedding.OpenAIModel },
	},
	{
		key: "embedding.openai_base_url", typ: kString, env: "PIE_OPENAI_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Embedding.OpenAIBaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Embedding.OpenAIBaseURL },
	},
	{
		key: "embedding.openai_api_key", typ: kString, env: "PIE_OPENAI_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Embedding.OpenAIAPIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Embedding.OpenAIAPIKey },
	},
	{
		key: "analysis.themes", typ: kInt, env: "PIE_ANALYSIS_THEMES",
		apply:   func(cfg *Config, v any) { cfg.Analysis.Themes = v.(int) },
		extract: func(cfg Config) any { return cfg.Analysis.Themes },
	},
	{
		key: "analysis.contamination", typ: kFloat, env: "PIE_ANALYSIS_CONTAMINATION",
		apply:   func(cfg *Config, v any) { cfg.Analysis.Contamination = v.(float64) },
		extract: func(cfg Config) any { return cfg.Analysis.Contamination },
	},
	{
		key: "analysis.anomaly_top_n", typ: kInt, env: "PIE_ANALYSIS_ANOMALY_TOP_N",
		apply:   func(cfg *Config, v any) { cfg.Analysis.AnomalyTopN = v.(int) },
		extract: func(cfg Config) any { return cfg.Analysis.AnomalyTopN },
	},
	{
		key: "analysis.week_window", typ: kInt, env: "PIE_ANALYSIS_WEEK_WINDOW",
		apply:   func(cfg *Config, v any) { cfg.Analysis.WeekWindow = v.(int) },
		extract: func(cfg Config) any { return cfg.Analysis.WeekWindow },
	},
	{
		key: "analysis.seed", typ: kInt, env: "PIE_ANALYSIS_SEED",
		apply:   func(cfg *Config, v any) { cfg.Analysis.Seed = v.(int) },
		extract: func(cfg Config) any { return cfg.Analysis.Seed },
	},
	{
		key: "analysis.trend_epsilon", typ: kFloat, env: "PIE_ANALYSIS_TREND_EPSILON",
		apply:   func(cfg *Config, v any) { cfg.Analysis.TrendEpsilon = v.(float64) },
		extract: func(cfg Config) any { return cfg.Analysis.TrendEpsilon },
	},
	{
		key: "analysis.cycle_threshold", typ: kFloat, env: "PIE_ANALYSIS_CYCLE_THRESHOLD",
		apply:   func(cfg *Config, v any) { cfg.Analysis.CycleThreshold = v.(float64) },
		extract: func(cfg Config) any { return cfg.Analysis.CycleThreshold },
	},
	{
		key: "analysis.restarts", typ: kInt, env: "PIE_ANALYSIS_RESTARTS",
		apply:   func(cfg *Config, v any) { cfg.Analysis.Restarts = v.(int) },
		extract: func(cfg Config) any { return cfg.Analysis.Restarts },
	},
	{
		key: "analysis.trees", typ: kInt, env: "PIE_ANALYSIS_TREES",
		apply:   func(cfg *Config, v any) { cfg.Analysis.Trees = v.(int) },
		extract: func(cfg Config) any { return cfg.Analysis.Trees },
	},
	{
		key: "storage.data_dir", typ: kString, env: "PIE_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "log.level", typ: kString, env: "PIE_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kFloat:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				if f, err := strconv.ParseFloat(v, 64); err == nil {
					s.apply(cfg, f)
				} else {
					fmt.Fprintf(os.Stderr, "[WARN] could not parse float from config key %s=%q: %v. Using default value.\n", s.key, v, err)
				}
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kFloat:
			if f, err := strconv.ParseFloat(raw, 64); err == nil {
				s.apply(cfg, f)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse float from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
