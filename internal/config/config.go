// Package config translates viper settings into typed configuration values.
// Configuration is read once in the command layer and passed into
// constructors explicitly; no component reads ambient global state.
package config

import (
	"os"

	"github.com/spf13/viper"

	"catmatch/internal/engine"
	"catmatch/internal/llm"
)

// Thresholds holds the two confidence knobs. They are independent constants
// with different jobs: Accept gates the deterministic matcher's suggestion,
// HighConfidenceHint is prompt guidance for the AI path.
type Thresholds struct {
	Accept             float64
	HighConfidenceHint float64
}

// Config is the full application configuration.
type Config struct {
	LLM           llm.Config
	Orchestration engine.Options
	Thresholds    Thresholds
}

// Load reads configuration from viper with defaults applied. Call after
// viper has read its config file and bound environment variables.
func Load() Config {
	provider := viper.GetString("llm.provider")
	if provider == "" {
		provider = "gemini"
	}

	cfg := Config{
		LLM: llm.Config{
			Provider:           provider,
			APIKey:             apiKey(provider),
			Endpoint:           viper.GetString("llm.endpoint"),
			Temperature:        viper.GetFloat64("llm.temperature"),
			MaxTokens:          viper.GetInt("llm.max_tokens"),
			HighConfidenceHint: viper.GetFloat64("thresholds.high_confidence_hint"),
			ReasoningLimit:     viper.GetInt("llm.reasoning_limit"),
		},
		Orchestration: engine.Options{
			Model:          viper.GetString("llm.model"),
			FallbackModels: viper.GetStringSlice("llm.fallback_models"),
			ChunkSize:      viper.GetInt("batch.chunk_size"),
			MaxAttempts:    viper.GetInt("batch.max_attempts"),
			BackoffBase:    viper.GetDuration("batch.backoff_base"),
			ChunkInterval:  viper.GetDuration("batch.chunk_interval"),
		},
		Thresholds: Thresholds{
			Accept:             viper.GetFloat64("thresholds.accept"),
			HighConfidenceHint: viper.GetFloat64("thresholds.high_confidence_hint"),
		},
	}

	if cfg.Thresholds.Accept == 0 {
		cfg.Thresholds.Accept = 0.6
	}
	if cfg.Thresholds.HighConfidenceHint == 0 {
		cfg.Thresholds.HighConfidenceHint = llm.DefaultHighConfidenceHint
		cfg.LLM.HighConfidenceHint = llm.DefaultHighConfidenceHint
	}
	if cfg.LLM.ReasoningLimit == 0 {
		cfg.LLM.ReasoningLimit = llm.DefaultReasoningLimit
	}

	return cfg
}

// apiKey resolves the provider credential: explicit config first, then the
// conventional environment variable.
func apiKey(provider string) string {
	if key := viper.GetString("llm.api_key"); key != "" {
		return key
	}
	switch provider {
	case "gemini", "google":
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			return key
		}
		return os.Getenv("GOOGLE_API_KEY")
	case "openai", "openrouter":
		return os.Getenv("OPENAI_API_KEY")
	default:
		return ""
	}
}
