package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/insuregraph/insuregraph/internal/pipeline"
)

// DefaultConfig returns a Config with sensible default values. API keys are
// left empty; they come from the config file or environment interpolation.
func DefaultConfig() *Config {
	homeDir := getDefaultHomeDir()

	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		LLM: LLMConfig{
			Primary: TierConfig{
				Provider: "openai",
				Model:    "gpt-4o-mini",
				Timeout:  30 * time.Second,
			},
			Fallback: TierConfig{
				Provider: "openai",
				Model:    "gpt-4o",
				Timeout:  60 * time.Second,
			},
			ConfidenceThreshold: 0.7,
		},
		Embedder: EmbedderConfig{
			Model:      "text-embedding-3-small",
			Dimensions: 1536,
			CacheTTL:   15 * time.Minute,
		},
		Vector: VectorConfig{
			Path: filepath.Join(homeDir, "clauses.db"),
		},
		Graph: GraphConfig{
			URI:               "bolt://localhost:7687",
			Username:          "neo4j",
			Database:          "neo4j",
			ConnectionTimeout: 30 * time.Second,
			MaxRetryTime:      30 * time.Second,
		},
		Pipeline: PipelineConfig{
			DefaultMaxHops: pipeline.DefaultMaxHops,
			DefaultTopK:    pipeline.DefaultTopK,
		},
		Review: ReviewConfig{
			Path: filepath.Join(homeDir, "review.db"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Enabled:    false,
			SampleRate: 1.0,
		},
	}
}

func getDefaultHomeDir() string {
	if dir := os.Getenv("INSUREGRAPH_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".insuregraph"
	}
	return filepath.Join(home, ".insuregraph")
}
