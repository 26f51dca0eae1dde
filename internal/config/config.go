package config

import (
	"time"

	"github.com/insuregraph/insuregraph/internal/graph"
	"github.com/insuregraph/insuregraph/internal/observability"
)

// Config is the root configuration for the InsureGraph query service.
type Config struct {
	Server   ServerConfig    `mapstructure:"server" yaml:"server"`
	LLM      LLMConfig       `mapstructure:"llm" yaml:"llm" validate:"required"`
	Embedder EmbedderConfig  `mapstructure:"embedder" yaml:"embedder" validate:"required"`
	Vector   VectorConfig    `mapstructure:"vector" yaml:"vector"`
	Graph    GraphConfig     `mapstructure:"graph" yaml:"graph" validate:"required"`
	Pipeline PipelineConfig  `mapstructure:"pipeline" yaml:"pipeline"`
	Ontology OntologyConfig  `mapstructure:"ontology" yaml:"ontology"`
	Review   ReviewConfig    `mapstructure:"review" yaml:"review"`
	Logging  LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Tracing  TracingConfig   `mapstructure:"tracing" yaml:"tracing"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port" validate:"min=0,max=65535"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// TierConfig describes one model tier of the reasoning cascade.
type TierConfig struct {
	Provider string        `mapstructure:"provider" yaml:"provider"`
	Model    string        `mapstructure:"model" yaml:"model" validate:"required"`
	APIKey   string        `mapstructure:"api_key" yaml:"api_key"`
	BaseURL  string        `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`

	// RequestsPerMinute caps outgoing calls to this tier. Zero disables the
	// limiter.
	RequestsPerMinute int `mapstructure:"requests_per_minute" yaml:"requests_per_minute,omitempty" validate:"min=0"`
}

// LLMConfig contains the two-tier cascade configuration. The classifier
// fallback call uses the primary tier.
type LLMConfig struct {
	Primary             TierConfig `mapstructure:"primary" yaml:"primary" validate:"required"`
	Fallback            TierConfig `mapstructure:"fallback" yaml:"fallback" validate:"required"`
	ConfidenceThreshold float64    `mapstructure:"confidence_threshold" yaml:"confidence_threshold" validate:"min=0,max=1"`
}

// EmbedderConfig contains embedding model settings.
type EmbedderConfig struct {
	Model      string        `mapstructure:"model" yaml:"model" validate:"required"`
	APIKey     string        `mapstructure:"api_key" yaml:"api_key"`
	BaseURL    string        `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Dimensions int           `mapstructure:"dimensions" yaml:"dimensions" validate:"min=1"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`

	RequestsPerMinute int `mapstructure:"requests_per_minute" yaml:"requests_per_minute,omitempty" validate:"min=0"`
}

// VectorConfig contains vector store settings. An empty path selects the
// in-memory store.
type VectorConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// GraphConfig contains Neo4j connection settings.
type GraphConfig struct {
	URI               string        `mapstructure:"uri" yaml:"uri" validate:"required"`
	Username          string        `mapstructure:"username" yaml:"username"`
	Password          string        `mapstructure:"password" yaml:"password"`
	Database          string        `mapstructure:"database" yaml:"database"`
	MaxPoolSize       int           `mapstructure:"max_pool_size" yaml:"max_pool_size"`
	ConnectionTimeout time.Duration `mapstructure:"connection_timeout" yaml:"connection_timeout"`
	MaxRetryTime      time.Duration `mapstructure:"max_retry_time" yaml:"max_retry_time"`
}

// ToClient converts to the graph client's own config type.
func (g GraphConfig) ToClient() graph.Config {
	cfg := graph.DefaultConfig()
	cfg.URI = g.URI
	cfg.Username = g.Username
	cfg.Password = g.Password
	cfg.Database = g.Database
	if g.MaxPoolSize > 0 {
		cfg.MaxConnectionPoolSize = g.MaxPoolSize
	}
	if g.ConnectionTimeout > 0 {
		cfg.ConnectionTimeout = g.ConnectionTimeout
	}
	if g.MaxRetryTime > 0 {
		cfg.MaxTransactionRetryTime = g.MaxRetryTime
	}
	return cfg
}

// PipelineConfig contains query pipeline bounds and defaults.
type PipelineConfig struct {
	DefaultMaxHops int `mapstructure:"default_max_hops" yaml:"default_max_hops" validate:"min=0,max=5"`
	DefaultTopK    int `mapstructure:"default_top_k" yaml:"default_top_k" validate:"min=0,max=50"`
}

// OntologyConfig points at the ontology file. An empty path selects the
// compiled-in defaults.
type OntologyConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// ReviewConfig contains review queue settings. An empty path selects the
// in-memory queue.
type ReviewConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled" yaml:"enabled"`
	Endpoint   string  `mapstructure:"endpoint" yaml:"endpoint"`
	SampleRate float64 `mapstructure:"sample_rate" yaml:"sample_rate" validate:"min=0,max=1"`
	Insecure   bool    `mapstructure:"insecure" yaml:"insecure"`
}

// ToObservability converts to the observability package's config type.
func (t TracingConfig) ToObservability(serviceName string) observability.TracingConfig {
	provider := "noop"
	if t.Enabled {
		provider = "otlp"
	}
	return observability.TracingConfig{
		Enabled:     t.Enabled,
		Provider:    provider,
		Endpoint:    t.Endpoint,
		SampleRate:  t.SampleRate,
		ServiceName: serviceName,
		Insecure:    t.Insecure,
	}
}
