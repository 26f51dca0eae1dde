package llm

import (
	"context"

	"github.com/insuregraph/insuregraph/internal/types"
)

// Provider defines the interface that all LLM providers must implement.
// It provides a unified abstraction for interacting with different LLM
// services (OpenAI-compatible endpoints, local models, mocks).
type Provider interface {
	// Name returns the provider name (e.g., "openai", "mock")
	Name() string

	// Models returns information about all available models for this provider
	Models(ctx context.Context) ([]ModelInfo, error)

	// Complete sends a completion request and returns the full response.
	// This is a blocking call that waits for the entire response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Health checks the health status of the provider and its connectivity
	Health(ctx context.Context) types.HealthStatus
}

// ModelInfo contains metadata about an LLM model.
type ModelInfo struct {
	// Name is the model identifier (e.g., "gpt-4o-mini")
	Name string `json:"name"`

	// ContextWindow is the maximum number of tokens the model can process
	ContextWindow int `json:"context_window"`

	// MaxOutput is the maximum number of tokens the model can generate
	MaxOutput int `json:"max_output"`

	// Features lists the capabilities this model supports
	Features []string `json:"features"`
}

// SupportsFeature checks if the model supports a given feature
func (m ModelInfo) SupportsFeature(feature string) bool {
	for _, f := range m.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// SupportsJSONMode checks if the model supports structured JSON output
func (m ModelInfo) SupportsJSONMode() bool {
	return m.SupportsFeature("json_mode")
}
