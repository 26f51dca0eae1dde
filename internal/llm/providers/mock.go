package providers

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/insuregraph/insuregraph/internal/llm"
	"github.com/insuregraph/insuregraph/internal/types"
)

// MockCall represents a recorded call to the mock provider
type MockCall struct {
	Request llm.CompletionRequest
}

// MockProvider implements llm.Provider for testing
type MockProvider struct {
	mu            sync.Mutex
	name          string
	responses     []string
	responseIndex int
	calls         []MockCall
	// Err, when set, is returned from every Complete call.
	Err error
}

// NewMockProvider creates a new mock provider that cycles through the given
// responses.
func NewMockProvider(responses []string) *MockProvider {
	return &MockProvider{
		name:      "mock",
		responses: responses,
		calls:     make([]MockCall, 0),
	}
}

// NewNamedMockProvider creates a mock provider with an explicit name, useful
// when registering several mocks in one registry.
func NewNamedMockProvider(name string, responses []string) *MockProvider {
	p := NewMockProvider(responses)
	p.name = name
	return p
}

// Name returns the provider name
func (p *MockProvider) Name() string {
	return p.name
}

// Models returns mock model information
func (p *MockProvider) Models(ctx context.Context) ([]llm.ModelInfo, error) {
	return []llm.ModelInfo{
		{
			Name:          "mock-model",
			ContextWindow: 4096,
			MaxOutput:     2048,
			Features:      []string{"chat", "json_mode"},
		},
	}, nil
}

// Complete generates a completion from the configured responses.
func (p *MockProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.calls = append(p.calls, MockCall{Request: req})

	if p.Err != nil {
		err := p.Err
		p.mu.Unlock()
		return nil, err
	}

	if len(p.responses) == 0 {
		p.mu.Unlock()
		return nil, llm.NewProviderError(p.name, fmt.Errorf("no responses configured"))
	}

	response := p.responses[p.responseIndex%len(p.responses)]
	p.responseIndex++
	p.mu.Unlock()

	return &llm.CompletionResponse{
		ID:    uuid.New().String(),
		Model: req.Model,
		Message: llm.Message{
			Role:    llm.RoleAssistant,
			Content: response,
		},
		FinishReason: llm.FinishReasonStop,
		Usage: llm.TokenUsage{
			PromptTokens:     10,
			CompletionTokens: len(response) / 4,
			TotalTokens:      10 + len(response)/4,
		},
	}, nil
}

// Health always reports healthy for the mock.
func (p *MockProvider) Health(ctx context.Context) types.HealthStatus {
	return types.Healthy("mock provider")
}

// Calls returns a copy of all recorded calls.
func (p *MockProvider) Calls() []MockCall {
	p.mu.Lock()
	defer p.mu.Unlock()

	calls := make([]MockCall, len(p.calls))
	copy(calls, p.calls)
	return calls
}

// CallCount returns the number of Complete calls recorded.
func (p *MockProvider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

// Reset clears recorded calls and rewinds the response cycle.
func (p *MockProvider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = p.calls[:0]
	p.responseIndex = 0
}
