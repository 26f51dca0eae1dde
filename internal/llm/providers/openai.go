// Package providers contains concrete llm.Provider implementations.
package providers

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/insuregraph/insuregraph/internal/llm"
	"github.com/insuregraph/insuregraph/internal/types"
)

// OpenAIConfig configures the OpenAI-compatible provider.
type OpenAIConfig struct {
	// Name distinguishes multiple instances in one registry, for example the
	// primary and fallback cascade tiers. Defaults to "openai".
	Name    string
	APIKey  string
	BaseURL string
	// RequestsPerMinute caps outgoing completion calls. Zero disables the
	// limiter.
	RequestsPerMinute int
	// Models advertises the models this deployment is allowed to use.
	Models []llm.ModelInfo
}

// OpenAIProvider implements llm.Provider against any OpenAI-compatible
// chat-completions endpoint.
type OpenAIProvider struct {
	client  *openai.Client
	config  OpenAIConfig
	limiter *rate.Limiter
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(config OpenAIConfig) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, types.NewError(llm.ErrProviderInitFailed, "OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	var limiter *rate.Limiter
	if config.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(config.RequestsPerMinute)), config.RequestsPerMinute)
	}

	return &OpenAIProvider{
		client:  openai.NewClientWithConfig(clientConfig),
		config:  config,
		limiter: limiter,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	if p.config.Name != "" {
		return p.config.Name
	}
	return "openai"
}

// Models returns the models this provider is configured to serve.
func (p *OpenAIProvider) Models(ctx context.Context) ([]llm.ModelInfo, error) {
	if len(p.config.Models) > 0 {
		return p.config.Models, nil
	}
	return []llm.ModelInfo{
		{Name: openai.GPT4oMini, ContextWindow: 128000, MaxOutput: 16384, Features: []string{"chat", "json_mode"}},
		{Name: openai.GPT4o, ContextWindow: 128000, MaxOutput: 16384, Features: []string{"chat", "json_mode"}},
	}, nil
}

// Complete sends a chat completion request and returns the full response.
func (p *OpenAIProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, types.WrapError(llm.ErrInvalidRequest, "invalid completion request", err)
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, types.WrapError(llm.ErrProviderRateLimited, "rate limiter wait aborted", err)
		}
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
		Stop:        req.StopSequences,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, types.WrapRetryableError(llm.ErrCompletionTimeout,
				fmt.Sprintf("completion timed out for model %s", req.Model), err)
		}
		return nil, llm.NewProviderError(p.Name(), err)
	}

	if len(resp.Choices) == 0 {
		return nil, types.NewError(llm.ErrOutputMalformed, "completion returned no choices")
	}

	choice := resp.Choices[0]
	return &llm.CompletionResponse{
		ID:    resp.ID,
		Model: resp.Model,
		Message: llm.Message{
			Role:    llm.RoleAssistant,
			Content: choice.Message.Content,
		},
		FinishReason: convertFinishReason(choice.FinishReason),
		Usage: llm.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// Health checks connectivity by listing models with a short timeout.
func (p *OpenAIProvider) Health(ctx context.Context) types.HealthStatus {
	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := p.client.ListModels(healthCtx); err != nil {
		return types.Unhealthy(fmt.Sprintf("model listing failed: %v", err))
	}
	return types.Healthy("openai endpoint reachable")
}

// convertFinishReason maps the OpenAI finish reason onto ours.
func convertFinishReason(r openai.FinishReason) llm.FinishReason {
	switch r {
	case openai.FinishReasonStop:
		return llm.FinishReasonStop
	case openai.FinishReasonLength:
		return llm.FinishReasonLength
	case openai.FinishReasonContentFilter:
		return llm.FinishReasonContentFilter
	default:
		return llm.FinishReasonError
	}
}
