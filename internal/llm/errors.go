package llm

import "github.com/insuregraph/insuregraph/internal/types"

// LLM error codes
const (
	// Provider errors
	ErrProviderNotFound      types.ErrorCode = "LLM_PROVIDER_NOT_FOUND"
	ErrProviderInitFailed    types.ErrorCode = "LLM_PROVIDER_INIT_FAILED"
	ErrProviderUnavailable   types.ErrorCode = "LLM_PROVIDER_UNAVAILABLE"
	ErrProviderRateLimited   types.ErrorCode = "LLM_PROVIDER_RATE_LIMITED"
	ErrProviderInvalidInput  types.ErrorCode = "LLM_PROVIDER_INVALID_INPUT"
	ErrProviderAlreadyExists types.ErrorCode = "LLM_PROVIDER_ALREADY_EXISTS"

	// Request errors
	ErrInvalidRequest types.ErrorCode = "LLM_INVALID_REQUEST"
	ErrInvalidMessage types.ErrorCode = "LLM_INVALID_MESSAGE"

	// Response errors
	ErrCompletionTimeout types.ErrorCode = "LLM_COMPLETION_TIMEOUT"
	ErrOutputMalformed   types.ErrorCode = "LLM_OUTPUT_MALFORMED"

	// Cascade errors
	ErrNoTierAvailable types.ErrorCode = "LLM_NO_TIER_AVAILABLE"
)

// NewProviderError wraps a provider-level failure with the provider name for
// context. Transient by nature, so the error is marked retryable.
func NewProviderError(provider string, cause error) error {
	return types.WrapRetryableError(ErrProviderUnavailable,
		"provider "+provider+" request failed", cause)
}
