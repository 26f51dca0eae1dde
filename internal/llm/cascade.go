package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/insuregraph/insuregraph/internal/types"
)

// DefaultConfidenceThreshold is the self-reported confidence below which the
// cascade escalates to the fallback tier.
const DefaultConfidenceThreshold = 0.7

// Tier pairs a provider with a model for one level of the cascade.
type Tier struct {
	Provider    Provider
	Model       string
	Temperature float64
	MaxTokens   int
	// Timeout bounds the individual completion call. Zero means the caller's
	// context deadline is the only bound.
	Timeout time.Duration
}

// Validate checks the tier is usable.
func (t Tier) Validate() error {
	if t.Provider == nil {
		return types.NewError(ErrNoTierAvailable, "tier provider cannot be nil")
	}
	if t.Model == "" {
		return types.NewError(ErrNoTierAvailable, "tier model cannot be empty")
	}
	return nil
}

// ConfidenceFunc extracts the model's self-reported confidence from a
// completion response. An error means the response is not parseable into the
// required structure, which is terminal for the query.
type ConfidenceFunc func(*CompletionResponse) (float64, error)

// CascadeResult is the outcome of a cascade completion: the winning response,
// which tier produced it, and its self-reported confidence.
type CascadeResult struct {
	Response   *CompletionResponse
	TierName   string
	Confidence float64
	// Escalated is true when the fallback tier was invoked.
	Escalated bool
}

// Cascade implements a two-tier fallback-by-confidence completion policy: a
// cost-optimized primary model, and a higher-capability fallback invoked only
// when the primary's self-reported confidence falls below the threshold or the
// primary times out. The two responses are never blended; the one reporting
// higher confidence wins.
type Cascade struct {
	primary    Tier
	fallback   Tier
	threshold  float64
	confidence ConfidenceFunc
}

// NewCascade creates a Cascade over the given tiers. confidence extracts the
// self-reported confidence from each tier's response. threshold <= 0 selects
// DefaultConfidenceThreshold.
func NewCascade(primary, fallback Tier, threshold float64, confidence ConfidenceFunc) (*Cascade, error) {
	if err := primary.Validate(); err != nil {
		return nil, err
	}
	if err := fallback.Validate(); err != nil {
		return nil, err
	}
	if confidence == nil {
		return nil, types.NewError(ErrNoTierAvailable, "confidence func cannot be nil")
	}
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}

	return &Cascade{
		primary:    primary,
		fallback:   fallback,
		threshold:  threshold,
		confidence: confidence,
	}, nil
}

// Complete runs the cascade for the given messages.
//
// A primary-tier timeout is treated as confidence zero, not as an outright
// failure: the cascade falls through to the fallback tier exactly as it would
// for a low numeric confidence score. Any other primary failure, and any
// fallback failure, surfaces as an error. Malformed output from either tier
// aborts immediately with ErrOutputMalformed; retrying a non-deterministic
// model on malformed output risks silently masking a grounding failure.
func (c *Cascade) Complete(ctx context.Context, systemPrompt string, messages []Message) (*CascadeResult, error) {
	return c.CompleteWithThreshold(ctx, 0, systemPrompt, messages)
}

// CompleteWithThreshold runs the cascade with a per-call escalation threshold.
// threshold <= 0 uses the cascade's configured threshold.
func (c *Cascade) CompleteWithThreshold(ctx context.Context, threshold float64, systemPrompt string, messages []Message) (*CascadeResult, error) {
	if threshold <= 0 {
		threshold = c.threshold
	}

	primaryResp, primaryErr := c.completeTier(ctx, c.primary, systemPrompt, messages)

	var primaryConf float64
	primaryUsable := false

	switch {
	case primaryErr == nil:
		conf, err := c.confidence(primaryResp)
		if err != nil {
			return nil, types.WrapError(ErrOutputMalformed,
				fmt.Sprintf("primary model %s returned unparseable output", c.primary.Model), err)
		}
		primaryConf = conf
		primaryUsable = true
	case isTimeout(primaryErr):
		// Timeout on the primary is low confidence, not failure.
		primaryConf = 0
	default:
		return nil, types.WrapError(types.LLM_UNAVAILABLE,
			fmt.Sprintf("primary model %s failed", c.primary.Model), primaryErr)
	}

	if primaryUsable && primaryConf >= threshold {
		return &CascadeResult{
			Response:   primaryResp,
			TierName:   "primary",
			Confidence: primaryConf,
		}, nil
	}

	fallbackResp, fallbackErr := c.completeTier(ctx, c.fallback, systemPrompt, messages)
	if fallbackErr != nil {
		// Fallback failed; the primary answer, if there was one, still stands.
		if primaryUsable {
			return &CascadeResult{
				Response:   primaryResp,
				TierName:   "primary",
				Confidence: primaryConf,
				Escalated:  true,
			}, nil
		}
		return nil, types.WrapError(types.LLM_UNAVAILABLE,
			fmt.Sprintf("fallback model %s failed with no usable primary response", c.fallback.Model), fallbackErr)
	}

	fallbackConf, err := c.confidence(fallbackResp)
	if err != nil {
		return nil, types.WrapError(ErrOutputMalformed,
			fmt.Sprintf("fallback model %s returned unparseable output", c.fallback.Model), err)
	}

	// Pure fallback-by-confidence: keep whichever response reports higher
	// confidence, never a blend of both.
	if primaryUsable && primaryConf >= fallbackConf {
		return &CascadeResult{
			Response:   primaryResp,
			TierName:   "primary",
			Confidence: primaryConf,
			Escalated:  true,
		}, nil
	}

	return &CascadeResult{
		Response:   fallbackResp,
		TierName:   "fallback",
		Confidence: fallbackConf,
		Escalated:  true,
	}, nil
}

// completeTier issues one completion against a tier, applying its sub-timeout.
func (c *Cascade) completeTier(ctx context.Context, tier Tier, systemPrompt string, messages []Message) (*CompletionResponse, error) {
	if tier.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, tier.Timeout)
		defer cancel()
	}

	req := CompletionRequest{
		Model:        tier.Model,
		Messages:     messages,
		Temperature:  tier.Temperature,
		MaxTokens:    tier.MaxTokens,
		SystemPrompt: systemPrompt,
	}
	if err := req.Validate(); err != nil {
		return nil, types.WrapError(ErrInvalidRequest, "invalid completion request", err)
	}

	return tier.Provider.Complete(ctx, req)
}

// isTimeout reports whether the error chain indicates a deadline expiry.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var perr *types.PipelineError
	if errors.As(err, &perr) {
		return perr.Code == ErrCompletionTimeout
	}
	return false
}
