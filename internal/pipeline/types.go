// Package pipeline implements the query pipeline: classification, hybrid
// retrieval (vector search plus bounded graph traversal), the reasoning
// cascade, and answer validation.
package pipeline

import (
	"fmt"

	"github.com/insuregraph/insuregraph/internal/policy"
	"github.com/insuregraph/insuregraph/internal/types"
)

// QueryType is the retrieval strategy a query is routed to.
type QueryType string

const (
	QuerySimpleCoverage QueryType = "simple_coverage"
	QueryComparison     QueryType = "comparison"
	QueryTemporal       QueryType = "temporal"
	QueryGapAnalysis    QueryType = "gap_analysis"
	QueryGeneral        QueryType = "general"
)

// IsValid checks if the QueryType is a valid value.
func (t QueryType) IsValid() bool {
	switch t {
	case QuerySimpleCoverage, QueryComparison, QueryTemporal,
		QueryGapAnalysis, QueryGeneral:
		return true
	default:
		return false
	}
}

// ClassifyMethod records which path produced a classification.
type ClassifyMethod string

const (
	MethodPattern ClassifyMethod = "pattern"
	MethodModel   ClassifyMethod = "model"
)

// Classification is the classifier's verdict for one query.
type Classification struct {
	Type       QueryType      `json:"type"`
	Confidence float64        `json:"confidence"`
	Method     ClassifyMethod `json:"method"`
}

// Status is the terminal outcome of a query.
type Status string

const (
	StatusApproved    Status = "approved"
	StatusNeedsReview Status = "needs_review"
	StatusRejected    Status = "rejected"
	StatusFailed      Status = "failed"
)

// Reason tags attached to rejected, needs_review, and failed outcomes.
const (
	ReasonNoSourceReference   = "no_source_reference"
	ReasonLowConfidence       = "low_confidence"
	ReasonForbiddenPhrase     = "forbidden_phrase"
	ReasonConsistencyMismatch = "consistency_mismatch"
	ReasonMediumConfidence    = "medium_confidence"
	ReasonOutputMalformed     = "llm_output_malformed"
)

// Options are the caller-tunable bounds for one query.
type Options struct {
	// MaxHops bounds graph traversal depth. Zero selects DefaultMaxHops.
	MaxHops int `json:"max_hops,omitempty"`

	// TopK bounds vector retrieval. Zero selects DefaultTopK.
	TopK int `json:"top_k,omitempty"`

	// ConfidenceThreshold overrides the cascade escalation threshold.
	// Zero selects the cascade default.
	ConfidenceThreshold float64 `json:"confidence_threshold,omitempty"`
}

const (
	DefaultMaxHops = 3
	MaxHopsLimit   = 5
	DefaultTopK    = 10
	TopKLimit      = 50

	// MaxQueryLength bounds raw query text, in runes.
	MaxQueryLength = 1000
)

// routed fills zero fields from the classified query type. Comparison and
// gap-analysis queries traverse one hop deeper and retrieve a wider clause
// set, since their answers span several coverages; general queries stay at a
// single hop. Explicit caller values always win over routing.
func (o Options) routed(t QueryType, defaults Options) Options {
	baseHops := defaults.MaxHops
	if baseHops == 0 {
		baseHops = DefaultMaxHops
	}
	baseTopK := defaults.TopK
	if baseTopK == 0 {
		baseTopK = DefaultTopK
	}

	if o.MaxHops == 0 {
		switch t {
		case QueryComparison, QueryGapAnalysis:
			o.MaxHops = min(baseHops+1, MaxHopsLimit)
		case QueryGeneral:
			o.MaxHops = 1
		default:
			o.MaxHops = baseHops
		}
	}
	if o.TopK == 0 {
		switch t {
		case QueryComparison, QueryGapAnalysis:
			o.TopK = min(baseTopK+5, TopKLimit)
		default:
			o.TopK = baseTopK
		}
	}
	return o
}

// Validate checks option bounds. Called before any stage runs.
func (o Options) Validate() error {
	if o.MaxHops < 0 || o.MaxHops > MaxHopsLimit {
		return types.NewError(types.QUERY_INVALID_OPTIONS,
			fmt.Sprintf("max_hops must be in [0,%d], got %d", MaxHopsLimit, o.MaxHops))
	}
	if o.TopK < 0 || o.TopK > TopKLimit {
		return types.NewError(types.QUERY_INVALID_OPTIONS,
			fmt.Sprintf("top_k must be in [0,%d], got %d", TopKLimit, o.TopK))
	}
	if o.ConfidenceThreshold < 0 || o.ConfidenceThreshold > 1 {
		return types.NewError(types.QUERY_INVALID_OPTIONS,
			fmt.Sprintf("confidence_threshold must be in [0,1], got %f", o.ConfidenceThreshold))
	}
	return nil
}

// QueryResult is the caller-visible outcome of one query. Rejected and failed
// results never carry an answer; needs_review results do, together with the
// warnings explaining why they need review.
type QueryResult struct {
	Status         Status         `json:"status"`
	Reason         string         `json:"reason,omitempty"`
	Message        string         `json:"message"`
	Answer         *policy.Answer `json:"answer,omitempty"`
	Warnings       []string       `json:"warnings,omitempty"`
	Violations     []string       `json:"violations,omitempty"`
	Sources        []string       `json:"sources,omitempty"`
	Classification Classification `json:"classification"`
}
