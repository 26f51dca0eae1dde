package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/insuregraph/insuregraph/internal/llm"
	"github.com/insuregraph/insuregraph/internal/ontology"
	"github.com/insuregraph/insuregraph/internal/types"
)

// PatternConfidence is the fixed confidence assigned when an ordered pattern
// group matches. Pattern matches are deterministic, so the value reflects the
// precision of the curated pattern set rather than a per-query estimate.
const PatternConfidence = 0.90

const classifierSystemPrompt = `You classify insurance policy questions.
Respond with a single JSON object: {"type": "<one of simple_coverage, comparison, temporal, gap_analysis, general>", "confidence": <0.0-1.0>}.
Respond with JSON only, no explanation.`

// Classifier routes a query to a retrieval strategy: ordered pattern groups
// first, a single LLM call as fallback.
type Classifier struct {
	ont      *ontology.Ontology
	provider llm.Provider
	model    string
	timeout  time.Duration
}

// NewClassifier creates a classifier over the given ontology pattern groups,
// with the provider handling the fallback path. timeout bounds the fallback
// call; zero means the caller's deadline is the only bound.
func NewClassifier(ont *ontology.Ontology, provider llm.Provider, model string, timeout time.Duration) *Classifier {
	return &Classifier{
		ont:      ont,
		provider: provider,
		model:    model,
		timeout:  timeout,
	}
}

// fallbackVerdict is the JSON shape the fallback model must return.
type fallbackVerdict struct {
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
}

// Classify returns the query's type. The pattern path depends on nothing but
// the query text and the loaded ontology, so it is deterministic. When no
// group matches, one LLM call decides; its failure is not retried and
// surfaces as general/0 together with the error so the caller can log it.
func (c *Classifier) Classify(ctx context.Context, query string) (Classification, error) {
	for _, group := range c.ont.PatternGroups {
		if !group.Matches(query) {
			continue
		}
		qt := QueryType(group.Type)
		if !qt.IsValid() {
			continue
		}
		return Classification{
			Type:       qt,
			Confidence: PatternConfidence,
			Method:     MethodPattern,
		}, nil
	}

	return c.classifyByModel(ctx, query)
}

func (c *Classifier) classifyByModel(ctx context.Context, query string) (Classification, error) {
	failed := Classification{Type: QueryGeneral, Confidence: 0, Method: MethodModel}

	if c.provider == nil {
		return failed, types.NewError(types.LLM_UNAVAILABLE, "no classifier fallback provider configured")
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
		Model:        c.model,
		Messages:     []llm.Message{llm.NewUserMessage(query)},
		SystemPrompt: classifierSystemPrompt,
		MaxTokens:    128,
	})
	if err != nil {
		return failed, types.WrapRetryableError(types.LLM_UNAVAILABLE,
			"classifier fallback call failed", err)
	}

	verdict, err := llm.ExtractJSONAs[fallbackVerdict](resp.Message.Content)
	if err != nil {
		return failed, types.WrapError(types.LLM_OUTPUT_MALFORMED,
			"classifier fallback returned unparseable output", err)
	}

	qt := QueryType(verdict.Type)
	if !qt.IsValid() {
		return failed, types.NewError(types.LLM_OUTPUT_MALFORMED,
			fmt.Sprintf("classifier fallback returned unknown type %q", verdict.Type))
	}
	if verdict.Confidence < 0 || verdict.Confidence > 1 {
		return failed, types.NewError(types.LLM_OUTPUT_MALFORMED,
			fmt.Sprintf("classifier fallback confidence out of range: %f", verdict.Confidence))
	}

	return Classification{
		Type:       qt,
		Confidence: verdict.Confidence,
		Method:     MethodModel,
	}, nil
}
