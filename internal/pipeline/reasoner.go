package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/insuregraph/insuregraph/internal/llm"
	"github.com/insuregraph/insuregraph/internal/policy"
	"github.com/insuregraph/insuregraph/internal/types"
)

const reasonerSystemPrompt = `You are an insurance policy analyst. Answer the user's question using ONLY the supplied policy clauses and graph relationships.

Rules:
- Ground every claim in the supplied clause text. Cite clause IDs.
- Never use absolute-certainty language such as "100% 보장" or "무조건 지급". State conditions and limits.
- If the supplied relationships conflict (one says covered, another says excluded), state the conflict explicitly instead of picking a side.
- Respond with a single JSON object:
{"summary": "<answer summary>", "details": [{"coverage_name": "...", "covered": true, "conditions": ["..."], "amount": "...", "reasoning": "...", "clause_ids": ["..."]}], "confidence": <0.0-1.0>, "sources": ["<clause id>", ...]}
Respond with JSON only.`

// Reasoner drafts an answer from the retrieved clauses and traversal paths via
// the two-tier model cascade.
type Reasoner struct {
	cascade *llm.Cascade
}

// NewReasoner creates a reasoner over the given cascade.
func NewReasoner(cascade *llm.Cascade) *Reasoner {
	return &Reasoner{cascade: cascade}
}

// answerDraft is the JSON shape the models must return.
type answerDraft struct {
	Summary    string        `json:"summary"`
	Details    []detailDraft `json:"details"`
	Confidence float64       `json:"confidence"`
	Sources    []string      `json:"sources"`
}

type detailDraft struct {
	CoverageName string   `json:"coverage_name"`
	Covered      bool     `json:"covered"`
	Conditions   []string `json:"conditions"`
	Amount       string   `json:"amount"`
	Reasoning    string   `json:"reasoning"`
	ClauseIDs    []string `json:"clause_ids"`
}

// DraftConfidence extracts the self-reported confidence from a completion.
// It is the cascade's ConfidenceFunc: a parse failure here means the response
// is unusable, which aborts the query rather than guessing.
func DraftConfidence(resp *llm.CompletionResponse) (float64, error) {
	draft, err := llm.ExtractJSONAs[answerDraft](resp.Message.Content)
	if err != nil {
		return 0, err
	}
	if draft.Summary == "" {
		return 0, fmt.Errorf("draft has no summary")
	}
	if draft.Confidence < 0 || draft.Confidence > 1 {
		return 0, fmt.Errorf("draft confidence out of range: %f", draft.Confidence)
	}
	return draft.Confidence, nil
}

// Reason produces an answer draft for the query. threshold overrides the
// cascade escalation threshold for this call; zero uses the cascade default.
// Malformed output from either cascade tier surfaces as LLM_OUTPUT_MALFORMED
// and is not retried.
func (r *Reasoner) Reason(ctx context.Context, query string, threshold float64, traversal *TraversalResult, hits []policy.ClauseHit, clauses []policy.Clause) (*policy.Answer, *llm.CascadeResult, error) {
	prompt := buildReasoningPrompt(query, traversal, hits, clauses)

	result, err := r.cascade.CompleteWithThreshold(ctx, threshold, reasonerSystemPrompt, []llm.Message{
		llm.NewUserMessage(prompt),
	})
	if err != nil {
		return nil, nil, err
	}

	draft, err := llm.ExtractJSONAs[answerDraft](result.Response.Message.Content)
	if err != nil {
		return nil, nil, types.WrapError(types.LLM_OUTPUT_MALFORMED,
			"reasoning response is not parseable", err)
	}

	answer := &policy.Answer{
		Summary:    draft.Summary,
		Confidence: draft.Confidence,
		Sources:    draft.Sources,
	}
	for _, d := range draft.Details {
		answer.Details = append(answer.Details, policy.CoverageDetail{
			CoverageName: d.CoverageName,
			Covered:      d.Covered,
			Conditions:   d.Conditions,
			Amount:       d.Amount,
			Reasoning:    d.Reasoning,
			ClauseIDs:    d.ClauseIDs,
		})
	}

	if err := answer.Validate(); err != nil {
		return nil, nil, types.WrapError(types.LLM_OUTPUT_MALFORMED,
			"reasoning response failed structural validation", err)
	}

	return answer, result, nil
}

// buildReasoningPrompt lays out the evidence: retrieved clauses first, then
// graph paths with their provenance, then conflict notices.
func buildReasoningPrompt(query string, traversal *TraversalResult, hits []policy.ClauseHit, clauses []policy.Clause) string {
	var b strings.Builder

	b.WriteString("Question: ")
	b.WriteString(query)
	b.WriteString("\n\nPolicy clauses:\n")

	if len(hits) == 0 && len(clauses) == 0 {
		b.WriteString("(no relevant clauses found)\n")
	}
	for _, hit := range hits {
		fmt.Fprintf(&b, "- [%s] %s %s (p.%d, score %.2f): %s\n",
			hit.ClauseID, hit.Article, hit.Paragraph, hit.Page, hit.Score, hit.Text)
	}
	for _, clause := range clauses {
		fmt.Fprintf(&b, "- [%s] %s: %s\n", clause.ID, clause.Ref(), clause.Text)
	}

	b.WriteString("\nGraph relationships:\n")
	if traversal == nil || len(traversal.Paths) == 0 {
		b.WriteString("(no graph paths found)\n")
	} else {
		for _, path := range traversal.Paths {
			b.WriteString("- ")
			b.WriteString(renderPath(path))
			b.WriteString("\n")
		}
	}

	if traversal != nil && len(traversal.Conflicts) > 0 {
		b.WriteString("\nDetected conflicts (state these explicitly in the answer):\n")
		for _, conflict := range traversal.Conflicts {
			b.WriteString("- ")
			b.WriteString(conflict.String())
			b.WriteString("\n")
		}
	}

	return b.String()
}

// renderPath flattens a path into "A -[COVERS]-> B" form with its confidence
// and provenance clause IDs.
func renderPath(path policy.GraphPath) string {
	var b strings.Builder
	for i, node := range path.Nodes {
		if i > 0 {
			fmt.Fprintf(&b, " -[%s]-> ", path.Edges[i-1].Type)
		}
		b.WriteString(node.Name)
	}
	fmt.Fprintf(&b, " (confidence %.2f", path.Confidence)
	if ids := path.ClauseIDs(); len(ids) > 0 {
		fmt.Fprintf(&b, ", clauses %s", strings.Join(ids, ","))
	}
	if path.Conflicting {
		b.WriteString(", CONFLICTING")
	}
	b.WriteString(")")
	return b.String()
}
