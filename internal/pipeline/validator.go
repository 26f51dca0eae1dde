package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/insuregraph/insuregraph/internal/ontology"
	"github.com/insuregraph/insuregraph/internal/policy"
	"github.com/insuregraph/insuregraph/internal/review"
)

// Stage identifies one validation state. Stages run in a fixed order and a
// rejection short-circuits the remainder.
type Stage string

const (
	StageSourceChecked      Stage = "source_checked"
	StageConfidenceChecked  Stage = "confidence_checked"
	StagePhraseChecked      Stage = "phrase_checked"
	StageConsistencyChecked Stage = "consistency_checked"
)

// StageObserver is called as each validation stage begins. Tests use it to
// observe short-circuiting; production wiring uses it for span events.
type StageObserver func(stage Stage)

// Confidence bands. The reject cut is checked in-order and short-circuits;
// the surviving bands decide the terminal status after the remaining checks.
const (
	BandHigh   = 0.85
	BandMedium = 0.70
	BandLow    = 0.60
)

// ConsultInsurerWarning is attached to medium-band answers.
const ConsultInsurerWarning = "정확한 보장 여부는 보험사에 문의하시기 바랍니다"

// Verdict is the validator's terminal output.
type Verdict struct {
	Status     Status
	Reason     string
	Warnings   []string
	Violations []string
}

// Validator runs the four-stage answer check. It is deterministic: the same
// answer and retrieval context always produce the same verdict. Review-queue
// enqueueing is its only side effect, and an enqueue failure degrades to a
// warning rather than failing the query.
type Validator struct {
	ont      *ontology.Ontology
	queue    review.Queue
	observer StageObserver
}

// NewValidator creates a validator over the given forbidden-phrase ontology
// and review queue. queue may be nil, in which case needs_review outcomes are
// returned without the enqueue side effect.
func NewValidator(ont *ontology.Ontology, queue review.Queue) *Validator {
	return &Validator{ont: ont, queue: queue}
}

// SetObserver installs a stage observer. Not safe to call concurrently with
// Validate.
func (v *Validator) SetObserver(observer StageObserver) {
	v.observer = observer
}

func (v *Validator) observe(stage Stage) {
	if v.observer != nil {
		v.observer(stage)
	}
}

// Validate checks the answer against the retrieved context and traversal
// paths. retrieved is the set of clause IDs present in the context the
// reasoner saw; citing anything outside it is a grounding failure.
func (v *Validator) Validate(ctx context.Context, query string, answer *policy.Answer, retrieved map[string]bool, traversal *TraversalResult) Verdict {
	v.observe(StageSourceChecked)
	if missing := v.checkSources(answer, retrieved); len(missing) > 0 {
		return Verdict{
			Status:     StatusRejected,
			Reason:     ReasonNoSourceReference,
			Violations: missing,
		}
	}

	v.observe(StageConfidenceChecked)
	if answer.Confidence < BandLow {
		return Verdict{
			Status: StatusRejected,
			Reason: ReasonLowConfidence,
		}
	}

	v.observe(StagePhraseChecked)
	if violations := v.checkForbiddenPhrases(answer); len(violations) > 0 {
		return Verdict{
			Status:     StatusRejected,
			Reason:     ReasonForbiddenPhrase,
			Violations: violations,
		}
	}

	v.observe(StageConsistencyChecked)
	warnings := v.checkConsistency(answer, traversal)
	inconsistent := len(warnings) > 0

	switch {
	case inconsistent:
		v.enqueue(ctx, query, answer, ReasonConsistencyMismatch, &warnings)
		return Verdict{
			Status:   StatusNeedsReview,
			Reason:   ReasonConsistencyMismatch,
			Warnings: warnings,
		}

	case answer.Confidence >= BandHigh:
		return Verdict{Status: StatusApproved}

	case answer.Confidence >= BandMedium:
		warnings = append(warnings, ConsultInsurerWarning)
		v.enqueue(ctx, query, answer, ReasonMediumConfidence, &warnings)
		return Verdict{
			Status:   StatusNeedsReview,
			Reason:   ReasonMediumConfidence,
			Warnings: warnings,
		}

	default:
		// Low band: survived the reject cut but below medium.
		v.enqueue(ctx, query, answer, ReasonLowConfidence, &warnings)
		return Verdict{
			Status:   StatusNeedsReview,
			Reason:   ReasonLowConfidence,
			Warnings: warnings,
		}
	}
}

// checkSources returns the clause IDs cited by the answer that are absent
// from the retrieved context.
func (v *Validator) checkSources(answer *policy.Answer, retrieved map[string]bool) []string {
	seen := make(map[string]bool)
	var missing []string

	appendMissing := func(ids []string) {
		for _, id := range ids {
			if retrieved[id] || seen[id] {
				continue
			}
			seen[id] = true
			missing = append(missing, id)
		}
	}

	appendMissing(answer.Sources)
	for _, detail := range answer.Details {
		appendMissing(detail.ClauseIDs)
	}
	return missing
}

// checkForbiddenPhrases scans the summary and every detail's reasoning for
// forbidden absolute-certainty phrases, returning every match.
func (v *Validator) checkForbiddenPhrases(answer *policy.Answer) []string {
	seen := make(map[string]bool)
	var violations []string

	scan := func(text string) {
		for _, phrase := range v.ont.ForbiddenPhrases {
			if strings.Contains(text, phrase) && !seen[phrase] {
				seen[phrase] = true
				violations = append(violations, phrase)
			}
		}
	}

	scan(answer.Summary)
	for _, detail := range answer.Details {
		scan(detail.Reasoning)
	}
	return violations
}

// checkConsistency verifies each detail's covered flag against the relation
// type of the traversal edge backing its cited clauses. COVERS must mean
// covered, EXCLUDES must mean not covered. Details whose clauses back no
// COVERS/EXCLUDES edge are not checked.
func (v *Validator) checkConsistency(answer *policy.Answer, traversal *TraversalResult) []string {
	if traversal == nil {
		return nil
	}

	var warnings []string
	for _, detail := range answer.Details {
		relation, ok := citedRelation(detail.ClauseIDs, traversal.Paths)
		if !ok {
			continue
		}

		expected := relation == policy.RelationCovers
		if detail.Covered != expected {
			warnings = append(warnings, fmt.Sprintf(
				"answer marks %q covered=%t but the cited graph edge says %s",
				detail.CoverageName, detail.Covered, relation))
		}
	}
	return warnings
}

// citedRelation finds the COVERS or EXCLUDES edge whose provenance overlaps
// the detail's cited clauses. Paths are already ranked, so the first match is
// the strongest evidence.
func citedRelation(clauseIDs []string, paths []policy.GraphPath) (policy.RelationType, bool) {
	cited := make(map[string]bool, len(clauseIDs))
	for _, id := range clauseIDs {
		cited[id] = true
	}

	for _, path := range paths {
		for _, edge := range path.Edges {
			if edge.Type != policy.RelationCovers && edge.Type != policy.RelationExcludes {
				continue
			}
			for _, id := range edge.ClauseIDs {
				if cited[id] {
					return edge.Type, true
				}
			}
		}
	}
	return "", false
}

// enqueue parks the answer for human review. Failure is demoted to a warning:
// the caller still gets the needs_review outcome either way.
func (v *Validator) enqueue(ctx context.Context, query string, answer *policy.Answer, reason string, warnings *[]string) {
	if v.queue == nil {
		return
	}

	err := v.queue.Enqueue(ctx, &review.Item{
		Query:      query,
		Summary:    answer.Summary,
		Confidence: answer.Confidence,
		Reason:     reason,
	})
	if err != nil {
		*warnings = append(*warnings, "failed to schedule expert review: "+err.Error())
	}
}
