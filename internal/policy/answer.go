package policy

import "fmt"

// CoverageDetail is one per-coverage record inside an answer: whether the
// coverage applies, under what conditions, for what amount, and the reasoning
// behind the determination. Every detail must cite at least one clause present
// in the retrieved context; the validator enforces this.
type CoverageDetail struct {
	CoverageName string   `json:"coverage_name"`
	Covered      bool     `json:"covered"`
	Conditions   []string `json:"conditions,omitempty"`
	Amount       string   `json:"amount,omitempty"`
	Reasoning    string   `json:"reasoning"`
	ClauseIDs    []string `json:"clause_ids"`
}

// Answer is the pipeline's output: a summary, per-coverage details, an
// aggregate confidence in [0,1], and the source clause IDs grounding the
// answer. Constructed once per query and immutable after validation; the
// validator returns a verdict rather than mutating the answer.
type Answer struct {
	Summary    string           `json:"summary"`
	Details    []CoverageDetail `json:"details"`
	Confidence float64          `json:"confidence"`
	Sources    []string         `json:"sources"`
}

// Validate checks the structural invariants a drafted answer must hold before
// it is handed to the validator.
func (a *Answer) Validate() error {
	if a.Summary == "" {
		return fmt.Errorf("answer summary cannot be empty")
	}
	if a.Confidence < 0 || a.Confidence > 1 {
		return fmt.Errorf("answer confidence %f outside [0,1]", a.Confidence)
	}
	for i, d := range a.Details {
		if d.CoverageName == "" {
			return fmt.Errorf("detail %d: coverage name cannot be empty", i)
		}
		if len(d.ClauseIDs) == 0 {
			return fmt.Errorf("detail %d (%s): no clause references", i, d.CoverageName)
		}
	}
	return nil
}
