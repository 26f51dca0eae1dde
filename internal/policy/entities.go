package policy

import "fmt"

// CoverageCategory classifies a coverage by the kind of condition it pays on.
type CoverageCategory string

const (
	CategoryCancer         CoverageCategory = "cancer"
	CategoryCardiovascular CoverageCategory = "cardiovascular"
	CategoryCerebrovascular CoverageCategory = "cerebrovascular"
	CategorySurgery        CoverageCategory = "surgery"
	CategoryHospitalization CoverageCategory = "hospitalization"
	CategoryGeneral        CoverageCategory = "general"
)

// String returns the string representation of CoverageCategory.
func (c CoverageCategory) String() string {
	return string(c)
}

// PaymentType indicates how a coverage pays out.
type PaymentType string

const (
	PaymentLumpSum PaymentType = "lump_sum"
	PaymentDaily   PaymentType = "daily"
	PaymentActual  PaymentType = "actual_expense"
)

// Coverage is a named insurance benefit belonging to a product. Coverages
// relate to diseases via COVERS/EXCLUDES edges, to qualifying conditions via
// REQUIRES edges, and to their defining clauses via DEFINED_IN edges.
type Coverage struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Category    CoverageCategory `json:"category"`
	PaymentType PaymentType      `json:"payment_type,omitempty"`
}

// Validate checks the coverage has an identifier and a name.
func (c *Coverage) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("coverage ID cannot be empty")
	}
	if c.Name == "" {
		return fmt.Errorf("coverage %s: name cannot be empty", c.ID)
	}
	return nil
}

// Disease is a medical condition identified by a classification code (KCD).
type Disease struct {
	Code     string   `json:"code"`
	Name     string   `json:"name"`
	Severity string   `json:"severity,omitempty"`
	Synonyms []string `json:"synonyms,omitempty"`
}

// Matches reports whether the given term names this disease, either by code,
// canonical name, or any synonym. Matching is exact; callers normalize case.
func (d *Disease) Matches(term string) bool {
	if term == d.Code || term == d.Name {
		return true
	}
	for _, s := range d.Synonyms {
		if term == s {
			return true
		}
	}
	return false
}

// Condition is a qualifying constraint attached to a coverage: a waiting
// period, a reduction window, or age bounds. Zero values mean the constraint
// does not apply.
type Condition struct {
	ID                 string  `json:"id"`
	WaitingPeriodDays  int     `json:"waiting_period_days,omitempty"`
	ReductionPercent   float64 `json:"reduction_percent,omitempty"`
	ReductionPeriodDays int    `json:"reduction_period_days,omitempty"`
	MinAge             int     `json:"min_age,omitempty"`
	MaxAge             int     `json:"max_age,omitempty"`
	Description        string  `json:"description,omitempty"`
}

// IsEmpty reports whether the condition carries no constraint at all.
func (c *Condition) IsEmpty() bool {
	return c.WaitingPeriodDays == 0 && c.ReductionPercent == 0 &&
		c.ReductionPeriodDays == 0 && c.MinAge == 0 && c.MaxAge == 0
}
