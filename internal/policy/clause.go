// Package policy defines the domain model for the InsureGraph query pipeline:
// policy clauses, coverages, diseases, qualifying conditions, traversal paths,
// and the structured answers the pipeline produces.
package policy

import (
	"fmt"
	"time"
)

// Clause is a unit of policy source text, one paragraph or subclause of a
// policy article. Clauses are the atomic unit of provenance: every claim the
// pipeline makes must trace back to at least one clause. Clauses are immutable
// once ingested; the query pipeline only ever reads them.
type Clause struct {
	ID        string    `json:"id"`
	Article   string    `json:"article"`
	Paragraph string    `json:"paragraph,omitempty"`
	Text      string    `json:"text"`
	Page      int       `json:"page"`
	Embedding []float64 `json:"embedding,omitempty"`
	ParentID  string    `json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks that the clause has the fields the pipeline depends on.
func (c *Clause) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("clause ID cannot be empty")
	}
	if c.Text == "" {
		return fmt.Errorf("clause %s: text cannot be empty", c.ID)
	}
	return nil
}

// Ref returns the human-readable reference for the clause, e.g. "제3조 ①" or
// "Article 3" when no paragraph label exists.
func (c *Clause) Ref() string {
	if c.Paragraph == "" {
		return c.Article
	}
	return c.Article + " " + c.Paragraph
}

// ClauseHit is a clause returned from vector retrieval together with its
// similarity score. Scores are cosine similarities in [0,1].
type ClauseHit struct {
	ClauseID  string  `json:"clause_id"`
	Article   string  `json:"article"`
	Paragraph string  `json:"paragraph,omitempty"`
	Text      string  `json:"text"`
	Page      int     `json:"page"`
	Score     float64 `json:"score"`
}
