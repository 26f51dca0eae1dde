package vector

import (
	"fmt"
	"time"

	"github.com/insuregraph/insuregraph/internal/types"
)

// Record is a stored clause embedding with its source metadata.
type Record struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Embedding []float64      `json:"embedding"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewRecord creates a new Record with the current timestamp.
func NewRecord(id, content string, embedding []float64, metadata map[string]any) *Record {
	return &Record{
		ID:        id,
		Content:   content,
		Embedding: embedding,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}
}

// Validate ensures the Record has valid fields.
func (r *Record) Validate() error {
	if r.ID == "" {
		return types.NewError(ErrCodeStoreFailed, "record ID cannot be empty")
	}
	if r.Content == "" {
		return types.NewError(ErrCodeStoreFailed, "record content cannot be empty")
	}
	if len(r.Embedding) == 0 {
		return types.NewError(ErrCodeStoreFailed, "record embedding cannot be empty")
	}
	return nil
}

// Query is a vector search request against pre-computed embeddings.
type Query struct {
	Embedding []float64      `json:"embedding"`
	TopK      int            `json:"top_k"`
	Filters   map[string]any `json:"filters,omitempty"`
	// MinScore is the similarity floor in [0,1]; records scoring below it are
	// excluded from results.
	MinScore float64 `json:"min_score,omitempty"`
}

// Validate ensures the Query has valid fields.
func (q *Query) Validate() error {
	if len(q.Embedding) == 0 {
		return types.NewError(ErrCodeSearchFailed, "query embedding cannot be empty")
	}
	if q.TopK <= 0 {
		return types.NewError(ErrCodeSearchFailed,
			fmt.Sprintf("query top_k must be greater than 0, got %d", q.TopK))
	}
	if q.MinScore < 0 || q.MinScore > 1 {
		return types.NewError(ErrCodeSearchFailed,
			fmt.Sprintf("query min_score must be between 0 and 1, got %f", q.MinScore))
	}
	return nil
}

// Result is a search hit with its cosine similarity score in [0,1].
type Result struct {
	Record Record  `json:"record"`
	Score  float64 `json:"score"`
}
