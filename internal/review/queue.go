// Package review implements the human-review queue. Answers that pass
// validation only marginally are parked here for an underwriter to confirm
// before the answer is shown as authoritative.
package review

import (
	"context"
	"fmt"
	"time"

	"github.com/insuregraph/insuregraph/internal/types"
)

// Error codes for the review package.
const (
	ErrCodeQueueUnavailable types.ErrorCode = "REVIEW_QUEUE_UNAVAILABLE"
	ErrCodeEnqueueFailed    types.ErrorCode = "REVIEW_ENQUEUE_FAILED"
	ErrCodeListFailed       types.ErrorCode = "REVIEW_LIST_FAILED"
	ErrCodeItemNotFound     types.ErrorCode = "REVIEW_ITEM_NOT_FOUND"
	ErrCodeInvalidItem      types.ErrorCode = "REVIEW_INVALID_ITEM"
	ErrCodeInvalidConfig    types.ErrorCode = "REVIEW_INVALID_CONFIG"
)

// ItemStatus is the review lifecycle state of a queued answer.
type ItemStatus string

const (
	StatusPending  ItemStatus = "pending"
	StatusResolved ItemStatus = "resolved"
)

// Item is one answer awaiting human review.
type Item struct {
	ID         types.ID   `json:"id"`
	Query      string     `json:"query"`
	Summary    string     `json:"summary"`
	Confidence float64    `json:"confidence"`
	Reason     string     `json:"reason"`
	Status     ItemStatus `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// Validate checks that the item carries the fields a reviewer needs.
func (i *Item) Validate() error {
	if i.Query == "" {
		return types.NewError(ErrCodeInvalidItem, "review item query cannot be empty")
	}
	if i.Reason == "" {
		return types.NewError(ErrCodeInvalidItem, "review item reason cannot be empty")
	}
	if i.Confidence < 0 || i.Confidence > 1 {
		return types.NewError(ErrCodeInvalidItem,
			fmt.Sprintf("review item confidence must be in [0,1], got %f", i.Confidence))
	}
	return nil
}

// Queue stores answers flagged for human review.
// Implementations must be thread-safe for concurrent access.
type Queue interface {
	// Enqueue adds an item with status pending. The item's ID and CreatedAt
	// are assigned by the queue.
	Enqueue(ctx context.Context, item *Item) error

	// Pending returns up to limit pending items, oldest first. A limit of 0
	// or less returns all pending items.
	Pending(ctx context.Context, limit int) ([]Item, error)

	// Resolve marks an item as resolved.
	Resolve(ctx context.Context, id types.ID) error

	// Health returns the current health status of the queue.
	Health(ctx context.Context) types.HealthStatus

	// Close releases all resources held by the queue.
	Close() error
}
