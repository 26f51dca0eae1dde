package review

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/insuregraph/insuregraph/internal/types"
)

// MemoryQueue is an in-memory Queue for tests and single-process setups.
// Thread-safe.
type MemoryQueue struct {
	mu     sync.Mutex
	items  []Item
	closed bool

	// EnqueueErr, when set, makes Enqueue fail. Used to test that enqueue
	// failures degrade rather than fail the query.
	EnqueueErr error
}

// NewMemoryQueue creates an empty in-memory review queue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{}
}

// Enqueue adds an item with status pending, assigning ID and CreatedAt.
func (q *MemoryQueue) Enqueue(ctx context.Context, item *Item) error {
	if err := item.Validate(); err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.EnqueueErr != nil {
		return q.EnqueueErr
	}
	if q.closed {
		return types.NewError(ErrCodeQueueUnavailable, "review queue is closed")
	}

	item.ID = types.NewID()
	item.Status = StatusPending
	item.CreatedAt = time.Now().UTC()
	q.items = append(q.items, *item)
	return nil
}

// Pending returns pending items in insertion order.
func (q *MemoryQueue) Pending(ctx context.Context, limit int) ([]Item, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil, types.NewError(ErrCodeQueueUnavailable, "review queue is closed")
	}

	out := make([]Item, 0)
	for _, item := range q.items {
		if item.Status != StatusPending {
			continue
		}
		out = append(out, item)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Resolve marks an item as resolved.
func (q *MemoryQueue) Resolve(ctx context.Context, id types.ID) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return types.NewError(ErrCodeQueueUnavailable, "review queue is closed")
	}

	for i := range q.items {
		if q.items[i].ID == id && q.items[i].Status == StatusPending {
			now := time.Now().UTC()
			q.items[i].Status = StatusResolved
			q.items[i].ResolvedAt = &now
			return nil
		}
	}
	return types.NewError(ErrCodeItemNotFound,
		fmt.Sprintf("no pending review item with ID %s", id))
}

// Health reports healthy while the queue is open.
func (q *MemoryQueue) Health(ctx context.Context) types.HealthStatus {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return types.Unhealthy("review queue is closed")
	}
	return types.Healthy(fmt.Sprintf("in-memory review queue operational with %d items", len(q.items)))
}

// Close marks the queue as closed.
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	return nil
}
