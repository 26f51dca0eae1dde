package review

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insuregraph/insuregraph/internal/types"
)

// queueFactories lets the same behavior suite run against both
// implementations.
var queueFactories = map[string]func(t *testing.T) Queue{
	"memory": func(t *testing.T) Queue {
		return NewMemoryQueue()
	},
	"sqlite": func(t *testing.T) Queue {
		q, err := NewSqliteQueue(filepath.Join(t.TempDir(), "review.db"))
		require.NoError(t, err)
		t.Cleanup(func() { q.Close() })
		return q
	},
}

func testItem() *Item {
	return &Item{
		Query:      "갑상선암 보장돼요?",
		Summary:    "갑상선암은 90일 대기기간 이후 보장됩니다.",
		Confidence: 0.65,
		Reason:     "low_confidence",
	}
}

func TestQueueEnqueueAndPending(t *testing.T) {
	for name, factory := range queueFactories {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			q := factory(t)

			item := testItem()
			require.NoError(t, q.Enqueue(ctx, item))
			assert.False(t, item.ID.IsZero())
			assert.Equal(t, StatusPending, item.Status)
			assert.False(t, item.CreatedAt.IsZero())

			second := testItem()
			second.Query = "당뇨병도 보장되나요?"
			require.NoError(t, q.Enqueue(ctx, second))

			pending, err := q.Pending(ctx, 0)
			require.NoError(t, err)
			require.Len(t, pending, 2)
			assert.Equal(t, item.ID, pending[0].ID)

			limited, err := q.Pending(ctx, 1)
			require.NoError(t, err)
			assert.Len(t, limited, 1)
		})
	}
}

func TestQueueResolve(t *testing.T) {
	for name, factory := range queueFactories {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			q := factory(t)

			item := testItem()
			require.NoError(t, q.Enqueue(ctx, item))
			require.NoError(t, q.Resolve(ctx, item.ID))

			pending, err := q.Pending(ctx, 0)
			require.NoError(t, err)
			assert.Empty(t, pending)

			// Resolving twice fails: the item is no longer pending.
			err = q.Resolve(ctx, item.ID)
			assert.Equal(t, ErrCodeItemNotFound, types.CodeOf(err))

			err = q.Resolve(ctx, types.NewID())
			assert.Equal(t, ErrCodeItemNotFound, types.CodeOf(err))
		})
	}
}

func TestQueueRejectsInvalidItem(t *testing.T) {
	for name, factory := range queueFactories {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			q := factory(t)

			err := q.Enqueue(ctx, &Item{Reason: "low_confidence"})
			assert.Equal(t, ErrCodeInvalidItem, types.CodeOf(err))

			bad := testItem()
			bad.Confidence = 1.5
			err = q.Enqueue(ctx, bad)
			assert.Equal(t, ErrCodeInvalidItem, types.CodeOf(err))
		})
	}
}

func TestQueueClosedLifecycle(t *testing.T) {
	for name, factory := range queueFactories {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			q := factory(t)

			assert.Equal(t, types.HealthStateHealthy, q.Health(ctx).State)

			require.NoError(t, q.Close())
			assert.Equal(t, types.HealthStateUnhealthy, q.Health(ctx).State)

			err := q.Enqueue(ctx, testItem())
			assert.Equal(t, ErrCodeQueueUnavailable, types.CodeOf(err))

			// Close is idempotent.
			assert.NoError(t, q.Close())
		})
	}
}

func TestSqliteQueuePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "review.db")

	q, err := NewSqliteQueue(path)
	require.NoError(t, err)
	item := testItem()
	require.NoError(t, q.Enqueue(ctx, item))
	require.NoError(t, q.Close())

	reopened, err := NewSqliteQueue(path)
	require.NoError(t, err)
	defer reopened.Close()

	pending, err := reopened.Pending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, item.ID, pending[0].ID)
}

func TestNewSqliteQueueRejectsEmptyPath(t *testing.T) {
	_, err := NewSqliteQueue("")
	assert.Equal(t, ErrCodeInvalidConfig, types.CodeOf(err))
}
