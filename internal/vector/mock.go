package vector

import (
	"context"

	"github.com/insuregraph/insuregraph/internal/types"
)

// MockStore wraps an EmbeddedStore with error injection for tests.
type MockStore struct {
	*EmbeddedStore
	// SearchErr, when set, is returned from every Search call.
	SearchErr error
}

// NewMockStore creates a mock store with the given dimensionality.
func NewMockStore(dims int) *MockStore {
	return &MockStore{EmbeddedStore: NewEmbeddedStore(dims)}
}

// Search returns the injected error when set, otherwise delegates.
func (m *MockStore) Search(ctx context.Context, query Query) ([]Result, error) {
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	return m.EmbeddedStore.Search(ctx, query)
}

// Health reports unhealthy while an error is injected.
func (m *MockStore) Health(ctx context.Context) types.HealthStatus {
	if m.SearchErr != nil {
		return types.Unhealthy("search error injected")
	}
	return m.EmbeddedStore.Health(ctx)
}
