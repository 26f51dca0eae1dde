// Package vector provides clause-passage vector storage with cosine
// similarity search. The query pipeline reads it; ingestion writes it.
package vector

import (
	"context"

	"github.com/insuregraph/insuregraph/internal/types"
)

// Vector store error codes
const (
	ErrCodeStoreUnavailable types.ErrorCode = "VECTOR_STORE_UNAVAILABLE"
	ErrCodeRecordNotFound   types.ErrorCode = "VECTOR_RECORD_NOT_FOUND"
	ErrCodeStoreFailed      types.ErrorCode = "VECTOR_STORE_FAILED"
	ErrCodeSearchFailed     types.ErrorCode = "VECTOR_SEARCH_FAILED"
	ErrCodeInvalidConfig    types.ErrorCode = "VECTOR_INVALID_CONFIG"
)

// Store provides vector-based semantic search over clause passages.
// Implementations must be thread-safe for concurrent access.
type Store interface {
	// Store adds a single record.
	Store(ctx context.Context, record Record) error

	// StoreBatch adds multiple records efficiently.
	StoreBatch(ctx context.Context, records []Record) error

	// Search finds similar records by embedding vector.
	Search(ctx context.Context, query Query) ([]Result, error)

	// Get retrieves a specific record by ID.
	Get(ctx context.Context, id string) (*Record, error)

	// Delete removes a record.
	Delete(ctx context.Context, id string) error

	// Health returns the health status of the store.
	Health(ctx context.Context) types.HealthStatus

	// Close releases all resources held by the store.
	Close() error
}
