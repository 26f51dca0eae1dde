// Package embedding provides the embedding-service boundary for the query
// pipeline: an Embedder interface, an OpenAI-backed implementation, a
// TTL-bounded cache decorator keyed by exact input text, and a mock for tests.
package embedding

import (
	"context"

	"github.com/insuregraph/insuregraph/internal/types"
)

// Embedding error codes
const (
	ErrCodeEmbedderUnavailable  types.ErrorCode = "EMBEDDER_UNAVAILABLE"
	ErrCodeEmbeddingFailed      types.ErrorCode = "EMBEDDING_FAILED"
	ErrCodeEmbeddingBatchFailed types.ErrorCode = "EMBEDDING_BATCH_FAILED"
)

// Embedder generates embedding vectors for text. Implementations must be safe
// for concurrent use and must be deterministic enough that repeated calls with
// identical text are cache-safe.
type Embedder interface {
	// Embed generates an embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float64, error)

	// EmbedBatch generates embeddings for multiple texts.
	// Returns an error if any embedding fails; partial results are not returned.
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)

	// Dimensions returns the dimensionality of embedding vectors.
	Dimensions() int

	// Model returns the name of the embedding model.
	Model() string

	// Health checks if the embedder is operational.
	Health(ctx context.Context) types.HealthStatus
}
