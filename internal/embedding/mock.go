package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"sync"

	"github.com/insuregraph/insuregraph/internal/types"
)

// MockEmbedder implements Embedder for testing. It produces deterministic
// vectors derived from the input text, so identical texts always embed to
// identical vectors.
type MockEmbedder struct {
	mu    sync.Mutex
	dims  int
	calls []string
	// Err, when set, is returned from every Embed/EmbedBatch call.
	Err error
}

// NewMockEmbedder creates a mock embedder with the given dimensionality.
func NewMockEmbedder(dims int) *MockEmbedder {
	if dims <= 0 {
		dims = 8
	}
	return &MockEmbedder{dims: dims}
}

// Embed returns a deterministic vector derived from text.
func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.calls = append(m.calls, text)
	err := m.Err
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}

	return deterministicVector(text, m.dims), nil
}

// EmbedBatch embeds each text in order.
func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	results := make([][]float64, len(texts))
	for i, text := range texts {
		vec, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		results[i] = vec
	}
	return results, nil
}

// Dimensions returns the dimensionality of embedding vectors.
func (m *MockEmbedder) Dimensions() int {
	return m.dims
}

// Model returns the name of the embedding model.
func (m *MockEmbedder) Model() string {
	return "mock-embedder"
}

// Health always reports healthy for the mock.
func (m *MockEmbedder) Health(ctx context.Context) types.HealthStatus {
	return types.Healthy("mock embedder")
}

// CallCount returns how many Embed calls were made.
func (m *MockEmbedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// deterministicVector hashes text into a unit-independent pseudo-embedding.
func deterministicVector(text string, dims int) []float64 {
	sum := sha256.Sum256([]byte(text))
	vec := make([]float64, dims)
	for i := 0; i < dims; i++ {
		// Re-hash per dimension so small dims still vary across positions.
		chunk := sha256.Sum256(append(sum[:], byte(i)))
		v := binary.BigEndian.Uint64(chunk[:8])
		vec[i] = float64(v%2000)/1000.0 - 1.0
	}
	return vec
}
