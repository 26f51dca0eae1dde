package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insuregraph/insuregraph/internal/embedding"
	"github.com/insuregraph/insuregraph/internal/types"
	"github.com/insuregraph/insuregraph/internal/vector"
)

const testDims = 8

// orthogonal builds a vector perpendicular to v by pairwise rotation.
func orthogonal(v []float64) []float64 {
	out := make([]float64, len(v))
	for i := 0; i+1 < len(v); i += 2 {
		out[i] = v[i+1]
		out[i+1] = -v[i]
	}
	return out
}

func mix(a, b []float64, wa, wb float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = wa*a[i] + wb*b[i]
	}
	return out
}

func negate(v []float64) []float64 {
	return mix(v, v, -1, 0)
}

func TestRetrieverScoreOrdering(t *testing.T) {
	ctx := context.Background()
	embedder := embedding.NewMockEmbedder(testDims)
	store := vector.NewMockStore(testDims)
	retriever := NewRetriever(embedder, store)

	query := "갑상선암 보장돼요?"
	queryVec, err := embedder.Embed(ctx, query)
	require.NoError(t, err)
	ortho := orthogonal(queryVec)

	records := []vector.Record{
		*vector.NewRecord("clause-exact", "암 진단시 보험금을 지급합니다", queryVec,
			map[string]any{"article": "제3조", "paragraph": "①", "page": 12}),
		*vector.NewRecord("clause-partial", "related text", mix(queryVec, ortho, 1, 1), nil),
		*vector.NewRecord("clause-opposite", "unrelated text", negate(queryVec), nil),
	}
	require.NoError(t, store.StoreBatch(ctx, records))

	hits, err := retriever.Retrieve(ctx, query, 10)
	require.NoError(t, err)
	require.Len(t, hits, 2, "the opposite-direction clause must fall below the floor")

	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
	}
	assert.Equal(t, "clause-exact", hits[0].ClauseID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)

	assert.Equal(t, "제3조", hits[0].Article)
	assert.Equal(t, "①", hits[0].Paragraph)
	assert.Equal(t, 12, hits[0].Page)
}

func TestRetrieverEmptyResultIsNotAnError(t *testing.T) {
	ctx := context.Background()
	embedder := embedding.NewMockEmbedder(testDims)
	store := vector.NewMockStore(testDims)
	retriever := NewRetriever(embedder, store)

	queryVec, err := embedder.Embed(ctx, "갑상선암 보장돼요?")
	require.NoError(t, err)
	require.NoError(t, store.Store(ctx,
		*vector.NewRecord("clause-1", "irrelevant", negate(queryVec), nil)))

	hits, err := retriever.Retrieve(ctx, "갑상선암 보장돼요?", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestRetrieverEmbeddingFailureIsFatal(t *testing.T) {
	embedder := embedding.NewMockEmbedder(testDims)
	embedder.Err = errors.New("embedding service down")
	retriever := NewRetriever(embedder, vector.NewMockStore(testDims))

	_, err := retriever.Retrieve(context.Background(), "갑상선암 보장돼요?", 10)
	require.Error(t, err)
	assert.Equal(t, types.EMBEDDING_UNAVAILABLE, types.CodeOf(err))
}

func TestRetrieverStoreFailure(t *testing.T) {
	embedder := embedding.NewMockEmbedder(testDims)
	store := vector.NewMockStore(testDims)
	store.SearchErr = errors.New("store down")
	retriever := NewRetriever(embedder, store)

	_, err := retriever.Retrieve(context.Background(), "갑상선암 보장돼요?", 10)
	require.Error(t, err)
	assert.Equal(t, types.VECTOR_STORE_UNAVAILABLE, types.CodeOf(err))
}

func TestRetrieverTopKBound(t *testing.T) {
	ctx := context.Background()
	embedder := embedding.NewMockEmbedder(testDims)
	store := vector.NewMockStore(testDims)
	retriever := NewRetriever(embedder, store)

	queryVec, err := embedder.Embed(ctx, "query")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Store(ctx,
			*vector.NewRecord(types.NewID().String(), "text", queryVec, nil)))
	}

	hits, err := retriever.Retrieve(ctx, "query", 3)
	require.NoError(t, err)
	assert.Len(t, hits, 3)
}
