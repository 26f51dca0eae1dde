package pipeline

import (
	"context"

	"github.com/insuregraph/insuregraph/internal/embedding"
	"github.com/insuregraph/insuregraph/internal/policy"
	"github.com/insuregraph/insuregraph/internal/types"
	"github.com/insuregraph/insuregraph/internal/vector"
)

// SimilarityFloor is the minimum cosine similarity for a clause to count as
// relevant. Hits below it are discarded rather than padding the context with
// noise.
const SimilarityFloor = 0.5

// Retriever performs semantic clause retrieval: embed the query, search the
// vector store, map hits back to clause records.
type Retriever struct {
	embedder embedding.Embedder
	store    vector.Store
}

// NewRetriever creates a retriever. The embedder is expected to be the cached
// variant so repeated queries skip the embedding call.
func NewRetriever(embedder embedding.Embedder, store vector.Store) *Retriever {
	return &Retriever{
		embedder: embedder,
		store:    store,
	}
}

// Retrieve returns up to topK clauses ordered by descending similarity. An
// empty result means no clause cleared the similarity floor and is not an
// error; an embedding failure is, since without a query vector the search
// cannot distinguish "no matches" from "couldn't look".
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]policy.ClauseHit, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, types.WrapError(types.EMBEDDING_UNAVAILABLE,
			"failed to embed query text", err)
	}

	results, err := r.store.Search(ctx, vector.Query{
		Embedding: queryVec,
		TopK:      topK,
		MinScore:  SimilarityFloor,
	})
	if err != nil {
		return nil, types.WrapError(types.VECTOR_STORE_UNAVAILABLE,
			"clause vector search failed", err)
	}

	hits := make([]policy.ClauseHit, 0, len(results))
	for _, result := range results {
		hits = append(hits, resultToHit(result))
	}
	return hits, nil
}

// resultToHit maps a vector search result onto a clause hit, pulling article,
// paragraph, and page from the record metadata written at ingestion.
func resultToHit(result vector.Result) policy.ClauseHit {
	hit := policy.ClauseHit{
		ClauseID: result.Record.ID,
		Text:     result.Record.Content,
		Score:    result.Score,
	}

	meta := result.Record.Metadata
	if v, ok := meta["article"].(string); ok {
		hit.Article = v
	}
	if v, ok := meta["paragraph"].(string); ok {
		hit.Paragraph = v
	}
	switch v := meta["page"].(type) {
	case int:
		hit.Page = v
	case float64:
		hit.Page = int(v)
	}

	return hit
}
