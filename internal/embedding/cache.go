package embedding

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/insuregraph/insuregraph/internal/types"
)

// DefaultCacheTTL bounds how long a cached query embedding stays valid.
const DefaultCacheTTL = 15 * time.Minute

// CachedEmbedder decorates an Embedder with a time-bounded cache keyed by
// exact input text. A cache write race between concurrent queries results in a
// redundant recomputation, never corruption, so no locking beyond the cache's
// own is needed.
type CachedEmbedder struct {
	inner Embedder
	cache *gocache.Cache
}

// NewCachedEmbedder wraps inner with a TTL cache. ttl <= 0 selects
// DefaultCacheTTL.
func NewCachedEmbedder(inner Embedder, ttl time.Duration) *CachedEmbedder {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedEmbedder{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

// Embed returns the cached vector for text when present, otherwise delegates
// and caches the result. Errors are never cached.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if cached, found := c.cache.Get(text); found {
		return cached.([]float64), nil
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.cache.SetDefault(text, vec)
	return vec, nil
}

// EmbedBatch delegates to the inner embedder. Batch inputs are clause-side
// ingestion traffic, not repeated queries, so they bypass the cache.
func (c *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	return c.inner.EmbedBatch(ctx, texts)
}

// Dimensions returns the dimensionality of embedding vectors.
func (c *CachedEmbedder) Dimensions() int {
	return c.inner.Dimensions()
}

// Model returns the name of the embedding model.
func (c *CachedEmbedder) Model() string {
	return c.inner.Model()
}

// Health delegates to the inner embedder.
func (c *CachedEmbedder) Health(ctx context.Context) types.HealthStatus {
	return c.inner.Health(ctx)
}

// CacheLen returns the number of cached entries, for tests and metrics.
func (c *CachedEmbedder) CacheLen() int {
	return c.cache.ItemCount()
}
