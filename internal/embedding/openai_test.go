package embedding

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/insuregraph/insuregraph/internal/types"
)

func TestNewOpenAIEmbedderRequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIEmbedder(OpenAIConfig{})
	require.Error(t, err)
	assert.Equal(t, ErrCodeEmbedderUnavailable, types.CodeOf(err))
}

func TestNewOpenAIEmbedderDefaults(t *testing.T) {
	e, err := NewOpenAIEmbedder(OpenAIConfig{APIKey: "test-key"})
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-3-small", e.Model())
	assert.Equal(t, 1536, e.Dimensions())
	assert.Nil(t, e.limiter)
}

func TestOpenAIEmbedderRateLimiter(t *testing.T) {
	e, err := NewOpenAIEmbedder(OpenAIConfig{APIKey: "test-key", RequestsPerMinute: 120})
	require.NoError(t, err)
	require.NotNil(t, e.limiter)
	assert.Equal(t, rate.Every(500*time.Millisecond), e.limiter.Limit())
	assert.Equal(t, 120, e.limiter.Burst())
}

func TestOpenAIEmbedderRateLimiterAbort(t *testing.T) {
	e, err := NewOpenAIEmbedder(OpenAIConfig{APIKey: "test-key", RequestsPerMinute: 1})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = e.EmbedBatch(ctx, []string{"갑상선암"})
	require.Error(t, err)
	assert.Equal(t, ErrCodeEmbeddingBatchFailed, types.CodeOf(err))
}
