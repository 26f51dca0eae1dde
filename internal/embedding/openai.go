package embedding

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/insuregraph/insuregraph/internal/types"
)

// OpenAIConfig configures the OpenAI embedding client.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	// Model selects the embedding model. Defaults to text-embedding-3-small.
	Model string
	// Dimensions declares the expected vector size for the chosen model.
	// Defaults to 1536 (text-embedding-3-small).
	Dimensions int
	// RequestsPerMinute caps outgoing embedding calls. Zero disables the
	// limiter.
	RequestsPerMinute int
}

// OpenAIEmbedder implements Embedder against the OpenAI embeddings API.
// All methods are safe for concurrent use; the underlying client is stateless.
type OpenAIEmbedder struct {
	client  *openai.Client
	model   string
	dims    int
	limiter *rate.Limiter
}

// NewOpenAIEmbedder creates a new OpenAI embedder.
func NewOpenAIEmbedder(config OpenAIConfig) (*OpenAIEmbedder, error) {
	if config.APIKey == "" {
		return nil, types.NewError(ErrCodeEmbedderUnavailable, "OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	model := config.Model
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	dims := config.Dimensions
	if dims <= 0 {
		dims = 1536
	}

	var limiter *rate.Limiter
	if config.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(config.RequestsPerMinute)), config.RequestsPerMinute)
	}

	return &OpenAIEmbedder{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   model,
		dims:    dims,
		limiter: limiter,
	}, nil
}

// Embed generates an embedding vector for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return nil, types.NewError(ErrCodeEmbeddingFailed, "text cannot be empty")
	}

	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts in one API call.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, types.WrapError(ErrCodeEmbeddingBatchFailed, "rate limiter wait aborted", err)
		}
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, types.WrapRetryableError(ErrCodeEmbeddingBatchFailed,
			fmt.Sprintf("embedding request failed for %d texts", len(texts)), err)
	}

	if len(resp.Data) != len(texts) {
		return nil, types.NewError(ErrCodeEmbeddingBatchFailed,
			fmt.Sprintf("embedding count mismatch: sent %d texts, got %d vectors", len(texts), len(resp.Data)))
	}

	results := make([][]float64, len(texts))
	for _, item := range resp.Data {
		vec := make([]float64, len(item.Embedding))
		for i, v := range item.Embedding {
			vec[i] = float64(v)
		}
		if len(vec) != e.dims {
			return nil, types.NewError(ErrCodeEmbeddingBatchFailed,
				fmt.Sprintf("unexpected embedding dimension: got %d, want %d", len(vec), e.dims))
		}
		results[item.Index] = vec
	}

	return results, nil
}

// Dimensions returns the dimensionality of embedding vectors.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dims
}

// Model returns the name of the embedding model.
func (e *OpenAIEmbedder) Model() string {
	return e.model
}

// Health checks the embedder by generating a test embedding.
func (e *OpenAIEmbedder) Health(ctx context.Context) types.HealthStatus {
	healthCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := e.Embed(healthCtx, "health check"); err != nil {
		return types.Degraded(fmt.Sprintf("embedder failed health check: %v", err))
	}
	return types.Healthy(fmt.Sprintf("embedder operational (%s)", e.model))
}
