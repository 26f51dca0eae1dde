package main

import (
	"context"
	"os"

	"github.com/insuregraph/insuregraph/internal/config"
	"github.com/insuregraph/insuregraph/internal/embedding"
	"github.com/insuregraph/insuregraph/internal/graph"
	"github.com/insuregraph/insuregraph/internal/llm"
	"github.com/insuregraph/insuregraph/internal/llm/providers"
	"github.com/insuregraph/insuregraph/internal/observability"
	"github.com/insuregraph/insuregraph/internal/ontology"
	"github.com/insuregraph/insuregraph/internal/pipeline"
	"github.com/insuregraph/insuregraph/internal/review"
	"github.com/insuregraph/insuregraph/internal/server"
	"github.com/insuregraph/insuregraph/internal/vector"
	"github.com/insuregraph/insuregraph/pkg/version"
)

// runtime holds the wired service components and their teardown hooks.
type runtime struct {
	cfg        *config.Config
	logger     *observability.TracedLogger
	pipeline   *pipeline.Pipeline
	registry   llm.Registry
	components map[string]server.HealthChecker

	shutdownHooks []func(context.Context) error
}

func loadConfig() (*config.Config, error) {
	loader := config.NewLoader(config.NewValidator())
	if configPath == "" {
		return loader.LoadWithDefaults("")
	}
	return loader.Load(configPath)
}

func newLogger(cfg *config.Config) *observability.TracedLogger {
	level := observability.ParseLevel(cfg.Logging.Level)
	handler := observability.NewJSONHandler(os.Stderr, level)
	if cfg.Logging.Format == "text" {
		handler = observability.NewTextHandler(os.Stderr, level)
	}
	return observability.NewTracedLogger(handler, "insuregraph")
}

// buildRuntime wires every component from configuration and connects the
// backing stores. On error, already-opened components are closed.
func buildRuntime(ctx context.Context, cfg *config.Config) (rt *runtime, err error) {
	rt = &runtime{
		cfg:        cfg,
		logger:     newLogger(cfg),
		components: make(map[string]server.HealthChecker),
	}
	defer func() {
		if err != nil {
			rt.close(ctx)
		}
	}()

	tracerProvider, err := observability.InitTracing(ctx,
		cfg.Tracing.ToObservability("insuregraph"), version.Version)
	if err != nil {
		return nil, err
	}
	rt.onShutdown(func(ctx context.Context) error {
		return observability.ShutdownTracing(ctx, tracerProvider)
	})

	ont, err := ontology.Load(cfg.Ontology.Path)
	if err != nil {
		return nil, err
	}

	primary, err := providers.NewOpenAIProvider(providers.OpenAIConfig{
		Name:              "openai-primary",
		APIKey:            cfg.LLM.Primary.APIKey,
		BaseURL:           cfg.LLM.Primary.BaseURL,
		RequestsPerMinute: cfg.LLM.Primary.RequestsPerMinute,
	})
	if err != nil {
		return nil, err
	}
	fallback, err := providers.NewOpenAIProvider(providers.OpenAIConfig{
		Name:              "openai-fallback",
		APIKey:            cfg.LLM.Fallback.APIKey,
		BaseURL:           cfg.LLM.Fallback.BaseURL,
		RequestsPerMinute: cfg.LLM.Fallback.RequestsPerMinute,
	})
	if err != nil {
		return nil, err
	}

	rt.registry = llm.NewRegistry()
	if err := rt.registry.RegisterProvider(primary); err != nil {
		return nil, err
	}
	if err := rt.registry.RegisterProvider(fallback); err != nil {
		return nil, err
	}

	cascade, err := llm.NewCascade(
		llm.Tier{Provider: primary, Model: cfg.LLM.Primary.Model, Timeout: cfg.LLM.Primary.Timeout},
		llm.Tier{Provider: fallback, Model: cfg.LLM.Fallback.Model, Timeout: cfg.LLM.Fallback.Timeout},
		cfg.LLM.ConfidenceThreshold, pipeline.DraftConfidence,
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embedding.NewOpenAIEmbedder(embedding.OpenAIConfig{
		APIKey:            cfg.Embedder.APIKey,
		BaseURL:           cfg.Embedder.BaseURL,
		Model:             cfg.Embedder.Model,
		Dimensions:        cfg.Embedder.Dimensions,
		RequestsPerMinute: cfg.Embedder.RequestsPerMinute,
	})
	if err != nil {
		return nil, err
	}
	cachedEmbedder := embedding.NewCachedEmbedder(embedder, cfg.Embedder.CacheTTL)

	var store vector.Store
	if cfg.Vector.Path == "" {
		store = vector.NewEmbeddedStore(cfg.Embedder.Dimensions)
	} else {
		sqliteStore, err := vector.NewSqliteStore(vector.SqliteConfig{
			DBPath: cfg.Vector.Path,
			Dims:   cfg.Embedder.Dimensions,
		})
		if err != nil {
			return nil, err
		}
		rt.onShutdown(func(context.Context) error { return sqliteStore.Close() })
		store = sqliteStore
	}

	graphClient, err := graph.NewNeo4jClient(cfg.Graph.ToClient())
	if err != nil {
		return nil, err
	}
	if err := graphClient.Connect(ctx); err != nil {
		return nil, err
	}
	rt.onShutdown(graphClient.Close)

	var queue review.Queue
	if cfg.Review.Path == "" {
		queue = review.NewMemoryQueue()
	} else {
		sqliteQueue, err := review.NewSqliteQueue(cfg.Review.Path)
		if err != nil {
			return nil, err
		}
		rt.onShutdown(func(context.Context) error { return sqliteQueue.Close() })
		queue = sqliteQueue
	}

	rt.pipeline, err = pipeline.New(pipeline.Deps{
		Classifier: pipeline.NewClassifier(ont, primary, cfg.LLM.Primary.Model, cfg.LLM.Primary.Timeout),
		Retriever:  pipeline.NewRetriever(cachedEmbedder, store),
		Traverser:  pipeline.NewTraverser(graphClient),
		Reasoner:   pipeline.NewReasoner(cascade),
		Validator:  pipeline.NewValidator(ont, queue),
		Graph:      graphClient,
		Ontology:   ont,
		Logger:     rt.logger,

		DefaultMaxHops: cfg.Pipeline.DefaultMaxHops,
		DefaultTopK:    cfg.Pipeline.DefaultTopK,
	})
	if err != nil {
		return nil, err
	}

	rt.components["graph"] = graphClient
	rt.components["vector"] = store
	rt.components["embedder"] = cachedEmbedder
	rt.components["llm"] = rt.registry

	return rt, nil
}

func (rt *runtime) onShutdown(hook func(context.Context) error) {
	rt.shutdownHooks = append(rt.shutdownHooks, hook)
}

// close runs shutdown hooks in reverse registration order.
func (rt *runtime) close(ctx context.Context) {
	for i := len(rt.shutdownHooks) - 1; i >= 0; i-- {
		if err := rt.shutdownHooks[i](ctx); err != nil {
			rt.logger.Warn(ctx, "shutdown hook failed", "error", err.Error())
		}
	}
}
