package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/insuregraph/insuregraph/internal/llm"
	"github.com/insuregraph/insuregraph/internal/observability"
	"github.com/insuregraph/insuregraph/internal/pipeline"
	"github.com/insuregraph/insuregraph/internal/types"
)

// HealthChecker reports the health of one backing component.
type HealthChecker interface {
	Health(ctx context.Context) types.HealthStatus
}

// Options configures the HTTP server.
type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// Server exposes the query pipeline over HTTP.
type Server struct {
	runner     pipeline.Runner
	components map[string]HealthChecker
	registry   llm.Registry
	logger     *observability.TracedLogger
	opts       Options
	httpServer *http.Server
}

// New creates a Server. components is the set of health-checked backends,
// keyed by the name reported in the health response; registry backs the
// model catalog endpoint and may be nil.
func New(runner pipeline.Runner, components map[string]HealthChecker, registry llm.Registry, logger *observability.TracedLogger, opts Options) *Server {
	s := &Server{
		runner:     runner,
		components: components,
		registry:   registry,
		logger:     logger,
		opts:       opts,
	}
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", opts.Host, opts.Port),
		Handler:      s.Router(),
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
	return s
}

// Router builds the chi router with middleware and routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/query", s.handleQuery)
		r.Get("/models", s.handleModels)
	})

	return r
}

// Start runs the HTTP server until the context is canceled, then drains
// in-flight requests within the shutdown timeout.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "http server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()

	s.logger.Info(shutdownCtx, "http server shutting down")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
