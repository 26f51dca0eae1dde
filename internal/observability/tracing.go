package observability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc/credentials"

	"github.com/insuregraph/insuregraph/internal/types"
)

const (
	ErrCodeTracingInit     = "TRACING_INIT_FAILED"
	ErrCodeTracingShutdown = "TRACING_SHUTDOWN_FAILED"
)

const (
	defaultBatchTimeout = 5 * time.Second
	defaultServiceName  = "insuregraph"
)

// TracingConfig controls tracer provider initialization.
type TracingConfig struct {
	// Enabled turns tracing on. When false a no-op provider is returned.
	Enabled bool

	// Provider selects the exporter: "otlp" or "noop".
	Provider string

	// Endpoint is the OTLP collector endpoint, host:port.
	Endpoint string

	// SampleRate is the trace sampling ratio in [0,1].
	SampleRate float64

	// ServiceName overrides the default service name.
	ServiceName string

	// Insecure disables TLS on the exporter connection. Only for local
	// collectors.
	Insecure bool
}

// Validate checks the tracing configuration.
func (c TracingConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return types.NewError(ErrCodeTracingInit,
			fmt.Sprintf("sample rate must be in [0,1], got %f", c.SampleRate))
	}
	if strings.ToLower(c.Provider) == "otlp" && c.Endpoint == "" {
		return types.NewError(ErrCodeTracingInit, "otlp provider requires an endpoint")
	}
	return nil
}

// InitTracing initializes the tracer provider and registers it globally.
// With tracing disabled it returns a no-op provider with zero overhead.
func InitTracing(ctx context.Context, cfg TracingConfig, serviceVersion string) (*sdktrace.TracerProvider, error) {
	if !cfg.Enabled {
		return sdktrace.NewTracerProvider(), nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = defaultServiceName
	}

	res, err := resource.New(
		ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, types.WrapError(ErrCodeTracingInit, "failed to create resource", err)
	}

	var exporter sdktrace.SpanExporter

	switch strings.ToLower(cfg.Provider) {
	case "otlp":
		otlpOpts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(cfg.Endpoint),
		}
		if cfg.Insecure {
			otlpOpts = append(otlpOpts, otlptracegrpc.WithInsecure())
		} else {
			otlpOpts = append(otlpOpts, otlptracegrpc.WithTLSCredentials(credentials.NewTLS(nil)))
		}

		exporter, err = otlptracegrpc.New(ctx, otlpOpts...)
		if err != nil {
			return nil, types.WrapError(ErrCodeTracingInit,
				fmt.Sprintf("failed to connect otlp exporter at %s", cfg.Endpoint), err)
		}

	case "noop", "":
		return sdktrace.NewTracerProvider(), nil

	default:
		return nil, types.NewError(ErrCodeTracingInit,
			fmt.Sprintf("unsupported tracing provider: %s", cfg.Provider))
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(defaultBatchTimeout),
		),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRate)),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)

	return tp, nil
}

// ShutdownTracing flushes pending spans and shuts the provider down. Call
// before process exit.
func ShutdownTracing(ctx context.Context, provider *sdktrace.TracerProvider) error {
	if provider == nil {
		return nil
	}

	if err := provider.Shutdown(ctx); err != nil {
		return types.WrapError(ErrCodeTracingShutdown, "failed to shutdown tracer provider", err)
	}

	return nil
}
