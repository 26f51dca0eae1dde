// Package observability provides structured logging with trace correlation
// and OpenTelemetry tracer setup for the query pipeline.
package observability

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// TracedLogger is a structured logger with automatic trace correlation.
// It wraps slog.Logger, tags every entry with the component name, and pulls
// trace_id/span_id from the OpenTelemetry span in the context.
type TracedLogger struct {
	logger          *slog.Logger
	component       string
	redactSensitive bool
}

// NewTracedLogger creates a logger for the named component using the given
// slog handler.
func NewTracedLogger(handler slog.Handler, component string) *TracedLogger {
	return &TracedLogger{
		logger:          slog.New(handler),
		component:       component,
		redactSensitive: true,
	}
}

// Debug logs a debug-level message with trace correlation.
// Debug logs include all fields without redaction.
func (l *TracedLogger) Debug(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).Debug(msg, args...)
}

// Info logs an info-level message with trace correlation.
// Sensitive data in args is redacted at info level and above.
func (l *TracedLogger) Info(ctx context.Context, msg string, args ...any) {
	if l.redactSensitive {
		args = redactSensitiveData(args)
	}
	l.WithContext(ctx).Info(msg, args...)
}

// Warn logs a warning-level message with trace correlation.
func (l *TracedLogger) Warn(ctx context.Context, msg string, args ...any) {
	if l.redactSensitive {
		args = redactSensitiveData(args)
	}
	l.WithContext(ctx).Warn(msg, args...)
}

// Error logs an error-level message with trace correlation.
func (l *TracedLogger) Error(ctx context.Context, msg string, args ...any) {
	if l.redactSensitive {
		args = redactSensitiveData(args)
	}
	l.WithContext(ctx).Error(msg, args...)
}

// WithContext returns a slog.Logger carrying the component name plus
// trace_id and span_id when the context holds a valid span.
func (l *TracedLogger) WithContext(ctx context.Context) *slog.Logger {
	logger := l.logger.With(slog.String("component", l.component))

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		spanCtx := span.SpanContext()
		logger = logger.With(
			slog.String("trace_id", spanCtx.TraceID().String()),
			slog.String("span_id", spanCtx.SpanID().String()),
		)
	}

	return logger
}

// NewJSONHandler creates a JSON log handler, the production format.
func NewJSONHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
}

// NewTextHandler creates a human-readable handler for development.
func NewTextHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})
}

// ParseLevel maps a config string to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// redactSensitiveData replaces values of sensitive keys with "[REDACTED]".
// Raw query text and clause passages stay loggable; credentials do not.
func redactSensitiveData(args []any) []any {
	if len(args)%2 != 0 {
		return args
	}

	sensitiveFields := map[string]bool{
		"apikey":     true,
		"secret":     true,
		"secretkey":  true,
		"password":   true,
		"token":      true,
		"credential": true,
	}

	redacted := make([]any, len(args))
	copy(redacted, args)

	for i := 0; i < len(args); i += 2 {
		if key, ok := args[i].(string); ok {
			normalizedKey := strings.ToLower(strings.ReplaceAll(key, "_", ""))
			if sensitiveFields[normalizedKey] {
				redacted[i+1] = "[REDACTED]"
			}
		}
	}

	return redacted
}
