package pipeline

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/insuregraph/insuregraph/internal/pipeline"

// stageTracer opens one span per pipeline stage. With no tracer provider
// registered the spans are no-ops with negligible cost.
type stageTracer struct {
	tracer trace.Tracer
}

func newStageTracer() stageTracer {
	return stageTracer{tracer: otel.Tracer(tracerName)}
}

func (t stageTracer) start(ctx context.Context, name string) (context.Context, stageSpan) {
	ctx, span := t.tracer.Start(ctx, name)
	return ctx, stageSpan{span: span}
}

// stageSpan wraps an otel span with key-value helpers matching the logger's
// args style.
type stageSpan struct {
	span trace.Span
}

// record sets span attributes from alternating key-value args. Unsupported
// value types are stringified.
func (s stageSpan) record(args ...any) {
	if len(args)%2 != 0 {
		return
	}
	attrs := make([]attribute.KeyValue, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		switch v := args[i+1].(type) {
		case string:
			attrs = append(attrs, attribute.String(key, v))
		case int:
			attrs = append(attrs, attribute.Int(key, v))
		case int64:
			attrs = append(attrs, attribute.Int64(key, v))
		case float64:
			attrs = append(attrs, attribute.Float64(key, v))
		case bool:
			attrs = append(attrs, attribute.Bool(key, v))
		default:
			attrs = append(attrs, attribute.String(key, fmt.Sprintf("%v", v)))
		}
	}
	s.span.SetAttributes(attrs...)
}

// fail marks the span as errored.
func (s stageSpan) fail(err error) {
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// End finishes the span.
func (s stageSpan) End() {
	s.span.End()
}
