package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/chescoreloaded/SistemaExamenes-sub001/item"
)

// tracerName is the instrumentation scope for syncq spans.
const tracerName = "github.com/chescoreloaded/SistemaExamenes-sub001"

// Tracing returns middleware that wraps each attempt in a span from the
// global TracerProvider.
func Tracing() Middleware {
	return TracingWithTracer(otel.Tracer(tracerName))
}

// TracingWithTracer returns tracing middleware using the provided tracer.
//
// Span attributes: syncq.item.id, syncq.item.name, syncq.attempt.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, it *item.Item, next Handler) error {
		ctx, span := tracer.Start(ctx, "syncq.item.attempt",
			trace.WithAttributes(
				attribute.String("syncq.item.id", it.ID.String()),
				attribute.String("syncq.item.name", it.Name),
				attribute.Int("syncq.attempt", it.Retries+1),
			),
			trace.WithSpanKind(trace.SpanKindClient),
		)
		defer span.End()

		err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		return err
	}
}
