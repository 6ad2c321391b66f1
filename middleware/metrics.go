package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/chescoreloaded/SistemaExamenes-sub001/item"
)

// meterName is the instrumentation scope for syncq metrics.
const meterName = "github.com/chescoreloaded/SistemaExamenes-sub001"

// Metrics returns middleware that records attempt metrics on the global
// MeterProvider.
//
// Instruments:
//   - syncq.attempt.duration (Float64Histogram, seconds)
//   - syncq.attempt.executions (Int64Counter)
//
// Both carry item_name and status ("ok" or "error").
func Metrics() Middleware {
	return MetricsWithMeter(otel.Meter(meterName))
}

// MetricsWithMeter returns metrics middleware using the provided meter.
func MetricsWithMeter(meter metric.Meter) Middleware {
	// The OTel API hands back noop instruments alongside any error.
	duration, _ := meter.Float64Histogram(
		"syncq.attempt.duration",
		metric.WithDescription("Duration of a single task attempt in seconds"),
		metric.WithUnit("s"),
	)
	executions, _ := meter.Int64Counter(
		"syncq.attempt.executions",
		metric.WithDescription("Total number of task attempts"),
		metric.WithUnit("{attempt}"),
	)

	return func(ctx context.Context, it *item.Item, next Handler) error {
		start := time.Now()
		err := next(ctx)

		status := "ok"
		if err != nil {
			status = "error"
		}
		attrs := metric.WithAttributes(
			attribute.String("item_name", it.Name),
			attribute.String("status", status),
		)
		duration.Record(ctx, time.Since(start).Seconds(), attrs)
		executions.Add(ctx, 1, attrs)

		return err
	}
}
