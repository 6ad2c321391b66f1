package engine

import (
	"log/slog"

	gu "github.com/xraph/go-utils/metrics"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	syncq "github.com/chescoreloaded/SistemaExamenes-sub001"
	"github.com/chescoreloaded/SistemaExamenes-sub001/backoff"
	"github.com/chescoreloaded/SistemaExamenes-sub001/ext"
	mw "github.com/chescoreloaded/SistemaExamenes-sub001/middleware"
	"github.com/chescoreloaded/SistemaExamenes-sub001/network"
	"github.com/chescoreloaded/SistemaExamenes-sub001/stream"
)

// Option configures an Engine.
type Option func(*Engine)

// WithConfig sets the queue configuration. Defaults to syncq.DefaultConfig().
func WithConfig(cfg syncq.Config) Option {
	return func(eng *Engine) { eng.config = cfg }
}

// WithLogger sets the structured logger shared by all subsystems.
func WithLogger(l *slog.Logger) Option {
	return func(eng *Engine) { eng.logger = l }
}

// WithExtension registers an extension with the engine.
func WithExtension(e ext.Extension) Option {
	return func(eng *Engine) { eng.pending = append(eng.pending, e) }
}

// WithMiddleware adds middleware to the end of the attempt chain, inside the
// default stack.
func WithMiddleware(m mw.Middleware) Option {
	return func(eng *Engine) { eng.mws = append(eng.mws, m) }
}

// WithBackoff sets the retry delay strategy. If not set, a constant delay of
// Config.RetryDelay is used.
func WithBackoff(b backoff.Strategy) Option {
	return func(eng *Engine) { eng.bo = b }
}

// WithStreamBroker enables the stream broker so listeners can subscribe to
// lifecycle topics.
func WithStreamBroker(opts ...stream.BrokerOption) Option {
	return func(eng *Engine) {
		eng.brokerEnabled = true
		eng.brokerOpts = append(eng.brokerOpts, opts...)
	}
}

// WithMonitor uses an existing connectivity monitor instead of creating one.
func WithMonitor(m *network.Monitor) Option {
	return func(eng *Engine) { eng.monitor = m }
}

// WithProbe sets the connectivity probe for the engine's own monitor.
// Ignored when WithMonitor is used.
func WithProbe(p network.Probe) Option {
	return func(eng *Engine) { eng.probe = p }
}

// WithTracerProvider sets a custom OTel TracerProvider for the engine.
// If not set, the global otel.GetTracerProvider() is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(eng *Engine) { eng.tracerProvider = tp }
}

// WithMeterProvider sets a custom OTel MeterProvider for the metrics
// middleware. If not set, the global otel.GetMeterProvider() is used.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(eng *Engine) { eng.meterProvider = mp }
}

// WithMetricFactory sets the go-utils factory for lifecycle counters.
// Forge applications pass fapp.Metrics().
func WithMetricFactory(f gu.MetricFactory) Option {
	return func(eng *Engine) { eng.metricFactory = f }
}
