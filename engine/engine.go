package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	gu "github.com/xraph/go-utils/metrics"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	syncq "github.com/chescoreloaded/SistemaExamenes-sub001"
	"github.com/chescoreloaded/SistemaExamenes-sub001/backoff"
	"github.com/chescoreloaded/SistemaExamenes-sub001/ext"
	"github.com/chescoreloaded/SistemaExamenes-sub001/id"
	"github.com/chescoreloaded/SistemaExamenes-sub001/item"
	mw "github.com/chescoreloaded/SistemaExamenes-sub001/middleware"
	"github.com/chescoreloaded/SistemaExamenes-sub001/network"
	"github.com/chescoreloaded/SistemaExamenes-sub001/observability"
	"github.com/chescoreloaded/SistemaExamenes-sub001/queue"
	"github.com/chescoreloaded/SistemaExamenes-sub001/stream"
)

const instrumentationName = "github.com/chescoreloaded/SistemaExamenes-sub001"

// Engine owns one sync queue and everything around it.
type Engine struct {
	config     syncq.Config
	logger     *slog.Logger
	extensions *ext.Registry
	pending    []ext.Extension
	mws        []mw.Middleware
	bo         backoff.Strategy

	queue   *queue.Queue
	monitor *network.Monitor
	probe   network.Probe
	broker  *stream.Broker
	metrics *observability.MetricsExtension

	brokerEnabled bool
	brokerOpts    []stream.BrokerOption

	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	metricFactory  gu.MetricFactory

	// listenerSeq names OnFailure registrations.
	listenerSeq atomic.Uint64
	unwatch     []func()

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	group   *errgroup.Group
}

// New builds an engine. It validates the configuration, assembles the
// middleware stack and wires the connectivity monitor to Resume.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{
		config: syncq.DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(eng)
	}

	if err := eng.config.Validate(); err != nil {
		return nil, err
	}

	eng.extensions = ext.NewRegistry(eng.logger)

	if eng.metricFactory == nil {
		eng.metricFactory = gu.NewMetricsCollector("syncq/observability")
	}
	eng.metrics = observability.NewMetricsExtensionWithFactory(eng.metricFactory)
	eng.extensions.Register(eng.metrics)

	if eng.brokerEnabled {
		eng.broker = stream.NewBroker(eng.logger, eng.brokerOpts...)
		eng.extensions.Register(eng.broker)
	}
	for _, e := range eng.pending {
		eng.extensions.Register(e)
	}
	eng.pending = nil

	if eng.bo == nil {
		eng.bo = backoff.NewConstant(eng.config.RetryDelay)
	}

	q, err := queue.New(
		queue.WithLogger(eng.logger),
		queue.WithExtensions(eng.extensions),
		queue.WithMaxRetries(eng.config.MaxRetries),
		queue.WithBackoff(eng.bo),
		queue.WithMiddleware(eng.middlewareStack()...),
	)
	if err != nil {
		return nil, fmt.Errorf("build queue: %w", err)
	}
	eng.queue = q

	if eng.monitor == nil {
		monOpts := []network.Option{
			network.WithLogger(eng.logger),
			network.WithProbeInterval(eng.config.ProbeInterval),
		}
		if eng.probe != nil {
			monOpts = append(monOpts, network.WithProbe(eng.probe))
		}
		eng.monitor = network.NewMonitor(monOpts...)
	}

	eng.unwatch = append(eng.unwatch,
		eng.monitor.OnChange(func(online bool) {
			eng.extensions.EmitNetworkChanged(context.Background(), online)
		}),
		eng.monitor.OnRestore(func() {
			if !eng.queue.Resume() {
				eng.logger.Debug("connectivity restored, nothing to resume",
					slog.Int("pending", eng.queue.Status().QueueLength),
				)
			}
		}),
	)

	return eng, nil
}

// middlewareStack builds recover → tracing → metrics → logging → timeout,
// followed by user middleware.
func (eng *Engine) middlewareStack() []mw.Middleware {
	var tracingMw mw.Middleware
	if eng.tracerProvider != nil {
		tracingMw = mw.TracingWithTracer(eng.tracerProvider.Tracer(instrumentationName))
	} else {
		tracingMw = mw.Tracing()
	}

	var metricsMw mw.Middleware
	if eng.meterProvider != nil {
		metricsMw = mw.MetricsWithMeter(eng.meterProvider.Meter(instrumentationName))
	} else {
		metricsMw = mw.Metrics()
	}

	stack := []mw.Middleware{
		mw.Recover(eng.logger),
		tracingMw,
		metricsMw,
		mw.Logging(eng.logger),
		mw.Timeout(eng.config.AttemptTimeout),
	}
	return append(stack, eng.mws...)
}

// Start launches background work: the connectivity probe loop when a probe
// is configured. The queue itself needs no start; Enqueue works at once.
// Start after Stop returns ErrEngineStopped.
func (eng *Engine) Start(ctx context.Context) error {
	eng.mu.Lock()
	defer eng.mu.Unlock()

	if eng.stopped {
		return syncq.ErrEngineStopped
	}
	if eng.started {
		return nil
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	g, gctx := errgroup.WithContext(runCtx)
	if eng.monitor.HasProbe() {
		g.Go(func() error { return eng.monitor.Run(gctx) })
	}

	eng.cancel = cancel
	eng.group = g
	eng.started = true
	eng.logger.Info("sync engine started",
		slog.Int("max_retries", eng.config.MaxRetries),
		slog.Duration("retry_delay", eng.config.RetryDelay),
		slog.Bool("probing", eng.monitor.HasProbe()),
	)
	return nil
}

// Stop shuts the engine down. Background loops are cancelled, pending items
// are discarded, and extensions receive Shutdown. Safe to call more than
// once.
func (eng *Engine) Stop(ctx context.Context) error {
	eng.mu.Lock()
	if eng.stopped {
		eng.mu.Unlock()
		return nil
	}
	eng.stopped = true
	cancel, g := eng.cancel, eng.group
	eng.mu.Unlock()

	for _, fn := range eng.unwatch {
		fn()
	}

	var errs []error
	if cancel != nil {
		cancel()
		if err := g.Wait(); err != nil {
			errs = append(errs, fmt.Errorf("background loop: %w", err))
		}
	}
	if err := eng.queue.Close(ctx); err != nil {
		errs = append(errs, err)
	}

	eng.extensions.EmitShutdown(ctx)
	eng.logger.Info("sync engine stopped")

	if len(errs) > 0 {
		return fmt.Errorf("stop sync engine: %w", errs[0])
	}
	return nil
}

// Stopped reports whether Stop has been called.
func (eng *Engine) Stopped() bool {
	eng.mu.Lock()
	defer eng.mu.Unlock()
	return eng.stopped
}

// Enqueue adds a remote write to the queue and returns its ID.
func (eng *Engine) Enqueue(task item.Task, opts ...queue.EnqueueOption) id.ItemID {
	return eng.queue.Enqueue(task, opts...)
}

// Resume restarts draining; see queue.Queue.Resume.
func (eng *Engine) Resume() bool { return eng.queue.Resume() }

// Clear discards all pending writes and returns how many were discarded.
func (eng *Engine) Clear() int { return eng.queue.Clear() }

// Status returns a snapshot of the queue.
func (eng *Engine) Status() queue.Status { return eng.queue.Status() }

// SetOnline forwards a host connectivity signal to the monitor. Going from
// offline to online resumes the queue.
func (eng *Engine) SetOnline(online bool) bool { return eng.monitor.SetOnline(online) }

// Online reports the monitor's current state.
func (eng *Engine) Online() bool { return eng.monitor.Online() }

// CheckConnectivity runs the probe on demand.
func (eng *Engine) CheckConnectivity(ctx context.Context) (bool, error) {
	return eng.monitor.Check(ctx)
}

// Failure describes a write that exhausted its retries.
type Failure struct {
	ItemID  id.ItemID
	Name    string
	Retries int
	Err     error
}

// failureListener adapts a callback to ext.ItemDropped.
type failureListener struct {
	name string
	fn   func(Failure)
}

func (l *failureListener) Name() string { return l.name }

func (l *failureListener) OnItemDropped(_ context.Context, it *item.Item, err error) error {
	l.fn(Failure{ItemID: it.ID, Name: it.Name, Retries: it.Retries, Err: err})
	return nil
}

// OnFailure registers fn to be called once for every dropped item. It runs
// on the drain goroutine and should return quickly. The returned function
// removes the registration.
func (eng *Engine) OnFailure(fn func(Failure)) (unsubscribe func()) {
	l := &failureListener{
		name: "failure-listener-" + strconv.FormatUint(eng.listenerSeq.Add(1), 10),
		fn:   fn,
	}
	eng.extensions.Register(l)
	return func() { eng.extensions.Unregister(l.name) }
}

// SubscribeFailures subscribes to the broker's failures topic. It returns
// ErrNoBroker unless the engine was built WithStreamBroker.
func (eng *Engine) SubscribeFailures(subscriberID string) (*stream.Subscriber, error) {
	if eng.broker == nil {
		return nil, syncq.ErrNoBroker
	}
	return eng.broker.Subscribe(subscriberID, stream.TopicFailures), nil
}

// Config returns the engine configuration.
func (eng *Engine) Config() syncq.Config { return eng.config }

// Logger returns the engine logger.
func (eng *Engine) Logger() *slog.Logger { return eng.logger }

// Extensions returns the extension registry.
func (eng *Engine) Extensions() *ext.Registry { return eng.extensions }

// Queue returns the underlying queue.
func (eng *Engine) Queue() *queue.Queue { return eng.queue }

// Monitor returns the connectivity monitor.
func (eng *Engine) Monitor() *network.Monitor { return eng.monitor }

// Broker returns the stream broker, or nil when not enabled.
func (eng *Engine) Broker() *stream.Broker { return eng.broker }

// Metrics returns the lifecycle counters.
func (eng *Engine) Metrics() *observability.MetricsExtension { return eng.metrics }
