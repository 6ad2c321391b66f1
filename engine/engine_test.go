package engine_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"strings"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	gu "github.com/xraph/go-utils/metrics"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	syncq "github.com/chescoreloaded/SistemaExamenes-sub001"
	"github.com/chescoreloaded/SistemaExamenes-sub001/engine"
	"github.com/chescoreloaded/SistemaExamenes-sub001/queue"
	"github.com/chescoreloaded/SistemaExamenes-sub001/stream"
)

var errOffline = errors.New("network unreachable")

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// newEngine builds a quiet engine. The metric factory is created by the
// caller outside any synctest bubble.
func newEngine(t *testing.T, factory gu.MetricFactory, opts ...engine.Option) *engine.Engine {
	t.Helper()
	opts = append([]engine.Option{
		engine.WithLogger(quietLogger()),
		engine.WithMetricFactory(factory),
	}, opts...)
	eng, err := engine.New(opts...)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	return eng
}

func stop(t *testing.T, eng *engine.Engine) {
	t.Helper()
	if err := eng.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

// ──────────────────────────────────────────────────
// Construction
// ──────────────────────────────────────────────────

func TestEngine_New_RejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*syncq.Config)
	}{
		{"zero retries", func(c *syncq.Config) { c.MaxRetries = 0 }},
		{"zero retry delay", func(c *syncq.Config) { c.RetryDelay = 0 }},
		{"negative retry delay", func(c *syncq.Config) { c.RetryDelay = -time.Second }},
		{"negative attempt timeout", func(c *syncq.Config) { c.AttemptTimeout = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := syncq.DefaultConfig()
			tt.mutate(&cfg)

			_, err := engine.New(engine.WithConfig(cfg), engine.WithLogger(quietLogger()))
			if !errors.Is(err, syncq.ErrInvalidConfig) {
				t.Fatalf("err = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestEngine_SubscribeFailures_RequiresBroker(t *testing.T) {
	eng := newEngine(t, gu.NewMetricsCollector(t.Name()))
	defer stop(t, eng)

	if eng.Broker() != nil {
		t.Fatal("broker should be nil without WithStreamBroker")
	}
	if _, err := eng.SubscribeFailures("ui"); !errors.Is(err, syncq.ErrNoBroker) {
		t.Fatalf("err = %v, want ErrNoBroker", err)
	}
}

// ──────────────────────────────────────────────────
// End-to-end: Enqueue → retry → drop → notify
// ──────────────────────────────────────────────────

func TestEngine_EndToEnd_SuccessfulWrites(t *testing.T) {
	factory := gu.NewMetricsCollector(t.Name())
	synctest.Test(t, func(t *testing.T) {
		eng := newEngine(t, factory)
		defer stop(t, eng)
		if err := eng.Start(context.Background()); err != nil {
			t.Fatalf("Start: %v", err)
		}

		var mu sync.Mutex
		var saved []string
		for _, answer := range []string{"q1", "q2", "q3"} {
			eng.Enqueue(func(context.Context) error {
				mu.Lock()
				saved = append(saved, answer)
				mu.Unlock()
				return nil
			}, queue.WithName("save-answer"))
		}
		synctest.Wait()

		mu.Lock()
		defer mu.Unlock()
		if len(saved) != 3 || saved[0] != "q1" || saved[2] != "q3" {
			t.Fatalf("saved = %v, want [q1 q2 q3]", saved)
		}
		if got := eng.Metrics().ItemSucceeded.Value(); got != 3 {
			t.Errorf("ItemSucceeded = %v, want 3", got)
		}
	})
}

func TestEngine_OnFailure_CalledOncePerDrop(t *testing.T) {
	factory := gu.NewMetricsCollector(t.Name())
	synctest.Test(t, func(t *testing.T) {
		eng := newEngine(t, factory)
		defer stop(t, eng)

		var mu sync.Mutex
		var failures []engine.Failure
		eng.OnFailure(func(f engine.Failure) {
			mu.Lock()
			failures = append(failures, f)
			mu.Unlock()
		})

		var attempts atomic.Int32
		itemID := eng.Enqueue(func(context.Context) error {
			attempts.Add(1)
			return errOffline
		}, queue.WithName("submit-exam"))

		synctest.Wait()
		time.Sleep(time.Minute)
		synctest.Wait()

		if got := attempts.Load(); got != 3 {
			t.Fatalf("attempts = %d, want 3", got)
		}
		mu.Lock()
		defer mu.Unlock()
		if len(failures) != 1 {
			t.Fatalf("failures = %d, want 1", len(failures))
		}
		f := failures[0]
		if f.ItemID.String() != itemID.String() || f.Retries != 3 || f.Name != "submit-exam" {
			t.Errorf("failure = %+v", f)
		}
		if !errors.Is(f.Err, errOffline) || !errors.Is(f.Err, syncq.ErrMaxRetriesExceeded) {
			t.Errorf("failure err = %v", f.Err)
		}
		if got := eng.Metrics().ItemDropped.Value(); got != 1 {
			t.Errorf("ItemDropped = %v, want 1", got)
		}
	})
}

func TestEngine_OnFailure_Unsubscribe(t *testing.T) {
	factory := gu.NewMetricsCollector(t.Name())
	synctest.Test(t, func(t *testing.T) {
		eng := newEngine(t, factory)
		defer stop(t, eng)

		var calls atomic.Int32
		unsubscribe := eng.OnFailure(func(engine.Failure) { calls.Add(1) })
		unsubscribe()

		eng.Enqueue(func(context.Context) error { return errOffline })
		synctest.Wait()
		time.Sleep(time.Minute)
		synctest.Wait()

		if got := calls.Load(); got != 0 {
			t.Fatalf("unsubscribed listener called %d times", got)
		}
	})
}

func TestEngine_SubscribeFailures_ReceivesDrop(t *testing.T) {
	factory := gu.NewMetricsCollector(t.Name())
	synctest.Test(t, func(t *testing.T) {
		eng := newEngine(t, factory, engine.WithStreamBroker())
		defer stop(t, eng)

		sub, err := eng.SubscribeFailures("toast")
		if err != nil {
			t.Fatalf("SubscribeFailures: %v", err)
		}

		itemID := eng.Enqueue(func(context.Context) error { return errOffline }, queue.WithName("save-answer"))
		eng.Enqueue(func(context.Context) error { return nil }, queue.WithName("heartbeat"))
		synctest.Wait()
		time.Sleep(time.Minute)
		synctest.Wait()

		var evt *stream.Event
		select {
		case evt = <-sub.C():
		default:
			t.Fatal("no failure event delivered")
		}
		var data stream.FailureEventData
		if err := json.Unmarshal(evt.Data, &data); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if data.ItemID != itemID.String() || data.Retries != 3 {
			t.Errorf("failure data = %+v", data)
		}

		select {
		case extra := <-sub.C():
			t.Fatalf("unexpected second event %s", extra.Type)
		default:
		}
	})
}

// ──────────────────────────────────────────────────
// Connectivity
// ──────────────────────────────────────────────────

func TestEngine_NetworkChanges_ReachExtensions(t *testing.T) {
	factory := gu.NewMetricsCollector(t.Name())
	synctest.Test(t, func(t *testing.T) {
		eng := newEngine(t, factory, engine.WithStreamBroker())
		defer stop(t, eng)

		sub := eng.Broker().Subscribe("net", stream.TopicNetwork)

		if !eng.SetOnline(false) {
			t.Fatal("going offline not reported as a change")
		}
		if eng.Online() {
			t.Fatal("engine still online")
		}
		eng.SetOnline(true)

		for _, want := range []bool{false, true} {
			evt := <-sub.C()
			var data stream.NetworkEventData
			if err := json.Unmarshal(evt.Data, &data); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if data.Online != want {
				t.Errorf("online = %v, want %v", data.Online, want)
			}
		}
		if got := eng.Metrics().NetworkRestored.Value(); got != 1 {
			t.Errorf("NetworkRestored = %v, want 1", got)
		}
	})
}

// resumeCounter counts OnQueueResumed calls.
type resumeCounter struct{ n atomic.Int32 }

func (r *resumeCounter) Name() string { return "resume-counter" }

func (r *resumeCounter) OnQueueResumed(context.Context, int) error {
	r.n.Add(1)
	return nil
}

func TestEngine_RestoreDuringRetryWait(t *testing.T) {
	factory := gu.NewMetricsCollector(t.Name())
	synctest.Test(t, func(t *testing.T) {
		var logs bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
		resumed := &resumeCounter{}

		eng := newEngine(t, factory,
			engine.WithLogger(logger),
			engine.WithExtension(resumed),
		)
		defer stop(t, eng)

		start := time.Now()
		var mu sync.Mutex
		var at []time.Duration
		eng.Enqueue(func(context.Context) error {
			mu.Lock()
			at = append(at, time.Since(start))
			mu.Unlock()
			return errOffline
		}, queue.WithName("save-answer"))

		synctest.Wait()
		time.Sleep(time.Second)
		eng.SetOnline(false)
		if !eng.SetOnline(true) {
			t.Fatal("going back online not reported as a change")
		}
		synctest.Wait()

		if !strings.Contains(logs.String(), "connectivity restored, nothing to resume") {
			t.Error("restore signal did not reach the queue")
		}
		if st := eng.Status(); st.QueueLength != 1 || !st.Processing {
			t.Errorf("status after restore = %+v, want 1 pending and processing", st)
		}
		mu.Lock()
		if len(at) != 1 {
			t.Errorf("attempts after restore = %d, want 1", len(at))
		}
		mu.Unlock()

		time.Sleep(time.Minute)
		synctest.Wait()

		mu.Lock()
		defer mu.Unlock()
		want := []time.Duration{0, 5 * time.Second, 10 * time.Second}
		if len(at) != len(want) {
			t.Fatalf("attempts = %v, want %v", at, want)
		}
		for i := range want {
			if at[i] != want[i] {
				t.Errorf("attempt %d at %v, want %v", i+1, at[i], want[i])
			}
		}
		if n := resumed.n.Load(); n != 0 {
			t.Errorf("OnQueueResumed fired %d times, want 0", n)
		}
		if got := eng.Metrics().QueueResumed.Value(); got != 0 {
			t.Errorf("QueueResumed = %v, want 0", got)
		}
	})
}

func TestEngine_Probe_DrivesMonitor(t *testing.T) {
	factory := gu.NewMetricsCollector(t.Name())
	synctest.Test(t, func(t *testing.T) {
		var reachable atomic.Bool
		cfg := syncq.DefaultConfig()
		cfg.ProbeInterval = 10 * time.Second

		eng := newEngine(t, factory,
			engine.WithConfig(cfg),
			engine.WithProbe(func(context.Context) error {
				if reachable.Load() {
					return nil
				}
				return errOffline
			}),
		)
		if err := eng.Start(context.Background()); err != nil {
			t.Fatalf("Start: %v", err)
		}

		time.Sleep(10 * time.Second)
		synctest.Wait()
		if eng.Online() {
			t.Fatal("engine online despite failing probe")
		}

		reachable.Store(true)
		time.Sleep(10 * time.Second)
		synctest.Wait()
		if !eng.Online() {
			t.Fatal("engine offline despite passing probe")
		}

		stop(t, eng)
	})
}

// ──────────────────────────────────────────────────
// Queue operations through the engine
// ──────────────────────────────────────────────────

func TestEngine_ClearAndStatus(t *testing.T) {
	factory := gu.NewMetricsCollector(t.Name())
	synctest.Test(t, func(t *testing.T) {
		eng := newEngine(t, factory)
		defer stop(t, eng)

		eng.Enqueue(func(context.Context) error { return errOffline })
		eng.Enqueue(func(context.Context) error { return nil })
		synctest.Wait()

		st := eng.Status()
		if st.QueueLength != 2 || !st.Processing || st.Items[0].Retries != 1 {
			t.Fatalf("status = %+v", st)
		}
		if n := eng.Clear(); n != 2 {
			t.Fatalf("Clear = %d, want 2", n)
		}
		if st := eng.Status(); st.QueueLength != 0 || st.Processing {
			t.Fatalf("status after clear = %+v", st)
		}
		if eng.Resume() {
			t.Fatal("Resume on empty queue started a loop")
		}
	})
}

func TestEngine_Tracing(t *testing.T) {
	factory := gu.NewMetricsCollector(t.Name())
	synctest.Test(t, func(t *testing.T) {
		exporter := tracetest.NewInMemoryExporter()
		tp := trace.NewTracerProvider(trace.WithSyncer(exporter))

		eng := newEngine(t, factory, engine.WithTracerProvider(tp))
		defer stop(t, eng)

		eng.Enqueue(func(context.Context) error { return nil }, queue.WithName("traced"))
		synctest.Wait()

		spans := exporter.GetSpans()
		if len(spans) != 1 {
			t.Fatalf("spans = %d, want 1", len(spans))
		}
		if spans[0].Name != "syncq.item.attempt" {
			t.Errorf("span name = %q", spans[0].Name)
		}
	})
}

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

func TestEngine_StopDiscardsPendingAndClosesSubscribers(t *testing.T) {
	factory := gu.NewMetricsCollector(t.Name())
	synctest.Test(t, func(t *testing.T) {
		eng := newEngine(t, factory, engine.WithStreamBroker())
		if err := eng.Start(context.Background()); err != nil {
			t.Fatalf("Start: %v", err)
		}
		sub := eng.Broker().Subscribe("all", stream.TopicQueue)

		eng.Enqueue(func(context.Context) error { return errOffline })
		synctest.Wait()

		stop(t, eng)

		if st := eng.Status(); st.QueueLength != 0 {
			t.Fatalf("queue length after stop = %d", st.QueueLength)
		}
		if _, ok := <-sub.C(); ok {
			t.Fatal("subscriber channel should be closed on shutdown")
		}
		if err := eng.Start(context.Background()); !errors.Is(err, syncq.ErrEngineStopped) {
			t.Fatalf("Start after Stop err = %v, want ErrEngineStopped", err)
		}
		if err := eng.Stop(context.Background()); err != nil {
			t.Fatalf("second Stop: %v", err)
		}
	})
}
