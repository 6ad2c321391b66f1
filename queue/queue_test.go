package queue_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	syncq "github.com/chescoreloaded/SistemaExamenes-sub001"
	"github.com/chescoreloaded/SistemaExamenes-sub001/backoff"
	"github.com/chescoreloaded/SistemaExamenes-sub001/ext"
	"github.com/chescoreloaded/SistemaExamenes-sub001/id"
	"github.com/chescoreloaded/SistemaExamenes-sub001/item"
	"github.com/chescoreloaded/SistemaExamenes-sub001/middleware"
	"github.com/chescoreloaded/SistemaExamenes-sub001/queue"
)

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

var errBackend = errors.New("backend unavailable")

type dropRecord struct {
	itemID  id.ItemID
	name    string
	retries int
	err     error
	at      time.Time
}

// recorder captures lifecycle events emitted by the queue.
type recorder struct {
	mu        sync.Mutex
	started   []string
	succeeded []string
	retrying  []string
	dropped   []dropRecord
	cleared   []int
	resumed   []int
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) OnItemStarted(_ context.Context, it *item.Item, _ int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, it.Name)
	return nil
}

func (r *recorder) OnItemSucceeded(_ context.Context, it *item.Item, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.succeeded = append(r.succeeded, it.Name)
	return nil
}

func (r *recorder) OnItemRetrying(_ context.Context, it *item.Item, _ time.Time, _ error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retrying = append(r.retrying, it.Name)
	return nil
}

func (r *recorder) OnItemDropped(_ context.Context, it *item.Item, err error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropped = append(r.dropped, dropRecord{
		itemID:  it.ID,
		name:    it.Name,
		retries: it.Retries,
		err:     err,
		at:      time.Now(),
	})
	return nil
}

func (r *recorder) OnQueueCleared(_ context.Context, discarded int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleared = append(r.cleared, discarded)
	return nil
}

func (r *recorder) OnQueueResumed(_ context.Context, pending int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resumed = append(r.resumed, pending)
	return nil
}

func (r *recorder) drops() []dropRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]dropRecord(nil), r.dropped...)
}

func (r *recorder) startedNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.started...)
}

// attempts records when each named task ran.
type attempts struct {
	mu    sync.Mutex
	order []string
	at    map[string][]time.Time
}

func newAttempts() *attempts {
	return &attempts{at: make(map[string][]time.Time)}
}

func (a *attempts) record(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.order = append(a.order, name)
	a.at[name] = append(a.at[name], time.Now())
}

func (a *attempts) count(name string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.at[name])
}

func (a *attempts) times(name string) []time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]time.Time(nil), a.at[name]...)
}

func (a *attempts) sequence() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.order...)
}

// succeed returns a task that records its attempt and succeeds.
func (a *attempts) succeed(name string) item.Task {
	return func(context.Context) error {
		a.record(name)
		return nil
	}
}

// failTimes returns a task that fails its first n attempts.
func (a *attempts) failTimes(name string, n int) item.Task {
	calls := 0
	return func(context.Context) error {
		a.record(name)
		calls++
		if calls <= n {
			return errBackend
		}
		return nil
	}
}

func (a *attempts) alwaysFail(name string) item.Task {
	return func(context.Context) error {
		a.record(name)
		return errBackend
	}
}

func newQueue(t *testing.T, opts ...queue.Option) (*queue.Queue, *recorder) {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	rec := &recorder{}
	reg := ext.NewRegistry(logger)
	reg.Register(rec)

	opts = append([]queue.Option{
		queue.WithLogger(logger),
		queue.WithExtensions(reg),
	}, opts...)
	q, err := queue.New(opts...)
	if err != nil {
		t.Fatalf("queue.New: %v", err)
	}
	return q, rec
}

func closeQueue(t *testing.T, q *queue.Queue) {
	t.Helper()
	if err := q.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

// ──────────────────────────────────────────────────
// Construction
// ──────────────────────────────────────────────────

func TestQueue_New_Defaults(t *testing.T) {
	q, err := queue.New()
	if err != nil {
		t.Fatalf("queue.New: %v", err)
	}
	defer closeQueue(t, q)

	if q.MaxRetries() != 3 {
		t.Fatalf("MaxRetries = %d, want 3", q.MaxRetries())
	}
	st := q.Status()
	if st.QueueLength != 0 || st.Processing {
		t.Fatalf("fresh queue status = %+v, want empty and idle", st)
	}
}

func TestQueue_New_RejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		opt  queue.Option
	}{
		{"zero retries", queue.WithMaxRetries(0)},
		{"negative retries", queue.WithMaxRetries(-2)},
		{"nil backoff", queue.WithBackoff(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := queue.New(tt.opt)
			if !errors.Is(err, syncq.ErrInvalidConfig) {
				t.Fatalf("err = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestQueue_WithConfig(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		cfg := syncq.DefaultConfig()
		cfg.MaxRetries = 2
		cfg.RetryDelay = time.Second

		q, rec := newQueue(t, queue.WithConfig(cfg))
		defer closeQueue(t, q)
		a := newAttempts()

		q.Enqueue(a.alwaysFail("x"), queue.WithName("x"))
		synctest.Wait()
		time.Sleep(time.Second)
		synctest.Wait()

		if got := a.count("x"); got != 2 {
			t.Fatalf("attempts = %d, want 2", got)
		}
		if drops := rec.drops(); len(drops) != 1 || drops[0].retries != 2 {
			t.Fatalf("drops = %+v, want one with retries 2", drops)
		}
	})
}

// ──────────────────────────────────────────────────
// Enqueue and FIFO draining
// ──────────────────────────────────────────────────

func TestQueue_Enqueue_RunsInInsertionOrder(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		q, rec := newQueue(t)
		defer closeQueue(t, q)
		a := newAttempts()

		var want []string
		for i := range 5 {
			name := fmt.Sprintf("task-%d", i)
			want = append(want, name)
			q.Enqueue(a.succeed(name), queue.WithName(name))
		}
		synctest.Wait()

		if got := a.sequence(); !slices.Equal(got, want) {
			t.Fatalf("execution order = %v, want %v", got, want)
		}
		if got := rec.startedNames(); !slices.Equal(got, want) {
			t.Fatalf("started events = %v, want %v", got, want)
		}
		st := q.Status()
		if st.QueueLength != 0 || st.Processing {
			t.Fatalf("status after drain = %+v, want empty and idle", st)
		}
	})
}

// gatedHooks blocks OnItemEnqueued until gate is closed and logs hook order.
type gatedHooks struct {
	gate chan struct{}
	mu   sync.Mutex
	log  []string
}

func (g *gatedHooks) Name() string { return "gated-hooks" }

func (g *gatedHooks) OnItemEnqueued(_ context.Context, it *item.Item) error {
	<-g.gate
	g.append("enqueued:" + it.Name)
	return nil
}

func (g *gatedHooks) OnItemStarted(_ context.Context, it *item.Item, _ int) error {
	g.append("started:" + it.Name)
	return nil
}

func (g *gatedHooks) append(entry string) {
	g.mu.Lock()
	g.log = append(g.log, entry)
	g.mu.Unlock()
}

func (g *gatedHooks) entries() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.log...)
}

func TestQueue_Enqueue_DoesNotWaitOnHooks(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		logger := slog.New(slog.DiscardHandler)
		hooks := &gatedHooks{gate: make(chan struct{})}
		reg := ext.NewRegistry(logger)
		reg.Register(hooks)

		q, err := queue.New(queue.WithLogger(logger), queue.WithExtensions(reg))
		if err != nil {
			t.Fatalf("queue.New: %v", err)
		}
		defer closeQueue(t, q)
		a := newAttempts()

		q.Enqueue(a.succeed("first"), queue.WithName("first"))
		q.Enqueue(a.succeed("second"), queue.WithName("second"))
		synctest.Wait()

		if st := q.Status(); st.QueueLength != 2 || !st.Processing {
			t.Fatalf("status while hook blocks = %+v, want 2 pending and processing", st)
		}
		if n := a.count("first"); n != 0 {
			t.Fatalf("first ran %d times before its enqueue hook finished", n)
		}

		close(hooks.gate)
		synctest.Wait()

		want := []string{"enqueued:first", "enqueued:second", "started:first", "started:second"}
		got := hooks.entries()
		if len(got) != len(want) {
			t.Fatalf("hook order = %v, want %v", got, want)
		}
		if got[0] != want[0] || slices.Index(got, "started:first") < slices.Index(got, "enqueued:first") ||
			slices.Index(got, "started:second") < slices.Index(got, "enqueued:second") {
			t.Errorf("hook order = %v, want each enqueued before its started", got)
		}
		if got := a.sequence(); !slices.Equal(got, []string{"first", "second"}) {
			t.Errorf("execution order = %v, want [first second]", got)
		}
	})
}

func TestQueue_Enqueue_ReturnsUniqueIDs(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		q, _ := newQueue(t)
		defer closeQueue(t, q)

		seen := make(map[string]bool)
		for range 100 {
			itemID := q.Enqueue(func(context.Context) error { return nil })
			if itemID.Prefix() != id.PrefixItem {
				t.Fatalf("prefix = %q, want %q", itemID.Prefix(), id.PrefixItem)
			}
			if seen[itemID.String()] {
				t.Fatalf("duplicate id %s", itemID)
			}
			seen[itemID.String()] = true
		}
		synctest.Wait()
	})
}

func TestQueue_Enqueue_IDMatchesStatus(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		q, _ := newQueue(t)
		defer closeQueue(t, q)

		gate := make(chan struct{})
		blocked := func(context.Context) error { <-gate; return nil }

		first := q.Enqueue(blocked, queue.WithName("first"))
		second := q.Enqueue(blocked, queue.WithName("second"))
		synctest.Wait()

		st := q.Status()
		if len(st.Items) != 2 {
			t.Fatalf("items = %d, want 2", len(st.Items))
		}
		if st.Items[0].ID.String() != first.String() || st.Items[1].ID.String() != second.String() {
			t.Fatalf("status ids = [%s %s], want [%s %s]", st.Items[0].ID, st.Items[1].ID, first, second)
		}
		if st.Items[0].Name != "first" || st.Items[0].Retries != 0 {
			t.Fatalf("head snapshot = %+v", st.Items[0])
		}
		close(gate)
		synctest.Wait()
	})
}

func TestQueue_Enqueue_DefaultName(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		q, rec := newQueue(t)
		defer closeQueue(t, q)

		q.Enqueue(func(context.Context) error { return nil })
		synctest.Wait()

		if got := rec.startedNames(); len(got) != 1 || got[0] != item.DefaultName {
			t.Fatalf("started = %v, want [%s]", got, item.DefaultName)
		}
	})
}

func TestQueue_Enqueue_NilTaskFails(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		q, rec := newQueue(t)
		defer closeQueue(t, q)

		q.Enqueue(nil, queue.WithName("nil"))
		synctest.Wait()
		time.Sleep(10 * time.Second)
		synctest.Wait()

		drops := rec.drops()
		if len(drops) != 1 {
			t.Fatalf("drops = %d, want 1", len(drops))
		}
		if !errors.Is(drops[0].err, syncq.ErrNilTask) {
			t.Fatalf("drop error = %v, want ErrNilTask", drops[0].err)
		}
	})
}

// ──────────────────────────────────────────────────
// Retry policy
// ──────────────────────────────────────────────────

func TestQueue_RetryThenSucceed(t *testing.T) {
	for k := range 3 {
		t.Run(fmt.Sprintf("failures=%d", k), func(t *testing.T) {
			synctest.Test(t, func(t *testing.T) {
				q, rec := newQueue(t)
				defer closeQueue(t, q)
				a := newAttempts()

				q.Enqueue(a.failTimes("x", k), queue.WithName("x"))
				synctest.Wait()

				for i := 1; i <= k; i++ {
					st := q.Status()
					if st.QueueLength != 1 || st.Items[0].Retries != i {
						t.Fatalf("after failure %d: status = %+v, want one item with retries %d", i, st, i)
					}
					time.Sleep(5 * time.Second)
					synctest.Wait()
				}

				if got := a.count("x"); got != k+1 {
					t.Fatalf("attempts = %d, want %d", got, k+1)
				}
				times := a.times("x")
				for i := 1; i < len(times); i++ {
					if gap := times[i].Sub(times[i-1]); gap < 5*time.Second {
						t.Fatalf("gap before attempt %d = %v, want >= 5s", i+1, gap)
					}
				}
				if len(rec.drops()) != 0 {
					t.Fatal("expected no drop notification")
				}
				if st := q.Status(); st.QueueLength != 0 || st.Processing {
					t.Fatalf("status after success = %+v, want empty and idle", st)
				}
			})
		})
	}
}

func TestQueue_AlwaysFailing_DroppedAfterMaxRetries(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		q, rec := newQueue(t)
		defer closeQueue(t, q)
		a := newAttempts()
		start := time.Now()

		itemID := q.Enqueue(a.alwaysFail("x"), queue.WithName("x"))
		synctest.Wait()
		time.Sleep(20 * time.Second)
		synctest.Wait()

		if got := a.count("x"); got != 3 {
			t.Fatalf("attempts = %d, want 3", got)
		}
		drops := rec.drops()
		if len(drops) != 1 {
			t.Fatalf("drops = %d, want exactly 1", len(drops))
		}
		d := drops[0]
		if d.itemID.String() != itemID.String() {
			t.Fatalf("dropped id = %s, want %s", d.itemID, itemID)
		}
		if d.retries != 3 {
			t.Fatalf("dropped retries = %d, want 3", d.retries)
		}
		if !errors.Is(d.err, syncq.ErrMaxRetriesExceeded) || !errors.Is(d.err, errBackend) {
			t.Fatalf("drop error = %v, want ErrMaxRetriesExceeded wrapping the task error", d.err)
		}
		if elapsed := d.at.Sub(start); elapsed != 10*time.Second {
			t.Fatalf("dropped after %v, want 10s", elapsed)
		}
		if st := q.Status(); st.QueueLength != 0 || st.Processing {
			t.Fatalf("status after drop = %+v, want empty and idle", st)
		}
	})
}

func TestQueue_WithBackoff_Exponential(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		q, _ := newQueue(t, queue.WithBackoff(backoff.NewExponential(time.Second, time.Minute)))
		defer closeQueue(t, q)
		a := newAttempts()

		q.Enqueue(a.alwaysFail("x"), queue.WithName("x"))
		synctest.Wait()
		time.Sleep(time.Minute)
		synctest.Wait()

		times := a.times("x")
		if len(times) != 3 {
			t.Fatalf("attempts = %d, want 3", len(times))
		}
		if gap := times[1].Sub(times[0]); gap != time.Second {
			t.Fatalf("first gap = %v, want 1s", gap)
		}
		if gap := times[2].Sub(times[1]); gap != 2*time.Second {
			t.Fatalf("second gap = %v, want 2s", gap)
		}
	})
}

func TestQueue_Middleware_RecoveredPanicCountsAsFailure(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		logger := slog.New(slog.DiscardHandler)
		q, rec := newQueue(t, queue.WithMiddleware(middleware.Recover(logger)))
		defer closeQueue(t, q)
		a := newAttempts()

		calls := 0
		q.Enqueue(func(context.Context) error {
			a.record("p")
			calls++
			if calls == 1 {
				panic("boom")
			}
			return nil
		}, queue.WithName("p"))
		synctest.Wait()
		time.Sleep(5 * time.Second)
		synctest.Wait()

		if got := a.count("p"); got != 2 {
			t.Fatalf("attempts = %d, want 2", got)
		}
		if len(rec.drops()) != 0 {
			t.Fatal("expected no drop")
		}
	})
}

// ──────────────────────────────────────────────────
// Scenarios
// ──────────────────────────────────────────────────

func TestQueue_Scenario_AllSucceed(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		q, rec := newQueue(t)
		defer closeQueue(t, q)
		a := newAttempts()

		for _, name := range []string{"A", "B", "C"} {
			q.Enqueue(a.succeed(name), queue.WithName(name))
		}
		synctest.Wait()

		if got := a.sequence(); !slices.Equal(got, []string{"A", "B", "C"}) {
			t.Fatalf("order = %v, want [A B C]", got)
		}
		if len(rec.drops()) != 0 {
			t.Fatal("expected no drop")
		}
	})
}

func TestQueue_Scenario_FailingHeadBlocksThenDrops(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		q, rec := newQueue(t)
		defer closeQueue(t, q)
		a := newAttempts()
		start := time.Now()

		q.Enqueue(a.alwaysFail("X"), queue.WithName("X"))
		q.Enqueue(a.succeed("Y"), queue.WithName("Y"))
		synctest.Wait()

		if a.count("Y") != 0 {
			t.Fatal("Y ran while X was still retrying")
		}
		time.Sleep(10 * time.Second)
		synctest.Wait()

		if got := a.sequence(); !slices.Equal(got, []string{"X", "X", "X", "Y"}) {
			t.Fatalf("order = %v, want [X X X Y]", got)
		}
		if y := a.times("Y"); y[0].Sub(start) != 10*time.Second {
			t.Fatalf("Y ran at +%v, want +10s", y[0].Sub(start))
		}
		drops := rec.drops()
		if len(drops) != 1 || drops[0].name != "X" || drops[0].retries != 3 {
			t.Fatalf("drops = %+v, want one for X with retries 3", drops)
		}
	})
}

func TestQueue_Scenario_RecoveringMiddleItem(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		q, rec := newQueue(t)
		defer closeQueue(t, q)
		a := newAttempts()
		start := time.Now()

		q.Enqueue(a.succeed("A"), queue.WithName("A"))
		q.Enqueue(a.failTimes("B", 2), queue.WithName("B"))
		q.Enqueue(a.succeed("C"), queue.WithName("C"))
		synctest.Wait()
		time.Sleep(10 * time.Second)
		synctest.Wait()

		if got := a.sequence(); !slices.Equal(got, []string{"A", "B", "B", "B", "C"}) {
			t.Fatalf("order = %v, want [A B B B C]", got)
		}
		b := a.times("B")
		for i, want := range []time.Duration{0, 5 * time.Second, 10 * time.Second} {
			if got := b[i].Sub(start); got != want {
				t.Fatalf("B attempt %d at +%v, want +%v", i+1, got, want)
			}
		}
		if c := a.times("C"); c[0].Before(b[2]) {
			t.Fatal("C started before B succeeded")
		}
		if len(rec.drops()) != 0 {
			t.Fatal("expected no drop")
		}
	})
}

// ──────────────────────────────────────────────────
// Status
// ──────────────────────────────────────────────────

func TestQueue_Status_MidDrain(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		q, _ := newQueue(t)
		defer closeQueue(t, q)

		gate := make(chan struct{})
		for _, name := range []string{"a", "b", "c"} {
			q.Enqueue(func(context.Context) error { <-gate; return nil }, queue.WithName(name))
		}
		synctest.Wait()

		st := q.Status()
		if st.QueueLength != 3 || !st.Processing {
			t.Fatalf("status = %+v, want 3 items processing", st)
		}
		for i, name := range []string{"a", "b", "c"} {
			if st.Items[i].Name != name {
				t.Fatalf("item %d = %q, want %q", i, st.Items[i].Name, name)
			}
		}

		close(gate)
		synctest.Wait()

		if st := q.Status(); st.QueueLength != 0 || st.Processing {
			t.Fatalf("status after drain = %+v, want empty and idle", st)
		}
	})
}

func TestQueue_Status_DoesNotMutate(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		q, _ := newQueue(t)
		defer closeQueue(t, q)
		a := newAttempts()

		q.Enqueue(a.alwaysFail("x"), queue.WithName("x"))
		synctest.Wait()

		st := q.Status()
		st.Items[0].Retries = 99
		if again := q.Status(); again.Items[0].Retries != 1 {
			t.Fatalf("retries = %d after editing snapshot, want 1", again.Items[0].Retries)
		}
		q.Clear()
	})
}

// ──────────────────────────────────────────────────
// Clear
// ──────────────────────────────────────────────────

func TestQueue_Clear_DuringRetryWait(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		q, rec := newQueue(t)
		defer closeQueue(t, q)
		a := newAttempts()

		q.Enqueue(a.alwaysFail("X"), queue.WithName("X"))
		q.Enqueue(a.succeed("Y"), queue.WithName("Y"))
		synctest.Wait()

		if n := q.Clear(); n != 2 {
			t.Fatalf("Clear discarded %d, want 2", n)
		}
		if st := q.Status(); st.QueueLength != 0 || st.Processing {
			t.Fatalf("status after clear = %+v, want empty and idle", st)
		}

		time.Sleep(30 * time.Second)
		synctest.Wait()

		if got := a.count("X"); got != 1 {
			t.Fatalf("X attempts = %d, want 1", got)
		}
		if got := a.count("Y"); got != 0 {
			t.Fatalf("Y attempts = %d, want 0", got)
		}
		if len(rec.drops()) != 0 {
			t.Fatal("Clear must not emit drop notifications")
		}
		rec.mu.Lock()
		cleared := append([]int(nil), rec.cleared...)
		rec.mu.Unlock()
		if len(cleared) != 1 || cleared[0] != 2 {
			t.Fatalf("cleared events = %v, want [2]", cleared)
		}
	})
}

func TestQueue_Clear_InFlightOutcomeIgnored(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		q, rec := newQueue(t)
		defer closeQueue(t, q)
		a := newAttempts()

		gate := make(chan struct{})
		q.Enqueue(func(context.Context) error {
			a.record("A")
			<-gate
			return errBackend
		}, queue.WithName("A"))
		synctest.Wait()

		q.Clear()
		if st := q.Status(); st.Processing {
			t.Fatal("processing still set after Clear")
		}

		q.Enqueue(a.succeed("B"), queue.WithName("B"))
		synctest.Wait()
		if got := a.count("B"); got != 0 {
			t.Fatal("B ran while A was still in flight")
		}

		close(gate)
		synctest.Wait()
		time.Sleep(time.Minute)
		synctest.Wait()

		if got := a.sequence(); !slices.Equal(got, []string{"A", "B"}) {
			t.Fatalf("order = %v, want [A B]", got)
		}
		if len(rec.drops()) != 0 {
			t.Fatal("stale outcome produced a drop")
		}
		if st := q.Status(); st.QueueLength != 0 || st.Processing {
			t.Fatalf("status = %+v, want empty and idle", st)
		}
	})
}

func TestQueue_Clear_EmptyQueue(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		q, _ := newQueue(t)
		defer closeQueue(t, q)

		if n := q.Clear(); n != 0 {
			t.Fatalf("Clear discarded %d, want 0", n)
		}
		a := newAttempts()
		q.Enqueue(a.succeed("after"), queue.WithName("after"))
		synctest.Wait()
		if a.count("after") != 1 {
			t.Fatal("queue did not accept work after Clear")
		}
	})
}

// ──────────────────────────────────────────────────
// Resume
// ──────────────────────────────────────────────────

func TestQueue_Resume_NoopWhenEmpty(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		q, rec := newQueue(t)
		defer closeQueue(t, q)

		if q.Resume() {
			t.Fatal("Resume started a loop on an empty queue")
		}
		rec.mu.Lock()
		defer rec.mu.Unlock()
		if len(rec.resumed) != 0 {
			t.Fatalf("resumed events = %v, want none", rec.resumed)
		}
	})
}

func TestQueue_Resume_NoopWhileProcessing(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		q, _ := newQueue(t)
		defer closeQueue(t, q)
		a := newAttempts()

		q.Enqueue(a.alwaysFail("x"), queue.WithName("x"))
		synctest.Wait()

		for range 5 {
			if q.Resume() {
				t.Fatal("Resume started a second loop")
			}
		}
		synctest.Wait()
		if got := a.count("x"); got != 1 {
			t.Fatalf("attempts = %d, want 1", got)
		}
		q.Clear()
	})
}

// ──────────────────────────────────────────────────
// Close
// ──────────────────────────────────────────────────

func TestQueue_Close_InterruptsWaitAndDiscards(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		q, rec := newQueue(t)
		a := newAttempts()

		q.Enqueue(a.alwaysFail("x"), queue.WithName("x"))
		q.Enqueue(a.succeed("y"), queue.WithName("y"))
		synctest.Wait()

		start := time.Now()
		if err := q.Close(context.Background()); err != nil {
			t.Fatalf("Close: %v", err)
		}
		if waited := time.Since(start); waited != 0 {
			t.Fatalf("Close waited %v, want immediate return", waited)
		}
		if st := q.Status(); st.QueueLength != 0 || st.Processing {
			t.Fatalf("status after close = %+v", st)
		}

		q.Enqueue(a.succeed("late"), queue.WithName("late"))
		synctest.Wait()
		if a.count("late") != 0 {
			t.Fatal("item enqueued after Close was executed")
		}
		if len(rec.drops()) != 0 {
			t.Fatal("Close must not emit drop notifications")
		}
		if err := q.Close(context.Background()); err != nil {
			t.Fatalf("second Close: %v", err)
		}
	})
}

func TestQueue_Close_CancelsTaskContext(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		q, _ := newQueue(t)

		var taskErr error
		q.Enqueue(func(ctx context.Context) error {
			<-ctx.Done()
			taskErr = ctx.Err()
			return taskErr
		})
		synctest.Wait()

		if err := q.Close(context.Background()); err != nil {
			t.Fatalf("Close: %v", err)
		}
		if !errors.Is(taskErr, context.Canceled) {
			t.Fatalf("task ctx err = %v, want context.Canceled", taskErr)
		}
	})
}

func TestQueue_Close_HonoursDeadline(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		q, _ := newQueue(t)

		gate := make(chan struct{})
		q.Enqueue(func(context.Context) error { <-gate; return nil })
		synctest.Wait()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := q.Close(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("Close err = %v, want DeadlineExceeded", err)
		}
		close(gate)
		synctest.Wait()
	})
}
