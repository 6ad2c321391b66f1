package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	syncq "github.com/chescoreloaded/SistemaExamenes-sub001"
	"github.com/chescoreloaded/SistemaExamenes-sub001/backoff"
	"github.com/chescoreloaded/SistemaExamenes-sub001/ext"
	"github.com/chescoreloaded/SistemaExamenes-sub001/id"
	"github.com/chescoreloaded/SistemaExamenes-sub001/item"
	"github.com/chescoreloaded/SistemaExamenes-sub001/middleware"
)

// Status is a read-only snapshot of the queue.
type Status struct {
	QueueLength int             `json:"queue_length"`
	Processing  bool            `json:"processing"`
	Items       []item.Snapshot `json:"items"`
}

// Queue is the sync retry queue. Create one per application with New and
// share it; the zero value is not usable.
type Queue struct {
	mu         sync.Mutex
	items      []*item.Item
	processing bool
	closed     bool

	// gen is bumped by Clear and Close. A drain loop started under an older
	// generation stops touching state as soon as it notices.
	gen uint64
	// wake is closed together with a generation bump to interrupt retry
	// waits of the stale loop.
	wake chan struct{}
	// exec holds one token while a task runs, so a loop started after Clear
	// cannot overlap a stale loop's in-flight task.
	exec chan struct{}

	// notes are accepted items whose ItemEnqueued hook has not run yet.
	// unannounced maps each of them to a channel closed once it has.
	notes       []*item.Item
	unannounced map[*item.Item]chan struct{}
	notifying   bool

	maxRetries int
	backoff    backoff.Strategy
	extensions *ext.Registry
	mws        []middleware.Middleware
	chain      middleware.Middleware
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a queue. Defaults: three attempts, constant five second
// delay, no middleware, slog.Default().
func New(opts ...Option) (*Queue, error) {
	cfg := syncq.DefaultConfig()
	q := &Queue{
		wake:        make(chan struct{}),
		exec:        make(chan struct{}, 1),
		unannounced: make(map[*item.Item]chan struct{}),
		maxRetries:  cfg.MaxRetries,
		backoff:     backoff.NewConstant(cfg.RetryDelay),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(q)
	}

	if q.maxRetries < 1 {
		return nil, fmt.Errorf("%w: max retries must be at least 1, got %d", syncq.ErrInvalidConfig, q.maxRetries)
	}
	if q.backoff == nil {
		return nil, fmt.Errorf("%w: nil backoff strategy", syncq.ErrInvalidConfig)
	}
	if q.extensions == nil {
		q.extensions = ext.NewRegistry(q.logger)
	}
	q.chain = middleware.Chain(q.mws...)
	q.ctx, q.cancel = context.WithCancel(context.Background())

	return q, nil
}

// MaxRetries returns the configured attempt limit.
func (q *Queue) MaxRetries() int { return q.maxRetries }

// Enqueue appends task to the tail of the queue and returns its ID. It
// starts a drain loop in the background if none is running and never waits
// on extension hooks. A nil task is accepted and fails every attempt with
// ErrNilTask. After Close the item is discarded.
func (q *Queue) Enqueue(task item.Task, opts ...EnqueueOption) id.ItemID {
	var o enqueueOptions
	for _, opt := range opts {
		opt(&o)
	}
	if task == nil {
		task = func(context.Context) error { return syncq.ErrNilTask }
	}

	it := item.New(o.name, task, q.maxRetries, time.Now())

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("enqueue after close, item discarded",
			slog.String("item_id", it.ID.String()),
			slog.String("item_name", it.Name),
		)
		return it.ID
	}
	q.items = append(q.items, it)
	q.announceLocked(it)
	q.startLocked()

	return it.ID
}

// announceLocked schedules the ItemEnqueued hook for it on the notifier
// goroutine, starting one if needed.
func (q *Queue) announceLocked(it *item.Item) {
	q.unannounced[it] = make(chan struct{})
	q.notes = append(q.notes, it)
	if q.notifying {
		return
	}
	q.notifying = true
	q.wg.Add(1)
	go q.notify()
}

// notify runs ItemEnqueued hooks in enqueue order until no notes remain.
func (q *Queue) notify() {
	defer q.wg.Done()

	for {
		q.mu.Lock()
		if len(q.notes) == 0 {
			q.notifying = false
			q.mu.Unlock()
			return
		}
		it := q.notes[0]
		q.notes[0] = nil
		q.notes = q.notes[1:]
		q.mu.Unlock()

		q.extensions.EmitItemEnqueued(q.ctx, it)

		q.mu.Lock()
		close(q.unannounced[it])
		delete(q.unannounced, it)
		q.mu.Unlock()
	}
}

// Resume starts a drain loop over pending items, as done when connectivity
// returns. It reports whether a new loop was started; it is a no-op while
// a loop is already running or the queue is empty.
func (q *Queue) Resume() bool {
	q.mu.Lock()
	pending := len(q.items)
	started := q.startLocked()
	q.mu.Unlock()

	if started {
		q.logger.Info("sync queue resumed", slog.Int("pending", pending))
		q.extensions.EmitQueueResumed(q.ctx, pending)
	}
	return started
}

// Clear discards all pending items and resets the processing flag at once.
// Retry waits are interrupted. A task already running is not cancelled,
// but its outcome is ignored. No drop notifications are emitted.
func (q *Queue) Clear() int {
	q.mu.Lock()
	discarded := q.resetLocked()
	q.mu.Unlock()

	q.logger.Info("sync queue cleared", slog.Int("discarded", discarded))
	q.extensions.EmitQueueCleared(q.ctx, discarded)
	return discarded
}

// Status returns a snapshot of the queue without mutating it.
func (q *Queue) Status() Status {
	q.mu.Lock()
	defer q.mu.Unlock()

	snaps := make([]item.Snapshot, len(q.items))
	for i, it := range q.items {
		snaps[i] = it.Snapshot()
	}
	return Status{
		QueueLength: len(q.items),
		Processing:  q.processing,
		Items:       snaps,
	}
}

// Close stops the queue. Pending items are discarded, retry waits are
// interrupted and the context handed to a running task is cancelled.
// Close waits for the drain loop to return or ctx to expire.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	discarded := q.resetLocked()
	q.mu.Unlock()

	q.cancel()
	if discarded > 0 {
		q.logger.Warn("sync queue closed with pending items", slog.Int("discarded", discarded))
	}

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("close sync queue: %w", ctx.Err())
	}
}

// resetLocked empties the queue and moves to a new generation.
func (q *Queue) resetLocked() int {
	n := len(q.items)
	clear(q.items)
	q.items = nil
	q.processing = false
	q.gen++
	close(q.wake)
	q.wake = make(chan struct{})
	return n
}

// startLocked launches a drain loop unless one is active.
func (q *Queue) startLocked() bool {
	if q.processing || q.closed || len(q.items) == 0 {
		return false
	}
	q.processing = true
	q.wg.Add(1)
	go q.drain(q.gen, q.wake)
	return true
}

// head returns the head item if gen is still current, plus a channel that
// is closed once its ItemEnqueued hook has run (nil if it already has).
// When the queue is empty it ends the loop by clearing the processing flag.
func (q *Queue) head(gen uint64) (*item.Item, <-chan struct{}, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.gen != gen {
		return nil, nil, false
	}
	if len(q.items) == 0 {
		q.processing = false
		return nil, nil, false
	}
	it := q.items[0]
	return it, q.unannounced[it], true
}

// drain processes the head item until the queue is empty or gen goes stale.
func (q *Queue) drain(gen uint64, wake <-chan struct{}) {
	defer q.wg.Done()

	for {
		select {
		case q.exec <- struct{}{}:
		case <-wake:
			return
		}

		it, announced, ok := q.head(gen)
		if !ok {
			<-q.exec
			return
		}
		if announced != nil {
			select {
			case <-announced:
			case <-wake:
				<-q.exec
				return
			}
		}

		q.extensions.EmitItemStarted(q.ctx, it, it.Retries+1)
		start := time.Now()
		err := q.chain(q.ctx, it, func(ctx context.Context) error {
			return it.Task(ctx)
		})
		elapsed := time.Since(start)
		<-q.exec

		delay, retry, ok := q.settle(gen, it, err)
		if !ok {
			return
		}
		switch {
		case err == nil:
			q.extensions.EmitItemSucceeded(q.ctx, it, elapsed)
		case !retry:
			dropErr := fmt.Errorf("%w after %d attempts: %w", syncq.ErrMaxRetriesExceeded, it.Retries, err)
			q.logger.Warn("item dropped after exhausting retries",
				slog.String("item_id", it.ID.String()),
				slog.String("item_name", it.Name),
				slog.Int("retries", it.Retries),
				slog.String("error", err.Error()),
			)
			q.extensions.EmitItemDropped(q.ctx, it, dropErr)
		default:
			q.extensions.EmitItemRetrying(q.ctx, it, time.Now().Add(delay), err)
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-wake:
				timer.Stop()
				return
			}
		}
	}
}

// settle records the outcome of an attempt on the head item. It returns the
// retry delay and whether the item stays at the head. ok is false when the
// queue moved to a new generation during the attempt.
func (q *Queue) settle(gen uint64, it *item.Item, err error) (delay time.Duration, retry, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.gen != gen {
		return 0, false, false
	}
	if err == nil {
		q.popLocked()
		return 0, false, true
	}

	it.Retries++
	it.LastError = err.Error()
	if it.Exhausted() {
		q.popLocked()
		return 0, false, true
	}
	return q.backoff.Delay(it.Retries), true, true
}

func (q *Queue) popLocked() {
	q.items[0] = nil
	q.items = q.items[1:]
}
