package ext

import (
	"context"
	"time"

	"github.com/chescoreloaded/SistemaExamenes-sub001/item"
)

// Extension is the base interface all extensions implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// ──────────────────────────────────────────────────
// Item lifecycle hooks
// ──────────────────────────────────────────────────

// ItemEnqueued is called after an item is accepted, on a notifier goroutine
// rather than the caller's. Calls follow enqueue order, and each one
// completes before the item's first ItemStarted.
type ItemEnqueued interface {
	OnItemEnqueued(ctx context.Context, it *item.Item) error
}

// ItemStarted is called before each attempt. attempt is 1-indexed.
type ItemStarted interface {
	OnItemStarted(ctx context.Context, it *item.Item, attempt int) error
}

// ItemSucceeded is called after an attempt succeeds and the item is removed.
type ItemSucceeded interface {
	OnItemSucceeded(ctx context.Context, it *item.Item, elapsed time.Duration) error
}

// ItemRetrying is called after a failed attempt when the item stays at the
// head of the queue and will be attempted again at nextAttemptAt.
type ItemRetrying interface {
	OnItemRetrying(ctx context.Context, it *item.Item, nextAttemptAt time.Time, err error) error
}

// ItemDropped is the failure notification: the item exhausted its retries
// and was removed. it.Retries equals it.MaxRetries.
type ItemDropped interface {
	OnItemDropped(ctx context.Context, it *item.Item, err error) error
}

// ──────────────────────────────────────────────────
// Queue lifecycle hooks
// ──────────────────────────────────────────────────

// QueueCleared is called after Clear discards pending items. It is not a
// failure notification.
type QueueCleared interface {
	OnQueueCleared(ctx context.Context, discarded int) error
}

// QueueResumed is called when a connectivity-restored trigger starts a
// drain loop over pending items.
type QueueResumed interface {
	OnQueueResumed(ctx context.Context, pending int) error
}

// NetworkChanged is called on every online/offline transition.
type NetworkChanged interface {
	OnNetworkChanged(ctx context.Context, online bool) error
}

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
