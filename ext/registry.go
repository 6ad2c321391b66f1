package ext

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/chescoreloaded/SistemaExamenes-sub001/item"
)

// entry pairs a hook with the extension name captured at registration.
type entry[H any] struct {
	name string
	hook H
}

// Registry holds registered extensions and dispatches lifecycle events to
// them. Hooks are type-cached at registration time so each emit iterates
// only over the extensions that implement it. Registration may happen while
// the queue is running.
type Registry struct {
	mu         sync.RWMutex
	extensions []Extension
	logger     *slog.Logger

	itemEnqueued   []entry[ItemEnqueued]
	itemStarted    []entry[ItemStarted]
	itemSucceeded  []entry[ItemSucceeded]
	itemRetrying   []entry[ItemRetrying]
	itemDropped    []entry[ItemDropped]
	queueCleared   []entry[QueueCleared]
	queueResumed   []entry[QueueResumed]
	networkChanged []entry[NetworkChanged]
	shutdown       []entry[Shutdown]
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// add appends e to hooks when e implements H.
func add[H any](hooks []entry[H], name string, e Extension) []entry[H] {
	if h, ok := e.(H); ok {
		return append(hooks, entry[H]{name: name, hook: h})
	}
	return hooks
}

// drop removes every hook registered under name.
func drop[H any](hooks []entry[H], name string) []entry[H] {
	return slices.DeleteFunc(hooks, func(en entry[H]) bool { return en.name == name })
}

// Register adds an extension. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.extensions = append(r.extensions, e)
	name := e.Name()

	r.itemEnqueued = add(r.itemEnqueued, name, e)
	r.itemStarted = add(r.itemStarted, name, e)
	r.itemSucceeded = add(r.itemSucceeded, name, e)
	r.itemRetrying = add(r.itemRetrying, name, e)
	r.itemDropped = add(r.itemDropped, name, e)
	r.queueCleared = add(r.queueCleared, name, e)
	r.queueResumed = add(r.queueResumed, name, e)
	r.networkChanged = add(r.networkChanged, name, e)
	r.shutdown = add(r.shutdown, name, e)
}

// Unregister removes every extension registered under name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.extensions = slices.DeleteFunc(r.extensions, func(e Extension) bool { return e.Name() == name })
	r.itemEnqueued = drop(r.itemEnqueued, name)
	r.itemStarted = drop(r.itemStarted, name)
	r.itemSucceeded = drop(r.itemSucceeded, name)
	r.itemRetrying = drop(r.itemRetrying, name)
	r.itemDropped = drop(r.itemDropped, name)
	r.queueCleared = drop(r.queueCleared, name)
	r.queueResumed = drop(r.queueResumed, name)
	r.networkChanged = drop(r.networkChanged, name)
	r.shutdown = drop(r.shutdown, name)
}

// Extensions returns a copy of all registered extensions.
func (r *Registry) Extensions() []Extension {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.extensions)
}

// snapshot copies a hook slice under the read lock so hooks run unlocked
// and may themselves register or unregister extensions.
func snapshot[H any](r *Registry, hooks *[]entry[H]) []entry[H] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(*hooks)
}

// ──────────────────────────────────────────────────
// Emitters
// ──────────────────────────────────────────────────

// EmitItemEnqueued notifies all extensions that implement ItemEnqueued.
func (r *Registry) EmitItemEnqueued(ctx context.Context, it *item.Item) {
	for _, e := range snapshot(r, &r.itemEnqueued) {
		if err := e.hook.OnItemEnqueued(ctx, it); err != nil {
			r.logHookError("OnItemEnqueued", e.name, err)
		}
	}
}

// EmitItemStarted notifies all extensions that implement ItemStarted.
func (r *Registry) EmitItemStarted(ctx context.Context, it *item.Item, attempt int) {
	for _, e := range snapshot(r, &r.itemStarted) {
		if err := e.hook.OnItemStarted(ctx, it, attempt); err != nil {
			r.logHookError("OnItemStarted", e.name, err)
		}
	}
}

// EmitItemSucceeded notifies all extensions that implement ItemSucceeded.
func (r *Registry) EmitItemSucceeded(ctx context.Context, it *item.Item, elapsed time.Duration) {
	for _, e := range snapshot(r, &r.itemSucceeded) {
		if err := e.hook.OnItemSucceeded(ctx, it, elapsed); err != nil {
			r.logHookError("OnItemSucceeded", e.name, err)
		}
	}
}

// EmitItemRetrying notifies all extensions that implement ItemRetrying.
func (r *Registry) EmitItemRetrying(ctx context.Context, it *item.Item, nextAttemptAt time.Time, taskErr error) {
	for _, e := range snapshot(r, &r.itemRetrying) {
		if err := e.hook.OnItemRetrying(ctx, it, nextAttemptAt, taskErr); err != nil {
			r.logHookError("OnItemRetrying", e.name, err)
		}
	}
}

// EmitItemDropped notifies all extensions that implement ItemDropped.
func (r *Registry) EmitItemDropped(ctx context.Context, it *item.Item, taskErr error) {
	for _, e := range snapshot(r, &r.itemDropped) {
		if err := e.hook.OnItemDropped(ctx, it, taskErr); err != nil {
			r.logHookError("OnItemDropped", e.name, err)
		}
	}
}

// EmitQueueCleared notifies all extensions that implement QueueCleared.
func (r *Registry) EmitQueueCleared(ctx context.Context, discarded int) {
	for _, e := range snapshot(r, &r.queueCleared) {
		if err := e.hook.OnQueueCleared(ctx, discarded); err != nil {
			r.logHookError("OnQueueCleared", e.name, err)
		}
	}
}

// EmitQueueResumed notifies all extensions that implement QueueResumed.
func (r *Registry) EmitQueueResumed(ctx context.Context, pending int) {
	for _, e := range snapshot(r, &r.queueResumed) {
		if err := e.hook.OnQueueResumed(ctx, pending); err != nil {
			r.logHookError("OnQueueResumed", e.name, err)
		}
	}
}

// EmitNetworkChanged notifies all extensions that implement NetworkChanged.
func (r *Registry) EmitNetworkChanged(ctx context.Context, online bool) {
	for _, e := range snapshot(r, &r.networkChanged) {
		if err := e.hook.OnNetworkChanged(ctx, online); err != nil {
			r.logHookError("OnNetworkChanged", e.name, err)
		}
	}
}

// EmitShutdown notifies all extensions that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range snapshot(r, &r.shutdown) {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

func (r *Registry) logHookError(hook, extName string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}
