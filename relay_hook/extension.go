package relayhook

import (
	"context"
	"time"

	"github.com/xraph/relay"
	"github.com/xraph/relay/event"

	"github.com/chescoreloaded/SistemaExamenes-sub001/ext"
	"github.com/chescoreloaded/SistemaExamenes-sub001/item"
)

// Compile-time interface checks.
var (
	_ ext.Extension      = (*Extension)(nil)
	_ ext.ItemEnqueued   = (*Extension)(nil)
	_ ext.ItemStarted    = (*Extension)(nil)
	_ ext.ItemSucceeded  = (*Extension)(nil)
	_ ext.ItemRetrying   = (*Extension)(nil)
	_ ext.ItemDropped    = (*Extension)(nil)
	_ ext.QueueCleared   = (*Extension)(nil)
	_ ext.QueueResumed   = (*Extension)(nil)
	_ ext.NetworkChanged = (*Extension)(nil)
)

// Extension bridges sync queue lifecycle events to Relay for webhook
// delivery. Each lifecycle hook emits a typed event via [relay.Relay.Send].
type Extension struct {
	relay    *relay.Relay
	tenantID string
	enabled  map[string]bool        // nil = all enabled
	payloads map[string]PayloadFunc // custom payload builders
}

// New creates an Extension that emits sync queue lifecycle events
// through the provided Relay instance.
func New(r *relay.Relay, opts ...Option) *Extension {
	h := &Extension{relay: r}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Name implements ext.Extension.
func (h *Extension) Name() string { return "relay-hook" }

// ── Item lifecycle hooks ────────────────────────────

// OnItemEnqueued implements ext.ItemEnqueued.
func (h *Extension) OnItemEnqueued(ctx context.Context, it *item.Item) error {
	return h.send(ctx, EventItemEnqueued, newItemPayload(it))
}

// OnItemStarted implements ext.ItemStarted.
func (h *Extension) OnItemStarted(ctx context.Context, it *item.Item, attempt int) error {
	return h.send(ctx, EventItemStarted, &itemStartedPayload{
		itemPayload: *newItemPayload(it),
		Attempt:     attempt,
	})
}

// OnItemSucceeded implements ext.ItemSucceeded.
func (h *Extension) OnItemSucceeded(ctx context.Context, it *item.Item, elapsed time.Duration) error {
	return h.send(ctx, EventItemSucceeded, &itemSucceededPayload{
		itemPayload: *newItemPayload(it),
		ElapsedMs:   elapsed.Milliseconds(),
	})
}

// OnItemRetrying implements ext.ItemRetrying.
func (h *Extension) OnItemRetrying(ctx context.Context, it *item.Item, nextAttemptAt time.Time, taskErr error) error {
	return h.send(ctx, EventItemRetrying, &itemRetryingPayload{
		itemPayload:   *newItemPayload(it),
		Error:         taskErr.Error(),
		NextAttemptAt: nextAttemptAt.UTC().Format(time.RFC3339),
	})
}

// OnItemDropped implements ext.ItemDropped.
func (h *Extension) OnItemDropped(ctx context.Context, it *item.Item, taskErr error) error {
	return h.send(ctx, EventItemDropped, &itemDroppedPayload{
		itemPayload: *newItemPayload(it),
		Error:       taskErr.Error(),
	})
}

// ── Queue hooks ─────────────────────────────────────

// OnQueueCleared implements ext.QueueCleared.
func (h *Extension) OnQueueCleared(ctx context.Context, discarded int) error {
	return h.send(ctx, EventQueueCleared, &queuePayload{Discarded: discarded})
}

// OnQueueResumed implements ext.QueueResumed.
func (h *Extension) OnQueueResumed(ctx context.Context, pending int) error {
	return h.send(ctx, EventQueueResumed, &queuePayload{Pending: pending})
}

// OnNetworkChanged implements ext.NetworkChanged.
func (h *Extension) OnNetworkChanged(ctx context.Context, online bool) error {
	return h.send(ctx, EventNetworkChanged, &networkPayload{Online: online})
}

// ── Internal helpers ────────────────────────────────

// send emits an event through Relay if the event type is enabled.
func (h *Extension) send(ctx context.Context, eventType string, defaultData any) error {
	if h.enabled != nil && !h.enabled[eventType] {
		return nil
	}

	data := defaultData
	if fn, ok := h.payloads[eventType]; ok {
		custom, err := fn(defaultData)
		if err != nil {
			return err
		}
		data = custom
	}

	return h.relay.Send(ctx, &event.Event{
		Type:     eventType,
		TenantID: h.tenantID,
		Data:     data,
	})
}

// ── Default payload types ───────────────────────────

type itemPayload struct {
	ItemID  string `json:"item_id"`
	Name    string `json:"name"`
	Retries int    `json:"retries"`
	AddedAt string `json:"added_at"`
}

func newItemPayload(it *item.Item) *itemPayload {
	return &itemPayload{
		ItemID:  it.ID.String(),
		Name:    it.Name,
		Retries: it.Retries,
		AddedAt: it.AddedAt.Format(time.RFC3339),
	}
}

type itemStartedPayload struct {
	itemPayload
	Attempt int `json:"attempt"`
}

type itemSucceededPayload struct {
	itemPayload
	ElapsedMs int64 `json:"elapsed_ms"`
}

type itemRetryingPayload struct {
	itemPayload
	Error         string `json:"error"`
	NextAttemptAt string `json:"next_attempt_at"`
}

type itemDroppedPayload struct {
	itemPayload
	Error string `json:"error"`
}

type queuePayload struct {
	Discarded int `json:"discarded,omitempty"`
	Pending   int `json:"pending,omitempty"`
}

type networkPayload struct {
	Online bool `json:"online"`
}
