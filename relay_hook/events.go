package relayhook

import (
	"context"
	"fmt"

	"github.com/xraph/relay"
	"github.com/xraph/relay/catalog"
)

// Sync queue lifecycle event types. Each constant maps to one ext lifecycle
// hook and is used as the event.Event.Type when sending via Relay.
const (
	EventItemEnqueued   = "syncq.item.enqueued"
	EventItemStarted    = "syncq.item.started"
	EventItemSucceeded  = "syncq.item.succeeded"
	EventItemRetrying   = "syncq.item.retrying"
	EventItemDropped    = "syncq.item.dropped"
	EventQueueCleared   = "syncq.queue.cleared"
	EventQueueResumed   = "syncq.queue.resumed"
	EventNetworkChanged = "syncq.network.changed"
)

const definitionVersion = "2026-01-01"

// AllDefinitions returns webhook definitions for all sync queue lifecycle
// event types. Pass these to relay.RegisterEventType to populate the catalog.
func AllDefinitions() []catalog.WebhookDefinition {
	return []catalog.WebhookDefinition{
		// ── Item events ─────────────────────────────────
		{
			Name:        EventItemEnqueued,
			Description: "Fired when a write is queued for delivery.",
			Group:       "items",
			Version:     definitionVersion,
		},
		{
			Name:        EventItemStarted,
			Description: "Fired when the drain loop begins an attempt.",
			Group:       "items",
			Version:     definitionVersion,
		},
		{
			Name:        EventItemSucceeded,
			Description: "Fired when a write reaches the backend.",
			Group:       "items",
			Version:     definitionVersion,
		},
		{
			Name:        EventItemRetrying,
			Description: "Fired when an attempt fails and the write will be retried.",
			Group:       "items",
			Version:     definitionVersion,
		},
		{
			Name:        EventItemDropped,
			Description: "Fired when a write exhausts its retries and is discarded.",
			Group:       "items",
			Version:     definitionVersion,
		},
		// ── Queue events ────────────────────────────────
		{
			Name:        EventQueueCleared,
			Description: "Fired when pending writes are discarded on request.",
			Group:       "queue",
			Version:     definitionVersion,
		},
		{
			Name:        EventQueueResumed,
			Description: "Fired when draining restarts after connectivity returns.",
			Group:       "queue",
			Version:     definitionVersion,
		},
		// ── Connectivity events ─────────────────────────
		{
			Name:        EventNetworkChanged,
			Description: "Fired when the client goes offline or back online.",
			Group:       "network",
			Version:     definitionVersion,
		},
	}
}

// RegisterAll registers all sync queue webhook event types in the Relay
// catalog. Call this once during application startup before sending events.
func RegisterAll(ctx context.Context, r *relay.Relay) error {
	for _, def := range AllDefinitions() {
		if _, err := r.RegisterEventType(ctx, def); err != nil {
			return fmt.Errorf("register %s: %w", def.Name, err)
		}
	}
	return nil
}
