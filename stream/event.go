// Package stream provides a real-time event broker for sync queue lifecycle
// events. It bridges the ext.Extension system to listeners via topic-based
// pub/sub; the failures topic is how the UI learns about dropped writes.
package stream

import (
	"encoding/json"
	"time"
)

// EventType identifies the kind of lifecycle event.
type EventType string

const (
	// Item events.
	EventItemEnqueued  EventType = "item.enqueued"
	EventItemStarted   EventType = "item.started"
	EventItemSucceeded EventType = "item.succeeded"
	EventItemRetrying  EventType = "item.retrying"
	EventItemDropped   EventType = "item.dropped"

	// Queue events.
	EventQueueCleared EventType = "queue.cleared"
	EventQueueResumed EventType = "queue.resumed"

	// Connectivity events.
	EventNetworkChanged EventType = "network.changed"
)

// Event is the envelope sent to subscribers on a topic channel.
type Event struct {
	// ID uniquely identifies the event.
	ID string `json:"id"`

	// Type identifies the lifecycle event.
	Type EventType `json:"type"`

	// Timestamp is when the event was emitted.
	Timestamp time.Time `json:"ts"`

	// Topic is the entity channel this event was published on.
	Topic string `json:"topic"`

	// Name is the item name for item events.
	Name string `json:"name,omitempty"`

	// Data is the event-specific payload.
	Data json.RawMessage `json:"data"`
}

// ItemEventData is the payload for item lifecycle events.
type ItemEventData struct {
	ItemID      string `json:"item_id"`
	Name        string `json:"name"`
	Retries     int    `json:"retries"`
	Attempt     int    `json:"attempt,omitempty"`
	ElapsedMs   int64  `json:"elapsed_ms,omitempty"`
	Error       string `json:"error,omitempty"`
	NextAttempt string `json:"next_attempt_at,omitempty"`
}

// FailureEventData is the payload of item.dropped events: the failure
// notification for a write that exhausted its retries.
type FailureEventData struct {
	ItemID  string `json:"item_id"`
	Name    string `json:"name"`
	Retries int    `json:"retries"`
	Error   string `json:"error"`
}

// QueueEventData is the payload for queue-wide events.
type QueueEventData struct {
	Discarded int `json:"discarded,omitempty"`
	Pending   int `json:"pending,omitempty"`
}

// NetworkEventData is the payload for connectivity events.
type NetworkEventData struct {
	Online bool `json:"online"`
}
