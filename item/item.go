// Package item defines the unit of work held by the sync queue.
package item

import (
	"context"
	"time"

	"github.com/chescoreloaded/SistemaExamenes-sub001/id"
)

// Task is an opaque remote write. It returns nil on success; any error
// counts as one failed attempt. The queue does not interpret the error.
type Task func(ctx context.Context) error

// DefaultName labels items enqueued without a name.
const DefaultName = "task"

// Item is a queued task plus its retry bookkeeping. Retries is mutated only
// by the drain loop.
type Item struct {
	ID         id.ItemID `json:"id"`
	Name       string    `json:"name"`
	Task       Task      `json:"-"`
	Retries    int       `json:"retries"`
	MaxRetries int       `json:"max_retries"`
	LastError  string    `json:"last_error,omitempty"`
	AddedAt    time.Time `json:"added_at"`
}

// New creates an item with a fresh ID and zero retries.
func New(name string, task Task, maxRetries int, now time.Time) *Item {
	if name == "" {
		name = DefaultName
	}
	return &Item{
		ID:         id.NewItemID(),
		Name:       name,
		Task:       task,
		MaxRetries: maxRetries,
		AddedAt:    now.UTC(),
	}
}

// Exhausted reports whether the item has used up its retry budget.
func (it *Item) Exhausted() bool {
	return it.Retries >= it.MaxRetries
}

// Snapshot is the read-only view of an item exposed by queue status.
type Snapshot struct {
	ID      id.ItemID `json:"id"`
	Name    string    `json:"name"`
	Retries int       `json:"retries"`
	AddedAt time.Time `json:"added_at"`
}

// Snapshot copies the observable fields of the item.
func (it *Item) Snapshot() Snapshot {
	return Snapshot{
		ID:      it.ID,
		Name:    it.Name,
		Retries: it.Retries,
		AddedAt: it.AddedAt,
	}
}
