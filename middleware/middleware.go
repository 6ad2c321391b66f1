// Package middleware wraps each task attempt with cross-cutting logic:
// panic recovery, logging, attempt deadlines, tracing and metrics.
package middleware

import (
	"context"

	"github.com/chescoreloaded/SistemaExamenes-sub001/item"
)

// Handler runs one attempt of a task.
type Handler func(ctx context.Context) error

// Middleware wraps a Handler. It receives the item being attempted and the
// next handler; it must call next unless it short-circuits with an error.
type Middleware func(ctx context.Context, it *item.Item, next Handler) error

// Chain composes middleware into one. The first middleware in the list is
// the outermost wrapper:
//
//	Chain(recover, logging) runs recover → logging → handler
func Chain(mws ...Middleware) Middleware {
	return func(ctx context.Context, it *item.Item, next Handler) error {
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw, inner := mws[i], h
			h = func(ctx context.Context) error {
				return mw(ctx, it, inner)
			}
		}
		return h(ctx)
	}
}
