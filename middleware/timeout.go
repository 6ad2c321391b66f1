package middleware

import (
	"context"
	"time"

	"github.com/chescoreloaded/SistemaExamenes-sub001/item"
)

// Timeout returns middleware that bounds each attempt with d. A zero or
// negative d returns a pass-through. The deadline only helps when the task
// honours its context; a task that ignores it still blocks the queue.
func Timeout(d time.Duration) Middleware {
	return func(ctx context.Context, _ *item.Item, next Handler) error {
		if d <= 0 {
			return next(ctx)
		}
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return next(ctx)
	}
}
