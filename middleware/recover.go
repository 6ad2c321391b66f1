package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/chescoreloaded/SistemaExamenes-sub001/item"
)

// Recover returns middleware that turns a panicking task into a failed
// attempt instead of crashing the drain loop.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, it *item.Item, next Handler) (retErr error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("task panicked",
					slog.String("item_id", it.ID.String()),
					slog.String("item_name", it.Name),
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())),
				)
				retErr = fmt.Errorf("panic in task %s: %v", it.Name, r)
			}
		}()
		return next(ctx)
	}
}
