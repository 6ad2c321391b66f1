package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/chescoreloaded/SistemaExamenes-sub001/item"
)

// Logging returns middleware that logs every attempt and its outcome.
// Failures are logged at Warn since the queue may still retry them.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, it *item.Item, next Handler) error {
		attempt := it.Retries + 1
		logger.Debug("attempt started",
			slog.String("item_id", it.ID.String()),
			slog.String("item_name", it.Name),
			slog.Int("attempt", attempt),
		)

		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Warn("attempt failed",
				slog.String("item_id", it.ID.String()),
				slog.String("item_name", it.Name),
				slog.Int("attempt", attempt),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
			return err
		}

		logger.Info("attempt succeeded",
			slog.String("item_id", it.ID.String()),
			slog.String("item_name", it.Name),
			slog.Int("attempt", attempt),
			slog.Duration("elapsed", elapsed),
		)
		return nil
	}
}
