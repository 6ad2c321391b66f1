package queue

import (
	"log/slog"
	"time"

	syncq "github.com/chescoreloaded/SistemaExamenes-sub001"
	"github.com/chescoreloaded/SistemaExamenes-sub001/backoff"
	"github.com/chescoreloaded/SistemaExamenes-sub001/ext"
	"github.com/chescoreloaded/SistemaExamenes-sub001/middleware"
)

// Option configures a Queue.
type Option func(*Queue)

// WithConfig applies the retry policy from cfg.
func WithConfig(cfg syncq.Config) Option {
	return func(q *Queue) {
		q.maxRetries = cfg.MaxRetries
		q.backoff = backoff.NewConstant(cfg.RetryDelay)
	}
}

// WithMaxRetries sets the number of failed attempts after which an item is
// dropped.
func WithMaxRetries(n int) Option {
	return func(q *Queue) { q.maxRetries = n }
}

// WithRetryDelay sets a constant wait between attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(q *Queue) { q.backoff = backoff.NewConstant(d) }
}

// WithBackoff sets the retry delay strategy.
func WithBackoff(s backoff.Strategy) Option {
	return func(q *Queue) { q.backoff = s }
}

// WithExtensions sets the registry that receives lifecycle events.
func WithExtensions(r *ext.Registry) Option {
	return func(q *Queue) { q.extensions = r }
}

// WithMiddleware appends middleware to the attempt chain.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(q *Queue) { q.mws = append(q.mws, mws...) }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(q *Queue) { q.logger = l }
}

// EnqueueOption configures a single item.
type EnqueueOption func(*enqueueOptions)

type enqueueOptions struct {
	name string
}

// WithName labels the item in logs, metrics and events.
func WithName(name string) EnqueueOption {
	return func(o *enqueueOptions) { o.name = name }
}
