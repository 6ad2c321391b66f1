// Package observability provides metrics extensions for the sync queue.
// The MetricsExtension implements lifecycle hooks to record counters for
// enqueued, succeeded, retried and dropped items, queue clears and resumes,
// and connectivity transitions.
//
// For per-attempt tracing and metrics, see the middleware package:
// middleware.Tracing() and middleware.Metrics().
package observability
