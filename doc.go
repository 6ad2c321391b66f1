// Package syncq provides an in-process retry queue for remote write
// operations that may fail while the network is unavailable.
//
// Writes are enqueued as ordinary Go functions. A single drain loop runs
// them strictly in insertion order, retries a failed head item after a fixed
// delay, and drops it with a notification once its retry budget is spent.
// When connectivity returns, the queue resumes on its own.
//
// # Quick Start
//
//	eng, err := engine.New(
//	    engine.WithLogger(logger),
//	    engine.WithStreamBroker(),
//	)
//	_ = eng.Start(ctx)
//
//	eng.Enqueue(func(ctx context.Context) error {
//	    return client.SaveAnswer(ctx, answer)
//	}, queue.WithName("save-answer"))
//
// # Architecture
//
// The queue package holds the drain loop. Lifecycle events flow through the
// ext registry to extensions (stream broker, metrics, relay webhooks, audit).
// The network package tracks connectivity and triggers Resume on recovery.
// The engine package wires all of them together.
//
// The queue is never persisted. Items still pending when the process exits
// are lost.
package syncq
