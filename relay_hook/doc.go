// Package relayhook bridges sync queue lifecycle events to Relay for webhook
// delivery. When registered as an extension, it emits typed webhook events
// (syncq.item.dropped, syncq.queue.cleared, etc.) at every lifecycle point,
// so a backend can learn about writes a client gave up on.
//
// Usage:
//
//	r, _ := relay.New(relay.WithStore(store))
//	relayhook.RegisterAll(ctx, r)
//
//	hook := relayhook.New(r, relayhook.WithTenant("school-42"))
//	engine.WithExtension(hook)
//
// To restrict which events are emitted:
//
//	hook := relayhook.New(r,
//	    relayhook.WithEvents(relayhook.EventItemDropped),
//	)
package relayhook
