// Package audithook is a sync queue extension that bridges lifecycle events
// to an immutable audit trail backend such as Chronicle.
//
// Every item, queue and connectivity hook emits a structured audit event
// through the [Recorder] interface. The extension assigns severity levels
// (info for normal operations, warning for retries and clears, critical
// for dropped writes) and metadata (item name, retries, elapsed time,
// errors). In an exam client this is the record of answers that never
// reached the server.
//
// # Usage with Chronicle
//
//	audithook.New(audithook.RecorderFunc(func(ctx context.Context, evt *audithook.AuditEvent) error {
//	    return chronicle.Info(ctx, evt.Action, evt.Resource, evt.ResourceID).
//	        Category(evt.Category).
//	        Outcome(evt.Outcome).
//	        Record()
//	}))
//
// # Selective filtering
//
//	audithook.New(recorder,
//	    audithook.WithActions(
//	        audithook.ActionItemDropped,
//	        audithook.ActionQueueCleared,
//	    ),
//	)
package audithook
