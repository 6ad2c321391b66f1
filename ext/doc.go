// Package ext defines the hook interfaces the sync queue calls as items
// move through it.
//
// An extension implements [Extension] plus any subset of the hook
// interfaces. The [Registry] checks each registered extension with a type
// assertion and calls only the hooks it implements. Hook errors are logged
// and never reach the queue.
//
//	type failureLog struct{ logger *slog.Logger }
//
//	func (f *failureLog) Name() string { return "failure-log" }
//
//	func (f *failureLog) OnItemDropped(_ context.Context, it *item.Item, err error) error {
//		f.logger.Warn("write dropped", slog.String("item", it.Name), slog.String("error", err.Error()))
//		return nil
//	}
//
// Item hooks: [ItemEnqueued], [ItemStarted], [ItemSucceeded],
// [ItemRetrying] and [ItemDropped]. [ItemDropped] is the failure
// notification and fires exactly once per item that used up its attempts.
//
// Queue hooks: [QueueCleared], [QueueResumed], [NetworkChanged] and
// [Shutdown].
//
// Hooks run on the drain goroutine, so a slow hook delays the next attempt.
package ext
