// Package queue implements the sync retry queue: an in-memory FIFO of
// remote writes drained by a single loop.
//
// # Semantics
//
//   - Enqueue never blocks and never fails. It returns the item ID and
//     starts a drain loop if none is running.
//   - Items run strictly in insertion order, one at a time. A failing head
//     item blocks the items behind it until it succeeds or is dropped.
//   - A failed attempt increments the item's retry count. Below the limit
//     the loop waits the backoff delay and retries the same item. At the
//     limit the item is removed and ItemDropped is emitted exactly once.
//   - Resume restarts draining after connectivity returns. It is a no-op
//     while a loop is active.
//   - Clear discards everything immediately without drop notifications.
//
// Nothing is persisted. Pending items are lost when the process exits.
package queue
