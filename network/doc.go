// Package network tracks connectivity to the remote backend and notifies
// listeners when it is restored.
//
// State changes come from two sources: the host environment calling
// SetOnline, and an optional Probe polled by Run. Restore listeners fire
// exactly once per offline to online transition; the engine uses one to
// resume the sync queue.
package network
