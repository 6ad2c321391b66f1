package audithook

// Audit event actions. Each constant corresponds to one ext lifecycle hook
// and becomes the Action field of the audit event.
const (
	ActionItemEnqueued   = "item.enqueued"
	ActionItemSucceeded  = "item.succeeded"
	ActionItemRetrying   = "item.retrying"
	ActionItemDropped    = "item.dropped"
	ActionQueueCleared   = "queue.cleared"
	ActionQueueResumed   = "queue.resumed"
	ActionNetworkChanged = "network.changed"
)

// Audit event categories group related actions.
const (
	CategoryItem    = "syncq.item"
	CategoryQueue   = "syncq.queue"
	CategoryNetwork = "syncq.network"
)

// Resource types used as the Resource field in audit events.
const (
	ResourceItem    = "sync_item"
	ResourceQueue   = "sync_queue"
	ResourceNetwork = "connectivity"
)

// AllActions returns every action this extension can emit.
func AllActions() []string {
	return []string{
		ActionItemEnqueued,
		ActionItemSucceeded,
		ActionItemRetrying,
		ActionItemDropped,
		ActionQueueCleared,
		ActionQueueResumed,
		ActionNetworkChanged,
	}
}
