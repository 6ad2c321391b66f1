package syncq

import "github.com/chescoreloaded/SistemaExamenes-sub001/id"

// ID is the identifier type for queued items and subscribers.
type ID = id.ID

// Prefix identifies the entity type encoded in an ID.
type Prefix = id.Prefix
