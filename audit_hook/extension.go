package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chescoreloaded/SistemaExamenes-sub001/ext"
	"github.com/chescoreloaded/SistemaExamenes-sub001/item"
)

// Compile-time interface checks.
var (
	_ ext.Extension      = (*Extension)(nil)
	_ ext.ItemEnqueued   = (*Extension)(nil)
	_ ext.ItemSucceeded  = (*Extension)(nil)
	_ ext.ItemRetrying   = (*Extension)(nil)
	_ ext.ItemDropped    = (*Extension)(nil)
	_ ext.QueueCleared   = (*Extension)(nil)
	_ ext.QueueResumed   = (*Extension)(nil)
	_ ext.NetworkChanged = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// It matches chronicle.Emitter but is defined locally so that callers
// inject the concrete backend at wiring time.
type Recorder interface {
	// Record persists a fully-formed audit event.
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	// What happened
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Category string `json:"category"`

	// Details
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Severity constants (mirror chronicle/audit).
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Outcome constants (mirror chronicle/audit).
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Extension bridges sync queue lifecycle events to an audit trail backend.
// Each lifecycle hook emits a structured audit event through the [Recorder].
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements ext.Extension.
func (e *Extension) Name() string { return "audit-hook" }

// ── Item lifecycle hooks ────────────────────────────

// OnItemEnqueued implements ext.ItemEnqueued.
func (e *Extension) OnItemEnqueued(ctx context.Context, it *item.Item) error {
	return e.record(ctx, ActionItemEnqueued, SeverityInfo, OutcomeSuccess,
		ResourceItem, it.ID.String(), CategoryItem, nil,
		"item_name", it.Name,
		"added_at", it.AddedAt.Format(time.RFC3339),
	)
}

// OnItemSucceeded implements ext.ItemSucceeded.
func (e *Extension) OnItemSucceeded(ctx context.Context, it *item.Item, elapsed time.Duration) error {
	return e.record(ctx, ActionItemSucceeded, SeverityInfo, OutcomeSuccess,
		ResourceItem, it.ID.String(), CategoryItem, nil,
		"item_name", it.Name,
		"retries", it.Retries,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnItemRetrying implements ext.ItemRetrying.
func (e *Extension) OnItemRetrying(ctx context.Context, it *item.Item, nextAttemptAt time.Time, taskErr error) error {
	return e.record(ctx, ActionItemRetrying, SeverityWarning, OutcomeFailure,
		ResourceItem, it.ID.String(), CategoryItem, taskErr,
		"item_name", it.Name,
		"retries", it.Retries,
		"next_attempt_at", nextAttemptAt.UTC().Format(time.RFC3339),
	)
}

// OnItemDropped implements ext.ItemDropped.
func (e *Extension) OnItemDropped(ctx context.Context, it *item.Item, taskErr error) error {
	return e.record(ctx, ActionItemDropped, SeverityCritical, OutcomeFailure,
		ResourceItem, it.ID.String(), CategoryItem, taskErr,
		"item_name", it.Name,
		"retries", it.Retries,
		"max_retries", it.MaxRetries,
		"added_at", it.AddedAt.Format(time.RFC3339),
	)
}

// ── Queue hooks ─────────────────────────────────────

// OnQueueCleared implements ext.QueueCleared.
func (e *Extension) OnQueueCleared(ctx context.Context, discarded int) error {
	severity := SeverityInfo
	if discarded > 0 {
		severity = SeverityWarning
	}
	return e.record(ctx, ActionQueueCleared, severity, OutcomeSuccess,
		ResourceQueue, "", CategoryQueue, nil,
		"discarded", discarded,
	)
}

// OnQueueResumed implements ext.QueueResumed.
func (e *Extension) OnQueueResumed(ctx context.Context, pending int) error {
	return e.record(ctx, ActionQueueResumed, SeverityInfo, OutcomeSuccess,
		ResourceQueue, "", CategoryQueue, nil,
		"pending", pending,
	)
}

// OnNetworkChanged implements ext.NetworkChanged.
func (e *Extension) OnNetworkChanged(ctx context.Context, online bool) error {
	severity, outcome := SeverityInfo, OutcomeSuccess
	if !online {
		severity, outcome = SeverityWarning, OutcomeFailure
	}
	return e.record(ctx, ActionNetworkChanged, severity, outcome,
		ResourceNetwork, "", CategoryNetwork, nil,
		"online", online,
	)
}

// ── Internal helpers ────────────────────────────────

// record builds and sends an audit event if the action is enabled.
// The kvPairs argument is a list of key-value pairs added to Metadata.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			slog.String("action", action),
			slog.String("resource_id", resourceID),
			slog.String("error", recErr.Error()),
		)
	}
	return nil
}
