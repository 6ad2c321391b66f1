package observability

import (
	"context"
	"time"

	gu "github.com/xraph/go-utils/metrics"

	"github.com/chescoreloaded/SistemaExamenes-sub001/ext"
	"github.com/chescoreloaded/SistemaExamenes-sub001/item"
)

// Compile-time interface checks.
var (
	_ ext.Extension      = (*MetricsExtension)(nil)
	_ ext.ItemEnqueued   = (*MetricsExtension)(nil)
	_ ext.ItemSucceeded  = (*MetricsExtension)(nil)
	_ ext.ItemRetrying   = (*MetricsExtension)(nil)
	_ ext.ItemDropped    = (*MetricsExtension)(nil)
	_ ext.QueueCleared   = (*MetricsExtension)(nil)
	_ ext.QueueResumed   = (*MetricsExtension)(nil)
	_ ext.NetworkChanged = (*MetricsExtension)(nil)
)

// MetricsExtension records queue lifecycle metrics via go-utils MetricFactory.
// Register it as an extension to track enqueue rates, success and drop
// counts, retries, clears, resumes and connectivity flaps.
type MetricsExtension struct {
	ItemEnqueued    gu.Counter
	ItemSucceeded   gu.Counter
	ItemRetried     gu.Counter
	ItemDropped     gu.Counter
	QueueCleared    gu.Counter
	QueueResumed    gu.Counter
	NetworkLost     gu.Counter
	NetworkRestored gu.Counter
}

// NewMetricsExtension creates a MetricsExtension using a default metrics collector.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithFactory(gu.NewMetricsCollector("syncq/observability"))
}

// NewMetricsExtensionWithFactory creates a MetricsExtension with the provided MetricFactory.
// Use fapp.Metrics() in forge extensions, or gu.NewMetricsCollector for testing.
func NewMetricsExtensionWithFactory(factory gu.MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		ItemEnqueued:    factory.Counter("syncq.item.enqueued"),
		ItemSucceeded:   factory.Counter("syncq.item.succeeded"),
		ItemRetried:     factory.Counter("syncq.item.retried"),
		ItemDropped:     factory.Counter("syncq.item.dropped"),
		QueueCleared:    factory.Counter("syncq.queue.cleared"),
		QueueResumed:    factory.Counter("syncq.queue.resumed"),
		NetworkLost:     factory.Counter("syncq.network.lost"),
		NetworkRestored: factory.Counter("syncq.network.restored"),
	}
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// ── Item lifecycle hooks ────────────────────────────

// OnItemEnqueued implements ext.ItemEnqueued.
func (m *MetricsExtension) OnItemEnqueued(_ context.Context, _ *item.Item) error {
	m.ItemEnqueued.Inc()
	return nil
}

// OnItemSucceeded implements ext.ItemSucceeded.
func (m *MetricsExtension) OnItemSucceeded(_ context.Context, _ *item.Item, _ time.Duration) error {
	m.ItemSucceeded.Inc()
	return nil
}

// OnItemRetrying implements ext.ItemRetrying.
func (m *MetricsExtension) OnItemRetrying(_ context.Context, _ *item.Item, _ time.Time, _ error) error {
	m.ItemRetried.Inc()
	return nil
}

// OnItemDropped implements ext.ItemDropped.
func (m *MetricsExtension) OnItemDropped(_ context.Context, _ *item.Item, _ error) error {
	m.ItemDropped.Inc()
	return nil
}

// ── Queue hooks ─────────────────────────────────────

// OnQueueCleared implements ext.QueueCleared.
func (m *MetricsExtension) OnQueueCleared(_ context.Context, _ int) error {
	m.QueueCleared.Inc()
	return nil
}

// OnQueueResumed implements ext.QueueResumed.
func (m *MetricsExtension) OnQueueResumed(_ context.Context, _ int) error {
	m.QueueResumed.Inc()
	return nil
}

// OnNetworkChanged implements ext.NetworkChanged.
func (m *MetricsExtension) OnNetworkChanged(_ context.Context, online bool) error {
	if online {
		m.NetworkRestored.Inc()
	} else {
		m.NetworkLost.Inc()
	}
	return nil
}
