package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chescoreloaded/SistemaExamenes-sub001/ext"
	"github.com/chescoreloaded/SistemaExamenes-sub001/id"
	"github.com/chescoreloaded/SistemaExamenes-sub001/item"
)

// Compile-time interface checks.
var (
	_ ext.Extension      = (*Broker)(nil)
	_ ext.ItemEnqueued   = (*Broker)(nil)
	_ ext.ItemStarted    = (*Broker)(nil)
	_ ext.ItemSucceeded  = (*Broker)(nil)
	_ ext.ItemRetrying   = (*Broker)(nil)
	_ ext.ItemDropped    = (*Broker)(nil)
	_ ext.QueueCleared   = (*Broker)(nil)
	_ ext.QueueResumed   = (*Broker)(nil)
	_ ext.NetworkChanged = (*Broker)(nil)
	_ ext.Shutdown       = (*Broker)(nil)
)

// DefaultBufferSize is the default per-subscriber event buffer.
const DefaultBufferSize = 256

// DefaultCredits is the default initial credits for new subscribers.
const DefaultCredits int64 = 1000

// Broker is the real-time stream broker. It implements the ext.Extension
// interface to receive lifecycle events and fans them out to subscribers
// via topic-based pub/sub. Delivery is best effort and never blocks the
// drain loop.
type Broker struct {
	topics *TopicRegistry
	logger *slog.Logger

	// Subscriber management.
	subscribers sync.Map // subscriberID → *Subscriber

	// Metrics.
	totalPublished atomic.Int64
	totalDropped   atomic.Int64

	// Config.
	bufferSize     int
	defaultCredits int64
}

// BrokerOption configures a Broker.
type BrokerOption func(*Broker)

// WithBufferSize sets the per-subscriber event buffer size.
func WithBufferSize(size int) BrokerOption {
	return func(b *Broker) { b.bufferSize = size }
}

// WithDefaultCredits sets the initial credits for new subscribers.
func WithDefaultCredits(credits int64) BrokerOption {
	return func(b *Broker) { b.defaultCredits = credits }
}

// NewBroker creates a new stream broker.
func NewBroker(logger *slog.Logger, opts ...BrokerOption) *Broker {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Broker{
		topics:         NewTopicRegistry(),
		logger:         logger,
		bufferSize:     DefaultBufferSize,
		defaultCredits: DefaultCredits,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name implements ext.Extension.
func (b *Broker) Name() string { return "stream-broker" }

// Topics returns the topic registry for external use (e.g., the notify server).
func (b *Broker) Topics() *TopicRegistry { return b.topics }

// Subscribe creates a new subscriber on the given topics. Subscribing with
// an ID already in use replaces the previous subscriber.
func (b *Broker) Subscribe(subscriberID string, topics ...string) *Subscriber {
	sub := NewSubscriber(subscriberID, b.bufferSize, b.defaultCredits)
	if prev, loaded := b.subscribers.Swap(subscriberID, sub); loaded {
		b.topics.UnsubscribeAll(subscriberID)
		prev.(*Subscriber).Close() //nolint:errcheck // sync.Map always stores *Subscriber
	}
	for _, topic := range topics {
		b.topics.Subscribe(topic, sub)
	}
	return sub
}

// SubscribeTo adds an existing subscriber to additional topics.
func (b *Broker) SubscribeTo(subscriberID string, topics ...string) {
	val, ok := b.subscribers.Load(subscriberID)
	if !ok {
		return
	}
	sub := val.(*Subscriber) //nolint:errcheck // sync.Map always stores *Subscriber
	for _, topic := range topics {
		b.topics.Subscribe(topic, sub)
	}
}

// Unsubscribe removes a subscriber from specific topics.
func (b *Broker) Unsubscribe(subscriberID string, topics ...string) {
	for _, topic := range topics {
		b.topics.Unsubscribe(topic, subscriberID)
	}
}

// RemoveSubscriber removes a subscriber from all topics and closes it.
func (b *Broker) RemoveSubscriber(subscriberID string) {
	b.topics.UnsubscribeAll(subscriberID)
	if val, ok := b.subscribers.LoadAndDelete(subscriberID); ok {
		val.(*Subscriber).Close() //nolint:errcheck // sync.Map always stores *Subscriber
	}
}

// GetSubscriber returns a subscriber by ID.
func (b *Broker) GetSubscriber(subscriberID string) (*Subscriber, bool) {
	val, ok := b.subscribers.Load(subscriberID)
	if !ok {
		return nil, false
	}
	return val.(*Subscriber), true //nolint:errcheck // sync.Map always stores *Subscriber
}

// Stats returns broker statistics.
func (b *Broker) Stats() BrokerStats {
	count := 0
	b.subscribers.Range(func(_, _ any) bool {
		count++
		return true
	})
	return BrokerStats{
		TopicCount:      b.topics.TopicCount(),
		SubscriberCount: count,
		TotalPublished:  b.totalPublished.Load(),
		TotalDropped:    b.totalDropped.Load(),
	}
}

// BrokerStats contains broker metrics.
type BrokerStats struct {
	TopicCount      int   `json:"topic_count"`
	SubscriberCount int   `json:"subscriber_count"`
	TotalPublished  int64 `json:"total_published"`
	TotalDropped    int64 `json:"total_dropped"`
}

// publish stamps an event and broadcasts it to all matching topics.
// name adds the per-name topic for item events.
func (b *Broker) publish(evt *Event, name string) {
	evt.ID = id.NewEventID().String()
	evt.Timestamp = time.Now().UTC()
	evt.Name = name

	topics := evt.Topics()
	delivered := b.topics.Broadcast(topics, evt)
	b.totalPublished.Add(int64(delivered))
	if delivered == 0 && evt.Type == EventItemDropped {
		b.totalDropped.Add(1)
		b.logger.Debug("failure notification had no receivers",
			slog.String("topic", evt.Topic),
		)
	}
}

// mustMarshal marshals data to JSON, panicking on error (programming error).
func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic("stream: marshal event data: " + err.Error())
	}
	return data
}

func itemData(it *item.Item) ItemEventData {
	return ItemEventData{
		ItemID:  it.ID.String(),
		Name:    it.Name,
		Retries: it.Retries,
	}
}

// ── Item lifecycle hooks ────────────────────────────

func (b *Broker) OnItemEnqueued(_ context.Context, it *item.Item) error {
	b.publish(&Event{
		Type:  EventItemEnqueued,
		Topic: ItemTopic(it.ID.String()),
		Data:  mustMarshal(itemData(it)),
	}, it.Name)
	return nil
}

func (b *Broker) OnItemStarted(_ context.Context, it *item.Item, attempt int) error {
	data := itemData(it)
	data.Attempt = attempt
	b.publish(&Event{
		Type:  EventItemStarted,
		Topic: ItemTopic(it.ID.String()),
		Data:  mustMarshal(data),
	}, it.Name)
	return nil
}

func (b *Broker) OnItemSucceeded(_ context.Context, it *item.Item, elapsed time.Duration) error {
	data := itemData(it)
	data.ElapsedMs = elapsed.Milliseconds()
	b.publish(&Event{
		Type:  EventItemSucceeded,
		Topic: ItemTopic(it.ID.String()),
		Data:  mustMarshal(data),
	}, it.Name)
	return nil
}

func (b *Broker) OnItemRetrying(_ context.Context, it *item.Item, nextAttemptAt time.Time, taskErr error) error {
	data := itemData(it)
	data.Error = taskErr.Error()
	data.NextAttempt = nextAttemptAt.UTC().Format(time.RFC3339)
	b.publish(&Event{
		Type:  EventItemRetrying,
		Topic: ItemTopic(it.ID.String()),
		Data:  mustMarshal(data),
	}, it.Name)
	return nil
}

func (b *Broker) OnItemDropped(_ context.Context, it *item.Item, taskErr error) error {
	b.publish(&Event{
		Type:  EventItemDropped,
		Topic: ItemTopic(it.ID.String()),
		Data: mustMarshal(FailureEventData{
			ItemID:  it.ID.String(),
			Name:    it.Name,
			Retries: it.Retries,
			Error:   taskErr.Error(),
		}),
	}, it.Name)
	return nil
}

// ── Queue hooks ─────────────────────────────────────

func (b *Broker) OnQueueCleared(_ context.Context, discarded int) error {
	b.publish(&Event{
		Type: EventQueueCleared,
		Data: mustMarshal(QueueEventData{Discarded: discarded}),
	}, "")
	return nil
}

func (b *Broker) OnQueueResumed(_ context.Context, pending int) error {
	b.publish(&Event{
		Type: EventQueueResumed,
		Data: mustMarshal(QueueEventData{Pending: pending}),
	}, "")
	return nil
}

func (b *Broker) OnNetworkChanged(_ context.Context, online bool) error {
	b.publish(&Event{
		Type: EventNetworkChanged,
		Data: mustMarshal(NetworkEventData{Online: online}),
	}, "")
	return nil
}

// ── Shutdown ────────────────────────────────────────

func (b *Broker) OnShutdown(_ context.Context) error {
	b.subscribers.Range(func(key, value any) bool {
		sub := value.(*Subscriber) //nolint:errcheck // sync.Map always stores *Subscriber
		b.topics.UnsubscribeAll(sub.ID())
		sub.Close()
		b.subscribers.Delete(key)
		return true
	})
	b.logger.Info("stream broker shut down")
	return nil
}
