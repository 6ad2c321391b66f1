package stream

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Topic names follow a pattern:
//
//	item:<itemID>   events for a single item
//	name:<name>     events for items with a given name
//	items           all item lifecycle events
//	failures        item.dropped only
//	queue           clear and resume
//	network         connectivity changes
//	firehose        everything

const (
	TopicItems    = "items"
	TopicFailures = "failures"
	TopicQueue    = "queue"
	TopicNetwork  = "network"
	TopicFirehose = "firehose"
)

// ItemTopic returns the topic name for a specific item.
func ItemTopic(itemID string) string { return "item:" + itemID }

// NameTopic returns the topic name for items sharing a name.
func NameTopic(name string) string { return "name:" + name }

// TopicRegistry manages subscriber sets per topic.
// It is safe for concurrent use.
type TopicRegistry struct {
	mu     sync.RWMutex
	topics map[string]map[string]*Subscriber // topic → subscriberID → subscriber
}

// NewTopicRegistry creates an empty topic registry.
func NewTopicRegistry() *TopicRegistry {
	return &TopicRegistry{
		topics: make(map[string]map[string]*Subscriber),
	}
}

// Subscribe adds a subscriber to a topic. Creates the topic if it
// doesn't exist.
func (tr *TopicRegistry) Subscribe(topic string, sub *Subscriber) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	subs, ok := tr.topics[topic]
	if !ok {
		subs = make(map[string]*Subscriber)
		tr.topics[topic] = subs
	}
	subs[sub.ID()] = sub
	sub.addTopic(topic)
}

// Unsubscribe removes a subscriber from a topic. Cleans up empty topics.
func (tr *TopicRegistry) Unsubscribe(topic, subscriberID string) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	subs, ok := tr.topics[topic]
	if !ok {
		return
	}
	if sub, exists := subs[subscriberID]; exists {
		sub.removeTopic(topic)
		delete(subs, subscriberID)
	}
	if len(subs) == 0 {
		delete(tr.topics, topic)
	}
}

// UnsubscribeAll removes a subscriber from all topics.
func (tr *TopicRegistry) UnsubscribeAll(subscriberID string) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	for topic, subs := range tr.topics {
		if sub, ok := subs[subscriberID]; ok {
			sub.removeTopic(topic)
			delete(subs, subscriberID)
		}
		if len(subs) == 0 {
			delete(tr.topics, topic)
		}
	}
}

// Broadcast sends an event to all subscribers on the listed topics.
// A subscriber on more than one of them receives the event once.
func (tr *TopicRegistry) Broadcast(topics []string, evt *Event) int {
	tr.mu.RLock()
	seen := make(map[string]*Subscriber)
	for _, topic := range topics {
		for id, sub := range tr.topics[topic] {
			seen[id] = sub
		}
	}
	tr.mu.RUnlock()

	delivered := 0
	for _, sub := range seen {
		if sub.send(evt) {
			delivered++
		}
	}
	return delivered
}

// TopicCount returns the number of active topics.
func (tr *TopicRegistry) TopicCount() int {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return len(tr.topics)
}

// SubscriberCount returns the number of subscribers on a topic.
func (tr *TopicRegistry) SubscriberCount(topic string) int {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return len(tr.topics[topic])
}

// resolveTopics returns all topics an event should be published to
// based on its type and entity topic.
func resolveTopics(evt *Event, name string) []string {
	topics := []string{TopicFirehose}

	switch {
	case evt.Type == EventItemDropped:
		topics = append(topics, TopicItems, TopicFailures)
	case strings.HasPrefix(string(evt.Type), "item."):
		topics = append(topics, TopicItems)
	case strings.HasPrefix(string(evt.Type), "queue."):
		topics = append(topics, TopicQueue)
	case evt.Type == EventNetworkChanged:
		topics = append(topics, TopicNetwork)
	}

	if evt.Topic != "" {
		topics = append(topics, evt.Topic)
	}
	if name != "" {
		topics = append(topics, NameTopic(name))
	}
	return topics
}

// Topics returns every topic the event is published on.
func (e *Event) Topics() []string { return resolveTopics(e, e.Name) }

// Matches reports whether a subscriber of topic receives the event.
func (e *Event) Matches(topic string) bool {
	return slices.Contains(e.Topics(), topic)
}

// ParseTopicEntity extracts the entity type and ID from a topic string.
// For example, "item:sqi_abc123" returns ("item", "sqi_abc123").
// Returns ("", "") for global topics like "items" or "firehose".
func ParseTopicEntity(topic string) (entityType, entityID string) {
	idx := strings.IndexByte(topic, ':')
	if idx < 0 {
		return "", ""
	}
	return topic[:idx], topic[idx+1:]
}

// ValidateTopic checks whether a topic string is valid.
func ValidateTopic(topic string) error {
	switch topic {
	case TopicItems, TopicFailures, TopicQueue, TopicNetwork, TopicFirehose:
		return nil
	}

	entityType, entityID := ParseTopicEntity(topic)
	if entityType == "" || entityID == "" {
		return fmt.Errorf("stream: invalid topic %q", topic)
	}

	switch entityType {
	case "item", "name":
		return nil
	default:
		return fmt.Errorf("stream: unknown topic entity type %q", entityType)
	}
}
