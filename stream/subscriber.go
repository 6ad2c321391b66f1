package stream

import (
	"slices"
	"sync"
	"sync/atomic"
)

// Subscriber is one listener's view of the broker. Delivery is credit
// based: each delivered event costs one credit, and a subscriber with no
// credits or a full buffer is skipped rather than waited on.
type Subscriber struct {
	id string
	ch chan *Event

	credits atomic.Int64
	skipped atomic.Int64
	filter  atomic.Pointer[func(*Event) bool]

	mu     sync.Mutex // guards topics, closed and sends on ch
	topics map[string]struct{}
	closed bool
}

// NewSubscriber creates a subscriber with a buffer of bufferSize events
// and the given starting credits.
func NewSubscriber(id string, bufferSize int, initialCredits int64) *Subscriber {
	s := &Subscriber{
		id:     id,
		ch:     make(chan *Event, bufferSize),
		topics: make(map[string]struct{}),
	}
	s.credits.Store(initialCredits)
	return s
}

// ID returns the subscriber identifier.
func (s *Subscriber) ID() string { return s.id }

// C returns the event channel. It is closed when the subscriber is removed.
func (s *Subscriber) C() <-chan *Event { return s.ch }

// AddCredits grants n more deliveries.
func (s *Subscriber) AddCredits(n int64) { s.credits.Add(n) }

// Credits returns the remaining deliveries.
func (s *Subscriber) Credits() int64 { return s.credits.Load() }

// Skipped returns how many events were not delivered for lack of credits
// or buffer space.
func (s *Subscriber) Skipped() int64 { return s.skipped.Load() }

// SetFilter installs a predicate; events it rejects are ignored without
// costing credits. A nil fn removes the filter.
func (s *Subscriber) SetFilter(fn func(*Event) bool) {
	if fn == nil {
		s.filter.Store(nil)
		return
	}
	s.filter.Store(&fn)
}

func (s *Subscriber) addTopic(topic string) {
	s.mu.Lock()
	s.topics[topic] = struct{}{}
	s.mu.Unlock()
}

func (s *Subscriber) removeTopic(topic string) {
	s.mu.Lock()
	delete(s.topics, topic)
	s.mu.Unlock()
}

// Topics returns the subscribed topics in sorted order.
func (s *Subscriber) Topics() []string {
	s.mu.Lock()
	out := make([]string, 0, len(s.topics))
	for t := range s.topics {
		out = append(out, t)
	}
	s.mu.Unlock()
	slices.Sort(out)
	return out
}

// send delivers evt without blocking and reports whether it was queued.
func (s *Subscriber) send(evt *Event) bool {
	if fn := s.filter.Load(); fn != nil && !(*fn)(evt) {
		return false
	}

	if s.credits.Add(-1) < 0 {
		s.credits.Add(1)
		s.skipped.Add(1)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.credits.Add(1)
		return false
	}
	select {
	case s.ch <- evt:
		return true
	default:
		s.credits.Add(1)
		s.skipped.Add(1)
		return false
	}
}

// Close closes the event channel. Safe to call more than once.
func (s *Subscriber) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}
