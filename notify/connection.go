package notify

import (
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Connection is one authenticated listener. RPC calls get a throwaway
// Connection; WebSocket sessions keep theirs until the socket closes.
type Connection struct {
	ID          string
	Identity    *Identity
	Codec       Codec
	ConnectedAt time.Time

	lastSeen atomic.Int64 // unix nanos

	mu     sync.Mutex
	topics []string // sorted
}

// NewConnection creates a session for an authenticated identity.
func NewConnection(connID string, identity *Identity, codec Codec) *Connection {
	c := &Connection{
		ID:          connID,
		Identity:    identity,
		Codec:       codec,
		ConnectedAt: time.Now().UTC(),
	}
	c.lastSeen.Store(c.ConnectedAt.UnixNano())
	return c
}

// Touch marks the session active now.
func (c *Connection) Touch() { c.lastSeen.Store(time.Now().UnixNano()) }

// LastSeen returns when the last inbound frame arrived.
func (c *Connection) LastSeen() time.Time {
	return time.Unix(0, c.lastSeen.Load()).UTC()
}

// AddSubscription records topic. Duplicates are ignored.
func (c *Connection) AddSubscription(topic string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i, found := slices.BinarySearch(c.topics, topic); !found {
		c.topics = slices.Insert(c.topics, i, topic)
	}
}

// RemoveSubscription forgets topic.
func (c *Connection) RemoveSubscription(topic string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i, found := slices.BinarySearch(c.topics, topic); found {
		c.topics = slices.Delete(c.topics, i, i+1)
	}
}

// Subscriptions returns the session's topics in sorted order.
func (c *Connection) Subscriptions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.topics)
}

// ListenerInfo is a point-in-time view of a session, reported by stats.
type ListenerInfo struct {
	ID          string    `json:"id"`
	Subject     string    `json:"subject"`
	Codec       string    `json:"codec"`
	Topics      []string  `json:"topics"`
	ConnectedAt time.Time `json:"connected_at"`
	LastSeen    time.Time `json:"last_seen"`
}

// Info snapshots the session.
func (c *Connection) Info() ListenerInfo {
	info := ListenerInfo{
		ID:          c.ID,
		Topics:      c.Subscriptions(),
		ConnectedAt: c.ConnectedAt,
		LastSeen:    c.LastSeen(),
	}
	if c.Identity != nil {
		info.Subject = c.Identity.Subject
	}
	if c.Codec != nil {
		info.Codec = c.Codec.Name()
	}
	return info
}

// ConnectionManager tracks live WebSocket sessions.
type ConnectionManager struct {
	mu    sync.RWMutex
	conns map[string]*Connection
}

// NewConnectionManager creates an empty manager.
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{conns: make(map[string]*Connection)}
}

// Add tracks conn, replacing any session with the same ID.
func (cm *ConnectionManager) Add(conn *Connection) {
	cm.mu.Lock()
	cm.conns[conn.ID] = conn
	cm.mu.Unlock()
}

// Remove stops tracking connID.
func (cm *ConnectionManager) Remove(connID string) {
	cm.mu.Lock()
	delete(cm.conns, connID)
	cm.mu.Unlock()
}

// Get looks up a session.
func (cm *ConnectionManager) Get(connID string) (*Connection, bool) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	c, ok := cm.conns[connID]
	return c, ok
}

// Count returns the number of live sessions.
func (cm *ConnectionManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.conns)
}

// List snapshots every session, ordered by connection time.
func (cm *ConnectionManager) List() []ListenerInfo {
	cm.mu.RLock()
	out := make([]ListenerInfo, 0, len(cm.conns))
	for _, c := range cm.conns {
		out = append(out, c.Info())
	}
	cm.mu.RUnlock()

	slices.SortFunc(out, func(a, b ListenerInfo) int {
		if n := a.ConnectedAt.Compare(b.ConnectedAt); n != 0 {
			return n
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

