package network

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	syncq "github.com/chescoreloaded/SistemaExamenes-sub001"
)

// Probe checks whether the backend is reachable. A nil error means online.
type Probe func(ctx context.Context) error

// Monitor holds the current connectivity state.
type Monitor struct {
	mu       sync.Mutex
	online   bool
	restore  map[uint64]func()
	change   map[uint64]func(online bool)
	nextID   uint64
	probe    Probe
	interval time.Duration
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// NewMonitor creates a monitor. Without a probe it only reflects SetOnline.
func NewMonitor(opts ...Option) *Monitor {
	m := &Monitor{
		online:   true,
		restore:  make(map[uint64]func()),
		change:   make(map[uint64]func(bool)),
		interval: syncq.DefaultConfig().ProbeInterval,
		limiter:  rate.NewLimiter(rate.Every(time.Second), 3),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// HasProbe reports whether active probing is configured.
func (m *Monitor) HasProbe() bool { return m.probe != nil }

// Online reports the last known state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// SetOnline records a connectivity signal and reports whether the state
// changed. Listeners run synchronously on the caller's goroutine.
func (m *Monitor) SetOnline(online bool) bool {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return false
	}
	m.online = online
	changeFns := make([]func(bool), 0, len(m.change))
	for _, fn := range m.change {
		changeFns = append(changeFns, fn)
	}
	var restoreFns []func()
	if online {
		restoreFns = make([]func(), 0, len(m.restore))
		for _, fn := range m.restore {
			restoreFns = append(restoreFns, fn)
		}
	}
	m.mu.Unlock()

	if online {
		m.logger.Info("connectivity restored")
	} else {
		m.logger.Warn("connectivity lost")
	}

	for _, fn := range changeFns {
		fn(online)
	}
	for _, fn := range restoreFns {
		fn()
	}
	return true
}

// OnRestore registers fn to run on every offline to online transition.
// The returned function removes it.
func (m *Monitor) OnRestore(fn func()) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	key := m.nextID
	m.restore[key] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.restore, key)
	}
}

// OnChange registers fn to run on every state change.
// The returned function removes it.
func (m *Monitor) OnChange(fn func(online bool)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	key := m.nextID
	m.change[key] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.change, key)
	}
}

// Check runs the probe now and records the result. On-demand checks are
// rate limited; a throttled call returns ErrProbeThrottled and leaves the
// state untouched.
func (m *Monitor) Check(ctx context.Context) (bool, error) {
	if m.probe == nil {
		return m.Online(), syncq.ErrNoProbe
	}
	if !m.limiter.Allow() {
		return m.Online(), syncq.ErrProbeThrottled
	}
	return m.runProbe(ctx), nil
}

// Run polls the probe every interval until ctx is cancelled. It returns
// ErrNoProbe immediately when no probe is configured.
func (m *Monitor) Run(ctx context.Context) error {
	if m.probe == nil {
		return syncq.ErrNoProbe
	}
	if m.interval <= 0 {
		return fmt.Errorf("%w: probe interval must be positive, got %v", syncq.ErrInvalidConfig, m.interval)
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.runProbe(ctx)
		}
	}
}

func (m *Monitor) runProbe(ctx context.Context) bool {
	err := m.probe(ctx)
	if err != nil && ctx.Err() != nil {
		// Shutting down; a cancelled probe says nothing about the backend.
		return m.Online()
	}
	if err != nil {
		m.logger.Debug("connectivity probe failed", slog.String("error", err.Error()))
	}
	online := err == nil
	m.SetOnline(online)
	return online
}
