package network

import (
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// Option configures a Monitor.
type Option func(*Monitor)

// WithProbe sets the function used to check connectivity.
func WithProbe(p Probe) Option {
	return func(m *Monitor) { m.probe = p }
}

// WithProbeInterval sets how often Run invokes the probe.
func WithProbeInterval(d time.Duration) Option {
	return func(m *Monitor) { m.interval = d }
}

// WithInitialState sets the state reported before the first signal.
// Monitors start online.
func WithInitialState(online bool) Option {
	return func(m *Monitor) { m.online = online }
}

// WithCheckLimit caps how often Check may run the probe on demand.
// The default allows one check per second with a burst of three.
func WithCheckLimit(limit rate.Limit, burst int) Option {
	return func(m *Monitor) { m.limiter = rate.NewLimiter(limit, burst) }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) { m.logger = l }
}
