// Package backoff computes the wait between a failed attempt and the next
// attempt of the same queued item.
package backoff

import (
	"math"
	"time"
)

// Strategy returns how long to wait before retrying after the n-th failed
// attempt (1-indexed).
type Strategy interface {
	Delay(failures int) time.Duration
}

// Constant waits the same interval after every failure. It is the
// queue's stock policy: no growth, no jitter.
type Constant struct {
	Interval time.Duration
}

// NewConstant creates a constant strategy.
func NewConstant(interval time.Duration) *Constant {
	return &Constant{Interval: interval}
}

// Delay returns the fixed interval.
func (c *Constant) Delay(_ int) time.Duration { return c.Interval }

// Exponential doubles the wait on every failure, capped at Max.
// Useful when a backend rate-limits rather than going offline.
type Exponential struct {
	Initial time.Duration
	Max     time.Duration
}

// NewExponential creates an exponential strategy.
func NewExponential(initial, maxDelay time.Duration) *Exponential {
	return &Exponential{Initial: initial, Max: maxDelay}
}

// Delay returns Initial * 2^(failures-1), capped at Max.
func (e *Exponential) Delay(failures int) time.Duration {
	if failures < 1 {
		failures = 1
	}
	d := time.Duration(float64(e.Initial) * math.Pow(2, float64(failures-1)))
	if e.Max > 0 && d > e.Max {
		return e.Max
	}
	return d
}

// DefaultStrategy returns a constant five second wait.
func DefaultStrategy() Strategy {
	return NewConstant(5 * time.Second)
}
