package syncq

import (
	"fmt"
	"time"
)

// Config holds configuration for a sync queue.
type Config struct {
	// MaxRetries is the number of failed attempts after which an item is
	// dropped. Each item is attempted at most MaxRetries times.
	MaxRetries int `default:"3" json:"max_retries"`

	// RetryDelay is the fixed wait between a failed attempt and the next
	// attempt of the same item. It must be positive.
	RetryDelay time.Duration `default:"5s" json:"retry_delay"`

	// AttemptTimeout bounds a single task attempt. Zero disables the bound,
	// in which case a task that never returns stalls the queue.
	AttemptTimeout time.Duration `json:"attempt_timeout"`

	// ProbeInterval is how often the connectivity monitor runs its probe,
	// when one is configured.
	ProbeInterval time.Duration `default:"30s" json:"probe_interval"`
}

// DefaultConfig returns a Config with the stock retry policy:
// three attempts, five seconds apart, no attempt timeout.
func DefaultConfig() Config {
	return Config{
		MaxRetries:    3,
		RetryDelay:    5 * time.Second,
		ProbeInterval: 30 * time.Second,
	}
}

// Validate reports whether the configuration is usable.
func (c Config) Validate() error {
	if c.MaxRetries < 1 {
		return fmt.Errorf("%w: max retries must be at least 1, got %d", ErrInvalidConfig, c.MaxRetries)
	}
	if c.RetryDelay <= 0 {
		return fmt.Errorf("%w: retry delay must be positive, got %v", ErrInvalidConfig, c.RetryDelay)
	}
	if c.AttemptTimeout < 0 {
		return fmt.Errorf("%w: negative attempt timeout %v", ErrInvalidConfig, c.AttemptTimeout)
	}
	return nil
}
