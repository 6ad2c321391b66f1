package syncq

import "errors"

var (
	// Configuration errors.
	ErrInvalidConfig = errors.New("syncq: invalid configuration")

	// Queue errors.
	ErrNilTask            = errors.New("syncq: nil task")
	ErrMaxRetriesExceeded = errors.New("syncq: max retries exceeded")

	// Connectivity errors.
	ErrNoProbe        = errors.New("syncq: no connectivity probe configured")
	ErrProbeThrottled = errors.New("syncq: connectivity probe throttled")
	ErrProbeFailed    = errors.New("syncq: connectivity probe failed")

	// Engine errors.
	ErrEngineStopped = errors.New("syncq: engine stopped")
	ErrNoBroker      = errors.New("syncq: stream broker not enabled")
)
