package jobs

import "errors"

var (
	// ErrNotFound marks lookups for unknown job ids.
	ErrNotFound = errors.New("job not found")
	// ErrInvalidTransition marks state changes out of a terminal status.
	ErrInvalidTransition = errors.New("invalid job state transition")
	// ErrCapacityExceeded marks submissions rejected by backpressure.
	ErrCapacityExceeded = errors.New("job queue capacity exceeded")
	// ErrStopped marks operations against a scheduler that has shut down.
	ErrStopped = errors.New("scheduler stopped")
)
