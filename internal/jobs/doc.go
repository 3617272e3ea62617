// Package jobs owns the job lifecycle: the SQLite-backed registry, the
// status state machine (pending, processing, and the three terminal states),
// and the bounded worker pool that dispatches pending jobs FIFO to the
// pipeline runner.
package jobs
