// Package logging wraps log/slog with the two output formats clipforge uses:
// a human-oriented console format and machine-oriented JSON. It also defines
// the standardized attribute keys (job_id, stage, component) the rest of the
// codebase attaches so log lines stay greppable.
package logging
