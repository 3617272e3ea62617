// Package api exposes the scheduler over HTTP with JSON bodies: submit,
// status, list, cancel, stats, and health.
package api
