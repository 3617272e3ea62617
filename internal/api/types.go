package api

import (
	"time"

	"clipforge/internal/jobs"
)

// JobResponse is the wire form of a job snapshot.
type JobResponse struct {
	JobID        string     `json:"job_id"`
	Status       string     `json:"status"`
	Progress     int        `json:"progress"`
	CurrentStep  string     `json:"current_step,omitempty"`
	ErrorMessage string     `json:"error,omitempty"`
	OutputPath   string     `json:"output_path,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// SubmitResponse acknowledges an accepted job.
type SubmitResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// ListResponse wraps a page of job snapshots.
type ListResponse struct {
	Jobs  []JobResponse `json:"jobs"`
	Count int           `json:"count"`
}

// ClearResponse reports how many terminal jobs were removed.
type ClearResponse struct {
	Removed int64 `json:"removed"`
}

// StatsResponse summarizes scheduler state.
type StatsResponse struct {
	Counts                   map[string]int `json:"counts"`
	AverageCompletionSeconds float64        `json:"average_completion_seconds"`
	ActiveWorkers            int            `json:"active_workers"`
	MaxWorkers               int            `json:"max_workers"`
	QueueDepth               int            `json:"queue_depth"`
	QueueCapacity            int            `json:"queue_capacity"`
}

// HealthResponse reports daemon liveness.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// ErrorResponse carries a caller-visible failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

func toJobResponse(snap jobs.Snapshot) JobResponse {
	resp := JobResponse{
		JobID:        snap.ID,
		Status:       string(snap.Status),
		Progress:     snap.Progress,
		CurrentStep:  snap.CurrentStep,
		ErrorMessage: snap.ErrorMessage,
		OutputPath:   snap.OutputPath,
		CreatedAt:    snap.CreatedAt,
		UpdatedAt:    snap.UpdatedAt,
	}
	if !snap.StartedAt.IsZero() {
		started := snap.StartedAt
		resp.StartedAt = &started
	}
	if !snap.CompletedAt.IsZero() {
		completed := snap.CompletedAt
		resp.CompletedAt = &completed
	}
	return resp
}
