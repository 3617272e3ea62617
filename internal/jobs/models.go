package jobs

import "time"

// Status represents the lifecycle of a job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

var allStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
	StatusCancelled,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := statusSet[s]
	return ok
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Job is one unit of video work. Rows are owned by the scheduler's store and
// mutated only through it.
type Job struct {
	ID           string
	Status       Status
	ConfigJSON   string
	Progress     int
	CurrentStep  string
	ErrorMessage string
	OutputPath   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	StartedAt    time.Time
	CompletedAt  time.Time
}

// Snapshot is a point-in-time copy of job fields handed to status and list
// callers. Readers never observe a torn write because every read goes
// through the store.
type Snapshot struct {
	ID           string
	Status       Status
	Progress     int
	CurrentStep  string
	ErrorMessage string
	OutputPath   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	StartedAt    time.Time
	CompletedAt  time.Time
}

func (j *Job) snapshot() Snapshot {
	return Snapshot{
		ID:           j.ID,
		Status:       j.Status,
		Progress:     j.Progress,
		CurrentStep:  j.CurrentStep,
		ErrorMessage: j.ErrorMessage,
		OutputPath:   j.OutputPath,
		CreatedAt:    j.CreatedAt,
		UpdatedAt:    j.UpdatedAt,
		StartedAt:    j.StartedAt,
		CompletedAt:  j.CompletedAt,
	}
}

// Stats summarizes scheduler state for operators.
type Stats struct {
	Counts            map[Status]int
	AverageCompletion time.Duration
	ActiveWorkers     int
	MaxWorkers        int
	QueueDepth        int
	QueueCapacity     int
}
