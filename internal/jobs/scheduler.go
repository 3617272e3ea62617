package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"clipforge/internal/config"
	"clipforge/internal/logging"
	"clipforge/internal/services"
)

// Runner executes one job's pipeline. It returns the output path on success.
// Cancellation arrives through ctx; the runner stops at its next checkpoint.
type Runner interface {
	Run(ctx context.Context, job *Job) (string, error)
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Scheduler owns the job registry and a bounded worker pool. Submissions are
// dispatched FIFO; a job is consumed from the queue by exactly one worker.
type Scheduler struct {
	store  *Store
	runner Runner
	logger *slog.Logger

	queue      chan string
	maxWorkers int

	mu      sync.Mutex
	cancels map[string]context.CancelFunc

	active  atomic.Int32
	stopped atomic.Bool
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

// NewScheduler wires the scheduler to its store and pipeline runner. Queue
// capacity and worker count come from configuration.
func NewScheduler(store *Store, runner Runner, cfg *config.Config, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scheduler{
		store:      store,
		runner:     runner,
		logger:     logging.WithComponent(logger, "scheduler"),
		queue:      make(chan string, cfg.Workers.QueueDepth),
		maxWorkers: cfg.Workers.JobWorkers,
		cancels:    make(map[string]context.CancelFunc),
	}
}

// Start launches the worker pool. Workers run until Stop or ctx cancellation.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	for i := 0; i < s.maxWorkers; i++ {
		s.wg.Add(1)
		go s.workerLoop(ctx, i)
	}
	s.logger.Info("scheduler started",
		logging.Int("workers", s.maxWorkers),
		logging.Int("queue_capacity", cap(s.queue)))
}

// Stop halts dispatch and waits for in-flight jobs to reach their next
// checkpoint. Queued pending jobs stay pending; history is transient anyway.
func (s *Scheduler) Stop() {
	if !s.stopped.CompareAndSwap(false, true) {
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// Submit registers a pre-validated config as a pending job and enqueues it.
// The configJSON is stored verbatim so the runner re-parses the exact
// submitted document.
func (s *Scheduler) Submit(ctx context.Context, configJSON string) (string, error) {
	if s.stopped.Load() {
		return "", ErrStopped
	}

	id := uuid.NewString()
	if _, err := s.store.Create(ctx, id, configJSON); err != nil {
		return "", fmt.Errorf("register job: %w", err)
	}

	select {
	case s.queue <- id:
	default:
		// Backpressure: undo the registration so a rejected submit leaves
		// no trace.
		if _, err := s.store.execWithRetry(ctx, `DELETE FROM jobs WHERE id = ?`, id); err != nil {
			s.logger.Warn("failed to remove rejected job", logging.String(logging.FieldJobID, id), logging.Error(err))
		}
		return "", ErrCapacityExceeded
	}

	s.logger.Info("job accepted",
		logging.String(logging.FieldJobID, id),
		logging.Int("queued", len(s.queue)))
	return id, nil
}

// Status returns a point-in-time snapshot of the job.
func (s *Scheduler) Status(ctx context.Context, id string) (Snapshot, error) {
	return s.store.Snapshot(ctx, id)
}

// List returns snapshots most-recent-first. limit is clamped; zero means the
// default page size. filter may be empty or a valid status.
func (s *Scheduler) List(ctx context.Context, filter Status, limit int) ([]Snapshot, error) {
	if filter != "" && !filter.Valid() {
		return nil, services.Wrap(services.ErrValidation, "", "list jobs",
			fmt.Sprintf("unknown status filter %q", filter), nil)
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.store.List(ctx, filter, limit)
}

// Cancel transitions a pending job to cancelled immediately. For a
// processing job it signals the runner and returns optimistically; the state
// becomes cancelled once the runner observes the signal at its next
// checkpoint. Terminal jobs fail with ErrInvalidTransition.
func (s *Scheduler) Cancel(ctx context.Context, id string) error {
	job, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		return fmt.Errorf("%w: job %s is %s", ErrInvalidTransition, id, job.Status)
	}

	if job.Status == StatusPending {
		changed, err := s.store.MarkCancelled(ctx, id, StatusPending)
		if err != nil {
			return err
		}
		if changed {
			s.logger.Info("pending job cancelled", logging.String(logging.FieldJobID, id))
			return nil
		}
		// Dispatch won the race; fall through to the processing path.
	}

	s.mu.Lock()
	cancelJob, ok := s.cancels[id]
	s.mu.Unlock()
	if ok {
		cancelJob()
		s.logger.Info("cancellation signalled", logging.String(logging.FieldJobID, id))
		return nil
	}

	// The worker finished between the lookup and here.
	job, err = s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		return fmt.Errorf("%w: job %s is %s", ErrInvalidTransition, id, job.Status)
	}
	return nil
}

// Clear removes terminal jobs whose last update is older than olderThan and
// returns how many rows were removed. Zero clears all terminal jobs.
func (s *Scheduler) Clear(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan < 0 {
		return 0, services.Wrap(services.ErrValidation, "", "clear jobs",
			"older_than must not be negative", nil)
	}
	removed, err := s.store.ClearTerminal(ctx, time.Now().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logger.Info("terminal jobs cleared", logging.Int64("removed", removed))
	}
	return removed, nil
}

// Stats summarizes registry and pool state.
func (s *Scheduler) Stats(ctx context.Context) (Stats, error) {
	counts, err := s.store.CountByStatus(ctx)
	if err != nil {
		return Stats{}, err
	}
	avg, err := s.store.AverageCompletion(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Counts:            counts,
		AverageCompletion: avg,
		ActiveWorkers:     int(s.active.Load()),
		MaxWorkers:        s.maxWorkers,
		QueueDepth:        len(s.queue),
		QueueCapacity:     cap(s.queue),
	}, nil
}

func (s *Scheduler) workerLoop(ctx context.Context, worker int) {
	defer s.wg.Done()
	logger := s.logger.With(logging.Int("worker", worker))
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-s.queue:
			s.runJob(ctx, logger, id)
		}
	}
}

func (s *Scheduler) runJob(ctx context.Context, logger *slog.Logger, id string) {
	claimed, err := s.store.MarkProcessing(ctx, id)
	if err != nil {
		logger.Error("failed to claim job", logging.String(logging.FieldJobID, id), logging.Error(err))
		return
	}
	if !claimed {
		// Cancelled while pending.
		return
	}

	jobCtx, cancelJob := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancels[id] = cancelJob
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.cancels, id)
		s.mu.Unlock()
		cancelJob()
	}()

	s.active.Add(1)
	defer s.active.Add(-1)

	job, err := s.store.Get(jobCtx, id)
	if err != nil {
		logger.Error("failed to load job", logging.String(logging.FieldJobID, id), logging.Error(err))
		return
	}

	logger.Info("job started", logging.String(logging.FieldJobID, id))
	jobCtx = services.WithJobID(jobCtx, id)
	outputPath, runErr := s.runner.Run(jobCtx, job)

	switch {
	case runErr == nil:
		if err := s.store.MarkCompleted(context.WithoutCancel(ctx), id, outputPath); err != nil {
			logger.Error("failed to finalize job", logging.String(logging.FieldJobID, id), logging.Error(err))
			return
		}
		logger.Info("job completed",
			logging.String(logging.FieldJobID, id),
			logging.String("output", outputPath))
	case jobCtx.Err() != nil:
		// The runner may surface cancellation as something other than
		// context.Canceled (a killed child process reports "signal: killed").
		// Stage timeouts live in child contexts, so jobCtx.Err() here can
		// only mean the job was cancelled.
		if _, err := s.store.MarkCancelled(context.WithoutCancel(ctx), id, StatusProcessing); err != nil {
			logger.Error("failed to record cancellation", logging.String(logging.FieldJobID, id), logging.Error(err))
			return
		}
		logger.Info("job cancelled", logging.String(logging.FieldJobID, id))
	default:
		if err := s.store.MarkFailed(context.WithoutCancel(ctx), id, runErr.Error()); err != nil {
			logger.Error("failed to record failure", logging.String(logging.FieldJobID, id), logging.Error(err))
			return
		}
		logger.Error("job failed", logging.String(logging.FieldJobID, id), logging.Error(runErr))
	}
}
