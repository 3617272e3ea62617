package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"clipforge/internal/config"
)

// Store is the job registry, backed by SQLite. The database is process
// scoped: created when the scheduler starts and treated as transient, since
// job history does not survive restarts.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// Open initializes or connects to the job database under the configured log
// directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.LogDir, "jobs.db"))
}

// OpenPath opens the job database at an explicit path. Tests use temp dirs.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	config_json TEXT NOT NULL,
	progress INTEGER NOT NULL DEFAULT 0,
	current_step TEXT NOT NULL DEFAULT '',
	error_message TEXT NOT NULL DEFAULT '',
	output_path TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	started_at TIMESTAMP,
	completed_at TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Create inserts a new pending job.
func (s *Store) Create(ctx context.Context, id, configJSON string) (*Job, error) {
	now := time.Now().UTC()
	job := &Job{
		ID:         id,
		Status:     StatusPending,
		ConfigJSON: configJSON,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	_, err := s.execWithRetry(ctx, `
INSERT INTO jobs (id, status, config_json, progress, current_step, error_message, output_path, created_at, updated_at)
VALUES (?, ?, ?, 0, '', '', '', ?, ?)`,
		job.ID, string(job.Status), job.ConfigJSON, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return job, nil
}

const jobColumns = `id, status, config_json, progress, current_step, error_message, output_path,
	created_at, updated_at, started_at, completed_at`

func scanJob(row interface{ Scan(...any) error }) (*Job, error) {
	var (
		job         Job
		status      string
		startedAt   sql.NullTime
		completedAt sql.NullTime
	)
	err := row.Scan(&job.ID, &status, &job.ConfigJSON, &job.Progress, &job.CurrentStep,
		&job.ErrorMessage, &job.OutputPath, &job.CreatedAt, &job.UpdatedAt, &startedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	job.Status = Status(status)
	if startedAt.Valid {
		job.StartedAt = startedAt.Time
	}
	if completedAt.Valid {
		job.CompletedAt = completedAt.Time
	}
	return &job, nil
}

// Get returns the job with the given id.
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// Snapshot returns a point-in-time copy of the job's caller-visible fields.
func (s *Store) Snapshot(ctx context.Context, id string) (Snapshot, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	return job.snapshot(), nil
}

// List returns snapshots most-recent-first, optionally filtered by status.
func (s *Store) List(ctx context.Context, filter Status, limit int) ([]Snapshot, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs`
	args := []any{}
	if filter != "" {
		query += ` WHERE status = ?`
		args = append(args, string(filter))
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, job.snapshot())
	}
	return out, rows.Err()
}

// UpdateProgress records stage progress for a running job.
func (s *Store) UpdateProgress(ctx context.Context, id string, progress int, step string) error {
	res, err := s.execWithRetry(ctx, `
UPDATE jobs SET progress = ?, current_step = ?, updated_at = ? WHERE id = ?`,
		progress, step, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return requireRow(res)
}

// MarkProcessing transitions pending -> processing. Returns false without
// error when the job is no longer pending (cancelled before dispatch).
func (s *Store) MarkProcessing(ctx context.Context, id string) (bool, error) {
	res, err := s.execWithRetry(ctx, `
UPDATE jobs SET status = ?, started_at = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(StatusProcessing), time.Now().UTC(), time.Now().UTC(), id, string(StatusPending))
	if err != nil {
		return false, fmt.Errorf("mark processing: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// MarkCompleted finalizes a successful job.
func (s *Store) MarkCompleted(ctx context.Context, id, outputPath string) error {
	now := time.Now().UTC()
	res, err := s.execWithRetry(ctx, `
UPDATE jobs SET status = ?, progress = 100, current_step = 'completed', output_path = ?,
	completed_at = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(StatusCompleted), outputPath, now, now, id, string(StatusProcessing))
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	return requireRow(res)
}

// MarkFailed finalizes a failed job with a user-visible error string. A job
// that reached another terminal state first is left untouched.
func (s *Store) MarkFailed(ctx context.Context, id, message string) error {
	now := time.Now().UTC()
	_, err := s.execWithRetry(ctx, `
UPDATE jobs SET status = ?, error_message = ?, completed_at = ?, updated_at = ?
WHERE id = ? AND status NOT IN (?, ?)`,
		string(StatusFailed), message, now, now, id,
		string(StatusCompleted), string(StatusCancelled))
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return nil
}

// MarkCancelled transitions a job to cancelled. expect restricts the
// transition to jobs currently in one of the given states; an empty expect
// allows any non-terminal state.
func (s *Store) MarkCancelled(ctx context.Context, id string, expect ...Status) (bool, error) {
	now := time.Now().UTC()

	query := `UPDATE jobs SET status = ?, completed_at = ?, updated_at = ? WHERE id = ?`
	args := []any{string(StatusCancelled), now, now, id}
	if len(expect) > 0 {
		placeholders := make([]string, len(expect))
		for i, st := range expect {
			placeholders[i] = "?"
			args = append(args, string(st))
		}
		query += ` AND status IN (` + strings.Join(placeholders, ", ") + `)`
	} else {
		query += ` AND status IN (?, ?)`
		args = append(args, string(StatusPending), string(StatusProcessing))
	}

	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("mark cancelled: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// CountByStatus returns job counts per status.
func (s *Store) CountByStatus(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count jobs: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int, len(allStatuses))
	for _, st := range allStatuses {
		counts[st] = 0
	}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[Status(status)] = n
	}
	return counts, rows.Err()
}

// AverageCompletion returns the mean started-to-completed duration over
// completed jobs, or zero when none have completed.
func (s *Store) AverageCompletion(ctx context.Context) (time.Duration, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT COALESCE(AVG((julianday(completed_at) - julianday(started_at)) * 86400.0), 0)
FROM jobs WHERE status = ? AND started_at IS NOT NULL AND completed_at IS NOT NULL`,
		string(StatusCompleted))
	var seconds float64
	if err := row.Scan(&seconds); err != nil {
		return 0, fmt.Errorf("average completion: %w", err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// ClearTerminal deletes terminal jobs older than the cutoff and returns the
// number removed. Retention policy lives with the caller.
func (s *Store) ClearTerminal(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.execWithRetry(ctx, `
DELETE FROM jobs WHERE status IN (?, ?, ?) AND updated_at < ?`,
		string(StatusCompleted), string(StatusFailed), string(StatusCancelled), olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("clear terminal jobs: %w", err)
	}
	return res.RowsAffected()
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
