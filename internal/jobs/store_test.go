package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"clipforge/internal/jobs"
	"clipforge/internal/testsupport"
)

func TestStoreCreateAndGet(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	job, err := store.Create(ctx, "job-1", `{"width":1080}`)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if job.Status != jobs.StatusPending || job.Progress != 0 {
		t.Fatalf("new job = %+v", job)
	}

	got, err := store.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ConfigJSON != `{"width":1080}` {
		t.Fatalf("config = %q", got.ConfigJSON)
	}
}

func TestStoreGetUnknown(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, jobs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreLifecycleTransitions(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if _, err := store.Create(ctx, "job-1", "{}"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	claimed, err := store.MarkProcessing(ctx, "job-1")
	if err != nil || !claimed {
		t.Fatalf("MarkProcessing = %v, %v", claimed, err)
	}

	// A second claim must not succeed.
	claimed, err = store.MarkProcessing(ctx, "job-1")
	if err != nil || claimed {
		t.Fatalf("second MarkProcessing = %v, %v", claimed, err)
	}

	if err := store.UpdateProgress(ctx, "job-1", 50, "building subtitle cues"); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	job, _ := store.Get(ctx, "job-1")
	if job.Progress != 50 || job.CurrentStep != "building subtitle cues" {
		t.Fatalf("job = %+v", job)
	}

	if err := store.MarkCompleted(ctx, "job-1", "/out/v.mp4"); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	job, _ = store.Get(ctx, "job-1")
	if job.Status != jobs.StatusCompleted || job.Progress != 100 || job.OutputPath != "/out/v.mp4" {
		t.Fatalf("completed job = %+v", job)
	}
	if job.CompletedAt.IsZero() || job.StartedAt.IsZero() {
		t.Fatalf("timestamps missing: %+v", job)
	}
}

func TestStoreCancelPendingOnly(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if _, err := store.Create(ctx, "job-1", "{}"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	changed, err := store.MarkCancelled(ctx, "job-1", jobs.StatusPending)
	if err != nil || !changed {
		t.Fatalf("MarkCancelled = %v, %v", changed, err)
	}

	// Terminal now; further transitions are no-ops.
	changed, err = store.MarkCancelled(ctx, "job-1")
	if err != nil || changed {
		t.Fatalf("cancel of terminal job = %v, %v", changed, err)
	}
	claimed, err := store.MarkProcessing(ctx, "job-1")
	if err != nil || claimed {
		t.Fatalf("claim of terminal job = %v, %v", claimed, err)
	}
}

func TestStoreMarkFailedSkipsTerminal(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if _, err := store.Create(ctx, "job-1", "{}"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.MarkCancelled(ctx, "job-1", jobs.StatusPending); err != nil {
		t.Fatalf("MarkCancelled: %v", err)
	}
	if err := store.MarkFailed(ctx, "job-1", "boom"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	job, _ := store.Get(ctx, "job-1")
	if job.Status != jobs.StatusCancelled || job.ErrorMessage != "" {
		t.Fatalf("terminal state overwritten: %+v", job)
	}
}

func TestStoreListOrderAndFilter(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if _, err := store.Create(ctx, id, "{}"); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
		time.Sleep(5 * time.Millisecond)
	}
	if _, err := store.MarkProcessing(ctx, "b"); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}

	all, err := store.List(ctx, "", 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[0].ID != "c" || all[2].ID != "a" {
		t.Fatalf("list order = %+v", all)
	}

	pending, err := store.List(ctx, jobs.StatusPending, 10)
	if err != nil {
		t.Fatalf("List pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending = %+v", pending)
	}

	limited, err := store.List(ctx, "", 1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("limited = %+v, %v", limited, err)
	}
}

func TestStoreCountsAndRetention(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if _, err := store.Create(ctx, "done", "{}"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.MarkProcessing(ctx, "done"); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}
	if err := store.MarkCompleted(ctx, "done", "/out.mp4"); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	if _, err := store.Create(ctx, "waiting", "{}"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	counts, err := store.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if counts[jobs.StatusCompleted] != 1 || counts[jobs.StatusPending] != 1 || counts[jobs.StatusFailed] != 0 {
		t.Fatalf("counts = %+v", counts)
	}

	removed, err := store.ClearTerminal(ctx, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("ClearTerminal: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d", removed)
	}
	if _, err := store.Get(ctx, "waiting"); err != nil {
		t.Fatalf("pending job swept: %v", err)
	}
}
