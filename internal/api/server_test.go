package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"clipforge/internal/api"
	"clipforge/internal/jobs"
	"clipforge/internal/logging"
	"clipforge/internal/testsupport"
)

const submitBody = `{
  "width": 1080,
  "height": 1920,
  "elements": [{"type": "video", "src": "bg.mp4"}],
  "scenes": [{"id": "one", "elements": [{"type": "audio", "src": "a.mp3"}]}]
}`

type idleRunner struct{}

func (idleRunner) Run(ctx context.Context, job *jobs.Job) (string, error) {
	return "/out/" + job.ID + ".mp4", nil
}

// newHandler returns the API over a scheduler whose workers are not started,
// so submitted jobs stay pending and tests stay deterministic.
func newHandler(t *testing.T) http.Handler {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	sched := jobs.NewScheduler(store, idleRunner{}, cfg, logging.NewNop())
	return api.NewServer(cfg.Paths.APIBind, sched, logging.NewNop()).Handler()
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string, out any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if out != nil && rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("decode %s %s response: %v\n%s", method, path, err, rec.Body.String())
		}
	}
	return rec
}

func TestSubmitAccepted(t *testing.T) {
	handler := newHandler(t)

	var resp api.SubmitResponse
	rec := doJSON(t, handler, http.MethodPost, "/api/jobs", submitBody, &resp)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if resp.JobID == "" || resp.Status != "pending" {
		t.Fatalf("resp = %+v", resp)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing request id header")
	}
}

func TestSubmitRejectsInvalidConfig(t *testing.T) {
	handler := newHandler(t)

	var resp api.ErrorResponse
	rec := doJSON(t, handler, http.MethodPost, "/api/jobs", `{"width": 1}`, &resp)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if resp.Error == "" {
		t.Fatal("error body missing")
	}
}

func TestSubmitBackpressure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workers.QueueDepth = 1
	store := testsupport.MustOpenStore(t, cfg)
	sched := jobs.NewScheduler(store, idleRunner{}, cfg, logging.NewNop())
	handler := api.NewServer(cfg.Paths.APIBind, sched, logging.NewNop()).Handler()

	if rec := doJSON(t, handler, http.MethodPost, "/api/jobs", submitBody, nil); rec.Code != http.StatusAccepted {
		t.Fatalf("first submit = %d", rec.Code)
	}
	rec := doJSON(t, handler, http.MethodPost, "/api/jobs", submitBody, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("second submit = %d, want 503", rec.Code)
	}
}

func TestStatusAndNotFound(t *testing.T) {
	handler := newHandler(t)

	var submitted api.SubmitResponse
	doJSON(t, handler, http.MethodPost, "/api/jobs", submitBody, &submitted)

	var snap api.JobResponse
	rec := doJSON(t, handler, http.MethodGet, "/api/jobs/"+submitted.JobID, "", &snap)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if snap.JobID != submitted.JobID || snap.Status != "pending" || snap.Progress != 0 {
		t.Fatalf("snap = %+v", snap)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/jobs/missing", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing job = %d", rec.Code)
	}
}

func TestListFiltersAndLimits(t *testing.T) {
	handler := newHandler(t)

	for i := 0; i < 3; i++ {
		doJSON(t, handler, http.MethodPost, "/api/jobs", submitBody, nil)
		time.Sleep(2 * time.Millisecond)
	}

	var list api.ListResponse
	rec := doJSON(t, handler, http.MethodGet, "/api/jobs?status=pending&limit=2", "", &list)
	if rec.Code != http.StatusOK {
		t.Fatalf("list = %d", rec.Code)
	}
	if list.Count != 2 {
		t.Fatalf("list = %+v", list)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/jobs?status=bogus", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bogus filter = %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/jobs?limit=x", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad limit = %d", rec.Code)
	}
}

func TestCancelTransitions(t *testing.T) {
	handler := newHandler(t)

	var submitted api.SubmitResponse
	doJSON(t, handler, http.MethodPost, "/api/jobs", submitBody, &submitted)

	var snap api.JobResponse
	rec := doJSON(t, handler, http.MethodPost, "/api/jobs/"+submitted.JobID+"/cancel", "", &snap)
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel = %d, body %s", rec.Code, rec.Body.String())
	}
	if snap.Status != "cancelled" {
		t.Fatalf("snap = %+v", snap)
	}

	// Second cancel hits a terminal job.
	rec = doJSON(t, handler, http.MethodPost, "/api/jobs/"+submitted.JobID+"/cancel", "", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("terminal cancel = %d, want 409", rec.Code)
	}
}

func TestClearRemovesTerminalJobs(t *testing.T) {
	handler := newHandler(t)

	var submitted api.SubmitResponse
	doJSON(t, handler, http.MethodPost, "/api/jobs", submitBody, &submitted)
	doJSON(t, handler, http.MethodPost, "/api/jobs/"+submitted.JobID+"/cancel", "", nil)

	// Pending jobs are untouched even by an unbounded clear.
	doJSON(t, handler, http.MethodPost, "/api/jobs", submitBody, nil)

	var cleared api.ClearResponse
	rec := doJSON(t, handler, http.MethodDelete, "/api/jobs?older_than=1h", "", &cleared)
	if rec.Code != http.StatusOK || cleared.Removed != 0 {
		t.Fatalf("clear inside window = %d %+v", rec.Code, cleared)
	}

	rec = doJSON(t, handler, http.MethodDelete, "/api/jobs", "", &cleared)
	if rec.Code != http.StatusOK {
		t.Fatalf("clear = %d, body %s", rec.Code, rec.Body.String())
	}
	if cleared.Removed != 1 {
		t.Fatalf("cleared = %+v", cleared)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/jobs/"+submitted.JobID, "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("cleared job lookup = %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodDelete, "/api/jobs?older_than=soon", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad duration = %d", rec.Code)
	}
}

func TestStatsAndHealth(t *testing.T) {
	handler := newHandler(t)
	doJSON(t, handler, http.MethodPost, "/api/jobs", submitBody, nil)

	var stats api.StatsResponse
	rec := doJSON(t, handler, http.MethodGet, "/api/stats", "", &stats)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats = %d", rec.Code)
	}
	if stats.Counts["pending"] != 1 || stats.QueueCapacity != 8 {
		t.Fatalf("stats = %+v", stats)
	}

	var health api.HealthResponse
	rec = doJSON(t, handler, http.MethodGet, "/api/health", "", &health)
	if rec.Code != http.StatusOK || health.Status != "ok" {
		t.Fatalf("health = %d %+v", rec.Code, health)
	}
}
