package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"clipforge/internal/jobs"
	"clipforge/internal/logging"
	"clipforge/internal/media"
	"clipforge/internal/services"
)

// Version is reported by the health endpoint.
const Version = "0.3.0"

const maxConfigBytes = 1 << 20

// Server exposes the scheduler over HTTP.
type Server struct {
	scheduler *jobs.Scheduler
	logger    *slog.Logger
	http      *http.Server
}

// NewServer builds the HTTP surface for the given scheduler.
func NewServer(bind string, scheduler *jobs.Scheduler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		scheduler: scheduler,
		logger:    logging.WithComponent(logger, "api"),
	}
	s.http = &http.Server{
		Addr:              bind,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/jobs", s.handleSubmit)
	mux.HandleFunc("GET /api/jobs", s.handleList)
	mux.HandleFunc("DELETE /api/jobs", s.handleClear)
	mux.HandleFunc("GET /api/jobs/{id}", s.handleStatus)
	mux.HandleFunc("POST /api/jobs/{id}/cancel", s.handleCancel)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	return s.withRequestID(mux)
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	s.logger.Info("api listening", logging.String("addr", s.http.Addr))
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := services.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxConfigBytes+1))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "unreadable request body")
		return
	}
	if len(body) > maxConfigBytes {
		s.writeError(w, r, http.StatusRequestEntityTooLarge, "config document too large")
		return
	}

	// Validate before scheduling; the scheduler assumes pre-validated configs.
	if _, err := media.ParseConfig(body); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.scheduler.Submit(r.Context(), string(body))
	if err != nil {
		s.writeSchedulerError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, SubmitResponse{JobID: id, Status: string(jobs.StatusPending)})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := s.scheduler.Status(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeSchedulerError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toJobResponse(snap))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	filter := jobs.Status(r.URL.Query().Get("status"))

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			s.writeError(w, r, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	snaps, err := s.scheduler.List(r.Context(), filter, limit)
	if err != nil {
		s.writeSchedulerError(w, r, err)
		return
	}

	resp := ListResponse{Jobs: make([]JobResponse, 0, len(snaps)), Count: len(snaps)}
	for _, snap := range snaps {
		resp.Jobs = append(resp.Jobs, toJobResponse(snap))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.scheduler.Cancel(r.Context(), id); err != nil {
		s.writeSchedulerError(w, r, err)
		return
	}
	snap, err := s.scheduler.Status(r.Context(), id)
	if err != nil {
		s.writeSchedulerError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toJobResponse(snap))
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	var olderThan time.Duration
	if raw := r.URL.Query().Get("older_than"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed < 0 {
			s.writeError(w, r, http.StatusBadRequest, "older_than must be a non-negative duration like 24h")
			return
		}
		olderThan = parsed
	}

	removed, err := s.scheduler.Clear(r.Context(), olderThan)
	if err != nil {
		s.writeSchedulerError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ClearResponse{Removed: removed})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.scheduler.Stats(r.Context())
	if err != nil {
		s.writeSchedulerError(w, r, err)
		return
	}
	counts := make(map[string]int, len(stats.Counts))
	for status, n := range stats.Counts {
		counts[string(status)] = n
	}
	s.writeJSON(w, http.StatusOK, StatsResponse{
		Counts:                   counts,
		AverageCompletionSeconds: stats.AverageCompletion.Seconds(),
		ActiveWorkers:            stats.ActiveWorkers,
		MaxWorkers:               stats.MaxWorkers,
		QueueDepth:               stats.QueueDepth,
		QueueCapacity:            stats.QueueCapacity,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: Version})
}

func (s *Server) writeSchedulerError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, jobs.ErrNotFound):
		s.writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, jobs.ErrInvalidTransition):
		s.writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, jobs.ErrCapacityExceeded):
		s.writeError(w, r, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, jobs.ErrStopped):
		s.writeError(w, r, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, services.ErrValidation):
		s.writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		requestID, _ := services.RequestIDFrom(r.Context())
		s.logger.Error("request failed",
			logging.String(logging.FieldRequestID, requestID),
			logging.String("path", r.URL.Path),
			logging.Error(err))
		s.writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: message})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}
