// Package server exposes the scheduler over HTTP: health, metrics,
// manual triggers and recent run history.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"arkfeed.dev/arkfeed/internal/history"
	"arkfeed.dev/arkfeed/internal/job"
	"arkfeed.dev/arkfeed/internal/output"
)

// Runner performs one job run
type Runner interface {
	Run(ctx context.Context, trigger job.Trigger) (*job.Result, error)
}

// HistoryReader lists recent runs, newest first
type HistoryReader interface {
	List(n int) ([]history.Record, error)
}

const defaultRunsLimit = 20

// Server handles the HTTP API
type Server struct {
	runner  Runner
	history HistoryReader
	metrics http.Handler
	splog   *output.Splog
}

// NewHandler creates the HTTP handler for the scheduler.
func NewHandler(runner Runner, hist HistoryReader, metrics http.Handler, splog *output.Splog) http.Handler {
	s := &Server{runner: runner, history: hist, metrics: metrics, splog: splog}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.Health)
	r.Handle("/metrics", s.metrics)
	r.Post("/trigger", s.Trigger)
	r.Get("/runs", s.Runs)
	return r
}

// Health handles GET /healthz.
func (s *Server) Health(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Trigger handles POST /trigger by running the job synchronously.
// A client disconnect does not cancel the run.
func (s *Server) Trigger(w http.ResponseWriter, r *http.Request) {
	result, err := s.runner.Run(context.WithoutCancel(r.Context()), job.TriggerHTTP)
	if result == nil {
		http.Error(w, fmt.Sprintf("Run error: %v", err), http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	switch result.Status {
	case job.StatusSkipped:
		status = http.StatusConflict
	case job.StatusFailed:
		status = http.StatusInternalServerError
	}
	s.writeJSON(w, status, result)
}

// Runs handles GET /runs?limit=N.
func (s *Server) Runs(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	records, err := s.history.List(limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("History error: %v", err), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []history.Record{}
	}
	s.writeJSON(w, http.StatusOK, records)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.splog.Debug("Encode error: %v", err)
	}
}

// ListenAndServe serves handler on addr until ctx is cancelled
func ListenAndServe(ctx context.Context, addr string, handler http.Handler, splog *output.Splog) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		splog.Info("Listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
