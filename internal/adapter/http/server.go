// Package http serves the monitoring endpoints of the batch tools. A run of
// generate-climos or split-climos over a large file set can take hours; when
// METRICS_ADDR is set the run exposes /healthz, /readyz, and /metrics so an
// operator or scheduler can watch progress without tailing logs.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessChecker reports whether the run has made observable progress.
// Both pipelines implement it as "at least one input file completed".
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// readinessTimeout bounds how long a /readyz request may block the caller.
const readinessTimeout = 2 * time.Second

// Server is the monitoring HTTP server for one batch run.
type Server struct {
	httpServer *http.Server
	tool       string
	started    time.Time
	logger     *slog.Logger
}

// NewServer creates a monitoring server for the named tool with /healthz,
// /readyz, and /metrics routes.
func NewServer(addr, tool string, ready ReadinessChecker, logger *slog.Logger) *Server {
	s := &Server{
		tool:    tool,
		started: time.Now(),
		logger:  logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("monitoring server starting", "addr", s.httpServer.Addr, "tool", s.tool)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handleHealth reports liveness plus which tool is running and for how long,
// so an operator hitting the port of an hours-old batch can tell what it is.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"tool":   s.tool,
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"tool":   s.tool,
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ready",
			"tool":   s.tool,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort health response
}
