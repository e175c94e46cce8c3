package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hyperschedule/scrapers/internal/state"
)

// HTTPServer serves snapshots, health and Prometheus metrics.
type HTTPServer struct {
	srv    *http.Server
	daemon *Daemon
}

// NewHTTPServer wires the daemon's HTTP surface on listen.
func NewHTTPServer(listen string, d *Daemon) *HTTPServer {
	s := &HTTPServer{daemon: d}
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/v1/snapshot/", s.handleSnapshot)
	mux.Handle("/metrics", promhttp.HandlerFor(d.Registry(), promhttp.HandlerOpts{}))
	s.srv = &http.Server{
		Addr:         listen,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Start begins serving in the background.
func (s *HTTPServer) Start() error {
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
		}
	}()
	slog.Info("http server listening", "addr", s.srv.Addr)
	return nil
}

// Stop shuts the server down gracefully.
func (s *HTTPServer) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.daemon.GetStatus())
}

// handleSnapshot serves /api/v1/snapshot/{school}.
func (s *HTTPServer) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	school := strings.TrimPrefix(r.URL.Path, "/api/v1/snapshot/")
	if school == "" || strings.Contains(school, "/") {
		http.NotFound(w, r)
		return
	}
	if !s.daemon.HasSchool(school) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown school " + school})
		return
	}
	snap, err := state.BuildSnapshot(r.Context(), s.daemon.Store(), school)
	if err != nil {
		slog.Error("snapshot build failed", "school", school, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "snapshot unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("write response", "error", err)
	}
}
