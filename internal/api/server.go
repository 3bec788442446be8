// Package api provides the local HTTP status surface for powergram:
// health probe, last sensor snapshot, and Prometheus metrics.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/powergram/powergram/internal/app/monitor"
)

// SubscriberCounter exposes the size of the subscriber set.
type SubscriberCounter interface {
	Subscribers() ([]int64, error)
}

// Server is the powergram HTTP status server.
type Server struct {
	engine         *monitor.Engine
	store          SubscriberCounter
	metricsEnabled bool
}

// NewServer creates a status server over the engine's snapshot.
func NewServer(engine *monitor.Engine, store SubscriberCounter) *Server {
	return &Server{engine: engine, store: store}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/status", s.handleStatus)

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

type statusResponse struct {
	Battery     monitor.Snapshot `json:"battery"`
	Subscribers int              `json:"subscribers"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.engine.Status()
	if snap.At.IsZero() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "no sensor data yet",
		})
		return
	}

	subscribers, err := s.store.Subscribers()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		Battery:     snap,
		Subscribers: len(subscribers),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
