package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "no such endpoint")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "method not allowed")
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Cluster state
		r.Get("/hosts", s.handleListHosts)
		r.Get("/ping", s.handlePing)
		r.Get("/timeouts", s.handleGetTimeouts)
		r.Put("/timeouts", s.handleSetTimeouts)

		// Data
		r.Post("/query", s.handleQuery)
		r.Post("/write", s.handleWrite)

		r.Route("/databases", func(r chi.Router) {
			r.Get("/", s.handleListDatabases)
			r.Post("/", s.handleCreateDatabase)
			r.Delete("/{name}", s.handleDropDatabase)
			r.Get("/{name}/measurements", s.handleListMeasurements)
		})
	})

	return r
}

// handleHealth reports liveness plus a summary of host availability.
//
// The status is 503 when every host is disabled, so a load balancer can take
// the gateway out of rotation while the cluster is unreachable.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	available, disabled := s.client.HostStatus()

	status, code := "ok", http.StatusOK
	if len(available) == 0 {
		status, code = "unavailable", http.StatusServiceUnavailable
	}

	broker := "disabled"
	if s.mqtt != nil {
		broker = "disconnected"
		if s.mqtt.IsConnected() {
			broker = "connected"
		}
	}

	writeJSON(w, code, map[string]any{
		"status":  status,
		"version": s.version,
		"hosts": map[string]int{
			"available": len(available),
			"disabled":  len(disabled),
		},
		"mqtt": broker,
	})
}
