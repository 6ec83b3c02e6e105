package api

import (
	"encoding/json"
	"math"
	"net/http"
	"time"

	"github.com/nerrad567/influxgw/internal/hosts"
)

// hostView is a host as shown by the API.
type hostView struct {
	Name  string     `json:"name"`
	Port  int        `json:"port"`
	Index int        `json:"index"`
	Since *time.Time `json:"disabled_since,omitempty"`
}

// handleListHosts returns the current availability partition.
func (s *Server) handleListHosts(w http.ResponseWriter, _ *http.Request) {
	available, disabled := s.client.HostStatus()
	writeJSON(w, http.StatusOK, map[string]any{
		"available": s.hostViews(available),
		"disabled":  s.hostViews(disabled),
	})
}

func (s *Server) hostViews(list []hosts.Host) []hostView {
	views := make([]hostView, 0, len(list))
	for _, h := range list {
		v := hostView{Name: h.Name, Port: h.Port, Index: h.Index}
		if st, ok := s.client.Registry().Status(h); ok && st.State == hosts.StateDisabled {
			since := st.Since.UTC()
			v.Since = &since
		}
		views = append(views, v)
	}
	return views
}

// handlePing probes every host and returns one result per host.
func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	results, err := s.client.Ping(r.Context())
	if err != nil {
		writeClientError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// timeoutsBody carries both timeouts in milliseconds. Omitted fields are left
// unchanged by PUT.
type timeoutsBody struct {
	RequestTimeout  *int64 `json:"request_timeout_ms,omitempty"`
	FailoverTimeout *int64 `json:"failover_timeout_ms,omitempty"`
}

func (s *Server) currentTimeouts() timeoutsBody {
	req := s.client.RequestTimeout().Milliseconds()
	fail := s.client.FailoverTimeout().Milliseconds()
	return timeoutsBody{RequestTimeout: &req, FailoverTimeout: &fail}
}

// handleGetTimeouts returns the current timeouts.
func (s *Server) handleGetTimeouts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.currentTimeouts())
}

// maxTimeoutMillis is the largest millisecond count a time.Duration holds.
const maxTimeoutMillis = math.MaxInt64 / int64(time.Millisecond)

// handleSetTimeouts updates one or both timeouts and echoes the new values.
func (s *Server) handleSetTimeouts(w http.ResponseWriter, r *http.Request) {
	var body timeoutsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if body.RequestTimeout == nil && body.FailoverTimeout == nil {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "request_timeout_ms or failover_timeout_ms is required")
		return
	}
	if (body.RequestTimeout != nil && *body.RequestTimeout <= 0) ||
		(body.FailoverTimeout != nil && *body.FailoverTimeout <= 0) {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "timeouts must be positive")
		return
	}
	if (body.RequestTimeout != nil && *body.RequestTimeout > maxTimeoutMillis) ||
		(body.FailoverTimeout != nil && *body.FailoverTimeout > maxTimeoutMillis) {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "timeouts are too large")
		return
	}

	if body.RequestTimeout != nil {
		s.client.SetRequestTimeout(time.Duration(*body.RequestTimeout) * time.Millisecond)
	}
	if body.FailoverTimeout != nil {
		s.client.SetFailoverTimeout(time.Duration(*body.FailoverTimeout) * time.Millisecond)
	}

	current := s.currentTimeouts()
	s.logger.Info("timeouts updated",
		"request_timeout_ms", *current.RequestTimeout,
		"failover_timeout_ms", *current.FailoverTimeout,
		"request_id", requestID(r.Context()),
	)
	writeJSON(w, http.StatusOK, current)
}
