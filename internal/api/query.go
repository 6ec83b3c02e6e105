package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// queryRequest is the body of POST /query.
type queryRequest struct {
	Database string `json:"database"`
	Query    string `json:"query"`

	// Raw returns the database's columnar response instead of the
	// normalized result.
	Raw bool `json:"raw"`
}

// handleQuery runs InfluxQL through the failover client.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.Raw {
		raw, err := s.client.Query(r.Context(), req.Database, req.Query)
		if err != nil {
			writeClientError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, raw)
		return
	}

	result, err := s.client.QueryNormalized(r.Context(), req.Database, req.Query)
	if err != nil {
		writeClientError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": result})
}

// handleListDatabases lists every database on the cluster.
func (s *Server) handleListDatabases(w http.ResponseWriter, r *http.Request) {
	names, err := s.client.Databases(r.Context())
	if err != nil {
		writeClientError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"databases": names})
}

// handleCreateDatabase creates the database named in {"name": ...}.
func (s *Server) handleCreateDatabase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.client.CreateDatabase(r.Context(), req.Name); err != nil {
		writeClientError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"name": req.Name})
}

// handleDropDatabase deletes a database.
func (s *Server) handleDropDatabase(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.client.DropDatabase(r.Context(), name); err != nil {
		writeClientError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListMeasurements lists the measurements of one database.
func (s *Server) handleListMeasurements(w http.ResponseWriter, r *http.Request) {
	names, err := s.client.Measurements(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeClientError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"measurements": names})
}
