package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/nerrad567/influxgw/internal/influx"
)

// writeRequest is the body of POST /write.
type writeRequest struct {
	Database    string            `json:"database"`
	Measurement string            `json:"measurement"`
	Tags        map[string]string `json:"tags"`
	Points      []influx.Point    `json:"points"`
}

// handleWrite writes a batch of points to one measurement.
//
// Whole JSON numbers are written as integers, everything else as floats.
func (s *Server) handleWrite(w http.ResponseWriter, r *http.Request) {
	var req writeRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	for i := range req.Points {
		fields, err := fieldValues(req.Points[i].Fields)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrCodeValidation, fmt.Sprintf("points[%d]: %v", i, err))
			return
		}
		req.Points[i].Fields = fields
	}

	if err := s.client.WritePoints(r.Context(), req.Database, req.Measurement, req.Points, req.Tags); err != nil {
		writeClientError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// fieldValues converts decoded JSON values into line protocol field types.
func fieldValues(in map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(in))
	for k, v := range in {
		switch val := v.(type) {
		case json.Number:
			if n, err := val.Int64(); err == nil {
				out[k] = n
				continue
			}
			f, err := val.Float64()
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", k, err)
			}
			out[k] = f
		case string, bool:
			out[k] = val
		default:
			return nil, fmt.Errorf("field %q: unsupported type %T", k, v)
		}
	}
	return out, nil
}
