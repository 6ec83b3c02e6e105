package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/influxgw/internal/failover"
	"github.com/nerrad567/influxgw/internal/influx"
	"github.com/nerrad567/influxgw/internal/series"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeNotFound       = "not_found"
	ErrCodeInternal       = "internal_error"
	ErrCodeValidation     = "validation_error"
	ErrCodeMethodNotAllow = "method_not_allowed"
	ErrCodeDatabase       = "database_error"
	ErrCodeUnavailable    = "hosts_unavailable"
	ErrCodeBadGateway     = "bad_gateway"
	ErrCodeTimeout        = "timeout"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeClientError maps an error from the influx client to a response.
//
//	validation           400 validation_error
//	*ApplicationError    the database's 4xx (400 if it answered 2xx, 502 if 5xx)
//	no hosts / exhausted 503 hosts_unavailable
//	malformed result     502 bad_gateway
//	context deadline     504 timeout
func writeClientError(w http.ResponseWriter, err error) {
	var appErr *failover.ApplicationError
	switch {
	case errors.Is(err, influx.ErrDatabaseRequired),
		errors.Is(err, influx.ErrQueryRequired),
		errors.Is(err, influx.ErrNoPoints),
		errors.Is(err, influx.ErrNoFields),
		errors.Is(err, influx.ErrEmptyName):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.As(err, &appErr):
		writeError(w, applicationStatus(appErr.StatusCode), ErrCodeDatabase, appErr.Message)
	case errors.Is(err, failover.ErrNoHostsAvailable),
		errors.Is(err, failover.ErrExhaustedRetries):
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, err.Error())
	case errors.Is(err, series.ErrMalformedResult):
		writeError(w, http.StatusBadGateway, ErrCodeBadGateway, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, ErrCodeTimeout, err.Error())
	default:
		writeInternalError(w, err.Error())
	}
}

func applicationStatus(code int) int {
	switch {
	case code >= 400 && code < 500:
		return code
	case code >= 500:
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}
