package failover

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nerrad567/influxgw/internal/hosts"
)

// Sentinel errors for failover operations.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, failover.ErrExhaustedRetries) {
//	    // every candidate host failed at the transport level
//	}
var (
	// ErrNoHostsAvailable indicates every configured host was disabled when the
	// operation started.
	ErrNoHostsAvailable = errors.New("failover: no hosts available")

	// ErrExhaustedRetries indicates every candidate host failed with a
	// transport error.
	ErrExhaustedRetries = errors.New("failover: retry limit exceeded")
)

// TransportError is a connection-level failure against one host: refused
// connection, DNS failure, timeout, or a gateway that could not reach the
// database. It disables the host and moves on to the next candidate.
type TransportError struct {
	Host hosts.Host
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Host, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ApplicationError is a well-formed answer from a reachable host saying the
// operation itself failed (duplicate database, unknown user, bad query).
// It is returned to the caller unchanged and never disables the host.
type ApplicationError struct {
	Host       hosts.Host
	StatusCode int
	Message    string
}

func (e *ApplicationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("influx %s: %s (HTTP %d)", e.Host, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("influx %s: %s", e.Host, e.Message)
}

// IsApplicationError reports whether err is, or wraps, an *ApplicationError.
func IsApplicationError(err error) bool {
	var appErr *ApplicationError
	return errors.As(err, &appErr)
}

// ExhaustedRetriesError is returned when every candidate failed at the
// transport level. Err aggregates the per-host failures.
type ExhaustedRetriesError struct {
	Hosts []hosts.Host
	Err   error
}

func (e *ExhaustedRetriesError) Error() string {
	names := make([]string, len(e.Hosts))
	for i, h := range e.Hosts {
		names[i] = h.Key()
	}
	return fmt.Sprintf("%v after %d attempt(s) [%s]: %v",
		ErrExhaustedRetries, len(e.Hosts), strings.Join(names, ", "), e.Err)
}

func (e *ExhaustedRetriesError) Is(target error) bool {
	return target == ErrExhaustedRetries
}

func (e *ExhaustedRetriesError) Unwrap() error {
	return e.Err
}
