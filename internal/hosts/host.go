package hosts

import (
	"net"
	"strconv"
	"time"
)

// Host is one configured database node.
//
// Identity is Name+Port. Index is the position in configuration order and
// does not take part in identity.
type Host struct {
	Name  string `json:"name"`
	Port  int    `json:"port"`
	Index int    `json:"index"`
}

// Key returns the host identity in host:port form.
func (h Host) Key() string {
	return net.JoinHostPort(h.Name, strconv.Itoa(h.Port))
}

// String implements fmt.Stringer.
func (h Host) String() string {
	return h.Key()
}

// Same reports whether h and other identify the same node.
func (h Host) Same(other Host) bool {
	return h.Name == other.Name && h.Port == other.Port
}

// State is the availability of a host.
type State int

const (
	// StateAvailable hosts are candidates for new attempts.
	StateAvailable State = iota
	// StateDisabled hosts are skipped until the failover timeout elapses.
	StateDisabled
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateAvailable:
		return "available"
	case StateDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// Status is the current state of a host. Since is set only for disabled hosts.
type Status struct {
	State State     `json:"state"`
	Since time.Time `json:"since,omitempty"`
}

// Reason explains why a transition happened.
type Reason string

const (
	ReasonFailure   Reason = "failure"
	ReasonSuccess   Reason = "success"
	ReasonRecovered Reason = "recovered"
)

// Transition describes a host changing state.
type Transition struct {
	Host   Host
	From   State
	To     State
	At     time.Time
	Reason Reason
}
