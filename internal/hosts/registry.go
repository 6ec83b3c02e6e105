package hosts

import (
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultFailoverTimeout is how long a disabled host stays excluded when no
// timeout is configured.
const DefaultFailoverTimeout = time.Minute

// Registry holds the configured hosts and their availability.
//
// Disabled hosts are promoted back to available lazily: every read
// re-evaluates now-since against the current failover timeout. There is no
// background timer.
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
type Registry struct {
	mu              sync.Mutex
	clock           clock.Clock
	failoverTimeout time.Duration
	entries         []entry
	index           map[string]int

	onTransition func(Transition)
}

type entry struct {
	host   Host
	status Status
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock sets the time source. Tests use clock.NewMock().
func WithClock(c clock.Clock) Option {
	return func(r *Registry) {
		r.clock = c
	}
}

// WithFailoverTimeout sets the initial recovery timeout. Non-positive values
// keep DefaultFailoverTimeout.
func WithFailoverTimeout(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.failoverTimeout = d
		}
	}
}

// WithOnTransition registers a callback invoked after every state change.
// The callback runs outside the registry lock, on the goroutine that caused
// the change.
func WithOnTransition(fn func(Transition)) Option {
	return func(r *Registry) {
		r.onTransition = fn
	}
}

// New creates a registry for the given hosts. Every host starts available.
// Index is rewritten to the position in the list.
//
// Returns ErrNoHosts for an empty list and ErrDuplicateHost when a name:port
// appears more than once.
func New(hosts []Host, opts ...Option) (*Registry, error) {
	if len(hosts) == 0 {
		return nil, ErrNoHosts
	}

	r := &Registry{
		clock:           clock.New(),
		failoverTimeout: DefaultFailoverTimeout,
		entries:         make([]entry, 0, len(hosts)),
		index:           make(map[string]int, len(hosts)),
	}
	for _, opt := range opts {
		opt(r)
	}

	for i, h := range hosts {
		h.Index = i
		key := h.Key()
		if _, ok := r.index[key]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateHost, key)
		}
		r.index[key] = i
		r.entries = append(r.entries, entry{host: h, status: Status{State: StateAvailable}})
	}

	return r, nil
}

// Now returns the registry clock's current time.
func (r *Registry) Now() time.Time {
	return r.clock.Now()
}

// SetFailoverTimeout sets the recovery timeout and returns the timeout in
// effect. The new value applies to the next read, including hosts already
// disabled. Non-positive values are ignored.
func (r *Registry) SetFailoverTimeout(d time.Duration) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d > 0 {
		r.failoverTimeout = d
	}
	return r.failoverTimeout
}

// FailoverTimeout returns the current recovery timeout.
func (r *Registry) FailoverTimeout() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failoverTimeout
}

// Hosts returns every configured host in configuration order.
func (r *Registry) Hosts() []Host {
	out := make([]Host, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.host
	}
	return out
}

// Available returns the available hosts in configuration order, after
// promoting any disabled host whose recovery timeout has elapsed.
func (r *Registry) Available() []Host {
	available, _ := r.Partition()
	return available
}

// Disabled returns the disabled hosts in configuration order, after the same
// lazy promotion as Available.
func (r *Registry) Disabled() []Host {
	_, disabled := r.Partition()
	return disabled
}

// Partition returns both lists computed at a single instant. Together they
// contain every configured host exactly once.
func (r *Registry) Partition() (available, disabled []Host) {
	r.mu.Lock()
	transitions := r.recoverLocked(r.clock.Now())
	available = make([]Host, 0, len(r.entries))
	disabled = make([]Host, 0)
	for _, e := range r.entries {
		if e.status.State == StateAvailable {
			available = append(available, e.host)
		} else {
			disabled = append(disabled, e.host)
		}
	}
	r.mu.Unlock()

	r.notify(transitions)
	return available, disabled
}

// Status returns the current status of a host without applying recovery.
func (r *Registry) Status(h Host) (Status, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.index[h.Key()]
	if !ok {
		return Status{}, false
	}
	return r.entries[i].status, true
}

// MarkDisabled disables a host as of now. A host that is already disabled
// keeps its original timestamp, so concurrent failures converge on one record.
//
// Returns true if the host changed state.
func (r *Registry) MarkDisabled(h Host, now time.Time) bool {
	r.mu.Lock()
	i, ok := r.index[h.Key()]
	if !ok || r.entries[i].status.State == StateDisabled {
		r.mu.Unlock()
		return false
	}
	r.entries[i].status = Status{State: StateDisabled, Since: now}
	t := Transition{
		Host:   r.entries[i].host,
		From:   StateAvailable,
		To:     StateDisabled,
		At:     now,
		Reason: ReasonFailure,
	}
	r.mu.Unlock()

	r.notify([]Transition{t})
	return true
}

// MarkAvailable promotes a host after a successful request.
//
// Returns true if the host changed state.
func (r *Registry) MarkAvailable(h Host) bool {
	r.mu.Lock()
	i, ok := r.index[h.Key()]
	if !ok || r.entries[i].status.State == StateAvailable {
		r.mu.Unlock()
		return false
	}
	r.entries[i].status = Status{State: StateAvailable}
	t := Transition{
		Host:   r.entries[i].host,
		From:   StateDisabled,
		To:     StateAvailable,
		At:     r.clock.Now(),
		Reason: ReasonSuccess,
	}
	r.mu.Unlock()

	r.notify([]Transition{t})
	return true
}

// recoverLocked promotes disabled hosts whose disabled duration has reached
// the failover timeout. Caller must hold r.mu.
func (r *Registry) recoverLocked(now time.Time) []Transition {
	var transitions []Transition
	for i := range r.entries {
		e := &r.entries[i]
		if e.status.State != StateDisabled {
			continue
		}
		if eligible(e.status.Since, now, r.failoverTimeout) {
			e.status = Status{State: StateAvailable}
			transitions = append(transitions, Transition{
				Host:   e.host,
				From:   StateDisabled,
				To:     StateAvailable,
				At:     now,
				Reason: ReasonRecovered,
			})
		}
	}
	return transitions
}

// eligible reports whether a host disabled at since may be retried at now.
// At exactly the threshold the host is eligible.
func eligible(since, now time.Time, timeout time.Duration) bool {
	return now.Sub(since) >= timeout
}

func (r *Registry) notify(transitions []Transition) {
	if r.onTransition == nil {
		return
	}
	for _, t := range transitions {
		r.onTransition(t)
	}
}
