package failover

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/nerrad567/influxgw/internal/hosts"
	"github.com/nerrad567/influxgw/internal/infrastructure/logging"
)

// DefaultRequestTimeout bounds a single attempt when none is configured.
const DefaultRequestTimeout = 10 * time.Second

// Operation is one request that can be sent to any host.
type Operation interface {
	Run(ctx context.Context, host hosts.Host) (any, error)
}

// OperationFunc adapts a function to Operation.
type OperationFunc func(ctx context.Context, host hosts.Host) (any, error)

// Run implements Operation.
func (f OperationFunc) Run(ctx context.Context, host hosts.Host) (any, error) {
	return f(ctx, host)
}

// Options tune a single Execute call.
type Options struct {
	// Timeout bounds each attempt. Zero uses the coordinator's request timeout.
	Timeout time.Duration

	// MaxAttempts caps the number of hosts tried. Zero tries every host that
	// was available when the call started.
	MaxAttempts int
}

// Coordinator runs operations against the registry's available hosts,
// disabling hosts that fail at the transport level.
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
type Coordinator struct {
	registry *hosts.Registry
	logger   *logging.Logger

	mu             sync.RWMutex
	requestTimeout time.Duration
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithRequestTimeout sets the initial per-attempt timeout. Non-positive
// values keep DefaultRequestTimeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.requestTimeout = d
		}
	}
}

// WithLogger sets the logger. Attempts are logged at debug level and
// transport failures at warn level.
func WithLogger(l *logging.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Coordinator over registry.
func New(registry *hosts.Registry, opts ...Option) *Coordinator {
	c := &Coordinator{
		registry:       registry,
		logger:         logging.Discard(),
		requestTimeout: DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "failover")
	return c
}

// Registry returns the host registry the coordinator works against.
func (c *Coordinator) Registry() *hosts.Registry {
	return c.registry
}

// SetRequestTimeout sets the per-attempt timeout and returns the timeout in
// effect. Non-positive values are ignored: an attempt that expires before it
// starts would disable healthy hosts.
func (c *Coordinator) SetRequestTimeout(d time.Duration) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d > 0 {
		c.requestTimeout = d
	}
	return c.requestTimeout
}

// RequestTimeout returns the current per-attempt timeout.
func (c *Coordinator) RequestTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.requestTimeout
}

// SetFailoverTimeout sets the registry's recovery timeout and returns the
// timeout in effect. Non-positive values are ignored.
func (c *Coordinator) SetFailoverTimeout(d time.Duration) time.Duration {
	return c.registry.SetFailoverTimeout(d)
}

// Execute runs op against the available hosts in configuration order.
//
// Outcomes per attempt:
//   - success: the host is marked available and the value returned
//   - *ApplicationError: returned immediately, the host stays available
//   - anything else: the host is disabled and the next candidate tried
//
// When no host is available Execute returns ErrNoHostsAvailable without
// attempting anything. When every candidate fails it returns an
// *ExhaustedRetriesError. Cancelling ctx stops the loop and returns ctx.Err()
// without disabling the host in flight.
func (c *Coordinator) Execute(ctx context.Context, op Operation, opts Options) (any, error) {
	candidates := c.registry.Available()
	if len(candidates) == 0 {
		return nil, ErrNoHostsAvailable
	}

	limit := len(candidates)
	if opts.MaxAttempts > 0 && opts.MaxAttempts < limit {
		limit = opts.MaxAttempts
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = c.RequestTimeout()
	}

	attempted := make([]hosts.Host, 0, limit)
	var failures *multierror.Error

	for _, host := range candidates[:limit] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		attemptID := uuid.NewString()
		attempted = append(attempted, host)
		c.logger.Debug("attempt started",
			"attempt_id", attemptID,
			"host", host.Key(),
			"timeout", timeout,
		)

		value, err := c.attempt(ctx, op, host, timeout)
		if err == nil {
			if c.registry.MarkAvailable(host) {
				c.logger.Info("host available", "host", host.Key(), "attempt_id", attemptID)
			}
			return value, nil
		}

		if IsApplicationError(err) {
			c.logger.Debug("application error", "attempt_id", attemptID, "host", host.Key(), "error", err)
			return nil, err
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		var transportErr *TransportError
		if !errors.As(err, &transportErr) {
			transportErr = &TransportError{Host: host, Err: err}
		}
		failures = multierror.Append(failures, transportErr)

		if c.registry.MarkDisabled(host, c.registry.Now()) {
			c.logger.Warn("host disabled",
				"attempt_id", attemptID,
				"host", host.Key(),
				"error", err,
			)
		}
	}

	return nil, &ExhaustedRetriesError{Hosts: attempted, Err: failures.ErrorOrNil()}
}

type outcome struct {
	value any
	err   error
}

// attempt runs op against host under timeout. If the deadline fires first the
// attempt is abandoned; its result, if it ever arrives, is dropped.
func (c *Coordinator) attempt(ctx context.Context, op Operation, host hosts.Host, timeout time.Duration) (any, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		value, err := op.Run(attemptCtx, host)
		done <- outcome{value: value, err: err}
	}()

	select {
	case out := <-done:
		return out.value, out.err
	case <-attemptCtx.Done():
		return nil, fmt.Errorf("attempt abandoned after %s: %w", timeout, attemptCtx.Err())
	}
}

// Do is a typed wrapper around Execute.
func Do[T any](ctx context.Context, c *Coordinator, opts Options, fn func(ctx context.Context, host hosts.Host) (T, error)) (T, error) {
	var zero T
	value, err := c.Execute(ctx, OperationFunc(func(ctx context.Context, host hosts.Host) (any, error) {
		return fn(ctx, host)
	}), opts)
	if err != nil {
		return zero, err
	}
	typed, _ := value.(T)
	return typed, nil
}
