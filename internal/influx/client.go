package influx

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/nerrad567/influxgw/internal/failover"
	"github.com/nerrad567/influxgw/internal/hosts"
	"github.com/nerrad567/influxgw/internal/infrastructure/config"
	"github.com/nerrad567/influxgw/internal/infrastructure/logging"
)

// Client talks to a cluster of InfluxDB 1.x nodes through the failover
// coordinator.
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	cfg         config.InfluxConfig
	registry    *hosts.Registry
	coordinator *failover.Coordinator
	httpClient  *http.Client
	ownsHTTP    bool
	logger      *logging.Logger

	precision time.Duration
}

type options struct {
	logger       *logging.Logger
	clock        clock.Clock
	httpClient   *http.Client
	onTransition func(hosts.Transition)
}

// Option configures a Client.
type Option func(*options)

// WithLogger sets the logger used by the client and its coordinator.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithClock sets the clock used for host recovery. Tests use clock.NewMock.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithHTTPClient replaces the HTTP client. The caller keeps ownership;
// Close does not touch it.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// WithOnTransition registers a callback for host state changes.
func WithOnTransition(fn func(hosts.Transition)) Option {
	return func(o *options) {
		o.onTransition = fn
	}
}

// New creates a Client for the hosts in cfg.
//
// Parameters:
//   - cfg: Influx section of the configuration; hosts are tried in list order
//   - opts: Optional logger, clock, HTTP client and transition callback
//
// Returns:
//   - *Client: Ready for use; no host is contacted until the first call
//   - error: If the host list is empty or contains duplicates
func New(cfg config.InfluxConfig, opts ...Option) (*Client, error) {
	o := options{logger: logging.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.Discard()
	}

	list := make([]hosts.Host, len(cfg.Hosts))
	for i, h := range cfg.Hosts {
		port := h.Port
		if port == 0 {
			port = config.DefaultInfluxPort
		}
		list[i] = hosts.Host{Name: h.Host, Port: port, Index: i}
	}

	regOpts := []hosts.Option{}
	if o.clock != nil {
		regOpts = append(regOpts, hosts.WithClock(o.clock))
	}
	if d := cfg.GetFailoverTimeout(); d > 0 {
		regOpts = append(regOpts, hosts.WithFailoverTimeout(d))
	}
	if o.onTransition != nil {
		regOpts = append(regOpts, hosts.WithOnTransition(o.onTransition))
	}
	registry, err := hosts.New(list, regOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating host registry: %w", err)
	}

	coordOpts := []failover.Option{failover.WithLogger(o.logger)}
	if d := cfg.GetRequestTimeout(); d > 0 {
		coordOpts = append(coordOpts, failover.WithRequestTimeout(d))
	}

	if cfg.Protocol == "" {
		cfg.Protocol = "http"
	}

	c := &Client{
		cfg:         cfg,
		registry:    registry,
		coordinator: failover.New(registry, coordOpts...),
		httpClient:  o.httpClient,
		logger:      o.logger.With("component", "influx"),
		precision:   cfg.GetPrecision(),
	}
	if c.httpClient == nil {
		// Per-request deadlines come from the coordinator's context.
		c.httpClient = &http.Client{}
		c.ownsHTTP = true
	}
	return c, nil
}

// Close releases idle connections held by the client's own HTTP client.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	if c.ownsHTTP {
		c.httpClient.CloseIdleConnections()
	}
	return nil
}

// SetRequestTimeout changes the per-attempt timeout and returns the timeout in
// effect. Non-positive values are ignored.
func (c *Client) SetRequestTimeout(d time.Duration) time.Duration {
	return c.coordinator.SetRequestTimeout(d)
}

// RequestTimeout returns the current per-attempt timeout.
func (c *Client) RequestTimeout() time.Duration {
	return c.coordinator.RequestTimeout()
}

// SetFailoverTimeout changes how long a failed host stays disabled and
// returns the timeout in effect. Non-positive values are ignored.
func (c *Client) SetFailoverTimeout(d time.Duration) time.Duration {
	return c.coordinator.SetFailoverTimeout(d)
}

// FailoverTimeout returns the current host recovery timeout.
func (c *Client) FailoverTimeout() time.Duration {
	return c.registry.FailoverTimeout()
}

// HostsAvailable returns the hosts that would be tried now, in order.
func (c *Client) HostsAvailable() []hosts.Host {
	return c.registry.Available()
}

// HostsDisabled returns the hosts currently excluded, in order.
func (c *Client) HostsDisabled() []hosts.Host {
	return c.registry.Disabled()
}

// HostStatus returns the available and disabled hosts at a single instant.
func (c *Client) HostStatus() (available, disabled []hosts.Host) {
	return c.registry.Partition()
}

// Registry exposes the host registry.
func (c *Client) Registry() *hosts.Registry {
	return c.registry
}

// Execute runs a caller-supplied operation through the failover coordinator.
func (c *Client) Execute(ctx context.Context, op failover.Operation, opts failover.Options) (any, error) {
	return c.coordinator.Execute(ctx, op, opts)
}

// callOptions returns the coordinator options for endpoint calls.
func (c *Client) callOptions() failover.Options {
	return failover.Options{MaxAttempts: c.cfg.MaxAttempts}
}

// database picks db or falls back to the configured default.
func (c *Client) database(db string) (string, error) {
	if db != "" {
		return db, nil
	}
	if c.cfg.Database != "" {
		return c.cfg.Database, nil
	}
	return "", ErrDatabaseRequired
}

func (c *Client) baseURL(h hosts.Host) string {
	return c.cfg.Protocol + "://" + h.Key()
}
