package influx

import (
	"context"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/influxgw/internal/hosts"
)

// PingResult is the outcome of probing one host.
type PingResult struct {
	Host    hosts.Host    `json:"host"`
	Healthy bool          `json:"healthy"`
	Latency time.Duration `json:"latency_ns"`
	Error   string        `json:"error,omitempty"`
}

// Ping probes every configured host concurrently, including disabled ones.
//
// A healthy answer marks the host available; a failed probe disables it. The
// probes bypass the coordinator, so Ping doubles as an active health check
// that can bring a host back before its failover timeout expires.
//
// Returns:
//   - []PingResult: One entry per configured host, in configuration order
//   - error: Only if ctx is cancelled before the probes finish
func (c *Client) Ping(ctx context.Context) ([]PingResult, error) {
	all := c.registry.Hosts()
	results := make([]PingResult, len(all))
	timeout := c.RequestTimeout()

	g, gctx := errgroup.WithContext(ctx)
	for i, host := range all {
		i, host := i, host
		g.Go(func() error {
			results[i] = c.pingHost(gctx, host, timeout)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, r := range results {
		if r.Healthy {
			c.registry.MarkAvailable(r.Host)
		} else {
			c.registry.MarkDisabled(r.Host, c.registry.Now())
		}
	}
	return results, nil
}

func (c *Client) pingHost(ctx context.Context, host hosts.Host, timeout time.Duration) PingResult {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client := influxdb2.NewClientWithOptions(c.baseURL(host), c.authToken(),
		influxdb2.DefaultOptions().SetHTTPClient(c.httpClient))
	defer client.Close()

	started := time.Now()
	healthy, err := client.Ping(pingCtx)
	result := PingResult{Host: host, Healthy: healthy && err == nil, Latency: time.Since(started)}
	if err != nil {
		result.Error = err.Error()
		c.logger.Debug("ping failed", "host", host.Key(), "error", err)
	}
	return result
}

// authToken returns the v1 compatibility token "username:password" used by
// the influxdb2 client.
func (c *Client) authToken() string {
	if c.cfg.Username == "" {
		return ""
	}
	return c.cfg.Username + ":" + c.cfg.Password
}
