package influx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nerrad567/influxgw/internal/failover"
	"github.com/nerrad567/influxgw/internal/hosts"
	"github.com/nerrad567/influxgw/internal/series"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 64 << 20

// request is one HTTP exchange with a single host.
type request struct {
	method      string
	path        string
	params      url.Values
	body        []byte
	contentType string
}

// send performs req against host and classifies the outcome.
//
// Returns the status code and body for 2xx answers. Connection errors and
// gateway statuses come back as *failover.TransportError; every other non-2xx
// answer is a *failover.ApplicationError.
func (c *Client) send(ctx context.Context, host hosts.Host, req request) (int, []byte, error) {
	endpoint := c.baseURL(host) + req.path
	if len(req.params) > 0 {
		endpoint += "?" + req.params.Encode()
	}

	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, body)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if c.cfg.Username != "" {
		httpReq.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, &failover.TransportError{Host: host, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck // read-only response body

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, &failover.TransportError{Host: host, Err: fmt.Errorf("reading response: %w", err)}
	}

	switch {
	case isGatewayStatus(resp.StatusCode):
		return 0, nil, &failover.TransportError{
			Host: host,
			Err:  fmt.Errorf("HTTP %d: %s", resp.StatusCode, errorMessage(resp.StatusCode, data)),
		}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return 0, nil, &failover.ApplicationError{
			Host:       host,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.StatusCode, data),
		}
	}
	return resp.StatusCode, data, nil
}

func isGatewayStatus(code int) bool {
	switch code {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// errorMessage extracts {"error": "..."} from body, falling back to the
// trimmed body text and then the status text.
func errorMessage(code int, body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return http.StatusText(code)
}

// query runs one InfluxQL statement through the coordinator.
//
// Read statements use GET; statements that change state use POST as
// InfluxDB 1.x requires.
func (c *Client) query(ctx context.Context, method, db, q string) (*series.Response, error) {
	params := url.Values{}
	params.Set("q", q)
	if db != "" {
		params.Set("db", db)
	}
	params.Set("epoch", precisionParam(c.precision))

	started := time.Now()
	raw, err := failover.Do(ctx, c.coordinator, c.callOptions(), func(ctx context.Context, host hosts.Host) (*series.Response, error) {
		status, body, err := c.send(ctx, host, request{method: method, path: "/query", params: params})
		if err != nil {
			return nil, err
		}
		raw, err := series.Decode(bytes.NewReader(body))
		if err != nil {
			return nil, &failover.TransportError{Host: host, Err: err}
		}
		if msg := raw.Error(); msg != "" {
			return nil, &failover.ApplicationError{Host: host, StatusCode: status, Message: msg}
		}
		return raw, nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("query complete",
		"db", db,
		"method", method,
		"duration", time.Since(started),
	)
	return raw, nil
}

// exec runs a statement that changes server state and discards its result.
func (c *Client) exec(ctx context.Context, db, q string) error {
	_, err := c.query(ctx, http.MethodPost, db, q)
	return err
}

// precisionParam returns the InfluxDB 1.x name for a precision.
func precisionParam(d time.Duration) string {
	switch d {
	case time.Nanosecond:
		return "n"
	case time.Microsecond:
		return "u"
	case time.Second:
		return "s"
	case time.Minute:
		return "m"
	case time.Hour:
		return "h"
	default:
		return "ms"
	}
}
