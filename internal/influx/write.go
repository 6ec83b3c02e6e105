package influx

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	lp "github.com/influxdata/line-protocol"

	"github.com/nerrad567/influxgw/internal/failover"
	"github.com/nerrad567/influxgw/internal/hosts"
)

// timeField is the field name that carries a point's timestamp.
const timeField = "time"

// Point is one row to write.
//
// Tags override the batch-level tags passed to the write call. A zero Time
// lets the server assign the timestamp.
type Point struct {
	Fields map[string]any    `json:"fields"`
	Tags   map[string]string `json:"tags,omitempty"`
	Time   time.Time         `json:"time,omitempty"`
}

// WritePoint writes a single point to measurement.
//
// A "time" entry in fields holding a time.Time is used as the timestamp and
// is not written as a field.
//
// Example:
//
//	client.WritePoint(ctx, "metrics", "response_time",
//	    map[string]any{"value": 232, "sequence_number": 23169},
//	    map[string]string{"host": "web-1"})
func (c *Client) WritePoint(ctx context.Context, db, measurement string, fields map[string]any, tags map[string]string) error {
	return c.WritePoints(ctx, db, measurement, []Point{pointFromFields(fields)}, tags)
}

// WritePoints writes several points to one measurement in a single request.
func (c *Client) WritePoints(ctx context.Context, db, measurement string, points []Point, tags map[string]string) error {
	return c.WriteSeries(ctx, db, map[string][]Point{measurement: points}, tags)
}

// WriteSeries writes points for several measurements in a single request.
// Measurements are encoded in name order.
//
// Parameters:
//   - ctx: Context for cancellation
//   - db: Target database; empty uses the configured default
//   - data: Points per measurement
//   - tags: Tags applied to every point unless the point sets the same key
//
// Returns:
//   - error: Validation errors before any host is contacted, otherwise failover errors
func (c *Client) WriteSeries(ctx context.Context, db string, data map[string][]Point, tags map[string]string) error {
	db, err := c.database(db)
	if err != nil {
		return err
	}

	payload, count, err := c.encode(data, tags)
	if err != nil {
		return err
	}

	params := url.Values{}
	params.Set("db", db)
	params.Set("precision", precisionParam(writePrecision(c.precision)))

	_, err = failover.Do(ctx, c.coordinator, c.callOptions(), func(ctx context.Context, host hosts.Host) (struct{}, error) {
		_, _, err := c.send(ctx, host, request{
			method:      http.MethodPost,
			path:        "/write",
			params:      params,
			body:        payload,
			contentType: "text/plain; charset=utf-8",
		})
		return struct{}{}, err
	})
	if err != nil {
		return err
	}

	c.logger.Debug("points written", "db", db, "points", count, "bytes", len(payload))
	return nil
}

// encode renders data as newline-delimited line protocol.
func (c *Client) encode(data map[string][]Point, tags map[string]string) ([]byte, int, error) {
	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	enc := lp.NewEncoder(&buf)
	enc.SetFieldTypeSupport(lp.UintSupport)
	enc.FailOnFieldErr(true)
	enc.SetPrecision(writePrecision(c.precision))

	count := 0
	for _, name := range names {
		if name == "" {
			return nil, 0, fmt.Errorf("%w: measurement", ErrEmptyName)
		}
		for i, p := range data[name] {
			if len(p.Fields) == 0 {
				return nil, 0, fmt.Errorf("%w: %s[%d]", ErrNoFields, name, i)
			}
			point := write.NewPoint(name, mergeTags(tags, p.Tags), p.Fields, p.Time)
			if _, err := enc.Encode(point); err != nil {
				return nil, 0, fmt.Errorf("encoding %s[%d]: %w", name, i, err)
			}
			count++
		}
	}
	if count == 0 {
		return nil, 0, ErrNoPoints
	}
	return buf.Bytes(), count, nil
}

// pointFromFields splits a "time" entry out of fields.
func pointFromFields(fields map[string]any) Point {
	ts, ok := fields[timeField].(time.Time)
	if !ok {
		return Point{Fields: fields}
	}
	rest := make(map[string]any, len(fields)-1)
	for k, v := range fields {
		if k != timeField {
			rest[k] = v
		}
	}
	return Point{Fields: rest, Time: ts}
}

func mergeTags(base, override map[string]string) map[string]string {
	if len(override) == 0 {
		return base
	}
	merged := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}

// writePrecision clamps p to what the line protocol encoder can render.
func writePrecision(p time.Duration) time.Duration {
	if p > time.Second {
		return time.Second
	}
	return p
}
