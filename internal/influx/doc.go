// Package influx is the endpoint layer of the failover client.
//
// Each method builds one InfluxDB 1.x HTTP request (a /query statement, a
// /write batch or a /ping probe) and hands it to the failover coordinator,
// which picks the host. The package owns the classification of responses:
//
//   - network errors, deadlines and HTTP 502/503/504 are transport failures
//     and move the request to the next host
//   - any other non-2xx answer, and a 2xx answer whose body carries an
//     "error" field, is a *failover.ApplicationError returned to the caller
//
// Usage:
//
//	client, err := influx.New(cfg.Influx, influx.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	result, err := client.QueryNormalized(ctx, "metrics", "SELECT * FROM response_time")
//
// Writes are encoded as line protocol using the influxdb-client-go point
// model. Identifiers in generated statements are double-quoted and string
// literals single-quoted.
package influx
