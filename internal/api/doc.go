// Package api implements the HTTP gateway for influxgw.
//
// The gateway puts the failover client behind a small JSON API so that
// services without a native client can read and write through the cluster:
//
//	GET  /api/v1/health      liveness, host counts, broker state
//	GET  /api/v1/hosts       available and disabled hosts
//	GET  /api/v1/ping        probe every host, reviving healthy ones
//	PUT  /api/v1/timeouts    change request and failover timeouts
//	POST /api/v1/query       run InfluxQL, answer with the normalized result
//	POST /api/v1/write       write points to one measurement
//	GET  /api/v1/databases   list databases (also POST, DELETE /{name})
//
// # Errors
//
// Every error body has the shape {"status", "code", "message"}. Database
// errors keep their 4xx status. Losing every host gives 503, an unreadable
// answer 502.
//
// The server follows the same lifecycle as the other components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
