// Package failover executes a request against an unreliable set of hosts.
//
// A Coordinator asks the host registry for the available hosts, tries them in
// configuration order and reacts to each outcome:
//
//   - transport failure or timeout: disable the host, try the next one
//   - application error from a reachable host: return it, no failover
//   - success: mark the host available and return
//
// It never tries more hosts than were available when the call started.
//
//	value, err := failover.Do(ctx, coord, failover.Options{},
//	    func(ctx context.Context, h hosts.Host) (*series.Response, error) {
//	        return client.query(ctx, h, "SELECT value FROM response_time")
//	    })
//
// Each attempt runs in its own goroutine bounded by the request timeout.
// Abandoned attempts finish in the background and their results are dropped.
package failover
