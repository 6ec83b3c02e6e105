// Package hosts tracks which configured database nodes may receive requests.
//
// Each host is either available or disabled since a point in time. A disabled
// host becomes available again once the failover timeout has elapsed; the
// check is a predicate over the stored timestamp evaluated on every read, so
// no timer or goroutine is involved.
//
//	reg, err := hosts.New([]hosts.Host{
//	    {Name: "10.0.0.1", Port: 8086},
//	    {Name: "10.0.0.2", Port: 8086},
//	}, hosts.WithFailoverTimeout(time.Minute))
//
//	reg.MarkDisabled(h, reg.Now())
//	reg.Available() // h is excluded for one minute
package hosts
