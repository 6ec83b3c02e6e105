// influxctl runs one-shot operations against an InfluxDB 1.x cluster using
// the same host failover as the gateway.
//
//	influxctl --host db1 --host db2:8087 databases
//	influxctl -d metrics query 'SELECT * FROM cpu LIMIT 5'
//	influxctl -d metrics write cpu --tag host=web-1 --field load=0.5
//	influxctl --config configs/influxgw.yaml watch
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
