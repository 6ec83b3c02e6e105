// influxgw - failover gateway for an InfluxDB 1.x cluster.
//
// The gateway keeps a registry of database hosts, sends every request to the
// first available one and fails over on connection errors. Host state
// changes are published to MQTT when a broker is configured, and a JSON API
// lets services without a native client read and write through the cluster.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/influxgw/internal/api"
	"github.com/nerrad567/influxgw/internal/infrastructure/config"
	"github.com/nerrad567/influxgw/internal/infrastructure/logging"
	"github.com/nerrad567/influxgw/internal/infrastructure/mqtt"
	"github.com/nerrad567/influxgw/internal/influx"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/influxgw.yaml"

// startupPingTimeout bounds the initial probe of every host.
const startupPingTimeout = 5 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting influxgw",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"hosts", len(cfg.Influx.Hosts),
		"level", cfg.Logging.Level,
	)

	// Host status notifications are optional.
	var mqttClient *mqtt.Client
	notifier := newStatusNotifier(nil, log)
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() { log.Info("MQTT reconnected") })
		mqttClient.SetOnDisconnect(func(err error) { log.Warn("MQTT disconnected", "error", err) })
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
		notifier = newStatusNotifier(mqttClient, log)
	}

	notifyCtx, stopNotifier := context.WithCancel(ctx)
	notifierDone := make(chan struct{})
	go func() {
		defer close(notifierDone)
		notifier.Run(notifyCtx)
	}()
	defer func() {
		stopNotifier()
		<-notifierDone
	}()

	client, err := influx.New(cfg.Influx,
		influx.WithLogger(log),
		influx.WithOnTransition(notifier.Notify),
	)
	if err != nil {
		return fmt.Errorf("creating influx client: %w", err)
	}
	defer client.Close()

	probeHosts(ctx, client, log)

	if cfg.API.Enabled {
		server, apiErr := api.New(api.Deps{
			Config:  cfg.API,
			Logger:  log,
			Client:  client,
			MQTT:    mqttClient,
			Version: version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := server.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	log.Info("influxgw stopped")
	return nil
}

// probeHosts pings every host once so dead ones are disabled before the
// first request. Failures are logged, never fatal: the registry retries
// disabled hosts on its own.
func probeHosts(ctx context.Context, client *influx.Client, log *logging.Logger) {
	pingCtx, cancel := context.WithTimeout(ctx, startupPingTimeout)
	defer cancel()

	results, err := client.Ping(pingCtx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Warn("startup ping failed", "error", err)
		}
		return
	}

	healthy := 0
	for _, r := range results {
		if r.Healthy {
			healthy++
			continue
		}
		log.Warn("host unreachable at startup", "host", r.Host.Key(), "error", r.Error)
	}
	log.Info("startup ping complete", "healthy", healthy, "hosts", len(results))
}

// getConfigPath returns the configuration file path.
// Uses INFLUXGW_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("INFLUXGW_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
