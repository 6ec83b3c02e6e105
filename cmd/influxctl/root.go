package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/influxgw/internal/infrastructure/config"
	"github.com/nerrad567/influxgw/internal/infrastructure/logging"
	"github.com/nerrad567/influxgw/internal/influx"
)

// cliOptions holds the persistent flags shared by every subcommand.
type cliOptions struct {
	configPath string
	hosts      []string
	database   string
	username   string
	password   string
	timeout    time.Duration
	verbose    bool
}

// newRootCmd builds the command tree. Every call returns a fresh tree so
// tests can run commands in isolation.
func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:           "influxctl",
		Short:         "Run operations against an InfluxDB 1.x cluster with host failover",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to influxgw YAML config")
	flags.StringArrayVar(&opts.hosts, "host", nil, "database host[:port], repeatable; replaces configured hosts")
	flags.StringVarP(&opts.database, "database", "d", "", "default database")
	flags.StringVarP(&opts.username, "username", "u", "", "database username")
	flags.StringVarP(&opts.password, "password", "p", "", "database password")
	flags.DurationVar(&opts.timeout, "timeout", 0, "per-host request timeout (e.g. 5s)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging to stderr")

	root.AddCommand(
		newHostsCmd(opts),
		newPingCmd(opts),
		newQueryCmd(opts),
		newWriteCmd(opts),
		newCreateDBCmd(opts),
		newDropDBCmd(opts),
		newDatabasesCmd(opts),
		newWatchCmd(opts),
	)
	return root
}

// loadConfig resolves configuration: defaults, then the config file if
// given, then flags.
func (o *cliOptions) loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if len(o.hosts) > 0 {
		cfg.Influx.Hosts = nil
		for _, h := range o.hosts {
			parsed, err := config.ParseHostList(h)
			if err != nil {
				return nil, fmt.Errorf("--host: %w", err)
			}
			cfg.Influx.Hosts = append(cfg.Influx.Hosts, parsed...)
		}
	}
	for i := range cfg.Influx.Hosts {
		if cfg.Influx.Hosts[i].Port == 0 {
			cfg.Influx.Hosts[i].Port = config.DefaultInfluxPort
		}
	}
	if o.database != "" {
		cfg.Influx.Database = o.database
	}
	if o.username != "" {
		cfg.Influx.Username = o.username
	}
	if o.password != "" {
		cfg.Influx.Password = o.password
	}
	if o.timeout != 0 {
		if o.timeout < time.Millisecond {
			return nil, fmt.Errorf("--timeout must be at least 1ms, got %s", o.timeout)
		}
		cfg.Influx.RequestTimeout = int(o.timeout.Milliseconds())
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// client builds an influx client from the resolved configuration.
func (o *cliOptions) client(cmd *cobra.Command) (*influx.Client, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return influx.New(cfg.Influx, influx.WithLogger(o.logger(cmd)))
}

func (o *cliOptions) logger(cmd *cobra.Command) *logging.Logger {
	if !o.verbose {
		return logging.Discard()
	}
	return logging.NewWithWriter(config.LoggingConfig{Level: "debug", Format: "text"}, version, cmd.ErrOrStderr())
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
