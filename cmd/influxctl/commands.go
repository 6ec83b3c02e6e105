package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/influxgw/internal/influx"
)

func newHostsCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "hosts",
		Short: "List configured hosts in failover order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := opts.client(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "INDEX\tHOST\tPORT\tSTATE")
			for _, h := range client.Registry().Hosts() {
				st, _ := client.Registry().Status(h)
				fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", h.Index, h.Name, h.Port, st.State)
			}
			return tw.Flush()
		},
	}
}

func newPingCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Probe every host and report health and latency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := opts.client(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			results, err := client.Ping(cmd.Context())
			if err != nil {
				return err
			}

			healthy := 0
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "HOST\tHEALTHY\tLATENCY\tERROR")
			for _, r := range results {
				if r.Healthy {
					healthy++
				}
				fmt.Fprintf(tw, "%s\t%t\t%s\t%s\n", r.Host.Key(), r.Healthy, r.Latency.Round(time.Microsecond), r.Error)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if healthy == 0 {
				return fmt.Errorf("no healthy hosts")
			}
			return nil
		},
	}
}

func newQueryCmd(opts *cliOptions) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "query <statement>",
		Short: "Run an InfluxQL statement and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			if raw {
				resp, err := client.Query(cmd.Context(), "", args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), resp)
			}
			result, err := client.QueryNormalized(cmd.Context(), "", args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the columnar response instead of the normalized result")
	return cmd
}

func newWriteCmd(opts *cliOptions) *cobra.Command {
	var (
		tags   []string
		fields []string
		at     string
	)
	cmd := &cobra.Command{
		Use:   "write <measurement>",
		Short: "Write one point",
		Example: `  influxctl -d metrics write cpu --tag host=web-1 --field load=0.5 --field cores=8i
  influxctl -d metrics write events --field msg='"deploy done"' --time 2024-05-01T12:00:00Z`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tagMap, err := parseTags(tags)
			if err != nil {
				return err
			}
			point := influx.Point{Fields: make(map[string]any, len(fields))}
			for _, f := range fields {
				k, v, ok := strings.Cut(f, "=")
				if !ok || k == "" {
					return fmt.Errorf("--field %q: want key=value", f)
				}
				point.Fields[k] = parseFieldValue(v)
			}
			if at != "" {
				ts, err := time.Parse(time.RFC3339Nano, at)
				if err != nil {
					return fmt.Errorf("--time: %w", err)
				}
				point.Time = ts
			}

			client, err := opts.client(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.WritePoints(cmd.Context(), "", args[0], []influx.Point{point}, tagMap); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&tags, "tag", nil, "tag key=value, repeatable")
	cmd.Flags().StringArrayVar(&fields, "field", nil, "field key=value, repeatable (1i integer, 1.5 float, true bool, anything else string)")
	cmd.Flags().StringVar(&at, "time", "", "RFC3339 timestamp; omitted lets the server assign one")
	return cmd
}

func newCreateDBCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create-db <name>",
		Short: "Create a database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.CreateDatabase(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", args[0])
			return nil
		},
	}
}

func newDropDBCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "drop-db <name>",
		Short: "Delete a database and all of its data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.DropDatabase(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "dropped %s\n", args[0])
			return nil
		},
	}
}

func newDatabasesCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "databases",
		Short: "List databases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := opts.client(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			names, err := client.Databases(cmd.Context())
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

// parseTags turns key=value pairs into a map.
func parseTags(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	tags := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("--tag %q: want key=value", p)
		}
		tags[k] = v
	}
	return tags, nil
}

// parseFieldValue reads a field value using line protocol conventions:
// a trailing i marks an integer, true/false are booleans, other numbers are
// floats and everything else is a string. Double quotes force a string.
func parseFieldValue(s string) any {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	if strings.HasSuffix(s, "i") {
		if n, err := strconv.ParseInt(strings.TrimSuffix(s, "i"), 10, 64); err == nil {
			return n
		}
	}
	if s == "true" || s == "false" {
		return s == "true"
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
