package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nerrad567/influxgw/internal/infrastructure/mqtt"
)

func newWatchCmd(opts *cliOptions) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print host status changes published by the gateway",
		Long: `Subscribes to the gateway's host status topics on the MQTT broker from
the config file and prints one line per change until interrupted. Retained
messages are shown first, so the current state of every host is printed on
start. With --all, system status messages are printed too.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if !cfg.MQTT.Enabled {
				return errors.New("mqtt is not enabled in the configuration")
			}

			// A distinct client ID keeps the gateway's session intact.
			cfg.MQTT.Broker.ClientID = fmt.Sprintf("%s-watch-%s", cfg.MQTT.Broker.ClientID, uuid.NewString()[:8])
			client, err := mqtt.ConnectObserver(cfg.MQTT)
			if err != nil {
				return err
			}
			defer client.Close()
			logger := opts.logger(cmd)
			client.SetLogger(logger)

			topic := mqtt.Topics{}.AllHostStatuses()
			if all {
				topic = mqtt.Topics{}.AllTopics()
			}
			out := cmd.OutOrStdout()
			err = client.Subscribe(topic, byte(cfg.MQTT.QoS), func(topic string, payload []byte) error {
				line, err := formatMessage(topic, payload)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, line)
				return nil
			})
			if err != nil {
				return err
			}

			<-cmd.Context().Done()
			if err := client.Unsubscribe(topic); err != nil {
				logger.Warn("unsubscribe failed", "topic", topic, "error", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "also print gateway system status messages")
	return cmd
}

// formatMessage renders one message from the gateway. Host statuses are
// decoded; anything else is printed as topic and raw payload.
func formatMessage(topic string, payload []byte) (string, error) {
	if strings.HasPrefix(topic, mqtt.TopicPrefixHosts+"/") && strings.HasSuffix(topic, "/status") {
		return formatStatus(payload)
	}
	return fmt.Sprintf("%s %s", topic, payload), nil
}

// formatStatus renders one host status message as a single line.
func formatStatus(payload []byte) (string, error) {
	var p mqtt.HostStatusPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return "", fmt.Errorf("decoding host status: %w", err)
	}
	line := fmt.Sprintf("%s %s:%d %s -> %s (%s)",
		p.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"), p.Host, p.Port, p.Previous, p.Status, p.Reason)
	return line, nil
}
