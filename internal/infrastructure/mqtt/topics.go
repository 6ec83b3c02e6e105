package mqtt

import (
	"fmt"
	"strings"
)

// Topic prefixes for influxgw MQTT messages.
//
// Host topics use the scheme: influxgw/hosts/{host}/{port}/status
const (
	// TopicPrefix is the base for every influxgw topic.
	TopicPrefix = "influxgw"

	// TopicPrefixHosts is the base for per-host topics.
	TopicPrefixHosts = "influxgw/hosts"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "influxgw/system"
)

// Topics provides builders for influxgw MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	statusTopic := topics.HostStatus("db1.example.com", 8086)
//	// Returns: "influxgw/hosts/db1.example.com/8086/status"
type Topics struct{}

// HostStatus returns the retained status topic for one database host.
//
// Characters that are special in MQTT topic names ('/', '+', '#') are
// replaced with '_' so IPv6 literals and odd hostnames stay one level.
//
// Example: influxgw/hosts/10.0.0.5/8086/status
func (Topics) HostStatus(host string, port int) string {
	return fmt.Sprintf("%s/%s/%d/status", TopicPrefixHosts, topicLevel(host), port)
}

// SystemStatus returns the topic for gateway online/offline status.
//
// Example: influxgw/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// AllHostStatuses returns a wildcard topic matching every host status.
//
// Pattern: influxgw/hosts/+/+/status
func (Topics) AllHostStatuses() string {
	return TopicPrefixHosts + "/+/+/status"
}

// AllTopics returns a wildcard topic matching all influxgw messages.
//
// Pattern: influxgw/#
func (Topics) AllTopics() string {
	return TopicPrefix + "/#"
}

var topicLevelReplacer = strings.NewReplacer("/", "_", "+", "_", "#", "_")

func topicLevel(s string) string {
	if s == "" {
		return "_"
	}
	return topicLevelReplacer.Replace(s)
}
