package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultInfluxPort is used for hosts configured without an explicit port.
const DefaultInfluxPort = 8086

// Config is the root configuration structure for influxgw.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Influx  InfluxConfig  `yaml:"influx"`
	API     APIConfig     `yaml:"api"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Logging LoggingConfig `yaml:"logging"`
}

// InfluxConfig contains the database cluster connection settings.
type InfluxConfig struct {
	Hosts    []HostConfig `yaml:"hosts"`
	Protocol string       `yaml:"protocol"`
	Username string       `yaml:"username"`
	Password string       `yaml:"password"`
	Database string       `yaml:"database"`

	// Precision is the timestamp precision used for writes and query epochs:
	// one of n, u, ms, s, m, h.
	Precision string `yaml:"precision"`

	// RequestTimeout bounds a single attempt against one host (milliseconds).
	RequestTimeout int `yaml:"request_timeout_ms"`

	// FailoverTimeout is how long a failed host stays excluded (milliseconds).
	FailoverTimeout int `yaml:"failover_timeout_ms"`

	// MaxAttempts caps the hosts tried per operation. 0 means every available host.
	MaxAttempts int `yaml:"max_attempts"`
}

// HostConfig is a single database node.
type HostConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// APIConfig contains HTTP gateway settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// MQTTConfig contains MQTT broker connection settings for host status events.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: INFLUXGW_SECTION_KEY
// For example: INFLUXGW_INFLUX_HOSTS, INFLUXGW_API_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}
	cfg.Influx.applyHostDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with sensible defaults.
//
// The host list is empty; callers must supply at least one host.
func Default() *Config {
	return &Config{
		Influx: InfluxConfig{
			Protocol:        "http",
			Precision:       "ms",
			RequestTimeout:  10000,
			FailoverTimeout: 60000,
		},
		API: APIConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    8087,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "influxgw",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: INFLUXGW_SECTION_KEY
func applyEnvOverrides(cfg *Config) error {
	// Influx
	if v := os.Getenv("INFLUXGW_INFLUX_HOSTS"); v != "" {
		hosts, err := ParseHostList(v)
		if err != nil {
			return fmt.Errorf("INFLUXGW_INFLUX_HOSTS: %w", err)
		}
		cfg.Influx.Hosts = hosts
	}
	if v := os.Getenv("INFLUXGW_INFLUX_USERNAME"); v != "" {
		cfg.Influx.Username = v
	}
	if v := os.Getenv("INFLUXGW_INFLUX_PASSWORD"); v != "" {
		cfg.Influx.Password = v
	}
	if v := os.Getenv("INFLUXGW_INFLUX_DATABASE"); v != "" {
		cfg.Influx.Database = v
	}

	// API
	if v := os.Getenv("INFLUXGW_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// MQTT
	if v := os.Getenv("INFLUXGW_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("INFLUXGW_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("INFLUXGW_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	return nil
}

// ParseHostList parses a comma separated list of host[:port] entries.
// Entries without a port get port 0, which is later replaced by DefaultInfluxPort.
func ParseHostList(s string) ([]HostConfig, error) {
	var hosts []HostConfig
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		h, err := ParseHost(part)
		if err != nil {
			return nil, err
		}
		hosts = append(hosts, h)
	}
	return hosts, nil
}

// ParseHost parses a single host[:port] entry.
func ParseHost(s string) (HostConfig, error) {
	if !strings.Contains(s, ":") || strings.HasSuffix(s, "]") {
		return HostConfig{Host: strings.Trim(s, "[]")}, nil
	}
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return HostConfig{}, fmt.Errorf("invalid host %q: %w", s, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return HostConfig{}, fmt.Errorf("invalid port in %q: %w", s, err)
	}
	return HostConfig{Host: host, Port: port}, nil
}

// applyHostDefaults fills in the default port for hosts that omit one.
func (c *InfluxConfig) applyHostDefaults() {
	for i := range c.Hosts {
		if c.Hosts[i].Port == 0 {
			c.Hosts[i].Port = DefaultInfluxPort
		}
	}
}

// validPrecisions maps precision names to their durations.
var validPrecisions = map[string]time.Duration{
	"n":  time.Nanosecond,
	"ns": time.Nanosecond,
	"u":  time.Microsecond,
	"ms": time.Millisecond,
	"s":  time.Second,
	"m":  time.Minute,
	"h":  time.Hour,
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Influx validation
	if len(c.Influx.Hosts) == 0 {
		errs = append(errs, "influx.hosts must contain at least one host")
	}
	seen := make(map[string]bool, len(c.Influx.Hosts))
	for i, h := range c.Influx.Hosts {
		if h.Host == "" {
			errs = append(errs, fmt.Sprintf("influx.hosts[%d].host is required", i))
		}
		if h.Port < 1 || h.Port > 65535 {
			errs = append(errs, fmt.Sprintf("influx.hosts[%d].port must be between 1 and 65535", i))
		}
		key := net.JoinHostPort(h.Host, strconv.Itoa(h.Port))
		if seen[key] {
			errs = append(errs, fmt.Sprintf("influx.hosts[%d] duplicates %s", i, key))
		}
		seen[key] = true
	}
	if c.Influx.Protocol != "http" && c.Influx.Protocol != "https" {
		errs = append(errs, "influx.protocol must be http or https")
	}
	if _, ok := validPrecisions[c.Influx.Precision]; !ok {
		errs = append(errs, "influx.precision must be one of n, u, ms, s, m, h")
	}
	if c.Influx.RequestTimeout <= 0 {
		errs = append(errs, "influx.request_timeout_ms must be positive")
	}
	if c.Influx.FailoverTimeout <= 0 {
		errs = append(errs, "influx.failover_timeout_ms must be positive")
	}
	if c.Influx.MaxAttempts < 0 {
		errs = append(errs, "influx.max_attempts must not be negative")
	}

	// API validation
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// MQTT validation
	if c.MQTT.Enabled {
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, "mqtt.qos must be 0, 1, or 2")
		}
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetRequestTimeout returns the per-attempt timeout as a Duration.
func (c InfluxConfig) GetRequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Millisecond
}

// GetFailoverTimeout returns the host recovery timeout as a Duration.
func (c InfluxConfig) GetFailoverTimeout() time.Duration {
	return time.Duration(c.FailoverTimeout) * time.Millisecond
}

// GetPrecision returns the configured timestamp precision as a Duration.
// Unknown values fall back to milliseconds.
func (c InfluxConfig) GetPrecision() time.Duration {
	if d, ok := validPrecisions[c.Precision]; ok {
		return d
	}
	return time.Millisecond
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c APIConfig) GetReadTimeout() time.Duration {
	return time.Duration(c.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c APIConfig) GetWriteTimeout() time.Duration {
	return time.Duration(c.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c APIConfig) GetIdleTimeout() time.Duration {
	return time.Duration(c.Timeouts.Idle) * time.Second
}
