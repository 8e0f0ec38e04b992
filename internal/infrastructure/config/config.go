package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the Gray Logic AV routing service.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site     SiteConfig     `yaml:"site"`
	Database DatabaseConfig `yaml:"database"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	API      APIConfig      `yaml:"api"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
	Routing  RoutingConfig  `yaml:"routing"`
}

// SiteConfig contains site-specific information.
type SiteConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
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

// MQTTReconnectConfig contains MQTT reconnection settings, in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings, in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`

	// Output is "stdout", "stderr" or "file". File output appends to File.
	Output string `yaml:"output"`
	File   string `yaml:"file"`
}

// RoutingConfig describes the AV system: where the connection list comes
// from and which device controls exist.
type RoutingConfig struct {
	// ConnectionsFile is an optional XML connection list imported at startup.
	ConnectionsFile string `yaml:"connections_file"`

	// ReplaceOnImport replaces the stored connections with the file's contents.
	// When false the file is only imported into an empty database.
	ReplaceOnImport bool `yaml:"replace_on_import"`

	Controls []ControlConfig `yaml:"controls"`
}

// Control kinds.
const (
	ControlKindSource      = "source"
	ControlKindDestination = "destination"
	ControlKindSwitcher    = "switcher"
)

// ControlConfig declares one device control.
type ControlConfig struct {
	Device  int          `yaml:"device"`
	Control int          `yaml:"control"`
	Name    string       `yaml:"name"`
	Kind    string       `yaml:"kind"`
	Inputs  []PortConfig `yaml:"inputs"`
	Outputs []PortConfig `yaml:"outputs"`
}

// PortConfig declares one input or output of a control.
// Type uses the connection-type flag list form, e.g. "Audio, Video".
type PortConfig struct {
	Address int    `yaml:"address"`
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: GRAYLOGIC_AV_SECTION_KEY
// For example: GRAYLOGIC_AV_DATABASE_PATH, GRAYLOGIC_AV_API_PORT
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:   "site-001",
			Name: "Gray Logic AV",
		},
		Database: DatabaseConfig{
			Path:        "./data/graylogic-av.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "graylogic-av",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8090,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		InfluxDB: InfluxDBConfig{
			Bucket:        "av",
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) error {
	strs := map[string]*string{
		"GRAYLOGIC_AV_DATABASE_PATH":            &cfg.Database.Path,
		"GRAYLOGIC_AV_MQTT_HOST":                &cfg.MQTT.Broker.Host,
		"GRAYLOGIC_AV_MQTT_USERNAME":            &cfg.MQTT.Auth.Username,
		"GRAYLOGIC_AV_MQTT_PASSWORD":            &cfg.MQTT.Auth.Password,
		"GRAYLOGIC_AV_API_HOST":                 &cfg.API.Host,
		"GRAYLOGIC_AV_INFLUXDB_URL":             &cfg.InfluxDB.URL,
		"GRAYLOGIC_AV_INFLUXDB_TOKEN":           &cfg.InfluxDB.Token,
		"GRAYLOGIC_AV_LOG_LEVEL":                &cfg.Logging.Level,
		"GRAYLOGIC_AV_ROUTING_CONNECTIONS_FILE": &cfg.Routing.ConnectionsFile,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"GRAYLOGIC_AV_MQTT_PORT": &cfg.MQTT.Broker.Port,
		"GRAYLOGIC_AV_API_PORT":  &cfg.API.Port,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", key, err)
			}
			*dst = n
		}
	}

	bools := map[string]*bool{
		"GRAYLOGIC_AV_MQTT_ENABLED":     &cfg.MQTT.Enabled,
		"GRAYLOGIC_AV_INFLUXDB_ENABLED": &cfg.InfluxDB.Enabled,
	}
	for key, dst := range bools {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", key, err)
			}
			*dst = b
		}
	}
	return nil
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled && c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	switch strings.ToLower(c.Logging.Output) {
	case "", "stdout", "stderr":
	case "file":
		if c.Logging.File == "" {
			errs = append(errs, "logging.file is required when logging.output is file")
		}
	default:
		errs = append(errs, fmt.Sprintf("logging.output %q is not stdout, stderr or file", c.Logging.Output))
	}

	errs = append(errs, c.Routing.validate()...)

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

func (r RoutingConfig) validate() []string {
	var errs []string
	seen := make(map[[2]int]bool, len(r.Controls))

	for i, c := range r.Controls {
		prefix := fmt.Sprintf("routing.controls[%d]", i)
		key := [2]int{c.Device, c.Control}
		if seen[key] {
			errs = append(errs, fmt.Sprintf("%s: duplicate control %d:%d", prefix, c.Device, c.Control))
		}
		seen[key] = true

		switch c.Kind {
		case ControlKindSource:
			if len(c.Inputs) > 0 {
				errs = append(errs, prefix+": a source has no inputs")
			}
		case ControlKindDestination:
			if len(c.Outputs) > 0 {
				errs = append(errs, prefix+": a destination has no outputs")
			}
		case ControlKindSwitcher:
		default:
			errs = append(errs, fmt.Sprintf("%s: kind %q is not source, destination or switcher", prefix, c.Kind))
		}

		for _, ports := range [][]PortConfig{c.Inputs, c.Outputs} {
			addrs := make(map[int]bool, len(ports))
			for _, p := range ports {
				if addrs[p.Address] {
					errs = append(errs, fmt.Sprintf("%s: duplicate port address %d", prefix, p.Address))
				}
				addrs[p.Address] = true
				if strings.TrimSpace(p.Type) == "" {
					errs = append(errs, fmt.Sprintf("%s: port %d has no type", prefix, p.Address))
				}
			}
		}
	}
	return errs
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
