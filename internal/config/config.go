// Package config loads the YAML configuration of sscpctl.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/go-sscp/go-sscp/client"
	"github.com/go-sscp/go-sscp/logger"
	"github.com/go-sscp/go-sscp/sscp"
	"github.com/go-sscp/go-sscp/vlist"
)

// Config is the configuration of sscpctl.
type Config struct {
	Controller ControllerConfig `yaml:"controller"`
	// VList is the optional .vlist file variables are resolved from by name.
	VList     string           `yaml:"vlist"`
	Variables []VariableConfig `yaml:"variables"`
	Poll      PollConfig       `yaml:"poll"`
	MQTT      MQTTConfig       `yaml:"mqtt"`
	Metrics   MetricsConfig    `yaml:"metrics"`
	Log       LogConfig        `yaml:"log"`
}

// ---- CONTROLLER ----

// ControllerConfig is the SSCP endpoint and the session behavior.
type ControllerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Station  string `yaml:"station"` // hex, e.g. "0x01"
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	ConnectTimeout    time.Duration `yaml:"connect_timeout"`
	ReplyTimeout      time.Duration `yaml:"reply_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	ReconnectAttempts int           `yaml:"reconnect_attempts"`
	ReconnectDelay    time.Duration `yaml:"reconnect_delay"`
}

// ---- VARIABLES ----

// VariableConfig is a variable polled by sscpctl. Without a UID, the variable is looked up
// by name in the .vlist file.
type VariableConfig struct {
	Name   string  `yaml:"name"`
	UID    *uint32 `yaml:"uid"`
	Offset uint32  `yaml:"offset"`
	Length uint32  `yaml:"length"`
	Type   string  `yaml:"type"`
}

// ---- POLL ----

// PollConfig sets the cadence of the poll command.
type PollConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// ---- SINKS ----

// MQTTConfig configures the MQTT sink of polled values.
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker"` // e.g. tcp://localhost:1883
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Topic    string `yaml:"topic"`
	QoS      byte   `yaml:"qos"`
	Retain   bool   `yaml:"retain"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Listen is the address of the Prometheus endpoint, empty disables it.
	Listen string `yaml:"listen"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used for every field the file leaves out.
func Default() *Config {
	return &Config{
		Controller: ControllerConfig{
			Port:              12346,
			Station:           "0x01",
			ConnectTimeout:    3 * time.Second,
			ReplyTimeout:      5 * time.Second,
			WriteTimeout:      3 * time.Second,
			ReconnectAttempts: 1,
			ReconnectDelay:    100 * time.Millisecond,
		},
		Poll: PollConfig{Interval: 5 * time.Second},
		MQTT: MQTTConfig{
			ClientID: "sscpctl",
			Topic:    "sscp",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads the YAML file at path over the defaults.
//
// The result is not validated, so command line overrides can complete it. Call Validate once
// every override is applied.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// ConnOptions converts the controller section into session options.
func (c *ControllerConfig) ConnOptions(l logger.Logger) []client.ConnOption {
	opts := []client.ConnOption{
		client.WithStationAddressHex(c.Station),
		client.WithCredentials(c.Username, c.Password),
		client.WithConnectTimeout(c.ConnectTimeout),
		client.WithReplyTimeout(c.ReplyTimeout),
		client.WithWriteTimeout(c.WriteTimeout),
		client.WithReconnectAttempts(c.ReconnectAttempts),
		client.WithReconnectDelay(c.ReconnectDelay),
	}

	if l != nil {
		opts = append(opts, client.WithLogger(l))
	}

	return opts
}

// ConnectionConfig builds the session configuration of the controller section.
func (c *ControllerConfig) ConnectionConfig(l logger.Logger) (*client.ConnectionConfig, error) {
	return client.NewConnectionConfig(c.Host, c.Port, c.ConnOptions(l)...)
}

// Resolve returns the descriptor of the variable. Variables without a UID are looked up in cat.
func (v *VariableConfig) Resolve(cat *vlist.Catalog) (sscp.Variable, error) {
	if v.UID == nil {
		if cat == nil {
			return sscp.Variable{}, fmt.Errorf("variable %q: no uid and no vlist file", v.Name)
		}

		entry, ok := cat.Lookup(v.Name)
		if !ok {
			return sscp.Variable{}, fmt.Errorf("variable %q: not found in vlist", v.Name)
		}
		if !entry.Supported() {
			return sscp.Variable{}, fmt.Errorf("variable %q: %w: %s", v.Name, sscp.ErrUnsupportedType, entry.TypeName)
		}

		return entry.Variable, nil
	}

	t, err := sscp.ParseVariableType(v.Type)
	if err != nil {
		return sscp.Variable{}, fmt.Errorf("variable %q: %w", v.Name, err)
	}

	length := v.Length
	if length == 0 {
		length = 1
	}

	return sscp.Variable{UID: *v.UID, Offset: v.Offset, Length: length, Type: t}, nil
}
