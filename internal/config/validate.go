package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-sscp/go-sscp/client"
	"github.com/go-sscp/go-sscp/sscp"
)

// Validate checks configuration correctness.
// It does not mutate configuration. Durations use the bounds of the client options.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	c := cfg.Controller
	if c.Host == "" {
		return errors.New("controller: host is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("controller: port %d is out of range [1, 65535]", c.Port)
	}
	if _, err := sscp.ParseStationAddress(c.Station); err != nil {
		return fmt.Errorf("controller: station: %w", err)
	}
	if err := checkDuration("connect_timeout", c.ConnectTimeout, client.MinTimeout, client.MaxConnectTimeout); err != nil {
		return err
	}
	if err := checkDuration("reply_timeout", c.ReplyTimeout, client.MinTimeout, client.MaxReplyTimeout); err != nil {
		return err
	}
	if err := checkDuration("write_timeout", c.WriteTimeout, client.MinTimeout, client.MaxWriteTimeout); err != nil {
		return err
	}
	if err := checkDuration("reconnect_delay", c.ReconnectDelay, client.MinTimeout, client.MaxReconnectDelay); err != nil {
		return err
	}
	if c.ReconnectAttempts < 1 || c.ReconnectAttempts > 10 {
		return fmt.Errorf("controller: reconnect_attempts %d is out of range [1, 10]", c.ReconnectAttempts)
	}

	seen := make(map[string]struct{}, len(cfg.Variables))
	for i, v := range cfg.Variables {
		if v.Name == "" {
			return fmt.Errorf("variables[%d]: name is required", i)
		}
		if _, dup := seen[v.Name]; dup {
			return fmt.Errorf("variables[%d]: duplicate name %q", i, v.Name)
		}
		seen[v.Name] = struct{}{}

		if v.UID == nil {
			if cfg.VList == "" {
				return fmt.Errorf("variable %q: uid is required without a vlist file", v.Name)
			}
			continue
		}

		if _, err := sscp.ParseVariableType(v.Type); err != nil {
			return fmt.Errorf("variable %q: %w", v.Name, err)
		}
	}

	if cfg.Poll.Interval <= 0 {
		return errors.New("poll: interval must be > 0")
	}

	if cfg.MQTT.Enabled {
		if cfg.MQTT.Broker == "" {
			return errors.New("mqtt: broker is required when enabled")
		}
		if cfg.MQTT.Topic == "" {
			return errors.New("mqtt: topic is required when enabled")
		}
		if cfg.MQTT.QoS > 2 {
			return fmt.Errorf("mqtt: qos %d is out of range [0, 2]", cfg.MQTT.QoS)
		}
	}

	return nil
}

func checkDuration(name string, val, minVal, maxVal time.Duration) error {
	if val < minVal || val > maxVal {
		return fmt.Errorf("controller: %s %s is out of range [%s, %s]", name, val, minVal, maxVal)
	}

	return nil
}
