package client

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/go-sscp/go-sscp/logger"
	"github.com/go-sscp/go-sscp/sscp"
)

// ErrConnConfigNil indicates that a nil ConnectionConfig was provided.
var ErrConnConfigNil = errors.New("connection config is nil")

const (
	// MinTimeout is the lower bound of every timeout option.
	MinTimeout = 10 * time.Millisecond

	// MaxConnectTimeout is the upper bound of WithConnectTimeout.
	MaxConnectTimeout = 60 * time.Second
	// MaxReplyTimeout is the upper bound of WithReplyTimeout.
	MaxReplyTimeout = 120 * time.Second
	// MaxWriteTimeout is the upper bound of WithWriteTimeout.
	MaxWriteTimeout = 60 * time.Second

	// MaxReconnectDelay caps the exponential backoff between reconnection attempts.
	MaxReconnectDelay = 5 * time.Second
)

// ConnectionConfig represents the endpoint and the behavior of an SSCP session.
//
// A ConnectionConfig is immutable once created: the endpoint of a session never changes.
type ConnectionConfig struct {
	// host of the controller.
	host string
	// port is the TCP port of the controller.
	port int
	// address is the SSCP station address of the controller.
	// Defaults to 0x01.
	address byte

	username string
	password string

	// connectTimeout bounds the TCP dial. Defaults to 3 seconds.
	connectTimeout time.Duration
	// replyTimeout bounds the whole read of a reply frame. Defaults to 5 seconds.
	replyTimeout time.Duration
	// writeTimeout bounds the write of a request frame. Defaults to 3 seconds.
	writeTimeout time.Duration

	// reconnectAttempts is the number of connect and login sequences tried when the
	// connection breaks. Defaults to 1.
	reconnectAttempts int
	// reconnectDelay is the wait before the second attempt, doubled for every following one.
	// Defaults to 100 milliseconds.
	reconnectDelay time.Duration

	logger logger.Logger
}

// NewConnectionConfig creates a configuration for the controller at host:port, customized by opts.
//
// It returns an error if the host or port is invalid, or if any option fails its validation.
func NewConnectionConfig(host string, port int, opts ...ConnOption) (*ConnectionConfig, error) {
	cfg := &ConnectionConfig{
		address:           0x01,
		connectTimeout:    3 * time.Second,
		replyTimeout:      5 * time.Second,
		writeTimeout:      3 * time.Second,
		reconnectAttempts: 1,
		reconnectDelay:    100 * time.Millisecond,
		logger:            logger.GetLogger(),
	}

	if err := withHost(host).apply(cfg); err != nil {
		return nil, err
	}

	if err := withPort(port).apply(cfg); err != nil {
		return nil, err
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Host returns the controller host.
func (cfg *ConnectionConfig) Host() string { return cfg.host }

// Port returns the controller TCP port.
func (cfg *ConnectionConfig) Port() int { return cfg.port }

// StationAddress returns the SSCP station address.
func (cfg *ConnectionConfig) StationAddress() byte { return cfg.address }

// Username returns the login user name.
func (cfg *ConnectionConfig) Username() string { return cfg.username }

// ReplyTimeout returns the reply timeout.
func (cfg *ConnectionConfig) ReplyTimeout() time.Duration { return cfg.replyTimeout }

// ConnOption represents a functional option for configuring a ConnectionConfig.
type ConnOption interface {
	apply(*ConnectionConfig) error
}

type connOptFunc struct {
	name      string
	applyFunc func(*ConnectionConfig) error
}

func (c *connOptFunc) apply(cfg *ConnectionConfig) error {
	if cfg == nil {
		return ErrConnConfigNil
	}

	return c.applyFunc(cfg)
}

func newConnOptFunc(name string, f func(*ConnectionConfig) error) *connOptFunc {
	return &connOptFunc{name: name, applyFunc: f}
}

// withHost sets the controller host. The host must not be empty or contain a port.
func withHost(host string) ConnOption {
	return newConnOptFunc("withHost", func(cfg *ConnectionConfig) error {
		host = strings.TrimSpace(host)
		if host == "" {
			return errors.New("host is empty")
		}
		if strings.Count(host, ":") == 1 {
			return errors.New("host must not contain a port")
		}
		cfg.host = strings.Trim(host, "[]")

		return nil
	})
}

// withPort sets the controller TCP port, which must be in range [1, 65535].
func withPort(port int) ConnOption {
	return newConnOptFunc("withPort", func(cfg *ConnectionConfig) error {
		if port < 1 || port > math.MaxUint16 {
			return errors.New("port is out of range [1, 65535]")
		}
		cfg.port = port

		return nil
	})
}

// WithStationAddress sets the SSCP station address of the controller.
//
// Replies whose station address differs are rejected with sscp.ErrAddressMismatch.
//
// The default value is 0x01.
func WithStationAddress(addr byte) ConnOption {
	return newConnOptFunc("WithStationAddress", func(cfg *ConnectionConfig) error {
		cfg.address = addr
		return nil
	})
}

// WithStationAddressHex sets the station address from its hex notation, e.g. "0x01" or "FE".
func WithStationAddressHex(addr string) ConnOption {
	return newConnOptFunc("WithStationAddressHex", func(cfg *ConnectionConfig) error {
		val, err := sscp.ParseStationAddress(addr)
		if err != nil {
			return err
		}
		cfg.address = val

		return nil
	})
}

// WithCredentials sets the user name and password used by the login handshake.
// The user name must not exceed 255 bytes.
func WithCredentials(username string, password string) ConnOption {
	return newConnOptFunc("WithCredentials", func(cfg *ConnectionConfig) error {
		if len(username) > math.MaxUint8 {
			return sscp.ErrFieldTooLong
		}
		cfg.username = username
		cfg.password = password

		return nil
	})
}

// WithConnectTimeout sets the timeout of the TCP dial.
// It should be between 10 milliseconds and 60 seconds.
//
// The default value is 3 seconds.
func WithConnectTimeout(val time.Duration) ConnOption {
	return newConnOptFunc("WithConnectTimeout", func(cfg *ConnectionConfig) error {
		if val < MinTimeout || val > MaxConnectTimeout {
			return errors.New("connect timeout out of range [0.01, 60]")
		}
		cfg.connectTimeout = val

		return nil
	})
}

// WithReplyTimeout sets the timeout for receiving a complete reply frame.
// It should be between 10 milliseconds and 120 seconds.
//
// An expired reply timeout is handled as a broken connection, unless the reply header has
// already arrived: a payload shorter than declared fails with sscp.ErrLengthMismatch.
//
// The default value is 5 seconds.
func WithReplyTimeout(val time.Duration) ConnOption {
	return newConnOptFunc("WithReplyTimeout", func(cfg *ConnectionConfig) error {
		if val < MinTimeout || val > MaxReplyTimeout {
			return errors.New("reply timeout out of range [0.01, 120]")
		}
		cfg.replyTimeout = val

		return nil
	})
}

// WithWriteTimeout sets the timeout for writing a request frame.
// It should be between 10 milliseconds and 60 seconds.
//
// The default value is 3 seconds.
func WithWriteTimeout(val time.Duration) ConnOption {
	return newConnOptFunc("WithWriteTimeout", func(cfg *ConnectionConfig) error {
		if val < MinTimeout || val > MaxWriteTimeout {
			return errors.New("write timeout out of range [0.01, 60]")
		}
		cfg.writeTimeout = val

		return nil
	})
}

// WithReconnectAttempts sets how many connect and login sequences are tried after the connection
// broke, before the operation fails with sscp.ErrReconnectionFailed.
// It should be between 1 and 10.
//
// The interrupted operation itself is retried at most once, regardless of this value.
//
// The default value is 1.
func WithReconnectAttempts(n int) ConnOption {
	return newConnOptFunc("WithReconnectAttempts", func(cfg *ConnectionConfig) error {
		if n < 1 || n > 10 {
			return errors.New("reconnect attempts out of range [1, 10]")
		}
		cfg.reconnectAttempts = n

		return nil
	})
}

// WithReconnectDelay sets the delay before the second reconnection attempt.
// Following attempts double the delay, up to MaxReconnectDelay.
// It should be between 10 milliseconds and MaxReconnectDelay.
//
// The default value is 100 milliseconds.
func WithReconnectDelay(val time.Duration) ConnOption {
	return newConnOptFunc("WithReconnectDelay", func(cfg *ConnectionConfig) error {
		if val < MinTimeout || val > MaxReconnectDelay {
			return errors.New("reconnect delay out of range [0.01, 5]")
		}
		cfg.reconnectDelay = val

		return nil
	})
}

// WithLogger sets the logger of the session.
//
// The default logger is the global logger instance.
func WithLogger(l logger.Logger) ConnOption {
	return newConnOptFunc("WithLogger", func(cfg *ConnectionConfig) error {
		if l == nil {
			return errors.New("logger is nil")
		}
		cfg.logger = l

		return nil
	})
}
