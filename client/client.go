package client

import (
	"context"
	"fmt"

	"github.com/go-sscp/go-sscp/logger"
	"github.com/go-sscp/go-sscp/sscp"
)

// Client reads and writes PLC variables over one SSCP session.
//
// Every variable operation runs under the reconnection policy: the session is connected and
// logged in on demand, and an operation interrupted by a broken connection is retried exactly
// once after the session has been re-established. Rejections and decode errors are returned
// without retry.
//
// Client is safe for concurrent use, operations are serialized on the session.
type Client struct {
	cfg     *ConnectionConfig
	session *Session
	logger  logger.Logger
}

// New creates a client for the controller described by cfg. It doesn't connect.
func New(cfg *ConnectionConfig) (*Client, error) {
	session, err := NewSession(cfg)
	if err != nil {
		return nil, err
	}

	return &Client{
		cfg:     cfg,
		session: session,
		logger:  session.logger,
	}, nil
}

// Session returns the underlying session.
func (c *Client) Session() *Session {
	return c.session
}

// State returns the state of the underlying session.
func (c *Client) State() ConnState {
	return c.session.State()
}

// GetMetrics returns the metrics of the underlying session.
func (c *Client) GetMetrics() *ConnectionMetrics {
	return c.session.Metrics()
}

// Connect opens the TCP connection, see Session.Connect.
func (c *Client) Connect(ctx context.Context) error {
	return c.session.Connect(ctx)
}

// Login performs the login handshake, see Session.Login.
func (c *Client) Login(ctx context.Context) error {
	return c.session.Login(ctx)
}

// Logout sends the logout request, see Session.Logout.
func (c *Client) Logout(ctx context.Context) error {
	return c.session.Logout(ctx)
}

// Disconnect closes the TCP connection, see Session.Disconnect.
func (c *Client) Disconnect() error {
	return c.session.Disconnect()
}

// Close logs out if the session is authenticated, then disconnects.
func (c *Client) Close(ctx context.Context) error {
	if c.session.State().IsAuthenticated() {
		if err := c.session.Logout(ctx); err != nil {
			c.logger.Debug("logout failed on close", "method", "Close", "error", err)
		}
	}

	return c.session.Disconnect()
}

// ReadVariable reads the value of v.
//
// The reply doesn't describe the type of the value, it is decoded as v.Type. The Go type of the
// value follows sscp.Decode.
func (c *Client) ReadVariable(ctx context.Context, v sscp.Variable) (any, error) {
	values, err := c.ReadVariables(ctx, v)
	if err != nil {
		return nil, err
	}

	return values[0], nil
}

// ReadVariables reads several variables with a single read request.
// The values are returned in the order of vars.
func (c *Client) ReadVariables(ctx context.Context, vars ...sscp.Variable) ([]any, error) {
	for _, v := range vars {
		if !v.Type.Valid() {
			return nil, fmt.Errorf("%w: %d", sscp.ErrUnsupportedType, uint8(v.Type))
		}
	}

	req, err := sscp.NewReadRequest(c.cfg.address, vars...)
	if err != nil {
		return nil, err
	}

	var values []any
	err = c.session.run(ctx, "ReadVariables", func(ctx context.Context) error {
		reply, err := c.session.exchange(ctx, req)
		if err != nil {
			return err
		}

		if err := sscp.CheckReply(sscp.FuncRead, reply); err != nil {
			return err
		}

		values, err = sscp.DecodeReadReply(reply, vars...)

		return err
	})

	c.session.metrics.countRead(err)
	if err != nil {
		c.logger.Debug("failed to read variables", "method", "ReadVariables", "count", len(vars), "error", err)
		return nil, err
	}

	return values, nil
}

// WriteVariable stores value into v.
//
// value is encoded as v.Type, see sscp.Encode for the accepted Go types. The write is only
// reported as successful when the controller answers with the write success code.
func (c *Client) WriteVariable(ctx context.Context, v sscp.Variable, value any) error {
	req, err := sscp.NewWriteRequest(c.cfg.address, v, value)
	if err != nil {
		return err
	}

	err = c.session.run(ctx, "WriteVariable", func(ctx context.Context) error {
		reply, err := c.session.exchange(ctx, req)
		if err != nil {
			return err
		}

		return sscp.CheckReply(sscp.FuncWrite, reply)
	})

	c.session.metrics.countWrite(err)
	if err != nil {
		c.logger.Debug("failed to write variable", "method", "WriteVariable", "variable", v, "error", err)
		return err
	}

	return nil
}
