// Package client implements an SSCP session and a variable client on top of it.
//
// A Session owns one TCP connection to a controller and moves through three states:
// disconnected, connected and authenticated. SSCP is strictly request/response without
// correlation identifiers, so the Session serializes every exchange: at most one request is
// in flight at any time.
//
// A Client wraps a Session with the reconnection policy. Variable operations log in on demand,
// and an operation interrupted by a broken connection is retried exactly once after the session
// has been re-established:
//
//	cfg, err := client.NewConnectionConfig("192.168.1.10", 12346,
//		client.WithStationAddress(0x01),
//		client.WithCredentials("admin", "secret"),
//		client.WithReplyTimeout(2*time.Second),
//	)
//	if err != nil {
//		return err
//	}
//
//	c, err := client.New(cfg)
//	if err != nil {
//		return err
//	}
//	defer c.Close(ctx)
//
//	val, err := c.ReadVariable(ctx, sscp.Variable{UID: 42, Type: sscp.TypeInt})
//	if err != nil {
//		return err
//	}
//
// Socket errors and expired timeouts are reported as sscp.ErrBrokenConnection. When the session
// can't be re-established, operations fail with sscp.ErrReconnectionFailed.
package client
