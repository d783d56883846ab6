package client

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/go-sscp/go-sscp/logger"
	"github.com/go-sscp/go-sscp/sscp"
)

// trailingWait bounds the check for bytes sent after the declared end of a reply.
const trailingWait = time.Millisecond

// Session is the SSCP session with one controller over a single TCP connection.
//
// SSCP replies carry no correlation identifier, so a reply belongs to a request only by its
// order on the socket. Session therefore serializes every public operation with one mutex: the
// frame of a second caller is not written until the reply of the first one has been read.
//
// Session is safe for concurrent use.
type Session struct {
	mu      sync.Mutex
	cfg     *ConnectionConfig
	logger  logger.Logger
	conn    net.Conn
	state   atomicConnState
	metrics *ConnectionMetrics
	address string
}

// NewSession creates a disconnected session for the controller described by cfg.
func NewSession(cfg *ConnectionConfig) (*Session, error) {
	if cfg == nil {
		return nil, ErrConnConfigNil
	}

	address := net.JoinHostPort(cfg.host, strconv.Itoa(cfg.port))

	return &Session{
		cfg:     cfg,
		logger:  cfg.logger.With("remote", address, "station", fmt.Sprintf("0x%02X", cfg.address)),
		metrics: &ConnectionMetrics{},
		address: address,
	}, nil
}

// State returns the current session state. It doesn't block on an ongoing exchange.
func (s *Session) State() ConnState {
	return s.state.Get()
}

// Metrics returns the metrics of the session.
func (s *Session) Metrics() *ConnectionMetrics {
	return s.metrics
}

// Connect opens the TCP connection to the controller.
//
// It returns an error wrapping sscp.ErrConnection if the controller refuses the connection or the
// connect timeout expires. It does nothing if the session is already connected.
// Connect never reconnects on its own, retrying a failed connect is up to the caller.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.connect(ctx)
}

// Login performs the login handshake with the configured credentials.
//
// On success the session becomes authenticated. If the controller rejects the login, it returns
// an error wrapping sscp.ErrAuthenticationFailed and the session stays connected.
// It returns sscp.ErrNotConnected if the session is disconnected.
func (s *Session) Login(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.login(ctx)
}

// Logout sends the logout request without waiting for a reply.
//
// The session becomes connected but not authenticated. Logout on a disconnected session does nothing.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.logout(ctx)
}

// Disconnect closes the TCP connection. It can be called in any state, any number of times.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.disconnect()
}

// Exchange writes req and returns the reply frame read from the controller.
//
// Exchange only validates the frame header, checking the function code of the reply is up to the
// caller. Socket errors and expired timeouts close the connection and return an error wrapping
// sscp.ErrBrokenConnection. Exchange doesn't reconnect, use Client for the reconnection policy.
func (s *Session) Exchange(ctx context.Context, req *sscp.Frame) (*sscp.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.Get().IsConnected() {
		return nil, sscp.ErrNotConnected
	}

	return s.exchange(ctx, req)
}

func (s *Session) connect(ctx context.Context) error {
	if s.state.Get().IsConnected() {
		return nil
	}

	dialer := &net.Dialer{KeepAlive: 30 * time.Second}

	dialCtx, cancel := context.WithTimeout(ctx, s.cfg.connectTimeout)
	defer cancel()

	conn, err := dialer.DialContext(dialCtx, "tcp", s.address)
	if err != nil {
		s.metrics.incConnectErrCount()
		s.logger.Debug("failed to dial to controller", "method", "connect", "error", err)

		return fmt.Errorf("%w: %s: %w", sscp.ErrConnection, s.address, err)
	}

	s.conn = conn
	s.state.Set(ConnectedState)
	s.metrics.incConnectCount()

	s.logger.Debug("connected to the controller",
		"local_addr", conn.LocalAddr().String(),
		"method", "connect",
	)

	return nil
}

func (s *Session) login(ctx context.Context) error {
	if !s.state.Get().IsConnected() {
		return sscp.ErrNotConnected
	}

	req, err := sscp.NewLoginRequest(s.cfg.address, s.cfg.username, s.cfg.password)
	if err != nil {
		return err
	}

	reply, err := s.exchange(ctx, req)
	if err == nil {
		err = sscp.CheckReply(sscp.FuncLogin, reply)
	}

	if err != nil {
		s.metrics.incLoginErrCount()
		s.logger.Warn("login failed", "method", "login", "user", s.cfg.username, "error", err)

		if errors.Is(err, sscp.ErrBrokenConnection) {
			return err
		}

		return fmt.Errorf("%w: %w", sscp.ErrAuthenticationFailed, err)
	}

	s.state.Set(AuthenticatedState)
	s.metrics.incLoginCount()
	s.logger.Info("login successful", "method", "login", "user", s.cfg.username)

	return nil
}

func (s *Session) logout(ctx context.Context) error {
	if !s.state.Get().IsConnected() {
		return nil
	}

	if err := s.send(ctx, sscp.NewLogoutRequest(s.cfg.address)); err != nil {
		return s.brokenConnection("logout", err)
	}

	s.state.Set(ConnectedState)
	s.logger.Debug("logout request sent", "method", "logout")

	return nil
}

func (s *Session) disconnect() error {
	prev := s.state.Set(DisconnectedState)

	if s.conn == nil {
		return nil
	}

	if tcpConn, ok := s.conn.(*net.TCPConn); ok {
		_ = tcpConn.SetLinger(0) // force close, no TIME_WAIT
	}

	err := s.conn.Close()
	s.conn = nil

	s.logger.Debug("TCP connection closed", "method", "disconnect", "prevState", prev)

	if err != nil {
		s.logger.Error("failed to close TCP connection", "method", "disconnect", "error", err)
		return err
	}

	return nil
}

func (s *Session) exchange(ctx context.Context, req *sscp.Frame) (*sscp.Frame, error) {
	op := req.Function.String()

	// nothing is on the wire yet, the connection stays usable
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := s.send(ctx, req); err != nil {
		return nil, s.brokenConnection(op, err)
	}

	reply, err := s.receive(ctx)
	if errors.Is(err, sscp.ErrLengthMismatch) {
		return nil, s.misaligned(op, err)
	}
	if err != nil {
		return nil, s.brokenConnection(op, err)
	}

	return sscp.DecodeFrame(reply, s.cfg.address)
}

// send writes the frame of req within the write timeout.
func (s *Session) send(ctx context.Context, req *sscp.Frame) error {
	buf := req.ToBytes()

	if s.logger.Level() == logger.DebugLevel {
		s.logger.Debug("send frame", "method", "send", "function", req.Function, "hex", hex.EncodeToString(buf))
	}

	// the deadline is set before abortOnDone, so a past deadline set on cancellation is never overwritten
	if err := s.conn.SetWriteDeadline(deadline(ctx, s.cfg.writeTimeout)); err != nil {
		return err
	}

	stop := s.abortOnDone(ctx)
	defer stop()

	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := s.conn.Write(buf); err != nil {
		return wrapCtxErr(ctx, err)
	}
	s.metrics.incFrameSendCount()

	return nil
}

// receive reads one complete reply frame within the reply timeout.
//
// The whole frame is consumed even if its header is invalid, so the stream stays aligned
// on frame boundaries for the next exchange. A payload shorter or longer than the declared
// data length is reported as sscp.ErrLengthMismatch.
func (s *Session) receive(ctx context.Context) ([]byte, error) {
	if err := s.conn.SetReadDeadline(deadline(ctx, s.cfg.replyTimeout)); err != nil {
		return nil, err
	}

	stop := s.abortOnDone(ctx)
	defer stop()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var hdr [sscp.HeaderSize]byte
	if _, err := io.ReadFull(s.conn, hdr[:]); err != nil {
		return nil, wrapCtxErr(ctx, err)
	}

	dataLen := int(binary.BigEndian.Uint16(hdr[3:5]))
	buf := make([]byte, sscp.HeaderSize+dataLen)
	copy(buf, hdr[:])
	if n, err := io.ReadFull(s.conn, buf[sscp.HeaderSize:]); err != nil {
		if ctx.Err() == nil && isShortRead(err) {
			return nil, fmt.Errorf("%w: declared %d, received %d", sscp.ErrLengthMismatch, dataLen, n)
		}
		return nil, wrapCtxErr(ctx, err)
	}
	s.metrics.incFrameRecvCount()

	if s.logger.Level() == logger.DebugLevel {
		s.logger.Debug("receive frame", "method", "receive", "hex", hex.EncodeToString(buf))
	}

	if n := s.trailingBytes(); n > 0 {
		return nil, fmt.Errorf("%w: declared %d, received at least %d", sscp.ErrLengthMismatch, dataLen, dataLen+n)
	}

	return buf, nil
}

// trailingBytes returns the number of bytes already waiting on the socket after a complete reply.
// A strict request/response peer never sends any.
//
// A deadline already in the past fails the read before the socket is polled, so the
// check waits for trailingWait at most.
func (s *Session) trailingBytes() int {
	if err := s.conn.SetReadDeadline(time.Now().Add(trailingWait)); err != nil {
		return 0
	}

	var extra [1]byte
	n, _ := s.conn.Read(extra[:])

	return n
}

// isShortRead reports whether err ends a payload read that got fewer bytes than declared
// while the connection itself was still alive.
func isShortRead(err error) bool {
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}

// abortOnDone unblocks pending socket I/O when ctx is done.
func (s *Session) abortOnDone(ctx context.Context) (stop func() bool) {
	conn := s.conn

	return context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Unix(1, 0))
	})
}

// brokenConnection closes the connection after an I/O failure of op.
func (s *Session) brokenConnection(op string, err error) error {
	s.metrics.incBrokenConnCount()
	s.logger.Warn("connection broken", "method", op, "error", err)
	_ = s.disconnect()

	return fmt.Errorf("%w: %s: %w", sscp.ErrBrokenConnection, op, err)
}

// misaligned closes the connection after a reply with a wrong data length. The frame boundaries
// of the stream are lost, but the failure is not a broken connection and is not retried.
func (s *Session) misaligned(op string, err error) error {
	s.logger.Warn("reply length mismatch, connection dropped", "method", op, "error", err)
	_ = s.disconnect()

	return fmt.Errorf("%s: %w", op, err)
}

// deadline returns the earlier of now+timeout and the deadline of ctx.
func deadline(ctx context.Context, timeout time.Duration) time.Time {
	d := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(d) {
		return ctxDeadline
	}

	return d
}

// wrapCtxErr attaches the cause of ctx to an I/O error provoked by its cancellation.
func wrapCtxErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %w", ctxErr, err)
	}

	return err
}
