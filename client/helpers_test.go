package client

import (
	"bufio"
	"encoding/binary"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-sscp/go-sscp/logger"
	"github.com/go-sscp/go-sscp/sscp"
	"github.com/stretchr/testify/require"
)

const (
	testStation  byte = 0x01
	testUser          = "admin"
	testPassword      = "secret"
)

func TestMain(m *testing.M) {
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	logger.SetLevel(logger.ParseLevel(logLevel))

	os.Exit(m.Run())
}

// hookFunc intercepts a request received by the fake controller on connection connID.
// When handled is false, the request is answered by the default controller behavior.
type hookFunc func(connID int, req *sscp.Frame) (reply []byte, closeConn bool, handled bool)

// fakePLC is an SSCP controller listening on a loopback port.
type fakePLC struct {
	t  *testing.T
	ln net.Listener

	hook hookFunc

	mu     sync.Mutex
	values map[uint32][]byte
	conns  []net.Conn

	connCount   atomic.Int32
	loginCount  atomic.Int32
	logoutCount atomic.Int32
	readCount   atomic.Int32
	writeCount  atomic.Int32

	checkInterleave bool
	interleaved     atomic.Bool

	wg sync.WaitGroup
}

func newFakePLC(t *testing.T, hook hookFunc) *fakePLC {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	p := &fakePLC{
		t:      t,
		ln:     ln,
		hook:   hook,
		values: make(map[uint32][]byte),
	}

	p.wg.Add(1)
	go p.acceptLoop()

	t.Cleanup(p.close)

	return p
}

func (p *fakePLC) port() int {
	addr, _ := p.ln.Addr().(*net.TCPAddr)
	return addr.Port
}

func (p *fakePLC) setValue(uid uint32, t sscp.VariableType, value any) {
	data, err := sscp.Encode(t, value)
	require.NoError(p.t, err)

	p.mu.Lock()
	p.values[uid] = data
	p.mu.Unlock()
}

func (p *fakePLC) value(uid uint32) []byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.values[uid]
}

func (p *fakePLC) close() {
	_ = p.ln.Close()

	p.mu.Lock()
	for _, conn := range p.conns {
		_ = conn.Close()
	}
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *fakePLC) acceptLoop() {
	defer p.wg.Done()

	for {
		conn, err := p.ln.Accept()
		if err != nil {
			return
		}

		p.mu.Lock()
		p.conns = append(p.conns, conn)
		p.mu.Unlock()

		id := int(p.connCount.Add(1)) - 1

		p.wg.Add(1)
		go p.serve(conn, id)
	}
}

func (p *fakePLC) serve(conn net.Conn, connID int) {
	defer p.wg.Done()
	defer conn.Close()

	r := bufio.NewReader(conn)
	for {
		req, err := readFrame(r)
		if err != nil {
			return
		}

		if p.checkInterleave {
			time.Sleep(5 * time.Millisecond)
			_ = conn.SetReadDeadline(time.Now().Add(5 * time.Millisecond))
			if _, err := r.Peek(1); err == nil {
				p.interleaved.Store(true)
			}
			_ = conn.SetReadDeadline(time.Time{})
		}

		reply, closeConn := p.handle(connID, req)
		if reply != nil {
			if _, err := conn.Write(reply); err != nil {
				return
			}
		}

		if closeConn {
			return
		}
	}
}

func (p *fakePLC) handle(connID int, req *sscp.Frame) ([]byte, bool) {
	switch req.Function {
	case sscp.FuncLogin:
		p.loginCount.Add(1)
	case sscp.FuncLogout:
		p.logoutCount.Add(1)
	case sscp.FuncRead:
		p.readCount.Add(1)
	case sscp.FuncWrite:
		p.writeCount.Add(1)
	}

	if p.hook != nil {
		if reply, closeConn, handled := p.hook(connID, req); handled {
			return reply, closeConn
		}
	}

	switch req.Function {
	case sscp.FuncLogin:
		expected, _ := sscp.NewLoginRequest(testStation, testUser, testPassword)
		if string(expected.Data) != string(req.Data) {
			return replyFrame(req.Address, 0xC100, nil), false
		}
		return replyFrame(req.Address, sscp.FuncLoginOK, nil), false

	case sscp.FuncLogout:
		return nil, false

	case sscp.FuncRead:
		var data []byte
		for _, uid := range readUIDs(req.Data) {
			val := p.value(uid)
			if val == nil {
				return replyFrame(req.Address, sscp.FuncReadFailed, []byte{0, 0, 0, 0x02}), false
			}
			data = append(data, val...)
		}
		return replyFrame(req.Address, sscp.FuncReadOK, data), false

	case sscp.FuncWrite:
		uid, value := writeValue(req.Data)
		if p.value(uid) == nil {
			return replyFrame(req.Address, sscp.FuncWriteFailed, nil), false
		}
		p.mu.Lock()
		p.values[uid] = value
		p.mu.Unlock()
		return replyFrame(req.Address, sscp.FuncWriteOK, nil), false
	}

	return replyFrame(req.Address, 0xFFFF, nil), false
}

func readFrame(r io.Reader) (*sscp.Frame, error) {
	var hdr [sscp.HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}

	data := make([]byte, binary.BigEndian.Uint16(hdr[3:5]))
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}

	return &sscp.Frame{
		Address:  hdr[0],
		Function: sscp.FunctionCode(binary.BigEndian.Uint16(hdr[1:3])),
		Data:     data,
	}, nil
}

func replyFrame(addr byte, fc sscp.FunctionCode, data []byte) []byte {
	frame, err := sscp.NewFrame(addr, fc, data)
	if err != nil {
		panic(err)
	}

	return frame.ToBytes()
}

func readUIDs(data []byte) []uint32 {
	var uids []uint32
	for pos := 0; pos+5 <= len(data); {
		flags := data[pos]
		uids = append(uids, binary.BigEndian.Uint32(data[pos+1:pos+5]))
		pos += 5
		if flags&sscp.FlagQualifier != 0 {
			pos += 8
		}
	}

	return uids
}

func writeValue(data []byte) (uint32, []byte) {
	flags := data[0]
	uid := binary.BigEndian.Uint32(data[2:6])
	pos := 6
	if flags&sscp.FlagQualifier != 0 {
		pos += 8
	}

	return uid, data[pos:]
}

func newTestClient(t *testing.T, port int, opts ...ConnOption) *Client {
	t.Helper()

	opts = append([]ConnOption{
		WithStationAddress(testStation),
		WithCredentials(testUser, testPassword),
		WithConnectTimeout(time.Second),
		WithReplyTimeout(time.Second),
		WithReconnectDelay(10 * time.Millisecond),
	}, opts...)

	cfg, err := NewConnectionConfig("127.0.0.1", port, opts...)
	require.NoError(t, err)

	c, err := New(cfg)
	require.NoError(t, err)

	t.Cleanup(func() { _ = c.Disconnect() })

	return c
}

// unusedPort returns a loopback port nothing listens on.
func unusedPort(t *testing.T) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr, _ := ln.Addr().(*net.TCPAddr)
	require.NoError(t, ln.Close())

	return addr.Port
}
