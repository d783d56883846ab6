package client

import (
	"sync/atomic"
)

// ConnectionMetrics contains atomic metrics for a session.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc.
type ConnectionMetrics struct {
	// ConnectCount indicates the number of successful TCP connects.
	ConnectCount atomic.Uint64
	// ConnectErrCount indicates the number of failed TCP connects.
	ConnectErrCount atomic.Uint64
	// LoginCount indicates the number of successful logins.
	LoginCount atomic.Uint64
	// LoginErrCount indicates the number of failed logins.
	LoginErrCount atomic.Uint64

	// FrameSendCount indicates the number of frames written to the controller.
	FrameSendCount atomic.Uint64
	// FrameRecvCount indicates the number of reply frames read from the controller.
	FrameRecvCount atomic.Uint64
	// BrokenConnCount indicates the number of exchanges aborted by socket errors or timeouts.
	BrokenConnCount atomic.Uint64

	// ReconnectCount indicates the number of reconnection attempts.
	ReconnectCount atomic.Uint64
	// ReconnectErrCount indicates the number of reconnection sequences that failed for good.
	ReconnectErrCount atomic.Uint64
	// RetryCount indicates the number of operations retried after a reconnection.
	RetryCount atomic.Uint64

	// ReadCount indicates the number of read operations.
	ReadCount atomic.Uint64
	// ReadErrCount indicates the number of failed read operations.
	ReadErrCount atomic.Uint64
	// WriteCount indicates the number of write operations.
	WriteCount atomic.Uint64
	// WriteErrCount indicates the number of failed write operations.
	WriteErrCount atomic.Uint64
}

func (m *ConnectionMetrics) incConnectCount()      { m.ConnectCount.Add(1) }
func (m *ConnectionMetrics) incConnectErrCount()   { m.ConnectErrCount.Add(1) }
func (m *ConnectionMetrics) incLoginCount()        { m.LoginCount.Add(1) }
func (m *ConnectionMetrics) incLoginErrCount()     { m.LoginErrCount.Add(1) }
func (m *ConnectionMetrics) incFrameSendCount()    { m.FrameSendCount.Add(1) }
func (m *ConnectionMetrics) incFrameRecvCount()    { m.FrameRecvCount.Add(1) }
func (m *ConnectionMetrics) incBrokenConnCount()   { m.BrokenConnCount.Add(1) }
func (m *ConnectionMetrics) incReconnectCount()    { m.ReconnectCount.Add(1) }
func (m *ConnectionMetrics) incReconnectErrCount() { m.ReconnectErrCount.Add(1) }
func (m *ConnectionMetrics) incRetryCount()        { m.RetryCount.Add(1) }

func (m *ConnectionMetrics) countRead(err error) {
	m.ReadCount.Add(1)
	if err != nil {
		m.ReadErrCount.Add(1)
	}
}

func (m *ConnectionMetrics) countWrite(err error) {
	m.WriteCount.Add(1)
	if err != nil {
		m.WriteErrCount.Add(1)
	}
}
