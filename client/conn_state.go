package client

import "sync/atomic"

// ConnState represents the stages of an SSCP session.
type ConnState uint32

// SSCP session states.
const (
	// DisconnectedState indicates that no TCP connection is open.
	DisconnectedState ConnState = iota
	// ConnectedState indicates that the TCP connection is open, but the login handshake has not succeeded.
	ConnectedState
	// AuthenticatedState indicates that the session is logged in and ready for variable exchanges.
	AuthenticatedState
)

// IsDisconnected returns if the state is disconnected.
func (cs ConnState) IsDisconnected() bool { return cs == DisconnectedState }

// IsConnected returns if the TCP connection is open, whether logged in or not.
func (cs ConnState) IsConnected() bool { return cs != DisconnectedState }

// IsAuthenticated returns if the session is logged in.
func (cs ConnState) IsAuthenticated() bool { return cs == AuthenticatedState }

// String returns string representation of the state.
func (cs ConnState) String() string {
	switch cs {
	case DisconnectedState:
		return "disconnected"
	case ConnectedState:
		return "connected"
	case AuthenticatedState:
		return "authenticated"
	default:
		return "unknown"
	}
}

// atomicConnState holds a ConnState that observers can read without the session lock.
type atomicConnState struct {
	state atomic.Uint32
}

func (st *atomicConnState) Get() ConnState {
	return ConnState(st.state.Load())
}

// Set stores state and returns the previous one.
func (st *atomicConnState) Set(state ConnState) ConnState {
	return ConnState(st.state.Swap(uint32(state)))
}
