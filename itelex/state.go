package itelex

import "sync/atomic"

// ConnState is the state of the client connection.
type ConnState uint32

const (
	// IdleState: no connection and no dial in progress.
	IdleState ConnState = iota
	// DialingState: a connect task is resolving or connecting.
	DialingState
	// ConnectedState: the session loop is running.
	ConnectedState
	// EndingState: hang-up requested, the connect task is tearing down.
	EndingState
)

// String returns string representation of the state.
func (s ConnState) String() string {
	switch s {
	case IdleState:
		return "Idle"
	case DialingState:
		return "Dialing"
	case ConnectedState:
		return "Connected"
	case EndingState:
		return "Ending"
	default:
		return "Unknown"
	}
}

// AtomicConnState is a ConnState that is safe for concurrent use.
type AtomicConnState struct {
	state atomic.Uint32
}

func (st *AtomicConnState) String() string {
	return st.Get().String()
}

// Get returns the current state.
func (st *AtomicConnState) Get() ConnState {
	return ConnState(st.state.Load())
}

// Set sets the state unconditionally.
func (st *AtomicConnState) Set(state ConnState) {
	st.state.Store(uint32(state))
}

func (st *AtomicConnState) IsIdle() bool {
	return st.Get() == IdleState
}

func (st *AtomicConnState) IsConnected() bool {
	return st.Get() == ConnectedState
}

// ToDialing moves Idle to Dialing. It fails while another dial or session is active.
func (st *AtomicConnState) ToDialing() bool {
	return st.state.CompareAndSwap(uint32(IdleState), uint32(DialingState))
}

// ToConnected moves Dialing to Connected. It fails if a hang-up arrived meanwhile.
func (st *AtomicConnState) ToConnected() bool {
	return st.state.CompareAndSwap(uint32(DialingState), uint32(ConnectedState))
}

// ToEnding moves Dialing or Connected to Ending.
func (st *AtomicConnState) ToEnding() bool {
	if st.state.CompareAndSwap(uint32(ConnectedState), uint32(EndingState)) {
		return true
	}

	return st.state.CompareAndSwap(uint32(DialingState), uint32(EndingState))
}

// ToIdle moves any state to Idle.
func (st *AtomicConnState) ToIdle() {
	st.Set(IdleState)
}
