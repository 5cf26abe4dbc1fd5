// Package server provides the pipeline that drives the refund
// extension hooks around dispatch and enforces their call order.
package server

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// txState represents a state in the per-transaction hook state machine.
type txState uint32

const (
	// txIdle: no transaction in flight. Validate may be called at
	// any time.
	txIdle txState = iota
	// txPreDispatching: PreDispatch has been called. Waiting for it
	// to return.
	txPreDispatching
	// txPreDispatched: PreDispatch returned. Dispatch is the only
	// valid next step.
	txPreDispatched
	// txDispatched: the call was dispatched. PostDispatch is the only
	// valid next step.
	txDispatched
)

func (s txState) String() string {
	switch s {
	case txIdle:
		return "Idle"
	case txPreDispatching:
		return "PreDispatching"
	case txPreDispatched:
		return "PreDispatched"
	case txDispatched:
		return "Dispatched"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// TxGuard enforces the hook order of one transaction at a time:
// PreDispatch, then dispatch, then PostDispatch exactly once. The
// sequential lock is held from PreDispatch until PostDispatch
// completes, so hooks of different transactions never interleave.
type TxGuard struct {
	state atomic.Uint32
	seqMu sync.Mutex
	// Number of transactions that completed PostDispatch.
	completed atomic.Uint64
}

// NewTxGuard creates a guard in the Idle state.
func NewTxGuard() *TxGuard {
	g := &TxGuard{}
	g.state.Store(uint32(txIdle))
	return g
}

// State returns the current state.
func (g *TxGuard) State() string {
	return txState(g.state.Load()).String()
}

// Completed returns the number of transactions that went through
// PostDispatch.
func (g *TxGuard) Completed() uint64 {
	return g.completed.Load()
}

// AcquirePreDispatch transitions Idle → PreDispatching.
// Blocks while another transaction is in flight.
// Panics if not in Idle state.
func (g *TxGuard) AcquirePreDispatch() {
	g.seqMu.Lock()
	if state := txState(g.state.Load()); state != txIdle {
		g.seqMu.Unlock()
		panic(fmt.Sprintf("relayrefund: PreDispatch called in state %s (expected Idle)", state))
	}
	g.state.Store(uint32(txPreDispatching))
}

// CompletePreDispatch transitions PreDispatching → PreDispatched.
func (g *TxGuard) CompletePreDispatch() {
	if state := txState(g.state.Load()); state != txPreDispatching {
		panic(fmt.Sprintf("relayrefund: PreDispatch completed in state %s (expected PreDispatching)", state))
	}
	g.state.Store(uint32(txPreDispatched))
}

// FailPreDispatch transitions PreDispatching → Idle when the
// transaction is rejected. Nothing else runs for it.
func (g *TxGuard) FailPreDispatch() {
	if state := txState(g.state.Load()); state != txPreDispatching {
		panic(fmt.Sprintf("relayrefund: PreDispatch failed in state %s (expected PreDispatching)", state))
	}
	g.state.Store(uint32(txIdle))
	g.seqMu.Unlock()
}

// CompleteDispatch transitions PreDispatched → Dispatched.
// Panics if not in PreDispatched state.
func (g *TxGuard) CompleteDispatch() {
	if state := txState(g.state.Load()); state != txPreDispatched {
		panic(fmt.Sprintf("relayrefund: dispatch completed in state %s (expected PreDispatched)", state))
	}
	g.state.Store(uint32(txDispatched))
}

// CompletePostDispatch transitions Dispatched → Idle.
// Panics if not in Dispatched state, which is what keeps
// PostDispatch from running twice for one transaction.
func (g *TxGuard) CompletePostDispatch() {
	if state := txState(g.state.Load()); state != txDispatched {
		panic(fmt.Sprintf("relayrefund: PostDispatch called in state %s (expected Dispatched)", state))
	}
	g.completed.Add(1)
	g.state.Store(uint32(txIdle))
	g.seqMu.Unlock()
}

// IsIdle returns true if no transaction is in flight.
func (g *TxGuard) IsIdle() bool {
	return txState(g.state.Load()) == txIdle
}

// Abort returns the guard to Idle from any in-flight state and
// releases the sequential lock. The transaction does not count as
// completed. Abort on an idle guard does nothing.
func (g *TxGuard) Abort() {
	if txState(g.state.Swap(uint32(txIdle))) == txIdle {
		return
	}
	g.seqMu.Unlock()
}
