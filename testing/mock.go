// Package refundtest provides test utilities for the relayer refund
// extension, including configurable mocks of its collaborators, a
// test harness that mirrors a bridged runtime, and a reward ledger
// compliance test suite.
package refundtest

import (
	"sync"
	"sync/atomic"

	"github.com/blockberries/relayrefund"
	"github.com/blockberries/relayrefund/chainstate"
	"github.com/blockberries/relayrefund/types"
)

// Compile-time checks that the mocks satisfy the interfaces.
var (
	_ relayrefund.RelayChainFinality = (*MockTrackers)(nil)
	_ relayrefund.ParachainFinality  = (*MockTrackers)(nil)
	_ relayrefund.MessageLanes       = (*MockTrackers)(nil)
	_ relayrefund.RewardLedger       = (*MockLedger)(nil)
	_ relayrefund.FeeCalculator      = (*MockFee)(nil)
	_ relayrefund.ObsoleteFilter     = (*MockObsolete)(nil)
	_ relayrefund.Dispatcher         = (*MockDispatcher)(nil)
)

// MockTrackers is a configurable set of bridge trackers. Unconfigured
// methods report an uninitialized tracker.
type MockTrackers struct {
	BestFinalizedNumberFn func() (types.BlockNumber, bool)
	BestParachainInfoFn   func(types.ParaID) (types.ParaInfo, bool)
	InboundLaneDataFn     func(types.LaneID) types.InboundLaneData

	// Call counters (atomic for concurrent access).
	Reads atomic.Int64
}

func (m *MockTrackers) BestFinalizedNumber() (types.BlockNumber, bool) {
	m.Reads.Add(1)
	if m.BestFinalizedNumberFn != nil {
		return m.BestFinalizedNumberFn()
	}
	return 0, false
}

func (m *MockTrackers) BestParachainInfo(id types.ParaID) (types.ParaInfo, bool) {
	m.Reads.Add(1)
	if m.BestParachainInfoFn != nil {
		return m.BestParachainInfoFn(id)
	}
	return types.ParaInfo{}, false
}

func (m *MockTrackers) InboundLaneData(lane types.LaneID) types.InboundLaneData {
	m.Reads.Add(1)
	if m.InboundLaneDataFn != nil {
		return m.InboundLaneDataFn(lane)
	}
	return types.InboundLaneData{}
}

// RegisteredReward is one call to MockLedger.RegisterRelayerReward.
type RegisteredReward struct {
	Lane    types.LaneID
	Relayer types.AccountID
	Amount  types.Balance
}

// MockLedger records registrations. By default it keeps balances in
// an in-memory chainstate.Ledger.
type MockLedger struct {
	mu      sync.Mutex
	backing *chainstate.Ledger
	calls   []RegisteredReward

	RegisterRelayerRewardFn func(types.LaneID, types.AccountID, types.Balance) error
	RelayerRewardFn         func(types.AccountID, types.LaneID) (types.Balance, bool, error)
}

func (m *MockLedger) RegisterRelayerReward(lane types.LaneID, relayer types.AccountID, amount types.Balance) error {
	m.mu.Lock()
	m.calls = append(m.calls, RegisteredReward{Lane: lane, Relayer: relayer, Amount: amount})
	m.mu.Unlock()
	if m.RegisterRelayerRewardFn != nil {
		return m.RegisterRelayerRewardFn(lane, relayer, amount)
	}
	return m.ledger().RegisterRelayerReward(lane, relayer, amount)
}

func (m *MockLedger) RelayerReward(relayer types.AccountID, lane types.LaneID) (types.Balance, bool, error) {
	if m.RelayerRewardFn != nil {
		return m.RelayerRewardFn(relayer, lane)
	}
	return m.ledger().RelayerReward(relayer, lane)
}

// Registrations returns every registration in call order.
func (m *MockLedger) Registrations() []RegisteredReward {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RegisteredReward(nil), m.calls...)
}

func (m *MockLedger) ledger() *chainstate.Ledger {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.backing == nil {
		m.backing = chainstate.NewLedger()
	}
	return m.backing
}

// MockFee is a configurable fee calculator. By default it charges
// the declared weight plus the length plus the tip.
type MockFee struct {
	ComputeFeeFn func(types.DispatchInfo, types.PostDispatchInfo, uint32, types.Balance) types.Balance

	Calls   atomic.Int64
	LastTip atomic.Uint64
}

func (m *MockFee) ComputeFee(info types.DispatchInfo, post types.PostDispatchInfo, length uint32, tip types.Balance) types.Balance {
	m.Calls.Add(1)
	m.LastTip.Store(uint64(tip))
	if m.ComputeFeeFn != nil {
		return m.ComputeFeeFn(info, post, length, tip)
	}
	return types.Balance(info.Weight) + types.Balance(length) + tip
}

// MockObsolete is a configurable obsolete transaction filter. By
// default every call passes.
type MockObsolete struct {
	PreCheckFn func(types.AccountID, types.Call, types.DispatchInfo, uint32) error

	mu      sync.Mutex
	checked []types.Call
}

func (m *MockObsolete) PreCheck(who types.AccountID, call types.Call, info types.DispatchInfo, length uint32) error {
	m.mu.Lock()
	m.checked = append(m.checked, call)
	m.mu.Unlock()
	if m.PreCheckFn != nil {
		return m.PreCheckFn(who, call, info, length)
	}
	return nil
}

// Checked returns every call passed to PreCheck in order.
func (m *MockObsolete) Checked() []types.Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.Call(nil), m.checked...)
}

// MockDispatcher is a configurable dispatcher. By default every call
// succeeds without touching any state.
type MockDispatcher struct {
	DispatchInfoFn func(types.Call) types.DispatchInfo
	DispatchFn     func(types.AccountID, types.Call) (types.PostDispatchInfo, error)

	DispatchCalls atomic.Int64
}

func (m *MockDispatcher) DispatchInfo(call types.Call) types.DispatchInfo {
	if m.DispatchInfoFn != nil {
		return m.DispatchInfoFn(call)
	}
	return DispatchInfo()
}

func (m *MockDispatcher) Dispatch(who types.AccountID, call types.Call) (types.PostDispatchInfo, error) {
	m.DispatchCalls.Add(1)
	if m.DispatchFn != nil {
		return m.DispatchFn(who, call)
	}
	return PostDispatchInfo(), nil
}
