// Package relayrefund defines the relayer refund extension boundary:
// the three-hook transaction lifecycle a dispatch pipeline drives, and
// the collaborators the extension reads from and writes to.
//
// The core [SignedExtension] interface is what the pipeline calls.
// [BridgeObserver] is an optional capability discovered via Go type
// assertion when the pipeline is constructed.
package relayrefund

import (
	"context"

	"github.com/blockberries/relayrefund/types"
)

// SignedExtension is the three-hook lifecycle wrapped around every
// transaction.
//
// The pipeline guarantees the following call order per transaction:
//  1. Validate may be called any number of times (pool admission,
//     re-validation) and has no side effects.
//  2. PreDispatch is called exactly once, right before dispatch.
//  3. PostDispatch is called exactly once after dispatch, and only if
//     PreDispatch did not return an error.
//
// Hooks of different transactions never interleave.
type SignedExtension interface {
	// Validate rejects a transaction that must not enter a block.
	// A nil return means valid.
	Validate(who types.AccountID, call types.Call, info types.DispatchInfo, length uint32) error

	// PreDispatch re-runs Validate and captures the state that
	// PostDispatch compares against. A nil result with a nil error
	// means the transaction is not tracked and is never refunded.
	PreDispatch(who types.AccountID, call types.Call, info types.DispatchInfo, length uint32) (*types.PreDispatchData, error)

	// PostDispatch decides whether the dispatched transaction is
	// refunded. It never fails: ineligibility is silent. It returns
	// the registered reward and whether one was registered.
	PostDispatch(pre *types.PreDispatchData, info types.DispatchInfo, post types.PostDispatchInfo, length uint32, result error) (types.Balance, bool)
}

// BridgeObserver exposes the bridge state an extension compares
// against. Optional.
type BridgeObserver interface {
	Snapshot() types.BridgeSnapshot
}

// RelayChainFinality is the relay chain finality tracker.
type RelayChainFinality interface {
	// BestFinalizedNumber returns false if the tracker was never
	// initialized.
	BestFinalizedNumber() (types.BlockNumber, bool)
}

// ParachainFinality is the parachain finality tracker.
type ParachainFinality interface {
	// BestParachainInfo returns false if the parachain is unknown.
	BestParachainInfo(id types.ParaID) (types.ParaInfo, bool)
}

// MessageLanes is the inbound message lane ledger.
type MessageLanes interface {
	// InboundLaneData returns the zero value for an unknown lane.
	InboundLaneData(lane types.LaneID) types.InboundLaneData
}

// RewardLedger accumulates relayer rewards per lane.
type RewardLedger interface {
	// RegisterRelayerReward adds amount to the (relayer, lane) balance.
	// Calling it twice adds twice.
	RegisterRelayerReward(lane types.LaneID, relayer types.AccountID, amount types.Balance) error

	// RelayerReward returns false if nothing was ever registered.
	RelayerReward(relayer types.AccountID, lane types.LaneID) (types.Balance, bool, error)
}

// FeeCalculator computes the fee actually charged for a dispatched call.
type FeeCalculator interface {
	ComputeFee(info types.DispatchInfo, post types.PostDispatchInfo, length uint32, tip types.Balance) types.Balance
}

// ObsoleteFilter rejects calls that would not improve bridge state.
// It returns an *InvalidTransactionError with ReasonStale for such calls.
type ObsoleteFilter interface {
	PreCheck(who types.AccountID, call types.Call, info types.DispatchInfo, length uint32) error
}

// Dispatcher executes calls against chain state. It is the batched
// dispatch mechanism the extension wraps.
type Dispatcher interface {
	// DispatchInfo returns the declared weight of the call.
	DispatchInfo(call types.Call) types.DispatchInfo

	// Dispatch executes the call on behalf of who. A batch_all call
	// either applies all nested calls or none.
	Dispatch(who types.AccountID, call types.Call) (types.PostDispatchInfo, error)
}

// Connection is a transport-agnostic connection to a refund pipeline.
// Both the gRPC client and the in-process adapter implement it.
type Connection interface {
	// Validate checks a transaction for admission.
	Validate(ctx context.Context, xt types.Extrinsic) error

	// Submit runs a single transaction through the full lifecycle.
	Submit(ctx context.Context, xt types.Extrinsic) (types.TxOutcome, error)

	// SubmitBlock runs transactions in order as one block.
	SubmitBlock(ctx context.Context, height uint64, xts []types.Extrinsic) (types.BlockOutcome, error)

	// RelayerReward reads the reward ledger.
	RelayerReward(ctx context.Context, relayer types.AccountID, lane types.LaneID) (types.Balance, bool, error)

	// BridgeState returns the state the extension compares against.
	BridgeState(ctx context.Context) (types.BridgeSnapshot, error)

	// Close terminates the connection.
	Close() error
}
