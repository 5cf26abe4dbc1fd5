package refundgrpc

import (
	"github.com/blockberries/relayrefund"
	"github.com/blockberries/relayrefund/types"
)

// Transport-specific wrapper types for RPC methods whose signatures
// don't map to a single request/response struct.

// ValidateRequest wraps the extrinsic passed to Validate.
type ValidateRequest struct {
	Tx types.Extrinsic `cramberry:"1"`
}

// ValidateResponse carries a rejection across the wire. A zero Reason
// means the extrinsic is valid.
type ValidateResponse struct {
	Reason relayrefund.InvalidReason `cramberry:"1"`
	Detail string                    `cramberry:"2"`
}

// SubmitRequest wraps the extrinsic passed to Submit.
type SubmitRequest struct {
	Tx types.Extrinsic `cramberry:"1"`
}

// SubmitBlockRequest wraps the parameters of SubmitBlock.
type SubmitBlockRequest struct {
	Height uint64            `cramberry:"1"`
	Txs    []types.Extrinsic `cramberry:"2"`
}

// RewardRequest wraps the parameters of RelayerReward.
type RewardRequest struct {
	Relayer types.AccountID `cramberry:"1"`
	Lane    types.LaneID    `cramberry:"2"`
}

// RewardResponse wraps the return values of RelayerReward.
type RewardResponse struct {
	Amount types.Balance `cramberry:"1"`
	Found  bool          `cramberry:"2"`
}

// BridgeStateRequest is the (empty) request for BridgeState.
type BridgeStateRequest struct{}
