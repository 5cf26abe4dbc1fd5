// Package relayer implements a minimal message relayer that drives a
// refund pipeline through a relayrefund.Connection. It demonstrates
// the three refundable transaction shapes: on each step it compares
// the bridge state with the bridged side and submits the smallest
// transaction that delivers the pending messages.
package relayer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/blockberries/relayrefund"
	"github.com/blockberries/relayrefund/types"
)

// Source is what the bridged side currently offers.
type Source struct {
	// Best finalized relay chain header.
	RelayHeader types.Header
	// Relay block at which the parachain head was read. Must not be
	// above RelayHeader.Number.
	ParaHeadAt types.BlockNumber
	ParaHead   types.Hash
	// Latest message nonce sent over the lane.
	LatestNonce types.MessageNonce
}

// Relayer submits bridge transactions signed by one account.
type Relayer struct {
	conn    relayrefund.Connection
	account types.AccountID
	paraID  types.ParaID
	lane    types.LaneID
	tip     types.Balance
	logger  *zap.Logger
}

// Option configures a Relayer.
type Option func(*Relayer)

// WithTip sets the tip attached to every transaction.
func WithTip(tip types.Balance) Option {
	return func(r *Relayer) { r.tip = tip }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Relayer) { r.logger = logger }
}

// New creates a relayer for the given parachain and lane.
func New(conn relayrefund.Connection, account types.AccountID, paraID types.ParaID, lane types.LaneID, opts ...Option) *Relayer {
	r := &Relayer{
		conn:    conn,
		account: account,
		paraID:  paraID,
		lane:    lane,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.Named("relayer").With(zap.Stringer("account", account))
	return r
}

// Plan returns the call that delivers every pending message, or false
// if there is nothing to deliver.
func (r *Relayer) Plan(snap types.BridgeSnapshot, src Source) (types.Call, bool) {
	best := snap.Messages.BestNonce
	if src.LatestNonce <= best {
		return types.Call{}, false
	}
	count := uint32(src.LatestNonce - best)
	delivery := types.NewReceiveMessagesProof(r.account, types.MessagesProof{
		BridgedHeaderHash: src.ParaHead,
		Lane:              r.lane,
		NoncesStart:       best + 1,
		NoncesEnd:         src.LatestNonce,
	}, count, 0)

	if snap.HasParachain && snap.Parachain.AtRelayBlockNumber >= src.ParaHeadAt {
		return delivery, true
	}

	heads := types.NewSubmitParachainHeads(
		types.RelayBlockID{Number: src.ParaHeadAt},
		[]types.ParachainHead{{ParaID: r.paraID, HeadHash: src.ParaHead}},
		nil,
	)
	if snap.HasRelayChain && snap.RelayChain.BestBlockNumber >= src.ParaHeadAt {
		return types.NewBatchAll(heads, delivery), true
	}
	finality := types.NewSubmitFinalityProof(src.RelayHeader, nil)
	return types.NewBatchAll(finality, heads, delivery), true
}

// Step reads the bridge state, plans a transaction and submits it as
// block height. It returns false if there was nothing to deliver.
func (r *Relayer) Step(ctx context.Context, height uint64, src Source) (types.TxOutcome, bool, error) {
	snap, err := r.conn.BridgeState(ctx)
	if err != nil {
		return types.TxOutcome{}, false, fmt.Errorf("read bridge state: %w", err)
	}
	call, ok := r.Plan(snap, src)
	if !ok {
		return types.TxOutcome{}, false, nil
	}

	xt := types.Extrinsic{Signer: r.account, Tip: r.tip, Call: call}
	if err := r.conn.Validate(ctx, xt); err != nil {
		r.logger.Debug("transaction rejected", zap.Uint64("height", height), zap.Error(err))
		return types.TxOutcome{Code: types.CodeInvalid, Info: err.Error()}, true, nil
	}
	block, err := r.conn.SubmitBlock(ctx, height, []types.Extrinsic{xt})
	if err != nil {
		return types.TxOutcome{}, false, fmt.Errorf("submit block %d: %w", height, err)
	}
	outcome := block.TxOutcomes[0]
	r.logger.Debug("submitted",
		zap.Uint64("height", height),
		zap.Stringer("call_type", outcome.CallType),
		zap.Bool("refunded", outcome.Refunded),
		zap.Uint64("reward", uint64(outcome.Reward)))
	return outcome, true, nil
}

// Reward returns the relayer's accumulated reward on its lane.
func (r *Relayer) Reward(ctx context.Context) (types.Balance, error) {
	reward, _, err := r.conn.RelayerReward(ctx, r.account, r.lane)
	return reward, err
}
