// Package extension implements the signed extension that refunds a
// relayer for bridge transactions that actually advanced the bridge.
//
// A message delivery is refunded if it delivered at least one new
// message. A utility.batch_all that also brings the parachain head
// (and optionally the relay chain header) needed to verify the
// delivery is refunded only if every call in it updated its tracker.
//
// The transaction tip is never refunded.
package extension

import (
	"errors"

	"go.uber.org/zap"

	"github.com/blockberries/relayrefund"
	"github.com/blockberries/relayrefund/types"
)

// Compile-time interface checks.
var (
	_ relayrefund.SignedExtension = (*Extension)(nil)
	_ relayrefund.BridgeObserver  = (*Extension)(nil)
)

// Config selects the parachain and lane the extension refunds for and
// supplies its collaborators.
type Config struct {
	ParachainID types.ParaID
	LaneID      types.LaneID

	RelayChain relayrefund.RelayChainFinality
	Parachains relayrefund.ParachainFinality
	Messages   relayrefund.MessageLanes
	Rewards    relayrefund.RewardLedger
	Fee        relayrefund.FeeCalculator
	Obsolete   relayrefund.ObsoleteFilter

	// Optional.
	Logger  *zap.Logger
	Metrics *Metrics
}

// Extension refunds relayers for messages coming from one parachain
// over one lane.
type Extension struct {
	paraID     types.ParaID
	lane       types.LaneID
	relayChain relayrefund.RelayChainFinality
	parachains relayrefund.ParachainFinality
	messages   relayrefund.MessageLanes
	obsolete   relayrefund.ObsoleteFilter
	classifier *Classifier
	rewards    *RewardEngine
	logger     *zap.Logger
	metrics    *Metrics
}

// New creates an extension from cfg.
func New(cfg Config) (*Extension, error) {
	switch {
	case cfg.RelayChain == nil:
		return nil, errors.New("extension: relay chain finality tracker required")
	case cfg.Parachains == nil:
		return nil, errors.New("extension: parachain finality tracker required")
	case cfg.Messages == nil:
		return nil, errors.New("extension: message lanes required")
	case cfg.Rewards == nil:
		return nil, errors.New("extension: reward ledger required")
	case cfg.Fee == nil:
		return nil, errors.New("extension: fee calculator required")
	case cfg.Obsolete == nil:
		return nil, errors.New("extension: obsolete transaction filter required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extension{
		paraID:     cfg.ParachainID,
		lane:       cfg.LaneID,
		relayChain: cfg.RelayChain,
		parachains: cfg.Parachains,
		messages:   cfg.Messages,
		obsolete:   cfg.Obsolete,
		classifier: NewClassifier(cfg.ParachainID, cfg.LaneID, cfg.Messages),
		rewards:    NewRewardEngine(cfg.Fee, cfg.Rewards),
		logger:     logger.Named("refund").With(zap.Uint32("para_id", uint32(cfg.ParachainID)), zap.Stringer("lane", cfg.LaneID)),
		metrics:    cfg.Metrics,
	}, nil
}

// Validate rejects batch transactions carrying obsolete headers or
// messages. Every nested call of a batch_all is checked on its own,
// whatever the shape of the batch.
func (e *Extension) Validate(who types.AccountID, call types.Call, info types.DispatchInfo, length uint32) error {
	if err := e.rejectObsolete(who, call, info, length); err != nil {
		e.metrics.rejected("validate")
		return err
	}
	return nil
}

// PreDispatch re-runs the obsolete check, then captures the data
// PostDispatch needs if the transaction has a refundable shape.
func (e *Extension) PreDispatch(who types.AccountID, call types.Call, info types.DispatchInfo, length uint32) (*types.PreDispatchData, error) {
	if err := e.rejectObsolete(who, call, info, length); err != nil {
		e.metrics.rejected("pre_dispatch")
		return nil, err
	}

	callType, ok := e.classifier.Classify(call)
	if !ok {
		return nil, nil
	}
	e.metrics.classified(callType.Kind)
	e.logger.Debug("parsed bridge transaction in pre-dispatch",
		zap.Stringer("relayer", who),
		zap.Stringer("call_type", callType))

	return &types.PreDispatchData{Relayer: who, CallType: callType}, nil
}

// PostDispatch registers a reward for the relayer if the transaction
// succeeded and updated every tracker it was expected to update.
func (e *Extension) PostDispatch(pre *types.PreDispatchData, info types.DispatchInfo, post types.PostDispatchInfo, length uint32, result error) (types.Balance, bool) {
	// Not a bridge transaction, or one we do not support.
	if pre == nil {
		e.metrics.postDispatch(OutcomeUntracked)
		return 0, false
	}

	if result != nil {
		e.metrics.postDispatch(OutcomeDispatchFailed)
		return 0, false
	}

	// The finality pallet may accept a header without moving its best
	// pointer. Such a submission did not help.
	if expected, ok := pre.CallType.ExpectedRelayChainState(); ok {
		actual, known := RelayChainState(e.relayChain)
		if !known || actual != expected {
			e.metrics.postDispatch(OutcomeRelayChainNotUpdated)
			return 0, false
		}
	}

	if expected, ok := pre.CallType.ExpectedParachainState(); ok {
		actual, known := ParachainState(e.parachains, e.paraID)
		if !known || actual != expected {
			e.metrics.postDispatch(OutcomeParachainNotUpdated)
			return 0, false
		}
	}

	// Partial delivery counts; no delivery at all does not.
	if MessagesState(e.messages, e.lane) == pre.CallType.PreDispatchMessagesState() {
		e.metrics.postDispatch(OutcomeNoMessagesDelivered)
		return 0, false
	}

	// The relayer is also compensated at the bridged chain, which covers
	// the tip. Refunding it here would let a relayer drain the rewards
	// account with huge tips at no cost to itself.
	reward := e.rewards.ComputeFee(info, post, length, 0)

	if err := e.rewards.RegisterReward(e.lane, pre.Relayer, reward); err != nil {
		e.metrics.postDispatch(OutcomeLedgerError)
		e.logger.Error("failed to register relayer reward",
			zap.Stringer("relayer", pre.Relayer),
			zap.Uint64("reward", uint64(reward)),
			zap.Error(err))
		return 0, false
	}

	e.metrics.postDispatch(OutcomeRefunded)
	e.metrics.reward(reward)
	e.logger.Debug("registered relayer reward",
		zap.Stringer("relayer", pre.Relayer),
		zap.Stringer("call_type", pre.CallType),
		zap.Uint64("reward", uint64(reward)))

	return reward, true
}

// Snapshot returns the current relay chain, parachain and lane state.
func (e *Extension) Snapshot() types.BridgeSnapshot {
	relay, hasRelay := RelayChainState(e.relayChain)
	para, hasPara := ParachainState(e.parachains, e.paraID)
	return types.BridgeSnapshot{
		RelayChain:    relay,
		HasRelayChain: hasRelay,
		Parachain:     para,
		HasParachain:  hasPara,
		Messages:      MessagesState(e.messages, e.lane),
		ParaID:        e.paraID,
		Lane:          e.lane,
	}
}

// Classifier returns the classifier used at pre-dispatch.
func (e *Extension) Classifier() *Classifier {
	return e.classifier
}

func (e *Extension) rejectObsolete(who types.AccountID, call types.Call, info types.DispatchInfo, length uint32) error {
	batch, ok := call.AsBatchAll()
	if !ok {
		return nil
	}
	for _, nested := range batch.Calls {
		if err := e.obsolete.PreCheck(who, nested, info, length); err != nil {
			return err
		}
	}
	return nil
}
