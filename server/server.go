package server

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/blockberries/relayrefund"
	"github.com/blockberries/relayrefund/types"
)

// ErrHookPanicked reports a transaction whose extension hooks or
// dispatch panicked. The transaction is abandoned and the pipeline
// accepts the next one.
var ErrHookPanicked = errors.New("relayrefund: transaction panicked")

// Server runs extrinsics through the refund extension and the
// dispatcher. Transports and in-process callers interact with the
// pipeline exclusively through this server.
type Server struct {
	ext        relayrefund.SignedExtension
	dispatcher relayrefund.Dispatcher
	ledger     relayrefund.RewardLedger
	guard      *TxGuard
	logger     *zap.Logger

	// Optional interfaces (nil if not supported).
	observer relayrefund.BridgeObserver
}

// New creates a server. A nil logger disables logging.
func New(ext relayrefund.SignedExtension, dispatcher relayrefund.Dispatcher, ledger relayrefund.RewardLedger, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		ext:        ext,
		dispatcher: dispatcher,
		ledger:     ledger,
		guard:      NewTxGuard(),
		logger:     logger.Named("pipeline"),
	}
	s.observer, _ = ext.(relayrefund.BridgeObserver)
	return s
}

// Validate checks an extrinsic for admission without dispatching it.
// Safe for concurrent use.
func (s *Server) Validate(ctx context.Context, xt types.Extrinsic) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := relayrefund.CheckCall(xt.Call); err != nil {
		return err
	}
	length, err := types.EncodedLen(xt)
	if err != nil {
		return err
	}
	return s.ext.Validate(xt.Signer, xt.Call, s.dispatcher.DispatchInfo(xt.Call), length)
}

// Submit runs one extrinsic through PreDispatch, dispatch and
// PostDispatch. A rejected extrinsic is reported with CodeInvalid
// and is not dispatched.
func (s *Server) Submit(ctx context.Context, xt types.Extrinsic) (types.TxOutcome, error) {
	if err := ctx.Err(); err != nil {
		return types.TxOutcome{}, err
	}
	return s.apply(0, xt)
}

// SubmitBlock runs extrinsics in order as one block. Earlier
// extrinsics may change the state later ones are checked against.
func (s *Server) SubmitBlock(ctx context.Context, height uint64, xts []types.Extrinsic) (types.BlockOutcome, error) {
	if err := ctx.Err(); err != nil {
		return types.BlockOutcome{}, err
	}
	outcomes := make([]types.TxOutcome, 0, len(xts))
	for i, xt := range xts {
		outcome, err := s.apply(uint32(i), xt)
		if err != nil {
			return types.BlockOutcome{}, fmt.Errorf("block %d tx %d: %w", height, i, err)
		}
		outcomes = append(outcomes, outcome)
	}
	return types.BlockOutcome{Height: height, TxOutcomes: outcomes}, nil
}

// apply holds the guard from PreDispatch to PostDispatch. A panic in
// between releases the guard and is returned as ErrHookPanicked.
func (s *Server) apply(index uint32, xt types.Extrinsic) (outcome types.TxOutcome, err error) {
	if err := relayrefund.CheckCall(xt.Call); err != nil {
		s.logger.Debug("malformed transaction rejected",
			zap.Stringer("signer", xt.Signer),
			zap.Stringer("call", xt.Call.Kind),
			zap.Error(err))
		return types.TxOutcome{Index: index, Code: types.CodeInvalid, Info: err.Error()}, nil
	}
	length, err := types.EncodedLen(xt)
	if err != nil {
		return types.TxOutcome{}, err
	}
	info := s.dispatcher.DispatchInfo(xt.Call)

	s.guard.AcquirePreDispatch()
	released := false
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if !released {
			s.guard.Abort()
		}
		s.logger.Error("transaction panicked",
			zap.Uint32("index", index),
			zap.Stringer("signer", xt.Signer),
			zap.Stringer("call", xt.Call.Kind),
			zap.Any("panic", r))
		outcome, err = types.TxOutcome{}, fmt.Errorf("%w: %v", ErrHookPanicked, r)
	}()

	pre, err := s.ext.PreDispatch(xt.Signer, xt.Call, info, length)
	if err != nil {
		s.guard.FailPreDispatch()
		released = true
		s.logger.Debug("transaction rejected at pre-dispatch",
			zap.Stringer("signer", xt.Signer),
			zap.Stringer("call", xt.Call.Kind),
			zap.Error(err))
		return types.TxOutcome{Index: index, Code: types.CodeInvalid, Info: err.Error()}, nil
	}
	s.guard.CompletePreDispatch()

	post, dispatchErr := s.dispatcher.Dispatch(xt.Signer, xt.Call)
	s.guard.CompleteDispatch()

	reward, refunded := s.ext.PostDispatch(pre, info, post, length, dispatchErr)
	s.guard.CompletePostDispatch()
	released = true

	outcome = types.TxOutcome{Index: index, Reward: reward, Refunded: refunded}
	if pre != nil {
		outcome.CallType = pre.CallType.Kind
	}
	if dispatchErr != nil {
		outcome.Code = types.CodeDispatchFailed
		outcome.Info = dispatchErr.Error()
	}
	return outcome, nil
}

// RelayerReward reads the reward ledger. Safe for concurrent use.
func (s *Server) RelayerReward(ctx context.Context, relayer types.AccountID, lane types.LaneID) (types.Balance, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	return s.ledger.RelayerReward(relayer, lane)
}

// BridgeState returns the extension's view of the bridge if it
// exposes one.
func (s *Server) BridgeState(ctx context.Context) (types.BridgeSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return types.BridgeSnapshot{}, err
	}
	if s.observer == nil {
		return types.BridgeSnapshot{}, fmt.Errorf("relayrefund: extension does not expose bridge state")
	}
	return s.observer.Snapshot(), nil
}

// Guard returns the hook order guard.
func (s *Server) Guard() *TxGuard {
	return s.guard
}

// Close is a no-op for the server wrapper.
func (s *Server) Close() error { return nil }
