package chainstate

import (
	"errors"
	"fmt"
	"math"
	"math/bits"

	"github.com/blockberries/relayrefund"
	"github.com/blockberries/relayrefund/types"
)

// Compile-time interface check.
var _ relayrefund.Dispatcher = (*Dispatcher)(nil)

var (
	// ErrUnknownCall: the call kind is unknown or its payload is missing.
	ErrUnknownCall = errors.New("unknown call")
	// ErrOldHeader: the finality target is not above the best finalized header.
	ErrOldHeader = errors.New("finality target is not above best finalized header")
	// ErrUnknownRelayBlock: parachain heads reference a relay block that is not finalized.
	ErrUnknownRelayBlock = errors.New("relay block is not finalized")
	// ErrMessagesCountMismatch: the declared message count does not match the proof.
	ErrMessagesCountMismatch = errors.New("declared messages count does not match proof")
	// ErrZeroNonce: a message proof starts at nonce zero. Nonces start at 1.
	ErrZeroNonce = errors.New("message nonces start at 1")
)

// Weights are the declared weights of each call kind.
type Weights struct {
	BatchBase           types.Weight
	SubmitFinalityProof types.Weight
	ParachainHeadsBase  types.Weight
	PerParachainHead    types.Weight
	MessagesBase        types.Weight
	PerMessage          types.Weight
	Remark              types.Weight
}

// DefaultWeights returns the weights used when none are given.
func DefaultWeights() Weights {
	return Weights{
		BatchBase:           10_000_000,
		SubmitFinalityProof: 500_000_000,
		ParachainHeadsBase:  200_000_000,
		PerParachainHead:    100_000_000,
		MessagesBase:        200_000_000,
		PerMessage:          50_000_000,
		Remark:              1_000_000,
	}
}

// Dispatcher executes bridge calls against a State.
type Dispatcher struct {
	state   *State
	weights Weights
}

// NewDispatcher creates a dispatcher over state.
func NewDispatcher(state *State, weights Weights) *Dispatcher {
	return &Dispatcher{state: state, weights: weights}
}

// DispatchInfo returns the declared weight of call.
func (d *Dispatcher) DispatchInfo(call types.Call) types.DispatchInfo {
	return types.DispatchInfo{
		Weight:  d.weight(call),
		Class:   types.DispatchNormal,
		PaysFee: types.PaysYes,
	}
}

// Weights saturate, so a caller-supplied dispatch weight can never
// wrap the declared weight around to a small value.
func (d *Dispatcher) weight(call types.Call) types.Weight {
	switch call.Kind {
	case types.CallBatchAll:
		w := d.weights.BatchBase
		if c, ok := call.AsBatchAll(); ok {
			for _, nested := range c.Calls {
				w = addWeight(w, d.weight(nested))
			}
		}
		return w
	case types.CallSubmitFinalityProof:
		return d.weights.SubmitFinalityProof
	case types.CallSubmitParachainHeads:
		w := d.weights.ParachainHeadsBase
		if c, ok := call.AsSubmitParachainHeads(); ok {
			w = addWeight(w, mulWeight(d.weights.PerParachainHead, types.Weight(len(c.Parachains))))
		}
		return w
	case types.CallReceiveMessagesProof:
		w := d.weights.MessagesBase
		if c, ok := call.AsReceiveMessagesProof(); ok {
			w = addWeight(w, mulWeight(d.weights.PerMessage, types.Weight(c.MessagesCount)))
			w = addWeight(w, c.DispatchWeight)
		}
		return w
	default:
		return d.weights.Remark
	}
}

func addWeight(a, b types.Weight) types.Weight {
	sum, carry := bits.Add64(uint64(a), uint64(b), 0)
	if carry != 0 {
		return math.MaxUint64
	}
	return types.Weight(sum)
}

func mulWeight(a, b types.Weight) types.Weight {
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	if hi != 0 {
		return math.MaxUint64
	}
	return types.Weight(lo)
}

// Dispatch executes call on behalf of who. A failing batch_all leaves
// the state as it was before the batch. With a backend, the new state
// is saved before Dispatch returns; if saving fails the call is
// undone and reported as failed.
func (d *Dispatcher) Dispatch(who types.AccountID, call types.Call) (types.PostDispatchInfo, error) {
	post := types.PostDispatchInfo{PaysFee: types.PaysYes}
	s := d.state
	s.mu.Lock()
	defer s.mu.Unlock()

	var saved Trackers
	if s.backend != nil {
		saved = s.cur.Clone()
	}
	if err := apply(&s.cur, who, call); err != nil {
		return post, err
	}
	if err := s.save(); err != nil {
		s.cur = saved
		return post, err
	}
	return post, nil
}

func apply(t *Trackers, who types.AccountID, call types.Call) error {
	switch call.Kind {
	case types.CallBatchAll:
		c, ok := call.AsBatchAll()
		if !ok {
			return ErrUnknownCall
		}
		return applyBatchAll(t, who, c)
	case types.CallSubmitFinalityProof:
		c, ok := call.AsSubmitFinalityProof()
		if !ok {
			return ErrUnknownCall
		}
		return applyFinality(t, c)
	case types.CallSubmitParachainHeads:
		c, ok := call.AsSubmitParachainHeads()
		if !ok {
			return ErrUnknownCall
		}
		return applyParachainHeads(t, c)
	case types.CallReceiveMessagesProof:
		c, ok := call.AsReceiveMessagesProof()
		if !ok {
			return ErrUnknownCall
		}
		return applyMessages(t, who, c)
	case types.CallRemark:
		return nil
	default:
		return ErrUnknownCall
	}
}

func applyBatchAll(t *Trackers, who types.AccountID, c *types.BatchAllCall) error {
	saved := t.Clone()
	for i, nested := range c.Calls {
		if err := apply(t, who, nested); err != nil {
			*t = saved
			return fmt.Errorf("batch_all call %d (%s): %w", i, nested.Kind, err)
		}
	}
	return nil
}

func applyFinality(t *Trackers, c *types.SubmitFinalityProofCall) error {
	target := c.FinalityTarget
	if t.Best != nil && target.Number <= t.Best.Number {
		return fmt.Errorf("%w: %d <= %d", ErrOldHeader, target.Number, t.Best.Number)
	}
	t.Best = &target
	return nil
}

// Heads read at a relay block no newer than the stored one are
// skipped rather than failing the call.
func applyParachainHeads(t *Trackers, c *types.SubmitParachainHeadsCall) error {
	at := c.AtRelayBlock.Number
	if t.Best == nil || at > t.Best.Number {
		return fmt.Errorf("%w: %d", ErrUnknownRelayBlock, at)
	}
	for _, head := range c.Parachains {
		info, known := t.Paras[head.ParaID]
		if known && info.BestHeadHash.AtRelayBlockNumber >= at {
			continue
		}
		next := info.NextImportedHashPosition + 1
		t.Paras[head.ParaID] = types.ParaInfo{
			BestHeadHash: types.BestParaHeadHash{
				AtRelayBlockNumber: at,
				HeadHash:           head.HeadHash,
			},
			NextImportedHashPosition: next,
		}
	}
	return nil
}

// Messages that are not next in sequence are skipped; the call
// still succeeds.
func applyMessages(t *Trackers, who types.AccountID, c *types.ReceiveMessagesProofCall) error {
	p := c.Proof
	if p.NoncesEnd < p.NoncesStart {
		if c.MessagesCount != 0 {
			return ErrMessagesCountMismatch
		}
		return nil
	}
	if p.NoncesStart == 0 {
		return fmt.Errorf("%w: proof carries [%d, %d]", ErrZeroNonce, p.NoncesStart, p.NoncesEnd)
	}
	// Compared as count-1 so a full-width range cannot wrap to zero.
	if c.MessagesCount == 0 || uint64(c.MessagesCount)-1 != uint64(p.NoncesEnd-p.NoncesStart) {
		return fmt.Errorf("%w: declared %d, proof carries [%d, %d]", ErrMessagesCountMismatch, c.MessagesCount, p.NoncesStart, p.NoncesEnd)
	}

	lane := t.Lanes[p.Lane]
	next := lane.LastDeliveredNonce() + 1
	if p.NoncesStart > next || p.NoncesEnd < next {
		return nil
	}

	if n := len(lane.Relayers); n > 0 && lane.Relayers[n-1].Relayer == who {
		lane.Relayers[n-1].Messages.End = p.NoncesEnd
	} else {
		lane.Relayers = append(lane.Relayers, types.UnrewardedRelayer{
			Relayer:  who,
			Messages: types.DeliveredMessages{Begin: next, End: p.NoncesEnd},
		})
	}
	t.Lanes[p.Lane] = lane
	return nil
}
