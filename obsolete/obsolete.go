// Package obsolete rejects bridge calls that cannot improve the
// state of the bridge trackers: finality proofs for headers at or
// below the best finalized one, parachain heads read at an already
// known relay block, and message proofs with no new nonces.
package obsolete

import (
	"github.com/blockberries/relayrefund"
	"github.com/blockberries/relayrefund/types"
)

// Compile-time interface check.
var _ relayrefund.ObsoleteFilter = (*Filter)(nil)

// Filter checks calls against the current tracker state.
type Filter struct {
	relayChain relayrefund.RelayChainFinality
	parachains relayrefund.ParachainFinality
	lanes      relayrefund.MessageLanes
}

// New creates a filter over the given trackers.
func New(relayChain relayrefund.RelayChainFinality, parachains relayrefund.ParachainFinality, lanes relayrefund.MessageLanes) *Filter {
	return &Filter{relayChain: relayChain, parachains: parachains, lanes: lanes}
}

// PreCheck returns a stale error if call is obsolete. Calls outside
// the bridge vocabulary are always accepted; a batch_all is not
// looked into.
func (f *Filter) PreCheck(_ types.AccountID, call types.Call, _ types.DispatchInfo, _ uint32) error {
	switch call.Kind {
	case types.CallSubmitFinalityProof:
		if c, ok := call.AsSubmitFinalityProof(); ok {
			return f.checkFinality(c)
		}
	case types.CallSubmitParachainHeads:
		if c, ok := call.AsSubmitParachainHeads(); ok {
			return f.checkParachainHeads(c)
		}
	case types.CallReceiveMessagesProof:
		if c, ok := call.AsReceiveMessagesProof(); ok {
			return f.checkMessages(c)
		}
	}
	return nil
}

func (f *Filter) checkFinality(c *types.SubmitFinalityProofCall) error {
	best, ok := f.relayChain.BestFinalizedNumber()
	if !ok {
		return nil
	}
	if c.FinalityTarget.Number <= best {
		return relayrefund.NewStaleError("relay header %d is not above best finalized %d", c.FinalityTarget.Number, best)
	}
	return nil
}

// Only single-parachain submissions are checked. Submissions naming
// several parachains pass through.
func (f *Filter) checkParachainHeads(c *types.SubmitParachainHeadsCall) error {
	if len(c.Parachains) != 1 {
		return nil
	}
	head := c.Parachains[0]
	info, ok := f.parachains.BestParachainInfo(head.ParaID)
	if !ok {
		return nil
	}
	if info.BestHeadHash.AtRelayBlockNumber >= c.AtRelayBlock.Number {
		return relayrefund.NewStaleError("parachain %d head at relay block %d is not above known %d",
			head.ParaID, c.AtRelayBlock.Number, info.BestHeadHash.AtRelayBlockNumber)
	}
	return nil
}

func (f *Filter) checkMessages(c *types.ReceiveMessagesProofCall) error {
	delivered := f.lanes.InboundLaneData(c.Proof.Lane).LastDeliveredNonce()
	if c.Proof.NoncesEnd <= delivered {
		return relayrefund.NewStaleError("messages up to %d on lane %s are already delivered (last %d)",
			c.Proof.NoncesEnd, c.Proof.Lane, delivered)
	}
	return nil
}
