package extension

import (
	"github.com/blockberries/relayrefund"
	"github.com/blockberries/relayrefund/types"
)

// Classifier recognizes the bridge transactions that may be refunded
// for one (parachain, lane) pair.
//
// The shape match depends only on the call. The MessagesState it
// returns is the lane state read at classification time.
type Classifier struct {
	paraID types.ParaID
	lane   types.LaneID
	lanes  relayrefund.MessageLanes
}

// NewClassifier creates a classifier for the given parachain and lane.
func NewClassifier(paraID types.ParaID, lane types.LaneID, lanes relayrefund.MessageLanes) *Classifier {
	return &Classifier{paraID: paraID, lane: lane, lanes: lanes}
}

// Classify returns the call type of a recognized transaction, or
// false for any other shape.
//
// Recognized shapes:
//   - batch_all[finality, parachain heads, delivery]
//   - batch_all[parachain heads, delivery]
//   - delivery
//
// A batch of any other size is never recognized, and neither is one
// whose calls are in a different order.
func (c *Classifier) Classify(call types.Call) (types.CallType, bool) {
	if batch, ok := call.AsBatchAll(); ok {
		switch len(batch.Calls) {
		case 3:
			relay, ok := c.expectedRelayChainState(batch.Calls[0])
			if !ok {
				return types.CallType{}, false
			}
			para, ok := c.expectedParachainState(batch.Calls[1])
			if !ok {
				return types.CallType{}, false
			}
			msgs, ok := c.messagesState(batch.Calls[2])
			if !ok {
				return types.CallType{}, false
			}
			return types.AllFinalityAndDelivery(relay, para, msgs), true
		case 2:
			para, ok := c.expectedParachainState(batch.Calls[0])
			if !ok {
				return types.CallType{}, false
			}
			msgs, ok := c.messagesState(batch.Calls[1])
			if !ok {
				return types.CallType{}, false
			}
			return types.ParachainFinalityAndDelivery(para, msgs), true
		default:
			return types.CallType{}, false
		}
	}

	msgs, ok := c.messagesState(call)
	if !ok {
		return types.CallType{}, false
	}
	return types.Delivery(msgs), true
}

func (c *Classifier) expectedRelayChainState(call types.Call) (types.ExpectedRelayChainState, bool) {
	proof, ok := call.AsSubmitFinalityProof()
	if !ok {
		return types.ExpectedRelayChainState{}, false
	}
	return types.ExpectedRelayChainState{BestBlockNumber: proof.FinalityTarget.Number}, true
}

func (c *Classifier) expectedParachainState(call types.Call) (types.ExpectedParachainState, bool) {
	heads, ok := call.AsSubmitParachainHeads()
	if !ok {
		return types.ExpectedParachainState{}, false
	}
	// Submissions naming several parachains are never refunded here,
	// even if one of them is ours.
	if len(heads.Parachains) != 1 || heads.Parachains[0].ParaID != c.paraID {
		return types.ExpectedParachainState{}, false
	}
	return types.ExpectedParachainState{AtRelayBlockNumber: heads.AtRelayBlock.Number}, true
}

func (c *Classifier) messagesState(call types.Call) (types.MessagesState, bool) {
	delivery, ok := call.AsReceiveMessagesProof()
	if !ok {
		return types.MessagesState{}, false
	}
	if delivery.Proof.Lane != c.lane {
		return types.MessagesState{}, false
	}
	return MessagesState(c.lanes, delivery.Proof.Lane), true
}
