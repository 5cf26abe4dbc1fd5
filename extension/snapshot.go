package extension

import (
	"github.com/blockberries/relayrefund"
	"github.com/blockberries/relayrefund/types"
)

// RelayChainState returns the relay chain finality tracker state, or
// false if the tracker was never initialized.
func RelayChainState(f relayrefund.RelayChainFinality) (types.ExpectedRelayChainState, bool) {
	number, ok := f.BestFinalizedNumber()
	if !ok {
		return types.ExpectedRelayChainState{}, false
	}
	return types.ExpectedRelayChainState{BestBlockNumber: number}, true
}

// ParachainState returns the relay block at which the head of the
// given parachain was last updated, or false if it is unknown.
func ParachainState(f relayrefund.ParachainFinality, id types.ParaID) (types.ExpectedParachainState, bool) {
	info, ok := f.BestParachainInfo(id)
	if !ok {
		return types.ExpectedParachainState{}, false
	}
	return types.ExpectedParachainState{AtRelayBlockNumber: info.BestHeadHash.AtRelayBlockNumber}, true
}

// MessagesState returns the last delivered nonce of the lane. An
// untouched lane reports zero.
func MessagesState(l relayrefund.MessageLanes, lane types.LaneID) types.MessagesState {
	return types.MessagesState{BestNonce: l.InboundLaneData(lane).LastDeliveredNonce()}
}
