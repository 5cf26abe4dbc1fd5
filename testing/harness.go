package refundtest

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/blockberries/relayrefund/chainstate"
	"github.com/blockberries/relayrefund/extension"
	"github.com/blockberries/relayrefund/fee"
	"github.com/blockberries/relayrefund/obsolete"
	"github.com/blockberries/relayrefund/server"
	"github.com/blockberries/relayrefund/types"
)

// TestParachain is the parachain the harness extension refunds for.
const TestParachain types.ParaID = 1000

// TestLane is the lane the harness extension refunds for.
var TestLane = types.LaneID{0, 0, 0, 0}

// Harness wires an extension to in-memory bridge trackers, the
// default fee calculator and an in-memory reward ledger.
type Harness struct {
	t *testing.T

	State      *chainstate.State
	Ledger     *chainstate.Ledger
	Dispatcher *chainstate.Dispatcher
	Fee        *fee.Calculator
	Metrics    *extension.Metrics
	Registry   *prometheus.Registry
	Ext        *extension.Extension

	srv *server.Server
}

// NewHarness creates a harness with empty trackers.
func NewHarness(t *testing.T) *Harness {
	t.Helper()
	state := chainstate.New()
	h := &Harness{
		t:          t,
		State:      state,
		Ledger:     chainstate.NewLedger(),
		Dispatcher: chainstate.NewDispatcher(state, chainstate.DefaultWeights()),
		Fee:        fee.NewCalculator(fee.DefaultParams()),
		Registry:   prometheus.NewRegistry(),
	}
	h.Metrics = extension.NewMetrics(h.Registry)
	ext, err := extension.New(extension.Config{
		ParachainID: TestParachain,
		LaneID:      TestLane,
		RelayChain:  state,
		Parachains:  state,
		Messages:    state,
		Rewards:     h.Ledger,
		Fee:         h.Fee,
		Obsolete:    obsolete.New(state, state, state),
		Metrics:     h.Metrics,
	})
	if err != nil {
		t.Fatalf("extension.New failed: %v", err)
	}
	h.Ext = ext
	return h
}

// Server returns a pipeline server over the harness extension,
// created on first use.
func (h *Harness) Server() *server.Server {
	if h.srv == nil {
		h.srv = server.New(h.Ext, h.Dispatcher, h.Ledger, nil)
	}
	return h.srv
}

// InitializeEnvironment sets the best relay chain header, the test
// parachain head and the best delivered message nonce of the test lane.
func (h *Harness) InitializeEnvironment(bestRelayHeader, paraHeadAtRelayHeader types.BlockNumber, bestDeliveredMessage types.MessageNonce) {
	h.State.SetBestFinalized(types.Header{Number: bestRelayHeader})
	h.State.SetParaInfo(TestParachain, types.ParaInfo{
		BestHeadHash: types.BestParaHeadHash{AtRelayBlockNumber: paraHeadAtRelayHeader},
	})
	h.State.SetInboundLane(TestLane, types.InboundLaneData{LastConfirmedNonce: bestDeliveredMessage})
}

// RunValidate runs Validate as the test relayer with default dispatch
// info and zero length.
func (h *Harness) RunValidate(call types.Call) error {
	return h.Ext.Validate(RelayerAccount(), call, types.DispatchInfo{}, 0)
}

// RunPreDispatch runs PreDispatch as the test relayer with default
// dispatch info and zero length.
func (h *Harness) RunPreDispatch(call types.Call) (*types.PreDispatchData, error) {
	return h.Ext.PreDispatch(RelayerAccount(), call, types.DispatchInfo{}, 0)
}

// RunPostDispatch runs PostDispatch with the harness dispatch info and
// an encoded length of 1024.
func (h *Harness) RunPostDispatch(pre *types.PreDispatchData, result error) (types.Balance, bool) {
	return h.Ext.PostDispatch(pre, DispatchInfo(), PostDispatchInfo(), 1024, result)
}

// ExpectedReward is the fee of a transaction run through RunPostDispatch.
func (h *Harness) ExpectedReward() types.Balance {
	return h.Fee.ComputeFee(DispatchInfo(), PostDispatchInfo(), 1024, 0)
}

// RelayerReward returns the test relayer's reward on the test lane.
func (h *Harness) RelayerReward() (types.Balance, bool) {
	h.t.Helper()
	reward, ok, err := h.Ledger.RelayerReward(RelayerAccount(), TestLane)
	if err != nil {
		h.t.Fatalf("RelayerReward failed: %v", err)
	}
	return reward, ok
}

// Submit runs call signed by the test relayer through the server.
func (h *Harness) Submit(call types.Call, tip types.Balance) types.TxOutcome {
	h.t.Helper()
	outcome, err := h.Server().Submit(context.Background(), types.Extrinsic{
		Signer: RelayerAccount(),
		Tip:    tip,
		Call:   call,
	})
	if err != nil {
		h.t.Fatalf("Submit (%s) failed: %v", call.Kind, err)
	}
	return outcome
}

// RelayerAccount is the test relayer at this chain.
func RelayerAccount() types.AccountID {
	return types.AccountID{}
}

// DispatchInfo is the dispatch info used by RunPostDispatch: one
// second of weight, normal class, fee paid.
func DispatchInfo() types.DispatchInfo {
	return types.DispatchInfo{
		Weight:  1_000_000_000_000,
		Class:   types.DispatchNormal,
		PaysFee: types.PaysYes,
	}
}

// PostDispatchInfo is the post-dispatch info used by RunPostDispatch.
func PostDispatchInfo() types.PostDispatchInfo {
	return types.PostDispatchInfo{PaysFee: types.PaysYes}
}

// SubmitRelayHeaderCall submits a relay chain header with the given number.
func SubmitRelayHeaderCall(number types.BlockNumber) types.Call {
	return types.NewSubmitFinalityProof(types.Header{Number: number}, nil)
}

// SubmitParachainHeadCall submits the test parachain head read at the
// given relay block.
func SubmitParachainHeadCall(atRelayBlock types.BlockNumber) types.Call {
	var head types.Hash
	for i := range head {
		head[i] = 1
	}
	return types.NewSubmitParachainHeads(
		types.RelayBlockID{Number: atRelayBlock},
		[]types.ParachainHead{{ParaID: TestParachain, HeadHash: head}},
		nil,
	)
}

// MessageDeliveryCall delivers the single message with the given nonce.
func MessageDeliveryCall(bestMessage types.MessageNonce) types.Call {
	return MessagesDeliveryCall(bestMessage, bestMessage)
}

// MessagesDeliveryCall delivers messages [start, end] on the test lane.
func MessagesDeliveryCall(start, end types.MessageNonce) types.Call {
	var count uint32
	if end >= start {
		count = uint32(end - start + 1)
	}
	return types.NewReceiveMessagesProof(types.AccountID{}, types.MessagesProof{
		Lane:        TestLane,
		NoncesStart: start,
		NoncesEnd:   end,
	}, count, 0)
}

// ParachainFinalityAndDeliveryBatchCall batches a parachain head
// submission with a message delivery.
func ParachainFinalityAndDeliveryBatchCall(paraHeadAtRelayHeader types.BlockNumber, bestMessage types.MessageNonce) types.Call {
	return types.NewBatchAll(
		SubmitParachainHeadCall(paraHeadAtRelayHeader),
		MessageDeliveryCall(bestMessage),
	)
}

// AllFinalityAndDeliveryBatchCall batches a relay header, a parachain
// head and a message delivery.
func AllFinalityAndDeliveryBatchCall(relayHeader, paraHeadAtRelayHeader types.BlockNumber, bestMessage types.MessageNonce) types.Call {
	return types.NewBatchAll(
		SubmitRelayHeaderCall(relayHeader),
		SubmitParachainHeadCall(paraHeadAtRelayHeader),
		MessageDeliveryCall(bestMessage),
	)
}

// AllFinalityPreDispatchData expects relay 200, parachain 200 and
// starts from message 100.
func AllFinalityPreDispatchData() *types.PreDispatchData {
	return &types.PreDispatchData{
		Relayer: RelayerAccount(),
		CallType: types.AllFinalityAndDelivery(
			types.ExpectedRelayChainState{BestBlockNumber: 200},
			types.ExpectedParachainState{AtRelayBlockNumber: 200},
			types.MessagesState{BestNonce: 100},
		),
	}
}

// ParachainFinalityPreDispatchData expects parachain 200 and starts
// from message 100.
func ParachainFinalityPreDispatchData() *types.PreDispatchData {
	return &types.PreDispatchData{
		Relayer: RelayerAccount(),
		CallType: types.ParachainFinalityAndDelivery(
			types.ExpectedParachainState{AtRelayBlockNumber: 200},
			types.MessagesState{BestNonce: 100},
		),
	}
}

// DeliveryPreDispatchData starts from message 100.
func DeliveryPreDispatchData() *types.PreDispatchData {
	return &types.PreDispatchData{
		Relayer:  RelayerAccount(),
		CallType: types.Delivery(types.MessagesState{BestNonce: 100}),
	}
}
