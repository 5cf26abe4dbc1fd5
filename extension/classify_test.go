package extension_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockberries/relayrefund/extension"
	refundtest "github.com/blockberries/relayrefund/testing"
	"github.com/blockberries/relayrefund/types"
)

func TestClassifyReadsLaneAtClassificationTime(t *testing.T) {
	nonce := types.MessageNonce(7)
	lanes := &refundtest.MockTrackers{
		InboundLaneDataFn: func(lane types.LaneID) types.InboundLaneData {
			return types.InboundLaneData{LastConfirmedNonce: nonce}
		},
	}
	c := extension.NewClassifier(refundtest.TestParachain, refundtest.TestLane, lanes)

	ct, ok := c.Classify(refundtest.MessageDeliveryCall(500))
	require.True(t, ok)
	assert.Equal(t, types.Delivery(types.MessagesState{BestNonce: 7}), ct)

	nonce = 9
	ct, ok = c.Classify(refundtest.MessageDeliveryCall(500))
	require.True(t, ok)
	assert.Equal(t, types.MessagesState{BestNonce: 9}, ct.PreDispatchMessagesState())
}

func TestClassifyTakesExpectedStateFromCall(t *testing.T) {
	lanes := &refundtest.MockTrackers{}
	c := extension.NewClassifier(refundtest.TestParachain, refundtest.TestLane, lanes)

	ct, ok := c.Classify(refundtest.AllFinalityAndDeliveryBatchCall(300, 290, 10))
	require.True(t, ok)
	assert.Equal(t, types.CallTypeAllFinalityAndDelivery, ct.Kind)

	relay, ok := ct.ExpectedRelayChainState()
	require.True(t, ok)
	assert.Equal(t, types.BlockNumber(300), relay.BestBlockNumber)

	para, ok := ct.ExpectedParachainState()
	require.True(t, ok)
	assert.Equal(t, types.BlockNumber(290), para.AtRelayBlockNumber)
	assert.Zero(t, ct.PreDispatchMessagesState().BestNonce)

	ct, ok = c.Classify(refundtest.ParachainFinalityAndDeliveryBatchCall(290, 10))
	require.True(t, ok)
	_, ok = ct.ExpectedRelayChainState()
	assert.False(t, ok)
}

func TestClassifyRejectsBatchOrder(t *testing.T) {
	c := extension.NewClassifier(refundtest.TestParachain, refundtest.TestLane, &refundtest.MockTrackers{})

	_, ok := c.Classify(types.NewBatchAll(
		refundtest.SubmitParachainHeadCall(200),
		refundtest.SubmitRelayHeaderCall(200),
		refundtest.MessageDeliveryCall(200),
	))
	assert.False(t, ok)

	_, ok = c.Classify(types.NewBatchAll(
		refundtest.SubmitRelayHeaderCall(200),
		refundtest.MessageDeliveryCall(200),
	))
	assert.False(t, ok)
}

func TestClassifyRejectsMissingPayload(t *testing.T) {
	c := extension.NewClassifier(refundtest.TestParachain, refundtest.TestLane, &refundtest.MockTrackers{})

	_, ok := c.Classify(types.Call{Kind: types.CallReceiveMessagesProof})
	assert.False(t, ok)
	_, ok = c.Classify(types.Call{Kind: types.CallBatchAll})
	assert.False(t, ok)
}
