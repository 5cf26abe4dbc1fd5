package chainstate_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockberries/relayrefund/chainstate"
	refundtest "github.com/blockberries/relayrefund/testing"
	"github.com/blockberries/relayrefund/types"
)

var (
	alice = types.AccountID{0xa}
	bob   = types.AccountID{0xb}
)

func newDispatcher(t *testing.T) (*chainstate.Dispatcher, *chainstate.State) {
	t.Helper()
	state := chainstate.New()
	state.SetBestFinalized(types.Header{Number: 100})
	state.SetParaInfo(refundtest.TestParachain, types.ParaInfo{
		BestHeadHash: types.BestParaHeadHash{AtRelayBlockNumber: 100},
	})
	state.SetInboundLane(refundtest.TestLane, types.InboundLaneData{LastConfirmedNonce: 100})
	return chainstate.NewDispatcher(state, chainstate.DefaultWeights()), state
}

func bestNonce(state *chainstate.State) types.MessageNonce {
	return state.InboundLaneData(refundtest.TestLane).LastDeliveredNonce()
}

func TestDispatchFinalityProof(t *testing.T) {
	d, state := newDispatcher(t)

	_, err := d.Dispatch(alice, refundtest.SubmitRelayHeaderCall(150))
	require.NoError(t, err)
	best, ok := state.BestFinalizedNumber()
	require.True(t, ok)
	assert.Equal(t, types.BlockNumber(150), best)

	_, err = d.Dispatch(alice, refundtest.SubmitRelayHeaderCall(150))
	assert.ErrorIs(t, err, chainstate.ErrOldHeader)
}

func TestDispatchFinalityProofInitializesTracker(t *testing.T) {
	state := chainstate.New()
	d := chainstate.NewDispatcher(state, chainstate.DefaultWeights())

	_, ok := state.BestFinalizedNumber()
	require.False(t, ok)
	_, err := d.Dispatch(alice, refundtest.SubmitRelayHeaderCall(1))
	require.NoError(t, err)
	best, ok := state.BestFinalizedNumber()
	require.True(t, ok)
	assert.Equal(t, types.BlockNumber(1), best)
}

func TestDispatchParachainHeads(t *testing.T) {
	d, state := newDispatcher(t)

	_, err := d.Dispatch(alice, refundtest.SubmitParachainHeadCall(101))
	assert.ErrorIs(t, err, chainstate.ErrUnknownRelayBlock)

	state.SetBestFinalized(types.Header{Number: 120})
	_, err = d.Dispatch(alice, refundtest.SubmitParachainHeadCall(110))
	require.NoError(t, err)
	info, ok := state.BestParachainInfo(refundtest.TestParachain)
	require.True(t, ok)
	assert.Equal(t, types.BlockNumber(110), info.BestHeadHash.AtRelayBlockNumber)
	assert.Equal(t, uint32(1), info.NextImportedHashPosition)

	// Not newer: skipped, call still succeeds.
	_, err = d.Dispatch(alice, refundtest.SubmitParachainHeadCall(105))
	require.NoError(t, err)
	info, _ = state.BestParachainInfo(refundtest.TestParachain)
	assert.Equal(t, types.BlockNumber(110), info.BestHeadHash.AtRelayBlockNumber)
}

func TestDispatchMessages(t *testing.T) {
	d, state := newDispatcher(t)

	_, err := d.Dispatch(alice, refundtest.MessagesDeliveryCall(101, 110))
	require.NoError(t, err)
	assert.Equal(t, types.MessageNonce(110), bestNonce(state))

	// Same relayer extends its entry.
	_, err = d.Dispatch(alice, refundtest.MessagesDeliveryCall(105, 120))
	require.NoError(t, err)
	lane := state.InboundLaneData(refundtest.TestLane)
	require.Len(t, lane.Relayers, 1)
	assert.Equal(t, types.DeliveredMessages{Begin: 101, End: 120}, lane.Relayers[0].Messages)

	_, err = d.Dispatch(bob, refundtest.MessageDeliveryCall(121))
	require.NoError(t, err)
	lane = state.InboundLaneData(refundtest.TestLane)
	require.Len(t, lane.Relayers, 2)
	assert.Equal(t, bob, lane.Relayers[1].Relayer)
	assert.Equal(t, types.DeliveredMessages{Begin: 121, End: 121}, lane.Relayers[1].Messages)
}

func TestDispatchMessagesOutOfSequenceDeliverNothing(t *testing.T) {
	d, state := newDispatcher(t)

	// Gap.
	_, err := d.Dispatch(alice, refundtest.MessageDeliveryCall(200))
	require.NoError(t, err)
	assert.Equal(t, types.MessageNonce(100), bestNonce(state))

	// Already delivered.
	_, err = d.Dispatch(alice, refundtest.MessagesDeliveryCall(50, 100))
	require.NoError(t, err)
	assert.Equal(t, types.MessageNonce(100), bestNonce(state))
}

func TestDispatchMessagesCountMismatch(t *testing.T) {
	d, state := newDispatcher(t)

	call := types.NewReceiveMessagesProof(types.AccountID{}, types.MessagesProof{
		Lane:        refundtest.TestLane,
		NoncesStart: 101,
		NoncesEnd:   110,
	}, 3, 0)
	_, err := d.Dispatch(alice, call)
	assert.ErrorIs(t, err, chainstate.ErrMessagesCountMismatch)
	assert.Equal(t, types.MessageNonce(100), bestNonce(state))
}

func TestDispatchBatchAll(t *testing.T) {
	d, state := newDispatcher(t)

	_, err := d.Dispatch(alice, refundtest.AllFinalityAndDeliveryBatchCall(200, 200, 101))
	require.NoError(t, err)

	best, _ := state.BestFinalizedNumber()
	assert.Equal(t, types.BlockNumber(200), best)
	info, _ := state.BestParachainInfo(refundtest.TestParachain)
	assert.Equal(t, types.BlockNumber(200), info.BestHeadHash.AtRelayBlockNumber)
	assert.Equal(t, types.MessageNonce(101), bestNonce(state))
}

func TestDispatchBatchAllIsAtomic(t *testing.T) {
	d, state := newDispatcher(t)

	// The parachain head references a relay block the batch never imports.
	call := types.NewBatchAll(
		refundtest.SubmitRelayHeaderCall(150),
		refundtest.MessageDeliveryCall(101),
		refundtest.SubmitParachainHeadCall(300),
	)
	_, err := d.Dispatch(alice, call)
	require.ErrorIs(t, err, chainstate.ErrUnknownRelayBlock)

	best, _ := state.BestFinalizedNumber()
	assert.Equal(t, types.BlockNumber(100), best)
	assert.Equal(t, types.MessageNonce(100), bestNonce(state))
}

func TestDispatchUnknownCall(t *testing.T) {
	d, _ := newDispatcher(t)

	_, err := d.Dispatch(alice, types.Call{Kind: types.CallUnknown})
	assert.ErrorIs(t, err, chainstate.ErrUnknownCall)
	_, err = d.Dispatch(alice, types.Call{Kind: types.CallSubmitFinalityProof})
	assert.ErrorIs(t, err, chainstate.ErrUnknownCall)

	_, err = d.Dispatch(alice, types.NewRemark([]byte("hi")))
	assert.NoError(t, err)
}

func TestDispatchInfo(t *testing.T) {
	w := chainstate.DefaultWeights()
	d := chainstate.NewDispatcher(chainstate.New(), w)

	info := d.DispatchInfo(refundtest.MessagesDeliveryCall(1, 4))
	assert.Equal(t, w.MessagesBase+4*w.PerMessage, info.Weight)
	assert.Equal(t, types.PaysYes, info.PaysFee)

	batch := d.DispatchInfo(refundtest.ParachainFinalityAndDeliveryBatchCall(1, 1))
	assert.Equal(t, w.BatchBase+w.ParachainHeadsBase+w.PerParachainHead+w.MessagesBase+w.PerMessage, batch.Weight)
}

func TestDispatchInfoSaturates(t *testing.T) {
	d := chainstate.NewDispatcher(chainstate.New(), chainstate.DefaultWeights())

	heavy := types.NewReceiveMessagesProof(types.AccountID{}, types.MessagesProof{
		Lane:        refundtest.TestLane,
		NoncesStart: 1,
		NoncesEnd:   1,
	}, 1, math.MaxUint64-1)
	assert.Equal(t, types.Weight(math.MaxUint64), d.DispatchInfo(heavy).Weight)
	assert.Equal(t, types.Weight(math.MaxUint64), d.DispatchInfo(types.NewBatchAll(heavy, heavy)).Weight)

	weights := chainstate.DefaultWeights()
	weights.PerMessage = math.MaxUint64 / 2
	d = chainstate.NewDispatcher(chainstate.New(), weights)
	assert.Equal(t, types.Weight(math.MaxUint64), d.DispatchInfo(refundtest.MessagesDeliveryCall(1, 4)).Weight)
}

func TestDispatchRejectsFullWidthNonceRange(t *testing.T) {
	d, state := newDispatcher(t)

	fullRange := types.NewReceiveMessagesProof(types.AccountID{}, types.MessagesProof{
		Lane:        refundtest.TestLane,
		NoncesStart: 0,
		NoncesEnd:   math.MaxUint64,
	}, 0, 0)
	_, err := d.Dispatch(alice, fullRange)
	assert.ErrorIs(t, err, chainstate.ErrZeroNonce)

	// Starting at 1 the span is MaxUint64, which no uint32 count matches.
	fromOne := types.NewReceiveMessagesProof(types.AccountID{}, types.MessagesProof{
		Lane:        refundtest.TestLane,
		NoncesStart: 1,
		NoncesEnd:   math.MaxUint64,
	}, 0, 0)
	_, err = d.Dispatch(alice, fromOne)
	assert.ErrorIs(t, err, chainstate.ErrMessagesCountMismatch)

	assert.Equal(t, types.MessageNonce(100), bestNonce(state))
}

// memBackend keeps saved trackers in memory.
type memBackend struct {
	saved   *chainstate.Trackers
	saves   int
	failErr error
}

func (b *memBackend) LoadTrackers() (chainstate.Trackers, bool, error) {
	if b.saved == nil {
		return chainstate.Trackers{}, false, nil
	}
	return b.saved.Clone(), true, nil
}

func (b *memBackend) SaveTrackers(t chainstate.Trackers) error {
	if b.failErr != nil {
		return b.failErr
	}
	b.saves++
	b.saved = &t
	return nil
}

func TestOpenRestoresSavedTrackers(t *testing.T) {
	backend := &memBackend{}
	state, found, err := chainstate.Open(backend)
	require.NoError(t, err)
	assert.False(t, found)

	state.SetBestFinalized(types.Header{Number: 100})
	state.SetInboundLane(refundtest.TestLane, types.InboundLaneData{LastConfirmedNonce: 100})
	require.NoError(t, state.Persist())

	d := chainstate.NewDispatcher(state, chainstate.DefaultWeights())
	_, err = d.Dispatch(alice, refundtest.MessagesDeliveryCall(101, 105))
	require.NoError(t, err)
	assert.Equal(t, 2, backend.saves)

	restored, found, err := chainstate.Open(backend)
	require.NoError(t, err)
	require.True(t, found)
	best, ok := restored.BestFinalizedNumber()
	require.True(t, ok)
	assert.Equal(t, types.BlockNumber(100), best)
	lane := restored.InboundLaneData(refundtest.TestLane)
	assert.Equal(t, types.MessageNonce(105), lane.LastDeliveredNonce())
	require.Len(t, lane.Relayers, 1)
	assert.Equal(t, alice, lane.Relayers[0].Relayer)
}

func TestDispatchUndoesCallWhenSaveFails(t *testing.T) {
	backend := &memBackend{}
	state, _, err := chainstate.Open(backend)
	require.NoError(t, err)
	state.SetBestFinalized(types.Header{Number: 100})

	backend.failErr = errors.New("disk full")
	d := chainstate.NewDispatcher(state, chainstate.DefaultWeights())
	_, err = d.Dispatch(alice, refundtest.SubmitRelayHeaderCall(150))
	assert.ErrorIs(t, err, backend.failErr)

	best, _ := state.BestFinalizedNumber()
	assert.Equal(t, types.BlockNumber(100), best)
}

func TestPersistWithoutBackend(t *testing.T) {
	assert.NoError(t, chainstate.New().Persist())
}
