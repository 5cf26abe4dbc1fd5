package relayer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockberries/relayrefund"
	"github.com/blockberries/relayrefund/local"
	refundtest "github.com/blockberries/relayrefund/testing"
	"github.com/blockberries/relayrefund/types"
)

func source(relay, paraAt types.BlockNumber, nonce types.MessageNonce) Source {
	return Source{
		RelayHeader: types.Header{Number: relay},
		ParaHeadAt:  paraAt,
		ParaHead:    types.Hash{byte(paraAt)},
		LatestNonce: nonce,
	}
}

func newRelayer(t *testing.T, h *refundtest.Harness, account types.AccountID, opts ...Option) *Relayer {
	t.Helper()
	conn := local.NewConnection(h.Server())
	t.Cleanup(func() { _ = conn.Close() })
	return New(conn, account, refundtest.TestParachain, refundtest.TestLane, opts...)
}

func TestPlan(t *testing.T) {
	r := New(nil, types.AccountID{}, refundtest.TestParachain, refundtest.TestLane)
	snap := types.BridgeSnapshot{
		RelayChain:    types.ExpectedRelayChainState{BestBlockNumber: 100},
		HasRelayChain: true,
		Parachain:     types.ExpectedParachainState{AtRelayBlockNumber: 100},
		HasParachain:  true,
		Messages:      types.MessagesState{BestNonce: 100},
	}

	_, ok := r.Plan(snap, source(100, 100, 100))
	assert.False(t, ok)

	call, ok := r.Plan(snap, source(100, 100, 105))
	require.True(t, ok)
	delivery, ok := call.AsReceiveMessagesProof()
	require.True(t, ok)
	assert.Equal(t, types.MessageNonce(101), delivery.Proof.NoncesStart)
	assert.Equal(t, types.MessageNonce(105), delivery.Proof.NoncesEnd)
	assert.Equal(t, uint32(5), delivery.MessagesCount)

	call, ok = r.Plan(snap, source(120, 100, 105))
	require.True(t, ok)
	assert.Equal(t, types.CallReceiveMessagesProof, call.Kind)

	snap.RelayChain.BestBlockNumber = 120
	call, ok = r.Plan(snap, source(120, 110, 105))
	require.True(t, ok)
	batch, ok := call.AsBatchAll()
	require.True(t, ok)
	assert.Len(t, batch.Calls, 2)

	call, ok = r.Plan(snap, source(130, 125, 105))
	require.True(t, ok)
	batch, ok = call.AsBatchAll()
	require.True(t, ok)
	assert.Len(t, batch.Calls, 3)
}

func TestRelayer_EarnsRefunds(t *testing.T) {
	h := refundtest.NewHarness(t)
	h.InitializeEnvironment(100, 100, 100)
	ctx := context.Background()
	r := newRelayer(t, h, refundtest.RelayerAccount())

	steps := []struct {
		src  Source
		kind types.CallTypeKind
	}{
		{source(110, 105, 120), types.CallTypeAllFinalityAndDelivery},
		{source(110, 108, 130), types.CallTypeParachainFinalityAndDelivery},
		{source(110, 108, 131), types.CallTypeDelivery},
	}
	var total types.Balance
	for i, step := range steps {
		outcome, submitted, err := r.Step(ctx, uint64(i+1), step.src)
		require.NoError(t, err)
		require.True(t, submitted)
		require.True(t, outcome.OK(), outcome.Info)
		assert.True(t, outcome.Refunded, "step %d", i)
		assert.Equal(t, step.kind, outcome.CallType, "step %d", i)
		total += outcome.Reward
	}

	reward, err := r.Reward(ctx)
	require.NoError(t, err)
	assert.Equal(t, total, reward)

	// Nothing new on the bridged side.
	_, submitted, err := r.Step(ctx, 4, source(110, 108, 131))
	require.NoError(t, err)
	assert.False(t, submitted)
}

func TestRelayer_TipDoesNotRaiseRefund(t *testing.T) {
	plain := refundtest.NewHarness(t)
	plain.InitializeEnvironment(100, 100, 100)
	tipped := refundtest.NewHarness(t)
	tipped.InitializeEnvironment(100, 100, 100)
	ctx := context.Background()

	a, _, err := newRelayer(t, plain, types.AccountID{1}).Step(ctx, 1, source(100, 100, 101))
	require.NoError(t, err)
	b, _, err := newRelayer(t, tipped, types.AccountID{1}, WithTip(1<<40)).Step(ctx, 1, source(100, 100, 101))
	require.NoError(t, err)

	require.True(t, a.Refunded)
	require.True(t, b.Refunded)
	assert.Less(t, b.Reward-a.Reward, types.Balance(16))
}

func TestRelayer_CompetingRelayers(t *testing.T) {
	h := refundtest.NewHarness(t)
	h.InitializeEnvironment(100, 100, 100)
	ctx := context.Background()
	alice := newRelayer(t, h, types.AccountID{0xa})
	bob := newRelayer(t, h, types.AccountID{0xb})
	src := source(110, 110, 110)

	// Both plan against the same state; bob lands second.
	snap, err := h.Server().BridgeState(ctx)
	require.NoError(t, err)
	bobCall, ok := bob.Plan(snap, src)
	require.True(t, ok)

	outcome, _, err := alice.Step(ctx, 1, src)
	require.NoError(t, err)
	require.True(t, outcome.Refunded)

	err = h.Server().Validate(ctx, types.Extrinsic{Signer: types.AccountID{0xb}, Call: bobCall})
	assert.True(t, relayrefund.IsStale(err))

	reward, err := bob.Reward(ctx)
	require.NoError(t, err)
	assert.Zero(t, reward)
}
