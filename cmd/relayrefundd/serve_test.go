package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/blockberries/relayrefund/config"
	"github.com/blockberries/relayrefund/store"
	"github.com/blockberries/relayrefund/types"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Genesis = config.GenesisConfig{BestRelayHeader: 10, ParaHeadAtRelay: 9, BestDeliveredNonce: 8}
	require.NoError(t, cfg.Validate())
	return cfg
}

func startNode(t *testing.T, cfg *config.Config) *node {
	t.Helper()
	n, err := openNode(cfg, zap.NewNop(), prometheus.NewRegistry())
	require.NoError(t, err)
	return n
}

func newTestRouter(t *testing.T) (http.Handler, *store.LevelDBLedger, *config.Config) {
	t.Helper()
	cfg := testConfig(t)
	n := startNode(t, cfg)
	t.Cleanup(func() { _ = n.Close() })
	return statusRouter(n.srv, n.ledger), n.ledger, cfg
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestStatusRouter_Bridge(t *testing.T) {
	h, _, cfg := newTestRouter(t)

	rec := get(t, h, "/bridge")
	require.Equal(t, http.StatusOK, rec.Code)
	var snap types.BridgeSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, types.BlockNumber(10), snap.RelayChain.BestBlockNumber)
	assert.Equal(t, types.BlockNumber(9), snap.Parachain.AtRelayBlockNumber)
	assert.Equal(t, types.MessageNonce(8), snap.Messages.BestNonce)
	assert.Equal(t, cfg.LaneID(), snap.Lane)
}

func TestStatusRouter_Rewards(t *testing.T) {
	h, ledger, cfg := newTestRouter(t)
	relayer := types.AccountID{0xaa}
	require.NoError(t, ledger.RegisterRelayerReward(cfg.LaneID(), relayer, 77))

	rec := get(t, h, "/rewards")
	require.Equal(t, http.StatusOK, rec.Code)
	var all []rewardJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	require.Len(t, all, 1)
	assert.Equal(t, uint64(77), all[0].Reward)

	rec = get(t, h, "/rewards/"+relayer.String()+"/"+cfg.LaneID().String())
	require.Equal(t, http.StatusOK, rec.Code)
	var one rewardJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &one))
	assert.Equal(t, relayer.String(), one.Relayer)

	rec = get(t, h, "/rewards/"+types.AccountID{1}.String()+"/"+cfg.LaneID().String())
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(t, h, "/rewards/nothex/00")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNodeRestartDoesNotReplayRefund(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()
	relayer := types.AccountID{0xbb}
	delivery := types.Extrinsic{
		Signer: relayer,
		Call: types.NewReceiveMessagesProof(types.AccountID{}, types.MessagesProof{
			Lane:        cfg.LaneID(),
			NoncesStart: 9,
			NoncesEnd:   9,
		}, 1, 0),
	}

	n := startNode(t, cfg)
	first, err := n.srv.Submit(ctx, delivery)
	require.NoError(t, err)
	require.True(t, first.Refunded, first.Info)
	require.NoError(t, n.Close())

	n = startNode(t, cfg)
	defer n.Close()

	// Trackers come back from disk, not from [genesis].
	snap, err := n.srv.BridgeState(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.MessageNonce(9), snap.Messages.BestNonce)
	assert.Equal(t, types.BlockNumber(10), snap.RelayChain.BestBlockNumber)
	assert.Equal(t, types.BlockNumber(9), snap.Parachain.AtRelayBlockNumber)

	replay, err := n.srv.Submit(ctx, delivery)
	require.NoError(t, err)
	assert.True(t, replay.OK())
	assert.False(t, replay.Refunded)

	reward, ok, err := n.srv.RelayerReward(ctx, relayer, cfg.LaneID())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first.Reward, reward)
}

func TestNodeSeedsGenesisOnce(t *testing.T) {
	cfg := testConfig(t)
	n := startNode(t, cfg)
	require.NoError(t, n.Close())

	// A changed [genesis] does not override stored trackers.
	cfg.Genesis = config.GenesisConfig{BestRelayHeader: 500, ParaHeadAtRelay: 500, BestDeliveredNonce: 500}
	n = startNode(t, cfg)
	defer n.Close()
	best, ok := n.state.BestFinalizedNumber()
	require.True(t, ok)
	assert.Equal(t, types.BlockNumber(10), best)
}
