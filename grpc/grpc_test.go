package refundgrpc_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/blockberries/relayrefund"
	refundgrpc "github.com/blockberries/relayrefund/grpc"
	"github.com/blockberries/relayrefund/server"
	refundtest "github.com/blockberries/relayrefund/testing"
	"github.com/blockberries/relayrefund/types"
)

// startServer starts a gRPC server on a random port and returns the
// listener address. The server stops when the test ends.
func startServer(t *testing.T, gs *refundgrpc.GRPCServer) string {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := grpc.NewServer()
	gs.Register(s)
	go func() {
		_ = s.Serve(lis)
	}()
	t.Cleanup(func() { gs.Stop(s) })
	return lis.Addr().String()
}

func dial(t *testing.T, addr string) *refundgrpc.Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := refundgrpc.Dial(ctx, addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestGRPC_SubmitAndQueryReward(t *testing.T) {
	h := refundtest.NewHarness(t)
	h.InitializeEnvironment(100, 100, 100)
	client := dial(t, startServer(t, refundgrpc.NewGRPCServer(h.Server(), nil)))
	ctx := context.Background()
	relayer := refundtest.RelayerAccount()

	xt := types.Extrinsic{
		Signer: relayer,
		Tip:    5,
		Call:   refundtest.AllFinalityAndDeliveryBatchCall(200, 200, 101),
	}
	require.NoError(t, client.Validate(ctx, xt))

	outcome, err := client.Submit(ctx, xt)
	require.NoError(t, err)
	require.True(t, outcome.OK(), outcome.Info)
	assert.True(t, outcome.Refunded)
	assert.Equal(t, types.CallTypeAllFinalityAndDelivery, outcome.CallType)

	reward, found, err := client.RelayerReward(ctx, relayer, refundtest.TestLane)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, outcome.Reward, reward)

	_, found, err = client.RelayerReward(ctx, types.AccountID{9}, refundtest.TestLane)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGRPC_ValidateStale(t *testing.T) {
	h := refundtest.NewHarness(t)
	h.InitializeEnvironment(100, 100, 100)
	client := dial(t, startServer(t, refundgrpc.NewGRPCServer(h.Server(), nil)))

	err := client.Validate(context.Background(), types.Extrinsic{
		Call: refundtest.ParachainFinalityAndDeliveryBatchCall(100, 200),
	})
	require.Error(t, err)
	invalid, ok := relayrefund.IsInvalid(err)
	require.True(t, ok)
	assert.Equal(t, relayrefund.ReasonStale, invalid.Reason)
	assert.NotEmpty(t, invalid.Detail)
}

func TestGRPC_SubmitBlock(t *testing.T) {
	h := refundtest.NewHarness(t)
	h.InitializeEnvironment(100, 100, 100)
	client := dial(t, startServer(t, refundgrpc.NewGRPCServer(h.Server(), nil)))

	block, err := client.SubmitBlock(context.Background(), 3, []types.Extrinsic{
		{Call: refundtest.MessagesDeliveryCall(101, 110)},
		{Call: refundtest.ParachainFinalityAndDeliveryBatchCall(50, 111)},
		{Call: types.NewRemark([]byte("x"))},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), block.Height)
	require.Len(t, block.TxOutcomes, 3)
	assert.True(t, block.TxOutcomes[0].Refunded)
	assert.Equal(t, types.CodeInvalid, block.TxOutcomes[1].Code)
	assert.True(t, block.TxOutcomes[2].OK())
	assert.False(t, block.TxOutcomes[2].Refunded)
}

func TestGRPC_BridgeState(t *testing.T) {
	h := refundtest.NewHarness(t)
	h.InitializeEnvironment(42, 41, 40)
	client := dial(t, startServer(t, refundgrpc.NewGRPCServer(h.Server(), nil)))

	snap, err := client.BridgeState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, h.Ext.Snapshot(), snap)
}

type opaqueExtension struct {
	relayrefund.SignedExtension
}

func TestGRPC_BridgeStateUnimplemented(t *testing.T) {
	h := refundtest.NewHarness(t)
	srv := server.New(opaqueExtension{h.Ext}, h.Dispatcher, h.Ledger, nil)
	client := dial(t, startServer(t, refundgrpc.NewGRPCServer(srv, nil)))

	_, err := client.BridgeState(context.Background())
	require.Error(t, err)
	assert.Equal(t, codes.Unimplemented, status.Code(err))
}

func TestCodec(t *testing.T) {
	var c refundgrpc.Codec
	assert.Equal(t, refundgrpc.CodecName, c.Name())

	data, err := c.Marshal(&refundgrpc.RewardRequest{Relayer: types.AccountID{3}, Lane: refundtest.TestLane})
	require.NoError(t, err)
	var got refundgrpc.RewardRequest
	require.NoError(t, c.Unmarshal(data, &got))
	assert.Equal(t, types.AccountID{3}, got.Relayer)

	err = c.Unmarshal(make([]byte, refundgrpc.MaxMessageSize+1), &got)
	assert.ErrorContains(t, err, "exceeds")
}

func TestGRPC_ValidateBadProof(t *testing.T) {
	h := refundtest.NewHarness(t)
	h.InitializeEnvironment(100, 100, 100)
	client := dial(t, startServer(t, refundgrpc.NewGRPCServer(h.Server(), nil)))

	// Ten nonces declared as three messages.
	call := types.NewReceiveMessagesProof(types.AccountID{}, types.MessagesProof{
		Lane:        refundtest.TestLane,
		NoncesStart: 101,
		NoncesEnd:   110,
	}, 3, 0)
	err := client.Validate(context.Background(), types.Extrinsic{Call: call})
	invalid, ok := relayrefund.IsInvalid(err)
	require.True(t, ok, "error %v", err)
	assert.Equal(t, relayrefund.ReasonBadProof, invalid.Reason)

	outcome, err := client.Submit(context.Background(), types.Extrinsic{Call: call})
	require.NoError(t, err)
	assert.Equal(t, types.CodeInvalid, outcome.Code)
}
