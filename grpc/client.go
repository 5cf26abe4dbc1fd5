package refundgrpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	"github.com/blockberries/relayrefund"
	"github.com/blockberries/relayrefund/types"
)

// Compile-time interface check.
var _ relayrefund.Connection = (*Client)(nil)

// Client implements relayrefund.Connection for a remote pipeline over
// gRPC using cramberry serialization.
type Client struct {
	cc *grpc.ClientConn
}

// Dial connects to a remote pipeline.
func Dial(ctx context.Context, addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append(opts, grpc.WithDefaultCallOptions(
		grpc.ForceCodec(Codec{}),
	))
	cc, err := grpc.DialContext(ctx, addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("relayrefund client: dial %s: %w", addr, err)
	}
	return &Client{cc: cc}, nil
}

func (c *Client) Close() error {
	return c.cc.Close()
}

// Validate returns an *relayrefund.InvalidTransactionError if the
// remote pipeline rejected the extrinsic.
func (c *Client) Validate(ctx context.Context, xt types.Extrinsic) error {
	resp := new(ValidateResponse)
	if err := c.cc.Invoke(ctx, fullMethod("Validate"), &ValidateRequest{Tx: xt}, resp); err != nil {
		return err
	}
	if resp.Reason != 0 {
		return relayrefund.NewInvalidError(resp.Reason, resp.Detail)
	}
	return nil
}

func (c *Client) Submit(ctx context.Context, xt types.Extrinsic) (types.TxOutcome, error) {
	resp := new(types.TxOutcome)
	if err := c.cc.Invoke(ctx, fullMethod("Submit"), &SubmitRequest{Tx: xt}, resp); err != nil {
		return types.TxOutcome{}, err
	}
	return *resp, nil
}

func (c *Client) SubmitBlock(ctx context.Context, height uint64, xts []types.Extrinsic) (types.BlockOutcome, error) {
	req := &SubmitBlockRequest{Height: height, Txs: xts}
	resp := new(types.BlockOutcome)
	if err := c.cc.Invoke(ctx, fullMethod("SubmitBlock"), req, resp); err != nil {
		return types.BlockOutcome{}, err
	}
	return *resp, nil
}

func (c *Client) RelayerReward(ctx context.Context, relayer types.AccountID, lane types.LaneID) (types.Balance, bool, error) {
	req := &RewardRequest{Relayer: relayer, Lane: lane}
	resp := new(RewardResponse)
	if err := c.cc.Invoke(ctx, fullMethod("RelayerReward"), req, resp); err != nil {
		return 0, false, err
	}
	return resp.Amount, resp.Found, nil
}

func (c *Client) BridgeState(ctx context.Context) (types.BridgeSnapshot, error) {
	resp := new(types.BridgeSnapshot)
	if err := c.cc.Invoke(ctx, fullMethod("BridgeState"), &BridgeStateRequest{}, resp); err != nil {
		return types.BridgeSnapshot{}, err
	}
	return *resp, nil
}
