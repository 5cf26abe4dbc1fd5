// Package local provides an in-process relayrefund connection.
//
// For hosts compiled into the same binary as the refund pipeline,
// this adapter forwards calls to the server with no serialization
// overhead.
package local

import (
	"context"

	"github.com/blockberries/relayrefund"
	"github.com/blockberries/relayrefund/server"
	"github.com/blockberries/relayrefund/types"
)

// Compile-time interface check.
var _ relayrefund.Connection = (*Connection)(nil)

// Connection wraps a pipeline server in-process.
type Connection struct {
	srv *server.Server
}

// NewConnection creates an in-process connection to srv.
func NewConnection(srv *server.Server) *Connection {
	return &Connection{srv: srv}
}

func (c *Connection) Validate(ctx context.Context, xt types.Extrinsic) error {
	return c.srv.Validate(ctx, xt)
}

func (c *Connection) Submit(ctx context.Context, xt types.Extrinsic) (types.TxOutcome, error) {
	return c.srv.Submit(ctx, xt)
}

func (c *Connection) SubmitBlock(ctx context.Context, height uint64, xts []types.Extrinsic) (types.BlockOutcome, error) {
	return c.srv.SubmitBlock(ctx, height, xts)
}

func (c *Connection) RelayerReward(ctx context.Context, relayer types.AccountID, lane types.LaneID) (types.Balance, bool, error) {
	return c.srv.RelayerReward(ctx, relayer, lane)
}

func (c *Connection) BridgeState(ctx context.Context) (types.BridgeSnapshot, error) {
	return c.srv.BridgeState(ctx)
}

func (c *Connection) Close() error { return c.srv.Close() }

// Server returns the underlying server for advanced use cases.
func (c *Connection) Server() *server.Server {
	return c.srv
}
