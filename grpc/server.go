package refundgrpc

import (
	"context"
	"errors"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/blockberries/relayrefund"
	"github.com/blockberries/relayrefund/server"
	"github.com/blockberries/relayrefund/types"
)

// Compile-time interface check.
var _ RelayRefundServiceServer = (*GRPCServer)(nil)

// GRPCServer exposes a pipeline server over gRPC. Domain types are
// serialized directly via cramberry.
type GRPCServer struct {
	srv    *server.Server
	logger *zap.Logger
}

// NewGRPCServer creates a gRPC server wrapping srv. A nil logger
// disables logging.
func NewGRPCServer(srv *server.Server, logger *zap.Logger) *GRPCServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GRPCServer{srv: srv, logger: logger.Named("grpc")}
}

// Register adds the service to a gRPC server.
func (s *GRPCServer) Register(gs *grpc.Server) {
	RegisterRelayRefundServiceServer(gs, s)
}

// Serve starts a gRPC server on the given listener. It blocks until
// the server stops.
func (s *GRPCServer) Serve(lis net.Listener, opts ...grpc.ServerOption) error {
	gs := grpc.NewServer(opts...)
	s.Register(gs)
	s.logger.Info("serving", zap.Stringer("addr", lis.Addr()))
	return gs.Serve(lis)
}

// Stop gracefully stops the gRPC server.
func (s *GRPCServer) Stop(gs *grpc.Server) {
	gs.GracefulStop()
}

// Server returns the underlying pipeline server.
func (s *GRPCServer) Server() *server.Server {
	return s.srv
}

func (s *GRPCServer) Validate(ctx context.Context, req *ValidateRequest) (*ValidateResponse, error) {
	err := s.srv.Validate(ctx, req.Tx)
	if err == nil {
		return &ValidateResponse{}, nil
	}
	if invalid, ok := relayrefund.IsInvalid(err); ok {
		return &ValidateResponse{Reason: invalid.Reason, Detail: invalid.Detail}, nil
	}
	return nil, toStatus(err)
}

func (s *GRPCServer) Submit(ctx context.Context, req *SubmitRequest) (*types.TxOutcome, error) {
	outcome, err := s.srv.Submit(ctx, req.Tx)
	if err != nil {
		return nil, toStatus(err)
	}
	s.logger.Debug("submitted",
		zap.Stringer("signer", req.Tx.Signer),
		zap.Uint32("code", outcome.Code),
		zap.Bool("refunded", outcome.Refunded))
	return &outcome, nil
}

func (s *GRPCServer) SubmitBlock(ctx context.Context, req *SubmitBlockRequest) (*types.BlockOutcome, error) {
	outcome, err := s.srv.SubmitBlock(ctx, req.Height, req.Txs)
	if err != nil {
		return nil, toStatus(err)
	}
	s.logger.Debug("submitted block",
		zap.Uint64("height", req.Height),
		zap.Int("txs", len(req.Txs)))
	return &outcome, nil
}

func (s *GRPCServer) RelayerReward(ctx context.Context, req *RewardRequest) (*RewardResponse, error) {
	amount, found, err := s.srv.RelayerReward(ctx, req.Relayer, req.Lane)
	if err != nil {
		return nil, toStatus(err)
	}
	return &RewardResponse{Amount: amount, Found: found}, nil
}

func (s *GRPCServer) BridgeState(ctx context.Context, _ *BridgeStateRequest) (*types.BridgeSnapshot, error) {
	snap, err := s.srv.BridgeState(ctx)
	if err != nil {
		if ctx.Err() == nil {
			return nil, status.Error(codes.Unimplemented, err.Error())
		}
		return nil, toStatus(err)
	}
	return &snap, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
