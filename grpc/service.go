package refundgrpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	"github.com/blockberries/relayrefund/types"
)

const serviceName = "relayrefund.v1.RelayRefundService"

// RelayRefundServiceServer is the server-side interface for the
// refund pipeline gRPC service.
type RelayRefundServiceServer interface {
	Validate(context.Context, *ValidateRequest) (*ValidateResponse, error)
	Submit(context.Context, *SubmitRequest) (*types.TxOutcome, error)
	SubmitBlock(context.Context, *SubmitBlockRequest) (*types.BlockOutcome, error)
	RelayerReward(context.Context, *RewardRequest) (*RewardResponse, error)
	BridgeState(context.Context, *BridgeStateRequest) (*types.BridgeSnapshot, error)
}

// RegisterRelayRefundServiceServer registers srv on a gRPC server.
func RegisterRelayRefundServiceServer(s *grpc.Server, srv RelayRefundServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

// --- Handler functions ---

func handlerValidate(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
	req := new(ValidateRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(RelayRefundServiceServer).Validate(ctx, req)
}

func handlerSubmit(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
	req := new(SubmitRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(RelayRefundServiceServer).Submit(ctx, req)
}

func handlerSubmitBlock(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
	req := new(SubmitBlockRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(RelayRefundServiceServer).SubmitBlock(ctx, req)
}

func handlerRelayerReward(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
	req := new(RewardRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(RelayRefundServiceServer).RelayerReward(ctx, req)
}

func handlerBridgeState(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
	req := new(BridgeStateRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(RelayRefundServiceServer).BridgeState(ctx, req)
}

// fullMethod builds the full gRPC method path.
func fullMethod(method string) string {
	return fmt.Sprintf("/%s/%s", serviceName, method)
}

// serviceDesc is the manual gRPC service descriptor.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*RelayRefundServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Validate", Handler: handlerValidate},
		{MethodName: "Submit", Handler: handlerSubmit},
		{MethodName: "SubmitBlock", Handler: handlerSubmitBlock},
		{MethodName: "RelayerReward", Handler: handlerRelayerReward},
		{MethodName: "BridgeState", Handler: handlerBridgeState},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "relayrefund/v1/service.cram",
}
