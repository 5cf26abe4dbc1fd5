// Package refundgrpc exposes the refund pipeline over gRPC.
//
// Requests and responses are the cramberry-tagged structs of wire.go
// and relayrefund/types; there is no protobuf schema.
package refundgrpc

import (
	"fmt"

	"github.com/blockberries/cramberry/pkg/cramberry"
	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC content-subtype both ends negotiate.
const CodecName = "relayrefund-cramberry"

// MaxMessageSize bounds a single encoded request or response.
const MaxMessageSize = 16 << 20

// Codec is the grpc/encoding.Codec used by Client and GRPCServer.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) {
	data, err := cramberry.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	if len(data) > MaxMessageSize {
		return nil, fmt.Errorf("encode %T: %d bytes exceeds %d", v, len(data), MaxMessageSize)
	}
	return data, nil
}

func (Codec) Unmarshal(data []byte, v any) error {
	if len(data) > MaxMessageSize {
		return fmt.Errorf("decode %T: %d bytes exceeds %d", v, len(data), MaxMessageSize)
	}
	if err := cramberry.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	return nil
}

func (Codec) Name() string { return CodecName }

func init() {
	encoding.RegisterCodec(Codec{})
}
