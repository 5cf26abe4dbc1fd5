package types

import (
	"fmt"

	"github.com/blockberries/cramberry/pkg/cramberry"
)

// Extrinsic is a signed transaction submitted to the pipeline.
// Signature checking happens upstream; Signer is trusted here.
type Extrinsic struct {
	Signer AccountID `cramberry:"1"`
	Tip    Balance   `cramberry:"2"`
	Call   Call      `cramberry:"3"`
}

// EncodeExtrinsic serializes an extrinsic with cramberry.
func EncodeExtrinsic(xt Extrinsic) ([]byte, error) {
	data, err := cramberry.Marshal(xt)
	if err != nil {
		return nil, fmt.Errorf("encode extrinsic: %w", err)
	}
	return data, nil
}

// DecodeExtrinsic parses bytes produced by EncodeExtrinsic.
func DecodeExtrinsic(data []byte) (Extrinsic, error) {
	var xt Extrinsic
	if err := cramberry.Unmarshal(data, &xt); err != nil {
		return Extrinsic{}, fmt.Errorf("decode extrinsic: %w", err)
	}
	return xt, nil
}

// EncodedLen returns the encoded size of the extrinsic, which is the
// length the fee is charged for.
func EncodedLen(xt Extrinsic) (uint32, error) {
	data, err := EncodeExtrinsic(xt)
	if err != nil {
		return 0, err
	}
	return uint32(len(data)), nil
}
