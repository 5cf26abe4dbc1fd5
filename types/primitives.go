// Package types defines the data types shared by the relayer refund
// extension, its collaborators and its transports.
//
// These are plain Go structs with cramberry struct tags for
// deterministic binary serialization. Transport concerns
// (gRPC codec registration) are handled in the transport packages.
package types

import (
	"encoding/hex"
	"fmt"
)

// BlockNumber is a relay chain block number.
type BlockNumber uint32

// ParaID identifies a parachain.
type ParaID uint32

// MessageNonce is the sequence number of a message on a lane.
type MessageNonce uint64

// Balance is an amount of the native token.
type Balance uint64

// Weight is the computational weight of a dispatched call.
type Weight uint64

// Hash is a 32-byte cryptographic hash.
type Hash [32]byte

// String returns the 0x-prefixed hex form of the hash.
func (h Hash) String() string { return "0x" + hex.EncodeToString(h[:]) }

// AccountID identifies an account on this chain.
type AccountID [32]byte

// String returns the 0x-prefixed hex form of the account.
func (a AccountID) String() string { return "0x" + hex.EncodeToString(a[:]) }

// ParseAccountID decodes a hex account identifier. The 0x prefix
// is optional; shorter inputs are left-padded with zeroes.
func ParseAccountID(s string) (AccountID, error) {
	var id AccountID
	b, err := decodeHex(s, len(id))
	if err != nil {
		return id, fmt.Errorf("account id: %w", err)
	}
	copy(id[len(id)-len(b):], b)
	return id, nil
}

// LaneID identifies a message lane between two bridged chains.
type LaneID [4]byte

// String returns the hex form of the lane identifier.
func (l LaneID) String() string { return hex.EncodeToString(l[:]) }

// ParseLaneID decodes a hex lane identifier such as "00000001".
func ParseLaneID(s string) (LaneID, error) {
	var id LaneID
	b, err := decodeHex(s, len(id))
	if err != nil {
		return id, fmt.Errorf("lane id: %w", err)
	}
	copy(id[len(id)-len(b):], b)
	return id, nil
}

func decodeHex(s string, max int) ([]byte, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(b) > max {
		return nil, fmt.Errorf("%d bytes exceeds %d", len(b), max)
	}
	return b, nil
}
