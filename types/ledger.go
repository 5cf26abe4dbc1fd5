package types

// DeliveredMessages is an inclusive nonce range delivered by one relayer.
type DeliveredMessages struct {
	Begin MessageNonce `cramberry:"1"`
	End   MessageNonce `cramberry:"2"`
}

// UnrewardedRelayer is a relayer whose deliveries on the inbound lane
// are not yet confirmed at the bridged chain.
type UnrewardedRelayer struct {
	Relayer  AccountID         `cramberry:"1"`
	Messages DeliveredMessages `cramberry:"2"`
}

// InboundLaneData is the inbound side of a message lane.
type InboundLaneData struct {
	// Oldest first.
	Relayers           []UnrewardedRelayer `cramberry:"1"`
	LastConfirmedNonce MessageNonce        `cramberry:"2"`
}

// LastDeliveredNonce returns the nonce of the latest delivered
// message. An untouched lane reports zero.
func (d InboundLaneData) LastDeliveredNonce() MessageNonce {
	if n := len(d.Relayers); n > 0 {
		return d.Relayers[n-1].Messages.End
	}
	return d.LastConfirmedNonce
}

// Clone returns a deep copy.
func (d InboundLaneData) Clone() InboundLaneData {
	out := InboundLaneData{LastConfirmedNonce: d.LastConfirmedNonce}
	if len(d.Relayers) > 0 {
		out.Relayers = append([]UnrewardedRelayer(nil), d.Relayers...)
	}
	return out
}

// BestParaHeadHash is the best known head of a parachain and the
// relay block it was read at.
type BestParaHeadHash struct {
	AtRelayBlockNumber BlockNumber `cramberry:"1"`
	HeadHash           Hash        `cramberry:"2"`
}

// ParaInfo is what the parachain finality tracker stores per parachain.
type ParaInfo struct {
	BestHeadHash             BestParaHeadHash `cramberry:"1"`
	NextImportedHashPosition uint32           `cramberry:"2"`
}
