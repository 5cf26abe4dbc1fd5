package types

import "fmt"

// CallKind tags the payload carried by a Call.
type CallKind uint8

const (
	CallUnknown CallKind = iota
	// CallBatchAll executes nested calls atomically, all-or-nothing.
	CallBatchAll
	// CallSubmitFinalityProof imports a finalized relay chain header.
	CallSubmitFinalityProof
	// CallSubmitParachainHeads imports parachain heads observed at a
	// relay chain block.
	CallSubmitParachainHeads
	// CallReceiveMessagesProof delivers inbound messages on a lane.
	CallReceiveMessagesProof
	// CallRemark records opaque bytes and has no bridge effect.
	CallRemark
)

func (k CallKind) String() string {
	switch k {
	case CallBatchAll:
		return "utility.batch_all"
	case CallSubmitFinalityProof:
		return "grandpa.submit_finality_proof"
	case CallSubmitParachainHeads:
		return "parachains.submit_parachain_heads"
	case CallReceiveMessagesProof:
		return "messages.receive_messages_proof"
	case CallRemark:
		return "system.remark"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// Call is a closed tagged union over the call vocabulary the
// extension understands. Exactly one payload pointer matching Kind
// is expected to be set; anything else is treated as unrecognized.
type Call struct {
	Kind                 CallKind                  `cramberry:"1"`
	BatchAll             *BatchAllCall             `cramberry:"2"`
	SubmitFinalityProof  *SubmitFinalityProofCall  `cramberry:"3"`
	SubmitParachainHeads *SubmitParachainHeadsCall `cramberry:"4"`
	ReceiveMessagesProof *ReceiveMessagesProofCall `cramberry:"5"`
	Remark               *RemarkCall               `cramberry:"6"`
}

// AsBatchAll returns the batch payload if c is a well-formed batch_all.
func (c Call) AsBatchAll() (*BatchAllCall, bool) {
	if c.Kind != CallBatchAll || c.BatchAll == nil {
		return nil, false
	}
	return c.BatchAll, true
}

// AsSubmitFinalityProof returns the finality payload if c is a
// well-formed finality submission.
func (c Call) AsSubmitFinalityProof() (*SubmitFinalityProofCall, bool) {
	if c.Kind != CallSubmitFinalityProof || c.SubmitFinalityProof == nil {
		return nil, false
	}
	return c.SubmitFinalityProof, true
}

// AsSubmitParachainHeads returns the parachain heads payload if c is
// a well-formed parachain heads submission.
func (c Call) AsSubmitParachainHeads() (*SubmitParachainHeadsCall, bool) {
	if c.Kind != CallSubmitParachainHeads || c.SubmitParachainHeads == nil {
		return nil, false
	}
	return c.SubmitParachainHeads, true
}

// AsReceiveMessagesProof returns the delivery payload if c is a
// well-formed message delivery.
func (c Call) AsReceiveMessagesProof() (*ReceiveMessagesProofCall, bool) {
	if c.Kind != CallReceiveMessagesProof || c.ReceiveMessagesProof == nil {
		return nil, false
	}
	return c.ReceiveMessagesProof, true
}

// BatchAllCall is utility.batch_all.
type BatchAllCall struct {
	Calls []Call `cramberry:"1"`
}

// Header is a bridged relay chain header.
type Header struct {
	Number     BlockNumber `cramberry:"1"`
	ParentHash Hash        `cramberry:"2"`
	StateRoot  Hash        `cramberry:"3"`
}

// SubmitFinalityProofCall claims FinalityTarget is finalized.
type SubmitFinalityProofCall struct {
	FinalityTarget Header `cramberry:"1"`
	// Opaque GRANDPA justification; verified by the finality pallet.
	Justification []byte `cramberry:"2"`
}

// RelayBlockID is a (number, hash) pair of a relay chain block.
type RelayBlockID struct {
	Number BlockNumber `cramberry:"1"`
	Hash   Hash        `cramberry:"2"`
}

// ParachainHead is one (parachain, head hash) entry of a heads submission.
type ParachainHead struct {
	ParaID   ParaID `cramberry:"1"`
	HeadHash Hash   `cramberry:"2"`
}

// SubmitParachainHeadsCall claims the given parachain heads were
// observed in the relay chain state at AtRelayBlock.
type SubmitParachainHeadsCall struct {
	AtRelayBlock RelayBlockID    `cramberry:"1"`
	Parachains   []ParachainHead `cramberry:"2"`
	HeadsProof   []byte          `cramberry:"3"`
}

// MessagesProof carries messages [NoncesStart, NoncesEnd] of Lane.
type MessagesProof struct {
	BridgedHeaderHash Hash         `cramberry:"1"`
	StorageProof      [][]byte     `cramberry:"2"`
	Lane              LaneID       `cramberry:"3"`
	NoncesStart       MessageNonce `cramberry:"4"`
	NoncesEnd         MessageNonce `cramberry:"5"`
}

// ReceiveMessagesProofCall delivers a messages proof.
type ReceiveMessagesProofCall struct {
	RelayerIDAtBridgedChain AccountID     `cramberry:"1"`
	Proof                   MessagesProof `cramberry:"2"`
	MessagesCount           uint32        `cramberry:"3"`
	DispatchWeight          Weight        `cramberry:"4"`
}

// RemarkCall is an arbitrary non-bridge call.
type RemarkCall struct {
	Data []byte `cramberry:"1"`
}

// NewBatchAll wraps calls into a utility.batch_all call.
func NewBatchAll(calls ...Call) Call {
	return Call{Kind: CallBatchAll, BatchAll: &BatchAllCall{Calls: calls}}
}

// NewSubmitFinalityProof builds a finality submission call.
func NewSubmitFinalityProof(target Header, justification []byte) Call {
	return Call{Kind: CallSubmitFinalityProof, SubmitFinalityProof: &SubmitFinalityProofCall{
		FinalityTarget: target,
		Justification:  justification,
	}}
}

// NewSubmitParachainHeads builds a parachain heads submission call.
func NewSubmitParachainHeads(at RelayBlockID, heads []ParachainHead, proof []byte) Call {
	return Call{Kind: CallSubmitParachainHeads, SubmitParachainHeads: &SubmitParachainHeadsCall{
		AtRelayBlock: at,
		Parachains:   heads,
		HeadsProof:   proof,
	}}
}

// NewReceiveMessagesProof builds a message delivery call.
func NewReceiveMessagesProof(relayerAtBridged AccountID, proof MessagesProof, count uint32, dispatchWeight Weight) Call {
	return Call{Kind: CallReceiveMessagesProof, ReceiveMessagesProof: &ReceiveMessagesProofCall{
		RelayerIDAtBridgedChain: relayerAtBridged,
		Proof:                   proof,
		MessagesCount:           count,
		DispatchWeight:          dispatchWeight,
	}}
}

// NewRemark builds a system.remark call.
func NewRemark(data []byte) Call {
	return Call{Kind: CallRemark, Remark: &RemarkCall{Data: data}}
}
