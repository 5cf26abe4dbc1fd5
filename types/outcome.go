package types

// Outcome codes of a submitted transaction.
const (
	// CodeOK: dispatched successfully.
	CodeOK uint32 = 0
	// CodeInvalid: rejected before dispatch; never enters a block.
	CodeInvalid uint32 = 1
	// CodeDispatchFailed: dispatched and failed. Fees are still charged.
	CodeDispatchFailed uint32 = 2
)

// TxOutcome is the result of running one extrinsic through the pipeline.
type TxOutcome struct {
	// Position of this tx in the block (0-indexed).
	Index uint32 `cramberry:"1"`
	Code  uint32 `cramberry:"2"`
	// Human-readable result info (debugging only).
	Info string `cramberry:"3"`
	// Shape recognized at pre-dispatch. CallTypeNone = not tracked.
	CallType CallTypeKind `cramberry:"4"`
	// Reward registered for the signer. Zero unless Refunded.
	Reward   Balance `cramberry:"5"`
	Refunded bool    `cramberry:"6"`
}

// OK returns true if the transaction dispatched successfully.
func (t TxOutcome) OK() bool { return t.Code == CodeOK }

// BlockOutcome is the per-transaction result of a block of extrinsics.
type BlockOutcome struct {
	Height     uint64      `cramberry:"1"`
	TxOutcomes []TxOutcome `cramberry:"2"`
}

// BridgeSnapshot is the bridge state the extension compares against:
// relay chain finality, the configured parachain and the configured lane.
type BridgeSnapshot struct {
	RelayChain    ExpectedRelayChainState `cramberry:"1"`
	HasRelayChain bool                    `cramberry:"2"`
	Parachain     ExpectedParachainState  `cramberry:"3"`
	HasParachain  bool                    `cramberry:"4"`
	Messages      MessagesState           `cramberry:"5"`
	ParaID        ParaID                  `cramberry:"6"`
	Lane          LaneID                  `cramberry:"7"`
}
