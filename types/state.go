package types

import "fmt"

// ExpectedRelayChainState is the relay chain finality tracker state
// a transaction expects to establish.
type ExpectedRelayChainState struct {
	// Best known relay chain block number.
	BestBlockNumber BlockNumber `cramberry:"1"`
}

// ExpectedParachainState is the parachain finality tracker state
// a transaction expects to establish.
type ExpectedParachainState struct {
	// Relay block at which the parachain head has been updated.
	AtRelayBlockNumber BlockNumber `cramberry:"1"`
}

// MessagesState is the pre-dispatch state of an inbound lane, not the
// expected post-dispatch state: a delivery that brings only some of
// its messages still made progress and is refunded. Only a delivery
// that delivers nothing new is not.
type MessagesState struct {
	// Best delivered message nonce.
	BestNonce MessageNonce `cramberry:"1"`
}

// CallTypeKind tags a CallType.
type CallTypeKind uint8

const (
	CallTypeNone CallTypeKind = iota
	// Relay chain finality + parachain finality + message delivery.
	CallTypeAllFinalityAndDelivery
	// Parachain finality + message delivery.
	CallTypeParachainFinalityAndDelivery
	// Standalone message delivery.
	CallTypeDelivery
)

func (k CallTypeKind) String() string {
	switch k {
	case CallTypeNone:
		return "none"
	case CallTypeAllFinalityAndDelivery:
		return "all_finality_and_delivery"
	case CallTypeParachainFinalityAndDelivery:
		return "parachain_finality_and_delivery"
	case CallTypeDelivery:
		return "delivery"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// CallType is the shape of a bridge transaction that may be refunded.
// Fields not used by Kind are zero, so values compare with ==.
type CallType struct {
	Kind       CallTypeKind            `cramberry:"1"`
	RelayChain ExpectedRelayChainState `cramberry:"2"`
	Parachain  ExpectedParachainState  `cramberry:"3"`
	Messages   MessagesState           `cramberry:"4"`
}

// AllFinalityAndDelivery builds the relay + parachain + delivery call type.
func AllFinalityAndDelivery(relay ExpectedRelayChainState, para ExpectedParachainState, msgs MessagesState) CallType {
	return CallType{Kind: CallTypeAllFinalityAndDelivery, RelayChain: relay, Parachain: para, Messages: msgs}
}

// ParachainFinalityAndDelivery builds the parachain + delivery call type.
func ParachainFinalityAndDelivery(para ExpectedParachainState, msgs MessagesState) CallType {
	return CallType{Kind: CallTypeParachainFinalityAndDelivery, Parachain: para, Messages: msgs}
}

// Delivery builds the standalone delivery call type.
func Delivery(msgs MessagesState) CallType {
	return CallType{Kind: CallTypeDelivery, Messages: msgs}
}

// ExpectedRelayChainState returns the expected relay chain state if
// the call type carries one.
func (c CallType) ExpectedRelayChainState() (ExpectedRelayChainState, bool) {
	if c.Kind == CallTypeAllFinalityAndDelivery {
		return c.RelayChain, true
	}
	return ExpectedRelayChainState{}, false
}

// ExpectedParachainState returns the expected parachain state if the
// call type carries one.
func (c CallType) ExpectedParachainState() (ExpectedParachainState, bool) {
	switch c.Kind {
	case CallTypeAllFinalityAndDelivery, CallTypeParachainFinalityAndDelivery:
		return c.Parachain, true
	default:
		return ExpectedParachainState{}, false
	}
}

// PreDispatchMessagesState returns the lane state captured before
// the transaction was dispatched.
func (c CallType) PreDispatchMessagesState() MessagesState {
	return c.Messages
}

func (c CallType) String() string {
	switch c.Kind {
	case CallTypeAllFinalityAndDelivery:
		return fmt.Sprintf("%s(relay=%d, para_at=%d, nonce=%d)", c.Kind, c.RelayChain.BestBlockNumber, c.Parachain.AtRelayBlockNumber, c.Messages.BestNonce)
	case CallTypeParachainFinalityAndDelivery:
		return fmt.Sprintf("%s(para_at=%d, nonce=%d)", c.Kind, c.Parachain.AtRelayBlockNumber, c.Messages.BestNonce)
	case CallTypeDelivery:
		return fmt.Sprintf("%s(nonce=%d)", c.Kind, c.Messages.BestNonce)
	default:
		return c.Kind.String()
	}
}

// PreDispatchData is captured by pre_dispatch and consumed by
// post_dispatch of the same transaction.
type PreDispatchData struct {
	// Transaction submitter (relayer) account.
	Relayer  AccountID `cramberry:"1"`
	CallType CallType  `cramberry:"2"`
}
