package relayrefund

import (
	"fmt"

	"github.com/blockberries/relayrefund/types"
)

// CheckCall rejects a call that can never be dispatched. A call of
// unknown kind, or whose payload is missing, is rejected with
// ReasonCall. A message proof that starts at nonce zero or whose
// range disagrees with its declared count is rejected with
// ReasonBadProof. Batches are checked call by call.
func CheckCall(call types.Call) error {
	switch call.Kind {
	case types.CallBatchAll:
		c, ok := call.AsBatchAll()
		if !ok {
			return missingPayload(call.Kind)
		}
		for i, nested := range c.Calls {
			if err := CheckCall(nested); err != nil {
				return fmt.Errorf("batch_all call %d: %w", i, err)
			}
		}
		return nil
	case types.CallSubmitFinalityProof:
		if _, ok := call.AsSubmitFinalityProof(); !ok {
			return missingPayload(call.Kind)
		}
		return nil
	case types.CallSubmitParachainHeads:
		if _, ok := call.AsSubmitParachainHeads(); !ok {
			return missingPayload(call.Kind)
		}
		return nil
	case types.CallReceiveMessagesProof:
		c, ok := call.AsReceiveMessagesProof()
		if !ok {
			return missingPayload(call.Kind)
		}
		return checkMessagesProof(c)
	case types.CallRemark:
		return nil
	default:
		return NewInvalidError(ReasonCall, fmt.Sprintf("unknown call kind %s", call.Kind))
	}
}

func missingPayload(kind types.CallKind) error {
	return NewInvalidError(ReasonCall, fmt.Sprintf("%s has no payload", kind))
}

func checkMessagesProof(c *types.ReceiveMessagesProofCall) error {
	p := c.Proof
	if p.NoncesEnd < p.NoncesStart {
		if c.MessagesCount != 0 {
			return NewInvalidError(ReasonBadProof,
				fmt.Sprintf("empty nonce range declares %d messages", c.MessagesCount))
		}
		return nil
	}
	if p.NoncesStart == 0 {
		return NewInvalidError(ReasonBadProof, "message nonces start at 1")
	}
	if c.MessagesCount == 0 || uint64(c.MessagesCount)-1 != uint64(p.NoncesEnd-p.NoncesStart) {
		return NewInvalidError(ReasonBadProof,
			fmt.Sprintf("nonces [%d, %d] do not match %d declared messages", p.NoncesStart, p.NoncesEnd, c.MessagesCount))
	}
	return nil
}
