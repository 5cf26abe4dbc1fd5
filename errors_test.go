package relayrefund

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvalidTransactionError(t *testing.T) {
	err := NewStaleError("header %d is not above best %d", 100, 100)
	assert.Equal(t, ReasonStale, err.Reason)
	assert.Equal(t, "invalid transaction: stale: header 100 is not above best 100", err.Error())

	bare := NewInvalidError(ReasonCall, "")
	assert.Equal(t, "invalid transaction: call", bare.Error())
}

func TestIsInvalid(t *testing.T) {
	staleErr := NewStaleError("obsolete")

	// Direct.
	e, ok := IsInvalid(staleErr)
	require.True(t, ok)
	assert.Equal(t, ReasonStale, e.Reason)

	// Wrapped.
	wrapped := fmt.Errorf("pre-dispatch: %w", staleErr)
	e2, ok := IsInvalid(wrapped)
	require.True(t, ok)
	assert.Equal(t, "obsolete", e2.Detail)
	assert.True(t, IsStale(wrapped))

	// Other reasons are invalid but not stale.
	assert.False(t, IsStale(NewInvalidError(ReasonBadProof, "x")))

	// Non-validity error.
	_, ok = IsInvalid(fmt.Errorf("just a regular error"))
	assert.False(t, ok)

	// Nil.
	_, ok = IsInvalid(nil)
	assert.False(t, ok)
	assert.False(t, IsStale(nil))
}
