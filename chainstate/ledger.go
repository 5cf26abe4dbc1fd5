package chainstate

import (
	"math"
	"sync"

	"github.com/blockberries/relayrefund"
	"github.com/blockberries/relayrefund/types"
)

// Compile-time interface check.
var _ relayrefund.RewardLedger = (*Ledger)(nil)

type ledgerKey struct {
	relayer types.AccountID
	lane    types.LaneID
}

// Ledger is an in-memory reward ledger.
type Ledger struct {
	mu      sync.RWMutex
	rewards map[ledgerKey]types.Balance
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{rewards: make(map[ledgerKey]types.Balance)}
}

// RegisterRelayerReward adds amount to the relayer's balance on lane.
// Zero amounts are ignored; balances saturate.
func (l *Ledger) RegisterRelayerReward(lane types.LaneID, relayer types.AccountID, amount types.Balance) error {
	if amount == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	key := ledgerKey{relayer: relayer, lane: lane}
	cur := l.rewards[key]
	if cur > math.MaxUint64-amount {
		l.rewards[key] = math.MaxUint64
		return nil
	}
	l.rewards[key] = cur + amount
	return nil
}

// RelayerReward returns the relayer's balance on lane.
func (l *Ledger) RelayerReward(relayer types.AccountID, lane types.LaneID) (types.Balance, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	r, ok := l.rewards[ledgerKey{relayer: relayer, lane: lane}]
	return r, ok, nil
}

// Len returns the number of (relayer, lane) entries.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.rewards)
}
