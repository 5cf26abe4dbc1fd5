package extension

import (
	"fmt"

	"github.com/blockberries/relayrefund"
	"github.com/blockberries/relayrefund/types"
)

// RewardEngine computes relayer rewards and registers them in the
// reward ledger.
type RewardEngine struct {
	fee    relayrefund.FeeCalculator
	ledger relayrefund.RewardLedger
}

// NewRewardEngine creates a reward engine.
func NewRewardEngine(fee relayrefund.FeeCalculator, ledger relayrefund.RewardLedger) *RewardEngine {
	return &RewardEngine{fee: fee, ledger: ledger}
}

// ComputeFee delegates to the configured fee calculator.
func (r *RewardEngine) ComputeFee(info types.DispatchInfo, post types.PostDispatchInfo, length uint32, tip types.Balance) types.Balance {
	return r.fee.ComputeFee(info, post, length, tip)
}

// RegisterReward adds amount to the relayer's balance on lane.
func (r *RewardEngine) RegisterReward(lane types.LaneID, relayer types.AccountID, amount types.Balance) error {
	if err := r.ledger.RegisterRelayerReward(lane, relayer, amount); err != nil {
		return fmt.Errorf("register reward of %d for %s on lane %s: %w", amount, relayer, lane, err)
	}
	return nil
}
