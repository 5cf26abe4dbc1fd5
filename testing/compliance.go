package refundtest

import (
	"math"
	"sync"
	"testing"

	"github.com/blockberries/relayrefund"
	"github.com/blockberries/relayrefund/types"
)

// RunLedgerComplianceSuite runs a standard test suite against a
// reward ledger implementation.
//
// The factory function should return a fresh, empty ledger for each
// test. Cleanup belongs to t.Cleanup inside the factory.
func RunLedgerComplianceSuite(t *testing.T, factory func(t *testing.T) relayrefund.RewardLedger) {
	t.Helper()

	relayerA := types.AccountID{1}
	relayerB := types.AccountID{2}
	laneA := types.LaneID{0, 0, 0, 1}
	laneB := types.LaneID{0, 0, 0, 2}

	t.Run("unknown_relayer_has_no_reward", func(t *testing.T) {
		ledger := factory(t)
		reward, ok, err := ledger.RelayerReward(relayerA, laneA)
		if err != nil {
			t.Fatalf("RelayerReward: %v", err)
		}
		if ok || reward != 0 {
			t.Errorf("expected no reward, got (%d, %v)", reward, ok)
		}
	})

	t.Run("register_then_read", func(t *testing.T) {
		ledger := factory(t)
		mustRegister(t, ledger, laneA, relayerA, 42)
		expectReward(t, ledger, relayerA, laneA, 42)
	})

	t.Run("rewards_accumulate", func(t *testing.T) {
		ledger := factory(t)
		mustRegister(t, ledger, laneA, relayerA, 40)
		mustRegister(t, ledger, laneA, relayerA, 2)
		expectReward(t, ledger, relayerA, laneA, 42)
	})

	t.Run("rewards_are_per_relayer_and_lane", func(t *testing.T) {
		ledger := factory(t)
		mustRegister(t, ledger, laneA, relayerA, 1)
		mustRegister(t, ledger, laneB, relayerA, 2)
		mustRegister(t, ledger, laneA, relayerB, 3)
		expectReward(t, ledger, relayerA, laneA, 1)
		expectReward(t, ledger, relayerA, laneB, 2)
		expectReward(t, ledger, relayerB, laneA, 3)
		if _, ok, _ := ledger.RelayerReward(relayerB, laneB); ok {
			t.Error("relayer B has no reward on lane B")
		}
	})

	t.Run("zero_reward_is_not_recorded", func(t *testing.T) {
		ledger := factory(t)
		mustRegister(t, ledger, laneA, relayerA, 0)
		if _, ok, _ := ledger.RelayerReward(relayerA, laneA); ok {
			t.Error("zero reward should not create an entry")
		}
	})

	t.Run("rewards_saturate", func(t *testing.T) {
		ledger := factory(t)
		mustRegister(t, ledger, laneA, relayerA, math.MaxUint64-1)
		mustRegister(t, ledger, laneA, relayerA, 10)
		expectReward(t, ledger, relayerA, laneA, math.MaxUint64)
	})

	t.Run("concurrent_registration", func(t *testing.T) {
		ledger := factory(t)
		const workers, perWorker = 8, 50
		var wg sync.WaitGroup
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range perWorker {
					if err := ledger.RegisterRelayerReward(laneA, relayerA, 1); err != nil {
						t.Errorf("RegisterRelayerReward: %v", err)
						return
					}
				}
			}()
		}
		wg.Wait()
		expectReward(t, ledger, relayerA, laneA, workers*perWorker)
	})
}

func mustRegister(t *testing.T, ledger relayrefund.RewardLedger, lane types.LaneID, relayer types.AccountID, amount types.Balance) {
	t.Helper()
	if err := ledger.RegisterRelayerReward(lane, relayer, amount); err != nil {
		t.Fatalf("RegisterRelayerReward(%s, %s, %d): %v", lane, relayer, amount, err)
	}
}

func expectReward(t *testing.T, ledger relayrefund.RewardLedger, relayer types.AccountID, lane types.LaneID, want types.Balance) {
	t.Helper()
	got, ok, err := ledger.RelayerReward(relayer, lane)
	if err != nil {
		t.Fatalf("RelayerReward(%s, %s): %v", relayer, lane, err)
	}
	if !ok {
		t.Fatalf("RelayerReward(%s, %s): no reward, want %d", relayer, lane, want)
	}
	if got != want {
		t.Errorf("RelayerReward(%s, %s) = %d, want %d", relayer, lane, got, want)
	}
}
