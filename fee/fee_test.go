package fee

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/blockberries/relayrefund/types"
)

func TestComputeFee(t *testing.T) {
	c := NewCalculator(Params{
		BaseFee:              10,
		ByteFee:              2,
		WeightFeeNumerator:   1,
		WeightFeeDenominator: 1000,
	})
	info := types.DispatchInfo{Weight: 1_000_000, PaysFee: types.PaysYes}
	post := types.PostDispatchInfo{PaysFee: types.PaysYes}

	// 10 + 2*100 + 1_000_000/1000
	assert.Equal(t, types.Balance(1210), c.ComputeFee(info, post, 100, 0))
	assert.Equal(t, types.Balance(1215), c.ComputeFee(info, post, 100, 5))
}

func TestComputeFeeUsesActualWeight(t *testing.T) {
	c := NewCalculator(Params{WeightFeeNumerator: 1, WeightFeeDenominator: 1})
	info := types.DispatchInfo{Weight: 1000, PaysFee: types.PaysYes}

	actual := types.Weight(400)
	assert.Equal(t, types.Balance(400), c.ComputeFee(info, types.PostDispatchInfo{ActualWeight: &actual, PaysFee: types.PaysYes}, 0, 0))

	// Actual weight above the declared one is capped.
	over := types.Weight(5000)
	assert.Equal(t, types.Balance(1000), c.ComputeFee(info, types.PostDispatchInfo{ActualWeight: &over, PaysFee: types.PaysYes}, 0, 0))
}

func TestComputeFeeNotPaying(t *testing.T) {
	c := NewCalculator(DefaultParams())

	info := types.DispatchInfo{Weight: 1_000_000, PaysFee: types.PaysNo}
	assert.Equal(t, types.Balance(7), c.ComputeFee(info, types.PostDispatchInfo{PaysFee: types.PaysYes}, 100, 7))

	info.PaysFee = types.PaysYes
	assert.Equal(t, types.Balance(7), c.ComputeFee(info, types.PostDispatchInfo{PaysFee: types.PaysNo}, 100, 7))
}

func TestComputeFeeSaturates(t *testing.T) {
	c := NewCalculator(Params{BaseFee: math.MaxUint64 - 1, ByteFee: math.MaxUint64, WeightFeeNumerator: math.MaxUint64, WeightFeeDenominator: 1})
	info := types.DispatchInfo{Weight: math.MaxUint64, PaysFee: types.PaysYes}

	assert.Equal(t, types.Balance(math.MaxUint64), c.ComputeFee(info, types.PostDispatchInfo{PaysFee: types.PaysYes}, 2, 10))
	assert.Equal(t, types.Balance(math.MaxUint64), c.WeightToFee(math.MaxUint64))
}

func TestWeightToFeeRoundsDown(t *testing.T) {
	c := NewCalculator(Params{WeightFeeNumerator: 2, WeightFeeDenominator: 3})

	assert.Equal(t, types.Balance(0), c.WeightToFee(1))
	assert.Equal(t, types.Balance(6), c.WeightToFee(10))
	// Intermediate product overflows 64 bits but the quotient does not.
	big := NewCalculator(Params{WeightFeeNumerator: 1 << 32, WeightFeeDenominator: 1 << 33})
	assert.Equal(t, types.Balance(math.MaxUint64/2), big.WeightToFee(math.MaxUint64))
}

func TestZeroDenominator(t *testing.T) {
	c := NewCalculator(Params{WeightFeeNumerator: 3})

	assert.Equal(t, uint64(1), c.Params().WeightFeeDenominator)
	assert.Equal(t, types.Balance(30), c.WeightToFee(10))
}
