// Package fee computes the fee charged for a dispatched transaction
// the way the transaction payment module does: a fixed base fee, a
// per-byte length fee and a linear weight fee, plus the tip.
package fee

import (
	"math"
	"math/bits"

	"github.com/blockberries/relayrefund"
	"github.com/blockberries/relayrefund/types"
)

// Compile-time interface check.
var _ relayrefund.FeeCalculator = (*Calculator)(nil)

// Params are the fee coefficients.
type Params struct {
	BaseFee types.Balance
	ByteFee types.Balance
	// weight fee = weight * WeightFeeNumerator / WeightFeeDenominator
	WeightFeeNumerator   uint64
	WeightFeeDenominator uint64
}

// DefaultParams are the coefficients used by tests and the daemon
// when none are configured.
func DefaultParams() Params {
	return Params{
		BaseFee:              1,
		ByteFee:              1,
		WeightFeeNumerator:   1,
		WeightFeeDenominator: 1_000_000,
	}
}

// Calculator computes actual fees from Params.
type Calculator struct {
	params Params
}

// NewCalculator creates a calculator. A zero denominator is treated as one.
func NewCalculator(p Params) *Calculator {
	if p.WeightFeeDenominator == 0 {
		p.WeightFeeDenominator = 1
	}
	return &Calculator{params: p}
}

// Params returns the coefficients in use.
func (c *Calculator) Params() Params { return c.params }

// ComputeFee returns the fee actually charged. If the dispatch does
// not pay, only the tip is charged. All arithmetic saturates.
func (c *Calculator) ComputeFee(info types.DispatchInfo, post types.PostDispatchInfo, length uint32, tip types.Balance) types.Balance {
	if post.Pays(info) == types.PaysNo {
		return tip
	}
	fee := c.InclusionFee(post.CalcActualWeight(info), length)
	return saturatingAdd(fee, tip)
}

// InclusionFee returns base + length + weight fee.
func (c *Calculator) InclusionFee(weight types.Weight, length uint32) types.Balance {
	fee := c.params.BaseFee
	fee = saturatingAdd(fee, saturatingMul(c.params.ByteFee, types.Balance(length)))
	fee = saturatingAdd(fee, c.WeightToFee(weight))
	return fee
}

// WeightToFee converts weight to a fee, rounding down.
func (c *Calculator) WeightToFee(w types.Weight) types.Balance {
	hi, lo := bits.Mul64(uint64(w), c.params.WeightFeeNumerator)
	if hi >= c.params.WeightFeeDenominator {
		return math.MaxUint64
	}
	q, _ := bits.Div64(hi, lo, c.params.WeightFeeDenominator)
	return types.Balance(q)
}

func saturatingAdd(a, b types.Balance) types.Balance {
	sum, carry := bits.Add64(uint64(a), uint64(b), 0)
	if carry != 0 {
		return math.MaxUint64
	}
	return types.Balance(sum)
}

func saturatingMul(a, b types.Balance) types.Balance {
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	if hi != 0 {
		return math.MaxUint64
	}
	return types.Balance(lo)
}
