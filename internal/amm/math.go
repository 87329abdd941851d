package amm

import (
	"fmt"
	"math"

	"github.com/holiman/uint256"
)

// BpsDenominator is the basis-point scale for fee tiers and ledger shares.
const BpsDenominator = 10_000

var q128 = new(uint256.Int).Lsh(uint256.NewInt(1), 128)

// MulDiv returns floor(x*y/d) computed with a 256-bit intermediate.
// It fails when d is zero or the result does not fit in uint64.
func MulDiv(x, y, d uint64) (uint64, error) {
	if d == 0 {
		return 0, fmt.Errorf("muldiv: division by zero")
	}
	z := new(uint256.Int).Mul(uint256.NewInt(x), uint256.NewInt(y))
	z.Div(z, uint256.NewInt(d))
	if !z.IsUint64() {
		return 0, fmt.Errorf("muldiv: %w", ErrOverflow)
	}
	return z.Uint64(), nil
}

// BootstrapShares returns floor(sqrt(a*b)). The product of two uint64
// values fits in 128 bits so the root always fits in uint64.
func BootstrapShares(amountA, amountB uint64) uint64 {
	prod := new(uint256.Int).Mul(uint256.NewInt(amountA), uint256.NewInt(amountB))
	return new(uint256.Int).Sqrt(prod).Uint64()
}

// ProportionalShares applies the minimum-of-two-ratios rule against the
// current reserves and supply.
func ProportionalShares(amountA, amountB, reserveA, reserveB, supply uint64) (uint64, error) {
	if reserveA == 0 || reserveB == 0 {
		return 0, ErrInsufficientLiquidity
	}
	byA, err := MulDiv(amountA, supply, reserveA)
	if err != nil {
		return 0, err
	}
	byB, err := MulDiv(amountB, supply, reserveB)
	if err != nil {
		return 0, err
	}
	if byA < byB {
		return byA, nil
	}
	return byB, nil
}

// AmountInAfterFee returns amountIn*(10000-fee)/10000.
func AmountInAfterFee(amountIn, feeTierBps uint64) uint64 {
	v, _ := MulDiv(amountIn, BpsDenominator-feeTierBps, BpsDenominator)
	return v
}

// SwapOutput returns the constant-product output for amountIn against the
// given reserves. The result is always strictly below reserveOut.
func SwapOutput(amountIn, reserveIn, reserveOut, feeTierBps uint64) (uint64, error) {
	if reserveIn == 0 || reserveOut == 0 {
		return 0, ErrInsufficientLiquidity
	}
	if feeTierBps >= BpsDenominator {
		return 0, ErrInvalidFeeTier
	}
	after := AmountInAfterFee(amountIn, feeTierBps)
	num := new(uint256.Int).Mul(uint256.NewInt(after), uint256.NewInt(reserveOut))
	den := new(uint256.Int).Add(uint256.NewInt(reserveIn), uint256.NewInt(after))
	return num.Div(num, den).Uint64(), nil
}

// RedeemAmounts returns the floor-proportional share of each reserve.
func RedeemAmounts(shares, reserveA, reserveB, supply uint64) (uint64, uint64, error) {
	if supply == 0 {
		return 0, 0, ErrInsufficientLiquidity
	}
	if shares > supply {
		return 0, 0, ErrInsufficientShares
	}
	a, err := MulDiv(reserveA, shares, supply)
	if err != nil {
		return 0, 0, err
	}
	b, err := MulDiv(reserveB, shares, supply)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func addChecked(a, b uint64) (uint64, error) {
	s := a + b
	if s < a {
		return 0, ErrOverflow
	}
	return s, nil
}

// growthDelta returns fee<<128/supply.
func growthDelta(fee, supply uint64) *uint256.Int {
	d := new(uint256.Int).Lsh(uint256.NewInt(fee), 128)
	return d.Div(d, uint256.NewInt(supply))
}

// owed returns shares*(growth-checkpoint)>>128, saturated at MaxUint64.
// The accumulator is allowed to wrap, so the difference is taken modulo
// 2^256.
func owed(shares uint64, growth, checkpoint *uint256.Int) uint64 {
	delta := new(uint256.Int).Sub(growth, checkpoint)
	v, overflow := new(uint256.Int).MulDivOverflow(uint256.NewInt(shares), delta, q128)
	if overflow || !v.IsUint64() {
		return math.MaxUint64
	}
	return v.Uint64()
}

func addSaturated(a, b uint64) uint64 {
	if s, err := addChecked(a, b); err == nil {
		return s
	}
	return math.MaxUint64
}
