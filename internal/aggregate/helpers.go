package aggregate

import (
	"math/big"
	"time"
)

const ratioScale = 18

func bigString(value *big.Int) string {
	if value == nil {
		return "0"
	}
	return value.String()
}

func bigStringPtr(value *big.Int) *string {
	if value == nil {
		return nil
	}
	s := value.String()
	return &s
}

func computeFeeRates(feeA, feeB, tvlA, tvlB *big.Int) (*string, *string) {
	var feeRateA *string
	var feeRateB *string

	if rate := computeRate(feeA, tvlA); rate != nil {
		s := rate.FloatString(ratioScale)
		feeRateA = &s
	}
	if rate := computeRate(feeB, tvlB); rate != nil {
		s := rate.FloatString(ratioScale)
		feeRateB = &s
	}
	return feeRateA, feeRateB
}

// computeRate returns fee/tvl, or nil when the tvl is unknown or empty.
// A zero fee over a known tvl is a zero rate.
func computeRate(fee, tvl *big.Int) *big.Rat {
	if tvl == nil || tvl.Sign() == 0 {
		return nil
	}
	if fee == nil {
		fee = new(big.Int)
	}
	return new(big.Rat).SetFrac(fee, tvl)
}

// computeAPR annualizes the window yield. Both reserves hold equal value
// at the pool price, so the pool-wide yield is the mean of the two side
// rates.
func computeAPR(feeA, feeB, tvlA, tvlB *big.Int, windowSeconds uint64) *string {
	if windowSeconds == 0 {
		return nil
	}
	rateA := computeRate(feeA, tvlA)
	rateB := computeRate(feeB, tvlB)
	if rateA == nil || rateB == nil {
		return nil
	}

	yield := new(big.Rat).Add(rateA, rateB)
	yield.Quo(yield, big.NewRat(2, 1))
	yearSeconds := big.NewRat(int64(365*24*time.Hour/time.Second), 1)
	window := big.NewRat(int64(windowSeconds), 1)
	apr := new(big.Rat).Mul(yield, yearSeconds)
	apr.Quo(apr, window)
	val := apr.FloatString(ratioScale)
	return &val
}
