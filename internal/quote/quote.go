// Package quote computes non-authoritative previews of engine calls for
// display. Amounts come from the engine's own integer math; ratios and
// percentages are decimals.
package quote

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"

	"poolEngine/internal/amm"
)

const (
	// DefaultSlippageBps is the tolerance used when a caller sends none.
	DefaultSlippageBps = 50
	// BlockingImpactPct is the price impact above which a swap should not
	// be offered.
	BlockingImpactPct = 15

	ratePlaces = 12
	pctPlaces  = 4
)

// Impact levels for a price impact percentage.
const (
	ImpactLow    = "low"
	ImpactMedium = "medium"
	ImpactHigh   = "high"
)

var ErrInvalidSlippage = errors.New("slippage above 10000 bps")

var hundred = decimal.NewFromInt(100)

// SwapQuote previews a swap against the current reserves.
type SwapQuote struct {
	Pool            amm.PoolID      `json:"pool_id"`
	Direction       string          `json:"direction"`
	AmountIn        uint64          `json:"amount_in,string"`
	AmountOut       uint64          `json:"amount_out,string"`
	MinimumReceived uint64          `json:"minimum_received,string"`
	FeeAmount       uint64          `json:"fee_amount,string"`
	FeeLabel        string          `json:"fee"`
	ExchangeRate    decimal.Decimal `json:"exchange_rate"`
	PriceImpactPct  decimal.Decimal `json:"price_impact_pct"`
	ImpactLevel     string          `json:"impact_level"`
	Blocked         bool            `json:"blocked"`
}

// Swap quotes amountIn in the given direction. MinimumReceived applies
// slippageBps to the quoted output.
func Swap(pool amm.Pool, dir amm.Direction, amountIn, slippageBps uint64) (SwapQuote, error) {
	if amountIn == 0 {
		return SwapQuote{}, amm.ErrEmptyInput
	}
	reserveIn, reserveOut := pool.ReserveA, pool.ReserveB
	if dir == amm.BtoA {
		reserveIn, reserveOut = pool.ReserveB, pool.ReserveA
	}
	out, err := amm.SwapOutput(amountIn, reserveIn, reserveOut, pool.FeeTierBps)
	if err != nil {
		return SwapQuote{}, err
	}
	minOut, err := MinOutput(out, slippageBps)
	if err != nil {
		return SwapQuote{}, err
	}

	impact := PriceImpactPct(amountIn, out, reserveIn, reserveOut)
	return SwapQuote{
		Pool:            pool.ID,
		Direction:       dir.String(),
		AmountIn:        amountIn,
		AmountOut:       out,
		MinimumReceived: minOut,
		FeeAmount:       amountIn - amm.AmountInAfterFee(amountIn, pool.FeeTierBps),
		FeeLabel:        FeeLabel(pool.FeeTierBps),
		ExchangeRate:    dec(out).DivRound(dec(amountIn), ratePlaces),
		PriceImpactPct:  impact,
		ImpactLevel:     ImpactLevel(impact),
		Blocked:         impact.GreaterThan(decimal.NewFromInt(BlockingImpactPct)),
	}, nil
}

// MinOutput returns amount minus slippageBps of it, rounded down.
func MinOutput(amount, slippageBps uint64) (uint64, error) {
	if slippageBps > amm.BpsDenominator {
		return 0, ErrInvalidSlippage
	}
	cut, err := amm.MulDiv(amount, slippageBps, amm.BpsDenominator)
	if err != nil {
		return 0, err
	}
	return amount - cut, nil
}

// PriceImpactPct is |spot - effective| / spot * 100, where spot is
// reserveOut/reserveIn and effective is amountOut/amountIn.
func PriceImpactPct(amountIn, amountOut, reserveIn, reserveOut uint64) decimal.Decimal {
	if amountIn == 0 || reserveIn == 0 || reserveOut == 0 {
		return decimal.Zero
	}
	// effective/spot = (out*rIn)/(in*rOut)
	num := dec(amountOut).Mul(dec(reserveIn))
	den := dec(amountIn).Mul(dec(reserveOut))
	ratio := num.DivRound(den, ratePlaces)
	return decimal.NewFromInt(1).Sub(ratio).Abs().Mul(hundred).Round(pctPlaces)
}

// ImpactLevel buckets a price impact percentage.
func ImpactLevel(pct decimal.Decimal) string {
	switch {
	case pct.LessThan(decimal.NewFromInt(1)):
		return ImpactLow
	case pct.LessThan(decimal.NewFromInt(5)):
		return ImpactMedium
	default:
		return ImpactHigh
	}
}

// FeeLabel renders a fee tier in percent, e.g. 30 -> "0.30%".
func FeeLabel(feeTierBps uint64) string {
	return dec(feeTierBps).Shift(-2).StringFixed(2) + "%"
}

// PoolSharePct is shares/supply*100, or 100 for an empty supply.
func PoolSharePct(shares, supply uint64) decimal.Decimal {
	if supply == 0 {
		return hundred
	}
	return dec(shares).Mul(hundred).DivRound(dec(supply), pctPlaces)
}

// ImpermanentLossPct compares holding against providing after the price
// ratio moved from initialRatio to currentRatio. The result is zero or
// negative.
func ImpermanentLossPct(initialRatio, currentRatio decimal.Decimal) (decimal.Decimal, error) {
	if !initialRatio.IsPositive() || !currentRatio.IsPositive() {
		return decimal.Zero, fmt.Errorf("price ratios must be positive")
	}
	r, _ := currentRatio.Div(initialRatio).Float64()
	loss := 2*math.Sqrt(r)/(1+r) - 1
	return decimal.NewFromFloat(loss).Mul(hundred).Round(pctPlaces), nil
}

func dec(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}
