package amm

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Swap trades AmountIn of the direction's input token for the output
// token. nowMillis is the caller's trusted time, checked against the
// deadline before anything else.
//
// The whole fee stays in the input reserve unless the pool routes a
// ledger share of it to positions, in which case that part is booked in
// FeeAccrued instead.
//
// A trade whose output floors to zero fails with ErrZeroOutput even when
// MinAmountOut is 0, so the engine never takes input for nothing.
func (e *Engine) Swap(sender common.Address, params SwapParams, nowMillis uint64) (SwapResult, error) {
	p, err := e.pool(params.Pool)
	if err != nil {
		return SwapResult{}, fmt.Errorf("swap: %w", err)
	}
	if params.Direction != AtoB && params.Direction != BtoA {
		return SwapResult{}, fmt.Errorf("swap: unknown %s", params.Direction)
	}
	if nowMillis > params.DeadlineMillis {
		return SwapResult{}, fmt.Errorf("swap: now %d after deadline %d: %w", nowMillis, params.DeadlineMillis, ErrDeadlineExpired)
	}
	if params.AmountIn == 0 {
		return SwapResult{}, fmt.Errorf("swap: %w", ErrEmptyInput)
	}
	reserveIn, reserveOut := params.Direction.reserves(p)
	amountOut, err := SwapOutput(params.AmountIn, reserveIn, reserveOut, p.FeeTierBps)
	if err != nil {
		return SwapResult{}, fmt.Errorf("swap pool %d: %w", p.ID, err)
	}
	if amountOut == 0 {
		return SwapResult{}, fmt.Errorf("swap %d in: %w", params.AmountIn, ErrZeroOutput)
	}
	if amountOut < params.MinAmountOut {
		return SwapResult{}, fmt.Errorf("swap: out %d, minimum %d: %w", amountOut, params.MinAmountOut, ErrSlippageExceeded)
	}

	fee := params.AmountIn - AmountInAfterFee(params.AmountIn, p.FeeTierBps)
	ledgerFee, err := MulDiv(fee, p.LedgerShareBps, BpsDenominator)
	if err != nil {
		return SwapResult{}, fmt.Errorf("swap ledger fee: %w", err)
	}
	newIn, err := addChecked(reserveIn, params.AmountIn-ledgerFee)
	if err != nil {
		return SwapResult{}, fmt.Errorf("swap reserve in: %w", err)
	}
	newOut := reserveOut - amountOut

	if params.Direction == AtoB {
		p.ReserveA, p.ReserveB = newIn, newOut
	} else {
		p.ReserveB, p.ReserveA = newIn, newOut
	}
	accrue(p, params.Direction, ledgerFee)

	return SwapResult{
		Pool:      p.ID,
		Sender:    sender,
		Direction: params.Direction,
		AmountIn:  params.AmountIn,
		AmountOut: amountOut,
		FeeAmount: fee,
		LedgerFee: ledgerFee,
		ReserveA:  p.ReserveA,
		ReserveB:  p.ReserveB,
	}, nil
}
