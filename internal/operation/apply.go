// Package operation maps operation records onto engine calls.
package operation

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"poolEngine/internal/amm"
	"poolEngine/internal/event"
	"poolEngine/internal/model"
)

// ErrInvalidOperation marks records that cannot be mapped to an engine call.
var ErrInvalidOperation = errors.New("invalid operation")

// Code returns the stable error code for an apply error.
func Code(err error) string {
	if errors.Is(err, ErrInvalidOperation) {
		return "InvalidOperation"
	}
	return amm.Code(err)
}

// Outcome is what a successful operation produced. Results are in event
// order and can be passed straight to event.Encoder.
type Outcome struct {
	Pool     amm.PoolID
	Position amm.PositionID
	Results  []interface{}
}

// Applier runs operations against an engine.
type Applier struct {
	Engine *amm.Engine
	// DefaultDeadline is added to the operation time for swaps that carry
	// no deadline. Zero leaves such swaps to fail as expired.
	DefaultDeadline time.Duration
}

// Apply executes op at nowMillis.
func (a *Applier) Apply(op model.Operation, nowMillis uint64) (Outcome, error) {
	e := a.Engine
	switch op.Op {
	case model.OpCreatePool:
		id, err := e.CreatePool(op.FeeTierBps)
		if err != nil {
			return Outcome{}, err
		}
		p, err := e.Pool(id)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Pool: id, Results: []interface{}{event.PoolCreated{
			Pool:           id,
			FeeTierBps:     p.FeeTierBps,
			LedgerShareBps: p.LedgerShareBps,
		}}}, nil

	case model.OpAddLiquidity:
		owner, err := address("owner", op.Owner)
		if err != nil {
			return Outcome{}, err
		}
		res, err := e.AddLiquidity(owner, amm.PoolID(op.PoolID), op.AmountA.Uint64(), op.AmountB.Uint64(), op.MinShares.Uint64())
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Pool: res.Pool, Position: res.Position, Results: []interface{}{res}}, nil

	case model.OpRemoveLiquidity:
		owner, err := address("owner", op.Owner)
		if err != nil {
			return Outcome{}, err
		}
		shares, err := a.shareUnits(op)
		if err != nil {
			return Outcome{}, err
		}
		res, err := e.RemoveLiquidity(owner, amm.PositionID(op.PositionID), shares, op.MinAmountA.Uint64(), op.MinAmountB.Uint64())
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Pool: res.Pool, Position: res.Position, Results: []interface{}{res}}, nil

	case model.OpSwap:
		sender, err := address("owner", op.Owner)
		if err != nil {
			return Outcome{}, err
		}
		dir, err := amm.ParseDirection(op.Direction)
		if err != nil {
			return Outcome{}, fmt.Errorf("%w: %v", ErrInvalidOperation, err)
		}
		deadline := op.DeadlineMs
		if deadline == 0 && a.DefaultDeadline > 0 {
			deadline = nowMillis + uint64(a.DefaultDeadline.Milliseconds())
		}
		res, err := e.Swap(sender, amm.SwapParams{
			Pool:           amm.PoolID(op.PoolID),
			Direction:      dir,
			AmountIn:       op.AmountIn.Uint64(),
			MinAmountOut:   op.MinAmountOut.Uint64(),
			DeadlineMillis: deadline,
		}, nowMillis)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Pool: res.Pool, Results: []interface{}{res}}, nil

	case model.OpCollectFee:
		owner, err := address("owner", op.Owner)
		if err != nil {
			return Outcome{}, err
		}
		res, err := e.CollectFees(owner, amm.PositionID(op.PositionID))
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Pool: res.Pool, Position: res.Position, Results: []interface{}{res}}, nil

	case model.OpDonate:
		donor, err := address("owner", op.Owner)
		if err != nil {
			return Outcome{}, err
		}
		res, err := e.Donate(donor, amm.PoolID(op.PoolID), op.AmountA.Uint64(), op.AmountB.Uint64())
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Pool: res.Pool, Results: []interface{}{res}}, nil

	case model.OpTransferPosition:
		owner, err := address("owner", op.Owner)
		if err != nil {
			return Outcome{}, err
		}
		to, err := address("recipient", op.Recipient)
		if err != nil {
			return Outcome{}, err
		}
		res, err := e.TransferPosition(owner, amm.PositionID(op.PositionID), to)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Pool: res.Pool, Position: res.Position, Results: []interface{}{res}}, nil

	default:
		return Outcome{}, fmt.Errorf("%w: unknown op %q", ErrInvalidOperation, op.Op)
	}
}

// shareUnits resolves an explicit share amount or a percentage of the
// position, as sent by the withdraw slider.
func (a *Applier) shareUnits(op model.Operation) (uint64, error) {
	if op.ShareUnits > 0 || op.Percent == 0 {
		return op.ShareUnits.Uint64(), nil
	}
	if op.Percent > 100 {
		return 0, fmt.Errorf("%w: percent %d above 100", ErrInvalidOperation, op.Percent)
	}
	pos, err := a.Engine.Position(amm.PositionID(op.PositionID))
	if err != nil {
		return 0, err
	}
	if op.Percent == 100 {
		return pos.ShareUnits, nil
	}
	return amm.MulDiv(pos.ShareUnits, op.Percent, 100)
}

func address(field, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %s %q is not an address", ErrInvalidOperation, field, s)
	}
	return common.HexToAddress(s), nil
}
