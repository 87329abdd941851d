package amm

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// AddLiquidity deposits both tokens and mints shares to the owner's
// position in the pool, creating the position if the owner has none.
//
// An empty pool mints floor(sqrt(a*b)) and takes its price from the
// deposit. An active pool mints the smaller of the two proportional
// amounts; any excess of the other token stays in the pool. A deposit
// that would mint zero shares fails with ErrZeroShares even when
// minShares is 0.
func (e *Engine) AddLiquidity(owner common.Address, id PoolID, amountA, amountB, minShares uint64) (AddLiquidityResult, error) {
	p, err := e.pool(id)
	if err != nil {
		return AddLiquidityResult{}, fmt.Errorf("add liquidity: %w", err)
	}
	if amountA == 0 || amountB == 0 {
		return AddLiquidityResult{}, fmt.Errorf("add liquidity %d/%d: %w", amountA, amountB, ErrEmptyDeposit)
	}

	var shares uint64
	if p.LPSupply == 0 {
		shares = BootstrapShares(amountA, amountB)
	} else {
		shares, err = ProportionalShares(amountA, amountB, p.ReserveA, p.ReserveB, p.LPSupply)
		if err != nil {
			return AddLiquidityResult{}, fmt.Errorf("add liquidity: %w", err)
		}
		if shares == 0 {
			return AddLiquidityResult{}, fmt.Errorf("add liquidity %d/%d: %w", amountA, amountB, ErrZeroShares)
		}
	}
	if shares < minShares {
		return AddLiquidityResult{}, fmt.Errorf("add liquidity: minted %d, minimum %d: %w", shares, minShares, ErrSlippageExceeded)
	}

	reserveA, err := addChecked(p.ReserveA, amountA)
	if err != nil {
		return AddLiquidityResult{}, fmt.Errorf("add liquidity reserve a: %w", err)
	}
	reserveB, err := addChecked(p.ReserveB, amountB)
	if err != nil {
		return AddLiquidityResult{}, fmt.Errorf("add liquidity reserve b: %w", err)
	}
	supply, err := addChecked(p.LPSupply, shares)
	if err != nil {
		return AddLiquidityResult{}, fmt.Errorf("add liquidity supply: %w", err)
	}

	created := false
	pos := e.existing(id, owner)
	if pos == nil {
		created = true
		pos = &Position{
			ID:            e.nextPosition,
			Pool:          id,
			Owner:         owner,
			GrowthInsideA: p.FeeGrowthA,
			GrowthInsideB: p.FeeGrowthB,
		}
		e.nextPosition++
		e.positions[pos.ID] = pos
		e.index(pos)
	} else {
		settle(pos, p)
	}
	pos.ShareUnits += shares
	p.ReserveA = reserveA
	p.ReserveB = reserveB
	p.LPSupply = supply

	return AddLiquidityResult{
		Pool:         id,
		Position:     pos.ID,
		Owner:        owner,
		AmountA:      amountA,
		AmountB:      amountB,
		SharesMinted: shares,
		Created:      created,
		ReserveA:     p.ReserveA,
		ReserveB:     p.ReserveB,
		LPSupply:     p.LPSupply,
	}, nil
}

func (e *Engine) existing(pool PoolID, owner common.Address) *Position {
	id, ok := e.byOwner[pool][owner]
	if !ok {
		return nil
	}
	return e.positions[id]
}

// RemoveLiquidity burns shareUnits from the position and returns the
// floor-proportional part of each reserve. A position that reaches zero
// shares is destroyed and its unclaimed ledger fees are paid out with it.
func (e *Engine) RemoveLiquidity(owner common.Address, id PositionID, shareUnits, minAmountA, minAmountB uint64) (RemoveLiquidityResult, error) {
	pos, p, err := e.ownedPosition(owner, id)
	if err != nil {
		return RemoveLiquidityResult{}, fmt.Errorf("remove liquidity: %w", err)
	}
	if shareUnits == 0 {
		return RemoveLiquidityResult{}, fmt.Errorf("remove liquidity: %w", ErrEmptyInput)
	}
	if shareUnits > pos.ShareUnits {
		return RemoveLiquidityResult{}, fmt.Errorf("remove liquidity: have %d, need %d: %w", pos.ShareUnits, shareUnits, ErrInsufficientShares)
	}
	amountA, amountB, err := RedeemAmounts(shareUnits, p.ReserveA, p.ReserveB, p.LPSupply)
	if err != nil {
		return RemoveLiquidityResult{}, fmt.Errorf("remove liquidity: %w", err)
	}
	if amountA < minAmountA || amountB < minAmountB {
		return RemoveLiquidityResult{}, fmt.Errorf("remove liquidity: got %d/%d, minimum %d/%d: %w",
			amountA, amountB, minAmountA, minAmountB, ErrSlippageExceeded)
	}

	settle(pos, p)
	p.ReserveA -= amountA
	p.ReserveB -= amountB
	p.LPSupply -= shareUnits
	pos.ShareUnits -= shareUnits

	res := RemoveLiquidityResult{
		Pool:        p.ID,
		Position:    pos.ID,
		Owner:       owner,
		SharesBurnt: shareUnits,
		AmountA:     amountA,
		AmountB:     amountB,
	}
	if pos.ShareUnits == 0 {
		res.Burned = true
		res.FeesA = pos.UnclaimedFeesA
		res.FeesB = pos.UnclaimedFeesB
		p.FeeAccruedA -= res.FeesA
		p.FeeAccruedB -= res.FeesB
		e.unindex(pos)
		delete(e.positions, pos.ID)
	}
	res.ReserveA = p.ReserveA
	res.ReserveB = p.ReserveB
	res.LPSupply = p.LPSupply
	return res, nil
}

// Donate adds tokens to an active pool's reserves without minting shares.
func (e *Engine) Donate(donor common.Address, id PoolID, amountA, amountB uint64) (DonateResult, error) {
	p, err := e.pool(id)
	if err != nil {
		return DonateResult{}, fmt.Errorf("donate: %w", err)
	}
	if amountA == 0 && amountB == 0 {
		return DonateResult{}, fmt.Errorf("donate: %w", ErrEmptyDeposit)
	}
	if p.State() == Empty {
		return DonateResult{}, fmt.Errorf("donate to empty pool %d: %w", id, ErrInsufficientLiquidity)
	}
	reserveA, err := addChecked(p.ReserveA, amountA)
	if err != nil {
		return DonateResult{}, fmt.Errorf("donate reserve a: %w", err)
	}
	reserveB, err := addChecked(p.ReserveB, amountB)
	if err != nil {
		return DonateResult{}, fmt.Errorf("donate reserve b: %w", err)
	}
	p.ReserveA = reserveA
	p.ReserveB = reserveB
	return DonateResult{
		Pool:     id,
		Donor:    donor,
		AmountA:  amountA,
		AmountB:  amountB,
		ReserveA: p.ReserveA,
		ReserveB: p.ReserveB,
	}, nil
}
