package amm

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// pending returns ledger fees earned by pos since its last checkpoint.
func pending(pos *Position, p *Pool) (uint64, uint64) {
	return owed(pos.ShareUnits, &p.FeeGrowthA, &pos.GrowthInsideA),
		owed(pos.ShareUnits, &p.FeeGrowthB, &pos.GrowthInsideB)
}

// settle moves pending fees into the unclaimed balance and checkpoints the
// position at the pool's current growth. It must run before any change to
// ShareUnits.
func settle(pos *Position, p *Pool) {
	a, b := pending(pos, p)
	pos.UnclaimedFeesA = addSaturated(pos.UnclaimedFeesA, a)
	pos.UnclaimedFeesB = addSaturated(pos.UnclaimedFeesB, b)
	pos.GrowthInsideA = p.FeeGrowthA
	pos.GrowthInsideB = p.FeeGrowthB
}

func (e *Engine) settled(pos *Position) Position {
	out := *pos
	if p, ok := e.pools[pos.Pool]; ok {
		settle(&out, p)
	}
	return out
}

// accrue books a ledger fee for the input side of a swap.
func accrue(p *Pool, dir Direction, fee uint64) {
	if fee == 0 || p.LPSupply == 0 {
		return
	}
	delta := growthDelta(fee, p.LPSupply)
	if dir == AtoB {
		p.FeeAccruedA += fee
		p.FeeGrowthA.Add(&p.FeeGrowthA, delta)
		return
	}
	p.FeeAccruedB += fee
	p.FeeGrowthB.Add(&p.FeeGrowthB, delta)
}

// CollectFees pays out the position's unclaimed ledger fees and resets
// them to zero. Reserves are untouched.
func (e *Engine) CollectFees(owner common.Address, id PositionID) (CollectFeesResult, error) {
	pos, p, err := e.ownedPosition(owner, id)
	if err != nil {
		return CollectFeesResult{}, fmt.Errorf("collect fees: %w", err)
	}
	settle(pos, p)
	res := CollectFeesResult{
		Pool:     p.ID,
		Position: pos.ID,
		Owner:    owner,
		AmountA:  pos.UnclaimedFeesA,
		AmountB:  pos.UnclaimedFeesB,
	}
	p.FeeAccruedA -= res.AmountA
	p.FeeAccruedB -= res.AmountB
	pos.UnclaimedFeesA = 0
	pos.UnclaimedFeesB = 0
	return res, nil
}
