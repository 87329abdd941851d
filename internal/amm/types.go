package amm

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// PoolID identifies a pool for the lifetime of an engine.
type PoolID uint64

// PositionID identifies a liquidity position.
type PositionID uint64

// Direction selects which reserve is the swap input.
type Direction uint8

const (
	AtoB Direction = iota
	BtoA
)

func (d Direction) String() string {
	switch d {
	case AtoB:
		return "a_to_b"
	case BtoA:
		return "b_to_a"
	default:
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
}

// ParseDirection accepts "a_to_b" / "b_to_a" and a few common aliases.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a_to_b", "atob", "a2b", "0to1", "zero_for_one":
		return AtoB, nil
	case "b_to_a", "btoa", "b2a", "1to0", "one_for_zero":
		return BtoA, nil
	default:
		return 0, fmt.Errorf("unknown swap direction %q", s)
	}
}

// reserves returns (in, out) for the direction.
func (d Direction) reserves(p *Pool) (uint64, uint64) {
	if d == BtoA {
		return p.ReserveB, p.ReserveA
	}
	return p.ReserveA, p.ReserveB
}

// PoolState is derived from the share supply.
type PoolState uint8

const (
	Empty PoolState = iota
	Active
)

func (s PoolState) String() string {
	if s == Active {
		return "active"
	}
	return "empty"
}

// Pool is one trading pair.
//
// FeeAccruedA/B hold the separable fee ledger: the part of each swap fee
// that is carved out of the input reserve and distributed to positions
// through FeeGrowthA/B, a Q128 per-share accumulator.
type Pool struct {
	ID             PoolID
	FeeTierBps     uint64
	LedgerShareBps uint64
	ReserveA       uint64
	ReserveB       uint64
	LPSupply       uint64
	FeeAccruedA    uint64
	FeeAccruedB    uint64
	FeeGrowthA     uint256.Int
	FeeGrowthB     uint256.Int
}

func (p *Pool) State() PoolState {
	if p.LPSupply == 0 {
		return Empty
	}
	return Active
}

// Position is a uniquely owned claim on a pool's share supply.
type Position struct {
	ID             PositionID
	Pool           PoolID
	Owner          common.Address
	ShareUnits     uint64
	UnclaimedFeesA uint64
	UnclaimedFeesB uint64
	GrowthInsideA  uint256.Int
	GrowthInsideB  uint256.Int
}

// SwapParams carries caller-supplied swap arguments.
type SwapParams struct {
	Pool           PoolID
	Direction      Direction
	AmountIn       uint64
	MinAmountOut   uint64
	DeadlineMillis uint64
}

type AddLiquidityResult struct {
	Pool         PoolID
	Position     PositionID
	Owner        common.Address
	AmountA      uint64
	AmountB      uint64
	SharesMinted uint64
	Created      bool
	ReserveA     uint64
	ReserveB     uint64
	LPSupply     uint64
}

type RemoveLiquidityResult struct {
	Pool        PoolID
	Position    PositionID
	Owner       common.Address
	SharesBurnt uint64
	AmountA     uint64
	AmountB     uint64
	// FeesA/B are unclaimed ledger fees paid out because the position was burned.
	FeesA    uint64
	FeesB    uint64
	Burned   bool
	ReserveA uint64
	ReserveB uint64
	LPSupply uint64
}

type SwapResult struct {
	Pool      PoolID
	Sender    common.Address
	Direction Direction
	AmountIn  uint64
	AmountOut uint64
	// FeeAmount is amountIn minus amountInAfterFee; LedgerFee is the part
	// of it moved to the fee ledger instead of the input reserve.
	FeeAmount uint64
	LedgerFee uint64
	ReserveA  uint64
	ReserveB  uint64
}

type CollectFeesResult struct {
	Pool     PoolID
	Position PositionID
	Owner    common.Address
	AmountA  uint64
	AmountB  uint64
}

type DonateResult struct {
	Pool     PoolID
	Donor    common.Address
	AmountA  uint64
	AmountB  uint64
	ReserveA uint64
	ReserveB uint64
}

type TransferResult struct {
	Pool     PoolID
	Position PositionID
	From     common.Address
	To       common.Address
}
