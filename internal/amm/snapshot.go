package amm

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Snapshot is the persisted form of the engine state.
type Snapshot struct {
	NextPoolID     uint64             `json:"next_pool_id"`
	NextPositionID uint64             `json:"next_position_id"`
	Pools          []PoolSnapshot     `json:"pools"`
	Positions      []PositionSnapshot `json:"positions"`
}

type PoolSnapshot struct {
	ID             uint64 `json:"id"`
	FeeTierBps     uint64 `json:"fee_tier_bps"`
	LedgerShareBps uint64 `json:"ledger_share_bps"`
	ReserveA       uint64 `json:"reserve_a"`
	ReserveB       uint64 `json:"reserve_b"`
	LPSupply       uint64 `json:"lp_supply"`
	FeeAccruedA    uint64 `json:"fee_accrued_a"`
	FeeAccruedB    uint64 `json:"fee_accrued_b"`
	FeeGrowthA     string `json:"fee_growth_a"`
	FeeGrowthB     string `json:"fee_growth_b"`
}

type PositionSnapshot struct {
	ID             uint64 `json:"id"`
	PoolID         uint64 `json:"pool_id"`
	Owner          string `json:"owner"`
	ShareUnits     uint64 `json:"share_units"`
	UnclaimedFeesA uint64 `json:"unclaimed_fees_a"`
	UnclaimedFeesB uint64 `json:"unclaimed_fees_b"`
	GrowthInsideA  string `json:"growth_inside_a"`
	GrowthInsideB  string `json:"growth_inside_b"`
}

// Snapshot exports the full state ordered by id.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		NextPoolID:     uint64(e.nextPool),
		NextPositionID: uint64(e.nextPosition),
	}
	for _, p := range e.Pools() {
		s.Pools = append(s.Pools, PoolSnapshot{
			ID:             uint64(p.ID),
			FeeTierBps:     p.FeeTierBps,
			LedgerShareBps: p.LedgerShareBps,
			ReserveA:       p.ReserveA,
			ReserveB:       p.ReserveB,
			LPSupply:       p.LPSupply,
			FeeAccruedA:    p.FeeAccruedA,
			FeeAccruedB:    p.FeeAccruedB,
			FeeGrowthA:     p.FeeGrowthA.ToBig().String(),
			FeeGrowthB:     p.FeeGrowthB.ToBig().String(),
		})
	}
	ids := make([]PositionID, 0, len(e.positions))
	for id := range e.positions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		pos := e.positions[id]
		s.Positions = append(s.Positions, PositionSnapshot{
			ID:             uint64(pos.ID),
			PoolID:         uint64(pos.Pool),
			Owner:          pos.Owner.Hex(),
			ShareUnits:     pos.ShareUnits,
			UnclaimedFeesA: pos.UnclaimedFeesA,
			UnclaimedFeesB: pos.UnclaimedFeesB,
			GrowthInsideA:  pos.GrowthInsideA.ToBig().String(),
			GrowthInsideB:  pos.GrowthInsideB.ToBig().String(),
		})
	}
	return s
}

// Restore replaces the engine state with s. On error the engine is left
// as it was.
func (e *Engine) Restore(s Snapshot) error {
	next := &Engine{cfg: e.cfg}
	next.reset()
	for _, ps := range s.Pools {
		id := PoolID(ps.ID)
		if id == 0 || id >= PoolID(s.NextPoolID) {
			return fmt.Errorf("pool id %d: %w", ps.ID, ErrInvalidSnapshot)
		}
		if _, dup := next.pools[id]; dup {
			return fmt.Errorf("duplicate pool %d: %w", ps.ID, ErrInvalidSnapshot)
		}
		if ps.FeeTierBps >= BpsDenominator || ps.LedgerShareBps > BpsDenominator {
			return fmt.Errorf("pool %d fees: %w", ps.ID, ErrInvalidSnapshot)
		}
		if (ps.LPSupply == 0) != (ps.ReserveA == 0 && ps.ReserveB == 0) {
			return fmt.Errorf("pool %d reserves/supply mismatch: %w", ps.ID, ErrInvalidSnapshot)
		}
		if ps.LPSupply > 0 && (ps.ReserveA == 0 || ps.ReserveB == 0) {
			return fmt.Errorf("pool %d has supply with an empty reserve: %w", ps.ID, ErrInvalidSnapshot)
		}
		p := &Pool{
			ID:             id,
			FeeTierBps:     ps.FeeTierBps,
			LedgerShareBps: ps.LedgerShareBps,
			ReserveA:       ps.ReserveA,
			ReserveB:       ps.ReserveB,
			LPSupply:       ps.LPSupply,
			FeeAccruedA:    ps.FeeAccruedA,
			FeeAccruedB:    ps.FeeAccruedB,
		}
		if err := parseGrowth(ps.FeeGrowthA, &p.FeeGrowthA); err != nil {
			return fmt.Errorf("pool %d growth a: %w", ps.ID, err)
		}
		if err := parseGrowth(ps.FeeGrowthB, &p.FeeGrowthB); err != nil {
			return fmt.Errorf("pool %d growth b: %w", ps.ID, err)
		}
		next.pools[id] = p
	}

	shares := make(map[PoolID]uint64)
	for _, ps := range s.Positions {
		id := PositionID(ps.ID)
		if id == 0 || id >= PositionID(s.NextPositionID) {
			return fmt.Errorf("position id %d: %w", ps.ID, ErrInvalidSnapshot)
		}
		if _, dup := next.positions[id]; dup {
			return fmt.Errorf("duplicate position %d: %w", ps.ID, ErrInvalidSnapshot)
		}
		if _, ok := next.pools[PoolID(ps.PoolID)]; !ok {
			return fmt.Errorf("position %d pool %d: %w", ps.ID, ps.PoolID, ErrInvalidSnapshot)
		}
		if ps.ShareUnits == 0 {
			return fmt.Errorf("position %d has no shares: %w", ps.ID, ErrInvalidSnapshot)
		}
		if !common.IsHexAddress(ps.Owner) {
			return fmt.Errorf("position %d owner %q: %w", ps.ID, ps.Owner, ErrInvalidSnapshot)
		}
		pos := &Position{
			ID:             id,
			Pool:           PoolID(ps.PoolID),
			Owner:          common.HexToAddress(ps.Owner),
			ShareUnits:     ps.ShareUnits,
			UnclaimedFeesA: ps.UnclaimedFeesA,
			UnclaimedFeesB: ps.UnclaimedFeesB,
		}
		if err := parseGrowth(ps.GrowthInsideA, &pos.GrowthInsideA); err != nil {
			return fmt.Errorf("position %d growth a: %w", ps.ID, err)
		}
		if err := parseGrowth(ps.GrowthInsideB, &pos.GrowthInsideB); err != nil {
			return fmt.Errorf("position %d growth b: %w", ps.ID, err)
		}
		if next.existing(pos.Pool, pos.Owner) != nil {
			return fmt.Errorf("owner %s holds two positions in pool %d: %w", ps.Owner, ps.PoolID, ErrInvalidSnapshot)
		}
		total, err := addChecked(shares[pos.Pool], pos.ShareUnits)
		if err != nil {
			return fmt.Errorf("pool %d shares: %w", ps.PoolID, ErrInvalidSnapshot)
		}
		shares[pos.Pool] = total
		next.positions[id] = pos
		next.index(pos)
	}
	for id, p := range next.pools {
		if shares[id] != p.LPSupply {
			return fmt.Errorf("pool %d shares %d != supply %d: %w", id, shares[id], p.LPSupply, ErrInvalidSnapshot)
		}
	}

	if s.NextPoolID > 0 {
		next.nextPool = PoolID(s.NextPoolID)
	}
	if s.NextPositionID > 0 {
		next.nextPosition = PositionID(s.NextPositionID)
	}
	e.pools = next.pools
	e.positions = next.positions
	e.byOwner = next.byOwner
	e.nextPool = next.nextPool
	e.nextPosition = next.nextPosition
	return nil
}

func parseGrowth(s string, dst *uint256.Int) error {
	if s == "" {
		dst.Clear()
		return nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return fmt.Errorf("growth %q: %w", s, ErrInvalidSnapshot)
	}
	u, overflow := uint256.FromBig(v)
	if overflow {
		return fmt.Errorf("growth %q: %w", s, ErrInvalidSnapshot)
	}
	dst.Set(u)
	return nil
}
