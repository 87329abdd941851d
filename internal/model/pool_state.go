package model

import (
	"strconv"
	"time"

	"poolEngine/internal/amm"
)

// PoolRecord is the stored view of a pool after an operation.
type PoolRecord struct {
	PoolID         uint64    `json:"pool_id"`
	FeeTierBps     uint64    `json:"fee_tier_bps"`
	LedgerShareBps uint64    `json:"ledger_share_bps"`
	State          string    `json:"state"`
	ReserveA       string    `json:"reserve_a"`
	ReserveB       string    `json:"reserve_b"`
	LPSupply       string    `json:"lp_supply"`
	FeeAccruedA    string    `json:"fee_accrued_a"`
	FeeAccruedB    string    `json:"fee_accrued_b"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// PositionRecord is the stored view of a live position.
type PositionRecord struct {
	PositionID     uint64    `json:"position_id"`
	PoolID         uint64    `json:"pool_id"`
	Owner          string    `json:"owner"`
	ShareUnits     string    `json:"share_units"`
	UnclaimedFeesA string    `json:"unclaimed_fees_a"`
	UnclaimedFeesB string    `json:"unclaimed_fees_b"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewPoolRecord flattens an engine pool.
func NewPoolRecord(p amm.Pool, at time.Time) PoolRecord {
	return PoolRecord{
		PoolID:         uint64(p.ID),
		FeeTierBps:     p.FeeTierBps,
		LedgerShareBps: p.LedgerShareBps,
		State:          p.State().String(),
		ReserveA:       strconv.FormatUint(p.ReserveA, 10),
		ReserveB:       strconv.FormatUint(p.ReserveB, 10),
		LPSupply:       strconv.FormatUint(p.LPSupply, 10),
		FeeAccruedA:    strconv.FormatUint(p.FeeAccruedA, 10),
		FeeAccruedB:    strconv.FormatUint(p.FeeAccruedB, 10),
		UpdatedAt:      at,
	}
}

// NewPositionRecord flattens an engine position.
func NewPositionRecord(p amm.Position, at time.Time) PositionRecord {
	return PositionRecord{
		PositionID:     uint64(p.ID),
		PoolID:         uint64(p.Pool),
		Owner:          p.Owner.Hex(),
		ShareUnits:     strconv.FormatUint(p.ShareUnits, 10),
		UnclaimedFeesA: strconv.FormatUint(p.UnclaimedFeesA, 10),
		UnclaimedFeesB: strconv.FormatUint(p.UnclaimedFeesB, 10),
		UpdatedAt:      at,
	}
}
