package postgres

import (
	"strconv"

	"poolEngine/internal/amm"
	"poolEngine/internal/model"
)

// PoolRecords flattens snapshot pools into storage rows.
func PoolRecords(snap amm.Snapshot) []model.PoolRecord {
	out := make([]model.PoolRecord, 0, len(snap.Pools))
	for _, p := range snap.Pools {
		state := amm.Empty
		if p.LPSupply > 0 {
			state = amm.Active
		}
		out = append(out, model.PoolRecord{
			PoolID:         p.ID,
			FeeTierBps:     p.FeeTierBps,
			LedgerShareBps: p.LedgerShareBps,
			State:          state.String(),
			ReserveA:       strconv.FormatUint(p.ReserveA, 10),
			ReserveB:       strconv.FormatUint(p.ReserveB, 10),
			LPSupply:       strconv.FormatUint(p.LPSupply, 10),
			FeeAccruedA:    strconv.FormatUint(p.FeeAccruedA, 10),
			FeeAccruedB:    strconv.FormatUint(p.FeeAccruedB, 10),
		})
	}
	return out
}
