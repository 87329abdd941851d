package quote

import (
	"github.com/shopspring/decimal"

	"poolEngine/internal/amm"
)

// AddPreview is the outcome of a deposit if the reserves do not move first.
type AddPreview struct {
	Bootstrap    bool            `json:"bootstrap"`
	Shares       uint64          `json:"shares,string"`
	PoolSharePct decimal.Decimal `json:"pool_share_pct"`
}

// PreviewAdd mirrors the engine's mint rule for a deposit.
func PreviewAdd(pool amm.Pool, amountA, amountB uint64) (AddPreview, error) {
	if amountA == 0 || amountB == 0 {
		return AddPreview{}, amm.ErrEmptyDeposit
	}
	if pool.LPSupply == 0 {
		shares := amm.BootstrapShares(amountA, amountB)
		return AddPreview{Bootstrap: true, Shares: shares, PoolSharePct: hundred}, nil
	}
	shares, err := amm.ProportionalShares(amountA, amountB, pool.ReserveA, pool.ReserveB, pool.LPSupply)
	if err != nil {
		return AddPreview{}, err
	}
	if shares == 0 {
		return AddPreview{}, amm.ErrZeroShares
	}
	return AddPreview{
		Shares:       shares,
		PoolSharePct: PoolSharePct(shares, pool.LPSupply+shares),
	}, nil
}

// PairedAmount returns the other side of a balanced deposit of amount in
// the direction's input token, rounded up so the deposit is not limited by
// it. An empty pool has no price and returns zero.
func PairedAmount(pool amm.Pool, dir amm.Direction, amount uint64) (uint64, error) {
	reserveIn, reserveOut := pool.ReserveA, pool.ReserveB
	if dir == amm.BtoA {
		reserveIn, reserveOut = pool.ReserveB, pool.ReserveA
	}
	if reserveIn == 0 || reserveOut == 0 {
		return 0, nil
	}
	floor, err := amm.MulDiv(amount, reserveOut, reserveIn)
	if err != nil {
		return 0, err
	}
	back, err := amm.MulDiv(floor, reserveIn, reserveOut)
	if err != nil {
		return 0, err
	}
	if back < amount {
		floor++
	}
	return floor, nil
}

// RemovePreview is what burning shares would return now.
type RemovePreview struct {
	Shares       uint64          `json:"shares,string"`
	AmountA      uint64          `json:"amount_a,string"`
	AmountB      uint64          `json:"amount_b,string"`
	PoolSharePct decimal.Decimal `json:"pool_share_pct"`
}

// PreviewRemove mirrors the engine's redemption rule. An empty pool
// redeems nothing.
func PreviewRemove(pool amm.Pool, shares uint64) (RemovePreview, error) {
	if pool.LPSupply == 0 {
		return RemovePreview{Shares: shares, PoolSharePct: decimal.Zero}, nil
	}
	a, b, err := amm.RedeemAmounts(shares, pool.ReserveA, pool.ReserveB, pool.LPSupply)
	if err != nil {
		return RemovePreview{}, err
	}
	return RemovePreview{
		Shares:       shares,
		AmountA:      a,
		AmountB:      b,
		PoolSharePct: PoolSharePct(shares, pool.LPSupply),
	}, nil
}
