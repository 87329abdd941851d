package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Operation kinds accepted in an operations stream.
const (
	OpCreatePool       = "create_pool"
	OpAddLiquidity     = "add_liquidity"
	OpRemoveLiquidity  = "remove_liquidity"
	OpSwap             = "swap"
	OpCollectFee       = "collect_fee"
	OpDonate           = "donate"
	OpTransferPosition = "transfer_position"
)

// Operation is one line of an operations JSONL stream. Amounts are
// decimal strings so that values above 2^53 survive JSON tooling.
type Operation struct {
	Seq          uint64 `json:"seq"`
	Op           string `json:"op"`
	Owner        string `json:"owner,omitempty"`
	Recipient    string `json:"recipient,omitempty"`
	PoolID       uint64 `json:"pool_id,omitempty"`
	PositionID   uint64 `json:"position_id,omitempty"`
	FeeTierBps   uint64 `json:"fee_tier_bps,omitempty"`
	AmountA      Amount `json:"amount_a,omitempty"`
	AmountB      Amount `json:"amount_b,omitempty"`
	MinShares    Amount `json:"min_shares,omitempty"`
	ShareUnits   Amount `json:"share_units,omitempty"`
	Percent      uint64 `json:"percent,omitempty"`
	MinAmountA   Amount `json:"min_amount_a,omitempty"`
	MinAmountB   Amount `json:"min_amount_b,omitempty"`
	Direction    string `json:"direction,omitempty"`
	AmountIn     Amount `json:"amount_in,omitempty"`
	MinAmountOut Amount `json:"min_amount_out,omitempty"`
	DeadlineMs   uint64 `json:"deadline_ms,omitempty"`
	TimestampMs  uint64 `json:"timestamp_ms,omitempty"`
}

// Amount is a raw token amount that accepts either a JSON number or a
// decimal string and always encodes as a string.
type Amount uint64

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatUint(uint64(a), 10))
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*a = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	if s == "" {
		*a = 0
		return nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("amount %q: %w", s, err)
	}
	*a = Amount(v)
	return nil
}

func (a Amount) Uint64() uint64 {
	return uint64(a)
}

// OperationError records an operation the engine rejected.
type OperationError struct {
	Seq        uint64 `json:"seq"`
	Op         string `json:"op"`
	PoolID     uint64 `json:"pool_id,omitempty"`
	PositionID uint64 `json:"position_id,omitempty"`
	Code       string `json:"code"`
	Error      string `json:"error"`
}
