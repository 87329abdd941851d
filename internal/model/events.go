package model

// Event names as they appear in TypedEvent.EventName.
const (
	EventPoolCreated         = "PoolCreated"
	EventLiquidityAdded      = "LiquidityAdded"
	EventLiquidityRemoved    = "LiquidityRemoved"
	EventSwap                = "Swap"
	EventFeesCollected       = "FeesCollected"
	EventDonation            = "Donation"
	EventPositionTransferred = "PositionTransferred"
)

// PoolCreatedData is the decoded PoolCreated payload.
type PoolCreatedData struct {
	FeeTierBps     uint64 `json:"fee_tier_bps"`
	LedgerShareBps uint64 `json:"ledger_share_bps"`
}

// LiquidityAddedData is the decoded LiquidityAdded payload.
type LiquidityAddedData struct {
	Owner      string `json:"owner"`
	PositionID uint64 `json:"position_id"`
	AmountA    string `json:"amount_a"`
	AmountB    string `json:"amount_b"`
	Shares     string `json:"shares"`
	ReserveA   string `json:"reserve_a"`
	ReserveB   string `json:"reserve_b"`
	LPSupply   string `json:"lp_supply"`
}

// LiquidityRemovedData is the decoded LiquidityRemoved payload.
type LiquidityRemovedData struct {
	Owner      string `json:"owner"`
	PositionID uint64 `json:"position_id"`
	AmountA    string `json:"amount_a"`
	AmountB    string `json:"amount_b"`
	Shares     string `json:"shares"`
	FeesA      string `json:"fees_a"`
	FeesB      string `json:"fees_b"`
	Burned     bool   `json:"burned"`
	ReserveA   string `json:"reserve_a"`
	ReserveB   string `json:"reserve_b"`
	LPSupply   string `json:"lp_supply"`
}

// SwapEventData is the decoded Swap payload. Reserves are post-swap.
type SwapEventData struct {
	Sender    string `json:"sender"`
	Direction string `json:"direction"`
	AmountIn  string `json:"amount_in"`
	AmountOut string `json:"amount_out"`
	FeeAmount string `json:"fee_amount"`
	LedgerFee string `json:"ledger_fee"`
	ReserveA  string `json:"reserve_a"`
	ReserveB  string `json:"reserve_b"`
}

// FeesCollectedData is the decoded FeesCollected payload.
type FeesCollectedData struct {
	Owner      string `json:"owner"`
	PositionID uint64 `json:"position_id"`
	AmountA    string `json:"amount_a"`
	AmountB    string `json:"amount_b"`
}

// DonationData is the decoded Donation payload.
type DonationData struct {
	Donor    string `json:"donor"`
	AmountA  string `json:"amount_a"`
	AmountB  string `json:"amount_b"`
	ReserveA string `json:"reserve_a"`
	ReserveB string `json:"reserve_b"`
}

// PositionTransferredData is the decoded PositionTransferred payload.
type PositionTransferredData struct {
	PositionID uint64 `json:"position_id"`
	From       string `json:"from"`
	To         string `json:"to"`
}
