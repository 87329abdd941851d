package aggregate

import (
	"encoding/json"
	"fmt"
	"math/big"

	"poolEngine/internal/model"
)

// Accumulator holds aggregate values for a pool window. Window bounds are
// unix seconds; LastTS is the latest event time in milliseconds.
type Accumulator struct {
	EngineID    string
	PoolID      uint64
	FeeTierBps  uint64
	WindowStart uint64
	WindowEnd   uint64
	SwapCount   uint64
	VolumeA     *big.Int
	VolumeB     *big.Int
	FeeA        *big.Int
	FeeB        *big.Int
	LedgerFeeA  *big.Int
	LedgerFeeB  *big.Int
	ReserveA    *big.Int
	ReserveB    *big.Int
	LastTS      uint64
}

func NewAccumulator(record model.TypedEventRecord, windowStart, windowEnd uint64) *Accumulator {
	return &Accumulator{
		EngineID:    record.EngineID,
		PoolID:      record.PoolID,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		VolumeA:     big.NewInt(0),
		VolumeB:     big.NewInt(0),
		FeeA:        big.NewInt(0),
		FeeB:        big.NewInt(0),
		LedgerFeeA:  big.NewInt(0),
		LedgerFeeB:  big.NewInt(0),
		LastTS:      record.Timestamp,
	}
}

// AddEvent folds one engine event into the window. Events that carry
// reserves move the window's TVL to their post-operation values.
func (a *Accumulator) AddEvent(record model.TypedEventRecord) error {
	if record.Timestamp >= a.LastTS {
		a.LastTS = record.Timestamp
	}

	switch record.EventName {
	case model.EventPoolCreated:
		var created model.PoolCreatedData
		if err := json.Unmarshal(record.Decoded, &created); err != nil {
			return fmt.Errorf("decode pool created: %w", err)
		}
		a.FeeTierBps = created.FeeTierBps
		return nil
	case model.EventSwap:
		var swap model.SwapEventData
		if err := json.Unmarshal(record.Decoded, &swap); err != nil {
			return fmt.Errorf("decode swap: %w", err)
		}
		return a.applySwap(swap)
	case model.EventLiquidityAdded:
		var added model.LiquidityAddedData
		if err := json.Unmarshal(record.Decoded, &added); err != nil {
			return fmt.Errorf("decode liquidity added: %w", err)
		}
		return a.setReserves(added.ReserveA, added.ReserveB)
	case model.EventLiquidityRemoved:
		var removed model.LiquidityRemovedData
		if err := json.Unmarshal(record.Decoded, &removed); err != nil {
			return fmt.Errorf("decode liquidity removed: %w", err)
		}
		return a.setReserves(removed.ReserveA, removed.ReserveB)
	case model.EventDonation:
		var donation model.DonationData
		if err := json.Unmarshal(record.Decoded, &donation); err != nil {
			return fmt.Errorf("decode donation: %w", err)
		}
		return a.setReserves(donation.ReserveA, donation.ReserveB)
	default:
		return nil
	}
}

func (a *Accumulator) applySwap(swap model.SwapEventData) error {
	amountIn, err := parseBigInt(swap.AmountIn)
	if err != nil {
		return err
	}
	amountOut, err := parseBigInt(swap.AmountOut)
	if err != nil {
		return err
	}
	fee, err := parseBigInt(swap.FeeAmount)
	if err != nil {
		return err
	}
	ledgerFee, err := parseBigInt(swap.LedgerFee)
	if err != nil {
		return err
	}

	switch swap.Direction {
	case "a_to_b":
		a.VolumeA.Add(a.VolumeA, amountIn)
		a.VolumeB.Add(a.VolumeB, amountOut)
		a.FeeA.Add(a.FeeA, fee)
		a.LedgerFeeA.Add(a.LedgerFeeA, ledgerFee)
	case "b_to_a":
		a.VolumeB.Add(a.VolumeB, amountIn)
		a.VolumeA.Add(a.VolumeA, amountOut)
		a.FeeB.Add(a.FeeB, fee)
		a.LedgerFeeB.Add(a.LedgerFeeB, ledgerFee)
	default:
		return fmt.Errorf("unknown swap direction %q", swap.Direction)
	}

	if err := a.setReserves(swap.ReserveA, swap.ReserveB); err != nil {
		return err
	}
	a.SwapCount++
	return nil
}

func (a *Accumulator) setReserves(reserveA, reserveB string) error {
	ra, err := parseBigInt(reserveA)
	if err != nil {
		return err
	}
	rb, err := parseBigInt(reserveB)
	if err != nil {
		return err
	}
	a.ReserveA, a.ReserveB = ra, rb
	return nil
}

func parseBigInt(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid int: %s", value)
	}
	return parsed, nil
}
