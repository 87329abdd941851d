package amm

import "fmt"

// DefaultFeeTiers is the allowed fee-tier set when none is configured.
var DefaultFeeTiers = []uint64{1, 5, 30, 100}

// Config controls engine-wide policy.
type Config struct {
	AllowedFeeTiers []uint64
	// FeeLedgerShareBps is the part of every swap fee routed to the
	// per-position fee ledger. Zero keeps all fees compounding in reserves.
	FeeLedgerShareBps uint64
}

func DefaultConfig() Config {
	return Config{AllowedFeeTiers: append([]uint64(nil), DefaultFeeTiers...)}
}

func (c Config) Validate() error {
	if c.FeeLedgerShareBps > BpsDenominator {
		return fmt.Errorf("fee ledger share %d bps exceeds %d", c.FeeLedgerShareBps, BpsDenominator)
	}
	for _, tier := range c.AllowedFeeTiers {
		if tier >= BpsDenominator {
			return fmt.Errorf("fee tier %d bps: %w", tier, ErrInvalidFeeTier)
		}
	}
	return nil
}

func (c Config) allowsTier(tier uint64) bool {
	tiers := c.AllowedFeeTiers
	if len(tiers) == 0 {
		tiers = DefaultFeeTiers
	}
	for _, t := range tiers {
		if t == tier {
			return true
		}
	}
	return false
}
