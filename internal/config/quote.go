package config

import (
	"fmt"

	"github.com/spf13/pflag"

	"poolEngine/internal/model"
)

// QuoteConfig holds configuration for the offline quote command.
type QuoteConfig struct {
	SnapshotFile string
	PGDSN        string
	EngineID     string
	PoolID       uint64
	Direction    string
	AmountIn     string
	SlippageBps  uint64
	TokenA       model.TokenMeta
	TokenB       model.TokenMeta
	LogLevel     string
}

// LoadQuote merges config file, environment variables, and flags into QuoteConfig.
func LoadQuote(cfgFile string, flags *pflag.FlagSet) (QuoteConfig, error) {
	v, err := load(cfgFile, flags, map[string]interface{}{
		"snapshot-file": "./data/snapshot.json",
		"direction":     "a_to_b",
		"slippage-bps":  uint64(50),
		"symbol-a":      "A",
		"symbol-b":      "B",
		"decimals-a":    0,
		"decimals-b":    0,
	})
	if err != nil {
		return QuoteConfig{}, err
	}

	decA, decB := v.GetInt("decimals-a"), v.GetInt("decimals-b")
	if decA < 0 || decA > 36 || decB < 0 || decB > 36 {
		return QuoteConfig{}, fmt.Errorf("token decimals must be between 0 and 36")
	}

	return QuoteConfig{
		SnapshotFile: v.GetString("snapshot-file"),
		PGDSN:        v.GetString("pg-dsn"),
		EngineID:     v.GetString("engine-id"),
		PoolID:       v.GetUint64("pool"),
		Direction:    v.GetString("direction"),
		AmountIn:     v.GetString("amount"),
		SlippageBps:  v.GetUint64("slippage-bps"),
		TokenA:       model.TokenMeta{Symbol: v.GetString("symbol-a"), Decimals: uint8(decA)},
		TokenB:       model.TokenMeta{Symbol: v.GetString("symbol-b"), Decimals: uint8(decB)},
		LogLevel:     v.GetString("log-level"),
	}, nil
}
