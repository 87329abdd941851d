package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// ServeConfig holds configuration for the serve command.
type ServeConfig struct {
	Addr               string
	Engine             EngineConfig
	Clock              ClockConfig
	PGDSN              string
	SnapshotFile       string
	EventsOut          string
	DefaultDeadline    time.Duration
	DefaultSlippageBps uint64
	LogLevel           string
}

// LoadServe merges config file, environment variables, and flags into ServeConfig.
func LoadServe(cfgFile string, flags *pflag.FlagSet) (ServeConfig, error) {
	defaults := map[string]interface{}{
		"addr":                 ":8080",
		"snapshot-file":        "./data/snapshot.json",
		"events-out":           "./data/events.jsonl",
		"default-deadline":     20 * time.Minute,
		"default-slippage-bps": uint64(50),
	}
	v, err := load(cfgFile, flags, clockDefaults(engineDefaults(defaults)))
	if err != nil {
		return ServeConfig{}, err
	}

	engine, err := loadEngine(v)
	if err != nil {
		return ServeConfig{}, err
	}
	clk, err := loadClock(v)
	if err != nil {
		return ServeConfig{}, err
	}

	cfg := ServeConfig{
		Addr:               v.GetString("addr"),
		Engine:             engine,
		Clock:              clk,
		PGDSN:              v.GetString("pg-dsn"),
		SnapshotFile:       v.GetString("snapshot-file"),
		EventsOut:          v.GetString("events-out"),
		DefaultDeadline:    v.GetDuration("default-deadline"),
		DefaultSlippageBps: v.GetUint64("default-slippage-bps"),
		LogLevel:           v.GetString("log-level"),
	}
	if cfg.DefaultSlippageBps > 10_000 {
		return ServeConfig{}, fmt.Errorf("default-slippage-bps %d exceeds 10000", cfg.DefaultSlippageBps)
	}
	return cfg, nil
}
