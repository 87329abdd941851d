package config

import (
	"time"

	"github.com/spf13/pflag"
)

// ReplayConfig holds configuration for the replay command.
type ReplayConfig struct {
	In                string
	Out               string
	Errors            string
	BatchSize         int
	Checkpoint        string
	CheckpointEnabled bool
	SnapshotFile      string
	PGDSN             string
	DefaultDeadline   time.Duration
	Engine            EngineConfig
	Clock             ClockConfig
	LogLevel          string
}

// LoadReplay merges config file, environment variables, and flags into ReplayConfig.
func LoadReplay(cfgFile string, flags *pflag.FlagSet) (ReplayConfig, error) {
	defaults := map[string]interface{}{
		"out":                "./data/events.jsonl",
		"errors":             "./data/operation_errors.jsonl",
		"batch-size":         500,
		"checkpoint":         "./data/replay_checkpoint.json",
		"checkpoint-enabled": true,
		"default-deadline":   time.Duration(0),
	}
	v, err := load(cfgFile, flags, clockDefaults(engineDefaults(defaults)))
	if err != nil {
		return ReplayConfig{}, err
	}

	engine, err := loadEngine(v)
	if err != nil {
		return ReplayConfig{}, err
	}
	clk, err := loadClock(v)
	if err != nil {
		return ReplayConfig{}, err
	}

	return ReplayConfig{
		In:                v.GetString("in"),
		Out:               v.GetString("out"),
		Errors:            v.GetString("errors"),
		BatchSize:         v.GetInt("batch-size"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		SnapshotFile:      v.GetString("snapshot-file"),
		PGDSN:             v.GetString("pg-dsn"),
		DefaultDeadline:   v.GetDuration("default-deadline"),
		Engine:            engine,
		Clock:             clk,
		LogLevel:          v.GetString("log-level"),
	}, nil
}
