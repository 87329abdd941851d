package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "poolengine",
		Short:        "Constant-product liquidity pool engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the engine over HTTP",
		RunE:  runServe,
	}
	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().String("pg-dsn", "", "Postgres DSN; when set, events and snapshots go to Postgres")
	serveCmd.Flags().String("snapshot-file", "./data/snapshot.json", "engine snapshot file (without Postgres)")
	serveCmd.Flags().String("events-out", "./data/events.jsonl", "events JSONL path, empty to disable")
	serveCmd.Flags().Duration("default-deadline", 20*time.Minute, "deadline for swaps that carry none")
	serveCmd.Flags().Uint64("default-slippage-bps", 50, "slippage used by quotes that carry none")
	addEngineFlags(serveCmd)
	addClockFlags(serveCmd)
	root.AddCommand(serveCmd)

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Apply an operations JSONL stream to the engine",
		RunE:  runReplay,
	}
	replayCmd.Flags().String("in", "", "input operations JSONL, - for stdin")
	replayCmd.Flags().String("out", "./data/events.jsonl", "output events JSONL")
	replayCmd.Flags().String("errors", "./data/operation_errors.jsonl", "rejected operations JSONL")
	replayCmd.Flags().Int("batch-size", 500, "operations per batch")
	replayCmd.Flags().String("checkpoint", "./data/replay_checkpoint.json", "checkpoint file path")
	replayCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	replayCmd.Flags().String("snapshot-file", "", "optional engine snapshot file")
	replayCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for events and snapshots")
	replayCmd.Flags().Duration("default-deadline", 0, "deadline for swaps that carry none, 0 rejects them")
	addEngineFlags(replayCmd)
	addClockFlags(replayCmd)
	root.AddCommand(replayCmd)

	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode engine events into typed events",
		RunE:  runDecode,
	}
	decodeCmd.Flags().String("in", "", "input events JSONL")
	decodeCmd.Flags().String("out", "./data/typed_events.jsonl", "output typed events JSONL")
	decodeCmd.Flags().String("errors", "./data/decode_errors.jsonl", "decode errors JSONL")
	decodeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(decodeCmd)

	aggregateCmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Aggregate typed events into window metrics",
		RunE:  runAggregate,
	}
	aggregateCmd.Flags().String("in", "", "input typed events JSONL")
	aggregateCmd.Flags().String("window", "5m", "aggregation window (e.g. 1m, 5m, 1h)")
	aggregateCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	aggregateCmd.Flags().String("engine-id", "default", "engine id used in state names")
	aggregateCmd.Flags().Int("batch-size", 1000, "batch size for DB writes")
	aggregateCmd.Flags().String("state-file", "", "optional local state file for progress tracking")
	aggregateCmd.Flags().String("recompute-from", "", "recompute from timestamp (unix milliseconds or RFC3339)")
	aggregateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(aggregateCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote a swap against a stored snapshot",
		RunE:  runQuote,
	}
	quoteCmd.Flags().String("snapshot-file", "./data/snapshot.json", "engine snapshot file")
	quoteCmd.Flags().String("pg-dsn", "", "read the snapshot from Postgres instead")
	quoteCmd.Flags().String("engine-id", "default", "engine id of the stored snapshot")
	quoteCmd.Flags().Uint64("pool", 0, "pool id")
	quoteCmd.Flags().String("direction", "a_to_b", "swap direction (a_to_b, b_to_a)")
	quoteCmd.Flags().String("amount", "", "input amount in display units")
	quoteCmd.Flags().Uint64("slippage-bps", 50, "slippage tolerance")
	quoteCmd.Flags().String("symbol-a", "A", "token A symbol")
	quoteCmd.Flags().String("symbol-b", "B", "token B symbol")
	quoteCmd.Flags().Int("decimals-a", 0, "token A decimals")
	quoteCmd.Flags().Int("decimals-b", 0, "token B decimals")
	quoteCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(quoteCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addEngineFlags(cmd *cobra.Command) {
	cmd.Flags().String("engine-id", "default", "engine id stamped on events")
	cmd.Flags().String("fee-tiers", "1,5,30,100", "allowed fee tiers in bps (comma-separated)")
	cmd.Flags().Uint64("ledger-share-bps", 0, "share of swap fees routed to the position fee ledger")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func addClockFlags(cmd *cobra.Command) {
	cmd.Flags().String("clock", "system", "time source for deadlines (system, chain)")
	cmd.Flags().String("rpc", "", "EVM RPC URL for the chain clock")
	cmd.Flags().Int("max-retries", 5, "maximum retry attempts for the chain clock")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
