package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"poolEngine/internal/aggregate"
	"poolEngine/internal/config"
	"poolEngine/internal/storage/postgres"
)

func runAggregate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadAggregate(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Input == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.PGDSN == "" {
		return fmt.Errorf("pg dsn is required")
	}

	window, err := time.ParseDuration(cfg.Window)
	if err != nil {
		return fmt.Errorf("invalid window: %w", err)
	}
	if window < time.Second {
		return fmt.Errorf("window must be at least 1s")
	}
	windowSeconds := uint64(window / time.Second)

	recomputeFrom, err := config.ParseTimestamp(cfg.RecomputeFrom)
	if err != nil {
		return fmt.Errorf("invalid recompute-from: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := postgres.NewStore(ctx, cfg.PGDSN, cfg.EngineID)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return err
	}

	var backend aggregate.NamedStateBackend = store
	if cfg.StateFile != "" {
		backend = &aggregate.FileStateBackend{Path: cfg.StateFile}
	}
	stateStore := &aggregate.NamedStateStore{
		Backend: backend,
		Name:    fmt.Sprintf("aggregator:%d", windowSeconds),
	}

	input, err := os.Open(cfg.Input)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer input.Close()

	logger.Info("aggregate start",
		zap.String("in", cfg.Input),
		zap.String("window", cfg.Window),
		zap.Uint64("window_seconds", windowSeconds),
		zap.String("pg", redactDSN(cfg.PGDSN)),
		zap.Uint64("recompute_from_ms", recomputeFrom),
	)

	aggregator := aggregate.NewAggregator(aggregate.Config{
		WindowSeconds: windowSeconds,
		BatchSize:     cfg.BatchSize,
		RecomputeFrom: recomputeFrom,
		StateStore:    stateStore,
	}, store, logger)

	return aggregator.Run(ctx, input)
}
