package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"poolEngine/internal/config"
	"poolEngine/internal/event"
	"poolEngine/internal/replay"
	"poolEngine/internal/storage"
)

func runReplay(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadReplay(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}
	if cfg.Errors == "" {
		return fmt.Errorf("errors path is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clk, closeClock, err := newClock(ctx, cfg.Clock, logger)
	if err != nil {
		return err
	}
	defer closeClock()

	pg, err := openPostgres(ctx, cfg.PGDSN, cfg.Engine.EngineID)
	if err != nil {
		return err
	}
	if pg != nil {
		defer pg.Close()
	}

	sinks := storage.MultiSink{storage.NewJsonlStorage(cfg.Out)}
	var snapshots storage.SnapshotStore
	switch {
	case pg != nil:
		sinks = append(sinks, pg)
		snapshots = pg
	case cfg.SnapshotFile != "":
		snapshots = storage.NewFileSnapshotStore(cfg.SnapshotFile)
	}

	engine, err := restoreEngine(ctx, cfg.Engine, nil, logger)
	if err != nil {
		return err
	}
	encoder, err := event.NewEncoder(cfg.Engine.EngineID)
	if err != nil {
		return err
	}

	var input io.Reader = os.Stdin
	if cfg.In != "-" {
		file, err := os.Open(cfg.In)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer file.Close()
		input = file
	}

	runner := replay.NewRunner(replay.RunConfig{
		BatchSize:         cfg.BatchSize,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
		DefaultDeadline:   cfg.DefaultDeadline,
	}, replay.Deps{
		Engine:    engine,
		Encoder:   encoder,
		Sink:      sinks,
		Errors:    storage.NewJsonlStorage(cfg.Errors),
		Snapshots: snapshots,
		Clock:     clk,
		Logger:    logger,
	})

	logger.Info("replay start",
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.String("errors", cfg.Errors),
		zap.Int("batch_size", cfg.BatchSize),
		zap.Bool("checkpoint", cfg.CheckpointEnabled),
		zap.String("pg", redactDSN(cfg.PGDSN)),
	)

	stats, err := runner.Run(ctx, input)
	if err != nil {
		return err
	}

	logger.Info("replay complete",
		zap.Int("total", stats.Total),
		zap.Int("applied", stats.Applied),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
		zap.Int("events", stats.Events),
		zap.Uint64("last_seq", stats.LastSeq),
	)
	return nil
}
