package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"poolEngine/internal/config"
	"poolEngine/internal/event"
	"poolEngine/internal/server"
	"poolEngine/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadServe(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

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

	var sinks storage.MultiSink
	if cfg.EventsOut != "" {
		sinks = append(sinks, storage.NewJsonlStorage(cfg.EventsOut))
	}
	var snapshots storage.SnapshotStore
	var startSeq uint64
	seqState := "serve:" + cfg.Engine.EngineID
	if pg != nil {
		sinks = append(sinks, pg)
		snapshots = pg
		if startSeq, _, err = pg.LoadState(ctx, seqState); err != nil {
			return fmt.Errorf("load sequence: %w", err)
		}
	} else if cfg.SnapshotFile != "" {
		snapshots = storage.NewFileSnapshotStore(cfg.SnapshotFile)
	}

	engine, err := restoreEngine(ctx, cfg.Engine, snapshots, logger)
	if err != nil {
		return err
	}
	encoder, err := event.NewEncoder(cfg.Engine.EngineID)
	if err != nil {
		return err
	}
	decoder, err := event.NewDecoder()
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		Addr:               cfg.Addr,
		DefaultDeadline:    cfg.DefaultDeadline,
		DefaultSlippageBps: cfg.DefaultSlippageBps,
		StartSeq:           startSeq,
	}, server.Deps{
		Engine:    engine,
		Encoder:   encoder,
		Decoder:   decoder,
		Sink:      sinks,
		Snapshots: snapshots,
		Clock:     clk,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	logger.Info("serve start",
		zap.String("addr", cfg.Addr),
		zap.String("engine_id", cfg.Engine.EngineID),
		zap.Uint64s("fee_tiers", cfg.Engine.FeeTiers),
		zap.Uint64("ledger_share_bps", cfg.Engine.LedgerShareBps),
		zap.String("clock", cfg.Clock.Source),
		zap.String("pg", redactDSN(cfg.PGDSN)),
		zap.Uint64("start_seq", startSeq),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
	if pg != nil {
		if err := pg.SaveState(shutdownCtx, seqState, srv.Seq()); err != nil {
			logger.Warn("save sequence", zap.Error(err))
		}
	}

	logger.Info("serve stopped", zap.Uint64("seq", srv.Seq()))
	return nil
}
