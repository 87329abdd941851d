package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"poolEngine/internal/amm"
	"poolEngine/internal/chain"
	"poolEngine/internal/clock"
	"poolEngine/internal/config"
	"poolEngine/internal/storage"
	"poolEngine/internal/storage/postgres"
)

// newClock returns the configured time source and a closer for any
// connection it holds.
func newClock(ctx context.Context, cfg config.ClockConfig, logger *zap.Logger) (clock.Clock, func(), error) {
	if cfg.Source != "chain" {
		return clock.System{}, func() {}, nil
	}
	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect rpc: %w", err)
	}
	chainID, err := client.GetChainID(ctx)
	if err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("get chain id: %w", err)
	}
	logger.Info("chain clock", zap.String("chain_id", chainID.String()))
	return clock.NewChain(client, clock.ChainConfig{
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryBackoff,
		Logger:     logger,
	}), client.Close, nil
}

// openPostgres connects and migrates when a DSN is configured.
func openPostgres(ctx context.Context, dsn, engineID string) (*postgres.Store, error) {
	if dsn == "" {
		return nil, nil
	}
	store, err := postgres.NewStore(ctx, dsn, engineID)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// restoreEngine builds an engine and loads the stored snapshot, if any.
func restoreEngine(ctx context.Context, cfg config.EngineConfig, snapshots storage.SnapshotStore, logger *zap.Logger) (*amm.Engine, error) {
	engine, err := amm.New(cfg.AMM())
	if err != nil {
		return nil, err
	}
	if snapshots == nil {
		return engine, nil
	}
	snap, ok, err := snapshots.LoadSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if ok {
		if err := engine.Restore(snap); err != nil {
			return nil, fmt.Errorf("restore snapshot: %w", err)
		}
		logger.Info("restored snapshot", zap.Int("pools", len(snap.Pools)), zap.Int("positions", len(snap.Positions)))
	}
	return engine, nil
}
