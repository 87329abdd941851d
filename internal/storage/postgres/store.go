package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"poolEngine/internal/amm"
	"poolEngine/internal/model"
)

// Store provides Postgres persistence for engine state, events and metrics.
type Store struct {
	pool     *pgxpool.Pool
	engineID string
}

func NewStore(ctx context.Context, dsn, engineID string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	if engineID == "" {
		engineID = "default"
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool, engineID: engineID}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate creates the tables the store writes to.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// PutLogBatch inserts encoded engine events, ignoring ones already stored.
func (s *Store) PutLogBatch(ctx context.Context, logs []model.LogRecord) error {
	if len(logs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, l := range logs {
		batch.Queue(`
			INSERT INTO engine_events (
				engine_id, seq, log_index, op_hash, pool_id, topics, data, timestamp_ms, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
			ON CONFLICT (engine_id, seq, log_index) DO NOTHING
		`,
			s.engineID,
			int64(l.Seq),
			int64(l.LogIndex),
			l.OpHash,
			int64(l.PoolID),
			l.Topics,
			l.Data,
			int64(l.Timestamp),
		)
	}
	return s.sendBatch(ctx, batch, len(logs))
}

// UpsertPools inserts or updates pool state rows.
func (s *Store) UpsertPools(ctx context.Context, pools []model.PoolRecord) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, p := range pools {
		batch.Queue(`
			INSERT INTO pools (
				engine_id, pool_id, fee_tier_bps, ledger_share_bps, state, reserve_a, reserve_b,
				lp_supply, fee_accrued_a, fee_accrued_b, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6::numeric,$7::numeric,$8::numeric,$9::numeric,$10::numeric,now(),now())
			ON CONFLICT (engine_id, pool_id)
			DO UPDATE SET
				state = EXCLUDED.state,
				reserve_a = EXCLUDED.reserve_a,
				reserve_b = EXCLUDED.reserve_b,
				lp_supply = EXCLUDED.lp_supply,
				fee_accrued_a = EXCLUDED.fee_accrued_a,
				fee_accrued_b = EXCLUDED.fee_accrued_b,
				updated_at = now()
		`,
			s.engineID,
			int64(p.PoolID),
			int64(p.FeeTierBps),
			int64(p.LedgerShareBps),
			p.State,
			p.ReserveA,
			p.ReserveB,
			p.LPSupply,
			p.FeeAccruedA,
			p.FeeAccruedB,
		)
	}
	return s.sendBatch(ctx, batch, len(pools))
}

// UpsertWindowMetrics inserts or updates window metrics.
func (s *Store) UpsertWindowMetrics(ctx context.Context, metrics []model.PoolWindowMetrics) error {
	if len(metrics) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range metrics {
		batch.Queue(`
			INSERT INTO pool_window_metrics (
				engine_id, pool_id, fee_tier_bps, window_size_seconds, window_start_ts, window_end_ts,
				swap_count, volume_a, volume_b, fee_a, fee_b, ledger_fee_a, ledger_fee_b,
				fee_rate_a, fee_rate_b, tvl_a, tvl_b, apr, fee_method, tvl_method, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,now(),now())
			ON CONFLICT (engine_id, pool_id, window_size_seconds, window_start_ts)
			DO UPDATE SET
				window_end_ts = EXCLUDED.window_end_ts,
				swap_count = EXCLUDED.swap_count,
				volume_a = EXCLUDED.volume_a,
				volume_b = EXCLUDED.volume_b,
				fee_a = EXCLUDED.fee_a,
				fee_b = EXCLUDED.fee_b,
				ledger_fee_a = EXCLUDED.ledger_fee_a,
				ledger_fee_b = EXCLUDED.ledger_fee_b,
				fee_rate_a = EXCLUDED.fee_rate_a,
				fee_rate_b = EXCLUDED.fee_rate_b,
				tvl_a = EXCLUDED.tvl_a,
				tvl_b = EXCLUDED.tvl_b,
				apr = EXCLUDED.apr,
				fee_method = EXCLUDED.fee_method,
				tvl_method = EXCLUDED.tvl_method,
				updated_at = now()
		`,
			m.EngineID,
			int64(m.PoolID),
			int64(m.FeeTierBps),
			m.WindowSizeSecs,
			m.WindowStart,
			m.WindowEnd,
			int64(m.SwapCount),
			m.VolumeA,
			m.VolumeB,
			m.FeeA,
			m.FeeB,
			m.LedgerFeeA,
			m.LedgerFeeB,
			m.FeeRateA,
			m.FeeRateB,
			m.TVLA,
			m.TVLB,
			m.APR,
			m.FeeMethod,
			m.TVLMethod,
		)
	}
	return s.sendBatch(ctx, batch, len(metrics))
}

// LoadState returns last_processed_ms for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var ts int64
	row := s.pool.QueryRow(ctx, `SELECT last_processed_ms FROM engine_state WHERE name=$1`, name)
	if err := row.Scan(&ts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(ts), true, nil
}

// SaveState upserts last_processed_ms for a name.
func (s *Store) SaveState(ctx context.Context, name string, ts uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO engine_state (name, last_processed_ms, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_ms = EXCLUDED.last_processed_ms, updated_at = now()
	`, name, int64(ts))
	return err
}

// LoadSnapshot returns the latest stored engine snapshot.
func (s *Store) LoadSnapshot(ctx context.Context) (amm.Snapshot, bool, error) {
	var raw []byte
	row := s.pool.QueryRow(ctx, `SELECT snapshot FROM engine_snapshots WHERE engine_id=$1`, s.engineID)
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return amm.Snapshot{}, false, nil
		}
		return amm.Snapshot{}, false, err
	}
	var snap amm.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return amm.Snapshot{}, false, fmt.Errorf("parse snapshot: %w", err)
	}
	return snap, true, nil
}

// SaveSnapshot stores the snapshot and refreshes the pools and positions
// tables in one transaction.
func (s *Store) SaveSnapshot(ctx context.Context, snap amm.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO engine_snapshots (engine_id, snapshot, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (engine_id) DO UPDATE
		SET snapshot = EXCLUDED.snapshot, updated_at = now()
	`, s.engineID, raw); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM positions WHERE engine_id=$1`, s.engineID); err != nil {
		return fmt.Errorf("clear positions: %w", err)
	}
	for _, p := range snap.Positions {
		if _, err := tx.Exec(ctx, `
			INSERT INTO positions (
				engine_id, position_id, pool_id, owner, share_units, unclaimed_fees_a, unclaimed_fees_b,
				created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,now(),now())
		`, s.engineID, int64(p.ID), int64(p.PoolID), p.Owner,
			fmt.Sprint(p.ShareUnits), fmt.Sprint(p.UnclaimedFeesA), fmt.Sprint(p.UnclaimedFeesB)); err != nil {
			return fmt.Errorf("insert position %d: %w", p.ID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	return s.UpsertPools(ctx, PoolRecords(snap))
}

func (s *Store) sendBatch(ctx context.Context, batch *pgx.Batch, n int) error {
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
