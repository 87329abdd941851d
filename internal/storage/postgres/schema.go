package postgres

var schema = []string{
	`CREATE TABLE IF NOT EXISTS engine_events (
		engine_id TEXT NOT NULL,
		seq BIGINT NOT NULL,
		log_index BIGINT NOT NULL,
		op_hash TEXT NOT NULL,
		pool_id BIGINT NOT NULL,
		topics TEXT[] NOT NULL,
		data TEXT NOT NULL,
		timestamp_ms BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (engine_id, seq, log_index)
	)`,
	`CREATE TABLE IF NOT EXISTS pools (
		engine_id TEXT NOT NULL,
		pool_id BIGINT NOT NULL,
		fee_tier_bps INTEGER NOT NULL,
		ledger_share_bps INTEGER NOT NULL,
		state TEXT NOT NULL,
		reserve_a NUMERIC(20,0) NOT NULL,
		reserve_b NUMERIC(20,0) NOT NULL,
		lp_supply NUMERIC(20,0) NOT NULL,
		fee_accrued_a NUMERIC(20,0) NOT NULL,
		fee_accrued_b NUMERIC(20,0) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (engine_id, pool_id)
	)`,
	`CREATE TABLE IF NOT EXISTS positions (
		engine_id TEXT NOT NULL,
		position_id BIGINT NOT NULL,
		pool_id BIGINT NOT NULL,
		owner TEXT NOT NULL,
		share_units NUMERIC(20,0) NOT NULL,
		unclaimed_fees_a NUMERIC(20,0) NOT NULL,
		unclaimed_fees_b NUMERIC(20,0) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (engine_id, position_id)
	)`,
	`CREATE INDEX IF NOT EXISTS positions_owner_idx ON positions (engine_id, owner)`,
	`CREATE TABLE IF NOT EXISTS pool_window_metrics (
		engine_id TEXT NOT NULL,
		pool_id BIGINT NOT NULL,
		fee_tier_bps INTEGER NOT NULL,
		window_size_seconds BIGINT NOT NULL,
		window_start_ts TIMESTAMPTZ NOT NULL,
		window_end_ts TIMESTAMPTZ NOT NULL,
		swap_count BIGINT NOT NULL,
		volume_a NUMERIC NOT NULL,
		volume_b NUMERIC NOT NULL,
		fee_a NUMERIC NOT NULL,
		fee_b NUMERIC NOT NULL,
		ledger_fee_a NUMERIC NOT NULL,
		ledger_fee_b NUMERIC NOT NULL,
		fee_rate_a NUMERIC,
		fee_rate_b NUMERIC,
		tvl_a NUMERIC,
		tvl_b NUMERIC,
		apr NUMERIC,
		fee_method TEXT NOT NULL,
		tvl_method TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (engine_id, pool_id, window_size_seconds, window_start_ts)
	)`,
	`CREATE TABLE IF NOT EXISTS engine_state (
		name TEXT PRIMARY KEY,
		last_processed_ms BIGINT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS engine_snapshots (
		engine_id TEXT PRIMARY KEY,
		snapshot JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
}
