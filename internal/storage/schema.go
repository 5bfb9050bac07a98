package storage

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema holds the idempotent table definitions, applied in order by
// the migrate command on deploy.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS stock_list (
		id BIGSERIAL PRIMARY KEY,
		stock_code TEXT NOT NULL,
		market_code SMALLINT NOT NULL,
		stock_name TEXT NOT NULL,
		secid TEXT NOT NULL UNIQUE,
		total_market_cap DOUBLE PRECISION NOT NULL DEFAULT 0,
		circulating_market_cap DOUBLE PRECISION NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		last_sync_time TIMESTAMPTZ
	)`,

	`CREATE TABLE IF NOT EXISTS capital_flow_history (
		id BIGSERIAL PRIMARY KEY,
		secid TEXT NOT NULL,
		stock_code TEXT NOT NULL,
		market_code SMALLINT NOT NULL,
		trade_date DATE NOT NULL,
		main_net_inflow DOUBLE PRECISION NOT NULL DEFAULT 0,
		super_large_net_inflow DOUBLE PRECISION NOT NULL DEFAULT 0,
		large_net_inflow DOUBLE PRECISION NOT NULL DEFAULT 0,
		medium_net_inflow DOUBLE PRECISION NOT NULL DEFAULT 0,
		small_net_inflow DOUBLE PRECISION NOT NULL DEFAULT 0,
		main_net_inflow_ratio DOUBLE PRECISION NOT NULL DEFAULT 0,
		close_price DOUBLE PRECISION NOT NULL DEFAULT 0,
		high_price DOUBLE PRECISION NOT NULL DEFAULT 0,
		low_price DOUBLE PRECISION NOT NULL DEFAULT 0,
		change_percent DOUBLE PRECISION NOT NULL DEFAULT 0,
		turnover_rate DOUBLE PRECISION,
		UNIQUE (secid, trade_date)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_flow_history_date
		ON capital_flow_history (trade_date)`,

	`CREATE TABLE IF NOT EXISTS health_scores (
		id BIGSERIAL PRIMARY KEY,
		secid TEXT NOT NULL,
		score_date DATE NOT NULL,
		health_score SMALLINT NOT NULL,
		trend_direction TEXT NOT NULL,
		risk_level TEXT NOT NULL,
		main_net_inflow_7d DOUBLE PRECISION NOT NULL DEFAULT 0,
		main_net_inflow_30d DOUBLE PRECISION NOT NULL DEFAULT 0,
		inflow_score SMALLINT NOT NULL DEFAULT 0,
		trend_score SMALLINT NOT NULL DEFAULT 0,
		price_score SMALLINT NOT NULL DEFAULT 0,
		turnover_score SMALLINT NOT NULL DEFAULT 0,
		UNIQUE (secid, score_date)
	)`,

	`CREATE TABLE IF NOT EXISTS daily_recommendations (
		id BIGSERIAL PRIMARY KEY,
		recommend_date DATE NOT NULL,
		stock_code TEXT NOT NULL,
		market_code SMALLINT NOT NULL,
		stock_name TEXT NOT NULL,
		secid TEXT NOT NULL,
		current_price DOUBLE PRECISION NOT NULL DEFAULT 0,
		change_percent DOUBLE PRECISION NOT NULL DEFAULT 0,
		total_main_inflow_10d DOUBLE PRECISION NOT NULL DEFAULT 0,
		total_small_inflow_10d DOUBLE PRECISION NOT NULL DEFAULT 0,
		volatility DOUBLE PRECISION NOT NULL DEFAULT 0,
		max_change DOUBLE PRECISION NOT NULL DEFAULT 0,
		min_change DOUBLE PRECISION NOT NULL DEFAULT 0,
		recommend_reasons TEXT[] NOT NULL DEFAULT '{}',
		sort_order INT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_recommendations_date
		ON daily_recommendations (recommend_date)`,

	`CREATE TABLE IF NOT EXISTS index_snapshots (
		secid TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		price DOUBLE PRECISION NOT NULL DEFAULT 0,
		change_percent DOUBLE PRECISION NOT NULL DEFAULT 0,
		fetched_at TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
}

// Migrate applies the schema statements in order.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
