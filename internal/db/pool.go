package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 10 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return pool, nil
}

// InitSchema creates the score, wallet and settings tables if they are
// missing and seeds the production run counter at 1.
func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS token_scores (
			user_id BIGINT PRIMARY KEY,
			score INTEGER DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS point_scores (
			user_id BIGINT PRIMARY KEY,
			score INTEGER DEFAULT 0,
			seasons_played INTEGER DEFAULT 0,
			top_30_finishes INTEGER DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS user_wallets (
			user_id BIGINT PRIMARY KEY,
			wallet_address TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS bot_settings (
			setting_key TEXT PRIMARY KEY,
			setting_value TEXT
		)`,
		`INSERT INTO bot_settings (setting_key, setting_value)
		 VALUES ('production_run', '1')
		 ON CONFLICT (setting_key) DO NOTHING`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
