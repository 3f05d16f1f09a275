package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/susu3304/pokerledger/internal/ledger"
	"github.com/susu3304/pokerledger/internal/poker"
)

var _ ledger.Store = (*DB)(nil)

type DB struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

func (db *DB) Close() {
	db.pool.Close()
}

// RunMigrations creates the schema and seeds the default settings and chip preset.
func (db *DB) RunMigrations(ctx context.Context) error {
	_, err := db.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS players (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			balance DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_players_name ON players(name);

		CREATE TABLE IF NOT EXISTS game_sessions (
			id TEXT PRIMARY KEY,
			date TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			conversion_rate DOUBLE PRECISION NOT NULL,
			starting_chips BIGINT NOT NULL,
			chips JSONB NOT NULL,
			players JSONB NOT NULL,
			borrow_transactions JSONB,
			completed BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		);
		ALTER TABLE game_sessions ADD COLUMN IF NOT EXISTS end_time TIMESTAMPTZ;
		CREATE INDEX IF NOT EXISTS idx_game_sessions_date ON game_sessions(date DESC);
		CREATE INDEX IF NOT EXISTS idx_game_sessions_completed ON game_sessions(completed);

		CREATE TABLE IF NOT EXISTS settings (
			id TEXT PRIMARY KEY,
			default_conversion_rate DOUBLE PRECISION NOT NULL DEFAULT 0.01,
			chips JSONB NOT NULL,
			default_preset_id TEXT,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS chip_presets (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			chips JSONB NOT NULL,
			is_default BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	chips, err := encodeChips(poker.DefaultChips())
	if err != nil {
		return err
	}
	if _, err := db.pool.Exec(ctx,
		`INSERT INTO chip_presets (id, name, chips, is_default) VALUES ($1, 'Default', $2, TRUE) ON CONFLICT (id) DO NOTHING`,
		defaultPresetID, chips,
	); err != nil {
		return fmt.Errorf("seed preset: %w", err)
	}
	if _, err := db.pool.Exec(ctx,
		`INSERT INTO settings (id, default_conversion_rate, chips, default_preset_id) VALUES ($1, $2, $3, $4) ON CONFLICT (id) DO NOTHING`,
		settingsID, poker.DefaultConversionRate, chips, defaultPresetID,
	); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	return nil
}

// ClearAll removes every session and player.
func (db *DB) ClearAll(ctx context.Context) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM game_sessions`); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM players`); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
