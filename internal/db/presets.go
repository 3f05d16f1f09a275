package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/susu3304/pokerledger/internal/ledger"
	"github.com/susu3304/pokerledger/internal/poker"
)

func scanPreset(row pgx.Row) (*poker.ChipPreset, error) {
	var (
		p   poker.ChipPreset
		raw []byte
	)
	if err := row.Scan(&p.ID, &p.Name, &raw, &p.IsDefault); err != nil {
		return nil, err
	}
	chips, err := decodeChips(raw)
	if err != nil {
		return nil, err
	}
	p.Chips = chips
	return &p, nil
}

func (db *DB) ListPresets(ctx context.Context) ([]poker.ChipPreset, error) {
	rows, err := db.pool.Query(ctx, `SELECT id, name, chips, is_default FROM chip_presets ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	presets := []poker.ChipPreset{}
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, err
		}
		presets = append(presets, *p)
	}
	return presets, rows.Err()
}

func (db *DB) GetPreset(ctx context.Context, id string) (*poker.ChipPreset, error) {
	p, err := scanPreset(db.pool.QueryRow(ctx, `SELECT id, name, chips, is_default FROM chip_presets WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("preset %s: %w", id, ledger.ErrNotFound)
		}
		return nil, err
	}
	return p, nil
}

func (db *DB) CreatePreset(ctx context.Context, p poker.ChipPreset) error {
	chips, err := encodeChips(p.Chips)
	if err != nil {
		return err
	}
	_, err = db.pool.Exec(ctx,
		`INSERT INTO chip_presets (id, name, chips, is_default) VALUES ($1, $2, $3, FALSE)`,
		p.ID, p.Name, chips,
	)
	return err
}

func (db *DB) UpdatePreset(ctx context.Context, p poker.ChipPreset) error {
	chips, err := encodeChips(p.Chips)
	if err != nil {
		return err
	}
	result, err := db.pool.Exec(ctx,
		`UPDATE chip_presets SET name = $2, chips = $3, updated_at = CURRENT_TIMESTAMP WHERE id = $1`,
		p.ID, p.Name, chips,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("preset %s: %w", p.ID, ledger.ErrNotFound)
	}
	return nil
}

// DeletePreset refuses to remove the last preset and promotes the oldest
// remaining one when the default is removed.
func (db *DB) DeletePreset(ctx context.Context, id string) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Lock every preset so two concurrent deletes cannot both pass the
	// last-preset check.
	rows, err := tx.Query(ctx, `SELECT id, is_default FROM chip_presets ORDER BY created_at, id FOR UPDATE`)
	if err != nil {
		return err
	}
	var (
		count            int
		found, isDefault bool
	)
	for rows.Next() {
		var (
			pid string
			def bool
		)
		if err := rows.Scan(&pid, &def); err != nil {
			rows.Close()
			return err
		}
		count++
		if pid == id {
			found, isDefault = true, def
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("preset %s: %w", id, ledger.ErrNotFound)
	}
	if count <= 1 {
		return ledger.ErrLastPreset
	}
	if _, err := tx.Exec(ctx, `DELETE FROM chip_presets WHERE id = $1`, id); err != nil {
		return err
	}

	if isDefault {
		var next string
		err := tx.QueryRow(ctx, `SELECT id FROM chip_presets ORDER BY created_at, id LIMIT 1`).Scan(&next)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
		case err != nil:
			return err
		default:
			if _, err := tx.Exec(ctx, `UPDATE chip_presets SET is_default = TRUE WHERE id = $1`, next); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `UPDATE settings SET default_preset_id = $2 WHERE id = $1`, settingsID, next); err != nil {
				return err
			}
		}
	}
	return tx.Commit(ctx)
}

func (db *DB) SetDefaultPreset(ctx context.Context, id string) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM chip_presets WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("preset %s: %w", id, ledger.ErrNotFound)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE chip_presets SET is_default = (id = $1), updated_at = CURRENT_TIMESTAMP`,
		id,
	); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE settings SET default_preset_id = $2 WHERE id = $1`, settingsID, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
