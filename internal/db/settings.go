package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/susu3304/pokerledger/internal/poker"
)

const (
	settingsID      = "default"
	defaultPresetID = "preset-default"
)

func (db *DB) GetSettings(ctx context.Context) (*poker.Settings, error) {
	var (
		s        poker.Settings
		chipsRaw []byte
	)
	err := db.pool.QueryRow(ctx,
		`SELECT default_conversion_rate, chips, COALESCE(default_preset_id, '') FROM settings WHERE id = $1`,
		settingsID,
	).Scan(&s.DefaultConversionRate, &chipsRaw, &s.DefaultPresetID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &poker.Settings{DefaultConversionRate: poker.DefaultConversionRate, Chips: poker.DefaultChips()}, nil
		}
		return nil, err
	}
	if s.Chips, err = decodeChips(chipsRaw); err != nil {
		return nil, err
	}
	return &s, nil
}

func (db *DB) SaveSettings(ctx context.Context, s poker.Settings) error {
	chips, err := encodeChips(s.Chips)
	if err != nil {
		return err
	}
	_, err = db.pool.Exec(ctx,
		`INSERT INTO settings (id, default_conversion_rate, chips, default_preset_id)
		 VALUES ($1, $2, $3, NULLIF($4, ''))
		 ON CONFLICT (id) DO UPDATE
		 SET default_conversion_rate = EXCLUDED.default_conversion_rate,
		     chips = EXCLUDED.chips,
		     default_preset_id = EXCLUDED.default_preset_id,
		     updated_at = CURRENT_TIMESTAMP`,
		settingsID, s.DefaultConversionRate, chips, s.DefaultPresetID,
	)
	return err
}
