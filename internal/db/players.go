package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/susu3304/pokerledger/internal/ledger"
	"github.com/susu3304/pokerledger/internal/poker"
)

func (db *DB) ListPlayers(ctx context.Context) ([]poker.Player, error) {
	rows, err := db.pool.Query(ctx, `SELECT id, name, balance FROM players ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := []poker.Player{}
	for rows.Next() {
		var p poker.Player
		if err := rows.Scan(&p.ID, &p.Name, &p.Balance); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func (db *DB) GetPlayer(ctx context.Context, id string) (*poker.Player, error) {
	var p poker.Player
	err := db.pool.QueryRow(ctx,
		`SELECT id, name, balance FROM players WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Name, &p.Balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("player %s: %w", id, ledger.ErrNotFound)
		}
		return nil, err
	}
	return &p, nil
}

func (db *DB) CreatePlayer(ctx context.Context, p poker.Player) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO players (id, name, balance) VALUES ($1, $2, $3)`,
		p.ID, p.Name, p.Balance,
	)
	return err
}

func (db *DB) RenamePlayer(ctx context.Context, id, name string) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE players SET name = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`,
		id, name,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("player %s: %w", id, ledger.ErrNotFound)
	}
	return nil
}

// DeletePlayer deletes only a settled player. The balance condition is part
// of the DELETE so a concurrent session completion cannot slip in between.
func (db *DB) DeletePlayer(ctx context.Context, id string) error {
	result, err := db.pool.Exec(ctx,
		`DELETE FROM players WHERE id = $1 AND abs(balance) < $2`,
		id, poker.Epsilon,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() > 0 {
		return nil
	}

	p, err := db.GetPlayer(ctx, id)
	if err != nil {
		return err
	}
	return ledger.UnsettledBalance(p.Name, p.Balance)
}

func (db *DB) ResetBalances(ctx context.Context) error {
	_, err := db.pool.Exec(ctx, `UPDATE players SET balance = 0, updated_at = CURRENT_TIMESTAMP`)
	return err
}
