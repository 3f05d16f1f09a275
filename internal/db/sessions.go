package db

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/susu3304/pokerledger/internal/ledger"
	"github.com/susu3304/pokerledger/internal/poker"
)

const sessionColumns = `id, date, end_time, conversion_rate, starting_chips, chips, players, borrow_transactions, completed`

func scanSession(row pgx.Row) (*poker.GameSession, error) {
	var (
		s                           poker.GameSession
		endTime                     *time.Time
		chipsRaw, playersRaw, loans []byte
	)
	if err := row.Scan(&s.ID, &s.Date, &endTime, &s.ConversionRate, &s.StartingChips, &chipsRaw, &playersRaw, &loans, &s.Completed); err != nil {
		return nil, err
	}
	s.EndTime = endTime

	var err error
	if s.Chips, err = decodeChips(chipsRaw); err != nil {
		return nil, err
	}
	if s.Players, err = decodePlayers(playersRaw); err != nil {
		return nil, err
	}
	if s.BorrowTransactions, err = decodeLoans(loans); err != nil {
		return nil, err
	}
	return &s, nil
}

type encodedSession struct {
	chips, players, loans []byte
}

func encodeSession(s *poker.GameSession) (*encodedSession, error) {
	chips, err := encodeChips(s.Chips)
	if err != nil {
		return nil, err
	}
	players, err := encodePlayers(s.Players)
	if err != nil {
		return nil, err
	}
	loans, err := encodeLoans(s.BorrowTransactions)
	if err != nil {
		return nil, err
	}
	return &encodedSession{chips: chips, players: players, loans: loans}, nil
}

func (db *DB) ListSessions(ctx context.Context) ([]poker.GameSession, error) {
	rows, err := db.pool.Query(ctx, `SELECT `+sessionColumns+` FROM game_sessions ORDER BY date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []poker.GameSession{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

func (db *DB) GetSession(ctx context.Context, id string) (*poker.GameSession, error) {
	s, err := scanSession(db.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM game_sessions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("session %s: %w", id, ledger.ErrNotFound)
		}
		return nil, err
	}
	return s, nil
}

func (db *DB) CreateSession(ctx context.Context, s poker.GameSession) error {
	enc, err := encodeSession(&s)
	if err != nil {
		return err
	}
	_, err = db.pool.Exec(ctx,
		`INSERT INTO game_sessions (id, date, end_time, conversion_rate, starting_chips, chips, players, borrow_transactions, completed)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.Date, s.EndTime, s.ConversionRate, s.StartingChips, enc.chips, enc.players, enc.loans, s.Completed,
	)
	return err
}

// MutateSession runs fn against the locked row, writes the session back and
// applies the balance deltas fn returns, all in one transaction.
func (db *DB) MutateSession(ctx context.Context, id string, fn ledger.SessionFunc) (*poker.GameSession, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	s, err := lockSession(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	deltas, err := fn(s)
	if err != nil {
		return nil, err
	}

	enc, err := encodeSession(s)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE game_sessions
		 SET date = $2, end_time = $3, conversion_rate = $4, starting_chips = $5, chips = $6, players = $7,
		     borrow_transactions = $8, completed = $9, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $1`,
		s.ID, s.Date, s.EndTime, s.ConversionRate, s.StartingChips, enc.chips, enc.players, enc.loans, s.Completed,
	); err != nil {
		return nil, err
	}
	if err := applyDeltas(ctx, tx, deltas); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// RemoveSession applies the deltas fn returns and deletes the session.
func (db *DB) RemoveSession(ctx context.Context, id string, fn ledger.SessionFunc) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	s, err := lockSession(ctx, tx, id)
	if err != nil {
		return err
	}
	deltas, err := fn(s)
	if err != nil {
		return err
	}
	if err := applyDeltas(ctx, tx, deltas); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM game_sessions WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func lockSession(ctx context.Context, tx pgx.Tx, id string) (*poker.GameSession, error) {
	s, err := scanSession(tx.QueryRow(ctx, `SELECT `+sessionColumns+` FROM game_sessions WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("session %s: %w", id, ledger.ErrNotFound)
		}
		return nil, err
	}
	return s, nil
}

// applyDeltas increments balances in SQL so concurrent sessions touching the
// same player cannot overwrite each other. Rows are updated in id order to keep
// lock acquisition consistent. Players that no longer exist are skipped.
func applyDeltas(ctx context.Context, tx pgx.Tx, deltas map[string]float64) error {
	ids := make([]string, 0, len(deltas))
	for id := range deltas {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if _, err := tx.Exec(ctx,
			`UPDATE players SET balance = balance + $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`,
			id, deltas[id],
		); err != nil {
			return fmt.Errorf("apply delta for player %s: %w", id, err)
		}
	}
	return nil
}
