package db

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/susu3304/pokerledger/internal/poker"
)

// Row-level records for the JSONB columns. Field names follow the JSON the
// web client already sends, so existing rows keep decoding.

type chipRecord struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Color string `json:"color"`
	Value int64  `json:"value"`
	Count int64  `json:"count"`
}

type sessionPlayerRecord struct {
	PlayerID      string           `json:"playerId"`
	StartingChips int64            `json:"startingChips"`
	FinalChips    int64            `json:"finalChips"`
	ChipCounts    map[string]int64 `json:"chipCounts,omitempty"`
}

type loanRecord struct {
	ID        string    `json:"id"`
	Borrower  string    `json:"borrower"`
	Lender    string    `json:"lender"`
	Amount    int64     `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

func encodeChips(chips []poker.Chip) ([]byte, error) {
	recs := make([]chipRecord, len(chips))
	for i, c := range chips {
		recs[i] = chipRecord{ID: c.ID, Label: c.Label, Color: c.Color, Value: c.Value, Count: c.Count}
	}
	raw, err := json.Marshal(recs)
	if err != nil {
		return nil, fmt.Errorf("encode chips: %w", err)
	}
	return raw, nil
}

func decodeChips(raw []byte) ([]poker.Chip, error) {
	var recs []chipRecord
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &recs); err != nil {
			return nil, fmt.Errorf("decode chips: %w", err)
		}
	}
	chips := make([]poker.Chip, len(recs))
	for i, r := range recs {
		chips[i] = poker.Chip{ID: r.ID, Label: r.Label, Color: r.Color, Value: r.Value, Count: r.Count}
	}
	return chips, nil
}

func encodePlayers(players []poker.SessionPlayer) ([]byte, error) {
	recs := make([]sessionPlayerRecord, len(players))
	for i, p := range players {
		recs[i] = sessionPlayerRecord{
			PlayerID:      p.PlayerID,
			StartingChips: p.StartingChips,
			FinalChips:    p.FinalChips,
			ChipCounts:    p.ChipCounts,
		}
	}
	raw, err := json.Marshal(recs)
	if err != nil {
		return nil, fmt.Errorf("encode session players: %w", err)
	}
	return raw, nil
}

func decodePlayers(raw []byte) ([]poker.SessionPlayer, error) {
	var recs []sessionPlayerRecord
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &recs); err != nil {
			return nil, fmt.Errorf("decode session players: %w", err)
		}
	}
	players := make([]poker.SessionPlayer, len(recs))
	for i, r := range recs {
		players[i] = poker.SessionPlayer{
			PlayerID:      r.PlayerID,
			StartingChips: r.StartingChips,
			FinalChips:    r.FinalChips,
			ChipCounts:    r.ChipCounts,
		}
	}
	return players, nil
}

// encodeLoans returns nil for a session without loans so the column stays NULL.
func encodeLoans(loans []poker.BorrowTransaction) ([]byte, error) {
	if len(loans) == 0 {
		return nil, nil
	}
	recs := make([]loanRecord, len(loans))
	for i, l := range loans {
		recs[i] = loanRecord{
			ID:        l.ID,
			Borrower:  l.Borrower.String(),
			Lender:    l.Lender.String(),
			Amount:    l.Amount,
			Timestamp: l.Timestamp,
		}
	}
	raw, err := json.Marshal(recs)
	if err != nil {
		return nil, fmt.Errorf("encode loans: %w", err)
	}
	return raw, nil
}

func decodeLoans(raw []byte) ([]poker.BorrowTransaction, error) {
	var recs []loanRecord
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &recs); err != nil {
			return nil, fmt.Errorf("decode loans: %w", err)
		}
	}
	loans := make([]poker.BorrowTransaction, len(recs))
	for i, r := range recs {
		borrower, err := poker.ParseParty(r.Borrower)
		if err != nil {
			return nil, fmt.Errorf("decode loan %s borrower: %w", r.ID, err)
		}
		lender, err := poker.ParseParty(r.Lender)
		if err != nil {
			return nil, fmt.Errorf("decode loan %s lender: %w", r.ID, err)
		}
		loans[i] = poker.BorrowTransaction{
			ID:        r.ID,
			Borrower:  borrower,
			Lender:    lender,
			Amount:    r.Amount,
			Timestamp: r.Timestamp,
		}
	}
	return loans, nil
}
