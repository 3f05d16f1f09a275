package poker

import "time"

type Player struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Balance float64 `json:"balance"`
}

type Chip struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Color string `json:"color"`
	Value int64  `json:"value"`
	Count int64  `json:"count"`
}

// ChipCounts maps a chip id to the number of chips of that denomination.
type ChipCounts map[string]int64

type SessionPlayer struct {
	PlayerID      string     `json:"playerId"`
	StartingChips int64      `json:"startingChips"`
	FinalChips    int64      `json:"finalChips"`
	ChipCounts    ChipCounts `json:"chipCounts,omitempty"`
}

// BorrowTransaction records chips moved between stacks mid-session. Amount is in chips.
type BorrowTransaction struct {
	ID        string    `json:"id"`
	Borrower  Party     `json:"borrower"`
	Lender    Party     `json:"lender"`
	Amount    int64     `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

type GameSession struct {
	ID                 string              `json:"id"`
	Date               time.Time           `json:"date"`
	EndTime            *time.Time          `json:"endTime,omitempty"`
	ConversionRate     float64             `json:"conversionRate"`
	StartingChips      int64               `json:"startingChips"`
	Chips              []Chip              `json:"chips"`
	Players            []SessionPlayer     `json:"players"`
	BorrowTransactions []BorrowTransaction `json:"borrowTransactions"`
	Completed          bool                `json:"completed"`
}

// Player returns the session entry for playerID, or nil.
func (s *GameSession) Player(playerID string) *SessionPlayer {
	for i := range s.Players {
		if s.Players[i].PlayerID == playerID {
			return &s.Players[i]
		}
	}
	return nil
}

// Deltas computes the monetary result of the session for each of its players.
func (s *GameSession) Deltas() map[string]float64 {
	return ComputeSessionDeltas(s.StartingChips, s.ConversionRate, s.Players, s.BorrowTransactions)
}

// Transaction is a suggested payment. It is never persisted.
type Transaction struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

type Settlement struct {
	Transactions []Transaction `json:"transactions"`
	TotalAmount  float64       `json:"totalAmount"`
}

type Settings struct {
	DefaultConversionRate float64 `json:"defaultConversionRate"`
	Chips                 []Chip  `json:"chips"`
	DefaultPresetID       string  `json:"defaultPresetId,omitempty"`
}

type ChipPreset struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Chips     []Chip `json:"chips"`
	IsDefault bool   `json:"isDefault"`
}
