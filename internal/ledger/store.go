package ledger

import (
	"context"

	"github.com/susu3304/pokerledger/internal/poker"
)

// SessionFunc inspects or edits a locked session and returns the amounts to
// add to each player's balance in the same transaction. Returning an error
// aborts without writing anything.
type SessionFunc func(s *poker.GameSession) (map[string]float64, error)

// Store is the persistence collaborator. Implementations return ErrNotFound
// for unknown ids.
type Store interface {
	ListPlayers(ctx context.Context) ([]poker.Player, error)
	GetPlayer(ctx context.Context, id string) (*poker.Player, error)
	CreatePlayer(ctx context.Context, p poker.Player) error
	RenamePlayer(ctx context.Context, id, name string) error
	// DeletePlayer removes the player only while |balance| < poker.Epsilon,
	// checked atomically with the delete; otherwise ErrUnsettledBalance.
	DeletePlayer(ctx context.Context, id string) error
	ResetBalances(ctx context.Context) error

	ListSessions(ctx context.Context) ([]poker.GameSession, error)
	GetSession(ctx context.Context, id string) (*poker.GameSession, error)
	CreateSession(ctx context.Context, s poker.GameSession) error
	// MutateSession locks the session, applies fn, saves the edited session
	// and applies the returned balance deltas.
	MutateSession(ctx context.Context, id string, fn SessionFunc) (*poker.GameSession, error)
	// RemoveSession locks the session, applies the deltas returned by fn and
	// deletes the session.
	RemoveSession(ctx context.Context, id string, fn SessionFunc) error

	GetSettings(ctx context.Context) (*poker.Settings, error)
	SaveSettings(ctx context.Context, s poker.Settings) error

	ListPresets(ctx context.Context) ([]poker.ChipPreset, error)
	GetPreset(ctx context.Context, id string) (*poker.ChipPreset, error)
	CreatePreset(ctx context.Context, p poker.ChipPreset) error
	UpdatePreset(ctx context.Context, p poker.ChipPreset) error
	// DeletePreset removes the preset and promotes another one when it was the
	// default. Deleting the only remaining preset fails with ErrLastPreset.
	DeletePreset(ctx context.Context, id string) error
	SetDefaultPreset(ctx context.Context, id string) error

	ClearAll(ctx context.Context) error
}
