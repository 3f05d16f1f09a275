package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/susu3304/pokerledger/internal/poker"
)

// Service runs the session lifecycle on top of a Store. It validates input
// before anything reaches the pure computations in package poker.
type Service struct {
	store Store
	now   func() time.Time
	newID func() string
}

func NewService(store Store) *Service {
	return &Service{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.NewString() },
	}
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Players

func (s *Service) ListPlayers(ctx context.Context) ([]poker.Player, error) {
	return s.store.ListPlayers(ctx)
}

func (s *Service) CreatePlayer(ctx context.Context, name string) (*poker.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("player name is required")
	}
	p := poker.Player{ID: s.newID(), Name: name}
	if err := s.store.CreatePlayer(ctx, p); err != nil {
		return nil, fmt.Errorf("create player: %w", err)
	}
	return &p, nil
}

func (s *Service) RenamePlayer(ctx context.Context, id, name string) (*poker.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("player name is required")
	}
	if err := s.store.RenamePlayer(ctx, id, name); err != nil {
		return nil, err
	}
	return s.store.GetPlayer(ctx, id)
}

// DeletePlayer refuses to drop a player who still owes or is owed money. The
// store checks the balance in the same step as the delete.
func (s *Service) DeletePlayer(ctx context.Context, id string) error {
	return s.store.DeletePlayer(ctx, id)
}

func (s *Service) ResetBalances(ctx context.Context) error {
	return s.store.ResetBalances(ctx)
}

// Sessions

type StartSessionRequest struct {
	PlayerIDs      []string     `json:"playerIds"`
	Chips          []poker.Chip `json:"chips,omitempty"`
	ConversionRate *float64     `json:"conversionRate,omitempty"`
}

type PlayerChipsRequest struct {
	FinalChips *int64           `json:"finalChips,omitempty"`
	ChipCounts poker.ChipCounts `json:"chipCounts,omitempty"`
}

type LoanRequest struct {
	Borrower poker.Party `json:"borrower"`
	Lender   poker.Party `json:"lender"`
	Amount   int64       `json:"amount"`
}

type CompleteRequest struct {
	FinalChips map[string]int64 `json:"finalChips,omitempty"`
}

func (s *Service) ListSessions(ctx context.Context) ([]poker.GameSession, error) {
	return s.store.ListSessions(ctx)
}

func (s *Service) GetSession(ctx context.Context, id string) (*poker.GameSession, error) {
	return s.store.GetSession(ctx, id)
}

// StartSession creates an active session. Chips and conversion rate fall back
// to the saved settings.
func (s *Service) StartSession(ctx context.Context, req StartSessionRequest) (*poker.GameSession, error) {
	if len(req.PlayerIDs) < 2 {
		return nil, invalid("a session needs at least 2 players")
	}
	seen := make(map[string]struct{}, len(req.PlayerIDs))
	for _, id := range req.PlayerIDs {
		if _, dup := seen[id]; dup {
			return nil, invalid("player %s listed twice", id)
		}
		seen[id] = struct{}{}
		if _, err := s.store.GetPlayer(ctx, id); err != nil {
			return nil, fmt.Errorf("player %s: %w", id, err)
		}
	}

	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	chips := req.Chips
	if len(chips) == 0 {
		chips = settings.Chips
	}
	if err := validateChips(chips); err != nil {
		return nil, err
	}
	rate := settings.DefaultConversionRate
	if req.ConversionRate != nil {
		rate = *req.ConversionRate
	}
	if rate <= 0 {
		return nil, invalid("conversion rate must be positive")
	}

	stack := poker.StartingStack(chips)
	sess := poker.GameSession{
		ID:                 s.newID(),
		Date:               s.now(),
		ConversionRate:     rate,
		StartingChips:      stack,
		Chips:              chips,
		Players:            make([]poker.SessionPlayer, 0, len(req.PlayerIDs)),
		BorrowTransactions: []poker.BorrowTransaction{},
	}
	for _, id := range req.PlayerIDs {
		sess.Players = append(sess.Players, poker.SessionPlayer{
			PlayerID:      id,
			StartingChips: stack,
			FinalChips:    stack,
			ChipCounts:    poker.InitialCounts(chips),
		})
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &sess, nil
}

// SetPlayerChips records a player's stack. Chip counts win over a raw total.
func (s *Service) SetPlayerChips(ctx context.Context, sessionID, playerID string, req PlayerChipsRequest) (*poker.GameSession, error) {
	return s.store.MutateSession(ctx, sessionID, func(sess *poker.GameSession) (map[string]float64, error) {
		if sess.Completed {
			return nil, ErrSessionCompleted
		}
		sp := sess.Player(playerID)
		if sp == nil {
			return nil, fmt.Errorf("player %s in session: %w", playerID, ErrNotFound)
		}
		switch {
		case req.ChipCounts != nil:
			for id, n := range req.ChipCounts {
				if n < 0 {
					return nil, invalid("negative count for chip %s", id)
				}
			}
			sp.ChipCounts = req.ChipCounts
			sp.FinalChips = poker.CountValue(sess.Chips, req.ChipCounts)
		case req.FinalChips != nil:
			if *req.FinalChips < 0 {
				return nil, invalid("final chips cannot be negative")
			}
			sp.FinalChips = *req.FinalChips
			sp.ChipCounts = nil
		default:
			return nil, invalid("finalChips or chipCounts is required")
		}
		return nil, nil
	})
}

func (s *Service) AddLoan(ctx context.Context, sessionID string, req LoanRequest) (*poker.GameSession, error) {
	if !req.Borrower.Valid() || !req.Lender.Valid() {
		return nil, invalid("borrower and lender are required")
	}
	if req.Borrower == req.Lender {
		return nil, invalid("borrower and lender must differ")
	}
	if req.Amount <= 0 {
		return nil, invalid("loan amount must be positive")
	}
	return s.store.MutateSession(ctx, sessionID, func(sess *poker.GameSession) (map[string]float64, error) {
		if sess.Completed {
			return nil, ErrSessionCompleted
		}
		for _, p := range []poker.Party{req.Borrower, req.Lender} {
			if id, ok := p.PlayerID(); ok && sess.Player(id) == nil {
				return nil, invalid("player %s is not in this session", id)
			}
		}
		sess.BorrowTransactions = append(sess.BorrowTransactions, poker.BorrowTransaction{
			ID:        s.newID(),
			Borrower:  req.Borrower,
			Lender:    req.Lender,
			Amount:    req.Amount,
			Timestamp: s.now(),
		})
		return nil, nil
	})
}

func (s *Service) RemoveLoan(ctx context.Context, sessionID, loanID string) (*poker.GameSession, error) {
	return s.store.MutateSession(ctx, sessionID, func(sess *poker.GameSession) (map[string]float64, error) {
		if sess.Completed {
			return nil, ErrSessionCompleted
		}
		for i, loan := range sess.BorrowTransactions {
			if loan.ID == loanID {
				sess.BorrowTransactions = append(sess.BorrowTransactions[:i], sess.BorrowTransactions[i+1:]...)
				return nil, nil
			}
		}
		return nil, fmt.Errorf("loan %s: %w", loanID, ErrNotFound)
	})
}

// SessionResults previews the per-player deltas without touching balances.
func (s *Service) SessionResults(ctx context.Context, id string) (map[string]float64, error) {
	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	return sess.Deltas(), nil
}

// CompleteSession finalizes the session and credits every player's delta to
// their balance in one step.
func (s *Service) CompleteSession(ctx context.Context, id string, req CompleteRequest) (*poker.GameSession, error) {
	return s.store.MutateSession(ctx, id, func(sess *poker.GameSession) (map[string]float64, error) {
		if sess.Completed {
			return nil, ErrSessionCompleted
		}
		for playerID, final := range req.FinalChips {
			sp := sess.Player(playerID)
			if sp == nil {
				return nil, invalid("player %s is not in this session", playerID)
			}
			if final < 0 {
				return nil, invalid("final chips cannot be negative")
			}
			sp.FinalChips = final
			// A raw total replaces any per-chip breakdown.
			sp.ChipCounts = nil
		}
		end := s.now()
		sess.Completed = true
		sess.EndTime = &end
		return sess.Deltas(), nil
	})
}

// DeleteSession removes a session. A completed session has its deltas
// recomputed from the stored data and subtracted again; an active one is
// simply discarded.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	return s.store.RemoveSession(ctx, id, func(sess *poker.GameSession) (map[string]float64, error) {
		if !sess.Completed {
			return nil, nil
		}
		deltas := sess.Deltas()
		for playerID, d := range deltas {
			deltas[playerID] = -d
		}
		return deltas, nil
	})
}

// Settlement and statistics

func (s *Service) Settlement(ctx context.Context) (poker.Settlement, error) {
	players, err := s.store.ListPlayers(ctx)
	if err != nil {
		return poker.Settlement{}, err
	}
	return poker.SettlePlayers(players), nil
}

func (s *Service) Stats(ctx context.Context) ([]poker.PlayerStats, error) {
	players, err := s.store.ListPlayers(ctx)
	if err != nil {
		return nil, err
	}
	sessions, err := s.store.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]poker.PlayerStats, 0, len(players))
	for _, p := range players {
		out = append(out, poker.ComputePlayerStats(p, sessions))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CurrentBalance > out[j].CurrentBalance })
	return out, nil
}

// Settings and presets

func (s *Service) GetSettings(ctx context.Context) (*poker.Settings, error) {
	return s.store.GetSettings(ctx)
}

func (s *Service) UpdateSettings(ctx context.Context, in poker.Settings) (*poker.Settings, error) {
	if in.DefaultConversionRate <= 0 {
		return nil, invalid("default conversion rate must be positive")
	}
	if err := validateChips(in.Chips); err != nil {
		return nil, err
	}
	current, err := s.store.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	if in.DefaultPresetID == "" {
		in.DefaultPresetID = current.DefaultPresetID
	}
	if err := s.store.SaveSettings(ctx, in); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}
	return &in, nil
}

func (s *Service) ListPresets(ctx context.Context) ([]poker.ChipPreset, error) {
	return s.store.ListPresets(ctx)
}

func (s *Service) CreatePreset(ctx context.Context, name string, chips []poker.Chip) (*poker.ChipPreset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("preset name is required")
	}
	if err := validateChips(chips); err != nil {
		return nil, err
	}
	p := poker.ChipPreset{ID: "preset-" + s.newID(), Name: name, Chips: chips}
	if err := s.store.CreatePreset(ctx, p); err != nil {
		return nil, fmt.Errorf("create preset: %w", err)
	}
	return &p, nil
}

// UpdatePreset changes the name, the chips, or both. Nil fields are kept.
func (s *Service) UpdatePreset(ctx context.Context, id string, name *string, chips []poker.Chip) (*poker.ChipPreset, error) {
	if name == nil && chips == nil {
		return nil, invalid("no updates provided")
	}
	p, err := s.store.GetPreset(ctx, id)
	if err != nil {
		return nil, err
	}
	if name != nil {
		if strings.TrimSpace(*name) == "" {
			return nil, invalid("preset name is required")
		}
		p.Name = strings.TrimSpace(*name)
	}
	if chips != nil {
		if err := validateChips(chips); err != nil {
			return nil, err
		}
		p.Chips = chips
	}
	if err := s.store.UpdatePreset(ctx, *p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeletePreset removes a preset. The last remaining preset cannot be deleted;
// the store enforces this together with the delete.
func (s *Service) DeletePreset(ctx context.Context, id string) error {
	return s.store.DeletePreset(ctx, id)
}

func (s *Service) SetDefaultPreset(ctx context.Context, id string) (*poker.ChipPreset, error) {
	if err := s.store.SetDefaultPreset(ctx, id); err != nil {
		return nil, err
	}
	return s.store.GetPreset(ctx, id)
}

// ClearAll drops every player and session. Settings and presets are kept.
func (s *Service) ClearAll(ctx context.Context) error {
	return s.store.ClearAll(ctx)
}

func validateChips(chips []poker.Chip) error {
	if len(chips) == 0 {
		return invalid("at least one chip denomination is required")
	}
	ids := make(map[string]struct{}, len(chips))
	for _, c := range chips {
		if c.ID == "" {
			return invalid("chip id is required")
		}
		if _, dup := ids[c.ID]; dup {
			return invalid("duplicate chip id %s", c.ID)
		}
		ids[c.ID] = struct{}{}
		if c.Value <= 0 {
			return invalid("chip %s must have a positive value", c.ID)
		}
		if c.Count < 0 {
			return invalid("chip %s has a negative count", c.ID)
		}
	}
	return nil
}
