package ledger

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/susu3304/pokerledger/internal/poker"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps everything in process memory. It is used when no database
// is configured and in tests.
type MemoryStore struct {
	mu       sync.Mutex
	players  map[string]*poker.Player
	sessions map[string]*poker.GameSession
	settings poker.Settings
	presets  []poker.ChipPreset
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		players:  make(map[string]*poker.Player),
		sessions: make(map[string]*poker.GameSession),
		settings: poker.Settings{
			DefaultConversionRate: poker.DefaultConversionRate,
			Chips:                 poker.DefaultChips(),
			DefaultPresetID:       "preset-default",
		},
		presets: []poker.ChipPreset{{
			ID:        "preset-default",
			Name:      "Default",
			Chips:     poker.DefaultChips(),
			IsDefault: true,
		}},
	}
}

func (m *MemoryStore) ListPlayers(ctx context.Context) ([]poker.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]poker.Player, 0, len(m.players))
	for _, p := range m.players {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) GetPlayer(ctx context.Context, id string) (*poker.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[id]
	if !ok {
		return nil, fmt.Errorf("player %s: %w", id, ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryStore) CreatePlayer(ctx context.Context, p poker.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.players[p.ID]; exists {
		return fmt.Errorf("player %s already exists", p.ID)
	}
	m.players[p.ID] = &p
	return nil
}

func (m *MemoryStore) RenamePlayer(ctx context.Context, id, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[id]
	if !ok {
		return fmt.Errorf("player %s: %w", id, ErrNotFound)
	}
	p.Name = name
	return nil
}

func (m *MemoryStore) DeletePlayer(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[id]
	if !ok {
		return fmt.Errorf("player %s: %w", id, ErrNotFound)
	}
	if math.Abs(p.Balance) >= poker.Epsilon {
		return UnsettledBalance(p.Name, p.Balance)
	}
	delete(m.players, id)
	return nil
}

func (m *MemoryStore) ResetBalances(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.players {
		p.Balance = 0
	}
	return nil
}

func (m *MemoryStore) ListSessions(ctx context.Context) ([]poker.GameSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]poker.GameSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, cloneSession(*s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (m *MemoryStore) GetSession(ctx context.Context, id string) (*poker.GameSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	cp := cloneSession(*s)
	return &cp, nil
}

func (m *MemoryStore) CreateSession(ctx context.Context, s poker.GameSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[s.ID]; exists {
		return fmt.Errorf("session %s already exists", s.ID)
	}
	cp := cloneSession(s)
	m.sessions[s.ID] = &cp
	return nil
}

func (m *MemoryStore) MutateSession(ctx context.Context, id string, fn SessionFunc) (*poker.GameSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	work := cloneSession(*s)
	deltas, err := fn(&work)
	if err != nil {
		return nil, err
	}
	m.applyDeltas(deltas)
	m.sessions[id] = &work
	out := cloneSession(work)
	return &out, nil
}

func (m *MemoryStore) RemoveSession(ctx context.Context, id string, fn SessionFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	work := cloneSession(*s)
	deltas, err := fn(&work)
	if err != nil {
		return err
	}
	m.applyDeltas(deltas)
	delete(m.sessions, id)
	return nil
}

// applyDeltas skips players that no longer exist. Caller holds mu.
func (m *MemoryStore) applyDeltas(deltas map[string]float64) {
	for id, d := range deltas {
		if p, ok := m.players[id]; ok {
			p.Balance += d
		}
	}
}

func (m *MemoryStore) GetSettings(ctx context.Context) (*poker.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.settings
	s.Chips = append([]poker.Chip(nil), m.settings.Chips...)
	return &s, nil
}

func (m *MemoryStore) SaveSettings(ctx context.Context, s poker.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.Chips = append([]poker.Chip(nil), s.Chips...)
	m.settings = s
	return nil
}

func (m *MemoryStore) ListPresets(ctx context.Context) ([]poker.ChipPreset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]poker.ChipPreset, len(m.presets))
	for i, p := range m.presets {
		p.Chips = append([]poker.Chip(nil), p.Chips...)
		out[i] = p
	}
	return out, nil
}

func (m *MemoryStore) GetPreset(ctx context.Context, id string) (*poker.ChipPreset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.presetIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("preset %s: %w", id, ErrNotFound)
	}
	p := m.presets[i]
	p.Chips = append([]poker.Chip(nil), p.Chips...)
	return &p, nil
}

func (m *MemoryStore) CreatePreset(ctx context.Context, p poker.ChipPreset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.presetIndex(p.ID) >= 0 {
		return fmt.Errorf("preset %s already exists", p.ID)
	}
	p.IsDefault = false
	m.presets = append(m.presets, p)
	return nil
}

func (m *MemoryStore) UpdatePreset(ctx context.Context, p poker.ChipPreset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.presetIndex(p.ID)
	if i < 0 {
		return fmt.Errorf("preset %s: %w", p.ID, ErrNotFound)
	}
	m.presets[i].Name = p.Name
	m.presets[i].Chips = append([]poker.Chip(nil), p.Chips...)
	return nil
}

func (m *MemoryStore) DeletePreset(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.presetIndex(id)
	if i < 0 {
		return fmt.Errorf("preset %s: %w", id, ErrNotFound)
	}
	if len(m.presets) <= 1 {
		return ErrLastPreset
	}
	wasDefault := m.presets[i].IsDefault
	m.presets = append(m.presets[:i], m.presets[i+1:]...)
	if wasDefault && len(m.presets) > 0 {
		m.presets[0].IsDefault = true
		m.settings.DefaultPresetID = m.presets[0].ID
	}
	return nil
}

func (m *MemoryStore) SetDefaultPreset(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.presetIndex(id)
	if i < 0 {
		return fmt.Errorf("preset %s: %w", id, ErrNotFound)
	}
	for j := range m.presets {
		m.presets[j].IsDefault = j == i
	}
	m.settings.DefaultPresetID = id
	return nil
}

func (m *MemoryStore) ClearAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players = make(map[string]*poker.Player)
	m.sessions = make(map[string]*poker.GameSession)
	return nil
}

func (m *MemoryStore) presetIndex(id string) int {
	for i, p := range m.presets {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func cloneSession(s poker.GameSession) poker.GameSession {
	if s.EndTime != nil {
		end := *s.EndTime
		s.EndTime = &end
	}
	s.Chips = append(make([]poker.Chip, 0, len(s.Chips)), s.Chips...)
	s.BorrowTransactions = append(make([]poker.BorrowTransaction, 0, len(s.BorrowTransactions)), s.BorrowTransactions...)
	players := make([]poker.SessionPlayer, len(s.Players))
	for i, p := range s.Players {
		if p.ChipCounts != nil {
			counts := make(poker.ChipCounts, len(p.ChipCounts))
			for k, v := range p.ChipCounts {
				counts[k] = v
			}
			p.ChipCounts = counts
		}
		players[i] = p
	}
	s.Players = players
	return s
}
