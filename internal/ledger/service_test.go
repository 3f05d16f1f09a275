package ledger

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/susu3304/pokerledger/internal/poker"
)

func newTestService(t *testing.T, names ...string) (*Service, []poker.Player) {
	t.Helper()
	svc := NewService(NewMemoryStore())
	var players []poker.Player
	for _, n := range names {
		p, err := svc.CreatePlayer(context.Background(), n)
		if err != nil {
			t.Fatalf("CreatePlayer(%s): %v", n, err)
		}
		players = append(players, *p)
	}
	return svc, players
}

func balances(t *testing.T, svc *Service) map[string]float64 {
	t.Helper()
	ps, err := svc.ListPlayers(context.Background())
	if err != nil {
		t.Fatalf("ListPlayers: %v", err)
	}
	out := make(map[string]float64, len(ps))
	for _, p := range ps {
		out[p.ID] = p.Balance
	}
	return out
}

func int64Ptr(v int64) *int64 { return &v }

func TestSessionLifecycle_CompleteAndDelete(t *testing.T) {
	ctx := context.Background()
	svc, ps := newTestService(t, "Alice", "Bob", "Carol")
	a, b, c := ps[0].ID, ps[1].ID, ps[2].ID

	rate := 0.01
	sess, err := svc.StartSession(ctx, StartSessionRequest{
		PlayerIDs:      []string{a, b, c},
		Chips:          []poker.Chip{{ID: "white", Value: 10, Count: 10}},
		ConversionRate: &rate,
	})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if sess.StartingChips != 100 || sess.Completed {
		t.Fatalf("unexpected new session: %+v", sess)
	}

	if _, err := svc.SetPlayerChips(ctx, sess.ID, a, PlayerChipsRequest{FinalChips: int64Ptr(150)}); err != nil {
		t.Fatalf("SetPlayerChips: %v", err)
	}
	if _, err := svc.SetPlayerChips(ctx, sess.ID, b, PlayerChipsRequest{ChipCounts: poker.ChipCounts{"white": 3}}); err != nil {
		t.Fatalf("SetPlayerChips counts: %v", err)
	}
	if _, err := svc.AddLoan(ctx, sess.ID, LoanRequest{Borrower: poker.PlayerRef(a), Lender: poker.Bank(), Amount: 20}); err != nil {
		t.Fatalf("AddLoan: %v", err)
	}

	if got := balances(t, svc)[a]; got != 0 {
		t.Fatalf("balance changed before completion: %v", got)
	}

	done, err := svc.CompleteSession(ctx, sess.ID, CompleteRequest{FinalChips: map[string]int64{c: 120}})
	if err != nil {
		t.Fatalf("CompleteSession: %v", err)
	}
	if !done.Completed || done.EndTime == nil {
		t.Fatalf("session not marked completed: %+v", done)
	}

	got := balances(t, svc)
	want := map[string]float64{a: 0.3, b: -0.7, c: 0.2}
	for id, w := range want {
		if math.Abs(got[id]-w) > 1e-9 {
			t.Errorf("balance[%s] = %v, want %v", id, got[id], w)
		}
	}

	if _, err := svc.CompleteSession(ctx, sess.ID, CompleteRequest{}); !errors.Is(err, ErrSessionCompleted) {
		t.Errorf("second completion: got %v, want ErrSessionCompleted", err)
	}
	if _, err := svc.AddLoan(ctx, sess.ID, LoanRequest{Borrower: poker.PlayerRef(a), Lender: poker.Bank(), Amount: 1}); !errors.Is(err, ErrSessionCompleted) {
		t.Errorf("loan on completed session: got %v", err)
	}

	if err := svc.DeleteSession(ctx, sess.ID); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	for id, v := range balances(t, svc) {
		if math.Abs(v) > 1e-12 {
			t.Errorf("balance[%s] = %v after delete, want 0", id, v)
		}
	}
	if _, err := svc.GetSession(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSession after delete: got %v", err)
	}
}

func TestDeleteActiveSession_NoBalanceEffect(t *testing.T) {
	ctx := context.Background()
	svc, ps := newTestService(t, "Alice", "Bob")
	sess, err := svc.StartSession(ctx, StartSessionRequest{PlayerIDs: []string{ps[0].ID, ps[1].ID}})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if _, err := svc.SetPlayerChips(ctx, sess.ID, ps[0].ID, PlayerChipsRequest{FinalChips: int64Ptr(0)}); err != nil {
		t.Fatalf("SetPlayerChips: %v", err)
	}
	if err := svc.DeleteSession(ctx, sess.ID); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	for id, v := range balances(t, svc) {
		if v != 0 {
			t.Errorf("balance[%s] = %v, want 0", id, v)
		}
	}
}

func TestStartSession_Validation(t *testing.T) {
	ctx := context.Background()
	svc, ps := newTestService(t, "Alice", "Bob")
	zero := 0.0

	tests := []struct {
		name string
		req  StartSessionRequest
		want error
	}{
		{"one player", StartSessionRequest{PlayerIDs: []string{ps[0].ID}}, ErrInvalidInput},
		{"duplicate", StartSessionRequest{PlayerIDs: []string{ps[0].ID, ps[0].ID}}, ErrInvalidInput},
		{"unknown player", StartSessionRequest{PlayerIDs: []string{ps[0].ID, "nobody"}}, ErrNotFound},
		{"zero rate", StartSessionRequest{PlayerIDs: []string{ps[0].ID, ps[1].ID}, ConversionRate: &zero}, ErrInvalidInput},
		{"bad chip", StartSessionRequest{PlayerIDs: []string{ps[0].ID, ps[1].ID}, Chips: []poker.Chip{{ID: "x", Value: 0, Count: 1}}}, ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.StartSession(ctx, tt.req); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAddLoan_Validation(t *testing.T) {
	ctx := context.Background()
	svc, ps := newTestService(t, "Alice", "Bob", "Outsider")
	sess, err := svc.StartSession(ctx, StartSessionRequest{PlayerIDs: []string{ps[0].ID, ps[1].ID}})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	tests := []struct {
		name string
		req  LoanRequest
	}{
		{"same party", LoanRequest{Borrower: poker.Bank(), Lender: poker.Bank(), Amount: 5}},
		{"zero amount", LoanRequest{Borrower: poker.PlayerRef(ps[0].ID), Lender: poker.Bank(), Amount: 0}},
		{"missing lender", LoanRequest{Borrower: poker.PlayerRef(ps[0].ID), Amount: 5}},
		{"not in session", LoanRequest{Borrower: poker.PlayerRef(ps[2].ID), Lender: poker.Bank(), Amount: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.AddLoan(ctx, sess.ID, tt.req); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("got %v, want ErrInvalidInput", err)
			}
		})
	}

	withLoan, err := svc.AddLoan(ctx, sess.ID, LoanRequest{Borrower: poker.PlayerRef(ps[0].ID), Lender: poker.PlayerRef(ps[1].ID), Amount: 50})
	if err != nil {
		t.Fatalf("AddLoan: %v", err)
	}
	loanID := withLoan.BorrowTransactions[0].ID
	after, err := svc.RemoveLoan(ctx, sess.ID, loanID)
	if err != nil {
		t.Fatalf("RemoveLoan: %v", err)
	}
	if len(after.BorrowTransactions) != 0 {
		t.Errorf("loan not removed: %+v", after.BorrowTransactions)
	}
	if _, err := svc.RemoveLoan(ctx, sess.ID, loanID); !errors.Is(err, ErrNotFound) {
		t.Errorf("removing twice: got %v", err)
	}
}

func TestDeletePlayer_RequiresSettledBalance(t *testing.T) {
	ctx := context.Background()
	svc, ps := newTestService(t, "Alice", "Bob")
	sess, err := svc.StartSession(ctx, StartSessionRequest{PlayerIDs: []string{ps[0].ID, ps[1].ID}})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	stack := sess.StartingChips
	if _, err := svc.CompleteSession(ctx, sess.ID, CompleteRequest{FinalChips: map[string]int64{
		ps[0].ID: stack + 500,
		ps[1].ID: stack - 500,
	}}); err != nil {
		t.Fatalf("CompleteSession: %v", err)
	}

	if err := svc.DeletePlayer(ctx, ps[0].ID); !errors.Is(err, ErrUnsettledBalance) {
		t.Errorf("got %v, want ErrUnsettledBalance", err)
	}

	settlement, err := svc.Settlement(ctx)
	if err != nil {
		t.Fatalf("Settlement: %v", err)
	}
	if len(settlement.Transactions) != 1 || settlement.Transactions[0].From != ps[1].ID || settlement.Transactions[0].Amount != 5 {
		t.Errorf("settlement = %+v", settlement)
	}

	if err := svc.ResetBalances(ctx); err != nil {
		t.Fatalf("ResetBalances: %v", err)
	}
	if err := svc.DeletePlayer(ctx, ps[0].ID); err != nil {
		t.Errorf("DeletePlayer after reset: %v", err)
	}
}

func TestPresets(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	if err := svc.DeletePreset(ctx, "preset-default"); !errors.Is(err, ErrLastPreset) {
		t.Fatalf("deleting last preset: got %v", err)
	}

	p, err := svc.CreatePreset(ctx, "Tournament", []poker.Chip{{ID: "t1", Label: "T1", Value: 1000, Count: 10}})
	if err != nil {
		t.Fatalf("CreatePreset: %v", err)
	}
	if p.IsDefault {
		t.Error("new preset should not be default")
	}

	renamed := "Deep stack"
	if _, err := svc.UpdatePreset(ctx, p.ID, &renamed, nil); err != nil {
		t.Fatalf("UpdatePreset: %v", err)
	}
	if _, err := svc.UpdatePreset(ctx, p.ID, nil, nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty update: got %v", err)
	}

	if err := svc.DeletePreset(ctx, "preset-default"); err != nil {
		t.Fatalf("DeletePreset default: %v", err)
	}
	presets, _ := svc.ListPresets(ctx)
	if len(presets) != 1 || !presets[0].IsDefault || presets[0].Name != renamed {
		t.Errorf("presets after delete = %+v", presets)
	}
	settings, _ := svc.GetSettings(ctx)
	if settings.DefaultPresetID != p.ID {
		t.Errorf("DefaultPresetID = %s, want %s", settings.DefaultPresetID, p.ID)
	}
}

func TestUpdateSettings(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	if _, err := svc.UpdateSettings(ctx, poker.Settings{DefaultConversionRate: -1, Chips: poker.DefaultChips()}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("negative rate: got %v", err)
	}
	got, err := svc.UpdateSettings(ctx, poker.Settings{DefaultConversionRate: 0.05, Chips: []poker.Chip{{ID: "a", Value: 5, Count: 40}}})
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if got.DefaultPresetID != "preset-default" {
		t.Errorf("default preset lost: %+v", got)
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	svc, ps := newTestService(t, "Alice", "Bob")
	sess, err := svc.StartSession(ctx, StartSessionRequest{PlayerIDs: []string{ps[0].ID, ps[1].ID}})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	stack := sess.StartingChips
	if _, err := svc.CompleteSession(ctx, sess.ID, CompleteRequest{FinalChips: map[string]int64{ps[0].ID: stack - 100, ps[1].ID: stack + 100}}); err != nil {
		t.Fatalf("CompleteSession: %v", err)
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if len(stats) != 2 || stats[0].PlayerID != ps[1].ID || stats[0].WinSessions != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestFinalChipTotalsReplaceChipCounts(t *testing.T) {
	ctx := context.Background()
	svc, ps := newTestService(t, "Alice", "Bob")
	a, b := ps[0].ID, ps[1].ID
	chips := []poker.Chip{{ID: "red", Value: 5, Count: 20}, {ID: "blue", Value: 25, Count: 4}}

	start := func() *poker.GameSession {
		sess, err := svc.StartSession(ctx, StartSessionRequest{PlayerIDs: []string{a, b}, Chips: chips})
		if err != nil {
			t.Fatalf("StartSession: %v", err)
		}
		if _, err := svc.SetPlayerChips(ctx, sess.ID, a, PlayerChipsRequest{ChipCounts: poker.ChipCounts{"red": 30, "blue": 2}}); err != nil {
			t.Fatalf("SetPlayerChips counts: %v", err)
		}
		return sess
	}

	t.Run("complete override", func(t *testing.T) {
		sess := start()
		done, err := svc.CompleteSession(ctx, sess.ID, CompleteRequest{FinalChips: map[string]int64{a: 260}})
		if err != nil {
			t.Fatalf("CompleteSession: %v", err)
		}
		sp := done.Player(a)
		if sp.FinalChips != 260 || sp.ChipCounts != nil {
			t.Errorf("player = %+v, want finalChips 260 and no chip counts", sp)
		}
	})

	t.Run("set final chips", func(t *testing.T) {
		sess := start()
		updated, err := svc.SetPlayerChips(ctx, sess.ID, a, PlayerChipsRequest{FinalChips: int64Ptr(150)})
		if err != nil {
			t.Fatalf("SetPlayerChips total: %v", err)
		}
		sp := updated.Player(a)
		if sp.FinalChips != 150 || sp.ChipCounts != nil {
			t.Errorf("player = %+v, want finalChips 150 and no chip counts", sp)
		}
	})

	t.Run("counts kept without override", func(t *testing.T) {
		sess := start()
		done, err := svc.CompleteSession(ctx, sess.ID, CompleteRequest{})
		if err != nil {
			t.Fatalf("CompleteSession: %v", err)
		}
		sp := done.Player(a)
		if sp.FinalChips != 200 || sp.ChipCounts["red"] != 30 {
			t.Errorf("player = %+v, want counts preserved", sp)
		}
	})
}
