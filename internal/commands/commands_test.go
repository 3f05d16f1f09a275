package commands

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/susu3304/pokerledger/internal/config"
	"github.com/susu3304/pokerledger/internal/ledger"
	"github.com/susu3304/pokerledger/internal/poker"
)

func TestSplitMessage(t *testing.T) {
	line := strings.Repeat("x", 900)
	got := SplitMessage([]string{line, line, line})
	if len(got) != 2 {
		t.Fatalf("got %d messages, want 2", len(got))
	}
	for _, m := range got {
		if len(m) > maxMessageLen {
			t.Errorf("message of %d chars exceeds limit", len(m))
		}
	}
	if got[0] != line+"\n"+line {
		t.Error("first message should hold two lines")
	}

	if got := SplitMessage(nil); len(got) != 0 {
		t.Errorf("SplitMessage(nil) = %v", got)
	}
}

func TestSplitMessage_LongLine(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		pieces int
	}{
		{"ascii", strings.Repeat("x", 4500), 3},
		{"multibyte", strings.Repeat("→", 700), 2},
		{"exact limit", strings.Repeat("y", maxMessageLen), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitMessage([]string{"head", tt.line, "tail"})
			if got[0] != "head" {
				t.Fatalf("first message = %q, want head on its own", got[0])
			}
			body := got[1:]
			if len(body) != tt.pieces {
				t.Fatalf("got %d pieces, want %d", len(body), tt.pieces)
			}
			for i, m := range body {
				if len(m) > maxMessageLen {
					t.Errorf("piece %d has %d bytes", i, len(m))
				}
				if !utf8.ValidString(m) {
					t.Errorf("piece %d splits a rune", i)
				}
			}
			if joined := strings.Join(body, ""); joined != tt.line+"\ntail" {
				t.Errorf("content not preserved: got %d bytes, want %d", len(joined), len(tt.line)+5)
			}
		})
	}
}

func TestFormatSettlement(t *testing.T) {
	names := map[string]string{"p1": "Alice", "p2": "Bob"}
	s := poker.Settlement{
		Transactions: []poker.Transaction{{From: "p2", To: "p1", Amount: 12.5}, {From: "p3", To: "p1", Amount: 1}},
		TotalAmount:  13.5,
	}
	got := strings.Join(FormatSettlement(s, names), "\n")
	for _, want := range []string{"total 13.50", "Bob → Alice: 12.50", "p3 → Alice: 1.00"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}

	if got := FormatSettlement(poker.Settlement{}, names); got[0] != "Everyone is settled up." {
		t.Errorf("empty settlement = %v", got)
	}
}

func TestFormatBalances(t *testing.T) {
	got := FormatBalances([]poker.Player{{ID: "p1", Name: "Alice", Balance: 10}, {ID: "p2", Name: "Bob", Balance: -10}, {ID: "p3", Name: "Cy"}})
	want := []string{"**Balances**", "Alice: +10.00", "Bob: -10.00", "Cy: 0.00"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFormatSessions(t *testing.T) {
	date := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)
	sessions := []poker.GameSession{
		{ID: "s2", Date: date.Add(24 * time.Hour), Players: []poker.SessionPlayer{{PlayerID: "p1"}, {PlayerID: "p2"}}},
		{
			ID: "s1", Date: date, Completed: true, StartingChips: 100, ConversionRate: 0.1,
			Players: []poker.SessionPlayer{
				{PlayerID: "p1", StartingChips: 100, FinalChips: 150},
				{PlayerID: "p2", StartingChips: 100, FinalChips: 50},
			},
		},
	}
	got := FormatSessions(sessions, map[string]string{"p1": "Alice", "p2": "Bob"}, 5)
	want := []string{
		"**2024-03-02 20:00** (active, 2 players)",
		"**2024-03-01 20:00** (completed, 2 players)",
		"  Alice: +5.00",
		"  Bob: -5.00",
	}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("got %v, want %v", got, want)
	}

	if got := FormatSessions(sessions, nil, 1); len(got) != 1 {
		t.Errorf("limit 1 gave %v", got)
	}
}

func TestFormatStats(t *testing.T) {
	stats := []poker.PlayerStats{
		{PlayerName: "Alice", TotalSessions: 2, WinSessions: 2, CurrentBalance: 7},
		{PlayerName: "Bob", TotalSessions: 2, LossSessions: 2, CurrentBalance: -7},
	}
	if got := FormatStats(stats, ""); len(got) != 2 {
		t.Errorf("unfiltered = %v", got)
	}
	got := FormatStats(stats, "bob")
	if len(got) != 1 || !strings.HasPrefix(got[0], "**Bob**") {
		t.Errorf("filtered = %v", got)
	}
	if got := FormatStats(stats, "Zed"); got[0] != "No statistics for Zed." {
		t.Errorf("unknown player = %v", got)
	}
}

func TestPokerReply(t *testing.T) {
	ctx := context.Background()
	svc := ledger.NewService(ledger.NewMemoryStore())
	cfg := &config.Config{WebUIBaseURL: "https://poker.example"}
	if _, err := svc.CreatePlayer(ctx, "Alice"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		sub  string
		want string
	}{
		{"balances", "Alice: 0.00"},
		{"settle", "Everyone is settled up."},
		{"sessions", "No sessions yet."},
		{"stats", "**Alice**: 0 sessions"},
		{"web", "https://poker.example"},
	}
	for _, tt := range tests {
		t.Run(tt.sub, func(t *testing.T) {
			lines, err := pokerReply(ctx, svc, cfg, &discordgo.ApplicationCommandInteractionDataOption{Name: tt.sub})
			if err != nil {
				t.Fatalf("pokerReply: %v", err)
			}
			if got := strings.Join(lines, "\n"); !strings.Contains(got, tt.want) {
				t.Errorf("got %q, want it to contain %q", got, tt.want)
			}
		})
	}

	if _, err := pokerReply(ctx, svc, cfg, &discordgo.ApplicationCommandInteractionDataOption{Name: "nope"}); err == nil {
		t.Error("expected error for unknown subcommand")
	}
}
