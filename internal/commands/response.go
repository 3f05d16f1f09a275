package commands

import (
	"fmt"
	"strings"

	"github.com/susu3304/pokerledger/internal/poker"
)

func FormatBalances(players []poker.Player) []string {
	if len(players) == 0 {
		return []string{"No players yet."}
	}
	lines := []string{"**Balances**"}
	for _, p := range players {
		lines = append(lines, fmt.Sprintf("%s: %s", p.Name, signed(p.Balance)))
	}
	return lines
}

// FormatSettlement renders the suggested payments. The result is also used
// by the digest worker to detect changes, so it must be deterministic.
func FormatSettlement(s poker.Settlement, names map[string]string) []string {
	if len(s.Transactions) == 0 {
		return []string{"Everyone is settled up."}
	}
	lines := []string{fmt.Sprintf("**Settlement** (total %s)", poker.FormatAmount(s.TotalAmount))}
	for _, t := range s.Transactions {
		lines = append(lines, fmt.Sprintf("%s → %s: %s",
			displayName(names, t.From), displayName(names, t.To), poker.FormatAmount(t.Amount)))
	}
	return lines
}

func FormatSessions(sessions []poker.GameSession, names map[string]string, limit int) []string {
	if len(sessions) == 0 {
		return []string{"No sessions yet."}
	}
	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}
	var lines []string
	for _, s := range sessions {
		status := "active"
		if s.Completed {
			status = "completed"
		}
		lines = append(lines, fmt.Sprintf("**%s** (%s, %d players)", s.Date.Format("2006-01-02 15:04"), status, len(s.Players)))
		if !s.Completed {
			continue
		}
		deltas := s.Deltas()
		for _, sp := range s.Players {
			lines = append(lines, fmt.Sprintf("  %s: %s", displayName(names, sp.PlayerID), signed(deltas[sp.PlayerID])))
		}
	}
	return lines
}

// FormatStats renders statistics, optionally filtered by a case-insensitive
// player name.
func FormatStats(stats []poker.PlayerStats, player string) []string {
	var lines []string
	for _, st := range stats {
		if player != "" && !strings.EqualFold(st.PlayerName, player) {
			continue
		}
		lines = append(lines, fmt.Sprintf("**%s**: %d sessions, %d won / %d lost, net %s, best %s, worst %s, %.0f min played",
			st.PlayerName, st.TotalSessions, st.WinSessions, st.LossSessions,
			signed(st.CurrentBalance), signed(st.BestSession), signed(st.WorstSession), st.MinutesPlayed))
	}
	if len(lines) == 0 {
		if player != "" {
			return []string{fmt.Sprintf("No statistics for %s.", player)}
		}
		return []string{"No statistics yet."}
	}
	return lines
}
