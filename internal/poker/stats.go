package poker

import (
	"math"
	"sort"
	"time"
)

type BalancePoint struct {
	SessionNumber int       `json:"sessionNumber"`
	Balance       float64   `json:"balance"`
	Date          time.Time `json:"date"`
}

type PlayerStats struct {
	PlayerID        string         `json:"playerId"`
	PlayerName      string         `json:"playerName"`
	TotalSessions   int            `json:"totalSessions"`
	MinutesPlayed   float64        `json:"minutesPlayed"`
	TotalMoneyMoved float64        `json:"totalMoneyMoved"`
	CurrentBalance  float64        `json:"currentBalance"`
	WinSessions     int            `json:"winSessions"`
	LossSessions    int            `json:"lossSessions"`
	BestSession     float64        `json:"bestSession"`
	WorstSession    float64        `json:"worstSession"`
	BalanceHistory  []BalancePoint `json:"balanceHistory"`
}

// ComputePlayerStats replays the completed sessions the player took part in,
// oldest first. CurrentBalance is the cumulative session result, which differs
// from Player.Balance if balances were reset.
func ComputePlayerStats(player Player, sessions []GameSession) PlayerStats {
	var played []GameSession
	for _, s := range sessions {
		if s.Completed && s.Player(player.ID) != nil {
			played = append(played, s)
		}
	}
	sort.SliceStable(played, func(i, j int) bool { return played[i].Date.Before(played[j].Date) })

	stats := PlayerStats{
		PlayerID:       player.ID,
		PlayerName:     player.Name,
		TotalSessions:  len(played),
		BalanceHistory: make([]BalancePoint, 0, len(played)),
	}
	for i := range played {
		s := &played[i]
		delta := s.Deltas()[player.ID]

		stats.CurrentBalance += delta
		stats.BalanceHistory = append(stats.BalanceHistory, BalancePoint{
			SessionNumber: i + 1,
			Balance:       stats.CurrentBalance,
			Date:          s.Date,
		})
		stats.TotalMoneyMoved += math.Abs(delta)

		switch {
		case delta > 0:
			stats.WinSessions++
		case delta < 0:
			stats.LossSessions++
		}
		stats.BestSession = math.Max(stats.BestSession, delta)
		stats.WorstSession = math.Min(stats.WorstSession, delta)

		if s.EndTime != nil {
			stats.MinutesPlayed += s.EndTime.Sub(s.Date).Minutes()
		}
	}
	return stats
}
