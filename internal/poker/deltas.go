package poker

// LoanCorrection is the net number of chips playerID borrowed minus lent.
// The bank is not a player and never matches.
func LoanCorrection(playerID string, loans []BorrowTransaction) int64 {
	var correction int64
	for _, loan := range loans {
		if loan.Borrower.Is(playerID) {
			correction += loan.Amount
		}
		if loan.Lender.Is(playerID) {
			correction -= loan.Amount
		}
	}
	return correction
}

// ComputeSessionDeltas converts each player's final chip count into a money
// delta for the session, with loans backed out. Values are not rounded.
func ComputeSessionDeltas(startingChips int64, conversionRate float64, players []SessionPlayer, loans []BorrowTransaction) map[string]float64 {
	deltas := make(map[string]float64, len(players))
	for _, p := range players {
		chipDelta := (p.FinalChips - startingChips) - LoanCorrection(p.PlayerID, loans)
		deltas[p.PlayerID] = float64(chipDelta) * conversionRate
	}
	return deltas
}
