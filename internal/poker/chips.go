package poker

// StartingStack is the chip value issued to each player for the given set.
func StartingStack(chips []Chip) int64 {
	var total int64
	for _, c := range chips {
		total += c.Value * c.Count
	}
	return total
}

// CountValue totals a visual chip count. Ids missing from chips are ignored.
func CountValue(chips []Chip, counts ChipCounts) int64 {
	values := make(map[string]int64, len(chips))
	for _, c := range chips {
		values[c.ID] = c.Value
	}
	var total int64
	for id, n := range counts {
		total += values[id] * n
	}
	return total
}

// InitialCounts is the per-denomination stack a player receives at the start.
func InitialCounts(chips []Chip) ChipCounts {
	counts := make(ChipCounts, len(chips))
	for _, c := range chips {
		counts[c.ID] = c.Count
	}
	return counts
}

const DefaultConversionRate = 0.01

func DefaultChips() []Chip {
	return []Chip{
		{ID: "chip-1", Label: "1", Color: "#8B4513", Value: 1, Count: 20},
		{ID: "chip-2", Label: "5", Color: "#FFFFFF", Value: 5, Count: 20},
		{ID: "chip-3", Label: "25", Color: "#2E7D32", Value: 25, Count: 20},
		{ID: "chip-4", Label: "50", Color: "#1976D2", Value: 50, Count: 20},
		{ID: "chip-5", Label: "100", Color: "#FBC02D", Value: 100, Count: 20},
	}
}
