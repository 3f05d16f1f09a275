package commands

import (
	"strings"
	"unicode/utf8"

	"github.com/susu3304/pokerledger/internal/poker"
)

// maxMessageLen is Discord's per-message content limit.
const maxMessageLen = 2000

// SplitMessage packs lines into messages no longer than maxMessageLen. A line
// that is itself too long is cut into maxMessageLen pieces on rune boundaries.
func SplitMessage(lines []string) []string {
	var (
		out    []string
		buffer strings.Builder
	)
	flush := func() {
		if buffer.Len() > 0 {
			out = append(out, buffer.String())
			buffer.Reset()
		}
	}
	for _, line := range lines {
		if len(line) > maxMessageLen {
			flush()
			for len(line) > maxMessageLen {
				cut := maxMessageLen
				for cut > 0 && !utf8.RuneStart(line[cut]) {
					cut--
				}
				out = append(out, line[:cut])
				line = line[cut:]
			}
		}
		if buffer.Len() > 0 && buffer.Len()+len(line)+1 > maxMessageLen {
			flush()
		}
		if buffer.Len() > 0 {
			buffer.WriteString("\n")
		}
		buffer.WriteString(line)
	}
	flush()
	return out
}

// NameIndex maps player ids to display names.
func NameIndex(players []poker.Player) map[string]string {
	names := make(map[string]string, len(players))
	for _, p := range players {
		names[p.ID] = p.Name
	}
	return names
}

func displayName(names map[string]string, id string) string {
	if n, ok := names[id]; ok {
		return n
	}
	return id
}

func signed(v float64) string {
	s := poker.FormatAmount(v)
	if poker.RoundCents(v) > 0 {
		return "+" + s
	}
	return s
}
