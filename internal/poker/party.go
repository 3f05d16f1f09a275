package poker

import "errors"

const bankLiteral = "bank"

// Party is one side of a chip loan: either the bank or a tracked player.
// The zero value is not a valid party.
type Party struct {
	bank     bool
	playerID string
}

func Bank() Party { return Party{bank: true} }

func PlayerRef(id string) Party { return Party{playerID: id} }

func (p Party) IsBank() bool { return p.bank }

// PlayerID returns the referenced player, or false for the bank.
func (p Party) PlayerID() (string, bool) {
	if p.bank || p.playerID == "" {
		return "", false
	}
	return p.playerID, true
}

// Is reports whether p refers to the player with the given id.
func (p Party) Is(playerID string) bool {
	id, ok := p.PlayerID()
	return ok && id == playerID
}

func (p Party) Valid() bool { return p.bank || p.playerID != "" }

func (p Party) String() string {
	if p.bank {
		return bankLiteral
	}
	return p.playerID
}

// ParseParty reads the text form used on the wire: "bank" or a player id.
func ParseParty(s string) (Party, error) {
	switch s {
	case "":
		return Party{}, errors.New("empty party")
	case bankLiteral:
		return Bank(), nil
	default:
		return PlayerRef(s), nil
	}
}

func (p Party) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, errors.New("invalid party")
	}
	return []byte(p.String()), nil
}

func (p *Party) UnmarshalText(text []byte) error {
	parsed, err := ParseParty(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
