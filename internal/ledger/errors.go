package ledger

import (
	"errors"
	"fmt"

	"github.com/susu3304/pokerledger/internal/poker"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrSessionCompleted = errors.New("session already completed")
	ErrSessionActive    = errors.New("session is still active")
	ErrUnsettledBalance = errors.New("player balance is not settled")
	ErrLastPreset       = errors.New("cannot delete the last preset")
)

// UnsettledBalance wraps ErrUnsettledBalance with the player's name and balance.
func UnsettledBalance(name string, balance float64) error {
	return fmt.Errorf("%w: %s has %s", ErrUnsettledBalance, name, poker.FormatAmount(balance))
}
