package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

func (d Direction) IsValid() bool {
	return d == DirectionIn || d == DirectionOut
}

func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	if !d.IsValid() {
		return "", fmt.Errorf("direction %q: %w", s, ErrInvalidInput)
	}
	return d, nil
}

// Transaction is an acquisition (in) or disposal (out) of the ledger asset.
// ID is assigned by the store and breaks ties between equal dates.
type Transaction struct {
	ID        int64
	Date      time.Time
	Direction Direction
	Volume    decimal.Decimal
	Rate      decimal.Decimal
}

// NewTransaction holds the caller-supplied fields of a transaction before the
// store assigns its id.
type NewTransaction struct {
	Date      time.Time
	Direction Direction
	Volume    decimal.Decimal
	Rate      decimal.Decimal
}

func (t NewTransaction) Validate() error {
	if t.Date.IsZero() {
		return fmt.Errorf("date is required: %w", ErrInvalidInput)
	}
	if !t.Direction.IsValid() {
		return fmt.Errorf("direction %q: %w", t.Direction, ErrInvalidInput)
	}
	if !t.Volume.IsPositive() {
		return fmt.Errorf("volume must be positive, got %s: %w", t.Volume, ErrInvalidInput)
	}
	if !t.Rate.IsPositive() {
		return fmt.Errorf("rate must be positive, got %s: %w", t.Rate, ErrInvalidInput)
	}
	return nil
}

// Cost is the quote-currency value of the transaction at its own rate.
func (t Transaction) Cost() decimal.Decimal {
	return t.Volume.Mul(t.Rate)
}
