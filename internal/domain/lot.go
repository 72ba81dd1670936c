package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Lot records the part of one in transaction consumed by one out transaction.
type Lot struct {
	TxOutID    int64
	TxInID     int64
	TxInVolume decimal.Decimal
	TxInCost   decimal.Decimal
	Pnl        decimal.Decimal
}

func (l Lot) Validate() error {
	if l.TxOutID <= 0 || l.TxInID <= 0 {
		return fmt.Errorf("lot requires both tx ids, got out=%d in=%d: %w", l.TxOutID, l.TxInID, ErrInvalidInput)
	}
	if !l.TxInVolume.IsPositive() {
		return fmt.Errorf("lot %d/%d: volume must be positive, got %s: %w", l.TxOutID, l.TxInID, l.TxInVolume, ErrInvalidInput)
	}
	return nil
}

func (l Lot) Equal(o Lot) bool {
	return l.TxOutID == o.TxOutID &&
		l.TxInID == o.TxInID &&
		l.TxInVolume.Equal(o.TxInVolume) &&
		l.TxInCost.Equal(o.TxInCost) &&
		l.Pnl.Equal(o.Pnl)
}
