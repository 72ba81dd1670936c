package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CostBasisSnapshot is the running balance immediately after one transaction.
// TxPnl is the realized gain of an out transaction and zero for in.
type CostBasisSnapshot struct {
	TxID         int64
	TotalVolume  decimal.Decimal
	TotalCostUSD decimal.Decimal
	TxPnl        decimal.Decimal
}

func (s CostBasisSnapshot) Validate() error {
	if s.TxID <= 0 {
		return fmt.Errorf("cost basis tx id is required: %w", ErrInvalidInput)
	}
	if s.TotalVolume.IsNegative() {
		return fmt.Errorf("cost basis for tx %d: negative total volume %s: %w", s.TxID, s.TotalVolume, ErrInvalidInput)
	}
	return nil
}

// Equal compares numerically, so 1 and 1.00 read back from NUMERIC match.
func (s CostBasisSnapshot) Equal(o CostBasisSnapshot) bool {
	return s.TxID == o.TxID &&
		s.TotalVolume.Equal(o.TotalVolume) &&
		s.TotalCostUSD.Equal(o.TotalCostUSD) &&
		s.TxPnl.Equal(o.TxPnl)
}

func (s CostBasisSnapshot) String() string {
	return fmt.Sprintf("tx %d: volume=%s cost=%s pnl=%s", s.TxID, s.TotalVolume, s.TotalCostUSD, s.TxPnl)
}

// CostBasisDelta is the signed movement one transaction contributes to the
// running balance, as derived from the lot trail.
type CostBasisDelta struct {
	TxID    int64
	Volume  decimal.Decimal
	CostUSD decimal.Decimal
	Pnl     decimal.Decimal
}
