package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDirection(t *testing.T) {
	tests := []struct {
		input   string
		want    Direction
		wantErr bool
	}{
		{"in", DirectionIn, false},
		{"OUT", DirectionOut, false},
		{" In ", DirectionIn, false},
		{"buy", "", true},
		{"", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseDirection(tc.input)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNewTransaction_Validate(t *testing.T) {
	valid := NewTransaction{
		Date:      time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		Direction: DirectionIn,
		Volume:    decimal.NewFromInt(1),
		Rate:      decimal.NewFromInt(100),
	}

	tests := []struct {
		name    string
		modify  func(*NewTransaction)
		wantErr bool
	}{
		{"valid", func(*NewTransaction) {}, false},
		{"missing date", func(t *NewTransaction) { t.Date = time.Time{} }, true},
		{"unknown direction", func(t *NewTransaction) { t.Direction = "hold" }, true},
		{"zero volume", func(t *NewTransaction) { t.Volume = decimal.Zero }, true},
		{"negative volume", func(t *NewTransaction) { t.Volume = decimal.NewFromInt(-2) }, true},
		{"zero rate", func(t *NewTransaction) { t.Rate = decimal.Zero }, true},
		{"unset rate", func(t *NewTransaction) { t.Rate = decimal.Decimal{} }, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tx := valid
			tc.modify(&tx)

			err := tx.Validate()
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestTransaction_Cost(t *testing.T) {
	tx := Transaction{Volume: decimal.RequireFromString("0.3"), Rate: decimal.RequireFromString("0.1")}
	assert.True(t, tx.Cost().Equal(decimal.RequireFromString("0.03")))
}

func TestCostBasisSnapshot_Validate(t *testing.T) {
	assert.NoError(t, CostBasisSnapshot{TxID: 1, TotalVolume: decimal.Zero}.Validate())
	assert.ErrorIs(t, CostBasisSnapshot{TxID: 0}.Validate(), ErrInvalidInput)
	assert.ErrorIs(t, CostBasisSnapshot{TxID: 1, TotalVolume: decimal.NewFromInt(-1)}.Validate(), ErrInvalidInput)
}

func TestCostBasisSnapshot_EqualIgnoresScale(t *testing.T) {
	a := CostBasisSnapshot{TxID: 1, TotalVolume: decimal.RequireFromString("1.50"), TotalCostUSD: decimal.NewFromInt(3), TxPnl: decimal.Zero}
	b := CostBasisSnapshot{TxID: 1, TotalVolume: decimal.RequireFromString("1.5"), TotalCostUSD: decimal.RequireFromString("3.000")}

	assert.True(t, a.Equal(b))
	b.TxID = 2
	assert.False(t, a.Equal(b))
}

func TestLot_Validate(t *testing.T) {
	assert.NoError(t, Lot{TxOutID: 2, TxInID: 1, TxInVolume: decimal.NewFromInt(1)}.Validate())
	assert.ErrorIs(t, Lot{TxInID: 1, TxInVolume: decimal.NewFromInt(1)}.Validate(), ErrInvalidInput)
	assert.ErrorIs(t, Lot{TxOutID: 2, TxInID: 1}.Validate(), ErrInvalidInput)
}
