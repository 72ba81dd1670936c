package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/fifo-ledger/internal/domain"
)

// BaseDate is the date of the first seeded transaction. Day n of a seeded
// history falls n-1 days later.
var BaseDate = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// TxSpec describes one transaction to seed, e.g. {"in", "4", "100"}.
type TxSpec struct {
	Direction string
	Volume    string
	Rate      string
}

func In(volume, rate string) TxSpec { return TxSpec{"in", volume, rate} }
func Out(volume, rate string) TxSpec { return TxSpec{"out", volume, rate} }

func SeedTransaction(t *testing.T, db *sql.DB, date time.Time, spec TxSpec) domain.Transaction {
	t.Helper()

	tx := domain.Transaction{
		Date:      date.UTC(),
		Direction: domain.Direction(spec.Direction),
		Volume:    decimal.RequireFromString(spec.Volume),
		Rate:      decimal.RequireFromString(spec.Rate),
	}
	err := db.QueryRow(
		`INSERT INTO transactions (date, direction, volume, rate)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		tx.Date, tx.Direction, tx.Volume, tx.Rate,
	).Scan(&tx.ID)
	if err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
	return tx
}

// SeedHistory inserts specs on consecutive days starting at BaseDate, so ids
// and dates agree on order.
func SeedHistory(t *testing.T, db *sql.DB, specs ...TxSpec) []domain.Transaction {
	t.Helper()

	txs := make([]domain.Transaction, 0, len(specs))
	for i, spec := range specs {
		txs = append(txs, SeedTransaction(t, db, BaseDate.AddDate(0, 0, i), spec))
	}
	return txs
}

func CountRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()

	var n int
	if err := db.QueryRow(`SELECT count(*) FROM ` + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
