package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/fifo-ledger/internal/domain"
	"github.com/josh-kwaku/fifo-ledger/internal/repository"
	"github.com/josh-kwaku/fifo-ledger/internal/service"
	"github.com/josh-kwaku/fifo-ledger/internal/testutil"
)

func TestTransactionService(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewTransactionService(repository.NewTransactionRepository(db, 2), db)
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		created, err := svc.CreateTransaction(ctx, domain.NewTransaction{
			Date:      time.Date(2021, 1, 5, 0, 0, 0, 0, time.UTC),
			Direction: domain.DirectionIn,
			Volume:    decimal.RequireFromString("1.25"),
			Rate:      decimal.RequireFromString("100"),
		})
		require.NoError(t, err)
		assert.Positive(t, created.ID)

		got, err := svc.GetTransaction(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.Date, got.Date)
		assert.True(t, got.Volume.Equal(decimal.RequireFromString("1.25")))
	})

	t.Run("create rejects invalid input", func(t *testing.T) {
		_, err := svc.CreateTransaction(ctx, domain.NewTransaction{
			Date:      time.Now(),
			Direction: domain.DirectionOut,
			Volume:    decimal.Zero,
			Rate:      decimal.NewFromInt(1),
		})
		require.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.NotContains(t, err.Error(), "row")
		assert.NotContains(t, err.Error(), "line")
	})

	t.Run("get unknown id", func(t *testing.T) {
		_, err := svc.GetTransaction(ctx, 999_999)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("import is all or nothing", func(t *testing.T) {
		before := testutil.CountRows(t, db, "transactions")

		_, err := svc.ImportCSV(ctx, strings.NewReader("2021-01-01,in,1,100\n2021-01-02,out,-1,100\n"))

		require.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Contains(t, err.Error(), "line 2")
		assert.Equal(t, before, testutil.CountRows(t, db, "transactions"))
	})

	t.Run("import then read in fifo order", func(t *testing.T) {
		created, err := svc.ImportCSV(ctx, strings.NewReader(
			"date,direction,volume,rate\n"+
				"2021-01-03,out,1,130\n"+
				"2021-01-01,in,1,100\n"+
				"2021-01-01,in,1,120\n",
		))
		require.NoError(t, err)
		require.Len(t, created, 3)

		seq, err := svc.ReadAllTransactions(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, seq.Len())

		all, err := seq.Collect(ctx)
		require.NoError(t, err)
		require.Len(t, all, 4)
		assert.Equal(t, created[1].ID, all[0].ID)
		assert.Equal(t, created[2].ID, all[1].ID, "same date falls back to id")
		assert.Equal(t, created[0].ID, all[2].ID)
		for i := 1; i < len(all); i++ {
			assert.False(t, all[i].Date.Before(all[i-1].Date))
		}
	})
}
