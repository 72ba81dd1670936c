package repository_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/fifo-ledger/internal/domain"
	"github.com/josh-kwaku/fifo-ledger/internal/repository"
	"github.com/josh-kwaku/fifo-ledger/internal/testutil"
)

func inTx(t *testing.T, db *sql.DB, fn func(tx *sql.Tx) error) error {
	t.Helper()
	tx, err := db.Begin()
	require.NoError(t, err)
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func TestTransactionRepository(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewTransactionRepository(db, 2)
	ctx := context.Background()

	t.Run("create returns the stored row", func(t *testing.T) {
		var created *domain.Transaction
		err := inTx(t, db, func(tx *sql.Tx) error {
			var err error
			created, err = repo.Create(ctx, tx, domain.NewTransaction{
				Date:      time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC),
				Direction: domain.DirectionIn,
				Volume:    decimal.RequireFromString("0.123456789012345678"),
				Rate:      decimal.RequireFromString("45000.01"),
			})
			return err
		})
		require.NoError(t, err)

		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, domain.DirectionIn, got.Direction)
		assert.True(t, got.Volume.Equal(decimal.RequireFromString("0.123456789012345678")), "numeric keeps full precision")
		assert.True(t, got.Date.Equal(time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)))
	})

	t.Run("check constraint maps to invalid input", func(t *testing.T) {
		err := inTx(t, db, func(tx *sql.Tx) error {
			_, err := repo.Create(ctx, tx, domain.NewTransaction{
				Date:      time.Now(),
				Direction: domain.DirectionIn,
				Volume:    decimal.NewFromInt(-1),
				Rate:      decimal.NewFromInt(1),
			})
			return err
		})
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := repo.GetByID(ctx, 424242)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestTransactionRepository_ReadAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewTransactionRepository(db, 2)
	ctx := context.Background()

	late := testutil.SeedTransaction(t, db, testutil.BaseDate.AddDate(0, 0, 2), testutil.In("1", "1"))
	early1 := testutil.SeedTransaction(t, db, testutil.BaseDate, testutil.In("1", "2"))
	early2 := testutil.SeedTransaction(t, db, testutil.BaseDate, testutil.In("1", "3"))
	mid := testutil.SeedTransaction(t, db, testutil.BaseDate.AddDate(0, 0, 1), testutil.Out("1", "4"))
	last := testutil.SeedTransaction(t, db, testutil.BaseDate.AddDate(0, 0, 3), testutil.Out("1", "5"))

	t.Run("ordered by date then id with length up front", func(t *testing.T) {
		seq, err := repo.ReadAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, 5, seq.Len())
		assert.Equal(t, 2, seq.BatchSize())

		got, err := seq.Collect(ctx)
		require.NoError(t, err)
		ids := make([]int64, 0, len(got))
		for _, tx := range got {
			ids = append(ids, tx.ID)
		}
		assert.Equal(t, []int64{early1.ID, early2.ID, mid.ID, late.ID, last.ID}, ids)
		assert.Zero(t, db.Stats().InUse, "cursor connection returned after exhaustion")
	})

	t.Run("early close releases the cursor", func(t *testing.T) {
		seq, err := repo.ReadAll(ctx)
		require.NoError(t, err)

		first, ok, err := seq.Next(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, early1.ID, first.ID)
		assert.Equal(t, 1, db.Stats().InUse)

		require.NoError(t, seq.Close())
		require.NoError(t, seq.Close())
		assert.Zero(t, db.Stats().InUse)
	})

	t.Run("concurrent cursors are independent", func(t *testing.T) {
		a, err := repo.ReadAll(ctx)
		require.NoError(t, err)
		b, err := repo.ReadAll(ctx)
		require.NoError(t, err)

		gotA, err := a.Collect(ctx)
		require.NoError(t, err)
		gotB, err := b.Collect(ctx)
		require.NoError(t, err)
		assert.Equal(t, gotA, gotB)
	})
}

func TestTransactionRepository_ReadAllEmpty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	seq, err := repository.NewTransactionRepository(db, 10).ReadAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0, seq.Len())
	assert.Zero(t, db.Stats().InUse, "empty result releases on the length peek")
	got, err := seq.Collect(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCostBasisAndLotRepositories(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	snapshots := repository.NewCostBasisRepository(db, 2)
	lots := repository.NewLotRepository(db, 2)

	txs := testutil.SeedHistory(t, db,
		testutil.In("1", "100"),
		testutil.In("1", "120"),
		testutil.Out("2", "125"),
	)

	err := inTx(t, db, func(tx *sql.Tx) error {
		for _, s := range []domain.CostBasisSnapshot{
			{TxID: txs[0].ID, TotalVolume: decimal.NewFromInt(1), TotalCostUSD: decimal.NewFromInt(100), TxPnl: decimal.Zero},
			{TxID: txs[1].ID, TotalVolume: decimal.NewFromInt(2), TotalCostUSD: decimal.NewFromInt(220), TxPnl: decimal.Zero},
			{TxID: txs[2].ID, TotalVolume: decimal.Zero, TotalCostUSD: decimal.Zero, TxPnl: decimal.NewFromInt(30)},
		} {
			if err := snapshots.Create(ctx, tx, &s); err != nil {
				return err
			}
		}
		for _, l := range []domain.Lot{
			{TxOutID: txs[2].ID, TxInID: txs[1].ID, TxInVolume: decimal.NewFromInt(1), TxInCost: decimal.NewFromInt(120), Pnl: decimal.NewFromInt(5)},
			{TxOutID: txs[2].ID, TxInID: txs[0].ID, TxInVolume: decimal.NewFromInt(1), TxInCost: decimal.NewFromInt(100), Pnl: decimal.NewFromInt(25)},
		} {
			if err := lots.Create(ctx, tx, &l); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	t.Run("snapshot lookups", func(t *testing.T) {
		got, err := snapshots.GetByTxID(ctx, txs[1].ID)
		require.NoError(t, err)
		assert.True(t, got.TotalCostUSD.Equal(decimal.NewFromInt(220)))

		latest, err := snapshots.Latest(ctx)
		require.NoError(t, err)
		assert.Equal(t, txs[2].ID, latest.TxID)
	})

	t.Run("duplicate snapshot", func(t *testing.T) {
		err := inTx(t, db, func(tx *sql.Tx) error {
			return snapshots.Create(ctx, tx, &domain.CostBasisSnapshot{TxID: txs[0].ID, TotalVolume: decimal.Zero})
		})
		require.ErrorIs(t, err, domain.ErrDuplicate)
	})

	t.Run("snapshot for unknown transaction", func(t *testing.T) {
		err := inTx(t, db, func(tx *sql.Tx) error {
			return snapshots.Create(ctx, tx, &domain.CostBasisSnapshot{TxID: 9999, TotalVolume: decimal.Zero})
		})
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("invalid records rejected before the database", func(t *testing.T) {
		err := inTx(t, db, func(tx *sql.Tx) error {
			return snapshots.Create(ctx, tx, &domain.CostBasisSnapshot{TxID: txs[0].ID, TotalVolume: decimal.NewFromInt(-1)})
		})
		require.ErrorIs(t, err, domain.ErrInvalidInput)

		err = inTx(t, db, func(tx *sql.Tx) error {
			return lots.Create(ctx, tx, &domain.Lot{TxOutID: txs[2].ID, TxInID: txs[0].ID, TxInVolume: decimal.Zero})
		})
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("lots ordered by out then in", func(t *testing.T) {
		seq, err := lots.ReadAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, seq.Len())
		got, err := seq.Collect(ctx)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, txs[0].ID, got[0].TxInID)
		assert.Equal(t, txs[1].ID, got[1].TxInID)

		byOut, err := lots.GetByTxOutID(ctx, txs[2].ID)
		require.NoError(t, err)
		assert.Len(t, byOut, 2)
	})

	t.Run("deltas group signed movements by transaction", func(t *testing.T) {
		seq, err := lots.ReadDeltas(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, seq.Len())

		got, err := seq.Collect(ctx)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, txs[0].ID, got[0].TxID)
		assert.True(t, got[0].Volume.Equal(decimal.NewFromInt(1)))
		assert.True(t, got[1].CostUSD.Equal(decimal.NewFromInt(120)))
		assert.True(t, got[2].Volume.Equal(decimal.NewFromInt(-2)))
		assert.True(t, got[2].CostUSD.Equal(decimal.NewFromInt(-220)))
		assert.True(t, got[2].Pnl.Equal(decimal.NewFromInt(30)))
	})

	t.Run("delete all", func(t *testing.T) {
		var nLots, nSnaps int64
		err := inTx(t, db, func(tx *sql.Tx) error {
			var err error
			if nLots, err = lots.DeleteAll(ctx, tx); err != nil {
				return err
			}
			nSnaps, err = snapshots.DeleteAll(ctx, tx)
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), nLots)
		assert.Equal(t, int64(3), nSnaps)

		_, err = snapshots.Latest(ctx)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestLedgerLock(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	const key = 42

	first, err := repository.AcquireLedgerLock(ctx, db, key)
	require.NoError(t, err)

	_, err = repository.AcquireLedgerLock(ctx, db, key)
	require.ErrorIs(t, err, domain.ErrLedgerBusy)

	other, err := repository.AcquireLedgerLock(ctx, db, key+1)
	require.NoError(t, err)
	require.NoError(t, other.Release(ctx))

	require.NoError(t, first.Release(ctx))
	require.NoError(t, first.Release(ctx))

	again, err := repository.AcquireLedgerLock(ctx, db, key)
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
}
