package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/josh-kwaku/fifo-ledger/internal/domain"
	"github.com/josh-kwaku/fifo-ledger/internal/stream"
)

const transactionColumns = `id, date, direction, volume, rate`

type TransactionRepository struct {
	db        *sql.DB
	batchSize int
}

func NewTransactionRepository(db *sql.DB, batchSize int) *TransactionRepository {
	return &TransactionRepository{db: db, batchSize: batchSize}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *sql.Tx, t domain.NewTransaction) (*domain.Transaction, error) {
	row := tx.QueryRowContext(ctx,
		`INSERT INTO transactions (date, direction, volume, rate)
		VALUES ($1, $2, $3, $4)
		RETURNING `+transactionColumns,
		t.Date, t.Direction, t.Volume, t.Rate,
	)
	created, err := scanTransaction(row)
	if err != nil {
		return nil, fmt.Errorf("Create: %w", mapError(err))
	}
	return created, nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	t, err := findOne(ctx, r.db, scanTransaction,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id,
	)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("GetByID: transaction %d: %w", id, err)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return t, nil
}

// ReadAll streams every transaction in FIFO order: by date, then by id for
// transactions sharing a date.
func (r *TransactionRepository) ReadAll(ctx context.Context) (*stream.Sequence[domain.Transaction], error) {
	seq, err := readCursor(ctx, r.db, r.batchSize, scanCountedTransaction,
		`SELECT `+transactionColumns+`, count(*) OVER () AS total_count
		FROM transactions
		ORDER BY date, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("ReadAll: %w", err)
	}
	return seq, nil
}

func scanTransaction(s scanner) (*domain.Transaction, error) {
	var t domain.Transaction
	err := s.Scan(&t.ID, &t.Date, &t.Direction, &t.Volume, &t.Rate)
	if err != nil {
		return nil, err
	}
	t.Date = t.Date.UTC()
	return &t, nil
}

func scanCountedTransaction(s scanner) (stream.Counted[domain.Transaction], error) {
	var c stream.Counted[domain.Transaction]
	err := s.Scan(&c.Item.ID, &c.Item.Date, &c.Item.Direction, &c.Item.Volume, &c.Item.Rate, &c.Total)
	if err != nil {
		return c, err
	}
	c.Item.Date = c.Item.Date.UTC()
	return c, nil
}
