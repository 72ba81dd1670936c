package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/josh-kwaku/fifo-ledger/internal/domain"
	"github.com/josh-kwaku/fifo-ledger/internal/logging"
	"github.com/josh-kwaku/fifo-ledger/internal/stream"
)

type transactionRepo interface {
	Create(ctx context.Context, tx *sql.Tx, t domain.NewTransaction) (*domain.Transaction, error)
	GetByID(ctx context.Context, id int64) (*domain.Transaction, error)
	ReadAll(ctx context.Context) (*stream.Sequence[domain.Transaction], error)
}

type TransactionService struct {
	transactions transactionRepo
	db           *sql.DB
}

func NewTransactionService(transactions transactionRepo, db *sql.DB) *TransactionService {
	return &TransactionService{transactions: transactions, db: db}
}

func (s *TransactionService) CreateTransaction(ctx context.Context, t domain.NewTransaction) (*domain.Transaction, error) {
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("CreateTransaction: %w", err)
	}

	created, err := s.insertAll(ctx, []domain.NewTransaction{t})
	if err != nil {
		return nil, fmt.Errorf("CreateTransaction: %w", err)
	}

	logging.FromContext(ctx).Info("transaction created",
		"tx_id", created[0].ID,
		"direction", created[0].Direction,
		"volume", created[0].Volume,
		"rate", created[0].Rate,
	)
	return &created[0], nil
}

func (s *TransactionService) GetTransaction(ctx context.Context, id int64) (*domain.Transaction, error) {
	t, err := s.transactions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetTransaction: %w", err)
	}
	return t, nil
}

// ReadAllTransactions streams the ledger in FIFO order. The caller must
// drain or close the returned sequence.
func (s *TransactionService) ReadAllTransactions(ctx context.Context) (*stream.Sequence[domain.Transaction], error) {
	seq, err := s.transactions.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("ReadAllTransactions: %w", err)
	}
	return seq, nil
}

// ImportCSV parses and validates every row of r, then stores them all in one
// database transaction, so a bad row leaves the ledger untouched. Rows are inserted in
// file order, which fixes the id tie-break between rows sharing a date.
func (s *TransactionService) ImportCSV(ctx context.Context, r io.Reader) ([]domain.Transaction, error) {
	rows, err := ParseTransactionsCSV(r)
	if err != nil {
		return nil, fmt.Errorf("ImportCSV: %w", err)
	}

	created, err := s.insertAll(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("ImportCSV: %w", err)
	}

	logging.FromContext(ctx).Info("transactions imported", "count", len(created))
	return created, nil
}

// insertAll expects rows that already passed Validate.
func (s *TransactionService) insertAll(ctx context.Context, rows []domain.NewTransaction) ([]domain.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	created := make([]domain.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := s.transactions.Create(ctx, tx, row)
		if err != nil {
			return nil, err
		}
		created = append(created, *t)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return created, nil
}
