package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/josh-kwaku/fifo-ledger/internal/domain"
	"github.com/josh-kwaku/fifo-ledger/internal/stream"
)

const costBasisColumns = `tx_id, total_volume, total_cost_usd, tx_pnl`

type CostBasisRepository struct {
	db        *sql.DB
	batchSize int
}

func NewCostBasisRepository(db *sql.DB, batchSize int) *CostBasisRepository {
	return &CostBasisRepository{db: db, batchSize: batchSize}
}

func (r *CostBasisRepository) Create(ctx context.Context, tx *sql.Tx, s *domain.CostBasisSnapshot) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO cost_basis (`+costBasisColumns+`) VALUES ($1, $2, $3, $4)`,
		s.TxID, s.TotalVolume, s.TotalCostUSD, s.TxPnl,
	)
	if err != nil {
		return fmt.Errorf("Create: tx %d: %w", s.TxID, mapError(err))
	}
	return nil
}

func (r *CostBasisRepository) GetByTxID(ctx context.Context, txID int64) (*domain.CostBasisSnapshot, error) {
	s, err := findOne(ctx, r.db, scanCostBasis,
		`SELECT `+costBasisColumns+` FROM cost_basis WHERE tx_id = $1`, txID,
	)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("GetByTxID: cost basis for tx %d: %w", txID, err)
		}
		return nil, fmt.Errorf("GetByTxID: %w", err)
	}
	return s, nil
}

// Latest returns the snapshot of the last transaction in FIFO order, which
// holds the ledger's closing balance.
func (r *CostBasisRepository) Latest(ctx context.Context) (*domain.CostBasisSnapshot, error) {
	s, err := findOne(ctx, r.db, scanCostBasis,
		`SELECT cb.tx_id, cb.total_volume, cb.total_cost_usd, cb.tx_pnl
		FROM cost_basis cb
		JOIN transactions t ON t.id = cb.tx_id
		ORDER BY t.date DESC, t.id DESC
		LIMIT 1`,
	)
	if err != nil {
		return nil, fmt.Errorf("Latest: %w", err)
	}
	return s, nil
}

func (r *CostBasisRepository) ReadAll(ctx context.Context) (*stream.Sequence[domain.CostBasisSnapshot], error) {
	seq, err := readCursor(ctx, r.db, r.batchSize, scanCountedCostBasis,
		`SELECT `+costBasisColumns+`, count(*) OVER () AS total_count
		FROM cost_basis
		ORDER BY tx_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("ReadAll: %w", err)
	}
	return seq, nil
}

func (r *CostBasisRepository) DeleteAll(ctx context.Context, tx *sql.Tx) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM cost_basis`)
	if err != nil {
		return 0, fmt.Errorf("DeleteAll: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("DeleteAll: rows affected: %w", err)
	}
	return n, nil
}

func scanCostBasis(s scanner) (*domain.CostBasisSnapshot, error) {
	var cb domain.CostBasisSnapshot
	err := s.Scan(&cb.TxID, &cb.TotalVolume, &cb.TotalCostUSD, &cb.TxPnl)
	if err != nil {
		return nil, err
	}
	return &cb, nil
}

func scanCountedCostBasis(s scanner) (stream.Counted[domain.CostBasisSnapshot], error) {
	var c stream.Counted[domain.CostBasisSnapshot]
	err := s.Scan(&c.Item.TxID, &c.Item.TotalVolume, &c.Item.TotalCostUSD, &c.Item.TxPnl, &c.Total)
	return c, err
}
