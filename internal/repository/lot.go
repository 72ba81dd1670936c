package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/josh-kwaku/fifo-ledger/internal/domain"
	"github.com/josh-kwaku/fifo-ledger/internal/stream"
)

const lotColumns = `tx_out_id, tx_in_id, tx_in_volume, tx_in_cost, pnl`

type LotRepository struct {
	db        *sql.DB
	batchSize int
}

func NewLotRepository(db *sql.DB, batchSize int) *LotRepository {
	return &LotRepository{db: db, batchSize: batchSize}
}

func (r *LotRepository) Create(ctx context.Context, tx *sql.Tx, l *domain.Lot) error {
	if err := l.Validate(); err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO cost_basis_lots (`+lotColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		l.TxOutID, l.TxInID, l.TxInVolume, l.TxInCost, l.Pnl,
	)
	if err != nil {
		return fmt.Errorf("Create: lot %d/%d: %w", l.TxOutID, l.TxInID, mapError(err))
	}
	return nil
}

func (r *LotRepository) GetByTxOutID(ctx context.Context, txOutID int64) ([]domain.Lot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+lotColumns+` FROM cost_basis_lots
		WHERE tx_out_id = $1 ORDER BY tx_in_id`, txOutID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByTxOutID: %w", err)
	}
	defer rows.Close()

	var lots []domain.Lot
	for rows.Next() {
		var l domain.Lot
		if err := rows.Scan(&l.TxOutID, &l.TxInID, &l.TxInVolume, &l.TxInCost, &l.Pnl); err != nil {
			return nil, fmt.Errorf("GetByTxOutID: scan: %w", err)
		}
		lots = append(lots, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetByTxOutID: rows: %w", err)
	}
	return lots, nil
}

func (r *LotRepository) ReadAll(ctx context.Context) (*stream.Sequence[domain.Lot], error) {
	seq, err := readCursor(ctx, r.db, r.batchSize, scanCountedLot,
		`SELECT `+lotColumns+`, count(*) OVER () AS total_count
		FROM cost_basis_lots
		ORDER BY tx_out_id, tx_in_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("ReadAll: %w", err)
	}
	return seq, nil
}

// ReadDeltas streams the signed per-transaction movements recorded by the lot
// trail, in ascending transaction id. An in transaction contributes the
// volume and cost drawn from it; an out transaction contributes the negated
// volume and cost it drew, plus its realized pnl.
func (r *LotRepository) ReadDeltas(ctx context.Context) (*stream.Sequence[domain.CostBasisDelta], error) {
	seq, err := readCursor(ctx, r.db, r.batchSize, scanCountedDelta,
		`SELECT tx_id, sum(volume), sum(cost_usd), sum(pnl), count(*) OVER () AS total_count
		FROM (
			SELECT tx_in_id AS tx_id, tx_in_volume AS volume, tx_in_cost AS cost_usd, 0::numeric AS pnl
			FROM cost_basis_lots
			UNION ALL
			SELECT tx_out_id, -tx_in_volume, -tx_in_cost, pnl
			FROM cost_basis_lots
		) AS movements
		GROUP BY tx_id
		ORDER BY tx_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("ReadDeltas: %w", err)
	}
	return seq, nil
}

func (r *LotRepository) DeleteAll(ctx context.Context, tx *sql.Tx) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM cost_basis_lots`)
	if err != nil {
		return 0, fmt.Errorf("DeleteAll: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("DeleteAll: rows affected: %w", err)
	}
	return n, nil
}

func scanCountedLot(s scanner) (stream.Counted[domain.Lot], error) {
	var c stream.Counted[domain.Lot]
	err := s.Scan(&c.Item.TxOutID, &c.Item.TxInID, &c.Item.TxInVolume, &c.Item.TxInCost, &c.Item.Pnl, &c.Total)
	return c, err
}

func scanCountedDelta(s scanner) (stream.Counted[domain.CostBasisDelta], error) {
	var c stream.Counted[domain.CostBasisDelta]
	err := s.Scan(&c.Item.TxID, &c.Item.Volume, &c.Item.CostUSD, &c.Item.Pnl, &c.Total)
	return c, err
}
