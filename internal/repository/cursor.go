package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/josh-kwaku/fifo-ledger/internal/stream"
)

const cursorName = "ledger_read"

// readCursor streams the rows of query through a server-side cursor held in
// its own read-only transaction. query must select count(*) OVER () as its
// last column; scan receives it as the Total of the returned row. The
// transaction, and with it the pooled connection, is released when the
// sequence ends, fails or is closed.
func readCursor[T any](ctx context.Context, db *sql.DB, batchSize int, scan func(scanner) (stream.Counted[T], error), query string) (*stream.Sequence[T], error) {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("readCursor: begin: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DECLARE `+cursorName+` NO SCROLL CURSOR FOR `+query); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("readCursor: declare: %w", mapError(err))
	}

	release := func() error {
		// ending the transaction closes the cursor
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			return fmt.Errorf("readCursor: release: %w", err)
		}
		return nil
	}

	fetch := func(ctx context.Context, size int) ([]stream.Counted[T], error) {
		rows, err := tx.QueryContext(ctx, fmt.Sprintf(`FETCH FORWARD %d FROM %s`, size, cursorName))
		if err != nil {
			return nil, fmt.Errorf("readCursor: fetch: %w", err)
		}
		defer rows.Close()

		batch := make([]stream.Counted[T], 0, size)
		for rows.Next() {
			row, err := scan(rows)
			if err != nil {
				return nil, fmt.Errorf("readCursor: scan: %w", err)
			}
			batch = append(batch, row)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("readCursor: rows: %w", err)
		}
		return batch, nil
	}

	seq, err := stream.Measure(ctx, stream.New(fetch, release, stream.WithBatchSize(batchSize)))
	if err != nil {
		return nil, fmt.Errorf("readCursor: %w", err)
	}
	return seq, nil
}
