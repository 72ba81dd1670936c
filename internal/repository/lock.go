package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/josh-kwaku/fifo-ledger/internal/domain"
)

// LedgerLock is a Postgres session advisory lock pinned to one connection.
// Cost basis runs take it so at most one pass writes the ledger at a time.
type LedgerLock struct {
	conn *sql.Conn
	key  int64

	once sync.Once
	err  error
}

func AcquireLedgerLock(ctx context.Context, db *sql.DB, key int64) (*LedgerLock, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("AcquireLedgerLock: conn: %w", err)
	}

	var acquired bool
	if err := conn.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, key).Scan(&acquired); err != nil {
		conn.Close()
		return nil, fmt.Errorf("AcquireLedgerLock: %w", err)
	}
	if !acquired {
		conn.Close()
		return nil, fmt.Errorf("AcquireLedgerLock: key %d: %w", key, domain.ErrLedgerBusy)
	}
	return &LedgerLock{conn: conn, key: key}, nil
}

// Release unlocks and returns the connection to the pool. Only the first
// call has any effect.
func (l *LedgerLock) Release(ctx context.Context) error {
	l.once.Do(func() {
		_, err := l.conn.ExecContext(ctx, `SELECT pg_advisory_unlock($1)`, l.key)
		if cerr := l.conn.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			l.err = fmt.Errorf("LedgerLock.Release: %w", err)
		}
	})
	return l.err
}
