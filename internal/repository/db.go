package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/josh-kwaku/fifo-ledger/internal/domain"
)

type scanner interface {
	Scan(dest ...any) error
}

// Postgres SQLSTATE codes surfaced as domain errors.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeNotNullViolation    = "23502"
	codeCheckViolation      = "23514"
	codeInvalidText         = "22P02"
)

// mapError tags driver errors with the matching domain sentinel while keeping
// the driver error in the chain.
func mapError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case codeUniqueViolation:
		return fmt.Errorf("%w: %w", domain.ErrDuplicate, err)
	case codeForeignKeyViolation:
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	case codeNotNullViolation, codeCheckViolation, codeInvalidText:
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	default:
		return err
	}
}

// findOne runs a point lookup that must match exactly one row.
func findOne[T any](ctx context.Context, db *sql.DB, scan func(scanner) (*T, error), query string, args ...any) (*T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, domain.ErrNotFound
	}
	v, err := scan(rows)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	if rows.Next() {
		return nil, domain.ErrMultipleRecords
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return v, nil
}
