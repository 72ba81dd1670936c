package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/fifo-ledger/internal/domain"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"unique violation", &pq.Error{Code: "23505"}, domain.ErrDuplicate},
		{"foreign key violation", &pq.Error{Code: "23503"}, domain.ErrNotFound},
		{"not null violation", &pq.Error{Code: "23502"}, domain.ErrInvalidInput},
		{"check violation", &pq.Error{Code: "23514"}, domain.ErrInvalidInput},
		{"invalid text", &pq.Error{Code: "22P02"}, domain.ErrInvalidInput},
		{"wrapped driver error", fmt.Errorf("exec: %w", &pq.Error{Code: "23505"}), domain.ErrDuplicate},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := mapError(tc.err)

			require.ErrorIs(t, err, tc.wantErr)
			var pqErr *pq.Error
			assert.True(t, errors.As(err, &pqErr), "driver error stays in the chain")
		})
	}

	t.Run("other errors pass through", func(t *testing.T) {
		plain := errors.New("connection reset")
		assert.Same(t, plain, mapError(plain))

		serialization := &pq.Error{Code: "40001"}
		assert.Equal(t, error(serialization), mapError(serialization))
	})
}
