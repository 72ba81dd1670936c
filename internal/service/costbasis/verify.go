package costbasis

import (
	"context"
	"errors"
	"fmt"

	"github.com/josh-kwaku/fifo-ledger/internal/domain"
	"github.com/josh-kwaku/fifo-ledger/internal/logging"
	"github.com/josh-kwaku/fifo-ledger/internal/stream"
)

type VerifyReport struct {
	Checked int
}

// Verify checks every stored snapshot against the one rebuilt from the lot
// trail. Inventory that was never sold leaves no lots, so only a closed
// ledger (nothing held after its last transaction) can be verified.
func (s *Service) Verify(ctx context.Context) (VerifyReport, error) {
	latest, err := s.snapshots.Latest(ctx)
	switch {
	case errors.Is(err, domain.ErrNotFound):
	case err != nil:
		return VerifyReport{}, fmt.Errorf("Verify: %w", err)
	case !latest.TotalVolume.IsZero():
		return VerifyReport{}, fmt.Errorf("Verify: %s held after tx %d: %w", latest.TotalVolume, latest.TxID, domain.ErrOpenPosition)
	}

	stored, err := s.snapshots.ReadAll(ctx)
	if err != nil {
		return VerifyReport{}, fmt.Errorf("Verify: %w", err)
	}
	defer stored.Close()

	rebuilt, err := s.ReadReconstructedCostBasis(ctx)
	if err != nil {
		return VerifyReport{}, fmt.Errorf("Verify: %w", err)
	}
	defer rebuilt.Close()

	report, err := Compare(ctx, stored, rebuilt)
	if err != nil {
		return report, fmt.Errorf("Verify: %w", err)
	}

	logging.FromContext(ctx).Info("cost basis verified", "checked", report.Checked)
	return report, nil
}

// Compare walks two snapshot sequences ordered by transaction id in step and
// fails on the first transaction where they differ or where one of them has
// no entry.
func Compare(ctx context.Context, want, got *stream.Sequence[domain.CostBasisSnapshot]) (VerifyReport, error) {
	var report VerifyReport
	for {
		w, wok, err := want.Next(ctx)
		if err != nil {
			return report, err
		}
		g, gok, err := got.Next(ctx)
		if err != nil {
			return report, err
		}

		switch {
		case !wok && !gok:
			return report, nil
		case !gok:
			return report, fmt.Errorf("tx %d: no rebuilt snapshot: %w", w.TxID, domain.ErrLedgerMismatch)
		case !wok:
			return report, fmt.Errorf("tx %d: no stored snapshot: %w", g.TxID, domain.ErrLedgerMismatch)
		case !w.Equal(g):
			return report, fmt.Errorf("stored %s, rebuilt %s: %w", w, g, domain.ErrLedgerMismatch)
		}
		report.Checked++
	}
}
