package costbasis

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/fifo-ledger/internal/domain"
	"github.com/josh-kwaku/fifo-ledger/internal/stream"
)

// DeltasFromLots groups a lot trail into signed per-transaction movements,
// ordered by transaction id. It is the in-memory twin of the store's delta
// query.
func DeltasFromLots(lots []domain.Lot) []domain.CostBasisDelta {
	byID := make(map[int64]*domain.CostBasisDelta)
	get := func(id int64) *domain.CostBasisDelta {
		d, ok := byID[id]
		if !ok {
			d = &domain.CostBasisDelta{TxID: id}
			byID[id] = d
		}
		return d
	}

	for _, l := range lots {
		in := get(l.TxInID)
		in.Volume = in.Volume.Add(l.TxInVolume)
		in.CostUSD = in.CostUSD.Add(l.TxInCost)

		out := get(l.TxOutID)
		out.Volume = out.Volume.Sub(l.TxInVolume)
		out.CostUSD = out.CostUSD.Sub(l.TxInCost)
		out.Pnl = out.Pnl.Add(l.Pnl)
	}

	deltas := make([]domain.CostBasisDelta, 0, len(byID))
	for _, d := range byID {
		deltas = append(deltas, *d)
	}
	slices.SortFunc(deltas, func(a, b domain.CostBasisDelta) int {
		return cmp.Compare(a.TxID, b.TxID)
	})
	return deltas
}

// Reconstruct turns deltas, which must arrive in ascending transaction id,
// into running snapshots by prefix sum. The result owns deltas.
func Reconstruct(deltas *stream.Sequence[domain.CostBasisDelta]) *stream.Sequence[domain.CostBasisSnapshot] {
	var (
		volume, cost decimal.Decimal
		lastID       int64
	)
	return stream.Map(deltas, func(d domain.CostBasisDelta) (domain.CostBasisSnapshot, error) {
		if d.TxID <= lastID {
			return domain.CostBasisSnapshot{}, fmt.Errorf("Reconstruct: tx %d after tx %d: %w", d.TxID, lastID, domain.ErrInvalidInput)
		}
		lastID = d.TxID
		volume = volume.Add(d.Volume)
		cost = cost.Add(d.CostUSD)
		return domain.CostBasisSnapshot{
			TxID:         d.TxID,
			TotalVolume:  volume,
			TotalCostUSD: cost,
			TxPnl:        d.Pnl,
		}, nil
	})
}

// ReadReconstructedCostBasis rebuilds the snapshot sequence from the stored
// lot trail alone, without reading stored snapshots.
func (s *Service) ReadReconstructedCostBasis(ctx context.Context) (*stream.Sequence[domain.CostBasisSnapshot], error) {
	deltas, err := s.lots.ReadDeltas(ctx)
	if err != nil {
		return nil, fmt.Errorf("ReadReconstructedCostBasis: %w", err)
	}
	return Reconstruct(deltas), nil
}
