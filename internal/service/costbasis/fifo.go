// Package costbasis computes FIFO cost basis and realized pnl for a single
// asset ledger, and rebuilds the running balances from the lot trail.
package costbasis

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/fifo-ledger/internal/domain"
)

// OpenLot is the unconsumed remainder of an in transaction.
type OpenLot struct {
	TxID      int64
	Remaining decimal.Decimal
	Rate      decimal.Decimal
}

// Entry is everything one transaction adds to the ledger: its snapshot and,
// for an out transaction, the lots it consumed in FIFO order.
type Entry struct {
	Snapshot domain.CostBasisSnapshot
	Lots     []domain.Lot
}

// Ledger matches disposals against the oldest open acquisitions. Feed it
// transactions in (date, id) order. It keeps no reference to the store and
// is not safe for concurrent use.
type Ledger struct {
	open      []OpenLot
	active    OpenLot
	hasActive bool

	volume decimal.Decimal
	cost   decimal.Decimal
	count  int
}

func NewLedger() *Ledger {
	return &Ledger{}
}

// Apply folds tx into the ledger. If tx cannot be applied the ledger is left
// exactly as it was.
func (l *Ledger) Apply(tx domain.Transaction) (Entry, error) {
	if !tx.Volume.IsPositive() {
		return Entry{}, fmt.Errorf("Apply: tx %d: volume must be positive, got %s: %w", tx.ID, tx.Volume, domain.ErrInvalidInput)
	}
	if !tx.Rate.IsPositive() {
		return Entry{}, fmt.Errorf("Apply: tx %d: rate must be positive, got %s: %w", tx.ID, tx.Rate, domain.ErrInvalidInput)
	}
	switch tx.Direction {
	case domain.DirectionIn:
		return l.acquire(tx), nil
	case domain.DirectionOut:
		entry, err := l.dispose(tx)
		if err != nil {
			return Entry{}, fmt.Errorf("Apply: %w", err)
		}
		return entry, nil
	default:
		return Entry{}, fmt.Errorf("Apply: tx %d: direction %q: %w", tx.ID, tx.Direction, domain.ErrInvalidInput)
	}
}

func (l *Ledger) acquire(tx domain.Transaction) Entry {
	l.volume = l.volume.Add(tx.Volume)
	l.cost = l.cost.Add(tx.Cost())
	l.open = append(l.open, OpenLot{TxID: tx.ID, Remaining: tx.Volume, Rate: tx.Rate})
	l.count++

	return Entry{Snapshot: domain.CostBasisSnapshot{
		TxID:         tx.ID,
		TotalVolume:  l.volume,
		TotalCostUSD: l.cost,
		TxPnl:        decimal.Zero,
	}}
}

// dispose draws tx.Volume from the active lot and then from the head of the
// queue. Matching runs on local copies and is committed only once the whole
// volume is covered.
func (l *Ledger) dispose(tx domain.Transaction) (Entry, error) {
	active, hasActive := l.active, l.hasActive
	next := 0

	volume, cost, pnl := l.volume, l.cost, decimal.Zero
	matched := decimal.Zero
	var lots []domain.Lot

	for matched.LessThan(tx.Volume) {
		if !hasActive || !active.Remaining.IsPositive() {
			if next == len(l.open) {
				return Entry{}, fmt.Errorf("tx %d: selling %s with %s held: %w",
					tx.ID, tx.Volume, l.volume, domain.ErrInsufficientInventory)
			}
			active, hasActive = l.open[next], true
			next++
		}

		take := decimal.Min(tx.Volume.Sub(matched), active.Remaining)
		lotCost := take.Mul(active.Rate)
		lotPnl := tx.Rate.Sub(active.Rate).Mul(take)

		lots = append(lots, domain.Lot{
			TxOutID:    tx.ID,
			TxInID:     active.TxID,
			TxInVolume: take,
			TxInCost:   lotCost,
			Pnl:        lotPnl,
		})

		matched = matched.Add(take)
		volume = volume.Sub(take)
		cost = cost.Sub(lotCost)
		pnl = pnl.Add(lotPnl)
		active.Remaining = active.Remaining.Sub(take)
	}

	l.active, l.hasActive = active, hasActive
	l.open = l.open[next:]
	if len(l.open) == 0 {
		l.open = nil
	}
	l.volume, l.cost = volume, cost
	l.count++

	return Entry{
		Snapshot: domain.CostBasisSnapshot{
			TxID:         tx.ID,
			TotalVolume:  volume,
			TotalCostUSD: cost,
			TxPnl:        pnl,
		},
		Lots: lots,
	}, nil
}

// Balance is the held volume and its cost after the last applied transaction.
func (l *Ledger) Balance() (volume, cost decimal.Decimal) {
	return l.volume, l.cost
}

// Applied is the number of transactions folded in so far.
func (l *Ledger) Applied() int {
	return l.count
}

// OpenLots lists the unconsumed inventory in the order it will be drawn,
// starting with the partly consumed active lot if there is one.
func (l *Ledger) OpenLots() []OpenLot {
	lots := make([]OpenLot, 0, len(l.open)+1)
	if l.hasActive && l.active.Remaining.IsPositive() {
		lots = append(lots, l.active)
	}
	return append(lots, l.open...)
}
