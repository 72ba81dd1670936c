package costbasis

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/fifo-ledger/internal/domain"
	"github.com/josh-kwaku/fifo-ledger/internal/logging"
	"github.com/josh-kwaku/fifo-ledger/internal/stream"
)

type transactionRepo interface {
	ReadAll(ctx context.Context) (*stream.Sequence[domain.Transaction], error)
}

type snapshotRepo interface {
	Create(ctx context.Context, tx *sql.Tx, s *domain.CostBasisSnapshot) error
	Latest(ctx context.Context) (*domain.CostBasisSnapshot, error)
	ReadAll(ctx context.Context) (*stream.Sequence[domain.CostBasisSnapshot], error)
	DeleteAll(ctx context.Context, tx *sql.Tx) (int64, error)
}

type lotRepo interface {
	Create(ctx context.Context, tx *sql.Tx, l *domain.Lot) error
	ReadDeltas(ctx context.Context) (*stream.Sequence[domain.CostBasisDelta], error)
	DeleteAll(ctx context.Context, tx *sql.Tx) (int64, error)
}

type Service struct {
	transactions transactionRepo
	snapshots    snapshotRepo
	lots         lotRepo
	db           *sql.DB
}

func NewService(transactions transactionRepo, snapshots snapshotRepo, lots lotRepo, db *sql.DB) *Service {
	return &Service{
		transactions: transactions,
		snapshots:    snapshots,
		lots:         lots,
		db:           db,
	}
}

type ComputeResult struct {
	Transactions int
	Lots         int
	// OpenLots counts acquisitions still holding inventory after the run.
	OpenLots int
	Final    domain.CostBasisSnapshot
}

// ComputeCostBasis replays every transaction through a fresh Ledger and
// stores each resulting entry in its own database transaction. It expects
// cleared output tables; on failure, entries of earlier transactions stay
// stored and nothing of the failing one is.
//
// Callers must not run two computations against the same ledger at once.
func (s *Service) ComputeCostBasis(ctx context.Context) (ComputeResult, error) {
	log := logging.FromContext(ctx).With("run_id", uuid.NewString())
	ctx = logging.WithLogger(ctx, log)

	txs, err := s.transactions.ReadAll(ctx)
	if err != nil {
		return ComputeResult{}, fmt.Errorf("ComputeCostBasis: %w", err)
	}
	log.Info("cost basis run started", "transactions", txs.Len(), "batch_size", txs.BatchSize())

	res, err := Replay(ctx, txs, func(e Entry) error {
		return s.store(ctx, e)
	})
	if err != nil {
		log.Error("cost basis run failed", "applied", res.Transactions, "error", err)
		return res, fmt.Errorf("ComputeCostBasis: %w", err)
	}

	log.Info("cost basis run finished",
		"transactions", res.Transactions,
		"lots", res.Lots,
		"open_lots", res.OpenLots,
		"total_volume", res.Final.TotalVolume,
		"total_cost_usd", res.Final.TotalCostUSD,
	)
	return res, nil
}

// Replay applies txs in order and hands each entry to emit. It stops at the
// first error from the ledger or from emit, and always closes txs. The
// result counts only entries emit accepted.
func Replay(ctx context.Context, txs *stream.Sequence[domain.Transaction], emit func(Entry) error) (ComputeResult, error) {
	log := logging.FromContext(ctx)
	ledger := NewLedger()

	var res ComputeResult
	err := txs.ForEach(ctx, func(tx domain.Transaction) error {
		entry, err := ledger.Apply(tx)
		if err != nil {
			return err
		}
		if err := emit(entry); err != nil {
			return fmt.Errorf("tx %d: %w", tx.ID, err)
		}

		res.Transactions++
		res.Lots += len(entry.Lots)
		res.Final = entry.Snapshot

		log.Debug("transaction applied",
			"tx_id", tx.ID,
			"direction", tx.Direction,
			"lots", len(entry.Lots),
			"total_volume", entry.Snapshot.TotalVolume,
		)
		return nil
	})
	res.OpenLots = len(ledger.OpenLots())
	if err != nil {
		log.Debug("replay stopped", "applied", ledger.Applied(), "stored", res.Transactions)
		return res, fmt.Errorf("Replay: %w", err)
	}
	return res, nil
}

func (s *Service) store(ctx context.Context, e Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback()

	for i := range e.Lots {
		if err := s.lots.Create(ctx, tx, &e.Lots[i]); err != nil {
			return fmt.Errorf("store: %w", err)
		}
	}
	if err := s.snapshots.Create(ctx, tx, &e.Snapshot); err != nil {
		return fmt.Errorf("store: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

type ResetResult struct {
	Snapshots int64
	Lots      int64
}

// ResetComputed deletes every snapshot and lot in one database transaction
// so the next ComputeCostBasis starts from a clean slate.
func (s *Service) ResetComputed(ctx context.Context) (ResetResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ResetResult{}, fmt.Errorf("ResetComputed: begin tx: %w", err)
	}
	defer tx.Rollback()

	var res ResetResult
	if res.Lots, err = s.lots.DeleteAll(ctx, tx); err != nil {
		return ResetResult{}, fmt.Errorf("ResetComputed: %w", err)
	}
	if res.Snapshots, err = s.snapshots.DeleteAll(ctx, tx); err != nil {
		return ResetResult{}, fmt.Errorf("ResetComputed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return ResetResult{}, fmt.Errorf("ResetComputed: commit: %w", err)
	}

	logging.FromContext(ctx).Info("computed cost basis cleared", "snapshots", res.Snapshots, "lots", res.Lots)
	return res, nil
}
