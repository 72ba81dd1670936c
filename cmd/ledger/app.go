package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/subcommands"

	"github.com/josh-kwaku/fifo-ledger/internal/config"
	"github.com/josh-kwaku/fifo-ledger/internal/logging"
	"github.com/josh-kwaku/fifo-ledger/internal/repository"
	"github.com/josh-kwaku/fifo-ledger/internal/service"
	"github.com/josh-kwaku/fifo-ledger/internal/service/costbasis"
)

const connectAttempts = 5

// app is the wiring shared by every command.
type app struct {
	cfg *config.Config
	db  *sql.DB

	snapshots *repository.CostBasisRepository
	lots      *repository.LotRepository

	transactions *service.TransactionService
	costBasis    *costbasis.Service
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logging.Init("ledger", cfg.LogLevel, cfg.AppEnv)

	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	}, connectAttempts)
	if err != nil {
		return nil, err
	}

	txRepo := repository.NewTransactionRepository(db, cfg.ReadBatchSize)
	snapshots := repository.NewCostBasisRepository(db, cfg.ReadBatchSize)
	lots := repository.NewLotRepository(db, cfg.ReadBatchSize)

	return &app{
		cfg:          cfg,
		db:           db,
		snapshots:    snapshots,
		lots:         lots,
		transactions: service.NewTransactionService(txRepo, db),
		costBasis:    costbasis.NewService(txRepo, snapshots, lots, db),
	}, nil
}

// run opens the app, calls fn and turns its error into an exit status.
func run(ctx context.Context, fn func(ctx context.Context, a *app) error) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		return report(err)
	}
	defer a.db.Close()

	if err := fn(ctx, a); err != nil {
		return report(err)
	}
	return subcommands.ExitSuccess
}

// withLedgerLock runs fn while holding the advisory lock that keeps cost
// basis runs from overlapping.
func withLedgerLock(ctx context.Context, a *app, fn func() error) error {
	lock, err := repository.AcquireLedgerLock(ctx, a.db, a.cfg.LockKey)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			slog.Warn("failed to release ledger lock", "error", err)
		}
	}()

	if err := fn(); err != nil {
		return fmt.Errorf("locked run: %w", err)
	}
	return nil
}
