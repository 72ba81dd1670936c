package main

import (
	"context"
	"flag"
	"log/slog"

	"github.com/google/subcommands"

	"github.com/josh-kwaku/fifo-ledger/migrations"
)

type migrateCmd struct {
	down bool
}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "create or drop the ledger tables" }
func (*migrateCmd) Usage() string {
	return `ledger migrate [-down]

  Applies the embedded schema. With -down, drops every ledger table.
`
}

func (c *migrateCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.down, "down", false, "drop the ledger tables instead of creating them")
}

func (c *migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, a *app) error {
		if c.down {
			if err := migrations.Down(ctx, a.db); err != nil {
				return err
			}
			slog.Info("ledger tables dropped")
			return nil
		}
		if err := migrations.Up(ctx, a.db); err != nil {
			return err
		}
		slog.Info("ledger tables ready")
		return nil
	})
}
