package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/google/subcommands"

	"github.com/josh-kwaku/fifo-ledger/internal/service/costbasis"
)

type computeCmd struct {
	out   io.Writer
	reset bool
}

func (*computeCmd) Name() string     { return "compute" }
func (*computeCmd) Synopsis() string { return "compute FIFO cost basis and lots for the whole ledger" }
func (*computeCmd) Usage() string {
	return `ledger compute [-reset]

  Replays every transaction in (date, id) order, storing one cost basis
  snapshot per transaction and the lots each disposal consumed. Stored
  results must be cleared first; -reset does that in the same locked run.
`
}

func (c *computeCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.reset, "reset", false, "clear stored cost basis and lots before computing")
}

func (c *computeCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, a *app) error {
		return withLedgerLock(ctx, a, func() error {
			if c.reset {
				if _, err := a.costBasis.ResetComputed(ctx); err != nil {
					return err
				}
			}
			res, err := a.costBasis.ComputeCostBasis(ctx)
			if err != nil {
				return err
			}
			printComputeResult(c.out, res)
			return nil
		})
	})
}

func printComputeResult(w io.Writer, res costbasis.ComputeResult) {
	fmt.Fprintf(w, "transactions: %d\nlots: %d\n", res.Transactions, res.Lots)
	if res.Transactions > 0 {
		fmt.Fprintf(w, "open lots: %d\nclosing volume: %s\nclosing cost: %s\n", res.OpenLots, res.Final.TotalVolume, res.Final.TotalCostUSD)
	}
}

type costBasisCmd struct {
	out io.Writer
}

func (*costBasisCmd) Name() string     { return "costbasis" }
func (*costBasisCmd) Synopsis() string { return "list stored cost basis snapshots" }
func (*costBasisCmd) Usage() string {
	return `ledger costbasis

  Streams the stored snapshots ordered by transaction id.
`
}

func (*costBasisCmd) SetFlags(*flag.FlagSet) {}

func (c *costBasisCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, a *app) error {
		seq, err := a.snapshots.ReadAll(ctx)
		if err != nil {
			return err
		}
		return writeSnapshots(ctx, c.out, seq)
	})
}

type lotsCmd struct {
	out io.Writer
}

func (*lotsCmd) Name() string     { return "lots" }
func (*lotsCmd) Synopsis() string { return "list the stored lot trail" }
func (*lotsCmd) Usage() string {
	return `ledger lots

  Streams every lot ordered by disposing, then acquiring transaction id.
`
}

func (*lotsCmd) SetFlags(*flag.FlagSet) {}

func (c *lotsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, a *app) error {
		seq, err := a.lots.ReadAll(ctx)
		if err != nil {
			return err
		}
		return writeLots(ctx, c.out, seq)
	})
}

type reconstructCmd struct {
	out io.Writer
}

func (*reconstructCmd) Name() string     { return "reconstruct" }
func (*reconstructCmd) Synopsis() string { return "rebuild cost basis snapshots from the lot trail" }
func (*reconstructCmd) Usage() string {
	return `ledger reconstruct

  Rebuilds the running balances from stored lots alone and prints them,
  ordered by transaction id. Stored snapshots are not read.
`
}

func (*reconstructCmd) SetFlags(*flag.FlagSet) {}

func (c *reconstructCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, a *app) error {
		seq, err := a.costBasis.ReadReconstructedCostBasis(ctx)
		if err != nil {
			return err
		}
		return writeSnapshots(ctx, c.out, seq)
	})
}

type verifyCmd struct {
	out io.Writer
}

func (*verifyCmd) Name() string     { return "verify" }
func (*verifyCmd) Synopsis() string { return "check stored cost basis against the lot trail" }
func (*verifyCmd) Usage() string {
	return `ledger verify

  Compares every stored snapshot with the one rebuilt from lots. Only a
  closed position (nothing held after the last transaction) can be checked.
`
}

func (*verifyCmd) SetFlags(*flag.FlagSet) {}

func (c *verifyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, a *app) error {
		report, err := a.costBasis.Verify(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "ok: %d snapshots match the lot trail\n", report.Checked)
		return nil
	})
}

type resetCmd struct {
	out io.Writer
}

func (*resetCmd) Name() string     { return "reset" }
func (*resetCmd) Synopsis() string { return "delete stored cost basis and lots" }
func (*resetCmd) Usage() string {
	return `ledger reset

  Deletes every stored snapshot and lot. Transactions are kept.
`
}

func (*resetCmd) SetFlags(*flag.FlagSet) {}

func (c *resetCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, a *app) error {
		return withLedgerLock(ctx, a, func() error {
			res, err := a.costBasis.ResetComputed(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "deleted %d snapshots and %d lots\n", res.Snapshots, res.Lots)
			return nil
		})
	})
}
