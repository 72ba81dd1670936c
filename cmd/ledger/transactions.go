package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/fifo-ledger/internal/domain"
)

type addCmd struct {
	out       io.Writer
	date      string
	direction string
	volume    string
	rate      string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "record one transaction" }
func (*addCmd) Usage() string {
	return `ledger add -dir in|out -volume <v> -rate <r> [-date <YYYY-MM-DD|RFC3339>]

  Stores a transaction and prints it with its assigned id.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", time.Now().UTC().Format(time.RFC3339), "transaction date")
	f.StringVar(&c.direction, "dir", "", "direction: in (acquisition) or out (disposal)")
	f.StringVar(&c.volume, "volume", "", "asset quantity")
	f.StringVar(&c.rate, "rate", "", "unit price in the quote currency")
}

func (c *addCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	t, err := c.parse()
	if err != nil {
		return report(err)
	}
	return run(ctx, func(ctx context.Context, a *app) error {
		created, err := a.transactions.CreateTransaction(ctx, t)
		if err != nil {
			return err
		}
		return printTransactions(c.out, []domain.Transaction{*created})
	})
}

func (c *addCmd) parse() (domain.NewTransaction, error) {
	date, err := parseDateFlag(c.date)
	if err != nil {
		return domain.NewTransaction{}, err
	}
	direction, err := domain.ParseDirection(c.direction)
	if err != nil {
		return domain.NewTransaction{}, err
	}
	volume, err := decimal.NewFromString(c.volume)
	if err != nil {
		return domain.NewTransaction{}, fmt.Errorf("volume %q: %w", c.volume, domain.ErrInvalidInput)
	}
	rate, err := decimal.NewFromString(c.rate)
	if err != nil {
		return domain.NewTransaction{}, fmt.Errorf("rate %q: %w", c.rate, domain.ErrInvalidInput)
	}
	t := domain.NewTransaction{Date: date, Direction: direction, Volume: volume, Rate: rate}
	return t, t.Validate()
}

func parseDateFlag(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("date %q: %w", s, domain.ErrInvalidInput)
}

type importCmd struct {
	out io.Writer
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "record transactions from a CSV file" }
func (*importCmd) Usage() string {
	return `ledger import <file.csv | ->

  Reads date,direction,volume,rate rows (header optional) and stores them in
  file order. Nothing is stored if any row is invalid. Use - for stdin.
`
}

func (*importCmd) SetFlags(*flag.FlagSet) {}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}

	var r io.Reader = os.Stdin
	if name := f.Arg(0); name != "-" {
		file, err := os.Open(name)
		if err != nil {
			return report(err)
		}
		defer file.Close()
		r = file
	}

	return run(ctx, func(ctx context.Context, a *app) error {
		created, err := a.transactions.ImportCSV(ctx, r)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "imported %d transactions\n", len(created))
		return nil
	})
}

type txCmd struct {
	out io.Writer
}

func (*txCmd) Name() string     { return "tx" }
func (*txCmd) Synopsis() string { return "show one transaction and its cost basis" }
func (*txCmd) Usage() string {
	return `ledger tx <id>

  Prints the transaction, its stored cost basis snapshot and, for a
  disposal, the lots it consumed.
`
}

func (*txCmd) SetFlags(*flag.FlagSet) {}

func (c *txCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	id, err := strconv.ParseInt(f.Arg(0), 10, 64)
	if err != nil {
		return report(fmt.Errorf("id %q: %w", f.Arg(0), domain.ErrInvalidInput))
	}

	return run(ctx, func(ctx context.Context, a *app) error {
		t, err := a.transactions.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		if err := printTransactions(c.out, []domain.Transaction{*t}); err != nil {
			return err
		}

		snap, err := a.snapshots.GetByTxID(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			fmt.Fprintln(c.out, "\ncost basis not computed")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out)
		if err := printSnapshots(c.out, []domain.CostBasisSnapshot{*snap}); err != nil {
			return err
		}

		if t.Direction != domain.DirectionOut {
			return nil
		}
		lots, err := a.lots.GetByTxOutID(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out)
		return printLots(c.out, lots)
	})
}

type transactionsCmd struct {
	out io.Writer
}

func (*transactionsCmd) Name() string     { return "transactions" }
func (*transactionsCmd) Synopsis() string { return "list every transaction in FIFO order" }
func (*transactionsCmd) Usage() string {
	return `ledger transactions

  Streams the ledger ordered by date, then id.
`
}

func (*transactionsCmd) SetFlags(*flag.FlagSet) {}

func (c *transactionsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, a *app) error {
		seq, err := a.transactions.ReadAllTransactions(ctx)
		if err != nil {
			return err
		}
		return writeTransactions(ctx, c.out, seq)
	})
}
