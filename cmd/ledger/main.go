// Command ledger records asset transactions in Postgres and computes their
// FIFO cost basis.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	register(commander)

	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	status := commander.Execute(ctx)
	stop()
	os.Exit(int(status))
}

func register(c *subcommands.Commander) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")

	c.Register(&migrateCmd{}, "database")

	c.Register(&addCmd{out: os.Stdout}, "transactions")
	c.Register(&importCmd{out: os.Stdout}, "transactions")
	c.Register(&txCmd{out: os.Stdout}, "transactions")
	c.Register(&transactionsCmd{out: os.Stdout}, "transactions")

	c.Register(&computeCmd{out: os.Stdout}, "cost basis")
	c.Register(&costBasisCmd{out: os.Stdout}, "cost basis")
	c.Register(&lotsCmd{out: os.Stdout}, "cost basis")
	c.Register(&reconstructCmd{out: os.Stdout}, "cost basis")
	c.Register(&verifyCmd{out: os.Stdout}, "cost basis")
	c.Register(&resetCmd{out: os.Stdout}, "cost basis")
}
