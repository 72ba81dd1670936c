package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/josh-kwaku/fifo-ledger/internal/domain"
	"github.com/josh-kwaku/fifo-ledger/internal/stream"
)

var (
	transactionHeader = []string{"ID", "DATE", "DIR", "VOLUME", "RATE"}
	snapshotHeader    = []string{"TX", "TOTAL_VOLUME", "TOTAL_COST_USD", "TX_PNL"}
	lotHeader         = []string{"TX_OUT", "TX_IN", "VOLUME", "COST", "PNL"}
)

func transactionRow(t domain.Transaction) []string {
	return []string{formatID(t.ID), t.Date.Format(time.RFC3339), string(t.Direction), t.Volume.String(), t.Rate.String()}
}

func snapshotRow(s domain.CostBasisSnapshot) []string {
	return []string{formatID(s.TxID), s.TotalVolume.String(), s.TotalCostUSD.String(), s.TxPnl.String()}
}

func lotRow(l domain.Lot) []string {
	return []string{formatID(l.TxOutID), formatID(l.TxInID), l.TxInVolume.String(), l.TxInCost.String(), l.Pnl.String()}
}

func formatID(n int64) string { return strconv.FormatInt(n, 10) }

// writeTable drains seq into an aligned table. Columns are realigned once per
// fetched batch so output starts before the sequence is exhausted.
func writeTable[T any](ctx context.Context, w io.Writer, seq *stream.Sequence[T], header []string, row func(T) []string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, strings.Join(header, "\t")); err != nil {
		seq.Close()
		return err
	}

	n := 0
	err := seq.ForEach(ctx, func(item T) error {
		if _, err := fmt.Fprintln(tw, strings.Join(row(item), "\t")); err != nil {
			return err
		}
		n++
		if n%seq.BatchSize() == 0 {
			return tw.Flush()
		}
		return nil
	})
	if err != nil {
		return err
	}
	return tw.Flush()
}

func writeTransactions(ctx context.Context, w io.Writer, seq *stream.Sequence[domain.Transaction]) error {
	return writeTable(ctx, w, seq, transactionHeader, transactionRow)
}

func writeSnapshots(ctx context.Context, w io.Writer, seq *stream.Sequence[domain.CostBasisSnapshot]) error {
	return writeTable(ctx, w, seq, snapshotHeader, snapshotRow)
}

func writeLots(ctx context.Context, w io.Writer, seq *stream.Sequence[domain.Lot]) error {
	return writeTable(ctx, w, seq, lotHeader, lotRow)
}

func printTransactions(w io.Writer, items []domain.Transaction) error {
	return writeTransactions(context.Background(), w, stream.FromSlice(items))
}

func printSnapshots(w io.Writer, items []domain.CostBasisSnapshot) error {
	return writeSnapshots(context.Background(), w, stream.FromSlice(items))
}

func printLots(w io.Writer, items []domain.Lot) error {
	return writeLots(context.Background(), w, stream.FromSlice(items))
}
