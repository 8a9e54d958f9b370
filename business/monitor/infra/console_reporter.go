// Package infra contains the reporter adapters for the monitor context.
package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	chainDomain "github.com/fd1az/dex-aggregator/business/chain/domain"
	"github.com/fd1az/dex-aggregator/business/monitor/domain"
	"github.com/fd1az/dex-aggregator/internal/asset"
)

// ConsoleReporter implements Reporter for CLI output.
type ConsoleReporter struct {
	out io.Writer
}

// NewConsoleReporter creates a ConsoleReporter writing to stdout.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{out: os.Stdout}
}

// NewConsoleReporterWithWriter creates a ConsoleReporter with a custom writer.
func NewConsoleReporterWithWriter(out io.Writer) *ConsoleReporter {
	return &ConsoleReporter{out: out}
}

// Start prints the watch banner.
func (r *ConsoleReporter) Start(ctx context.Context) error {
	fmt.Fprintln(r.out, "DEX Quote Watch Started")
	fmt.Fprintln(r.out, "=======================")
	return nil
}

// Report prints one pair observation as a ranked quote table.
func (r *ConsoleReporter) Report(snap *domain.Snapshot) {
	ts := snap.Timestamp.Format("15:04:05")

	if !snap.HasQuote() {
		reason := "no quote"
		if snap.Err != nil {
			reason = snap.Err.Error()
		}
		fmt.Fprintf(r.out, "[%s] %s: %s\n", ts, snap.Pair.String(), reason)
		return
	}

	header := fmt.Sprintf("[%s] %s  %s %s in",
		ts, snap.Pair.String(), snap.AmountInFormatted(), snap.TokenIn.Symbol())
	if snap.Block != nil {
		header += fmt.Sprintf("  block #%d", snap.Block.Number)
	}
	if snap.Gas != nil {
		header += fmt.Sprintf("  gas %.1f gwei", snap.Gas.Gwei())
	}

	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, header)
	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")

	for _, q := range snap.Quote.Quotes {
		marker := "  "
		if q == snap.Quote.Best {
			marker = "> "
		}
		fmt.Fprintf(r.out, "%s%-22s %18s %-6s impact %5.2f%%  gas %d\n",
			marker,
			q.TierLabel(),
			asset.FormatUnits(q.AmountOut, snap.TokenOut.Decimals()),
			snap.TokenOut.Symbol(),
			q.PriceImpact,
			q.GasEstimate,
		)
	}

	if snap.Quote.Recommendation != "" && len(snap.Quote.Quotes) > 1 {
		fmt.Fprintf(r.out, "  %s\n", snap.Quote.Recommendation)
	}
	if warn := snap.Quote.Best.Warning; warn.Message != "" {
		fmt.Fprintf(r.out, "  WARNING (%s): %s\n", warn.Level, warn.Message)
	}
}

// UpdateHead prints new chain heads as single lines.
func (r *ConsoleReporter) UpdateHead(block *chainDomain.Block, gas *chainDomain.GasPrice) {
	line := fmt.Sprintf("[%s] block #%d", time.Now().Format("15:04:05"), block.Number)
	if gas != nil {
		line += fmt.Sprintf("  gas %.1f gwei", gas.Gwei())
	}
	fmt.Fprintln(r.out, line)
}

// UpdateConnection prints node connection state changes.
func (r *ConsoleReporter) UpdateConnection(state chainDomain.ConnectionState) {
	fmt.Fprintf(r.out, "[%s] node %s\n", time.Now().Format("15:04:05"), state)
}

// Stop prints the shutdown line.
func (r *ConsoleReporter) Stop() error {
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "DEX Quote Watch Stopped")
	return nil
}
