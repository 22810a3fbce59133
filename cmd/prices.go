package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/finmon"
	"github.com/etnz/finmon/date"
	"github.com/google/subcommands"
)

type pricesCmd struct {
	rangeFlags
	format string
}

func (*pricesCmd) Name() string     { return "prices" }
func (*pricesCmd) Synopsis() string { return "show the daily close prices of tickers" }
func (*pricesCmd) Usage() string {
	return `fmon prices [-from <date>] [-to <date>] [-format markdown|json|csv] <ticker>...

  Fetches the daily close prices of any Yahoo Finance ticker, like GGAL.BA or ^MERV.
  Several tickers are shown side by side.
`
}

func (c *pricesCmd) SetFlags(f *flag.FlagSet) {
	c.rangeFlags.SetFlags(f)
	f.StringVar(&c.format, "format", "markdown", "Output format: "+strings.Join(formats, ", "))
}

func (c *pricesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: prices expects at least one ticker")
		return subcommands.ExitUsageError
	}
	if err := checkFormat(c.format, formats...); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	r, err := c.parse()
	if err != nil || !r.Valid() {
		fmt.Fprintf(os.Stderr, "Error: invalid range %v: %v\n", r, err)
		return subcommands.ExitUsageError
	}

	a, status := open(ctx)
	if a == nil {
		return status
	}
	defer a.Close()

	g := finmon.Guard{Timeout: a.cfg.Timeout, Log: a.log}
	series, warnings := a.sources.Yahoo.Closes(ctx, g, r, f.Args()...)
	res, err := pricesResult(r, series, warnings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := writeResult(os.Stdout, c.format, res, ""); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// pricesResult shapes the closes as a query result: a series for one ticker,
// an outer joined frame for more.
func pricesResult(r date.Range, series []finmon.Series, warnings []finmon.Warning) (finmon.Result, error) {
	res := finmon.Result{Name: "prices", Range: r, Warnings: warnings}
	if len(series) == 1 {
		res.Series = &series[0]
		return res, nil
	}
	f, err := finmon.Align(finmon.Outer, series...)
	if err != nil {
		return res, err
	}
	res.Frame = &f
	return res, nil
}
