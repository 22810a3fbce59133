package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/finmon"
	"github.com/google/subcommands"
)

type compareCmd struct {
	rangeFlags
	format string
	mode   string
}

func (*compareCmd) Name() string     { return "compare" }
func (*compareCmd) Synopsis() string { return "align several logical names side by side" }
func (*compareCmd) Usage() string {
	return `fmon compare [-mode inner|outer] [-from <date>] [-to <date>] [-format markdown|json|csv] <name> <name>...

  Aligns the series of at least two logical names on a common date axis.

  With -mode inner (the default) only the dates where every series has a
  value are kept. With -mode outer every date of any series is a row, and
  absent values are shown as "-".
`
}

func (c *compareCmd) SetFlags(f *flag.FlagSet) {
	c.rangeFlags.SetFlags(f)
	f.StringVar(&c.format, "format", "markdown", "Output format: "+strings.Join(formats, ", "))
	f.StringVar(&c.mode, "mode", "inner", "Join mode: inner or outer")
}

func (c *compareCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Error: compare expects at least two names")
		return subcommands.ExitUsageError
	}
	if err := checkFormat(c.format, formats...); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	mode, err := finmon.ParseJoinMode(c.mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	r, err := c.parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	a, status := open(ctx)
	if a == nil {
		return status
	}
	defer a.Close()
	e, err := a.engine()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	res, err := e.Compare(ctx, f.Args(), mode, r.From, r.To)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	if err := writeResult(os.Stdout, c.format, res, strings.Join(f.Args(), " vs ")); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
