package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/finmon"
	"github.com/google/subcommands"
)

type queryCmd struct {
	rangeFlags
	format string
}

func (*queryCmd) Name() string     { return "query" }
func (*queryCmd) Synopsis() string { return "compute a logical name over a date range" }
func (*queryCmd) Usage() string {
	return `fmon query [-from <date>] [-to <date>] [-format markdown|json|csv] <name>

  Computes a logical name, like "inflacion" or "brecha", over a date range.

  Dates are absolute (2024-01-31) or relative to today (-6m, -2w, 0d).
  Upstream failures do not fail the command: the result is shown with the
  data that could be fetched and a warning per missing variable.
`
}

func (c *queryCmd) SetFlags(f *flag.FlagSet) {
	c.rangeFlags.SetFlags(f)
	f.StringVar(&c.format, "format", "markdown", "Output format: "+strings.Join(formats, ", "))
}

func (c *queryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: query expects exactly one name, see 'fmon list'")
		return subcommands.ExitUsageError
	}
	if err := checkFormat(c.format, formats...); err != nil {
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

	name := f.Arg(0)
	res, err := e.Query(ctx, name, r.From, r.To)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, finmon.ErrUnknownName) {
			fmt.Fprintf(os.Stderr, "known names: %s\n", strings.Join(e.Registry().Names(), ", "))
		}
		return subcommands.ExitUsageError
	}
	entry, _ := e.Registry().Lookup(name)
	if err := writeResult(os.Stdout, c.format, res, entry.Description); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
