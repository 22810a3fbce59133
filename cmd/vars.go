package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/finmon/bcra"
	"github.com/etnz/finmon/renderer"
	"github.com/google/subcommands"
)

type varsCmd struct {
	format string
	search string
}

func (*varsCmd) Name() string     { return "vars" }
func (*varsCmd) Synopsis() string { return "list the monetary variables published by the BCRA" }
func (*varsCmd) Usage() string {
	return `fmon vars [-q <text>] [-format markdown|json]

  Lists the catalog of BCRA monetary variables with their latest value.
  The ID is what a logical name uses to read the variable.
`
}

func (c *varsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "markdown", "Output format: markdown or json")
	f.StringVar(&c.search, "q", "", "Only show variables whose description contains this text")
}

func (c *varsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := checkFormat(c.format, "markdown", "json"); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	a, status := open(ctx)
	if a == nil {
		return status
	}
	defer a.Close()

	vars, err := a.sources.BCRA.Catalog(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching the BCRA catalog: %v\n", err)
		return subcommands.ExitFailure
	}
	vars = filterVariables(vars, c.search)

	if c.format == "json" {
		if err := writeJSON(os.Stdout, vars); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}
	printMarkdown(renderer.RenderVariables(vars))
	return subcommands.ExitSuccess
}

// filterVariables keeps the variables whose description contains search,
// ignoring case.
func filterVariables(vars []bcra.Variable, search string) []bcra.Variable {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return vars
	}
	var kept []bcra.Variable
	for _, v := range vars {
		if strings.Contains(strings.ToLower(v.Description), search) {
			kept = append(kept, v)
		}
	}
	return kept
}
