package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/finmon"
	"github.com/etnz/finmon/catalog"
	"github.com/etnz/finmon/renderer"
	"github.com/google/subcommands"
)

type listCmd struct {
	format string
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list the logical names that can be queried" }
func (*listCmd) Usage() string {
	return `fmon list [-format markdown|json]

  Lists the logical names, what they produce and the upstream variables they read.
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "markdown", "Output format: markdown or json")
}

// nameInfo is the JSON view of a registry entry.
type nameInfo struct {
	Name        string              `json:"name"`
	Kind        string              `json:"kind"`
	Description string              `json:"description"`
	Sources     []finmon.Descriptor `json:"sources"`
}

func (c *listCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := checkFormat(c.format, "markdown", "json"); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	// the names do not depend on the configuration
	reg, err := catalog.Default(catalog.Sources{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	entries := reg.Entries()
	if c.format == "json" {
		infos := make([]nameInfo, len(entries))
		for i, e := range entries {
			infos[i] = nameInfo{e.Name, e.Kind(), e.Description, e.Plan.Sources()}
		}
		if err := writeJSON(os.Stdout, infos); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}
	printMarkdown(renderer.RenderNames(entries))
	return subcommands.ExitSuccess
}
