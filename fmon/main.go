// fmon shows Argentine financial indicators in the terminal or over HTTP.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/finmon/cmd"
	"github.com/google/subcommands"
)

func main() {
	// handles the shell completion requests, and "COMP_INSTALL=1 fmon" to install it
	cmd.Completion().Complete("fmon")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	for _, c := range cmd.Commands {
		commander.Register(c, "")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
