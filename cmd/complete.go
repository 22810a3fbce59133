package cmd

import (
	"flag"

	"github.com/etnz/finmon/catalog"
	"github.com/etnz/finmon/docs"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Completion returns the shell completion of the commands: their flags, and
// the logical names or topics they take as arguments.
func Completion() *complete.Command {
	var names predict.Set
	for _, e := range catalog.Entries() {
		names = append(names, e.Name)
	}
	topics, _ := docs.All()

	args := map[string]complete.Predictor{
		"query":   names,
		"compare": names,
		"topic":   predict.Set(topics),
	}
	predictors := map[string]complete.Predictor{
		"format": predict.Set(formats),
		"mode":   predict.Set{"inner", "outer"},
		"config": predict.Files("*.yaml"),
	}

	root := &complete.Command{
		Sub:   map[string]*complete.Command{},
		Flags: map[string]complete.Predictor{"config": predict.Files("*.yaml")},
	}
	for _, c := range Commands {
		sub := &complete.Command{Flags: map[string]complete.Predictor{}, Args: args[c.Name()]}
		fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
		c.SetFlags(fs)
		fs.VisitAll(func(f *flag.Flag) {
			p, ok := predictors[f.Name]
			if !ok {
				p = predict.Something
			}
			sub.Flags[f.Name] = p
		})
		root.Sub[c.Name()] = sub
	}
	return root
}
