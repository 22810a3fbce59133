// Package cmd implements the fmon CLI: queries on the logical names of the
// dashboard, the BCRA catalog, and the HTTP server.
package cmd

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/finmon"
	"github.com/etnz/finmon/bcra"
	"github.com/etnz/finmon/bluelytics"
	"github.com/etnz/finmon/catalog"
	"github.com/etnz/finmon/config"
	"github.com/etnz/finmon/date"
	"github.com/etnz/finmon/httpcache"
	"github.com/etnz/finmon/logging"
	"github.com/etnz/finmon/renderer"
	"github.com/etnz/finmon/yahoo"
	"github.com/google/subcommands"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Commands are the subcommands of fmon.
var Commands = []subcommands.Command{
	&listCmd{},
	&queryCmd{},
	&compareCmd{},
	&varsCmd{},
	&pricesCmd{},
	&serveCmd{},
	&topicCmd{},
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configPath = flag.String("config", config.DefaultPath(), "Path to the YAML configuration file")

// app holds what the commands share once the configuration is loaded.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	sources catalog.Sources
	closers []io.Closer
}

// newApp loads the configuration at path and builds the adapters.
func newApp(ctx context.Context, path string) (*app, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	log, closer, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log, closers: []io.Closer{closer}}
	store := a.store(ctx)

	a.sources = catalog.Sources{
		BCRA:       bcra.Client{BaseURL: cfg.Sources.BCRA.BaseURL, HTTP: a.client(cfg.Sources.BCRA, store)},
		Bluelytics: bluelytics.Evolution{BaseURL: cfg.Sources.Bluelytics.BaseURL, HTTP: a.client(cfg.Sources.Bluelytics, store)},
		Yahoo:      yahoo.Chart{BaseURL: cfg.Sources.Yahoo.BaseURL, HTTP: a.client(cfg.Sources.Yahoo, store)},
	}
	return a, nil
}

// store returns the response cache, or nil when there is none. The cache is
// optional: a Redis that cannot be reached only logs a warning.
func (a *app) store(ctx context.Context) httpcache.Store {
	c := a.cfg.Cache
	switch c.Backend {
	case "disk":
		return httpcache.Disk{Dir: c.Dir}
	case "redis":
		r, err := httpcache.NewRedis(ctx, c.Redis.Addr, c.Redis.Password, c.Redis.DB, c.Redis.TTL)
		if err != nil {
			a.log.Warn().Err(err).Str("addr", c.Redis.Addr).Msg("redis cache unavailable, running without cache")
			return nil
		}
		a.closers = append(a.closers, r)
		return r
	default:
		return nil
	}
}

// client returns the HTTP client of one upstream.
func (a *app) client(s config.Source, store httpcache.Store) *http.Client {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	if s.InsecureSkipVerify {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	c := &http.Client{Transport: tr, Timeout: a.cfg.TimeoutOf(s)}
	if store == nil {
		return c
	}
	period, err := date.ParsePeriod(a.cfg.Cache.Period)
	if err != nil {
		period = date.Daily
	}
	return httpcache.NewClient(c, store, period, a.log)
}

// engine returns an engine over the default names.
func (a *app) engine(opts ...finmon.Option) (*finmon.Engine, error) {
	reg, err := catalog.Default(a.sources)
	if err != nil {
		return nil, err
	}
	opts = append([]finmon.Option{finmon.WithTimeout(a.cfg.Timeout), finmon.WithLogger(a.log)}, opts...)
	return finmon.NewEngine(reg, opts...), nil
}

func (a *app) Close() {
	// the log output is closed last
	for _, c := range slices.Backward(a.closers) {
		if err := c.Close(); err != nil {
			a.log.Warn().Err(err).Msg("close")
		}
	}
}

// open is the common prologue of the commands.
func open(ctx context.Context) (*app, subcommands.ExitStatus) {
	a, err := newApp(ctx, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return nil, subcommands.ExitFailure
	}
	return a, subcommands.ExitSuccess
}

// printMarkdown renders md for the terminal, or prints it as is when stdout
// is not a terminal.
func printMarkdown(md string) {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		fmt.Print(md)
		return
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err != nil {
		fmt.Print(md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}

// formats accepted by the -format flag of result commands.
var formats = []string{"markdown", "json", "csv"}

func checkFormat(format string, allowed ...string) error {
	for _, f := range allowed {
		if f == format {
			return nil
		}
	}
	return fmt.Errorf("unknown format %q", format)
}

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeResult writes res in format. Markdown goes through printMarkdown.
func writeResult(w io.Writer, format string, res finmon.Result, description string) error {
	switch format {
	case "json":
		return writeJSON(w, res)
	case "csv":
		return renderer.WriteCSV(w, res)
	default:
		printMarkdown(renderer.RenderResult(res, description))
		return nil
	}
}

// rangeFlags are the -from and -to flags of the commands that query.
type rangeFlags struct {
	from, to string
}

func (r *rangeFlags) SetFlags(f *flag.FlagSet) {
	f.StringVar(&r.from, "from", "-1y", "First day, absolute (2024-01-31) or relative to today (-6m, -2w)")
	f.StringVar(&r.to, "to", "0d", "Last day, absolute or relative to today")
}

func (r *rangeFlags) parse() (date.Range, error) {
	return date.ParseRange(r.from, r.to, date.Today())
}
