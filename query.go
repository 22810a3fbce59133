package finmon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/etnz/finmon/date"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Result is the answer to a query: a series or a frame, and the warnings
// collected while computing it, at most one per degraded upstream variable.
type Result struct {
	Name     string     `json:"name"`
	Range    date.Range `json:"range"`
	Series   *Series    `json:"series,omitempty"`
	Frame    *Frame     `json:"frame,omitempty"`
	Warnings []Warning  `json:"warnings,omitempty"`
}

// Degraded reports whether some data could not be fetched or derived.
func (r Result) Degraded() bool { return len(r.Warnings) > 0 }

// Engine answers queries on the logical names of a registry.
//
// An Engine is read only after construction and safe for concurrent use.
type Engine struct {
	registry *Registry
	guard    Guard
	log      zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout bounds every adapter call.
func WithTimeout(d time.Duration) Option { return func(e *Engine) { e.guard.Timeout = d } }

// WithLogger sets the logger, the default one discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = l
		e.guard.Log = l
	}
}

// WithObserver reports every adapter call to o.
func WithObserver(o Observer) Option { return func(e *Engine) { e.guard.Observer = o } }

// NewEngine returns an engine over reg.
func NewEngine(reg *Registry, opts ...Option) *Engine {
	e := &Engine{registry: reg, log: zerolog.Nop(), guard: Guard{Timeout: DefaultTimeout, Log: zerolog.Nop()}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the registry the engine answers from.
func (e *Engine) Registry() *Registry { return e.registry }

func (e *Engine) env(r date.Range, log zerolog.Logger) *Env {
	g := e.guard
	g.Log = log
	return &Env{Sources: e.registry.sources, Guard: g, Range: r}
}

func checkRange(from, to date.Date) (date.Range, error) {
	r := date.Range{From: from, To: to}
	if !r.Valid() {
		return r, fmt.Errorf("%w: %s is after %s", ErrInvalidRange, from, to)
	}
	return r, nil
}

// Query computes the logical name within [from, to].
//
// It fails only on caller errors: ErrInvalidRange when from is after to, and
// ErrUnknownName. Upstream failures degrade to empty data and warnings.
func (e *Engine) Query(ctx context.Context, name string, from, to date.Date) (Result, error) {
	r, err := checkRange(from, to)
	if err != nil {
		return Result{}, err
	}
	entry, err := e.registry.Lookup(name)
	if err != nil {
		return Result{}, err
	}

	log := e.log.With().Str("query", uuid.NewString()).Str("name", name).Stringer("range", r).Logger()
	start := time.Now()
	env := e.env(r, log)

	res := Result{Name: name, Range: r}
	var warnings []Warning
	switch p := entry.Plan.(type) {
	case SeriesPlan:
		var s Series
		s, warnings = p.Series(ctx, env)
		res.Series = &s
	case FramePlan:
		var f Frame
		f, warnings = p.Frame(ctx, env)
		res.Frame = &f
	}
	res.Warnings = unique(warnings)

	log.Debug().Int("warnings", len(res.Warnings)).Dur("elapsed", time.Since(start)).Msg("query done")
	return res, nil
}

// Compare aligns the series produced by several logical names.
//
// All names must produce a series, and there must be at least two of them.
func (e *Engine) Compare(ctx context.Context, names []string, mode JoinMode, from, to date.Date) (Result, error) {
	r, err := checkRange(from, to)
	if err != nil {
		return Result{}, err
	}
	if len(names) < 2 {
		return Result{}, fmt.Errorf("cannot compare %d name(s): %w", len(names), ErrAlignArity)
	}
	if mode != Inner && mode != Outer {
		return Result{}, fmt.Errorf("cannot compare with %v", mode)
	}
	plans := make([]SeriesPlan, len(names))
	var errs []error
	for i, name := range names {
		entry, err := e.registry.Lookup(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		p, ok := entry.Plan.(SeriesPlan)
		if !ok {
			errs = append(errs, fmt.Errorf("cannot compare %q: it is a table, not a series", name))
			continue
		}
		plans[i] = named{name, p}
	}
	if err := errors.Join(errs...); err != nil {
		return Result{}, err
	}

	log := e.log.With().Str("query", uuid.NewString()).Strs("names", names).Stringer("range", r).Logger()
	start := time.Now()
	f, warnings := Merge{Mode: mode, Members: plans}.Frame(ctx, e.env(r, log))
	res := Result{Name: "compare", Range: r, Frame: &f, Warnings: unique(warnings)}
	log.Debug().Int("warnings", len(res.Warnings)).Dur("elapsed", time.Since(start)).Msg("compare done")
	return res, nil
}

// named labels a fetched series with its logical name when it has no label.
type named struct {
	name string
	SeriesPlan
}

func (n named) Series(ctx context.Context, env *Env) (Series, []Warning) {
	s, w := n.SeriesPlan.Series(ctx, env)
	if s.Meta.Label == "" {
		s.Meta.Label = n.name
	}
	return s, w
}

// unique removes repeated warnings, keeping the first occurrence.
func unique(warnings []Warning) []Warning {
	if len(warnings) == 0 {
		return nil
	}
	seen := make(map[Warning]bool, len(warnings))
	var out []Warning
	for _, w := range warnings {
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	return out
}
