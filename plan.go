package finmon

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/etnz/finmon/date"
	"golang.org/x/sync/errgroup"
)

// Plan describes how a logical name is computed.
//
// A plan is either a SeriesPlan or a FramePlan.
type Plan interface {
	// Sources lists the upstream variables the plan reads.
	Sources() []Descriptor
}

// SeriesPlan is a plan that produces a single series.
type SeriesPlan interface {
	Plan
	Series(ctx context.Context, env *Env) (Series, []Warning)
}

// FramePlan is a plan that produces several aligned series.
type FramePlan interface {
	Plan
	Frame(ctx context.Context, env *Env) (Frame, []Warning)
}

// Env is what a plan needs to run: the adapters, the guard around them and the
// requested range. An Env lives for a single query.
type Env struct {
	Sources map[string]Fetcher
	Guard   Guard
	Range   date.Range

	mu    sync.Mutex
	calls map[Descriptor]*fetchCall
}

// fetchCall memoizes one upstream variable within a query, so that a name
// reading the same variable twice fetches it once.
type fetchCall struct {
	once sync.Once
	s    Series
	w    *Warning
}

func (env *Env) fetch(ctx context.Context, d Descriptor) (Series, *Warning) {
	key := Descriptor{Source: d.Source, Variable: d.Variable}
	env.mu.Lock()
	if env.calls == nil {
		env.calls = make(map[Descriptor]*fetchCall)
	}
	c, exists := env.calls[key]
	if !exists {
		c = new(fetchCall)
		env.calls[key] = c
	}
	env.mu.Unlock()

	c.once.Do(func() {
		f, ok := env.Sources[d.Source]
		if !ok {
			w := Warning{Source: d.Source, Variable: d.Variable, Kind: "unavailable", Message: fmt.Sprintf("no adapter for source %q", d.Source)}
			c.s, c.w = Empty(d), &w
			return
		}
		c.s, c.w = env.Guard.Fetch(ctx, f, d, env.Range)
	})
	// The memo is keyed on source and variable, labels are per consumer.
	return c.s.WithMeta(merge(d, c.s.Meta)), c.w
}

// gather runs plans concurrently. Each goroutine writes its own slot.
func gather(ctx context.Context, env *Env, plans ...SeriesPlan) ([]Series, []Warning) {
	series := make([]Series, len(plans))
	warnings := make([][]Warning, len(plans))
	var g errgroup.Group
	for i, p := range plans {
		g.Go(func() error {
			series[i], warnings[i] = p.Series(ctx, env)
			return nil
		})
	}
	g.Wait() // never fails, degraded members are empty
	return series, slices.Concat(warnings...)
}

func sources(plans ...SeriesPlan) []Descriptor {
	var ds []Descriptor
	for _, p := range plans {
		ds = append(ds, p.Sources()...)
	}
	return ds
}

// Fetch reads one upstream variable.
type Fetch struct {
	Descriptor
}

func (p Fetch) Sources() []Descriptor { return []Descriptor{p.Descriptor} }

func (p Fetch) Series(ctx context.Context, env *Env) (Series, []Warning) {
	s, w := env.fetch(ctx, p.Descriptor)
	if w != nil {
		return s, []Warning{*w}
	}
	return s, nil
}

// RatioOf divides Num by Den on their common dates.
type RatioOf struct {
	Meta     Descriptor
	Num, Den SeriesPlan
}

func (p RatioOf) Sources() []Descriptor { return sources(p.Num, p.Den) }

func (p RatioOf) Series(ctx context.Context, env *Env) (Series, []Warning) {
	in, warnings := gather(ctx, env, p.Num, p.Den)
	return Ratio(p.Meta, in[0], in[1]), warnings
}

// DifferenceOf subtracts B from A on their common dates.
type DifferenceOf struct {
	Meta Descriptor
	A, B SeriesPlan
}

func (p DifferenceOf) Sources() []Descriptor { return sources(p.A, p.B) }

func (p DifferenceOf) Series(ctx context.Context, env *Env) (Series, []Warning) {
	in, warnings := gather(ctx, env, p.A, p.B)
	return Difference(p.Meta, in[0], in[1]), warnings
}

// ScaleOf multiplies Of by Factor, e.g. 0.001 for millions to billions.
type ScaleOf struct {
	Meta   Descriptor
	Of     SeriesPlan
	Factor float64
}

func (p ScaleOf) Sources() []Descriptor { return p.Of.Sources() }

func (p ScaleOf) Series(ctx context.Context, env *Env) (Series, []Warning) {
	s, warnings := p.Of.Series(ctx, env)
	return Scale(p.Meta, s, p.Factor), warnings
}

// Merge aligns its members into a frame.
//
// Optional members are appended as columns on the rows of the aligned
// members, they never add or remove a row.
type Merge struct {
	Mode     JoinMode
	Members  []SeriesPlan
	Optional []SeriesPlan
}

func (p Merge) Sources() []Descriptor {
	return sources(append(slices.Clip(p.Members), p.Optional...)...)
}

func (p Merge) Frame(ctx context.Context, env *Env) (Frame, []Warning) {
	all, warnings := gather(ctx, env, append(slices.Clip(p.Members), p.Optional...)...)
	in, opt := all[:len(p.Members)], all[len(p.Members):]
	f, err := Align(p.Mode, in...)
	if err != nil {
		return Frame{Mode: p.Mode, Rows: []Row{}}, append(warnings, Warning{Kind: "insufficient_data", Message: err.Error()})
	}
	for _, s := range opt {
		f.Columns = append(f.Columns, s.Meta)
		for i := range f.Rows {
			v, _ := s.Get(f.Rows[i].Date)
			f.Rows[i].Values = append(f.Rows[i].Values, v)
		}
	}
	return f, warnings
}

// Rebased expresses its members as indices on a common base.
//
// Every member is rebased to 100 on the first date where all the members that
// returned data have a value, and the rebased members are inner aligned.
// Members that returned no data, or cannot be rebased, are Missing columns.
type Rebased struct {
	Members []SeriesPlan
}

func (p Rebased) Sources() []Descriptor { return sources(p.Members...) }

func (p Rebased) Frame(ctx context.Context, env *Env) (Frame, []Warning) {
	in, warnings := gather(ctx, env, p.Members...)

	// degraded members already carry their warning
	var live []int
	for i, s := range in {
		if !s.IsEmpty() {
			live = append(live, i)
		}
	}
	base, found := firstCommon(in, live)

	rebased := make([]Series, len(in))
	ok := make([]bool, len(in))
	for _, i := range live {
		s := in[i]
		if !found {
			warnings = append(warnings, NewWarning(s.Meta, fmt.Errorf("%w: cannot rebase %s, no date common to all members", ErrInsufficientData, s.Meta.Name())))
			continue
		}
		r, err := Rebase(s, base)
		if err != nil {
			warnings = append(warnings, NewWarning(s.Meta, err))
			continue
		}
		rebased[i], ok[i] = r, true
	}

	f := Frame{Mode: Inner, Columns: make([]Descriptor, len(in)), Rows: []Row{}}
	var axes [][]date.Date
	for i, s := range in {
		f.Columns[i] = s.Meta
		if ok[i] {
			f.Columns[i] = rebased[i].Meta
			axes = append(axes, rebased[i].dates)
		}
	}
	if len(axes) == 0 {
		return f, warnings
	}
	for on := range date.Union(axes...) {
		row := Row{Date: on, Values: make([]Value, len(in))}
		complete := true
		for i := range in {
			if !ok[i] {
				continue
			}
			v, _ := rebased[i].Get(on)
			row.Values[i] = v
			complete = complete && !v.IsMissing()
		}
		if complete {
			f.Rows = append(f.Rows, row)
		}
	}
	return f, warnings
}

// firstCommon returns the first date where every series in[i], i in idx, has
// a value.
func firstCommon(in []Series, idx []int) (date.Date, bool) {
	if len(idx) == 0 {
		return date.Date{}, false
	}
	axes := make([][]date.Date, len(idx))
	for j, i := range idx {
		axes[j] = in[i].dates
	}
	for on := range date.Union(axes...) {
		all := true
		for _, i := range idx {
			if v, _ := in[i].Get(on); v.IsMissing() {
				all = false
				break
			}
		}
		if all {
			return on, true
		}
	}
	return date.Date{}, false
}
