package finmon

import (
	"encoding/json"
	"iter"
	"maps"
	"slices"

	"github.com/etnz/finmon/date"
)

// Descriptor identifies one upstream variable and the adapter responsible for it.
type Descriptor struct {
	Source   string `json:"source"`          // adapter name, e.g. "bcra"
	Variable string `json:"variable"`        // upstream id: variable id, ISO code, ticker...
	Unit     string `json:"unit,omitempty"`  // e.g. "%", "ARS/USD"
	Label    string `json:"label,omitempty"` // human readable name
}

func (d Descriptor) String() string { return d.Source + ":" + d.Variable }

// Name returns the label if any, or the source:variable pair.
func (d Descriptor) Name() string {
	if d.Label != "" {
		return d.Label
	}
	return d.String()
}

// Series is a canonical time series: ascending unique dates, one Value each.
//
// Series are immutable once built. Use a Builder to create one.
type Series struct {
	Meta   Descriptor
	Inputs []Descriptor // provenance of a derived series, nil for fetched ones.

	dates  []date.Date
	values []Value
}

// Len returns the number of observations.
func (s Series) Len() int { return len(s.dates) }

// IsEmpty reports whether the series has no observation at all.
func (s Series) IsEmpty() bool { return len(s.dates) == 0 }

// IsDerived reports whether the series was computed from other series.
func (s Series) IsDerived() bool { return len(s.Inputs) > 0 }

// At returns the i-th observation.
func (s Series) At(i int) (date.Date, Value) { return s.dates[i], s.values[i] }

// Dates returns a copy of the date axis.
func (s Series) Dates() []date.Date { return slices.Clone(s.dates) }

// Points returns an iterator over all observations, in chronological order.
func (s Series) Points() iter.Seq2[date.Date, Value] {
	return func(yield func(date.Date, Value) bool) {
		for i, on := range s.dates {
			if !yield(on, s.values[i]) {
				return
			}
		}
	}
}

// search returns the position of day in the date axis, and whether it is there.
func (s Series) search(day date.Date) (int, bool) {
	return slices.BinarySearchFunc(s.dates, day, date.Date.Compare)
}

// Get returns the value at 'day' and true, or Missing and false if the date is not on the axis.
func (s Series) Get(day date.Date) (Value, bool) {
	if i, found := s.search(day); found {
		return s.values[i], true
	}
	return Missing, false
}

// Latest returns the most recent non missing observation.
func (s Series) Latest() (day date.Date, value float64, ok bool) {
	for i := len(s.dates) - 1; i >= 0; i-- {
		if x, ok := s.values[i].Float(); ok {
			return s.dates[i], x, true
		}
	}
	return date.Date{}, 0, false
}

// Clip returns the observations that fall within r.
func (s Series) Clip(r date.Range) Series {
	lo, _ := s.search(r.From)
	hi, found := s.search(r.To)
	if found {
		hi++
	}
	if lo > hi {
		lo = hi
	}
	c := s
	c.dates = s.dates[lo:hi:hi]
	c.values = s.values[lo:hi:hi]
	return c
}

// WithMeta returns the same observations under another descriptor.
func (s Series) WithMeta(meta Descriptor) Series {
	s.Meta = meta
	return s
}

type jsonPoint struct {
	Date  date.Date `json:"date"`
	Value Value     `json:"value"`
}

type jsonSeries struct {
	Meta   Descriptor   `json:"meta"`
	Inputs []Descriptor `json:"inputs,omitempty"`
	Points []jsonPoint  `json:"points"`
}

func (s Series) MarshalJSON() ([]byte, error) {
	js := jsonSeries{Meta: s.Meta, Inputs: s.Inputs, Points: make([]jsonPoint, 0, len(s.dates))}
	for on, v := range s.Points() {
		js.Points = append(js.Points, jsonPoint{on, v})
	}
	return json.Marshal(js)
}

func (s *Series) UnmarshalJSON(b []byte) error {
	var js jsonSeries
	if err := json.Unmarshal(b, &js); err != nil {
		return err
	}
	builder := NewBuilder(js.Meta).Derived(js.Inputs...)
	for _, p := range js.Points {
		builder.Add(p.Date, p.Value)
	}
	*s = builder.Series()
	return nil
}

// Builder collects raw observations and produces a canonical Series.
//
// Several observations for the same date are aggregated by arithmetic mean of
// their non missing values. A date whose observations are all missing is kept,
// with a Missing value, so that the date axis stays intact.
type Builder struct {
	meta   Descriptor
	inputs []Descriptor
	acc    map[date.Date]*mean
}

type mean struct {
	sum float64
	n   int
}

// NewBuilder returns an empty builder for a series described by meta.
func NewBuilder(meta Descriptor) *Builder {
	return &Builder{meta: meta, acc: make(map[date.Date]*mean)}
}

// Derived records the provenance of the series being built.
func (b *Builder) Derived(inputs ...Descriptor) *Builder {
	b.inputs = append(b.inputs, inputs...)
	return b
}

// Add records one raw observation.
func (b *Builder) Add(on date.Date, v Value) *Builder {
	m, exists := b.acc[on]
	if !exists {
		m = new(mean)
		b.acc[on] = m
	}
	if x, ok := v.Float(); ok {
		m.sum += x
		m.n++
	}
	return b
}

// Len returns the number of distinct dates collected so far.
func (b *Builder) Len() int { return len(b.acc) }

// Series returns the canonical series.
func (b *Builder) Series() Series {
	s := Series{Meta: b.meta, Inputs: slices.Clone(b.inputs)}
	s.dates = slices.SortedFunc(maps.Keys(b.acc), date.Date.Compare)
	s.values = make([]Value, len(s.dates))
	for i, on := range s.dates {
		if m := b.acc[on]; m.n > 0 {
			s.values[i] = V(m.sum / float64(m.n))
		}
	}
	return s
}

// Empty returns a series with no observation.
func Empty(meta Descriptor) Series { return Series{Meta: meta} }
