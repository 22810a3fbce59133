package finmon

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/etnz/finmon/date"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

// fakeSource serves fixed series by variable, and fails for "down".
type fakeSource struct {
	series map[string]Series
	calls  atomic.Int32
}

func (f *fakeSource) Fetch(ctx context.Context, desc Descriptor, r date.Range) (Series, error) {
	f.calls.Add(1)
	if desc.Variable == "down" {
		return Series{}, Unavailable(desc, 503, errors.New("service unavailable"))
	}
	s, ok := f.series[desc.Variable]
	if !ok {
		return Series{}, Malformed(desc, ReasonUnknownVariable, 404, "")
	}
	return s.WithMeta(desc), nil
}

var (
	merval   = Descriptor{Source: "fake", Variable: "merval", Unit: "ARS"}
	blue     = Descriptor{Source: "fake", Variable: "blue", Unit: "ARS/USD"}
	official = Descriptor{Source: "fake", Variable: "official", Unit: "ARS/USD"}
	down     = Descriptor{Source: "fake", Variable: "down"}
)

func newTestEngine(t *testing.T) (*Engine, *fakeSource) {
	t.Helper()
	src := &fakeSource{series: map[string]Series{
		"merval": mk(Descriptor{},
			point{"2024-01-01", V(1000)},
			point{"2024-01-02", V(1100)}, // no blue quote on that day
			point{"2024-01-03", V(1300)},
		),
		"blue": mk(Descriptor{},
			point{"2024-01-01", V(1000)},
			point{"2024-01-03", V(1040)},
			point{"2024-01-06", V(1050)}, // a saturday, no market
		),
		"official": mk(Descriptor{},
			point{"2024-01-01", V(800)},
			point{"2024-01-03", V(805)},
		),
	}}
	reg, err := NewRegistry(map[string]Fetcher{"fake": src},
		Entry{Name: "merval", Plan: Fetch{merval}},
		Entry{Name: "blue", Plan: Fetch{blue}},
		Entry{Name: "down", Plan: Fetch{down}},
		Entry{Name: "merval_usd", Plan: RatioOf{
			Meta: Descriptor{Source: "derived", Variable: "merval_usd", Unit: "USD"},
			Num:  Fetch{merval},
			Den:  Fetch{blue},
		}},
		Entry{Name: "brecha", Plan: DifferenceOf{
			Meta: Descriptor{Source: "derived", Variable: "brecha", Unit: "ARS/USD"},
			A:    Fetch{blue},
			B:    Fetch{official},
		}},
		Entry{Name: "fx", Plan: Merge{Mode: Outer, Members: []SeriesPlan{Fetch{official}, Fetch{blue}, Fetch{down}}}},
		Entry{Name: "optional", Plan: Merge{
			Mode:     Inner,
			Members:  []SeriesPlan{Fetch{merval}, Fetch{official}},
			Optional: []SeriesPlan{Fetch{blue}, Fetch{down}},
		}},
		Entry{Name: "rebased", Plan: Rebased{Members: []SeriesPlan{Fetch{merval}, Fetch{blue}}}},
		Entry{Name: "rebased_down", Plan: Rebased{Members: []SeriesPlan{Fetch{merval}, Fetch{blue}, Fetch{down}}}},
		Entry{Name: "twice", Plan: Merge{Mode: Inner, Members: []SeriesPlan{
			Fetch{blue},
			RatioOf{Meta: Descriptor{Source: "derived", Variable: "ratio"}, Num: Fetch{merval}, Den: Fetch{blue}},
		}}},
	)
	if err != nil {
		t.Fatalf("NewRegistry() unexpected error = %v", err)
	}
	return NewEngine(reg), src
}

func TestQueryErrors(t *testing.T) {
	e, src := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.Query(ctx, "merval", d("2024-02-01"), d("2024-01-01")); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("Query() with from > to error = %v want %v", err, ErrInvalidRange)
	}
	if _, err := e.Query(ctx, "nope", d("2024-01-01"), d("2024-02-01")); !errors.Is(err, ErrUnknownName) {
		t.Errorf("Query() of unknown name error = %v want %v", err, ErrUnknownName)
	}
	if n := src.calls.Load(); n != 0 {
		t.Errorf("caller errors reached the source %d times", n)
	}
}

func TestQuerySeries(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	from, to := d("2024-01-01"), d("2024-01-05")

	testCases := []struct {
		name     string
		want     []Value
		warnings int
	}{
		{name: "merval", want: []Value{V(1000), V(1100), V(1300)}},
		{name: "blue", want: []Value{V(1000), V(1040)}}, // clipped
		{name: "merval_usd", want: []Value{V(1), V(1.25)}},
		{name: "brecha", want: []Value{V(200), V(235)}},
		{name: "down", warnings: 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := e.Query(ctx, tc.name, from, to)
			if err != nil {
				t.Fatalf("Query() unexpected error = %v", err)
			}
			if res.Series == nil || res.Frame != nil {
				t.Fatalf("Query() = %+v want a series", res)
			}
			var got []Value
			for _, v := range res.Series.Points() {
				got = append(got, v)
			}
			if diff := cmp.Diff(tc.want, got, cmpOpts); diff != "" {
				t.Errorf("Query() mismatch (-want +got):\n%s", diff)
			}
			if len(res.Warnings) != tc.warnings {
				t.Errorf("Query() warnings = %v want %d", res.Warnings, tc.warnings)
			}
		})
	}
}

func TestQueryEmptyRange(t *testing.T) {
	e, _ := newTestEngine(t)
	for _, name := range []string{"merval", "merval_usd"} {
		res, err := e.Query(context.Background(), name, d("2023-06-01"), d("2023-06-30"))
		if err != nil {
			t.Fatalf("Query(%s) unexpected error = %v", name, err)
		}
		if res.Series == nil || !res.Series.IsEmpty() || res.Degraded() {
			t.Errorf("Query(%s) = %+v want an empty series without warnings", name, res)
		}
	}
}

func TestQueryFrame(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	from, to := d("2024-01-01"), d("2024-01-05")

	res, err := e.Query(ctx, "fx", from, to)
	if err != nil {
		t.Fatalf("Query() unexpected error = %v", err)
	}
	if res.Frame == nil {
		t.Fatal("Query() returned no frame")
	}
	want := []Row{
		{d("2024-01-01"), []Value{V(800), V(1000), Missing}},
		{d("2024-01-03"), []Value{V(805), V(1040), Missing}},
	}
	if diff := cmp.Diff(want, res.Frame.Rows, cmpOpts); diff != "" {
		t.Errorf("Query() mismatch (-want +got):\n%s", diff)
	}
	wantWarnings := []Warning{{Source: "fake", Variable: "down", Kind: "unavailable", Message: "fake is unavailable, down is shown without data"}}
	if diff := cmp.Diff(wantWarnings, res.Warnings); diff != "" {
		t.Errorf("Query() warnings mismatch (-want +got):\n%s", diff)
	}
}

func TestQueryOptional(t *testing.T) {
	e, _ := newTestEngine(t)
	res, err := e.Query(context.Background(), "optional", d("2024-01-01"), d("2024-01-05"))
	if err != nil {
		t.Fatalf("Query() unexpected error = %v", err)
	}
	// merval has a value on 01-02 but official does not, so the row is dropped
	want := []Row{
		{d("2024-01-01"), []Value{V(1000), V(800), V(1000), Missing}},
		{d("2024-01-03"), []Value{V(1300), V(805), V(1040), Missing}},
	}
	if diff := cmp.Diff(want, res.Frame.Rows, cmpOpts); diff != "" {
		t.Errorf("Query() mismatch (-want +got):\n%s", diff)
	}
	if len(res.Frame.Columns) != 4 || res.Frame.Columns[2].Variable != "blue" {
		t.Errorf("Query() columns = %v want merval, official, blue, down", res.Frame.Columns)
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Variable != "down" {
		t.Errorf("Query() warnings = %v want one for down", res.Warnings)
	}
}

func TestQueryRebased(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	from, to := d("2024-01-01"), d("2024-01-05")

	testCases := []struct {
		name     string
		want     []Row
		warnings []string
	}{
		{
			name: "rebased",
			want: []Row{
				{d("2024-01-01"), []Value{V(100), V(100)}},
				{d("2024-01-03"), []Value{V(130), V(104)}},
			},
		},
		{
			// the unavailable member is a Missing column, its siblings are kept
			name: "rebased_down",
			want: []Row{
				{d("2024-01-01"), []Value{V(100), V(100), Missing}},
				{d("2024-01-03"), []Value{V(130), V(104), Missing}},
			},
			warnings: []string{"unavailable"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := e.Query(ctx, tc.name, from, to)
			if err != nil {
				t.Fatalf("Query() unexpected error = %v", err)
			}
			if res.Frame.Mode != Inner {
				t.Errorf("Query() mode = %v want inner", res.Frame.Mode)
			}
			if diff := cmp.Diff(tc.want, res.Frame.Rows, cmpOpts); diff != "" {
				t.Errorf("Query() mismatch (-want +got):\n%s", diff)
			}
			var kinds []string
			for _, w := range res.Warnings {
				kinds = append(kinds, w.Kind)
			}
			if diff := cmp.Diff(tc.warnings, kinds); diff != "" {
				t.Errorf("Query() warning kinds mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRebasedNoCommonDate(t *testing.T) {
	src := &fakeSource{series: map[string]Series{
		"a": mk(Descriptor{}, point{"2024-01-01", V(10)}),
		"b": mk(Descriptor{}, point{"2024-01-02", V(20)}),
	}}
	a, b := Descriptor{Source: "fake", Variable: "a"}, Descriptor{Source: "fake", Variable: "b"}
	env := &Env{Sources: map[string]Fetcher{"fake": src}, Guard: Guard{Log: zerolog.Nop()}, Range: date.Range{From: d("2024-01-01"), To: d("2024-01-31")}}
	f, warnings := Rebased{Members: []SeriesPlan{Fetch{a}, Fetch{b}}}.Frame(context.Background(), env)
	if f.Len() != 0 || len(f.Columns) != 2 {
		t.Errorf("Frame() = %+v want 2 columns and no rows", f)
	}
	if len(warnings) != 2 || warnings[0].Kind != "insufficient_data" {
		t.Errorf("Frame() warnings = %v want 2 insufficient_data", warnings)
	}
}

func TestQueryFetchesOnce(t *testing.T) {
	e, src := newTestEngine(t)
	if _, err := e.Query(context.Background(), "twice", d("2024-01-01"), d("2024-01-05")); err != nil {
		t.Fatalf("Query() unexpected error = %v", err)
	}
	if n := src.calls.Load(); n != 2 {
		t.Errorf("Query() fetched %d times want 2", n)
	}
}

func TestQueryIdempotent(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	for _, name := range e.Registry().Names() {
		t.Run(name, func(t *testing.T) {
			first, err := e.Query(ctx, name, d("2024-01-01"), d("2024-01-31"))
			if err != nil {
				t.Fatalf("Query() unexpected error = %v", err)
			}
			second, err := e.Query(ctx, name, d("2024-01-01"), d("2024-01-31"))
			if err != nil {
				t.Fatalf("Query() unexpected error = %v", err)
			}
			if diff := cmp.Diff(first, second, cmpOpts); diff != "" {
				t.Errorf("Query() is not idempotent (-first +second):\n%s", diff)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	from, to := d("2024-01-01"), d("2024-01-05")

	res, err := e.Compare(ctx, []string{"merval", "blue"}, Inner, from, to)
	if err != nil {
		t.Fatalf("Compare() unexpected error = %v", err)
	}
	want := []Row{
		{d("2024-01-01"), []Value{V(1000), V(1000)}},
		{d("2024-01-03"), []Value{V(1300), V(1040)}},
	}
	if diff := cmp.Diff(want, res.Frame.Rows, cmpOpts); diff != "" {
		t.Errorf("Compare() mismatch (-want +got):\n%s", diff)
	}
	if got := res.Frame.Columns[0].Label; got != "merval" {
		t.Errorf("Compare() first column label = %q want %q", got, "merval")
	}

	testCases := []struct {
		name  string
		names []string
		want  error
	}{
		{"single name", []string{"merval"}, ErrAlignArity},
		{"unknown name", []string{"merval", "nope"}, ErrUnknownName},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := e.Compare(ctx, tc.names, Inner, from, to); !errors.Is(err, tc.want) {
				t.Errorf("Compare() error = %v want %v", err, tc.want)
			}
		})
	}
	if _, err := e.Compare(ctx, []string{"merval", "fx"}, Inner, from, to); err == nil {
		t.Error("Compare() of a table did not fail")
	}
}

func TestNewRegistry(t *testing.T) {
	src := &fakeSource{}
	testCases := []struct {
		name  string
		entry Entry
	}{
		{"empty name", Entry{Plan: Fetch{merval}}},
		{"no plan", Entry{Name: "x"}},
		{"unknown source", Entry{Name: "x", Plan: Fetch{Descriptor{Source: "nope", Variable: "1"}}}},
		{"merge of one", Entry{Name: "x", Plan: Merge{Members: []SeriesPlan{Fetch{merval}}}}},
		{"rebase of one", Entry{Name: "x", Plan: Rebased{Members: []SeriesPlan{Fetch{merval}}}}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewRegistry(map[string]Fetcher{"fake": src}, tc.entry); err == nil {
				t.Error("NewRegistry() did not fail")
			}
		})
	}
	if _, err := NewRegistry(map[string]Fetcher{"fake": src}, Entry{Name: "x", Plan: Fetch{merval}}, Entry{Name: "x", Plan: Fetch{blue}}); err == nil {
		t.Error("NewRegistry() accepted a duplicate name")
	}
}
