package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/etnz/finmon"
	"github.com/etnz/finmon/date"
	"github.com/etnz/finmon/metrics"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

var (
	official = finmon.Descriptor{Source: "fake", Variable: "official", Unit: "ARS/USD"}
	blue     = finmon.Descriptor{Source: "fake", Variable: "blue", Unit: "ARS/USD"}
	down     = finmon.Descriptor{Source: "fake", Variable: "down"}
)

// fake serves one value a day for every day of the range, except for "down".
func fake(ctx context.Context, d finmon.Descriptor, r date.Range) (finmon.Series, error) {
	if d.Variable == "down" {
		return finmon.Series{}, finmon.Unavailable(d, http.StatusBadGateway, nil)
	}
	b := finmon.NewBuilder(d)
	for day := r.From; !day.After(r.To); day = day.Add(1) {
		b.Add(day, finmon.V(float64(day.Day())))
	}
	return b.Series(), nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	reg, err := finmon.NewRegistry(map[string]finmon.Fetcher{"fake": finmon.FetcherFunc(fake)},
		finmon.Entry{Name: "official", Description: "Official rate", Plan: finmon.Fetch{Descriptor: official}},
		finmon.Entry{Name: "blue", Plan: finmon.Fetch{Descriptor: blue}},
		finmon.Entry{Name: "down", Plan: finmon.Fetch{Descriptor: down}},
		finmon.Entry{Name: "fx", Plan: finmon.Merge{Mode: finmon.Outer, Members: []finmon.SeriesPlan{
			finmon.Fetch{Descriptor: official}, finmon.Fetch{Descriptor: blue},
		}}},
	)
	if err != nil {
		t.Fatalf("NewRegistry() unexpected error = %v", err)
	}
	prom := prometheus.NewRegistry()
	rec := metrics.New(prom)
	s := &Server{
		Engine:   finmon.NewEngine(reg, finmon.WithObserver(rec)),
		Metrics:  rec,
		Gatherer: prom,
		Log:      zerolog.Nop(),
		today:    func() date.Date { return date.New(2024, 1, 10) },
	}
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, srv *httptest.Server, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s unexpected error = %v", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("GET %s read error = %v", path, err)
	}
	return resp, body
}

func TestStatus(t *testing.T) {
	srv := newTestServer(t)
	testCases := []struct {
		path string
		want int
	}{
		{"/api/v1/names", http.StatusOK},
		{"/api/v1/series/official?from=2024-01-01&to=2024-01-05", http.StatusOK},
		{"/api/v1/series/official", http.StatusOK},
		{"/api/v1/series/down", http.StatusOK},
		{"/api/v1/series/nope", http.StatusNotFound},
		{"/api/v1/series/official?from=2024-01-05&to=2024-01-01", http.StatusBadRequest},
		{"/api/v1/series/official?from=yesterday", http.StatusBadRequest},
		{"/api/v1/compare?names=official,blue", http.StatusOK},
		{"/api/v1/compare?names=official", http.StatusBadRequest},
		{"/api/v1/compare?names=official,blue&mode=left", http.StatusBadRequest},
		{"/api/v1/compare?names=official,fx", http.StatusBadRequest},
		{"/api/v1/compare?names=official,nope", http.StatusNotFound},
		{"/metrics", http.StatusOK},
	}
	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			resp, body := get(t, srv, tc.path)
			if resp.StatusCode != tc.want {
				t.Errorf("GET %s status = %d want %d: %s", tc.path, resp.StatusCode, tc.want, body)
			}
		})
	}
}

func TestSeries(t *testing.T) {
	srv := newTestServer(t)
	resp, body := get(t, srv, "/api/v1/series/official?from=-2d")
	if got := resp.Header.Get("Content-Type"); !strings.HasPrefix(got, "application/json") {
		t.Errorf("Content-Type = %q want application/json", got)
	}
	var res finmon.Result
	if err := json.Unmarshal(body, &res); err != nil {
		t.Fatalf("Unmarshal() unexpected error = %v: %s", err, body)
	}
	if res.Series == nil {
		t.Fatalf("result has no series: %s", body)
	}
	want := []date.Date{date.New(2024, 1, 8), date.New(2024, 1, 9), date.New(2024, 1, 10)}
	if diff := cmp.Diff(want, res.Series.Dates(), cmp.Comparer(func(a, b date.Date) bool { return a == b })); diff != "" {
		t.Errorf("series dates mismatch (-want +got):\n%s", diff)
	}
	if res.Degraded() {
		t.Errorf("result is degraded: %v", res.Warnings)
	}
}

func TestDegraded(t *testing.T) {
	srv := newTestServer(t)
	resp, body := get(t, srv, "/api/v1/series/down?from=-2d")
	if resp.Header.Get("X-Finmon-Degraded") != "true" {
		t.Errorf("X-Finmon-Degraded header is missing")
	}
	var res finmon.Result
	if err := json.Unmarshal(body, &res); err != nil {
		t.Fatalf("Unmarshal() unexpected error = %v: %s", err, body)
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Kind != "unavailable" {
		t.Errorf("warnings = %v want one unavailable", res.Warnings)
	}

	_, exposed := get(t, srv, "/metrics")
	for _, want := range []string{
		`finmon_queries_total{degraded="true",name="down"} 1`,
		`finmon_fetch_total{outcome="unavailable",source="fake"} 1`,
	} {
		if !strings.Contains(string(exposed), want) {
			t.Errorf("/metrics does not contain %q", want)
		}
	}
}

func TestNames(t *testing.T) {
	srv := newTestServer(t)
	_, body := get(t, srv, "/api/v1/names")
	var got []entry
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("Unmarshal() unexpected error = %v: %s", err, body)
	}
	names := make([]string, len(got))
	for i, e := range got {
		names[i] = e.Name
	}
	if diff := cmp.Diff([]string{"blue", "down", "fx", "official"}, names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	if got[2].Kind != "frame" || len(got[2].Sources) != 2 {
		t.Errorf("fx = %+v want a frame with 2 sources", got[2])
	}
}
