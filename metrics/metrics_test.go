package metrics

import (
	"testing"
	"time"

	"github.com/etnz/finmon"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.ObserveFetch("bcra", finmon.OutcomeOK, 100*time.Millisecond)
	r.ObserveFetch("bcra", finmon.OutcomeOK, 200*time.Millisecond)
	r.ObserveFetch("yahoo", finmon.OutcomeUnavailable, time.Second)
	r.RecordQuery("brecha", finmon.Result{Warnings: []finmon.Warning{{Kind: "unavailable"}}}, time.Second)

	testCases := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"bcra ok", r.fetches.WithLabelValues("bcra", "ok"), 2},
		{"yahoo unavailable", r.fetches.WithLabelValues("yahoo", "unavailable"), 1},
		{"yahoo ok", r.fetches.WithLabelValues("yahoo", "ok"), 0},
		{"degraded query", r.queries.WithLabelValues("brecha", "true"), 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := testutil.ToFloat64(tc.c); got != tc.want {
				t.Errorf("counter = %v want %v", got, tc.want)
			}
		})
	}
	if n := testutil.CollectAndCount(r.duration); n != 2 {
		t.Errorf("duration has %d series want 2", n)
	}
}
