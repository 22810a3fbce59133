// Package metrics exposes the activity of the engine to Prometheus.
package metrics

import (
	"time"

	"github.com/etnz/finmon"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements finmon.Observer using Prometheus.
type Recorder struct {
	fetches  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	queries  *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// New creates a recorder whose metrics are registered in reg.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		fetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finmon_fetch_total",
				Help: "Total number of upstream calls by outcome",
			},
			[]string{"source", "outcome"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finmon_fetch_duration_seconds",
				Help:    "Duration of upstream calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		queries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finmon_queries_total",
				Help: "Total number of queries, degraded or not",
			},
			[]string{"name", "degraded"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finmon_query_duration_seconds",
				Help:    "Duration of queries in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"name"},
		),
	}
}

// ObserveFetch records one upstream call.
func (r *Recorder) ObserveFetch(source string, outcome finmon.Outcome, elapsed time.Duration) {
	r.fetches.WithLabelValues(source, string(outcome)).Inc()
	r.duration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// RecordQuery records one answered query.
func (r *Recorder) RecordQuery(name string, res finmon.Result, elapsed time.Duration) {
	degraded := "false"
	if res.Degraded() {
		degraded = "true"
	}
	r.queries.WithLabelValues(name, degraded).Inc()
	r.latency.WithLabelValues(name).Observe(elapsed.Seconds())
}
