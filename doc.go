// Package finmon acquires Argentine financial indicators from heterogeneous
// public sources and reconciles them into aligned time series.
//
// The package is organized around a few concepts:
//   - Series: a canonical time series of ascending unique dates, each holding
//     a Value that is either a number or Missing. Series are built with a
//     Builder that averages repeated dates.
//   - Fetcher: the contract of a source adapter (see the bcra, bluelytics and
//     yahoo packages) turning an upstream payload into a Series.
//   - Guard: the resilience policy around adapters. A failing source never
//     aborts a query, it degrades to an empty series and a Warning.
//   - Align, Ratio, Difference, Scale and Rebase: the reconciliation of series
//     sampled on different calendars.
//   - Engine: the query facade over a Registry of logical names, each computed
//     by a Plan.
//
// The package performs no I/O of its own beyond what adapters do through a
// Doer, and keeps no state across queries.
package finmon
