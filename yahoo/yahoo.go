// Package yahoo reads daily close prices from the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/finmon"
	"github.com/etnz/finmon/date"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBaseURL = "https://query1.finance.yahoo.com"
	Source         = "yahoo"
)

// Chart fetches the daily close of a ticker, like "^MERV" or "GGAL.BA".
type Chart struct {
	BaseURL string      // DefaultBaseURL if empty
	HTTP    finmon.Doer // http.DefaultClient if nil
}

/*
	{
	  "chart": {
	    "result": [
	      {
	        "meta": {"currency": "ARS", "symbol": "^MERV", "gmtoffset": -10800, ...},
	        "timestamp": [1704200400, 1704286800],
	        "indicators": {
	          "quote": [{"close": [930000.5, null], "open": [...], ...}]
	        }
	      }
	    ],
	    "error": null
	  }
	}
*/

// Fetch returns the close prices of ticker d.Variable. Days without a close
// (holidays, halted trading) are absent from the series.
func (a Chart) Fetch(ctx context.Context, d finmon.Descriptor, r date.Range) (finmon.Series, error) {
	base := strings.TrimSuffix(a.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	client := a.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	q := url.Values{}
	q.Set("period1", fmt.Sprint(r.From.Time().Unix()))
	// period2 is exclusive
	q.Set("period2", fmt.Sprint(r.To.Add(1).Time().Unix()))
	q.Set("interval", "1d")
	addr := fmt.Sprintf("%s/v8/finance/chart/%s?%s", base, url.PathEscape(d.Variable), q.Encode())

	var payload any
	if err := finmon.GetJSON(ctx, client, addr, &payload); err != nil {
		return finmon.Series{}, finmon.Classify(d, err, reason)
	}
	s, err := parse(d, payload)
	if err != nil {
		return finmon.Series{}, finmon.Unavailable(d, http.StatusOK, &finmon.PayloadError{URL: addr, Err: err})
	}
	return s, nil
}

// get evaluates path on obj. A missing or null value is not ok.
func get(path string, obj any) (any, bool) {
	v, err := jsonpath.Get(path, obj)
	if err != nil || v == nil {
		return nil, false
	}
	return v, true
}

// parse extracts the close prices from a chart payload.
func parse(d finmon.Descriptor, payload any) (finmon.Series, error) {
	result, ok := get("$.chart.result[0]", payload)
	if !ok {
		return finmon.Series{}, errors.New("no chart result")
	}

	meta := d
	if currency, ok := get("$.meta.currency", result); ok && meta.Unit == "" {
		meta.Unit, _ = currency.(string)
	}
	var offset int64
	if gmt, ok := get("$.meta.gmtoffset", result); ok {
		if x, ok := gmt.(float64); ok {
			offset = int64(x)
		}
	}

	b := finmon.NewBuilder(meta)
	stamps, ok := get("$.timestamp", result)
	if !ok {
		// no trading day in range
		return b.Series(), nil
	}
	times, ok := stamps.([]any)
	if !ok {
		return finmon.Series{}, fmt.Errorf("timestamp is a %T", stamps)
	}
	v, ok := get("$.indicators.quote[0].close", result)
	if !ok {
		return finmon.Series{}, errors.New("no close prices")
	}
	closes, ok := v.([]any)
	if !ok || len(closes) != len(times) {
		return finmon.Series{}, fmt.Errorf("%d close prices for %d timestamps", len(closes), len(times))
	}

	for i, ts := range times {
		sec, ok := ts.(float64)
		if !ok {
			return finmon.Series{}, fmt.Errorf("timestamp %v is not a number", ts)
		}
		price, ok := closes[i].(float64)
		if !ok {
			continue // null close
		}
		// dates are local to the exchange
		on := date.Of(time.Unix(int64(sec)+offset, 0).UTC())
		b.Add(on, finmon.V(price))
	}
	return b.Series(), nil
}

// reason reads the chart error of a rejected request.
//
//	{"chart": {"result": null, "error": {"code": "Not Found", "description": "No data found, symbol may be delisted"}}}
func reason(status int, body []byte) (finmon.Reason, string) {
	r, msg := finmon.DefaultReason(status, body)
	var payload any
	if err := json.Unmarshal(body, &payload); err == nil {
		if desc, ok := get("$.chart.error.description", payload); ok {
			msg, _ = desc.(string)
		}
	}
	if strings.Contains(strings.ToLower(msg), "period") || strings.Contains(strings.ToLower(msg), "date") {
		r = finmon.ReasonBadRange
	}
	return r, msg
}

// Closes fetches the close prices of several tickers concurrently through g.
//
// The result has one series per ticker, in order. A ticker that failed has an
// empty series and a warning, in the order of the tickers.
func (a Chart) Closes(ctx context.Context, g finmon.Guard, r date.Range, tickers ...string) ([]finmon.Series, []finmon.Warning) {
	series := make([]finmon.Series, len(tickers))
	failed := make([]*finmon.Warning, len(tickers))
	var eg errgroup.Group
	for i, ticker := range tickers {
		eg.Go(func() error {
			d := finmon.Descriptor{Source: Source, Variable: ticker, Label: ticker}
			series[i], failed[i] = g.Fetch(ctx, a, d, r)
			return nil
		})
	}
	eg.Wait()
	var warnings []finmon.Warning
	for _, w := range failed {
		if w != nil {
			warnings = append(warnings, *w)
		}
	}
	return series, warnings
}
