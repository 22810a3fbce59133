// Package bcra reads the public statistics API of the Banco Central de la
// República Argentina: monetary variables, official exchange rates and the
// catalog of published variables.
package bcra

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/etnz/finmon"
	"github.com/shopspring/decimal"
)

const (
	// DefaultBaseURL is the production API.
	DefaultBaseURL = "https://api.bcra.gob.ar"

	// Source names the monetary variables adapter.
	Source = "bcra"
	// FXSource names the official exchange rates adapter.
	FXSource = "bcra-fx"
)

// maxPages bounds the paging loop against an upstream that never ends.
const maxPages = 100

// Client holds what every BCRA endpoint needs.
type Client struct {
	BaseURL string      // DefaultBaseURL if empty
	HTTP    finmon.Doer // http.DefaultClient if nil
}

func (c Client) base() string {
	if c.BaseURL == "" {
		return DefaultBaseURL
	}
	return strings.TrimSuffix(c.BaseURL, "/")
}

func (c Client) doer() finmon.Doer {
	if c.HTTP == nil {
		return http.DefaultClient
	}
	return c.HTTP
}

// page is the envelope of every paged BCRA response.
//
//	{
//	  "status": 200,
//	  "metadata": {"resultset": {"count": 2, "offset": 0, "limit": 3000}},
//	  "results": [...]
//	}
type page[T any] struct {
	Metadata struct {
		Resultset struct {
			Count  int `json:"count"`
			Offset int `json:"offset"`
			Limit  int `json:"limit"`
		} `json:"resultset"`
	} `json:"metadata"`
	Results []T `json:"results"`
}

// fetchAll reads all the pages of addr, limit results at a time.
func fetchAll[T any](ctx context.Context, c Client, d finmon.Descriptor, addr string, q url.Values, limit int) ([]T, error) {
	var all []T
	offset := 0
	for range maxPages {
		q.Set("limit", strconv.Itoa(limit))
		q.Set("offset", strconv.Itoa(offset))
		var p page[T]
		if err := finmon.GetJSON(ctx, c.doer(), addr+"?"+q.Encode(), &p); err != nil {
			return nil, finmon.Classify(d, err, reason)
		}
		all = append(all, p.Results...)
		offset += len(p.Results)
		if len(p.Results) == 0 || offset >= p.Metadata.Resultset.Count {
			break
		}
	}
	return all, nil
}

// reason tells a rejected date range from an unknown variable.
//
//	{"status": 400, "errorMessages": ["La fecha desde no puede ser mayor a la fecha hasta."]}
func reason(status int, body []byte) (finmon.Reason, string) {
	msg := finmon.ErrorMessage(body)
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "fecha"):
		return finmon.ReasonBadRange, msg
	case status == http.StatusNotFound, strings.Contains(lower, "variable"), strings.Contains(lower, "moneda"):
		return finmon.ReasonUnknownVariable, msg
	default:
		return finmon.ReasonBadRequest, msg
	}
}

// number is a lenient numeric field: anything that is not a number, like null
// or "n/d", decodes as finmon.Missing instead of failing the whole payload.
type number struct {
	finmon.Value
}

func (n *number) UnmarshalJSON(b []byte) error {
	n.Value = finmon.Missing
	var v decimal.NullDecimal
	if err := json.Unmarshal(b, &v); err != nil || !v.Valid {
		return nil
	}
	x, _ := v.Decimal.Float64()
	n.Value = finmon.V(x)
	return nil
}
