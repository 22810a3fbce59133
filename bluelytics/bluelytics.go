// Package bluelytics reads the history of the parallel ("blue") and official
// dollar published by bluelytics.com.ar.
package bluelytics

import (
	"context"
	"net/http"
	"strings"

	"github.com/etnz/finmon"
	"github.com/etnz/finmon/date"
	"github.com/shopspring/decimal"
)

const (
	DefaultBaseURL = "https://api.bluelytics.com.ar"
	Source         = "bluelytics"
)

// Evolution fetches the daily buy/sell history of one quotation source,
// "Blue" or "Oficial", and returns the midpoint.
//
// The endpoint has no range parameter: the whole history is read and the
// caller is expected to clip it.
type Evolution struct {
	BaseURL string      // DefaultBaseURL if empty
	HTTP    finmon.Doer // http.DefaultClient if nil
}

func (a Evolution) Fetch(ctx context.Context, d finmon.Descriptor, _ date.Range) (finmon.Series, error) {
	// GET /v2/evolution.json
	// [
	//   {"date": "2024-06-12", "source": "Blue", "value_sell": 1290, "value_buy": 1270},
	//   {"date": "2024-06-12", "source": "Oficial", "value_sell": 920, "value_buy": 880},
	// ]
	type record struct {
		Date   date.Date           `json:"date"`
		Source string              `json:"source"`
		Buy    decimal.NullDecimal `json:"value_buy"`
		Sell   decimal.NullDecimal `json:"value_sell"`
	}

	base := strings.TrimSuffix(a.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	client := a.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	var records []record
	if err := finmon.GetJSON(ctx, client, base+"/v2/evolution.json", &records); err != nil {
		return finmon.Series{}, finmon.Classify(d, err, nil)
	}

	meta := d
	if meta.Unit == "" {
		meta.Unit = "ARS/USD"
	}
	b := finmon.NewBuilder(meta)
	for _, rec := range records {
		if !strings.EqualFold(rec.Source, d.Variable) {
			continue
		}
		b.Add(rec.Date, midpoint(rec.Buy, rec.Sell))
	}
	if b.Len() == 0 && len(records) > 0 {
		// the source name is not in the payload at all
		return finmon.Series{}, finmon.Malformed(d, finmon.ReasonUnknownVariable, 0, "no quotation source "+d.Variable)
	}
	return b.Series(), nil
}

// midpoint is (buy+sell)/2, or Missing when either side is absent.
func midpoint(buy, sell decimal.NullDecimal) finmon.Value {
	if !buy.Valid || !sell.Valid {
		return finmon.Missing
	}
	x, _ := buy.Decimal.Add(sell.Decimal).Div(decimal.NewFromInt(2)).Float64()
	return finmon.V(x)
}
