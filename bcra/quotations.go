package bcra

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/etnz/finmon"
	"github.com/etnz/finmon/date"
)

// quotationsLimit is the page size of the exchange rates endpoint.
const quotationsLimit = 1000

// Quotations fetches the official exchange rate of a currency against the
// peso, by ISO 4217 code.
type Quotations struct {
	Client
}

// Fetch returns one observation per day, the mean of all the quotations
// published that day.
func (a Quotations) Fetch(ctx context.Context, d finmon.Descriptor, r date.Range) (finmon.Series, error) {
	// GET /estadisticascambiarias/v1.0/Cotizaciones/USD?fechadesde=2024-06-01&fechahasta=2024-06-30
	// "results": [
	//   {
	//     "fecha": "2024-06-12",
	//     "detalle": [
	//       {"codigoMoneda": "USD", "descripcion": "DOLAR E.E.U.U.", "tipoPase": 1.0, "tipoCotizacion": 903.5}
	//     ]
	//   },
	// ]
	code := strings.ToUpper(strings.TrimSpace(d.Variable))
	if money.GetCurrency(code) == nil {
		// no need to bother the upstream
		return finmon.Series{}, finmon.Malformed(d, finmon.ReasonUnknownVariable, 0, fmt.Sprintf("%q is not an ISO 4217 currency code", d.Variable))
	}

	type quotation struct {
		Date   date.Date `json:"fecha"`
		Detail []struct {
			Code  string `json:"codigoMoneda"`
			Value number `json:"tipoCotizacion"`
		} `json:"detalle"`
	}

	addr := fmt.Sprintf("%s/estadisticascambiarias/v1.0/Cotizaciones/%s", a.base(), url.PathEscape(code))
	q := url.Values{}
	q.Set("fechadesde", r.From.String())
	q.Set("fechahasta", r.To.String())
	rows, err := fetchAll[quotation](ctx, a.Client, d, addr, q, quotationsLimit)
	if err != nil {
		return finmon.Series{}, err
	}

	meta := d
	if meta.Unit == "" {
		meta.Unit = Unit(code)
	}
	b := finmon.NewBuilder(meta)
	for _, row := range rows {
		for _, detail := range row.Detail {
			// the Builder averages same day quotations
			b.Add(row.Date, detail.Value.Value)
		}
	}
	return b.Series(), nil
}

// Unit returns the unit of the peso price of a currency, e.g. "ARS/USD".
func Unit(code string) string {
	return money.GetCurrency("ARS").Code + "/" + strings.ToUpper(code)
}
