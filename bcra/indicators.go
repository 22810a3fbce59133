package bcra

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/etnz/finmon"
	"github.com/etnz/finmon/date"
)

// indicatorsLimit is the page size of the monetary series endpoint.
const indicatorsLimit = 3000

// Indicators fetches monetary variables (reserves, policy rate, inflation...)
// by their numeric id.
type Indicators struct {
	Client
}

// Fetch returns the daily (or monthly) observations of variable d.Variable.
func (a Indicators) Fetch(ctx context.Context, d finmon.Descriptor, r date.Range) (finmon.Series, error) {
	// GET /estadisticas/v3.0/monetarias/1?desde=2024-01-01&hasta=2024-01-31
	// "results": [
	//   {"idVariable": 1, "fecha": "2024-01-02", "valor": 23073.0},
	//   ...
	// ]
	id, err := strconv.Atoi(d.Variable)
	if err != nil || id <= 0 {
		return finmon.Series{}, finmon.Malformed(d, finmon.ReasonUnknownVariable, 0, fmt.Sprintf("variable id %q is not a positive integer", d.Variable))
	}

	type observation struct {
		ID    int       `json:"idVariable"`
		Date  date.Date `json:"fecha"`
		Value number    `json:"valor"`
	}

	addr := fmt.Sprintf("%s/estadisticas/v3.0/monetarias/%d", a.base(), id)
	q := url.Values{}
	q.Set("desde", r.From.String())
	q.Set("hasta", r.To.String())
	rows, err := fetchAll[observation](ctx, a.Client, d, addr, q, indicatorsLimit)
	if err != nil {
		return finmon.Series{}, err
	}

	b := finmon.NewBuilder(d)
	for _, row := range rows {
		b.Add(row.Date, row.Value.Value)
	}
	return b.Series(), nil
}
