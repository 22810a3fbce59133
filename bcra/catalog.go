package bcra

import (
	"cmp"
	"context"
	"net/url"
	"slices"
	"strconv"

	"github.com/etnz/finmon"
	"github.com/etnz/finmon/date"
)

// Variable is an entry of the catalog of monetary variables, with its latest
// published value.
type Variable struct {
	ID          int          `json:"idVariable"`
	Description string       `json:"descripcion"`
	Category    string       `json:"categoria,omitempty"`
	Date        date.Date    `json:"fecha"`
	Value       finmon.Value `json:"valor"`
}

// Descriptor returns the descriptor to fetch this variable with Indicators.
func (v Variable) Descriptor() finmon.Descriptor {
	return finmon.Descriptor{Source: Source, Variable: strconv.Itoa(v.ID), Label: v.Description}
}

// Catalog lists all the monetary variables, sorted by description.
func (c Client) Catalog(ctx context.Context) ([]Variable, error) {
	// GET /estadisticas/v3.0/monetarias
	// "results": [
	//   {"idVariable": 1, "cdSerie": 246, "descripcion": "Reservas Internacionales del BCRA ...", "fecha": "2024-06-12", "valor": 29176.0, "categoria": "Principales Variables"},
	// ]
	type entry struct {
		ID          int       `json:"idVariable"`
		Description string    `json:"descripcion"`
		Category    string    `json:"categoria"`
		Date        date.Date `json:"fecha"`
		Value       number    `json:"valor"`
	}

	d := finmon.Descriptor{Source: Source, Variable: "catalog"}
	entries, err := fetchAll[entry](ctx, c, d, c.base()+"/estadisticas/v3.0/monetarias", url.Values{}, indicatorsLimit)
	if err != nil {
		return nil, err
	}
	vars := make([]Variable, len(entries))
	for i, e := range entries {
		vars[i] = Variable{ID: e.ID, Description: e.Description, Category: e.Category, Date: e.Date, Value: e.Value.Value}
	}
	slices.SortFunc(vars, func(a, b Variable) int {
		return cmp.Or(cmp.Compare(a.Description, b.Description), cmp.Compare(a.ID, b.ID))
	})
	return vars, nil
}
