// Package renderer renders query results as markdown tables or CSV.
package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"github.com/etnz/finmon"
	"github.com/etnz/finmon/bcra"
	"github.com/etnz/finmon/date"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.md
var embedded embed.FS

var templates, _ = fs.Sub(embedded, "templates")

var funcs = template.FuncMap{
	"num":  formatValue,
	"cell": escape,
	"join": strings.Join,
	"sources": func(ds []finmon.Descriptor) string {
		names := make([]string, len(ds))
		for i, d := range ds {
			names[i] = d.String()
		}
		return strings.Join(names, ", ")
	},
}

// Row is a line of a Table.
type Row struct {
	Date   date.Date
	Values []finmon.Value
}

// Latest is the most recent observation of a column.
type Latest struct {
	Header string
	Date   date.Date
	Value  finmon.Value
}

// Table is the tabular view of a Result: one date column and one column per
// series.
type Table struct {
	Name        string
	Description string
	Range       date.Range
	Mode        string // join mode of a frame, empty for a series
	Header      []string
	Rows        []Row
	Latest      []Latest // columns without any observation are left out
	Warnings    []finmon.Warning
}

// NewTable flattens res.
func NewTable(res finmon.Result, description string) *Table {
	t := &Table{Name: res.Name, Description: description, Range: res.Range, Warnings: res.Warnings}
	switch {
	case res.Series != nil:
		t.Header = []string{header(res.Series.Meta)}
		for day, v := range res.Series.Points() {
			t.Rows = append(t.Rows, Row{Date: day, Values: []finmon.Value{v}})
		}
		t.addLatest(t.Header[0], *res.Series)
	case res.Frame != nil:
		t.Mode = res.Frame.Mode.String()
		for _, c := range res.Frame.Columns {
			t.Header = append(t.Header, header(c))
		}
		for _, r := range res.Frame.Rows {
			t.Rows = append(t.Rows, Row{Date: r.Date, Values: r.Values})
		}
		for i := range res.Frame.Columns {
			t.addLatest(t.Header[i], res.Frame.Column(i))
		}
	}
	return t
}

func (t *Table) addLatest(h string, s finmon.Series) {
	if on, x, ok := s.Latest(); ok {
		t.Latest = append(t.Latest, Latest{Header: h, Date: on, Value: finmon.V(x)})
	}
}

// header is the column title of a series: its label and unit.
func header(d finmon.Descriptor) string {
	h := d.Name()
	if d.Unit != "" {
		h += " (" + d.Unit + ")"
	}
	return h
}

// RenderResult renders a query result to a markdown string.
func RenderResult(res finmon.Result, description string) string {
	partials := map[string]string{
		"result_title":    "result_title.md",
		"result_table":    "result_table.md",
		"result_warnings": "result_warnings.md",
	}
	return renderTemplate("result", "result.md", partials, NewTable(res, description))
}

// RenderNames renders the logical names of a registry.
func RenderNames(entries []finmon.Entry) string {
	return renderTemplate("names", "names.md", nil, entries)
}

// RenderVariables renders the catalog of BCRA monetary variables.
func RenderVariables(vars []bcra.Variable) string {
	return renderTemplate("variables", "variables.md", nil, vars)
}

// renderTemplate renders a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Funcs(funcs).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		content, err := fs.ReadFile(templates, file)
		if err != nil {
			return fmt.Sprintf("error reading partial template %q: %v", file, err)
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}

// formatValue prints v with two decimals, or "-" if it is missing.
func formatValue(v finmon.Value) string {
	x, ok := v.Float()
	if !ok {
		return "-"
	}
	return decimal.NewFromFloat(x).StringFixed(2)
}

// escape makes s safe in a markdown table cell.
func escape(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
