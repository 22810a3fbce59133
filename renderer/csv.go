package renderer

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/etnz/finmon"
)

// WriteCSV writes res as CSV: a "date" column then one column per series.
// Missing values are empty cells.
func WriteCSV(w io.Writer, res finmon.Result) error {
	t := NewTable(res, "")
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"date"}, t.Header...)); err != nil {
		return err
	}
	record := make([]string, len(t.Header)+1)
	for _, r := range t.Rows {
		record[0] = r.Date.String()
		for i, v := range r.Values {
			record[i+1] = ""
			if x, ok := v.Float(); ok {
				record[i+1] = strconv.FormatFloat(x, 'f', -1, 64)
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
