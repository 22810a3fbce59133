package finmon

import (
	"fmt"

	"github.com/etnz/finmon/date"
)

// Align reconciles two or more series on their date axis.
//
// With Inner, a date is kept only if every series has a non missing value on
// that date. With Outer, the axis is the union of all dates and absent values
// are Missing. Rows are ascending whatever the order of the series.
func Align(mode JoinMode, series ...Series) (Frame, error) {
	if len(series) < 2 {
		return Frame{}, fmt.Errorf("%w: got %d", ErrAlignArity, len(series))
	}
	if mode != Inner && mode != Outer {
		return Frame{}, fmt.Errorf("cannot align with %v", mode)
	}

	f := Frame{Mode: mode, Columns: make([]Descriptor, len(series)), Rows: make([]Row, 0)}
	axes := make([][]date.Date, len(series))
	cursors := make([]int, len(series))
	for i, s := range series {
		f.Columns[i] = s.Meta
		axes[i] = s.dates
	}

	for on := range date.Union(axes...) {
		row := Row{Date: on, Values: make([]Value, len(series))}
		complete := true
		for i, s := range series {
			// The union yields ascending dates, so each series is walked once.
			if c := cursors[i]; c < len(s.dates) && s.dates[c] == on {
				row.Values[i] = s.values[c]
				cursors[i]++
			}
			if row.Values[i].IsMissing() {
				complete = false
			}
		}
		if mode == Inner && !complete {
			continue
		}
		f.Rows = append(f.Rows, row)
	}
	return f, nil
}
