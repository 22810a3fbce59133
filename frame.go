package finmon

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/etnz/finmon/date"
)

// JoinMode selects which dates survive an alignment.
type JoinMode int

const (
	// Inner keeps the dates where every series has a value.
	Inner JoinMode = iota
	// Outer keeps the union of all dates, absent values are Missing.
	Outer
)

func (m JoinMode) String() string {
	switch m {
	case Inner:
		return "inner"
	case Outer:
		return "outer"
	default:
		return fmt.Sprintf("JoinMode(%d)", int(m))
	}
}

// ParseJoinMode parses "inner" or "outer".
func ParseJoinMode(s string) (JoinMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inner":
		return Inner, nil
	case "outer":
		return Outer, nil
	default:
		return Inner, fmt.Errorf("unknown join mode %q want inner or outer", s)
	}
}

func (m JoinMode) MarshalJSON() ([]byte, error) { return json.Marshal(m.String()) }

func (m *JoinMode) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	mode, err := ParseJoinMode(s)
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// Row is one date of a Frame with one value per column.
type Row struct {
	Date   date.Date `json:"date"`
	Values []Value   `json:"values"`
}

// Frame is the result of aligning several series on a common date axis.
//
// Rows are strictly ascending by date.
type Frame struct {
	Mode    JoinMode     `json:"mode"`
	Columns []Descriptor `json:"columns"`
	Rows    []Row        `json:"rows"`
}

// Len returns the number of rows.
func (f Frame) Len() int { return len(f.Rows) }

// Dates returns the date axis of the frame.
func (f Frame) Dates() []date.Date {
	dates := make([]date.Date, len(f.Rows))
	for i, r := range f.Rows {
		dates[i] = r.Date
	}
	return dates
}

// Column returns the i-th column as a Series on the frame's date axis.
func (f Frame) Column(i int) Series {
	s := Series{Meta: f.Columns[i]}
	s.dates = f.Dates()
	s.values = make([]Value, len(f.Rows))
	for j, r := range f.Rows {
		s.values[j] = r.Values[i]
	}
	return s
}
