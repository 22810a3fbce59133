package finmon

import (
	"encoding/json"
	"math"
	"strconv"
)

// Value is a numeric observation or the explicit missing marker.
//
// The zero Value is Missing.
type Value struct {
	v  float64
	ok bool
}

// Missing is the value of an observation that exists on the date axis but has
// no usable number.
var Missing = Value{}

// V returns a present Value. NaN and infinities are not numbers the engine can
// compute with, they become Missing.
func V(x float64) Value {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return Missing
	}
	return Value{v: x, ok: true}
}

// Float returns the number and true, or 0 and false when missing.
func (v Value) Float() (float64, bool) { return v.v, v.ok }

// IsMissing reports whether v is the missing marker.
func (v Value) IsMissing() bool { return !v.ok }

func (v Value) String() string {
	if !v.ok {
		return "-"
	}
	return strconv.FormatFloat(v.v, 'f', -1, 64)
}

// MarshalJSON encodes a missing value as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.ok {
		return []byte("null"), nil
	}
	return json.Marshal(v.v)
}

// UnmarshalJSON decodes null as Missing.
func (v *Value) UnmarshalJSON(b []byte) error {
	var x *float64
	if err := json.Unmarshal(b, &x); err != nil {
		return err
	}
	if x == nil {
		*v = Missing
		return nil
	}
	*v = V(*x)
	return nil
}
