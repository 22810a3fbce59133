package finmon

import (
	"fmt"

	"github.com/etnz/finmon/date"
)

// combine computes op on the inner alignment of a and b.
// op returns false when the result is undefined for that date.
func combine(meta Descriptor, a, b Series, op func(x, y float64) (float64, bool)) Series {
	builder := NewBuilder(meta).Derived(a.Meta, b.Meta)
	f, _ := Align(Inner, a, b) // two series never fail
	for _, row := range f.Rows {
		x, _ := row.Values[0].Float()
		y, _ := row.Values[1].Float()
		if z, ok := op(x, y); ok {
			builder.Add(row.Date, V(z))
		}
	}
	return builder.Series()
}

// Ratio returns num/den on every date where both have a value.
// Dates where den is zero are dropped.
func Ratio(meta Descriptor, num, den Series) Series {
	return combine(meta, num, den, func(x, y float64) (float64, bool) {
		if y == 0 {
			return 0, false
		}
		return x / y, true
	})
}

// Difference returns a-b on every date where both have a value.
func Difference(meta Descriptor, a, b Series) Series {
	return combine(meta, a, b, func(x, y float64) (float64, bool) { return x - y, true })
}

// Scale multiplies every value of s by factor, missing values stay missing.
func Scale(meta Descriptor, s Series, factor float64) Series {
	builder := NewBuilder(meta).Derived(s.Meta)
	for on, v := range s.Points() {
		if x, ok := v.Float(); ok {
			v = V(x * factor)
		}
		builder.Add(on, v)
	}
	return builder.Series()
}

// Rebase scales s so that its value on 'on' becomes 100.
//
// It fails with ErrInsufficientData if s has no observation on that date, or if
// that observation is missing or zero.
func Rebase(s Series, on date.Date) (Series, error) {
	v, found := s.Get(on)
	if !found {
		return Series{}, fmt.Errorf("%w: cannot rebase %s, no observation on %s", ErrInsufficientData, s.Meta.Name(), on)
	}
	ref, ok := v.Float()
	if !ok || ref == 0 {
		return Series{}, fmt.Errorf("%w: cannot rebase %s, reference value on %s is %v", ErrInsufficientData, s.Meta.Name(), on, v)
	}
	meta := s.Meta
	meta.Unit = "base 100 = " + on.String()
	builder := NewBuilder(meta).Derived(s.Meta)
	for day, v := range s.Points() {
		if x, ok := v.Float(); ok {
			v = V(x * 100 / ref)
		}
		builder.Add(day, v)
	}
	return builder.Series(), nil
}

// RebaseFirst rebases s on its first date.
func RebaseFirst(s Series) (Series, error) {
	if s.IsEmpty() {
		return Series{}, fmt.Errorf("%w: cannot rebase %s, it is empty", ErrInsufficientData, s.Meta.Name())
	}
	on, _ := s.At(0)
	return Rebase(s, on)
}
