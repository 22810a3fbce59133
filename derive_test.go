package finmon

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var descR = Descriptor{Source: "derived", Variable: "R", Unit: "x"}

func TestRatio(t *testing.T) {
	num := mk(descA,
		point{"2024-01-01", V(1000)},
		point{"2024-01-02", V(1100)},
		point{"2024-01-03", V(1200)},
		point{"2024-01-04", Missing},
	)
	den := mk(descB,
		point{"2024-01-02", V(4)},
		point{"2024-01-03", V(0)},
		point{"2024-01-04", V(5)},
		point{"2024-01-05", V(5)},
	)
	got := Ratio(descR, num, den)
	want := NewBuilder(descR).Derived(descA, descB).Add(d("2024-01-02"), V(275)).Series()
	if diff := cmp.Diff(want, got, cmpOpts); diff != "" {
		t.Errorf("Ratio() mismatch (-want +got):\n%s", diff)
	}
	if !got.IsDerived() {
		t.Error("Ratio() is not derived")
	}
}

func TestDifference(t *testing.T) {
	blue := mk(descA, point{"2024-01-01", V(1200)}, point{"2024-01-02", V(1250)})
	official := mk(descB, point{"2024-01-02", V(900)}, point{"2024-01-03", V(905)})
	got := Difference(descR, blue, official)
	want := NewBuilder(descR).Derived(descA, descB).Add(d("2024-01-02"), V(350)).Series()
	if diff := cmp.Diff(want, got, cmpOpts); diff != "" {
		t.Errorf("Difference() mismatch (-want +got):\n%s", diff)
	}
}

func TestScale(t *testing.T) {
	s := mk(descA, point{"2024-01-01", V(28000)}, point{"2024-01-02", Missing})
	got := Scale(descR, s, 0.25)
	want := NewBuilder(descR).Derived(descA).
		Add(d("2024-01-01"), V(7000)).
		Add(d("2024-01-02"), Missing).
		Series()
	if diff := cmp.Diff(want, got, cmpOpts); diff != "" {
		t.Errorf("Scale() mismatch (-want +got):\n%s", diff)
	}
}

func TestRebase(t *testing.T) {
	s := mk(descA, point{"2024-01-01", V(50)}, point{"2024-01-02", V(75)})
	got, err := Rebase(s, d("2024-01-01"))
	if err != nil {
		t.Fatalf("Rebase() unexpected error = %v", err)
	}
	want := []Value{V(100), V(150)}
	var values []Value
	for _, v := range got.Points() {
		values = append(values, v)
	}
	if diff := cmp.Diff(want, values, cmpOpts); diff != "" {
		t.Errorf("Rebase() mismatch (-want +got):\n%s", diff)
	}
	if got.Meta.Unit != "base 100 = 2024-01-01" {
		t.Errorf("Rebase() unit = %q", got.Meta.Unit)
	}

	first, err := RebaseFirst(s)
	if err != nil {
		t.Fatalf("RebaseFirst() unexpected error = %v", err)
	}
	if diff := cmp.Diff(got, first, cmpOpts); diff != "" {
		t.Errorf("RebaseFirst() mismatch (-want +got):\n%s", diff)
	}
}

func TestRebaseInsufficientData(t *testing.T) {
	s := mk(descA,
		point{"2024-01-01", V(0)},
		point{"2024-01-02", Missing},
		point{"2024-01-03", V(3)},
	)
	testCases := []struct {
		name string
		on   string
	}{
		{"zero reference", "2024-01-01"},
		{"missing reference", "2024-01-02"},
		{"absent reference", "2024-01-04"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Rebase(s, d(tc.on)); !errors.Is(err, ErrInsufficientData) {
				t.Errorf("Rebase() error = %v want %v", err, ErrInsufficientData)
			}
		})
	}
	if _, err := RebaseFirst(Empty(descA)); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("RebaseFirst() of empty error = %v want %v", err, ErrInsufficientData)
	}
}
