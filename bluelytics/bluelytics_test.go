package bluelytics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/etnz/finmon"
	"github.com/etnz/finmon/date"
	"github.com/google/go-cmp/cmp"
)

const evolution = `[
	{"date": "2024-01-03", "source": "Blue", "value_sell": 1010, "value_buy": 990},
	{"date": "2024-01-03", "source": "Oficial", "value_sell": 830, "value_buy": 790},
	{"date": "2024-01-02", "source": "Blue", "value_sell": 1005, "value_buy": 985},
	{"date": "2024-01-02", "source": "Oficial", "value_sell": 829, "value_buy": null}
]`

func TestEvolution(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/evolution.json" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(evolution))
	}))
	defer srv.Close()
	a := Evolution{BaseURL: srv.URL, HTTP: srv.Client()}
	r := date.Range{From: date.New(2024, 1, 1), To: date.New(2024, 1, 31)}

	testCases := []struct {
		source string
		want   map[string]string
	}{
		{"Blue", map[string]string{"2024-01-02": "995", "2024-01-03": "1000"}},
		{"oficial", map[string]string{"2024-01-02": "-", "2024-01-03": "810"}},
	}
	for _, tc := range testCases {
		t.Run(tc.source, func(t *testing.T) {
			s, err := a.Fetch(context.Background(), finmon.Descriptor{Source: Source, Variable: tc.source}, r)
			if err != nil {
				t.Fatalf("Fetch() unexpected error = %v", err)
			}
			got := make(map[string]string)
			for on, v := range s.Points() {
				got[on.String()] = v.String()
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Fetch() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	_, err := a.Fetch(context.Background(), finmon.Descriptor{Source: Source, Variable: "Euro"}, r)
	if !errors.Is(err, finmon.ErrSourceMalformed) {
		t.Errorf("Fetch() of an unknown source error = %v want %v", err, finmon.ErrSourceMalformed)
	}
}

func TestEvolutionUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	_, err := Evolution{BaseURL: srv.URL, HTTP: srv.Client()}.Fetch(context.Background(), finmon.Descriptor{Source: Source, Variable: "Blue"}, date.Range{})
	if !errors.Is(err, finmon.ErrSourceUnavailable) {
		t.Errorf("Fetch() error = %v want %v", err, finmon.ErrSourceUnavailable)
	}
}
