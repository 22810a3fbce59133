package finmon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/etnz/finmon/date"
	"github.com/rs/zerolog"
)

// Fetcher is implemented by every source adapter.
//
// Fetch returns the canonical series of d within r. An empty series with a nil
// error means the source has no data in that range. Failures should be
// *SourceError, anything else is treated as the source being unavailable.
type Fetcher interface {
	Fetch(ctx context.Context, d Descriptor, r date.Range) (Series, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, d Descriptor, r date.Range) (Series, error)

func (f FetcherFunc) Fetch(ctx context.Context, d Descriptor, r date.Range) (Series, error) {
	return f(ctx, d, r)
}

// Outcome of one adapter call, as reported to an Observer.
type Outcome string

const (
	OutcomeOK          Outcome = "ok"
	OutcomeEmpty       Outcome = "empty"
	OutcomeUnavailable Outcome = "unavailable"
	OutcomeMalformed   Outcome = "malformed"
)

// Observer receives the outcome of every guarded adapter call.
type Observer interface {
	ObserveFetch(source string, outcome Outcome, elapsed time.Duration)
}

// Warning is a non fatal issue attached to a query result.
type Warning struct {
	Source   string `json:"source,omitempty"`
	Variable string `json:"variable,omitempty"`
	Kind     string `json:"kind"`
	Reason   Reason `json:"reason,omitempty"`
	Message  string `json:"message"`
}

func (w Warning) String() string { return w.Message }

// NewWarning describes err, the failure to produce the series d.
func NewWarning(d Descriptor, err error) Warning {
	var se *SourceError
	switch {
	case errors.As(err, &se):
		w := Warning{Source: se.Source, Variable: se.Variable, Kind: "unavailable", Message: se.UserMessage()}
		if se.Kind == ErrSourceMalformed {
			w.Kind, w.Reason = "malformed", se.Reason
		}
		return w
	case errors.Is(err, ErrInsufficientData):
		return Warning{Source: d.Source, Variable: d.Variable, Kind: "insufficient_data", Message: err.Error()}
	default:
		return Warning{Source: d.Source, Variable: d.Variable, Kind: "unavailable", Message: err.Error()}
	}
}

// DefaultTimeout bounds every adapter call when the Guard has no Timeout.
const DefaultTimeout = 15 * time.Second

// Guard wraps adapter calls with a timeout and the degrade-to-empty policy.
//
// The zero Guard is usable: it logs nothing and observes nothing.
type Guard struct {
	Timeout  time.Duration
	Log      zerolog.Logger
	Observer Observer
}

type fetched struct {
	s   Series
	err error
}

// Fetch calls f for d within r.
//
// It never fails: on any error the result is an empty series described by d,
// and a warning. Successful results are clipped to r. There is no retry.
func (g Guard) Fetch(ctx context.Context, f Fetcher, d Descriptor, r date.Range) (Series, *Warning) {
	timeout := g.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	done := make(chan fetched, 1)
	go func() {
		s, err := call(ctx, f, d, r)
		done <- fetched{s, err}
	}()

	var res fetched
	select {
	case res = <-done:
	case <-ctx.Done():
		// An adapter that ignores its context must not block the query.
		res.err = fmt.Errorf("no response after %v: %w", timeout, ctx.Err())
	}
	elapsed := time.Since(start)

	if res.err != nil {
		var se *SourceError
		if !errors.As(res.err, &se) {
			se = Unavailable(d, 0, res.err)
		}
		outcome := OutcomeUnavailable
		if se.Kind == ErrSourceMalformed {
			outcome = OutcomeMalformed
		}
		g.observe(d.Source, outcome, elapsed)
		g.Log.Warn().Err(se).
			Str("source", d.Source).
			Str("variable", d.Variable).
			Int("status", se.Status).
			Dur("elapsed", elapsed).
			Msg("source degraded to empty series")
		w := NewWarning(d, se)
		return Empty(d), &w
	}

	s := res.s.Clip(r)
	s.Meta = merge(d, s.Meta)
	outcome := OutcomeOK
	if s.IsEmpty() {
		outcome = OutcomeEmpty
	}
	g.observe(d.Source, outcome, elapsed)
	g.Log.Debug().
		Str("source", d.Source).
		Str("variable", d.Variable).
		Int("points", s.Len()).
		Dur("elapsed", elapsed).
		Msg("fetched")
	return s, nil
}

func (g Guard) observe(source string, outcome Outcome, elapsed time.Duration) {
	if g.Observer != nil {
		g.Observer.ObserveFetch(source, outcome, elapsed)
	}
}

// call invokes f, turning a panic into an error.
func call(ctx context.Context, f Fetcher, d Descriptor, r date.Range) (s Series, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("adapter panic: %v", p)
		}
	}()
	return f.Fetch(ctx, d, r)
}

// merge completes the configured descriptor with what the adapter learnt.
func merge(configured, fetched Descriptor) Descriptor {
	if configured.Unit == "" {
		configured.Unit = fetched.Unit
	}
	if configured.Label == "" {
		configured.Label = fetched.Label
	}
	return configured
}
