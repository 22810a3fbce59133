package finmon

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRange is returned when a query's start date is after its end date.
	ErrInvalidRange = errors.New("invalid date range")
	// ErrUnknownName is returned when a logical name is not in the registry.
	ErrUnknownName = errors.New("unknown indicator")
	// ErrSourceUnavailable classifies network failures, timeouts, 5xx responses and
	// payloads of an unexpected shape.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrSourceMalformed classifies requests rejected by the upstream (4xx).
	ErrSourceMalformed = errors.New("source rejected the request")
	// ErrInsufficientData is returned when a derived computation is undefined.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrAlignArity is returned when fewer than two series are aligned.
	ErrAlignArity = errors.New("alignment needs at least two series")
)

// Reason tells apart the causes of a rejected request.
type Reason string

const (
	ReasonBadRange        Reason = "bad_range"
	ReasonUnknownVariable Reason = "unknown_variable"
	ReasonBadRequest      Reason = "bad_request"
)

// SourceError is the failure of one adapter call.
//
// It matches its Kind (ErrSourceUnavailable or ErrSourceMalformed) and its
// cause with errors.Is.
type SourceError struct {
	Source   string
	Variable string
	Kind     error
	Reason   Reason // set when Kind is ErrSourceMalformed
	Status   int    // HTTP status code, 0 if none was received
	Message  string // upstream message, if any
	Err      error
}

func (e *SourceError) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Source, e.Variable, e.Kind)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SourceError) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// UserMessage is the message shown to an end user for this failure.
func (e *SourceError) UserMessage() string {
	if e.Kind != ErrSourceMalformed {
		return fmt.Sprintf("%s is unavailable, %s is shown without data", e.Source, e.Variable)
	}
	var msg string
	switch e.Reason {
	case ReasonBadRange:
		msg = fmt.Sprintf("%s rejected the date range for %s", e.Source, e.Variable)
	case ReasonUnknownVariable:
		msg = fmt.Sprintf("%s does not know the variable %s", e.Source, e.Variable)
	default:
		msg = fmt.Sprintf("%s rejected the request for %s", e.Source, e.Variable)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Unavailable returns a SourceError of kind ErrSourceUnavailable.
func Unavailable(d Descriptor, status int, err error) *SourceError {
	return &SourceError{Source: d.Source, Variable: d.Variable, Kind: ErrSourceUnavailable, Status: status, Err: err}
}

// Malformed returns a SourceError of kind ErrSourceMalformed.
func Malformed(d Descriptor, reason Reason, status int, message string) *SourceError {
	return &SourceError{Source: d.Source, Variable: d.Variable, Kind: ErrSourceMalformed, Reason: reason, Status: status, Message: message}
}
