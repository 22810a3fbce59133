package finmon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// contains http utils to deal with remote services

// Doer is the network fetch capability consumed by the adapters. *http.Client satisfies it.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// UserAgent is sent with every request, some upstreams reject the Go default one.
const UserAgent = "Mozilla/5.0 (compatible; finmon/1.0; +https://github.com/etnz/finmon)"

// maxBody bounds the size of a payload read in memory.
const maxBody = 32 << 20

// StatusError is a response received with a non 2xx status.
type StatusError struct {
	Code int
	URL  string
	Body []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cannot http GET %s: %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// PayloadError is a 2xx response whose body could not be decoded.
type PayloadError struct {
	URL string
	Err error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("unexpected payload from %s: %v", e.URL, e.Err)
}
func (e *PayloadError) Unwrap() error { return e.Err }

// GetJSON performs an HTTP GET request to the given address and unmarshals the
// JSON response body into data.
//
// Non 2xx responses are returned as *StatusError, undecodable bodies as
// *PayloadError. Transport errors are returned wrapped.
func GetJSON(ctx context.Context, client Doer, addr string, data any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("cannot http GET %s: %w", req.URL.Redacted(), err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(resp.Body, maxBody)); err != nil {
		return fmt.Errorf("read response from %s: %w", req.URL.Redacted(), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode, URL: req.URL.Redacted(), Body: buf.Bytes()}
	}
	if err := json.Unmarshal(buf.Bytes(), data); err != nil {
		return &PayloadError{URL: req.URL.Redacted(), Err: err}
	}
	return nil
}

// ReasonFunc derives why an upstream rejected a request from the 4xx status and
// body it answered. It also returns the upstream message, if any.
type ReasonFunc func(status int, body []byte) (Reason, string)

// Classify turns an error returned by GetJSON into a *SourceError for d.
//
// 4xx responses are ErrSourceMalformed (but for 408 and 429 that tell about
// availability), everything else is ErrSourceUnavailable. A nil reason uses
// DefaultReason.
func Classify(d Descriptor, err error, reason ReasonFunc) error {
	if err == nil {
		return nil
	}
	var se *SourceError
	if errors.As(err, &se) {
		return se
	}
	var status *StatusError
	if !errors.As(err, &status) {
		return Unavailable(d, 0, err)
	}
	switch {
	case status.Code == http.StatusRequestTimeout, status.Code == http.StatusTooManyRequests:
		return Unavailable(d, status.Code, err)
	case status.Code >= 400 && status.Code < 500:
		if reason == nil {
			reason = DefaultReason
		}
		r, msg := reason(status.Code, status.Body)
		return Malformed(d, r, status.Code, msg)
	default:
		return Unavailable(d, status.Code, err)
	}
}

// DefaultReason maps 404 to ReasonUnknownVariable and any other 4xx to
// ReasonBadRequest. The message is read from the common error body shapes.
func DefaultReason(status int, body []byte) (Reason, string) {
	msg := ErrorMessage(body)
	if status == http.StatusNotFound {
		return ReasonUnknownVariable, msg
	}
	return ReasonBadRequest, msg
}

// ErrorMessage extracts a human message from a JSON error body, or "".
func ErrorMessage(body []byte) string {
	var payload struct {
		Message       string   `json:"message"`
		Error         any      `json:"error"`
		ErrorMessages []string `json:"errorMessages"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	switch {
	case len(payload.ErrorMessages) > 0:
		return strings.Join(payload.ErrorMessages, "; ")
	case payload.Message != "":
		return payload.Message
	}
	switch e := payload.Error.(type) {
	case string:
		return e
	case map[string]any:
		if d, ok := e["description"].(string); ok {
			return d
		}
		if m, ok := e["message"].(string); ok {
			return m
		}
	}
	return ""
}
