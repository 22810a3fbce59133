// Package httpcache keeps upstream responses for a calendar period, so that
// repeated commands within a day do not poll the public APIs again.
//
// It lives outside the engine: it is an http.RoundTripper placed under the
// adapters' client.
package httpcache

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"

	"github.com/etnz/finmon/date"
	"github.com/rs/zerolog"
)

// ErrMiss is returned by a Store that has no entry for a key.
var ErrMiss = errors.New("cache miss")

// Store keeps raw HTTP responses by key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, content []byte) error
}

// Transport implements http.RoundTripper. Successful GET responses are kept
// in Store for the current Period; the key changes with the period, so that
// entries expire with it.
type Transport struct {
	Base   http.RoundTripper // http.DefaultTransport if nil
	Store  Store
	Period date.Period
	Log    zerolog.Logger

	today func() date.Date
}

// NewClient returns a copy of client whose transport caches in store.
func NewClient(client *http.Client, store Store, period date.Period, log zerolog.Logger) *http.Client {
	c := *client
	c.Transport = &Transport{Base: client.Transport, Store: store, Period: period, Log: log}
	return &c
}

func (c *Transport) base() http.RoundTripper {
	if c.Base == nil {
		return http.DefaultTransport
	}
	return c.Base
}

// key is unique per period and request.
func (c *Transport) key(req *http.Request) string {
	today := date.Today()
	if c.today != nil {
		today = c.today()
	}
	rangeID := date.NewRange(today, c.Period).Identifier()
	key := fmt.Sprintf("%s %s %s", rangeID, req.Method, req.URL.String())
	return fmt.Sprintf("%s-%x", c.Period, sha1.Sum([]byte(key)))
}

// RoundTrip checks for a cached response first. If none is found it performs
// the request and caches the response if it is successful.
func (c *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet {
		return c.base().RoundTrip(req)
	}
	ctx := req.Context()
	key := c.key(req)

	if content, err := c.Store.Get(ctx, key); err == nil {
		resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(content)), req)
		if err == nil {
			c.Log.Debug().Str("url", req.URL.Redacted()).Msg("cache hit")
			return resp, nil
		}
		c.Log.Warn().Err(err).Str("key", key).Msg("corrupted cache entry (ignored)")
	} else if !errors.Is(err, ErrMiss) {
		c.Log.Warn().Err(err).Msg("cache read error (ignored)")
	}

	resp, err := c.base().RoundTrip(req)
	if err != nil {
		return nil, err
	}
	c.Log.Debug().Str("host", req.URL.Host).Str("path", req.URL.Path).Int("status", resp.StatusCode).Msg("GET")
	if resp.StatusCode >= 300 {
		return resp, nil
	}

	// DumpResponse reads the body and restores it.
	content, err := httputil.DumpResponse(resp, true)
	if err != nil {
		c.Log.Warn().Err(err).Msg("cache dump error (ignored)")
		return resp, nil
	}
	if err := c.Store.Put(ctx, key, content); err != nil {
		c.Log.Warn().Err(err).Msg("cache write error (ignored)")
	}
	return resp, nil
}
