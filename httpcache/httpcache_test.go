package httpcache

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/etnz/finmon/date"
	"github.com/rs/zerolog"
)

func TestTransport(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if r.URL.Path == "/down" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"call":` + string(rune('0'+n)) + `}`))
	}))
	defer srv.Close()

	today := date.New(2024, 6, 12)
	tr := &Transport{Store: Disk{Dir: t.TempDir()}, Period: date.Daily, Log: zerolog.Nop(), today: func() date.Date { return today }}
	client := &http.Client{Transport: tr}

	get := func(path string) string {
		t.Helper()
		resp, err := client.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("Get(%s) unexpected error = %v", path, err)
		}
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		return string(b)
	}

	first := get("/ok")
	if second := get("/ok"); second != first {
		t.Errorf("second Get() = %s want the cached %s", second, first)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("upstream called %d times want 1", n)
	}

	get("/down")
	get("/down")
	if n := calls.Load(); n != 3 {
		t.Errorf("failures were cached: upstream called %d times want 3", n)
	}

	// the next day the entry is stale
	today = today.Add(1)
	if third := get("/ok"); third == first {
		t.Errorf("Get() the next day = %s, still cached", third)
	}
}

func TestDisk(t *testing.T) {
	s := Disk{Dir: t.TempDir()}
	ctx := context.Background()
	if _, err := s.Get(ctx, "daily-abc"); err != ErrMiss {
		t.Errorf("Get() of a missing key error = %v want %v", err, ErrMiss)
	}
	if err := s.Put(ctx, "daily-abc", []byte("content")); err != nil {
		t.Fatalf("Put() unexpected error = %v", err)
	}
	if b, err := s.Get(ctx, "daily-abc"); err != nil || string(b) != "content" {
		t.Errorf("Get() = %q, %v", b, err)
	}
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("FINMON_TEST_REDIS")
	if addr == "" {
		t.Skip("set FINMON_TEST_REDIS to a redis address")
	}
	ctx := context.Background()
	s, err := NewRedis(ctx, addr, "", 0, time.Minute)
	if err != nil {
		t.Fatalf("NewRedis() unexpected error = %v", err)
	}
	defer s.Close()
	s.Prefix = "finmon-test"
	if _, err := s.Get(ctx, "nope"); err != ErrMiss {
		t.Errorf("Get() of a missing key error = %v want %v", err, ErrMiss)
	}
	if err := s.Put(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Put() unexpected error = %v", err)
	}
	if b, err := s.Get(ctx, "k"); err != nil || string(b) != "v" {
		t.Errorf("Get() = %q, %v", b, err)
	}
}
