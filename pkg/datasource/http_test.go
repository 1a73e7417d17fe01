package datasource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestHTTPFetcher_DecodesObject(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"count": 3, "label": "Orders", "tags": ["a", "b"], "meta": {"x": 1}}`))
	}))
	t.Cleanup(server.Close)

	fetcher := NewHTTPFetcher(WithRetry(1, time.Millisecond))
	data, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got := data["count"].Int(); got != 3 {
		t.Fatalf("count: want 3, got %d", got)
	}
	if got := data.String("label"); got != "Orders" {
		t.Fatalf("label: want Orders, got %q", got)
	}
	if got := data.String("meta"); got != `{"x":1}` {
		t.Fatalf("nested object should be JSON encoded, got %q", got)
	}
}

func TestHTTPFetcher_RetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[1, 2]`))
	}))
	t.Cleanup(server.Close)

	fetcher := NewHTTPFetcher(WithRetry(3, time.Millisecond))
	data, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
	if data["items"].Len() != 2 {
		t.Fatalf("array payload should be stored under items")
	}
}

func TestHTTPFetcher_ClientErrorsAreNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	fetcher := NewHTTPFetcher(WithRetry(3, time.Millisecond))
	_, err := fetcher.Fetch(context.Background(), server.URL)
	if !errors.Is(err, ErrDataSource) {
		t.Fatalf("expected ErrDataSource, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("404 must not be retried, got %d attempts", calls.Load())
	}
}

func TestStatic_UnknownURL(t *testing.T) {
	t.Parallel()

	_, err := Static{}.Fetch(context.Background(), "mem://missing")
	if !errors.Is(err, ErrDataSource) {
		t.Fatalf("expected ErrDataSource, got %v", err)
	}
}
