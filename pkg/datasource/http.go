package datasource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-layouts/pkg/attr"
)

const maxBodyBytes = 4 << 20

// HTTPOption customises an HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithClient replaces the default http.Client.
func WithClient(client *http.Client) HTTPOption {
	return func(f *HTTPFetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithRetry configures retry attempts and the initial backoff.
func WithRetry(attempts int, delay time.Duration) HTTPOption {
	return func(f *HTTPFetcher) {
		f.attempts = attempts
		f.delay = delay
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) HTTPOption {
	return func(f *HTTPFetcher) {
		f.headers.Set(key, value)
	}
}

// WithHTTPLogger sets the fetch logger.
func WithHTTPLogger(logger zerolog.Logger) HTTPOption {
	return func(f *HTTPFetcher) {
		f.logger = logger
	}
}

// HTTPFetcher retrieves JSON documents over HTTP. Objects become attribute
// bags; any other JSON document is stored under the "items" key. Network
// errors and 5xx responses are retried.
type HTTPFetcher struct {
	client   *http.Client
	attempts int
	delay    time.Duration
	headers  http.Header
	logger   zerolog.Logger
}

// NewHTTPFetcher creates a fetcher with a 10s timeout and 3 attempts.
func NewHTTPFetcher(options ...HTTPOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:   &http.Client{Timeout: 10 * time.Second},
		attempts: 3,
		delay:    200 * time.Millisecond,
		headers:  http.Header{"Accept": []string{"application/json"}},
		logger:   zerolog.Nop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (attr.Attributes, error) {
	var body []byte
	err := retry(ctx, f.attempts, f.delay, func() error {
		payload, err := f.do(ctx, url)
		if err != nil {
			return err
		}
		body = payload
		return nil
	})
	if err != nil {
		f.logger.Warn().Err(err).Str("url", url).Msg("data source fetch failed")
		return nil, &Error{URL: url, Err: err}
	}
	return decode(body)
}

func (f *HTTPFetcher) do(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for key, values := range f.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, retryable(err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, retryable(fmt.Errorf("read body: %w", err))
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, retryable(fmt.Errorf("unexpected status %d", resp.StatusCode))
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return payload, nil
}

func decode(body []byte) (attr.Attributes, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("datasource: decode payload: %w", err)
	}
	if object, ok := raw.(map[string]any); ok {
		out := attr.FromMap(object)
		if out == nil {
			out = attr.Attributes{}
		}
		return out, nil
	}
	out := attr.Attributes{}
	out.Set("items", raw)
	return out, nil
}

var _ Fetcher = (*HTTPFetcher)(nil)
