// Package datasource loads external data for layout components that declare
// a data URL. Failures are reported to the caller, which isolates them to the
// owning component.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-layouts/pkg/attr"
)

// ErrDataSource wraps every fetch failure.
var ErrDataSource = errors.New("data source error")

// Error describes a failed fetch for url.
type Error struct {
	URL string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("datasource: %s: %v", e.URL, e.Err)
}

// Unwrap exposes both the underlying cause and ErrDataSource.
func (e *Error) Unwrap() []error { return []error{ErrDataSource, e.Err} }

// Fetcher retrieves the data behind url as attributes.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (attr.Attributes, error)
}

// FetcherFunc adapts a function into a Fetcher.
type FetcherFunc func(ctx context.Context, url string) (attr.Attributes, error)

// Fetch calls the underlying function.
func (fn FetcherFunc) Fetch(ctx context.Context, url string) (attr.Attributes, error) {
	return fn(ctx, url)
}

// Static serves fixed payloads keyed by URL; unknown URLs fail. Useful for
// previews and tests.
type Static map[string]attr.Attributes

// Fetch implements Fetcher.
func (s Static) Fetch(_ context.Context, url string) (attr.Attributes, error) {
	data, ok := s[url]
	if !ok {
		return nil, &Error{URL: url, Err: errors.New("no static payload")}
	}
	return data.Clone(), nil
}

// retryableError marks transient failures.
type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func retryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

// retry runs fn up to attempts times, doubling delay, and only retries
// errors marked retryable.
func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error
	for i := range attempts {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !errors.As(err, new(*retryableError)) {
			return err
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}
