// Package cache provides the stores resolved layouts are cached in.
//
// Store is an opaque key to bytes store with TTL. Index is an optional set
// store the manager uses to enumerate every key written for a user or under
// a prefix, since plain stores only support exact-key deletion.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned by stores used after Close.
var ErrClosed = errors.New("cache: store closed")

// Store is a byte cache with per-entry TTL. A zero TTL never expires.
// Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Index keeps named sets of keys. Adding members refreshes the set TTL.
type Index interface {
	Add(ctx context.Context, set string, ttl time.Duration, members ...string) error
	Members(ctx context.Context, set string) ([]string, error)
	Remove(ctx context.Context, set string, members ...string) error
}

// IndexedStore is implemented by stores that provide their own Index.
type IndexedStore interface {
	Store
	Index
}
