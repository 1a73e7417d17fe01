package cache

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryEntry struct {
	data    []byte
	expires time.Time
}

type memorySet struct {
	members map[string]struct{}
	expires time.Time
}

// MemoryStore is an in-process Store and Index. Expired entries are dropped
// lazily on access.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	sets    map[string]*memorySet
	now     func() time.Time
	closed  bool
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides the time source. Tests use it to expire entries.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(options ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		sets:    make(map[string]*memorySet),
		now:     time.Now,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *MemoryStore) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return s.now().Add(ttl)
}

// extend never shortens a set's lifetime: members written with a longer
// TTL must stay reachable. A zero time means no expiry.
func (s *MemoryStore) extend(current time.Time, ttl time.Duration, created bool) time.Time {
	next := s.expiry(ttl)
	if next.IsZero() || created {
		return next
	}
	if current.IsZero() || current.After(next) {
		return current
	}
	return next
}

func (s *MemoryStore) expired(at time.Time) bool {
	return !at.IsZero() && !s.now().Before(at)
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false, ErrClosed
	}
	entry, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if s.expired(entry.expires) {
		delete(s.entries, key)
		return nil, false, nil
	}
	return append([]byte(nil), entry.data...), true, nil
}

// Set implements Store.
func (s *MemoryStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.entries[key] = memoryEntry{data: append([]byte(nil), data...), expires: s.expiry(ttl)}
	return nil
}

// Delete implements Store. Keys naming index sets drop the set too.
func (s *MemoryStore) Delete(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	for _, key := range keys {
		delete(s.entries, key)
		delete(s.sets, key)
	}
	return nil
}

// Add implements Index.
func (s *MemoryStore) Add(ctx context.Context, set string, ttl time.Duration, members ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	current := s.liveSet(set)
	created := current == nil
	if created {
		current = &memorySet{members: make(map[string]struct{})}
		s.sets[set] = current
	}
	for _, member := range members {
		current.members[member] = struct{}{}
	}
	current.expires = s.extend(current.expires, ttl, created)
	return nil
}

// Members implements Index. Members are returned sorted.
func (s *MemoryStore) Members(ctx context.Context, set string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	current := s.liveSet(set)
	if current == nil {
		return nil, nil
	}
	out := make([]string, 0, len(current.members))
	for member := range current.members {
		out = append(out, member)
	}
	sort.Strings(out)
	return out, nil
}

// Remove implements Index.
func (s *MemoryStore) Remove(ctx context.Context, set string, members ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	current := s.liveSet(set)
	if current == nil {
		return nil
	}
	for _, member := range members {
		delete(current.members, member)
	}
	if len(current.members) == 0 {
		delete(s.sets, set)
	}
	return nil
}

// Len returns the number of live entries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for key, entry := range s.entries {
		if s.expired(entry.expires) {
			delete(s.entries, key)
			continue
		}
		total++
	}
	return total
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.entries = nil
	s.sets = nil
	return nil
}

func (s *MemoryStore) liveSet(name string) *memorySet {
	current, ok := s.sets[name]
	if !ok {
		return nil
	}
	if s.expired(current.expires) {
		delete(s.sets, name)
		return nil
	}
	return current
}

var _ IndexedStore = (*MemoryStore)(nil)
