package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/redis/go-redis/v9"
)

func TestKeyer(t *testing.T) {
	t.Parallel()

	k := NewKeyer(" app:")
	cases := []struct{ got, want string }{
		{k.LayoutKey("users", "edit", "42"), "app:users:edit:42"},
		{k.LayoutKey("users", "edit", ""), "app:users:edit:anon"},
		{k.UserIndexKey("42"), "app:idx:user:42"},
		{k.AllIndexKey(), "app:idx:all"},
		{NewKeyer("").LayoutKey("m", "c", "u"), "layouts:m:c:u"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Fatalf("key mismatch: want %q, got %q", tc.want, tc.got)
		}
	}
}

func TestMemoryStore_TTL(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemoryStore(WithClock(func() time.Time { return now }))
	ctx := context.Background()

	if err := store.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "forever", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if data, ok, _ := store.Get(ctx, "k"); !ok || string(data) != "v" {
		t.Fatalf("expected hit, got %q %v", data, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Fatalf("entry should have expired")
	}
	if _, ok, _ := store.Get(ctx, "forever"); !ok {
		t.Fatalf("zero ttl should never expire")
	}
	if store.Len() != 1 {
		t.Fatalf("expected one live entry, got %d", store.Len())
	}
}

func TestMemoryStore_Index(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	exerciseIndex(t, store)
}

func TestMemoryStore_Closed(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	_ = store.Close()
	if _, _, err := store.Get(context.Background(), "k"); err != ErrClosed {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestRedisStore(t *testing.T) {
	t.Parallel()

	server := miniredis.RunT(t)
	store := NewRedisStore(redis.NewClient(&redis.Options{Addr: server.Addr()}))
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "missing"); ok || err != nil {
		t.Fatalf("missing key should be a clean miss, got ok=%v err=%v", ok, err)
	}
	if err := store.Set(ctx, "k", []byte(`{"v":1}`), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if data, ok, err := store.Get(ctx, "k"); err != nil || !ok || string(data) != `{"v":1}` {
		t.Fatalf("expected hit, got %q ok=%v err=%v", data, ok, err)
	}

	server.FastForward(2 * time.Minute)
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Fatalf("entry should have expired")
	}

	exerciseIndex(t, store)
}

func TestRedisStore_UnreachableServer(t *testing.T) {
	t.Parallel()

	server := miniredis.RunT(t)
	store := NewRedisStore(redis.NewClient(&redis.Options{Addr: server.Addr(), MaxRetries: -1}))
	t.Cleanup(func() { _ = store.Close() })
	server.Close()

	if _, _, err := store.Get(context.Background(), "k"); err == nil {
		t.Fatalf("expected error from closed server")
	}
}

func exerciseIndex(t *testing.T, store IndexedStore) {
	t.Helper()
	ctx := context.Background()

	if err := store.Add(ctx, "idx:user:1", time.Hour, "a", "b"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.Add(ctx, "idx:user:1", time.Hour, "b", "c"); err != nil {
		t.Fatalf("add: %v", err)
	}
	members, err := store.Members(ctx, "idx:user:1")
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, members, sortStrings); diff != "" {
		t.Fatalf("members mismatch (-want +got):\n%s", diff)
	}

	if err := store.Remove(ctx, "idx:user:1", "a"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	members, _ = store.Members(ctx, "idx:user:1")
	if diff := cmp.Diff([]string{"b", "c"}, members, sortStrings); diff != "" {
		t.Fatalf("members after remove mismatch (-want +got):\n%s", diff)
	}

	if err := store.Delete(ctx, "idx:user:1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	members, _ = store.Members(ctx, "idx:user:1")
	if len(members) != 0 {
		t.Fatalf("deleted set should be empty, got %v", members)
	}
}

var sortStrings = cmpopts.SortSlices(func(a, b string) bool { return a < b })

func TestMemoryStore_IndexExpiryNeverShrinks(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemoryStore(WithClock(func() time.Time { return now }))
	ctx := context.Background()

	if err := store.Add(ctx, "set", 2*time.Hour, "long"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.Add(ctx, "set", time.Minute, "short"); err != nil {
		t.Fatalf("add: %v", err)
	}
	now = now.Add(time.Hour)
	members, err := store.Members(ctx, "set")
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	if diff := cmp.Diff([]string{"long", "short"}, members); diff != "" {
		t.Fatalf("members mismatch (-want +got):\n%s", diff)
	}

	if err := store.Add(ctx, "persist", 0, "a"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.Add(ctx, "persist", time.Minute, "b"); err != nil {
		t.Fatalf("add: %v", err)
	}
	now = now.Add(24 * time.Hour)
	if members, _ := store.Members(ctx, "persist"); len(members) != 2 {
		t.Fatalf("persistent set should survive, got %v", members)
	}
}

func TestRedisStore_IndexExpiryNeverShrinks(t *testing.T) {
	t.Parallel()

	server := miniredis.RunT(t)
	store := NewRedisStore(redis.NewClient(&redis.Options{Addr: server.Addr()}))
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	if err := store.Add(ctx, "set", 2*time.Hour, "long"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.Add(ctx, "set", time.Minute, "short"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if ttl := server.TTL("set"); ttl != 2*time.Hour {
		t.Fatalf("expected set ttl to stay at 2h, got %s", ttl)
	}
	if err := store.Add(ctx, "set", 3*time.Hour, "longer"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if ttl := server.TTL("set"); ttl != 3*time.Hour {
		t.Fatalf("expected set ttl to grow to 3h, got %s", ttl)
	}
	if err := store.Add(ctx, "set", 0, "forever"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if ttl := server.TTL("set"); ttl != 0 {
		t.Fatalf("zero ttl should persist the set, got %s", ttl)
	}
	if err := store.Add(ctx, "set", time.Minute, "after"); err != nil {
		t.Fatalf("add: %v", err)
	}
	server.FastForward(time.Hour)
	members, err := store.Members(ctx, "set")
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	if len(members) != 5 {
		t.Fatalf("expected 5 members, got %v", members)
	}
}
