package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Store and Index backed by redis. Entries use SET with an
// expiry; index sets are extended by a script so they outlive their members.
type RedisStore struct {
	client redis.UniversalClient
}

// RedisOptions selects the server NewRedisStoreFromOptions connects to.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisStore wraps an existing client. The store closes the client on
// Close.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// NewRedisStoreFromOptions dials a single redis server and pings it.
func NewRedisStoreFromOptions(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: redis ping %s: %w", opts.Addr, err)
	}
	return NewRedisStore(client), nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: redis get %s: %w", key, err)
	}
	return data, true, nil
}

// Set implements Store.
func (s *RedisStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("cache: redis set %s: %w", key, err)
	}
	return nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache: redis del: %w", err)
	}
	return nil
}

// addScript adds members and only ever extends the set's expiry. A zero
// TTL persists the set.
var addScript = redis.NewScript(`
local existed = redis.call('EXISTS', KEYS[1])
local current = redis.call('PTTL', KEYS[1])
redis.call('SADD', KEYS[1], unpack(ARGV, 2))
local ttl = tonumber(ARGV[1])
if ttl <= 0 then
	redis.call('PERSIST', KEYS[1])
	return 0
end
if existed == 1 and current == -1 then
	return 0
end
if current < ttl then
	redis.call('PEXPIRE', KEYS[1], ttl)
end
return 1
`)

// Add implements Index. The set expiry is raised to ttl when shorter and
// never lowered.
func (s *RedisStore) Add(ctx context.Context, set string, ttl time.Duration, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	values := make([]any, len(members))
	for i, member := range members {
		values[i] = member
	}
	if ttl < 0 {
		ttl = 0
	}
	args := append([]any{ttl.Milliseconds()}, values...)
	if err := addScript.Run(ctx, s.client, []string{set}, args...).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("cache: redis sadd %s: %w", set, err)
	}
	return nil
}

// Members implements Index.
func (s *RedisStore) Members(ctx context.Context, set string) ([]string, error) {
	members, err := s.client.SMembers(ctx, set).Result()
	if err != nil {
		return nil, fmt.Errorf("cache: redis smembers %s: %w", set, err)
	}
	return members, nil
}

// Remove implements Index.
func (s *RedisStore) Remove(ctx context.Context, set string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	values := make([]any, len(members))
	for i, member := range members {
		values[i] = member
	}
	if err := s.client.SRem(ctx, set, values...).Err(); err != nil {
		return fmt.Errorf("cache: redis srem %s: %w", set, err)
	}
	return nil
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ IndexedStore = (*RedisStore)(nil)
