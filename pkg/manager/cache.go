package manager

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-layouts/pkg/authz"
	"github.com/goliatone/go-layouts/pkg/layout"
)

// ClearCache removes the cached layout of one user (anonymous when user is
// nil) for module and context.
func (m *Manager) ClearCache(ctx context.Context, module, context string, user *authz.User) error {
	if err := layout.ValidateKey(module, context); err != nil {
		return fmt.Errorf("manager: %w", err)
	}
	keyer := m.Keyer()
	userID := user.CacheID()
	key := keyer.LayoutKey(module, context, userID)

	if err := m.store.Delete(ctx, key); err != nil {
		m.cacheError(ctx, "delete", key, err)
		return fmt.Errorf("manager: clear %s: %w", key, err)
	}
	err := errors.Join(
		m.index.Remove(ctx, keyer.UserIndexKey(userID), key),
		m.index.Remove(ctx, keyer.AllIndexKey(), key),
	)
	if err != nil {
		m.cacheError(ctx, "index", key, err)
	}
	m.hooks.OnInvalidate(ctx, "key", 1)
	m.logger.Debug().Str("key", key).Msg("layout cache entry cleared")
	return nil
}

// ClearUserCache removes every cached layout of userID across all modules
// and contexts. It returns the number of layout entries removed.
func (m *Manager) ClearUserCache(ctx context.Context, userID string) (int, error) {
	keyer := m.Keyer()
	setKey := keyer.UserIndexKey(userID)

	keys, err := m.index.Members(ctx, setKey)
	if err != nil {
		m.cacheError(ctx, "index", setKey, err)
		return 0, fmt.Errorf("manager: clear user %s: %w", userID, err)
	}
	if err := m.store.Delete(ctx, keys...); err != nil {
		m.cacheError(ctx, "delete", setKey, err)
		return 0, fmt.Errorf("manager: clear user %s: %w", userID, err)
	}
	err = errors.Join(
		m.deleteIndex(ctx, setKey),
		m.index.Remove(ctx, keyer.AllIndexKey(), append(keys, setKey)...),
	)
	if err != nil {
		m.cacheError(ctx, "index", setKey, err)
	}

	m.hooks.OnInvalidate(ctx, "user", len(keys))
	m.logger.Info().
		Str("user", userID).
		Int("removed", len(keys)).
		Msg("user layout cache cleared")
	return len(keys), nil
}

// ClearAllCache removes every layout cached under the current prefix. It
// returns the number of layout entries removed.
func (m *Manager) ClearAllCache(ctx context.Context) (int, error) {
	keyer := m.Keyer()
	allKey := keyer.AllIndexKey()

	keys, err := m.index.Members(ctx, allKey)
	if err != nil {
		m.cacheError(ctx, "index", allKey, err)
		return 0, fmt.Errorf("manager: clear all: %w", err)
	}

	indexPrefix := keyer.Prefix() + ":idx:"
	var layouts, indexes []string
	for _, key := range keys {
		if strings.HasPrefix(key, indexPrefix) {
			indexes = append(indexes, key)
		} else {
			layouts = append(layouts, key)
		}
	}
	if err := m.store.Delete(ctx, layouts...); err != nil {
		m.cacheError(ctx, "delete", allKey, err)
		return 0, fmt.Errorf("manager: clear all: %w", err)
	}
	var indexErr error
	for _, key := range append(indexes, allKey) {
		indexErr = errors.Join(indexErr, m.deleteIndex(ctx, key))
	}
	if indexErr != nil {
		m.cacheError(ctx, "index", allKey, indexErr)
	}

	m.hooks.OnInvalidate(ctx, "all", len(layouts))
	m.logger.Info().
		Str("prefix", keyer.Prefix()).
		Int("removed", len(layouts)).
		Msg("layout cache cleared")
	return len(layouts), nil
}

func (m *Manager) read(ctx context.Context, key, module, context string, user *authz.User) (*layout.Layout, bool) {
	data, ok, err := m.store.Get(ctx, key)
	if err != nil {
		m.cacheError(ctx, "get", key, err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	l, err := layout.Decode(data)
	if err != nil {
		m.cacheError(ctx, "decode", key, err)
		if delErr := m.store.Delete(ctx, key); delErr != nil {
			m.cacheError(ctx, "delete", key, delErr)
		}
		return nil, false
	}
	if l.Module() != module || l.Context() != context {
		m.cacheError(ctx, "decode", key, fmt.Errorf("cached layout is %s", l.Key()))
		return nil, false
	}
	if resolvedFor, resolved := l.ResolvedFor(); !resolved || resolvedFor != user.CacheID() {
		m.logger.Debug().
			Str("key", key).
			Str("cached_for", resolvedFor).
			Str("user", user.CacheID()).
			Msg("re-resolving cached layout")
		l.ResolveAuthorization(ctx, m.resolver, user)
	}
	return l, true
}

func (m *Manager) write(ctx context.Context, module, context, userID string, data []byte) {
	ttl := m.CacheTTL()
	keyer := m.Keyer()
	key := keyer.LayoutKey(module, context, userID)
	userSet := keyer.UserIndexKey(userID)

	if err := m.store.Set(ctx, key, data, ttl); err != nil {
		m.cacheError(ctx, "set", key, err)
		return
	}
	err := errors.Join(
		m.index.Add(ctx, userSet, ttl, key),
		m.index.Add(ctx, keyer.AllIndexKey(), ttl, key, userSet),
	)
	if err != nil {
		m.cacheError(ctx, "index", key, err)
	}
}

// deleteIndex drops a whole set. Sets held by a separate index are emptied
// member by member since Index has no delete.
func (m *Manager) deleteIndex(ctx context.Context, set string) error {
	if store, ok := m.index.(interface {
		Delete(ctx context.Context, keys ...string) error
	}); ok {
		return store.Delete(ctx, set)
	}
	members, err := m.index.Members(ctx, set)
	if err != nil {
		return err
	}
	return m.index.Remove(ctx, set, members...)
}

func (m *Manager) cacheError(ctx context.Context, op, key string, err error) {
	m.hooks.OnCacheError(ctx, op, err)
	m.logger.Warn().Err(err).
		Str("op", op).
		Str("key", key).
		Msg("layout cache operation failed")
}
