package cache

import (
	"strings"

	"github.com/goliatone/go-layouts/pkg/authz"
)

// DefaultPrefix namespaces layout keys when no prefix is configured.
const DefaultPrefix = "layouts"

// Keyer builds deterministic layout and index keys:
//
//	{prefix}:{module}:{context}:{userId|anon}
//	{prefix}:idx:user:{userId|anon}
//	{prefix}:idx:all
type Keyer struct {
	prefix string
}

// NewKeyer creates a keyer. A blank prefix falls back to DefaultPrefix.
func NewKeyer(prefix string) Keyer {
	prefix = strings.Trim(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Keyer{prefix: prefix}
}

// Prefix returns the namespace.
func (k Keyer) Prefix() string {
	if k.prefix == "" {
		return DefaultPrefix
	}
	return k.prefix
}

// LayoutKey returns the cache key for one resolved layout.
func (k Keyer) LayoutKey(module, context, userID string) string {
	return k.Prefix() + ":" + module + ":" + context + ":" + userKey(userID)
}

// UserIndexKey returns the set holding every layout key of userID.
func (k Keyer) UserIndexKey(userID string) string {
	return k.Prefix() + ":idx:user:" + userKey(userID)
}

// AllIndexKey returns the set holding every layout key under the prefix.
func (k Keyer) AllIndexKey() string {
	return k.Prefix() + ":idx:all"
}

func userKey(userID string) string {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return authz.AnonymousID
	}
	return userID
}
