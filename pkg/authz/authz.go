// Package authz defines the authorization contract consumed by layout
// components. The layout core never decides access on its own: it asks an
// injected Resolver whether a user satisfies a component's permission and
// role requirements and fails closed whenever the resolver misbehaves.
package authz

import (
	"context"
	"fmt"
	"strings"
)

// AnonymousID is the cache identity used when no user is supplied.
const AnonymousID = "anon"

// User is the identity authorization is resolved against.
type User struct {
	ID          string         `json:"id" yaml:"id"`
	Roles       []string       `json:"roles,omitempty" yaml:"roles,omitempty"`
	Permissions []string       `json:"permissions,omitempty" yaml:"permissions,omitempty"`
	Attributes  map[string]any `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// CacheID returns the identity used in cache keys and authorization memos.
// Nil users and users without an id resolve to AnonymousID.
func (u *User) CacheID() string {
	if u == nil {
		return AnonymousID
	}
	id := strings.TrimSpace(u.ID)
	if id == "" {
		return AnonymousID
	}
	return id
}

// Anonymous reports whether u carries no identity.
func (u *User) Anonymous() bool {
	return u.CacheID() == AnonymousID
}

// HasRole reports whether the user holds role.
func (u *User) HasRole(role string) bool {
	if u == nil {
		return false
	}
	for _, candidate := range u.Roles {
		if strings.EqualFold(strings.TrimSpace(candidate), role) {
			return true
		}
	}
	return false
}

// Resolver decides whether user satisfies the supplied requirements.
// Implementations must be safe for concurrent use.
type Resolver interface {
	CanAccess(ctx context.Context, user *User, permissions, roles []string) (bool, error)
}

// ResolverFunc adapts a function into a Resolver.
type ResolverFunc func(ctx context.Context, user *User, permissions, roles []string) (bool, error)

// CanAccess calls the underlying function.
func (fn ResolverFunc) CanAccess(ctx context.Context, user *User, permissions, roles []string) (bool, error) {
	return fn(ctx, user, permissions, roles)
}

// Check evaluates the resolver and fails closed: a nil resolver, an error
// or a panic inside the resolver all deny access. Empty requirements are
// unrestricted and never reach the resolver.
func Check(ctx context.Context, resolver Resolver, user *User, permissions, roles []string) (allowed bool, err error) {
	if len(permissions) == 0 && len(roles) == 0 {
		return true, nil
	}
	if resolver == nil {
		return false, fmt.Errorf("authz: resolver is required")
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			allowed = false
			err = fmt.Errorf("authz: resolver panic: %v", recovered)
		}
	}()
	ok, resolveErr := resolver.CanAccess(ctx, user, permissions, roles)
	if resolveErr != nil {
		return false, fmt.Errorf("authz: resolve: %w", resolveErr)
	}
	return ok, nil
}

// Normalize trims, drops blanks and removes duplicates while preserving
// first-seen order.
func Normalize(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// AllowAll is a Resolver granting every request. Useful for previews and
// tests.
var AllowAll Resolver = ResolverFunc(func(context.Context, *User, []string, []string) (bool, error) {
	return true, nil
})

// DenyAll is a Resolver rejecting every request with requirements.
var DenyAll Resolver = ResolverFunc(func(context.Context, *User, []string, []string) (bool, error) {
	return false, nil
})
