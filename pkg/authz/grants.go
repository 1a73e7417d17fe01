package authz

import (
	"context"
	"strings"
	"sync"
)

// GrantResolver is the built-in Resolver. Roles grant permission patterns
// and users may also carry direct permissions. Patterns support "*",
// "resource.*" and "*.action" wildcards.
//
// A user satisfies a component when it holds every required permission and,
// if roles are required, at least one of them. Anonymous users never satisfy
// a non-empty requirement.
type GrantResolver struct {
	mu     sync.RWMutex
	grants map[string][]string
}

// NewGrantResolver creates an empty resolver.
func NewGrantResolver() *GrantResolver {
	return &GrantResolver{grants: make(map[string][]string)}
}

// Grant adds permission patterns to role.
func (r *GrantResolver) Grant(role string, permissions ...string) *GrantResolver {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return r
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.grants[role] = Normalize(append(r.grants[role], permissions...))
	return r
}

// Grants returns the permission patterns currently attached to role.
func (r *GrantResolver) Grants(role string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.grants[strings.ToLower(strings.TrimSpace(role))]...)
}

// CanAccess implements Resolver.
func (r *GrantResolver) CanAccess(ctx context.Context, user *User, permissions, roles []string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if user.Anonymous() {
		return len(permissions) == 0 && len(roles) == 0, nil
	}

	if len(roles) > 0 {
		matched := false
		for _, role := range roles {
			if user.HasRole(role) {
				matched = true
				break
			}
		}
		if !matched {
			return false, nil
		}
	}

	if len(permissions) == 0 {
		return true, nil
	}

	held := r.patternsFor(user)
	for _, permission := range permissions {
		if !anyPatternMatches(held, permission) {
			return false, nil
		}
	}
	return true, nil
}

func (r *GrantResolver) patternsFor(user *User) []string {
	patterns := append([]string(nil), user.Permissions...)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, role := range user.Roles {
		patterns = append(patterns, r.grants[strings.ToLower(strings.TrimSpace(role))]...)
	}
	return patterns
}

func anyPatternMatches(patterns []string, permission string) bool {
	for _, pattern := range patterns {
		if MatchPermission(pattern, permission) {
			return true
		}
	}
	return false
}

// MatchPermission reports whether pattern grants permission. Segments are
// dot separated; "*" alone grants everything, "files.*" grants every files
// action and "*.read" grants read on every resource.
func MatchPermission(pattern, permission string) bool {
	pattern = strings.TrimSpace(pattern)
	permission = strings.TrimSpace(permission)
	if pattern == "" || permission == "" {
		return false
	}
	if pattern == "*" || pattern == permission {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, ".*"); ok {
		return strings.HasPrefix(permission, prefix+".")
	}
	if suffix, ok := strings.CutPrefix(pattern, "*."); ok {
		return strings.HasSuffix(permission, "."+suffix)
	}
	return false
}

var _ Resolver = (*GrantResolver)(nil)
