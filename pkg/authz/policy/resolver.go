// Package policy implements authz.Resolver on top of an Open Policy Agent
// policy. The embedded default policy mirrors authz.GrantResolver: roles
// grant permission patterns supplied as data, users need every permission
// and at least one of the required roles.
package policy

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/open-policy-agent/opa/rego"
	"github.com/open-policy-agent/opa/storage/inmem"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-layouts/pkg/authz"
)

// DefaultQuery is evaluated against the policy modules.
const DefaultQuery = "data.layouts.authz.allow"

//go:embed policy.rego
var defaultPolicy string

// DefaultPolicy returns the embedded rego module.
func DefaultPolicy() string {
	return defaultPolicy
}

// Option customises the resolver.
type Option func(*config)

type config struct {
	modules map[string]string
	grants  map[string][]string
	query   string
	logger  zerolog.Logger
}

// WithModule adds or replaces a rego module. Supplying any module disables
// the embedded default policy.
func WithModule(name, source string) Option {
	return func(c *config) {
		if c.modules == nil {
			c.modules = make(map[string]string)
		}
		c.modules[name] = source
	}
}

// WithGrants exposes role -> permission patterns as data.layouts.grants.
func WithGrants(grants map[string][]string) Option {
	return func(c *config) {
		for role, permissions := range grants {
			key := strings.ToLower(strings.TrimSpace(role))
			if key == "" {
				continue
			}
			c.grants[key] = append(c.grants[key], authz.Normalize(permissions)...)
		}
	}
}

// WithQuery overrides DefaultQuery.
func WithQuery(query string) Option {
	return func(c *config) {
		if strings.TrimSpace(query) != "" {
			c.query = query
		}
	}
}

// WithLogger sets the logger used for evaluation failures.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// Resolver evaluates a prepared rego query per authorization request.
type Resolver struct {
	query  rego.PreparedEvalQuery
	logger zerolog.Logger
}

// New compiles the configured modules and prepares the query.
func New(ctx context.Context, options ...Option) (*Resolver, error) {
	cfg := &config{
		grants: make(map[string][]string),
		query:  DefaultQuery,
		logger: zerolog.Nop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(cfg)
		}
	}
	if len(cfg.modules) == 0 {
		cfg.modules = map[string]string{"layouts_authz.rego": defaultPolicy}
	}

	grants := make(map[string]any, len(cfg.grants))
	for role, permissions := range cfg.grants {
		items := make([]any, len(permissions))
		for i, permission := range permissions {
			items[i] = permission
		}
		grants[role] = items
	}
	store := inmem.NewFromObject(map[string]any{
		"layouts": map[string]any{"grants": grants},
	})

	args := []func(*rego.Rego){
		rego.Query(cfg.query),
		rego.Store(store),
	}
	for name, source := range cfg.modules {
		args = append(args, rego.Module(name, source))
	}

	prepared, err := rego.New(args...).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("authz/policy: prepare query: %w", err)
	}

	return &Resolver{
		query:  prepared,
		logger: cfg.logger.With().Str("component", "authz-policy").Logger(),
	}, nil
}

// CanAccess implements authz.Resolver.
func (r *Resolver) CanAccess(ctx context.Context, user *authz.User, permissions, roles []string) (bool, error) {
	input := map[string]any{
		"user":        userDocument(user),
		"permissions": stringsOrEmpty(permissions),
		"roles":       stringsOrEmpty(roles),
	}

	results, err := r.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		r.logger.Error().Err(err).Str("user", user.CacheID()).Msg("policy evaluation failed")
		return false, fmt.Errorf("authz/policy: evaluate: %w", err)
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return false, nil
	}
	allowed, ok := results[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("authz/policy: query returned %T, want bool", results[0].Expressions[0].Value)
	}
	return allowed, nil
}

func userDocument(user *authz.User) map[string]any {
	if user.Anonymous() {
		return map[string]any{"id": "", "roles": []any{}, "permissions": []any{}}
	}
	doc := map[string]any{
		"id":          user.ID,
		"roles":       stringsOrEmpty(user.Roles),
		"permissions": stringsOrEmpty(user.Permissions),
	}
	if len(user.Attributes) > 0 {
		doc["attributes"] = user.Attributes
	}
	return doc
}

func stringsOrEmpty(values []string) []any {
	out := make([]any, 0, len(values))
	for _, value := range values {
		out = append(out, value)
	}
	return out
}

var _ authz.Resolver = (*Resolver)(nil)
