// Package layouts builds permission-aware UI layouts.
//
// Applications register a callback per "module.context" key. The callback
// describes the component tree with a fluent Builder; the Manager builds it,
// resolves which components the requesting user may see and caches the
// resolved layout per user.
//
//	m, _ := layouts.New(layouts.WithResolver(resolver))
//	m.Register("users", "edit", func(b *layouts.Builder) error {
//		b.Section("account").
//			Field("email").Label("Email").Required().
//			Field("salary").Permissions("hr.read").
//			EndSection()
//		return nil
//	})
//	l, ok, err := m.Get(ctx, "users", "edit", user)
//
// Subpackages carry the pieces: builder, component, layout, registry,
// manager, cache, authz (with authz/policy for OPA), datasource, events,
// widgets, device, definition, openapi and render.
package layouts

import (
	"context"

	"github.com/goliatone/go-layouts/pkg/authz"
	"github.com/goliatone/go-layouts/pkg/builder"
	"github.com/goliatone/go-layouts/pkg/layout"
	"github.com/goliatone/go-layouts/pkg/manager"
	"github.com/goliatone/go-layouts/pkg/render"
	"github.com/goliatone/go-layouts/pkg/view"
)

// Manager builds, authorizes and caches layouts.
type Manager = manager.Manager

// Option configures a Manager.
type Option = manager.Option

// Builder assembles one layout inside a Callback.
type Builder = builder.Builder

// Callback describes a layout.
type Callback = builder.Callback

// Layout is a built component tree.
type Layout = layout.Layout

// User is the identity authorization is resolved against.
type User = authz.User

// Resolver decides whether a user satisfies component requirements.
type Resolver = authz.Resolver

// View is the serializable form of a rendered layout.
type View = view.Layout

// Re-exported manager options.
var (
	WithRegistry      = manager.WithRegistry
	WithStore         = manager.WithStore
	WithResolver      = manager.WithResolver
	WithPublisher     = manager.WithPublisher
	WithFetcher       = manager.WithFetcher
	WithDecorators    = manager.WithDecorators
	WithLogger        = manager.WithLogger
	WithHooks         = manager.WithHooks
	WithCacheTTL      = manager.WithCacheTTL
	WithCachePrefix   = manager.WithCachePrefix
	WithRegistrations = manager.WithRegistrations
)

// New constructs a Manager.
func New(options ...Option) (*Manager, error) {
	return manager.New(options...)
}

// Build runs cb without a manager and returns the layout unresolved.
func Build(module, context string, cb Callback) (*Layout, error) {
	return builder.Run(module, context, cb)
}

// RenderJSON fetches the layout for user and renders it as JSON. The
// boolean reports whether module.context is registered.
func RenderJSON(ctx context.Context, m *Manager, module, context string, user *User) ([]byte, bool, error) {
	l, ok, err := m.Get(ctx, module, context, user)
	if err != nil || !ok {
		return nil, ok, err
	}
	data, err := render.JSON{}.Render(ctx, m.Render(ctx, l))
	if err != nil {
		return nil, true, err
	}
	return data, true, nil
}
