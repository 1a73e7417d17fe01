// Package manager is the entry point applications use to obtain layouts.
//
// A Manager looks up registered callbacks, builds layouts, resolves
// authorization for the requesting user and caches the resolved result per
// user under {prefix}:{module}:{context}:{user}. Construct one at start-up
// and pass it to the code that needs it.
//
// Cache store failures never reach callers of Get or Build: reads fall back
// to rebuilding and failed writes are dropped. Both are logged and reported
// to Hooks.
package manager

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-layouts/pkg/authz"
	"github.com/goliatone/go-layouts/pkg/builder"
	"github.com/goliatone/go-layouts/pkg/cache"
	"github.com/goliatone/go-layouts/pkg/component"
	"github.com/goliatone/go-layouts/pkg/datasource"
	"github.com/goliatone/go-layouts/pkg/events"
	"github.com/goliatone/go-layouts/pkg/layout"
	"github.com/goliatone/go-layouts/pkg/registry"
	"github.com/goliatone/go-layouts/pkg/view"
)

const tracerName = "github.com/goliatone/go-layouts/pkg/manager"

// Manager coordinates registry lookup, building, authorization and caching.
// It is safe for concurrent use.
type Manager struct {
	mu    sync.RWMutex
	ttl   time.Duration
	keyer cache.Keyer

	registry      *registry.Registry
	registrations []map[string]builder.Callback
	store         cache.Store
	index         cache.Index
	resolver      authz.Resolver
	publisher     events.Publisher
	fetcher       datasource.Fetcher
	decorators    []component.Decorator
	logger        zerolog.Logger
	hooks         Hooks
	tracer        trace.Tracer
	flights       singleflight.Group
}

// New constructs a Manager. Missing collaborators fall back to an empty
// registry, an in-memory store, a GrantResolver without grants, no event
// publisher and the HTTP fetcher.
func New(options ...Option) (*Manager, error) {
	m := &Manager{
		ttl:    DefaultCacheTTL,
		keyer:  cache.NewKeyer(cache.DefaultPrefix),
		logger: zerolog.Nop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(m)
	}
	m.applyDefaults()

	for _, callbacks := range m.registrations {
		if err := m.registry.RegisterAll(callbacks); err != nil {
			return nil, fmt.Errorf("manager: static registrations: %w", err)
		}
	}
	m.registrations = nil
	return m, nil
}

func (m *Manager) applyDefaults() {
	if m.registry == nil {
		m.registry = registry.New()
	}
	if m.store == nil {
		m.store = cache.NewMemoryStore()
	}
	if m.index == nil {
		if index, ok := m.store.(cache.Index); ok {
			m.index = index
		} else {
			m.index = cache.NewMemoryStore()
		}
	}
	if m.resolver == nil {
		m.resolver = authz.NewGrantResolver()
	}
	m.resolver = &loggingResolver{inner: m.resolver, logger: m.logger}
	if m.publisher == nil {
		m.publisher = events.Nop
	}
	if m.fetcher == nil {
		m.fetcher = datasource.NewHTTPFetcher(datasource.WithHTTPLogger(m.logger))
	}
	if m.hooks == nil {
		m.hooks = NoopHooks{}
	}
	if m.tracer == nil {
		m.tracer = otel.GetTracerProvider().Tracer(tracerName)
	}
}

// Registry returns the callback registry.
func (m *Manager) Registry() *registry.Registry { return m.registry }

// Register stores cb for module and context.
func (m *Manager) Register(module, context string, cb builder.Callback) error {
	return m.registry.Register(module, context, cb)
}

// For returns a fresh builder bound to module and context for ad-hoc
// construction.
func (m *Manager) For(module, context string) *builder.Builder {
	return builder.New(module, context)
}

// Build always runs cb, resolves authorization for user and writes the
// result to the cache.
func (m *Manager) Build(ctx context.Context, module, context string, cb builder.Callback, user *authz.User) (*layout.Layout, error) {
	ctx, span := m.start(ctx, "layouts.Build", module, context, user)
	defer span.End()

	l, _, err := m.buildAndStore(ctx, module, context, cb, user)
	if err != nil {
		fail(span, err)
		return nil, err
	}
	return l, nil
}

// Get returns the cached layout for user, building and caching it from the
// registered callback on a miss. Unregistered keys without a cache entry
// report false and no error. Concurrent misses for the same key share one
// build.
func (m *Manager) Get(ctx context.Context, module, context string, user *authz.User) (*layout.Layout, bool, error) {
	ctx, span := m.start(ctx, "layouts.Get", module, context, user)
	defer span.End()

	if err := layout.ValidateKey(module, context); err != nil {
		m.logger.Debug().Err(err).Msg("layout key cannot be registered")
		return nil, false, nil
	}
	key := m.Keyer().LayoutKey(module, context, user.CacheID())
	if l, ok := m.read(ctx, key, module, context, user); ok {
		span.SetAttributes(attribute.Bool("layout.cache_hit", true))
		m.hooks.OnCacheHit(ctx, module, context)
		return l, true, nil
	}
	span.SetAttributes(attribute.Bool("layout.cache_hit", false))
	m.hooks.OnCacheMiss(ctx, module, context)

	cb, ok := m.registry.Lookup(module, context)
	if !ok {
		m.logger.Debug().
			Str("module", module).
			Str("context", context).
			Msg("layout not registered")
		return nil, false, nil
	}

	// The build is shared by every waiter on key, so it must outlive the
	// first caller's cancellation.
	buildCtx := context.WithoutCancel(ctx)
	data, err, shared := m.flights.Do(key, func() (any, error) {
		_, encoded, err := m.buildAndStore(buildCtx, module, context, cb, user)
		return encoded, err
	})
	if err != nil {
		fail(span, err)
		return nil, false, err
	}
	span.SetAttributes(attribute.Bool("layout.shared_build", shared))

	l, err := layout.Decode(data.([]byte))
	if err != nil {
		fail(span, err)
		return nil, false, fmt.Errorf("manager: %s: %w", key, err)
	}
	return l, true, nil
}

// Fresh builds the registered layout for user without reading or writing
// the cache.
func (m *Manager) Fresh(ctx context.Context, module, context string, user *authz.User) (*layout.Layout, bool, error) {
	ctx, span := m.start(ctx, "layouts.Fresh", module, context, user)
	defer span.End()

	cb, ok := m.registry.Lookup(module, context)
	if !ok {
		return nil, false, nil
	}
	l, err := m.build(ctx, module, context, cb, user)
	if err != nil {
		fail(span, err)
		return nil, false, err
	}
	return l, true, nil
}

// Render renders l with the configured publisher, fetcher and decorators.
func (m *Manager) Render(ctx context.Context, l *layout.Layout) view.Layout {
	if l == nil {
		return view.Layout{Components: []view.Component{}}
	}
	user, _ := l.ResolvedFor()
	ctx, span := m.tracer.Start(ctx, "layouts.Render", trace.WithAttributes(
		attribute.String("layout.module", l.Module()),
		attribute.String("layout.context", l.Context()),
		attribute.String("layout.user", user),
	))
	defer span.End()

	return l.Render(ctx, component.Env{
		Publisher:  m.publisher,
		Fetcher:    m.fetcher,
		Decorators: m.decorators,
	})
}

// SetCacheTTL changes the expiry used for subsequent writes.
func (m *Manager) SetCacheTTL(ttl time.Duration) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ttl = ttl
	return m
}

// SetCachePrefix changes the namespace used for subsequent reads and writes.
// Entries written under the previous prefix are left to expire.
func (m *Manager) SetCachePrefix(prefix string) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keyer = cache.NewKeyer(prefix)
	return m
}

// CacheTTL returns the configured expiry.
func (m *Manager) CacheTTL() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ttl
}

// CachePrefix returns the configured namespace.
func (m *Manager) CachePrefix() string {
	return m.Keyer().Prefix()
}

// Keyer returns the key builder for the current prefix.
func (m *Manager) Keyer() cache.Keyer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.keyer
}

// Close releases the cache store.
func (m *Manager) Close() error {
	return m.store.Close()
}

func (m *Manager) build(ctx context.Context, module, context string, cb builder.Callback, user *authz.User) (l *layout.Layout, err error) {
	started := time.Now()
	defer func() {
		if recovered := recover(); recovered != nil {
			l = nil
			err = fmt.Errorf("manager: callback %s.%s panicked: %v", module, context, recovered)
		}
		m.hooks.OnBuild(ctx, module, context, time.Since(started), err)
		if err != nil {
			m.logger.Error().Err(err).
				Str("module", module).
				Str("context", context).
				Msg("layout build failed")
		}
	}()

	l, err = builder.Run(module, context, cb)
	if err != nil {
		return nil, err
	}
	l.ResolveAuthorization(ctx, m.resolver, user)
	m.logger.Debug().
		Str("module", module).
		Str("context", context).
		Str("user", user.CacheID()).
		Dur("elapsed", time.Since(started)).
		Msg("layout built")
	return l, nil
}

func (m *Manager) buildAndStore(ctx context.Context, module, context string, cb builder.Callback, user *authz.User) (*layout.Layout, []byte, error) {
	l, err := m.build(ctx, module, context, cb, user)
	if err != nil {
		return nil, nil, err
	}
	data, err := l.Encode()
	if err != nil {
		return nil, nil, err
	}
	m.write(ctx, module, context, user.CacheID(), data)
	return l, data, nil
}

func (m *Manager) start(ctx context.Context, name, module, context string, user *authz.User) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("layout.module", module),
		attribute.String("layout.context", context),
		attribute.String("layout.user", user.CacheID()),
	))
}

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

type loggingResolver struct {
	inner  authz.Resolver
	logger zerolog.Logger
}

func (r *loggingResolver) CanAccess(ctx context.Context, user *authz.User, permissions, roles []string) (bool, error) {
	allowed, err := r.inner.CanAccess(ctx, user, permissions, roles)
	if err != nil {
		r.logger.Warn().Err(err).
			Str("user", user.CacheID()).
			Strs("permissions", permissions).
			Strs("roles", roles).
			Msg("authorization resolver failed, denying")
	}
	return allowed, err
}
