package manager

import (
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-layouts/pkg/authz"
	"github.com/goliatone/go-layouts/pkg/builder"
	"github.com/goliatone/go-layouts/pkg/cache"
	"github.com/goliatone/go-layouts/pkg/component"
	"github.com/goliatone/go-layouts/pkg/datasource"
	"github.com/goliatone/go-layouts/pkg/events"
	"github.com/goliatone/go-layouts/pkg/registry"
)

// DefaultCacheTTL is the expiry applied to cached layouts unless configured.
const DefaultCacheTTL = time.Hour

// Option customises the manager configuration.
type Option func(*Manager)

// WithRegistry injects the callback registry.
func WithRegistry(reg *registry.Registry) Option {
	return func(m *Manager) {
		m.registry = reg
	}
}

// WithStore injects the cache store. Stores that also implement cache.Index
// keep their own per-user indexes.
func WithStore(store cache.Store) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithIndex overrides the index used to enumerate keys per user and per
// prefix.
func WithIndex(index cache.Index) Option {
	return func(m *Manager) {
		m.index = index
	}
}

// WithResolver injects the authorization resolver.
func WithResolver(resolver authz.Resolver) Option {
	return func(m *Manager) {
		m.resolver = resolver
	}
}

// WithPublisher injects the event publisher used by Render.
func WithPublisher(publisher events.Publisher) Option {
	return func(m *Manager) {
		m.publisher = publisher
	}
}

// WithFetcher injects the data source fetcher used by Render.
func WithFetcher(fetcher datasource.Fetcher) Option {
	return func(m *Manager) {
		m.fetcher = fetcher
	}
}

// WithDecorators registers render decorators such as the widget registry.
func WithDecorators(decorators ...component.Decorator) Option {
	return func(m *Manager) {
		m.decorators = append(m.decorators, decorators...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithHooks installs instrumentation hooks.
func WithHooks(hooks Hooks) Option {
	return func(m *Manager) {
		m.hooks = hooks
	}
}

// WithTracerProvider sets the provider spans are created from. The global
// otel provider is used otherwise.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(m *Manager) {
		if provider != nil {
			m.tracer = provider.Tracer(tracerName)
		}
	}
}

// WithCacheTTL sets the expiry of cached layouts. Zero disables expiry.
func WithCacheTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.ttl = ttl
	}
}

// WithCachePrefix namespaces cache keys.
func WithCachePrefix(prefix string) Option {
	return func(m *Manager) {
		m.keyer = cache.NewKeyer(prefix)
	}
}

// WithRegistrations registers static "module.context" callbacks at
// construction.
func WithRegistrations(callbacks map[string]builder.Callback) Option {
	return func(m *Manager) {
		m.registrations = append(m.registrations, callbacks)
	}
}
