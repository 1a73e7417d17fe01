// Package app wires configuration into a ready layout service: cache store,
// authorization resolver, event bus, metrics, decorators, definition files
// and the manager that ties them together.
package app

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-layouts/pkg/authz"
	"github.com/goliatone/go-layouts/pkg/authz/policy"
	"github.com/goliatone/go-layouts/pkg/builder"
	"github.com/goliatone/go-layouts/pkg/cache"
	"github.com/goliatone/go-layouts/pkg/config"
	"github.com/goliatone/go-layouts/pkg/datasource"
	"github.com/goliatone/go-layouts/pkg/definition"
	"github.com/goliatone/go-layouts/pkg/device"
	"github.com/goliatone/go-layouts/pkg/events"
	"github.com/goliatone/go-layouts/pkg/manager"
	"github.com/goliatone/go-layouts/pkg/metrics"
	"github.com/goliatone/go-layouts/pkg/registry"
	"github.com/goliatone/go-layouts/pkg/render"
	"github.com/goliatone/go-layouts/pkg/widgets"
)

// App holds the wired service.
type App struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Manager   *manager.Manager
	Metrics   *metrics.Collector
	Bus       *events.Bus
	Detector  *device.Detector
	Widgets   *widgets.Registry
	Catalog   *datasource.Catalog
	Renderers *render.Registry

	mu          sync.Mutex
	definitions map[string]struct{}
}

// Option customises construction, mostly for tests.
type Option func(*options)

type options struct {
	store         cache.Store
	fetcher       datasource.Fetcher
	registrations map[string]builder.Callback
}

// WithStore replaces the store selected by cache.driver.
func WithStore(store cache.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithFetcher replaces the HTTP data source fetcher.
func WithFetcher(fetcher datasource.Fetcher) Option {
	return func(o *options) {
		o.fetcher = fetcher
	}
}

// WithRegistrations adds code-defined layouts next to definition files.
func WithRegistrations(callbacks map[string]builder.Callback) Option {
	return func(o *options) {
		o.registrations = callbacks
	}
}

// New wires a service from cfg.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	o := &options{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	store := o.store
	if store == nil {
		var err error
		if store, err = newStore(ctx, cfg.Cache); err != nil {
			return nil, err
		}
	}

	resolver, err := newResolver(ctx, cfg.Authz, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	fallback := o.fetcher
	if fallback == nil {
		fallback = datasource.NewHTTPFetcher(datasource.WithHTTPLogger(logger))
	}
	catalog := datasource.NewCatalog()
	for name, values := range cfg.Catalogs {
		catalog.Set(name, values...)
	}
	fetcher := datasource.NewMux(fallback).Handle(datasource.CatalogScheme, catalog)

	bus := events.NewBus(logger)
	collector := metrics.New()
	collector.Subscribe(bus)
	widgetRegistry := widgets.NewRegistry()

	mgr, err := manager.New(
		manager.WithRegistry(registry.New()),
		manager.WithStore(store),
		manager.WithResolver(resolver),
		manager.WithPublisher(bus),
		manager.WithFetcher(fetcher),
		manager.WithDecorators(widgetRegistry, definition.IconSanitizer),
		manager.WithLogger(logger),
		manager.WithHooks(collector),
		manager.WithCacheTTL(cfg.Cache.TTL()),
		manager.WithCachePrefix(cfg.Cache.Prefix),
		manager.WithRegistrations(o.registrations),
	)
	if err != nil {
		store.Close()
		return nil, err
	}

	a := &App{
		Config:      cfg,
		Logger:      logger,
		Manager:     mgr,
		Metrics:     collector,
		Bus:         bus,
		Detector:    device.New(device.WithBreakpoints(cfg.Breakpoints)),
		Widgets:     widgetRegistry,
		Catalog:     catalog,
		Renderers:   render.Default(),
		definitions: make(map[string]struct{}),
	}

	if cfg.Definitions.Dir != "" {
		defs, err := definition.LoadDir(cfg.Definitions.Dir)
		if err != nil {
			mgr.Close()
			return nil, err
		}
		if err := a.ApplyDefinitions(ctx, defs); err != nil {
			mgr.Close()
			return nil, err
		}
	}
	return a, nil
}

// ApplyDefinitions registers every definition of defs, unregisters the
// file-backed layouts that disappeared and drops cached layouts.
func (a *App) ApplyDefinitions(ctx context.Context, defs *definition.Store) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	reg := a.Manager.Registry()
	next := make(map[string]struct{}, defs.Len())
	for _, key := range defs.Keys() {
		next[key] = struct{}{}
	}
	for key := range a.definitions {
		if _, keep := next[key]; keep {
			continue
		}
		if module, name, err := registry.SplitKey(key); err == nil {
			reg.Unregister(module, name)
		}
	}
	if err := defs.RegisterAll(reg); err != nil {
		return fmt.Errorf("app: register definitions: %w", err)
	}
	a.definitions = next

	removed, err := a.Manager.ClearAllCache(ctx)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("cache not cleared after definition change")
	}
	a.Logger.Info().
		Int("layouts", defs.Len()).
		Int("evicted", removed).
		Msg("layout definitions applied")
	return nil
}

// IsDefinition reports whether key was registered from a definition file.
func (a *App) IsDefinition(key string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.definitions[key]
	return ok
}

// Watch reloads definition files on change until ctx is done. It returns
// immediately when watching is disabled.
func (a *App) Watch(ctx context.Context) error {
	dir := a.Config.Definitions.Dir
	if !a.Config.Definitions.Watch || dir == "" {
		return nil
	}
	w, err := definition.NewWatcher(dir, func(defs *definition.Store) error {
		return a.ApplyDefinitions(ctx, defs)
	}, definition.WithWatchLogger(a.Logger))
	if err != nil {
		return err
	}
	defer w.Close()
	return w.Run(ctx)
}

// Close releases the cache store.
func (a *App) Close() error {
	return a.Manager.Close()
}

func newStore(ctx context.Context, cfg config.CacheConfig) (cache.Store, error) {
	switch cfg.Driver {
	case config.DriverRedis:
		return cache.NewRedisStoreFromOptions(ctx, cache.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	case config.DriverNone:
		return cache.NewNullStore(), nil
	default:
		return cache.NewMemoryStore(), nil
	}
}

func newResolver(ctx context.Context, cfg config.AuthzConfig, logger zerolog.Logger) (authz.Resolver, error) {
	if cfg.Engine != config.EngineRego {
		resolver := authz.NewGrantResolver()
		for role, permissions := range cfg.Grants {
			resolver.Grant(role, permissions...)
		}
		return resolver, nil
	}

	opts := []policy.Option{policy.WithGrants(cfg.Grants), policy.WithLogger(logger)}
	if cfg.Policy != "" {
		source, err := os.ReadFile(cfg.Policy)
		if err != nil {
			return nil, fmt.Errorf("app: read policy: %w", err)
		}
		opts = append(opts, policy.WithModule(cfg.Policy, string(source)))
	}
	return policy.New(ctx, opts...)
}
