// Package metrics provides Prometheus metrics for the layout manager. The
// Collector implements manager.Hooks and can subscribe to an events.Bus to
// count data source outcomes.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/goliatone/go-layouts/pkg/events"
	"github.com/goliatone/go-layouts/pkg/manager"
)

const namespace = "layouts"

// Collector holds the layout metrics.
type Collector struct {
	registry *prometheus.Registry

	CacheHits     *prometheus.CounterVec
	CacheMisses   *prometheus.CounterVec
	CacheErrors   *prometheus.CounterVec
	Builds        *prometheus.CounterVec
	BuildDuration *prometheus.HistogramVec
	Invalidations *prometheus.CounterVec
	DataLoads     *prometheus.CounterVec
}

// New creates a collector registered on its own registry.
func New() *Collector {
	return NewWithRegistry(prometheus.NewRegistry())
}

// NewWithRegistry creates a collector registered on reg.
func NewWithRegistry(reg *prometheus.Registry) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		registry: reg,
		CacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Layouts served from the cache",
			},
			[]string{"module", "context"},
		),
		CacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Layout cache lookups that missed",
			},
			[]string{"module", "context"},
		),
		CacheErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_errors_total",
				Help:      "Failed cache store operations",
			},
			[]string{"op"},
		),
		Builds: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "builds_total",
				Help:      "Layout builds by outcome",
			},
			[]string{"module", "context", "status"},
		),
		BuildDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "build_duration_seconds",
				Help:      "Layout build and authorization duration in seconds",
				Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"module", "context"},
		),
		Invalidations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_invalidated_entries_total",
				Help:      "Cache entries removed by explicit invalidation",
			},
			[]string{"scope"},
		),
		DataLoads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "data_loads_total",
				Help:      "Component data source loads by outcome",
			},
			[]string{"type", "status"},
		),
	}
}

// Registry returns the prometheus registry metrics are registered on.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

func (c *Collector) OnCacheHit(_ context.Context, module, context string) {
	c.CacheHits.WithLabelValues(module, context).Inc()
}

func (c *Collector) OnCacheMiss(_ context.Context, module, context string) {
	c.CacheMisses.WithLabelValues(module, context).Inc()
}

func (c *Collector) OnCacheError(_ context.Context, op string, _ error) {
	c.CacheErrors.WithLabelValues(op).Inc()
}

func (c *Collector) OnBuild(_ context.Context, module, context string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.Builds.WithLabelValues(module, context, status).Inc()
	c.BuildDuration.WithLabelValues(module, context).Observe(duration.Seconds())
}

func (c *Collector) OnInvalidate(_ context.Context, scope string, removed int) {
	c.Invalidations.WithLabelValues(scope).Add(float64(removed))
}

// Subscribe counts DataLoaded and DataError events published on bus.
func (c *Collector) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.KindDataLoaded, events.OnDataLoaded(func(_ context.Context, e *events.DataLoaded) error {
		c.DataLoads.WithLabelValues(e.Type, "ok").Inc()
		return nil
	}))
	bus.Subscribe(events.KindDataError, events.OnDataError(func(_ context.Context, e *events.DataError) error {
		c.DataLoads.WithLabelValues(e.Type, "error").Inc()
		return nil
	}))
}

var _ manager.Hooks = (*Collector)(nil)
