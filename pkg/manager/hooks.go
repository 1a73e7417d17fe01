package manager

import (
	"context"
	"time"
)

// Hooks receives manager events. Implementations must be cheap and safe for
// concurrent use; pkg/metrics provides a prometheus implementation.
type Hooks interface {
	OnCacheHit(ctx context.Context, module, context string)
	OnCacheMiss(ctx context.Context, module, context string)
	OnCacheError(ctx context.Context, op string, err error)
	OnBuild(ctx context.Context, module, context string, duration time.Duration, err error)
	OnInvalidate(ctx context.Context, scope string, removed int)
}

// NoopHooks ignores every event.
type NoopHooks struct{}

func (NoopHooks) OnCacheHit(context.Context, string, string)                    {}
func (NoopHooks) OnCacheMiss(context.Context, string, string)                   {}
func (NoopHooks) OnCacheError(context.Context, string, error)                   {}
func (NoopHooks) OnBuild(context.Context, string, string, time.Duration, error) {}
func (NoopHooks) OnInvalidate(context.Context, string, int)                     {}

var _ Hooks = NoopHooks{}
