package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Publisher is the contract the render pipeline fires events through.
// Publish is synchronous and never reports subscriber failures back.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// PublisherFunc adapts a function into a Publisher.
type PublisherFunc func(ctx context.Context, event Event)

// Publish calls the underlying function.
func (fn PublisherFunc) Publish(ctx context.Context, event Event) {
	fn(ctx, event)
}

// Nop discards every event.
var Nop Publisher = PublisherFunc(func(context.Context, Event) {})

// Handler processes an event. Returned errors are logged by the Bus.
type Handler func(ctx context.Context, event Event) error

// Bus is a synchronous publish/subscribe bus. Handlers run in subscription
// order on the publishing goroutine; errors and panics are logged and
// swallowed so a faulty subscriber cannot break rendering.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Kind][]Handler
	logger   zerolog.Logger
}

// NewBus creates an empty bus.
func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[Kind][]Handler),
		logger:   logger,
	}
}

// Subscribe registers handler for kind. Use KindAll to receive every event.
func (b *Bus) Subscribe(kind Kind, handler Handler) {
	if handler == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], handler)
}

// HasSubscribers reports whether any handler would receive kind.
func (b *Bus) HasSubscribers(kind Kind) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[kind]) > 0 || len(b.handlers[KindAll]) > 0
}

// Publish implements Publisher.
func (b *Bus) Publish(ctx context.Context, event Event) {
	if event == nil {
		return
	}
	b.mu.RLock()
	matched := make([]Handler, 0, len(b.handlers[event.Kind()])+len(b.handlers[KindAll]))
	matched = append(matched, b.handlers[event.Kind()]...)
	matched = append(matched, b.handlers[KindAll]...)
	b.mu.RUnlock()

	ref := event.Component()
	b.logger.Debug().
		Str("event", string(event.Kind())).
		Str("component", ref.Name).
		Str("type", ref.Type).
		Msg("event emitted")

	for _, handler := range matched {
		if err := b.invoke(ctx, handler, event); err != nil {
			b.logger.Error().
				Err(err).
				Str("event", string(event.Kind())).
				Str("component", ref.Name).
				Msg("event handler error")
		}
	}
}

func (b *Bus) invoke(ctx context.Context, handler Handler, event Event) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("events: handler panic: %v", recovered)
		}
	}()
	return handler(ctx, event)
}

// OnBeforeRender adapts a typed callback into a Handler.
func OnBeforeRender(fn func(context.Context, *BeforeRender) error) Handler {
	return func(ctx context.Context, event Event) error {
		if typed, ok := event.(*BeforeRender); ok {
			return fn(ctx, typed)
		}
		return nil
	}
}

// OnAfterRender adapts a typed callback into a Handler.
func OnAfterRender(fn func(context.Context, *AfterRender) error) Handler {
	return func(ctx context.Context, event Event) error {
		if typed, ok := event.(*AfterRender); ok {
			return fn(ctx, typed)
		}
		return nil
	}
}

// OnDataLoaded adapts a typed callback into a Handler.
func OnDataLoaded(fn func(context.Context, *DataLoaded) error) Handler {
	return func(ctx context.Context, event Event) error {
		if typed, ok := event.(*DataLoaded); ok {
			return fn(ctx, typed)
		}
		return nil
	}
}

// OnDataError adapts a typed callback into a Handler.
func OnDataError(fn func(context.Context, *DataError) error) Handler {
	return func(ctx context.Context, event Event) error {
		if typed, ok := event.(*DataError); ok {
			return fn(ctx, typed)
		}
		return nil
	}
}

var _ Publisher = (*Bus)(nil)
