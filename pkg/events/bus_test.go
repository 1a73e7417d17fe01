package events

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-layouts/pkg/attr"
)

func TestBus_DispatchesByKindAndWildcard(t *testing.T) {
	t.Parallel()

	bus := NewBus(zerolog.Nop())
	var seen []string

	bus.Subscribe(KindBeforeRender, OnBeforeRender(func(_ context.Context, ev *BeforeRender) error {
		seen = append(seen, "before:"+ev.Name)
		return nil
	}))
	bus.Subscribe(KindDataError, OnDataError(func(_ context.Context, ev *DataError) error {
		seen = append(seen, "error:"+ev.Name+":"+ev.Err.Error())
		return nil
	}))
	bus.Subscribe(KindAll, func(_ context.Context, ev Event) error {
		seen = append(seen, "all:"+string(ev.Kind()))
		return nil
	})

	ctx := context.Background()
	bus.Publish(ctx, &BeforeRender{Ref: NewRef("email", "field")})
	bus.Publish(ctx, &DataError{Ref: NewRef("feed", "field"), Err: errors.New("timeout"), URL: "http://x"})
	bus.Publish(ctx, &AfterRender{Ref: NewRef("email", "field")})

	want := []string{
		"before:email",
		"all:layout.before_render",
		"error:feed:timeout",
		"all:layout.data_error",
		"all:layout.after_render",
	}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Fatalf("dispatch mismatch (-want +got):\n%s", diff)
	}
}

func TestBus_HandlerFailuresDoNotPropagate(t *testing.T) {
	t.Parallel()

	bus := NewBus(zerolog.Nop())
	reached := false

	bus.Subscribe(KindAfterRender, func(context.Context, Event) error {
		panic("subscriber exploded")
	})
	bus.Subscribe(KindAfterRender, func(context.Context, Event) error {
		return errors.New("subscriber failed")
	})
	bus.Subscribe(KindAfterRender, func(context.Context, Event) error {
		reached = true
		return nil
	})

	bus.Publish(context.Background(), &AfterRender{Ref: NewRef("root", "section")})

	if !reached {
		t.Fatalf("later handlers should still run after failures")
	}
}

func TestBus_BeforeRenderDataIsShared(t *testing.T) {
	t.Parallel()

	bus := NewBus(zerolog.Nop())
	bus.Subscribe(KindBeforeRender, OnBeforeRender(func(_ context.Context, ev *BeforeRender) error {
		ev.Data.Set("annotated", true)
		return nil
	}))

	event := &BeforeRender{Ref: NewRef("email", "field"), Data: attr.Attributes{}}
	bus.Publish(context.Background(), event)

	if value, ok := event.Data.Get("annotated"); !ok || !value.Bool() {
		t.Fatalf("subscriber annotation not visible to publisher")
	}
}

func TestBus_HasSubscribers(t *testing.T) {
	t.Parallel()

	bus := NewBus(zerolog.Nop())
	if bus.HasSubscribers(KindDataLoaded) {
		t.Fatalf("empty bus should report no subscribers")
	}
	bus.Subscribe(KindAll, func(context.Context, Event) error { return nil })
	if !bus.HasSubscribers(KindDataLoaded) {
		t.Fatalf("wildcard subscriber should count")
	}
}
