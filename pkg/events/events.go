// Package events defines the lifecycle events fired while layouts load data
// and render. Events form a closed set: BeforeRender, AfterRender,
// DataLoaded and DataError. Subscribers switch on the concrete type.
package events

import (
	"github.com/google/uuid"

	"github.com/goliatone/go-layouts/pkg/attr"
	"github.com/goliatone/go-layouts/pkg/view"
)

// Kind names an event type for subscriptions.
type Kind string

const (
	KindBeforeRender Kind = "layout.before_render"
	KindAfterRender  Kind = "layout.after_render"
	KindDataLoaded   Kind = "layout.data_loaded"
	KindDataError    Kind = "layout.data_error"

	// KindAll subscribes to every event.
	KindAll Kind = "*"
)

// Ref identifies the component an event was fired for.
type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// NewRef creates a Ref with a fresh event id.
func NewRef(name, typ string) Ref {
	return Ref{ID: uuid.NewString(), Name: name, Type: typ}
}

// Event is implemented by the four lifecycle events only.
type Event interface {
	Kind() Kind
	Component() Ref
	sealed()
}

// BeforeRender fires before a component's attributes are resolved. Data is
// the input the component renders from; subscribers may annotate it or
// replace it entirely and the renderer reads back whatever is left.
type BeforeRender struct {
	Ref
	Data attr.Attributes
}

// AfterRender fires with the final rendered structure once all children
// have rendered.
type AfterRender struct {
	Ref
	View view.Component
}

// DataLoaded fires when a component's data source returned successfully.
type DataLoaded struct {
	Ref
	Data attr.Attributes
	URL  string
}

// DataError fires when a component's data source failed. Rendering goes on
// with the component's static attributes.
type DataError struct {
	Ref
	Err error
	URL string
}

func (*BeforeRender) Kind() Kind { return KindBeforeRender }
func (*AfterRender) Kind() Kind  { return KindAfterRender }
func (*DataLoaded) Kind() Kind   { return KindDataLoaded }
func (*DataError) Kind() Kind    { return KindDataError }

func (e *BeforeRender) Component() Ref { return e.Ref }
func (e *AfterRender) Component() Ref  { return e.Ref }
func (e *DataLoaded) Component() Ref   { return e.Ref }
func (e *DataError) Component() Ref    { return e.Ref }

func (*BeforeRender) sealed() {}
func (*AfterRender) sealed()  {}
func (*DataLoaded) sealed()   {}
func (*DataError) sealed()    {}
