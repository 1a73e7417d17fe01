package component

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-layouts/pkg/attr"
	"github.com/goliatone/go-layouts/pkg/datasource"
	"github.com/goliatone/go-layouts/pkg/events"
	"github.com/goliatone/go-layouts/pkg/view"
)

// Decorator adjusts a rendered node after its attributes are resolved and
// before its children render. Errors are recorded on the node only.
type Decorator interface {
	Decorate(ctx context.Context, node *view.Component) error
}

// DecoratorFunc adapts a function into a Decorator.
type DecoratorFunc func(ctx context.Context, node *view.Component) error

// Decorate calls the underlying function.
func (fn DecoratorFunc) Decorate(ctx context.Context, node *view.Component) error {
	return fn(ctx, node)
}

// Env carries the collaborators used by Render. The zero value renders
// without events, data loading or decorators.
type Env struct {
	Publisher  events.Publisher
	Fetcher    datasource.Fetcher
	Decorators []Decorator
}

func (e Env) publish(ctx context.Context, event events.Event) {
	if e.Publisher == nil {
		return
	}
	e.Publisher.Publish(ctx, event)
}

// ToView converts the component and its visible descendants into a view.
func (c *Component) ToView() view.Component {
	node := c.baseView()
	node.Attributes = c.Attributes()
	for _, child := range c.Children() {
		if child.AuthorizedToSee() {
			node.Children = append(node.Children, child.ToView())
		}
	}
	return node
}

// Render produces the same structure as ToView while firing lifecycle
// events and loading external data. Events fire BeforeRender (pre-order),
// then DataLoaded or DataError, then AfterRender once every child has
// rendered (post-order).
func (c *Component) Render(ctx context.Context, env Env) view.Component {
	ref := events.NewRef(c.name, c.typ)

	before := &events.BeforeRender{Ref: ref, Data: c.Attributes()}
	env.publish(ctx, before)
	data := before.Data
	if data == nil {
		data = attr.Attributes{}
	}

	node := c.baseView()
	if c.dataSource != "" {
		loaded, err := c.load(ctx, env.Fetcher)
		if err != nil {
			env.publish(ctx, &events.DataError{Ref: ref, Err: err, URL: c.dataSource})
			node.Error = err.Error()
		} else {
			event := &events.DataLoaded{Ref: ref, Data: loaded, URL: c.dataSource}
			env.publish(ctx, event)
			data = data.Merge(event.Data)
		}
	}
	node.Attributes = data

	for _, decorator := range env.Decorators {
		if decorator == nil {
			continue
		}
		if err := decorator.Decorate(ctx, &node); err != nil {
			node.Error = errors.Join(errorOf(node.Error), err).Error()
		}
	}

	for _, child := range c.Children() {
		if child.AuthorizedToSee() {
			node.Children = append(node.Children, child.Render(ctx, env))
		}
	}

	env.publish(ctx, &events.AfterRender{Ref: ref, View: node})
	return node
}

func (c *Component) load(ctx context.Context, fetcher datasource.Fetcher) (data attr.Attributes, err error) {
	if fetcher == nil {
		return nil, &datasource.Error{URL: c.dataSource, Err: errors.New("no fetcher configured")}
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			data = nil
			err = &datasource.Error{URL: c.dataSource, Err: fmt.Errorf("fetcher panic: %v", recovered)}
		}
	}()
	data, err = fetcher.Fetch(ctx, c.dataSource)
	if err != nil {
		if !errors.Is(err, datasource.ErrDataSource) {
			err = &datasource.Error{URL: c.dataSource, Err: err}
		}
		return nil, err
	}
	return data, nil
}

func (c *Component) baseView() view.Component {
	node := view.Component{
		Type:       c.typ,
		Name:       c.name,
		Visible:    c.visible,
		Authorized: c.Authorized(),
		DataURL:    c.dataSource,
	}
	if c.order != nil {
		order := *c.order
		node.Order = &order
	}
	return node
}

func errorOf(message string) error {
	if message == "" {
		return nil
	}
	return errors.New(message)
}
