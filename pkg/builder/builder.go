package builder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-layouts/pkg/component"
	"github.com/goliatone/go-layouts/pkg/layout"
)

// Callback populates a builder. Returning an error aborts the build.
type Callback func(b *Builder) error

// Builder assembles one layout. It is not safe for concurrent use and must
// not be reused after Build.
type Builder struct {
	module  string
	context string

	root    *component.Component
	stack   []*component.Component
	current *component.Component
	err     error
	built   bool
}

// New returns an empty builder bound to module and context.
// An invalid module or context fails every later call and Build.
func New(module, context string) *Builder {
	b := &Builder{
		module:  strings.TrimSpace(module),
		context: strings.TrimSpace(context),
		root:    component.NewContainer("layout", ""),
	}
	if err := layout.ValidateKey(b.module, b.context); err != nil {
		b.err = fmt.Errorf("builder: %w", err)
	}
	return b
}

// Run builds a layout from cb.
func Run(module, context string, cb Callback) (*layout.Layout, error) {
	if cb == nil {
		return nil, fmt.Errorf("builder: callback for %s.%s is nil", module, context)
	}
	b := New(module, context)
	if err := cb(b); err != nil {
		if b.err != nil && errors.Is(err, b.err) {
			return nil, err
		}
		return nil, fmt.Errorf("builder: callback %s.%s: %w", b.module, b.context, err)
	}
	return b.Build()
}

// Module returns the module the builder is bound to.
func (b *Builder) Module() string { return b.module }

// Context returns the context the builder is bound to.
func (b *Builder) Context() string { return b.context }

// Err returns the first error recorded by the builder.
func (b *Builder) Err() error { return b.err }

// Section opens a section under the current scope. Calling Section with the
// name of an existing sibling section re-opens it.
func (b *Builder) Section(name string) *Builder {
	return b.open("section", component.TypeSection, name)
}

// Subsection opens a subsection. A section or subsection must be open.
func (b *Builder) Subsection(name string) *Builder {
	if !b.ok() {
		return b
	}
	if b.nearest(component.TypeSection, component.TypeSubsection) < 0 {
		return b.fail(stateError("subsection", "%q needs an open section", name))
	}
	return b.open("subsection", component.TypeSubsection, name)
}

// Container opens a custom container type.
func (b *Builder) Container(typ, name string) *Builder {
	return b.open("container", typ, name)
}

// Field adds a field to the current scope.
func (b *Builder) Field(name string) *Builder {
	return b.leaf("field", component.TypeField, name)
}

// Component adds a leaf of a custom type to the current scope.
func (b *Builder) Component(typ, name string) *Builder {
	return b.leaf("component", typ, name)
}

// End closes the innermost open scope.
func (b *Builder) End() *Builder {
	if !b.ok() {
		return b
	}
	if len(b.stack) == 0 {
		return b.fail(stateError("end", "no open scope"))
	}
	return b.closeAt(len(b.stack) - 1)
}

// EndSubsection closes the innermost open subsection and any scope opened
// inside it.
func (b *Builder) EndSubsection() *Builder {
	if !b.ok() {
		return b
	}
	idx := b.nearest(component.TypeSubsection)
	if idx < 0 {
		return b.fail(stateError("endSubsection", "no open subsection"))
	}
	return b.closeAt(idx)
}

// EndSection closes the innermost open section and any scope opened inside
// it.
func (b *Builder) EndSection() *Builder {
	if !b.ok() {
		return b
	}
	idx := b.nearest(component.TypeSection)
	if idx < 0 {
		return b.fail(stateError("endSection", "no open section"))
	}
	return b.closeAt(idx)
}

// Label sets the "label" attribute.
func (b *Builder) Label(label string) *Builder { return b.Attr("label", label) }

// Type sets the "type" attribute, e.g. "email" or "select".
func (b *Builder) Type(typ string) *Builder { return b.Attr("type", typ) }

// Placeholder sets the "placeholder" attribute.
func (b *Builder) Placeholder(text string) *Builder { return b.Attr("placeholder", text) }

// HelpText sets the "help" attribute.
func (b *Builder) HelpText(text string) *Builder { return b.Attr("help", text) }

// Options sets the "options" attribute.
func (b *Builder) Options(options ...string) *Builder {
	return b.Attr("options", options)
}

// Required marks the component as required. An optional false argument
// clears the flag.
func (b *Builder) Required(required ...bool) *Builder {
	value := true
	if len(required) > 0 {
		value = required[0]
	}
	return b.Attr("required", value)
}

// Attr sets an arbitrary attribute on the component in scope.
func (b *Builder) Attr(key string, value any) *Builder {
	return b.apply("attr", func(c *component.Component) error {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("builder: attr: key is required")
		}
		c.SetAttr(key, value)
		return nil
	})
}

// Order sets the explicit sort key of the component in scope.
func (b *Builder) Order(n int) *Builder {
	return b.apply("order", func(c *component.Component) error {
		c.SetOrder(n)
		return nil
	})
}

// Visible forces the visibility of the component in scope.
func (b *Builder) Visible(visible bool) *Builder {
	return b.apply("visible", func(c *component.Component) error {
		c.SetVisible(visible)
		return nil
	})
}

// Permissions replaces the required permissions of the component in scope.
func (b *Builder) Permissions(permissions ...string) *Builder {
	return b.apply("permissions", func(c *component.Component) error {
		c.SetPermissions(permissions...)
		return nil
	})
}

// Roles replaces the required roles of the component in scope.
func (b *Builder) Roles(roles ...string) *Builder {
	return b.apply("roles", func(c *component.Component) error {
		c.SetRoles(roles...)
		return nil
	})
}

// DataSource sets the URL the component loads external data from at
// render time.
func (b *Builder) DataSource(url string) *Builder {
	return b.apply("dataSource", func(c *component.Component) error {
		c.SetDataSource(url)
		return nil
	})
}

// Build freezes the tree into a Layout. Scopes left open are closed
// implicitly.
func (b *Builder) Build() (*layout.Layout, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.built {
		return nil, stateError("build", "builder already built")
	}
	b.built = true
	b.stack = nil
	b.current = nil
	return layout.New(b.module, b.context, b.root.Children()...)
}

func (b *Builder) ok() bool {
	if b.err != nil {
		return false
	}
	if b.built {
		b.err = stateError("use", "builder already built")
		return false
	}
	return true
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

func (b *Builder) scope() *component.Component {
	if len(b.stack) == 0 {
		return b.root
	}
	return b.stack[len(b.stack)-1]
}

func (b *Builder) nearest(types ...string) int {
	for i := len(b.stack) - 1; i >= 0; i-- {
		for _, typ := range types {
			if b.stack[i].Type() == typ {
				return i
			}
		}
	}
	return -1
}

func (b *Builder) open(op, typ, name string) *Builder {
	if !b.ok() {
		return b
	}
	parent := b.scope()
	if existing, ok := parent.Child(strings.TrimSpace(name)); ok && existing.IsContainer() && existing.Type() == typ {
		b.stack = append(b.stack, existing)
		b.current = existing
		return b
	}
	c := component.NewContainer(typ, name)
	if err := b.add(op, parent, c); err != nil {
		return b.fail(err)
	}
	b.stack = append(b.stack, c)
	b.current = c
	return b
}

func (b *Builder) leaf(op, typ, name string) *Builder {
	if !b.ok() {
		return b
	}
	c := component.New(typ, name)
	if err := b.add(op, b.scope(), c); err != nil {
		return b.fail(err)
	}
	b.current = c
	return b
}

func (b *Builder) add(op string, parent, child *component.Component) error {
	if child.Type() == "" {
		return fmt.Errorf("builder: %s: component type is required", op)
	}
	if child.Name() == "" {
		return fmt.Errorf("builder: %s: %s name is required", op, child.Type())
	}
	err := parent.Add(child)
	var dup *component.DuplicateComponentError
	if parent == b.root && errors.As(err, &dup) {
		return &component.DuplicateComponentError{Name: dup.Name}
	}
	return err
}

func (b *Builder) closeAt(idx int) *Builder {
	b.current = b.stack[idx]
	b.stack = b.stack[:idx]
	return b
}

func (b *Builder) apply(op string, fn func(*component.Component) error) *Builder {
	if !b.ok() {
		return b
	}
	if b.current == nil {
		return b.fail(stateError(op, "no component in scope"))
	}
	if err := fn(b.current); err != nil {
		return b.fail(err)
	}
	return b
}
