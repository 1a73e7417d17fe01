package component

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-layouts/pkg/attr"
	"github.com/goliatone/go-layouts/pkg/authz"
)

// Built-in component types.
const (
	TypeField      = "field"
	TypeSection    = "section"
	TypeSubsection = "subsection"
)

type authState uint8

const (
	authUnresolved authState = iota
	authAllowed
	authDenied
)

// Component is a node of a layout tree: a field, a section, a subsection or
// any custom type. Setters return the receiver so calls can be chained.
type Component struct {
	typ         string
	name        string
	order       *int
	visible     bool
	permissions []string
	roles       []string
	auth        authState
	authUser    string
	container   bool
	children    []*Component
	index       map[string]*Component
	attrs       attr.Attributes
	dataSource  string
}

// New creates a leaf component of the given type.
func New(typ, name string) *Component {
	return &Component{
		typ:     strings.TrimSpace(typ),
		name:    strings.TrimSpace(name),
		visible: true,
		attrs:   attr.Attributes{},
	}
}

// NewContainer creates a component that accepts children.
func NewContainer(typ, name string) *Component {
	c := New(typ, name)
	c.container = true
	c.index = make(map[string]*Component)
	return c
}

// NewField creates a field leaf.
func NewField(name string) *Component { return New(TypeField, name) }

// NewSection creates a section container.
func NewSection(name string) *Component { return NewContainer(TypeSection, name) }

// NewSubsection creates a subsection container.
func NewSubsection(name string) *Component { return NewContainer(TypeSubsection, name) }

func (c *Component) Type() string       { return c.typ }
func (c *Component) Name() string       { return c.name }
func (c *Component) IsContainer() bool  { return c.container }
func (c *Component) IsVisible() bool    { return c.visible }
func (c *Component) DataSource() string { return c.dataSource }

// Order returns the explicit order, if any.
func (c *Component) Order() (int, bool) {
	if c.order == nil {
		return 0, false
	}
	return *c.order, true
}

// SetOrder sets the explicit sort key.
func (c *Component) SetOrder(n int) *Component {
	c.order = &n
	return c
}

// ClearOrder drops the explicit order; the component sorts after ordered
// siblings in insertion order.
func (c *Component) ClearOrder() *Component {
	c.order = nil
	return c
}

// SetVisible forces visibility independent of authorization.
func (c *Component) SetVisible(visible bool) *Component {
	c.visible = visible
	return c
}

// SetPermissions replaces the required permissions. The authorization memo
// is reset because the requirements changed.
func (c *Component) SetPermissions(permissions ...string) *Component {
	c.permissions = authz.Normalize(permissions)
	c.resetAuth()
	return c
}

// SetRoles replaces the required roles and resets the authorization memo.
func (c *Component) SetRoles(roles ...string) *Component {
	c.roles = authz.Normalize(roles)
	c.resetAuth()
	return c
}

func (c *Component) Permissions() []string { return append([]string(nil), c.permissions...) }
func (c *Component) Roles() []string       { return append([]string(nil), c.roles...) }

// Restricted reports whether the component carries any requirement.
func (c *Component) Restricted() bool {
	return len(c.permissions) > 0 || len(c.roles) > 0
}

// SetDataSource sets the URL external data is loaded from at render time.
func (c *Component) SetDataSource(url string) *Component {
	c.dataSource = strings.TrimSpace(url)
	return c
}

// SetAttr stores an attribute. Unsupported values are dropped.
func (c *Component) SetAttr(key string, value any) *Component {
	if c.attrs == nil {
		c.attrs = attr.Attributes{}
	}
	c.attrs.Set(key, value)
	return c
}

// Attr returns a single attribute.
func (c *Component) Attr(key string) (attr.Value, bool) {
	return c.attrs.Get(key)
}

// Attributes returns a copy of the attribute bag.
func (c *Component) Attributes() attr.Attributes {
	out := c.attrs.Clone()
	if out == nil {
		out = attr.Attributes{}
	}
	return out
}

// Add appends child. Sibling names must be unique.
func (c *Component) Add(child *Component) error {
	if child == nil {
		return fmt.Errorf("component: child is required")
	}
	if !c.container {
		return fmt.Errorf("component: %s %q does not accept children", c.typ, c.name)
	}
	if child.name == "" {
		return fmt.Errorf("component: %s under %q has an empty name", child.typ, c.name)
	}
	if _, exists := c.index[child.name]; exists {
		return &DuplicateComponentError{Parent: c.name, Name: child.name}
	}
	c.index[child.name] = child
	c.children = append(c.children, child)
	return nil
}

// Child returns the direct child called name.
func (c *Component) Child(name string) (*Component, bool) {
	if c.index == nil {
		return nil, false
	}
	child, ok := c.index[name]
	return child, ok
}

// Children returns the direct children in render order.
func (c *Component) Children() []*Component {
	return Sort(c.children)
}

// Len returns the number of direct children.
func (c *Component) Len() int { return len(c.children) }

// Walk visits c and its descendants depth-first in render order. Returning
// false from fn skips the subtree.
func (c *Component) Walk(fn func(*Component) bool) {
	if !fn(c) {
		return
	}
	for _, child := range c.Children() {
		child.Walk(fn)
	}
}

// ResolveAuthorization evaluates the component's requirements for user and
// memoizes the outcome, then recurses into every descendant. Components
// without requirements never reach the resolver; resolver failures deny.
func (c *Component) ResolveAuthorization(ctx context.Context, resolver authz.Resolver, user *authz.User) *Component {
	allowed, _ := authz.Check(ctx, resolver, user, c.permissions, c.roles)
	if allowed {
		c.auth = authAllowed
	} else {
		c.auth = authDenied
	}
	c.authUser = user.CacheID()
	for _, child := range c.children {
		child.ResolveAuthorization(ctx, resolver, user)
	}
	return c
}

// Authorized returns the memoized authorization result. Unresolved
// components count as authorized only when they carry no requirements.
func (c *Component) Authorized() bool {
	switch c.auth {
	case authAllowed:
		return true
	case authDenied:
		return false
	default:
		return !c.Restricted()
	}
}

// AuthorizedToSee reports IsVisible() && Authorized().
func (c *Component) AuthorizedToSee() bool {
	return c.visible && c.Authorized()
}

// Resolved returns the user id the memo was computed for.
func (c *Component) Resolved() (string, bool) {
	if c.auth == authUnresolved {
		return "", false
	}
	return c.authUser, true
}

func (c *Component) resetAuth() {
	c.auth = authUnresolved
	c.authUser = ""
}

// Sort returns components ordered by explicit order ascending; components
// without an order follow in insertion order.
func Sort(components []*Component) []*Component {
	out := append([]*Component(nil), components...)
	sort.SliceStable(out, func(i, j int) bool {
		left, right := out[i].order, out[j].order
		switch {
		case left == nil:
			return false
		case right == nil:
			return true
		default:
			return *left < *right
		}
	})
	return out
}
