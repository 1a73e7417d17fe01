package component

import (
	"github.com/goliatone/go-layouts/pkg/attr"
)

// Snapshot is the serializable form of a component tree including its
// authorization memo. Layout caches store snapshots.
type Snapshot struct {
	Type          string          `json:"type"`
	Name          string          `json:"name"`
	Order         *int            `json:"order,omitempty"`
	Visible       bool            `json:"visible"`
	Container     bool            `json:"container,omitempty"`
	Permissions   []string        `json:"permissions,omitempty"`
	Roles         []string        `json:"roles,omitempty"`
	Authorized    *bool           `json:"authorized,omitempty"`
	AuthorizedFor string          `json:"authorizedFor,omitempty"`
	DataSource    string          `json:"dataSource,omitempty"`
	Attributes    attr.Attributes `json:"attributes,omitempty"`
	Children      []Snapshot      `json:"children,omitempty"`
}

// Snapshot captures the component tree in insertion order.
func (c *Component) Snapshot() Snapshot {
	snap := Snapshot{
		Type:        c.typ,
		Name:        c.name,
		Visible:     c.visible,
		Container:   c.container,
		Permissions: c.Permissions(),
		Roles:       c.Roles(),
		DataSource:  c.dataSource,
		Attributes:  c.attrs.Clone(),
	}
	if len(snap.Attributes) == 0 {
		snap.Attributes = nil
	}
	if c.order != nil {
		order := *c.order
		snap.Order = &order
	}
	if c.auth != authUnresolved {
		allowed := c.auth == authAllowed
		snap.Authorized = &allowed
		snap.AuthorizedFor = c.authUser
	}
	for _, child := range c.children {
		snap.Children = append(snap.Children, child.Snapshot())
	}
	return snap
}

// FromSnapshot rebuilds a component tree. Duplicate sibling names fail with
// DuplicateComponentError.
func FromSnapshot(snap Snapshot) (*Component, error) {
	var c *Component
	if snap.Container {
		c = NewContainer(snap.Type, snap.Name)
	} else {
		c = New(snap.Type, snap.Name)
	}
	c.visible = snap.Visible
	c.permissions = append([]string(nil), snap.Permissions...)
	c.roles = append([]string(nil), snap.Roles...)
	c.dataSource = snap.DataSource
	if len(snap.Attributes) > 0 {
		c.attrs = snap.Attributes.Clone()
	}
	if snap.Order != nil {
		c.SetOrder(*snap.Order)
	}
	if snap.Authorized != nil {
		if *snap.Authorized {
			c.auth = authAllowed
		} else {
			c.auth = authDenied
		}
		c.authUser = snap.AuthorizedFor
	}
	for _, childSnap := range snap.Children {
		child, err := FromSnapshot(childSnap)
		if err != nil {
			return nil, err
		}
		if err := c.Add(child); err != nil {
			return nil, err
		}
	}
	return c, nil
}
