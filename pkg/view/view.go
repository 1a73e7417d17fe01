// Package view holds the serializable description produced when a layout
// component is converted or rendered. Views never contain markup; callers
// encode them (JSON, YAML) or hand them to their own templates.
package view

import "github.com/goliatone/go-layouts/pkg/attr"

// Component is the rendered form of a single layout component. Children are
// already filtered to the ones the current user may see and sorted.
type Component struct {
	Type       string          `json:"type" yaml:"type"`
	Name       string          `json:"name" yaml:"name"`
	Order      *int            `json:"order,omitempty" yaml:"order,omitempty"`
	Visible    bool            `json:"visible" yaml:"visible"`
	Authorized bool            `json:"authorized" yaml:"authorized"`
	Attributes attr.Attributes `json:"attributes,omitempty" yaml:"-"`
	DataURL    string          `json:"dataUrl,omitempty" yaml:"dataUrl,omitempty"`
	Error      string          `json:"error,omitempty" yaml:"error,omitempty"`
	Children   []Component     `json:"children,omitempty" yaml:"children,omitempty"`
}

// Layout is the rendered form of a whole layout.
type Layout struct {
	Module     string      `json:"module" yaml:"module"`
	Context    string      `json:"context" yaml:"context"`
	User       string      `json:"user" yaml:"user"`
	Components []Component `json:"components" yaml:"components"`
}

// Find walks the tree depth-first and returns the first component with name.
func (l Layout) Find(name string) (Component, bool) {
	return find(l.Components, name)
}

// Find looks for name among the descendants of c.
func (c Component) Find(name string) (Component, bool) {
	return find(c.Children, name)
}

// Names returns the names of the direct children in render order.
func (c Component) Names() []string {
	names := make([]string, len(c.Children))
	for i, child := range c.Children {
		names[i] = child.Name
	}
	return names
}

// Count returns the number of components in the subtree including c.
func (c Component) Count() int {
	total := 1
	for _, child := range c.Children {
		total += child.Count()
	}
	return total
}

// MarshalYAML flattens attributes into plain values for yaml.v3.
func (c Component) MarshalYAML() (any, error) {
	type plain Component
	return struct {
		plain      `yaml:",inline"`
		Attributes map[string]any `yaml:"attributes,omitempty"`
	}{plain: plain(c), Attributes: c.Attributes.Map()}, nil
}

func find(components []Component, name string) (Component, bool) {
	for _, component := range components {
		if component.Name == name {
			return component, true
		}
		if found, ok := find(component.Children, name); ok {
			return found, true
		}
	}
	return Component{}, false
}
