package widgets

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-layouts/pkg/attr"
	"github.com/goliatone/go-layouts/pkg/component"
	"github.com/goliatone/go-layouts/pkg/view"
)

// Built-in widget identifiers exposed by the registry.
const (
	WidgetToggle     = "toggle"
	WidgetSelect     = "select"
	WidgetChips      = "chips"
	WidgetCodeEditor = "code-editor"
	WidgetTextarea   = "textarea"
	WidgetRemote     = "remote-select"
	WidgetInput      = "input"
)

// AttrWidget is the attribute the decorator writes.
const AttrWidget = "widget"

// Matcher decides whether a widget should handle the supplied field view.
type Matcher func(field view.Component) bool

type rule struct {
	name     string
	priority int
	match    Matcher
	order    int
}

// Registry selects widgets for field views based on an explicit "widget"
// attribute or registered matchers. Higher priority wins; on ties the later
// registration wins. An empty registry never resolves a widget.
type Registry struct {
	mu    sync.RWMutex
	rules []rule
	types map[string]struct{}
}

// NewRegistry constructs a registry with the built-in widget matchers
// registered. It decorates field components only.
func NewRegistry() *Registry {
	reg := &Registry{types: map[string]struct{}{component.TypeField: {}}}
	reg.registerBuiltins()
	return reg
}

// Register adds a widget matcher with the provided name and priority. The
// latest registration wins between equal names and priorities.
func (r *Registry) Register(name string, priority int, matcher Matcher) {
	if r == nil || matcher == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule{
		name:     trimmed,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
}

// DecorateTypes adds component types the decorator should annotate besides
// fields, e.g. custom "chart" components.
func (r *Registry) DecorateTypes(types ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.types == nil {
		r.types = make(map[string]struct{})
	}
	for _, typ := range types {
		if trimmed := strings.TrimSpace(typ); trimmed != "" {
			r.types[trimmed] = struct{}{}
		}
	}
}

// Resolve returns the widget name for a field view. An explicit widget
// attribute is honoured before matcher evaluation.
func (r *Registry) Resolve(field view.Component) (string, bool) {
	if explicit := strings.TrimSpace(field.Attributes.String(AttrWidget)); explicit != "" {
		return explicit, true
	}
	if r == nil {
		return "", false
	}
	r.mu.RLock()
	if len(r.rules) == 0 {
		r.mu.RUnlock()
		return "", false
	}
	rules := append([]rule(nil), r.rules...)
	r.mu.RUnlock()
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order > rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, entry := range rules {
		if entry.match(field) {
			return entry.name, true
		}
	}
	return "", false
}

// Decorate implements component.Decorator. Only the node itself is
// annotated; children are decorated when they render.
func (r *Registry) Decorate(_ context.Context, node *view.Component) error {
	if r == nil || node == nil {
		return nil
	}
	r.mu.RLock()
	_, wanted := r.types[node.Type]
	r.mu.RUnlock()
	if !wanted {
		return nil
	}
	if node.Attributes.String(AttrWidget) != "" {
		return nil
	}
	if widget, ok := r.Resolve(*node); ok && widget != "" {
		if node.Attributes == nil {
			node.Attributes = attr.Attributes{}
		}
		node.Attributes.Set(AttrWidget, widget)
	}
	return nil
}

var _ component.Decorator = (*Registry)(nil)

func inputType(field view.Component) string {
	return strings.ToLower(strings.TrimSpace(field.Attributes.String("type")))
}

func hasOptions(field view.Component) bool {
	options, ok := field.Attributes.Get("options")
	return ok && options.Kind() == attr.KindList && options.Len() > 0
}

func multiple(field view.Component) bool {
	value, ok := field.Attributes.Get("multiple")
	return ok && value.Kind() == attr.KindBool && value.Bool()
}

func (r *Registry) registerBuiltins() {
	r.Register(WidgetToggle, 90, func(field view.Component) bool {
		switch inputType(field) {
		case "boolean", "checkbox", "switch":
			return true
		}
		return false
	})

	r.Register(WidgetChips, 80, func(field view.Component) bool {
		return multiple(field) && (hasOptions(field) || inputType(field) == "tags")
	})

	r.Register(WidgetSelect, 70, func(field view.Component) bool {
		return hasOptions(field) || inputType(field) == "select"
	})

	r.Register(WidgetRemote, 65, func(field view.Component) bool {
		return field.DataURL != "" && inputType(field) == "lookup"
	})

	r.Register(WidgetCodeEditor, 60, func(field view.Component) bool {
		format := strings.ToLower(strings.TrimSpace(field.Attributes.String("format")))
		return format == "json" || format == "yaml" || format == "toml"
	})

	r.Register(WidgetTextarea, 50, func(field view.Component) bool {
		if inputType(field) == "textarea" {
			return true
		}
		rows, ok := field.Attributes.Get("rows")
		return ok && rows.Kind() == attr.KindInt && rows.Int() > 1
	})

	r.Register(WidgetInput, 0, func(view.Component) bool { return true })
}
