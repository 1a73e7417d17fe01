// Package layout holds the immutable result of a build: an ordered sequence
// of root components tagged with module and context.
//
// Layouts expose no structural mutators. ResolveAuthorization updates the
// per-component memo only, and records the user it was resolved for so
// callers can detect a layout resolved for somebody else.
package layout

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-layouts/pkg/authz"
	"github.com/goliatone/go-layouts/pkg/component"
	"github.com/goliatone/go-layouts/pkg/view"
)

// Layout is a built component tree keyed by module and context.
type Layout struct {
	module   string
	context  string
	roots    []*component.Component
	user     string
	resolved bool
}

// ValidateKey checks module and context before they are joined into
// registry ("module.context") and cache ("prefix:module:context:user")
// keys. Modules may not contain dots and neither part may contain colons.
func ValidateKey(module, context string) error {
	module = strings.TrimSpace(module)
	context = strings.TrimSpace(context)
	switch {
	case module == "" || context == "":
		return fmt.Errorf("layout: module and context are required")
	case strings.Contains(module, "."):
		return fmt.Errorf("layout: module %q must not contain '.'", module)
	case strings.Contains(module, ":"), strings.Contains(context, ":"):
		return fmt.Errorf("layout: %s.%s must not contain ':'", module, context)
	}
	return nil
}

// New wraps roots into a Layout. Root names must be unique.
func New(module, context string, roots ...*component.Component) (*Layout, error) {
	module = strings.TrimSpace(module)
	context = strings.TrimSpace(context)
	if err := ValidateKey(module, context); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(roots))
	out := make([]*component.Component, 0, len(roots))
	for _, root := range roots {
		if root == nil {
			continue
		}
		if _, dup := seen[root.Name()]; dup {
			return nil, &component.DuplicateComponentError{Name: root.Name()}
		}
		seen[root.Name()] = struct{}{}
		out = append(out, root)
	}
	return &Layout{module: module, context: context, roots: out}, nil
}

func (l *Layout) Module() string  { return l.module }
func (l *Layout) Context() string { return l.context }

// Key returns the registry key "module.context".
func (l *Layout) Key() string { return l.module + "." + l.context }

// Len returns the number of root components.
func (l *Layout) Len() int { return len(l.roots) }

// ResolvedFor returns the user id authorization was last resolved for.
func (l *Layout) ResolvedFor() (string, bool) {
	return l.user, l.resolved
}

// ResolveAuthorization resolves every component for user.
func (l *Layout) ResolveAuthorization(ctx context.Context, resolver authz.Resolver, user *authz.User) *Layout {
	for _, root := range l.roots {
		root.ResolveAuthorization(ctx, resolver, user)
	}
	l.user = user.CacheID()
	l.resolved = true
	return l
}

// Walk visits every component depth-first in render order.
func (l *Layout) Walk(fn func(*component.Component) bool) {
	for _, root := range component.Sort(l.roots) {
		root.Walk(fn)
	}
}

// ToView converts the layout into its serializable form, filtered to the
// components the resolved user may see.
func (l *Layout) ToView() view.Layout {
	out := l.header()
	for _, root := range component.Sort(l.roots) {
		if root.AuthorizedToSee() {
			out.Components = append(out.Components, root.ToView())
		}
	}
	return out
}

// Render is ToView with lifecycle events, data loading and decorators.
func (l *Layout) Render(ctx context.Context, env component.Env) view.Layout {
	out := l.header()
	for _, root := range component.Sort(l.roots) {
		if root.AuthorizedToSee() {
			out.Components = append(out.Components, root.Render(ctx, env))
		}
	}
	return out
}

// Find returns the first visible component named name.
func (l *Layout) Find(name string) (view.Component, bool) {
	return l.ToView().Find(name)
}

func (l *Layout) header() view.Layout {
	out := view.Layout{Module: l.module, Context: l.context, User: l.user}
	out.Components = []view.Component{}
	return out
}

// Snapshot is the JSON form of a Layout stored in caches.
type Snapshot struct {
	Version    int                  `json:"v"`
	Module     string               `json:"module"`
	Context    string               `json:"context"`
	User       string               `json:"user,omitempty"`
	Resolved   bool                 `json:"resolved,omitempty"`
	Components []component.Snapshot `json:"components"`
}

const snapshotVersion = 1

// Snapshot captures the layout including authorization memos.
func (l *Layout) Snapshot() Snapshot {
	snap := Snapshot{
		Version:    snapshotVersion,
		Module:     l.module,
		Context:    l.context,
		User:       l.user,
		Resolved:   l.resolved,
		Components: make([]component.Snapshot, 0, len(l.roots)),
	}
	for _, root := range l.roots {
		snap.Components = append(snap.Components, root.Snapshot())
	}
	return snap
}

// FromSnapshot rebuilds a Layout.
func FromSnapshot(snap Snapshot) (*Layout, error) {
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("layout: unsupported snapshot version %d", snap.Version)
	}
	roots := make([]*component.Component, 0, len(snap.Components))
	for _, item := range snap.Components {
		root, err := component.FromSnapshot(item)
		if err != nil {
			return nil, fmt.Errorf("layout: restore %s.%s: %w", snap.Module, snap.Context, err)
		}
		roots = append(roots, root)
	}
	l, err := New(snap.Module, snap.Context, roots...)
	if err != nil {
		return nil, err
	}
	l.user = snap.User
	l.resolved = snap.Resolved
	return l, nil
}

// Encode serializes the layout snapshot as JSON.
func (l *Layout) Encode() ([]byte, error) {
	data, err := json.Marshal(l.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("layout: encode %s: %w", l.Key(), err)
	}
	return data, nil
}

// Decode parses a layout encoded with Encode.
func Decode(data []byte) (*Layout, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("layout: decode: %w", err)
	}
	return FromSnapshot(snap)
}

// Clone returns an independent deep copy.
func (l *Layout) Clone() (*Layout, error) {
	return FromSnapshot(l.Snapshot())
}
