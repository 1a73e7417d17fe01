package definition

import (
	"sort"

	"github.com/goliatone/go-layouts/pkg/builder"
	"github.com/goliatone/go-layouts/pkg/registry"
)

// ComponentSpec describes one component of a definition file.
type ComponentSpec struct {
	Type        string          `json:"type,omitempty" yaml:"type,omitempty"`
	Name        string          `json:"name" yaml:"name"`
	Container   bool            `json:"container,omitempty" yaml:"container,omitempty"`
	Order       *int            `json:"order,omitempty" yaml:"order,omitempty"`
	Visible     *bool           `json:"visible,omitempty" yaml:"visible,omitempty"`
	Permissions []string        `json:"permissions,omitempty" yaml:"permissions,omitempty"`
	Roles       []string        `json:"roles,omitempty" yaml:"roles,omitempty"`
	DataSource  string          `json:"dataSource,omitempty" yaml:"dataSource,omitempty"`
	Attributes  map[string]any  `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Children    []ComponentSpec `json:"children,omitempty" yaml:"children,omitempty"`
}

// Definition is one layout loaded from a file.
type Definition struct {
	Key        string
	Module     string
	Context    string
	Source     string
	Components []ComponentSpec
}

// Store keeps parsed definitions. It is safe for concurrent readers when
// treated as immutable after construction.
type Store struct {
	definitions map[string]Definition
}

// Get returns the definition for "module.context".
func (s *Store) Get(key string) (Definition, bool) {
	if s == nil {
		return Definition{}, false
	}
	def, ok := s.definitions[key]
	return def, ok
}

// Keys returns the loaded keys sorted.
func (s *Store) Keys() []string {
	if s == nil {
		return nil
	}
	keys := make([]string, 0, len(s.definitions))
	for key := range s.definitions {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of definitions.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.definitions)
}

// Callbacks returns a callback per definition keyed by "module.context".
func (s *Store) Callbacks() map[string]builder.Callback {
	out := make(map[string]builder.Callback, s.Len())
	for _, key := range s.Keys() {
		out[key] = s.definitions[key].Callback()
	}
	return out
}

// RegisterAll registers every definition on reg.
func (s *Store) RegisterAll(reg *registry.Registry) error {
	return reg.RegisterAll(s.Callbacks())
}
