package render

import (
	"fmt"
	"mime"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Registry stores renderers by name and rejects duplicates.
type Registry struct {
	mu        sync.RWMutex
	renderers map[string]Renderer
}

// NewRegistry creates an empty registry instance.
func NewRegistry() *Registry {
	return &Registry{
		renderers: make(map[string]Renderer),
	}
}

// Register adds a renderer by its Name(). Duplicate names return an error.
func (r *Registry) Register(renderer Renderer) error {
	if renderer == nil {
		return fmt.Errorf("render: renderer is required")
	}
	name := renderer.Name()
	if name == "" {
		return fmt.Errorf("render: renderer name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.renderers[name]; exists {
		return fmt.Errorf("render: renderer %q already registered", name)
	}

	r.renderers[name] = renderer
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(renderer Renderer) {
	if err := r.Register(renderer); err != nil {
		panic(err)
	}
}

// Get retrieves a renderer by name.
func (r *Registry) Get(name string) (Renderer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	renderer, ok := r.renderers[name]
	if !ok {
		return nil, fmt.Errorf("render: renderer %q not found", name)
	}
	return renderer, nil
}

// Negotiate picks a renderer by explicit format name first, then by the
// media types of an Accept header, falling back to fallback.
func (r *Registry) Negotiate(format, accept, fallback string) (Renderer, error) {
	if format = strings.ToLower(strings.TrimSpace(format)); format != "" {
		return r.Get(format)
	}

	r.mu.RLock()
	byType := make(map[string]Renderer, len(r.renderers))
	for _, name := range sortedNames(r.renderers) {
		renderer := r.renderers[name]
		if mediaType, _, err := mime.ParseMediaType(renderer.ContentType()); err == nil {
			if _, exists := byType[mediaType]; !exists {
				byType[mediaType] = renderer
			}
		}
	}
	r.mu.RUnlock()

	for _, mediaType := range acceptedTypes(accept) {
		if renderer, ok := byType[mediaType]; ok {
			return renderer, nil
		}
	}
	return r.Get(fallback)
}

// acceptedTypes returns the media types of an Accept header ordered by
// descending q value. Entries with q=0 are dropped; ties keep header order.
func acceptedTypes(accept string) []string {
	type entry struct {
		mediaType string
		q         float64
	}
	var entries []entry
	for _, part := range strings.Split(accept, ",") {
		mediaType, params, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		q := 1.0
		if raw, ok := params["q"]; ok {
			parsed, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				continue
			}
			q = parsed
		}
		if q <= 0 {
			continue
		}
		entries = append(entries, entry{mediaType: mediaType, q: q})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].q > entries[j].q })

	types := make([]string, len(entries))
	for i, e := range entries {
		types[i] = e.mediaType
	}
	return types
}

// List returns a sorted list of renderer names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return sortedNames(r.renderers)
}

// Has reports whether a renderer is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.renderers[name]
	return ok
}

func sortedNames(renderers map[string]Renderer) []string {
	names := make([]string, 0, len(renderers))
	for name := range renderers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
