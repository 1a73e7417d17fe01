// Package registry maps (module, context) pairs to the callbacks that build
// their layouts. Registrations normally happen at start-up; re-registering
// a key replaces the previous callback.
package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-layouts/pkg/builder"
	"github.com/goliatone/go-layouts/pkg/layout"
)

// Registry stores layout callbacks keyed by "module.context".
type Registry struct {
	mu        sync.RWMutex
	callbacks map[string]builder.Callback
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{callbacks: make(map[string]builder.Callback)}
}

// Key returns the composite key for module and context.
func Key(module, context string) string {
	return strings.TrimSpace(module) + "." + strings.TrimSpace(context)
}

// SplitKey splits "module.context" at the first dot.
func SplitKey(key string) (module, context string, err error) {
	module, context, ok := strings.Cut(strings.TrimSpace(key), ".")
	if !ok || strings.TrimSpace(module) == "" || strings.TrimSpace(context) == "" {
		return "", "", fmt.Errorf("registry: invalid key %q, want module.context", key)
	}
	return strings.TrimSpace(module), strings.TrimSpace(context), nil
}

// Register stores cb for module and context, replacing any previous
// callback.
func (r *Registry) Register(module, context string, cb builder.Callback) error {
	if cb == nil {
		return fmt.Errorf("registry: callback for %s is required", Key(module, context))
	}
	if err := layout.ValidateKey(module, context); err != nil {
		return fmt.Errorf("registry: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.callbacks[Key(module, context)] = cb
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(module, context string, cb builder.Callback) {
	if err := r.Register(module, context, cb); err != nil {
		panic(err)
	}
}

// RegisterAll registers every "module.context" entry of callbacks.
func (r *Registry) RegisterAll(callbacks map[string]builder.Callback) error {
	keys := make([]string, 0, len(callbacks))
	for key := range callbacks {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		module, context, err := SplitKey(key)
		if err != nil {
			return err
		}
		if err := r.Register(module, context, callbacks[key]); err != nil {
			return err
		}
	}
	return nil
}

// Unregister removes the callback for module and context and reports
// whether one was registered.
func (r *Registry) Unregister(module, context string) bool {
	if layout.ValidateKey(module, context) != nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	key := Key(module, context)
	_, ok := r.callbacks[key]
	delete(r.callbacks, key)
	return ok
}

// Has reports whether a callback is registered.
func (r *Registry) Has(module, context string) bool {
	_, ok := r.Lookup(module, context)
	return ok
}

// Lookup returns the registered callback. Keys Register would reject never
// match.
func (r *Registry) Lookup(module, context string) (builder.Callback, bool) {
	if layout.ValidateKey(module, context) != nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	cb, ok := r.callbacks[Key(module, context)]
	return cb, ok
}

// Registered returns every key mapped to its registration presence.
func (r *Registry) Registered() map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]bool, len(r.callbacks))
	for key := range r.callbacks {
		out[key] = true
	}
	return out
}

// Keys returns a sorted list of registered keys.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.callbacks))
	for key := range r.callbacks {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Reset drops every registration.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.callbacks = make(map[string]builder.Callback)
}
