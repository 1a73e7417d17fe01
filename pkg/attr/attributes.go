package attr

import "strings"

// Attributes is the key/value bag attached to a component. Keys are opaque
// to the layout core.
type Attributes map[string]Value

// Set stores raw under key, dropping unsupported values. Blank keys are
// ignored.
func (a Attributes) Set(key string, raw any) bool {
	key = strings.TrimSpace(key)
	if a == nil || key == "" {
		return false
	}
	value, ok := Of(raw)
	if !ok {
		delete(a, key)
		return false
	}
	a[key] = value
	return true
}

// Get returns the value for key.
func (a Attributes) Get(key string) (Value, bool) {
	if a == nil {
		return Value{}, false
	}
	value, ok := a[key]
	return value, ok && value.IsValid()
}

// String returns the string stored under key or "".
func (a Attributes) String(key string) string {
	value, ok := a.Get(key)
	if !ok || value.Kind() != KindString {
		return ""
	}
	return value.Str()
}

// Clone returns a copy safe to mutate independently.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	for key, value := range a {
		if !value.IsValid() {
			continue
		}
		if value.Kind() == KindList {
			value = List(value.list...)
		}
		out[key] = value
	}
	return out
}

// Merge copies every entry of other into a copy of a, overriding existing
// keys.
func (a Attributes) Merge(other Attributes) Attributes {
	out := a.Clone()
	if out == nil {
		out = make(Attributes, len(other))
	}
	for key, value := range other {
		if value.IsValid() {
			out[key] = value
		}
	}
	return out
}

// Map converts the bag into plain Go values for JSON/YAML encoding.
func (a Attributes) Map() map[string]any {
	if len(a) == 0 {
		return nil
	}
	out := make(map[string]any, len(a))
	for key, value := range a {
		if value.IsValid() {
			out[key] = value.Interface()
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Keys returns the attribute keys sorted lexically.
func (a Attributes) Keys() []string {
	return sortedKeys(a)
}

// Equal reports whether both bags hold the same keys and values.
func (a Attributes) Equal(other Attributes) bool {
	if len(a) != len(other) {
		return false
	}
	for key, value := range a {
		peer, ok := other[key]
		if !ok || !value.Equal(peer) {
			return false
		}
	}
	return true
}

// FromMap converts plain Go values into an attribute bag, skipping values
// outside the closed kind set.
func FromMap(raw map[string]any) Attributes {
	if len(raw) == 0 {
		return nil
	}
	out := make(Attributes, len(raw))
	for key, value := range raw {
		out.Set(key, value)
	}
	return out
}
