package openapi

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-layouts/pkg/builder"
)

// ExtensionKey holds per-property layout hints.
const ExtensionKey = "x-layout"

// Hints is the decoded x-layout extension.
type Hints struct {
	Order       *int     `json:"order,omitempty"`
	Visible     *bool    `json:"visible,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	Roles       []string `json:"roles,omitempty"`
	DataSource  string   `json:"dataSource,omitempty"`
	Widget      string   `json:"widget,omitempty"`
	Hidden      bool     `json:"hidden,omitempty"`
}

// Callback returns a builder callback that lays out the request body of the
// operation with id.
func (d *Document) Callback(id string) (builder.Callback, error) {
	op, ok := d.operations[id]
	if !ok {
		return nil, fmt.Errorf("openapi: operation %q not found in %s", id, d.location)
	}
	if op.Request == nil {
		return nil, fmt.Errorf("openapi: operation %q has no request body schema", id)
	}
	schema := op.Request
	return func(b *builder.Builder) error {
		if err := emitProperties(b, schema, 0); err != nil {
			return err
		}
		return b.Err()
	}, nil
}

// Callbacks returns a callback for every operation with a request body,
// keyed by "module.operationId".
func (d *Document) Callbacks(module string) map[string]builder.Callback {
	out := make(map[string]builder.Callback)
	for _, id := range d.OperationIDs() {
		cb, err := d.Callback(id)
		if err != nil {
			continue
		}
		out[module+"."+id] = cb
	}
	return out
}

func emitProperties(b *builder.Builder, schema *openapi3.Schema, depth int) error {
	required := make(map[string]struct{}, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = struct{}{}
	}

	for position, name := range propertyOrder(schema) {
		ref := schema.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		prop := ref.Value
		hints, err := decodeHints(prop.Extensions)
		if err != nil {
			return fmt.Errorf("openapi: property %q: %w", name, err)
		}
		if hints.Hidden || prop.ReadOnly {
			continue
		}

		if isObject(prop) {
			if depth == 0 {
				b.Section(name)
			} else {
				b.Subsection(name)
			}
			applyHints(b, hints, position)
			b.Label(label(name, prop))
			if prop.Description != "" {
				b.HelpText(prop.Description)
			}
			if err := emitProperties(b, prop, depth+1); err != nil {
				return err
			}
			b.End()
			continue
		}

		b.Field(name)
		applyHints(b, hints, position)
		b.Type(fieldType(prop)).Label(label(name, prop))
		if _, ok := required[name]; ok {
			b.Required()
		}
		if prop.Description != "" {
			b.HelpText(prop.Description)
		}
		if prop.Format != "" {
			b.Attr("format", prop.Format)
		}
		if prop.Default != nil {
			b.Attr("default", prop.Default)
		}
		if prop.Example != nil {
			b.Placeholder(fmt.Sprint(prop.Example))
		}
		if options := enumOptions(prop); len(options) > 0 {
			b.Options(options...)
		}
		if isArray(prop) {
			b.Attr("multiple", true)
			if prop.Items != nil && prop.Items.Value != nil {
				if options := enumOptions(prop.Items.Value); len(options) > 0 {
					b.Options(options...)
				}
			}
		}
		if prop.MaxLength != nil {
			b.Attr("maxLength", int64(*prop.MaxLength))
		}
		if prop.Min != nil {
			b.Attr("min", *prop.Min)
		}
		if prop.Max != nil {
			b.Attr("max", *prop.Max)
		}
		if prop.Pattern != "" {
			b.Attr("pattern", prop.Pattern)
		}
	}
	return nil
}

func applyHints(b *builder.Builder, hints Hints, position int) {
	if hints.Order != nil {
		b.Order(*hints.Order)
	} else {
		b.Order(position + 1)
	}
	if hints.Visible != nil {
		b.Visible(*hints.Visible)
	}
	if len(hints.Permissions) > 0 {
		b.Permissions(hints.Permissions...)
	}
	if len(hints.Roles) > 0 {
		b.Roles(hints.Roles...)
	}
	if hints.DataSource != "" {
		b.DataSource(hints.DataSource)
	}
	if hints.Widget != "" {
		b.Attr("widget", hints.Widget)
	}
}

// propertyOrder lists properties by x-layout order, then required ones,
// then name.
func propertyOrder(schema *openapi3.Schema) []string {
	names := sortedKeys(schema.Properties)
	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}
	orders := make(map[string]int, len(names))
	for _, name := range names {
		orders[name] = int(^uint(0) >> 1)
		if ref := schema.Properties[name]; ref != nil && ref.Value != nil {
			if hints, err := decodeHints(ref.Value.Extensions); err == nil && hints.Order != nil {
				orders[name] = *hints.Order
			}
		}
	}
	sort.SliceStable(names, func(i, j int) bool {
		a, b := names[i], names[j]
		if orders[a] != orders[b] {
			return orders[a] < orders[b]
		}
		return required[a] && !required[b]
	})
	return names
}

func isObject(s *openapi3.Schema) bool {
	return s.Type.Is(openapi3.TypeObject) || (s.Type == nil && len(s.Properties) > 0)
}

func isArray(s *openapi3.Schema) bool {
	return s.Type.Is(openapi3.TypeArray)
}

func fieldType(s *openapi3.Schema) string {
	switch {
	case len(s.Enum) > 0:
		return "select"
	case s.Type.Is(openapi3.TypeBoolean):
		return "boolean"
	case s.Type.Is(openapi3.TypeInteger), s.Type.Is(openapi3.TypeNumber):
		return "number"
	case isArray(s):
		return "array"
	case s.Format == "date", s.Format == "date-time", s.Format == "email", s.Format == "password":
		return s.Format
	default:
		return "text"
	}
}

func label(name string, s *openapi3.Schema) string {
	if s.Title != "" {
		return s.Title
	}
	words := strings.FieldsFunc(name, func(r rune) bool { return r == '_' || r == '-' || r == '.' })
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

func enumOptions(s *openapi3.Schema) []string {
	if len(s.Enum) == 0 {
		return nil
	}
	out := make([]string, 0, len(s.Enum))
	for _, value := range s.Enum {
		if value == nil {
			continue
		}
		out = append(out, fmt.Sprint(value))
	}
	return out
}

func decodeHints(extensions map[string]any) (Hints, error) {
	var hints Hints
	raw, ok := extensions[ExtensionKey]
	if !ok || raw == nil {
		return hints, nil
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return hints, fmt.Errorf("encode %s: %w", ExtensionKey, err)
	}
	if err := json.Unmarshal(encoded, &hints); err != nil {
		return hints, fmt.Errorf("decode %s: %w", ExtensionKey, err)
	}
	return hints, nil
}
