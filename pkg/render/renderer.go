// Package render encodes rendered layouts for transport or display.
//
// A Registry holds Renderers by name. JSON and YAML are the wire formats
// served over HTTP; the tree renderer draws an indented outline for
// terminals.
package render

import (
	"context"

	"github.com/goliatone/go-layouts/pkg/view"
)

// Renderer converts a rendered layout into bytes.
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, layout view.Layout) ([]byte, error)
}

// Default returns a registry holding the JSON, YAML and tree renderers.
func Default() *Registry {
	reg := NewRegistry()
	reg.MustRegister(JSON{Indent: "  "})
	reg.MustRegister(YAML{})
	reg.MustRegister(Tree{})
	return reg
}
