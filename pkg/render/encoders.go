package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-layouts/pkg/view"
)

// JSON encodes layouts as JSON.
type JSON struct {
	Indent string
}

func (JSON) Name() string        { return "json" }
func (JSON) ContentType() string { return "application/json; charset=utf-8" }

// Render implements Renderer.
func (j JSON) Render(ctx context.Context, layout view.Layout) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if j.Indent != "" {
		enc.SetIndent("", j.Indent)
	}
	if err := enc.Encode(layout); err != nil {
		return nil, fmt.Errorf("render: json: %w", err)
	}
	return buf.Bytes(), nil
}

// YAML encodes layouts as YAML with attributes flattened to plain values.
type YAML struct{}

func (YAML) Name() string        { return "yaml" }
func (YAML) ContentType() string { return "application/yaml; charset=utf-8" }

// Render implements Renderer.
func (YAML) Render(ctx context.Context, layout view.Layout) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(layout); err != nil {
		return nil, fmt.Errorf("render: yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("render: yaml: %w", err)
	}
	return buf.Bytes(), nil
}
