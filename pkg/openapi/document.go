package openapi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Document is a parsed and validated OpenAPI document.
type Document struct {
	location   string
	spec       *openapi3.T
	operations map[string]Operation
}

// Operation is one path operation with its request body schema.
type Operation struct {
	ID      string
	Method  string
	Path    string
	Summary string
	Request *openapi3.Schema
}

// Parse loads raw JSON or YAML.
func Parse(ctx context.Context, raw []byte) (*Document, error) {
	return parse(ctx, "inline", raw)
}

// LoadFile reads and parses the document at path.
func LoadFile(ctx context.Context, path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("openapi: read %s: %w", path, err)
	}
	return parse(ctx, path, raw)
}

// LoadURL fetches and parses a remote document.
func LoadURL(ctx context.Context, raw string) (*Document, error) {
	location, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi: parse url %q: %w", raw, err)
	}
	loader := &openapi3.Loader{Context: ctx, IsExternalRefsAllowed: true}
	spec, err := loader.LoadFromURI(location)
	if err != nil {
		return nil, fmt.Errorf("openapi: load %s: %w", raw, err)
	}
	return newDocument(ctx, raw, spec)
}

func parse(ctx context.Context, location string, raw []byte) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}
	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi: load %s: %w", location, err)
	}
	return newDocument(ctx, location, spec)
}

func newDocument(ctx context.Context, location string, spec *openapi3.T) (*Document, error) {
	if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("openapi: validate %s: %w", location, err)
	}
	doc := &Document{
		location:   location,
		spec:       spec,
		operations: make(map[string]Operation),
	}
	if spec.Paths == nil {
		return doc, nil
	}
	for path, item := range spec.Paths.Map() {
		if item == nil {
			continue
		}
		for method, operation := range item.Operations() {
			doc.collect(method, path, operation)
		}
	}
	return doc, nil
}

func (d *Document) collect(method, path string, operation *openapi3.Operation) {
	if operation == nil {
		return
	}
	id := operation.OperationID
	if id == "" {
		id = strings.ToLower(method) + path
	}
	d.operations[id] = Operation{
		ID:      id,
		Method:  strings.ToUpper(method),
		Path:    path,
		Summary: operation.Summary,
		Request: requestSchema(operation.RequestBody),
	}
}

// Location returns the file, URL or "inline" the document came from.
func (d *Document) Location() string { return d.location }

// Title returns info.title.
func (d *Document) Title() string {
	if d.spec.Info == nil {
		return ""
	}
	return d.spec.Info.Title
}

// Operation returns the operation with id.
func (d *Document) Operation(id string) (Operation, bool) {
	op, ok := d.operations[id]
	return op, ok
}

// OperationIDs returns every operation id sorted.
func (d *Document) OperationIDs() []string {
	ids := make([]string, 0, len(d.operations))
	for id := range d.operations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func requestSchema(body *openapi3.RequestBodyRef) *openapi3.Schema {
	if body == nil || body.Value == nil {
		return nil
	}
	content := body.Value.Content
	for _, mediaType := range []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"} {
		if mt, ok := content[mediaType]; ok && mt != nil && mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	for _, mediaType := range sortedKeys(content) {
		if mt := content[mediaType]; mt != nil && mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
