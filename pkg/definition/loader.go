package definition

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-layouts/pkg/builder"
	"github.com/goliatone/go-layouts/pkg/registry"
)

// LoadDir loads every definition file under dir.
func LoadDir(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return &Store{definitions: make(map[string]Definition)}, nil
	}
	return LoadFS(os.DirFS(dir))
}

// LoadFS walks the provided filesystem and parses JSON/YAML definition
// files. Every definition is test-built so structural mistakes surface at
// load time. When fsys is nil or holds no files, the store is empty.
func LoadFS(fsys fs.FS) (*Store, error) {
	store := &Store{definitions: make(map[string]Definition)}
	if fsys == nil {
		return store, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDefinitionFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("definition: read %s: %w", path, err)
		}

		doc, err := parseDocument(data, path)
		if err != nil {
			return err
		}

		for rawKey, raw := range doc.Layouts {
			module, context, err := registry.SplitKey(rawKey)
			if err != nil {
				return fmt.Errorf("definition: file %s: %w", path, err)
			}
			key := registry.Key(module, context)
			if existing, exists := store.definitions[key]; exists {
				return fmt.Errorf("definition: duplicate layout %q (files %s and %s)", key, existing.Source, path)
			}

			def := Definition{
				Key:        key,
				Module:     module,
				Context:    context,
				Source:     path,
				Components: normaliseComponents(raw.Components),
			}
			if _, err := builder.Run(module, context, def.Callback()); err != nil {
				return fmt.Errorf("definition: layout %q (file %s): %w", key, path, err)
			}
			store.definitions[key] = def
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

type documentFile struct {
	Layouts map[string]layoutFile `json:"layouts" yaml:"layouts"`
}

type layoutFile struct {
	Components []ComponentSpec `json:"components" yaml:"components"`
}

func parseDocument(data []byte, source string) (documentFile, error) {
	var doc documentFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return documentFile{}, fmt.Errorf("definition: file %s is empty", source)
	}

	if strings.EqualFold(filepath.Ext(source), ".json") {
		if err := json.Unmarshal(data, &doc); err != nil {
			return documentFile{}, fmt.Errorf("definition: parse %s: %w", source, err)
		}
		return doc, nil
	}

	if err := yaml.Unmarshal(data, &doc); err != nil {
		return documentFile{}, fmt.Errorf("definition: parse %s: %w", source, err)
	}
	return doc, nil
}

func normaliseComponents(specs []ComponentSpec) []ComponentSpec {
	if len(specs) == 0 {
		return nil
	}
	out := make([]ComponentSpec, len(specs))
	for i, spec := range specs {
		spec.Type = strings.TrimSpace(spec.Type)
		spec.Name = strings.TrimSpace(spec.Name)
		spec.Attributes = normaliseAttributes(spec.Attributes)
		spec.Children = normaliseComponents(spec.Children)
		out[i] = spec
	}
	return out
}

func normaliseAttributes(raw map[string]any) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]any, len(raw))
	for key, value := range raw {
		if key == IconAttribute {
			if markup, ok := value.(string); ok {
				value = SanitizeIcon(markup)
			}
		}
		out[key] = value
	}
	return out
}

func isDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
