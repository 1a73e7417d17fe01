package definition

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-layouts/pkg/authz"
	"github.com/goliatone/go-layouts/pkg/builder"
	"github.com/goliatone/go-layouts/pkg/component"
	"github.com/goliatone/go-layouts/pkg/registry"
)

const usersYAML = `
layouts:
  users.edit:
    components:
      - name: account
        order: 1
        children:
          - name: email
            attributes:
              label: Email
              required: true
          - name: salary
            permissions: [hr.read]
      - name: admin
        type: section
        roles: [admin]
        children:
          - name: audit
            type: subsection
            children:
              - name: log
                type: table
                dataSource: https://example.test/audit
`

const ordersJSON = `{
  "layouts": {
    "orders.list": {
      "components": [
        {"name": "filters", "container": true, "type": "toolbar"},
        {"name": "grid", "type": "table", "attributes": {"icon": "<svg><script>alert(1)</script><path d=\"M0 0\"/></svg>"}}
      ]
    }
  }
}`

func TestLoadFS_ParsesYAMLAndJSON(t *testing.T) {
	t.Parallel()

	store, err := LoadFS(fstest.MapFS{
		"users.yaml":         {Data: []byte(usersYAML)},
		"nested/orders.json": {Data: []byte(ordersJSON)},
		"README.md":          {Data: []byte("ignored")},
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]string{"orders.list", "users.edit"}, store.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}

	def, ok := store.Get("users.edit")
	if !ok {
		t.Fatal("users.edit missing")
	}
	if def.Module != "users" || def.Context != "edit" || def.Source != "users.yaml" {
		t.Fatalf("unexpected definition header: %+v", def)
	}

	orders, _ := store.Get("orders.list")
	icon, _ := orders.Components[1].Attributes[IconAttribute].(string)
	if strings.Contains(icon, "script") || !strings.Contains(icon, "<path") {
		t.Fatalf("icon not sanitised: %q", icon)
	}
}

func TestDefinitionCallback_ReplaysTree(t *testing.T) {
	t.Parallel()

	store, err := LoadFS(fstest.MapFS{"users.yaml": {Data: []byte(usersYAML)}})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	reg := registry.New()
	if err := store.RegisterAll(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	cb, ok := reg.Lookup("users", "edit")
	if !ok {
		t.Fatal("callback not registered")
	}

	l, err := builder.Run("users", "edit", cb)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	resolver := authz.NewGrantResolver().Grant("admin", "*")
	view := l.ResolveAuthorization(context.Background(), resolver, &authz.User{ID: "u1", Roles: []string{"admin"}}).ToView()

	if got := len(view.Components); got != 2 {
		t.Fatalf("expected 2 roots, got %d", got)
	}
	if view.Components[0].Name != "account" {
		t.Fatalf("ordered root should come first, got %q", view.Components[0].Name)
	}
	if diff := cmp.Diff([]string{"email", "salary"}, view.Components[0].Names()); diff != "" {
		t.Fatalf("account children mismatch (-want +got):\n%s", diff)
	}
	email, _ := view.Find("email")
	if email.Attributes.String("label") != "Email" {
		t.Fatalf("label not applied: %+v", email.Attributes)
	}
	logView, ok := view.Find("log")
	if !ok || logView.Type != "table" || logView.DataURL != "https://example.test/audit" {
		t.Fatalf("nested leaf mismatch: %+v", logView)
	}
	audit, _ := view.Find("audit")
	if audit.Type != component.TypeSubsection {
		t.Fatalf("audit type = %q", audit.Type)
	}
}

func TestLoadFS_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		files fstest.MapFS
		want  string
	}{
		{
			name: "duplicate key across files",
			files: fstest.MapFS{
				"a.yaml": {Data: []byte("layouts:\n  users.edit:\n    components: []\n")},
				"b.yaml": {Data: []byte("layouts:\n  users.edit:\n    components: []\n")},
			},
			want: "duplicate layout",
		},
		{
			name:  "key without context",
			files: fstest.MapFS{"a.yaml": {Data: []byte("layouts:\n  users:\n    components: []\n")}},
			want:  "invalid key",
		},
		{
			name:  "empty file",
			files: fstest.MapFS{"a.json": {Data: []byte("  ")}},
			want:  "is empty",
		},
		{
			name:  "malformed json",
			files: fstest.MapFS{"a.json": {Data: []byte("{")}},
			want:  "parse a.json",
		},
		{
			name: "duplicate sibling",
			files: fstest.MapFS{"a.yaml": {Data: []byte(`
layouts:
  users.edit:
    components:
      - name: email
      - name: email
`)}},
			want: "duplicate component",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadFS(tc.files)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadFS_DuplicateSiblingIsComponentError(t *testing.T) {
	t.Parallel()

	_, err := LoadFS(fstest.MapFS{"a.yaml": {Data: []byte("layouts:\n  m.c:\n    components:\n      - name: x\n      - name: x\n")}})
	if !errors.Is(err, component.ErrDuplicateComponent) {
		t.Fatalf("expected ErrDuplicateComponent, got %v", err)
	}
}

func TestLoadDir_Empty(t *testing.T) {
	t.Parallel()

	store, err := LoadDir("")
	if err != nil || store.Len() != 0 {
		t.Fatalf("expected empty store, got %d %v", store.Len(), err)
	}
}

func TestSanitizeIcon(t *testing.T) {
	t.Parallel()

	if got := SanitizeIcon("  fa-home "); got != "fa-home" {
		t.Fatalf("plain icon names should pass through, got %q", got)
	}
	got := SanitizeIcon(`<svg onload="x()"><path d="M1"/></svg>`)
	if strings.Contains(got, "onload") || !strings.Contains(got, "<path") {
		t.Fatalf("unexpected sanitised markup %q", got)
	}
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "users.yaml")
	if err := os.WriteFile(path, []byte("layouts:\n  users.edit:\n    components: []\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan *Store, 4)
	w, err := NewWatcher(dir, func(store *Store) error {
		reloaded <- store
		return nil
	}, WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatalf("watcher: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	// Give the watcher loop a moment to start.
	time.Sleep(50 * time.Millisecond)
	next := "layouts:\n  users.edit:\n    components: []\n  users.view:\n    components: []\n"
	if err := os.WriteFile(path, []byte(next), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case store := <-reloaded:
		if store.Len() != 2 {
			t.Fatalf("expected 2 layouts after reload, got %v", store.Keys())
		}
	case <-time.After(3 * time.Second):
		t.Fatal("reload not observed")
	}
}

func TestWatcher_RequiresCallback(t *testing.T) {
	t.Parallel()

	if _, err := NewWatcher(t.TempDir(), nil); err == nil {
		t.Fatal("expected error for nil callback")
	}
}
