package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-layouts/pkg/view"
)

const testDefinitions = `
layouts:
  users.edit:
    components:
      - name: account
        children:
          - name: email
            attributes:
              label: Email
          - name: salary
            permissions: [hr.read]
`

const testConfig = `
cache:
  driver: memory
  prefix: test
definitions:
  dir: defs
authz:
  engine: grants
  grants:
    hr: [hr.*]
logging:
  level: error
`

func writeWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "defs"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "defs", "users.yaml"), []byte(testDefinitions), 0o644); err != nil {
		t.Fatalf("write definitions: %v", err)
	}
	path := filepath.Join(dir, "layouts.yaml")
	if err := os.WriteFile(path, []byte(testConfig), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRenderFiltersByUser(t *testing.T) {
	t.Parallel()
	cfg := writeWorkspace(t)

	cases := []struct {
		name   string
		args   []string
		salary bool
	}{
		{name: "anonymous", args: nil, salary: false},
		{name: "hr", args: []string{"--user", "u1", "--roles", "hr"}, salary: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			args := append([]string{"--config", cfg, "render", "users.edit", "--format", "json"}, tc.args...)
			out, err := run(t, args...)
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			var got view.Layout
			if err := json.Unmarshal([]byte(out), &got); err != nil {
				t.Fatalf("decode output: %v\n%s", err, out)
			}
			if _, ok := got.Find("email"); !ok {
				t.Fatalf("email missing from %s", out)
			}
			if _, ok := got.Find("salary"); ok != tc.salary {
				t.Fatalf("salary visible = %v, want %v", ok, tc.salary)
			}
		})
	}
}

func TestRenderUnknownLayout(t *testing.T) {
	t.Parallel()
	cfg := writeWorkspace(t)

	if _, err := run(t, "--config", cfg, "render", "orders.list"); err == nil {
		t.Fatal("expected error for unregistered layout")
	}
	if _, err := run(t, "--config", cfg, "render", "nodot"); err == nil {
		t.Fatal("expected error for malformed key")
	}
}

func TestListAndValidate(t *testing.T) {
	t.Parallel()
	cfg := writeWorkspace(t)

	out, err := run(t, "--config", cfg, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "users.edit") || !strings.Contains(out, "file") {
		t.Fatalf("unexpected list output:\n%s", out)
	}

	out, err = run(t, "--config", cfg, "validate")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "1 layout definitions are valid") {
		t.Fatalf("unexpected validate output:\n%s", out)
	}
}

func TestValidateRejectsBrokenDefinitions(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := run(t, "validate", dir); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestDevice(t *testing.T) {
	t.Parallel()

	out, err := run(t, "device", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Mobile/15E148")
	if err != nil {
		t.Fatalf("device: %v", err)
	}
	if !strings.Contains(out, "mobile") {
		t.Fatalf("expected mobile classification:\n%s", out)
	}

	out, err = run(t, "device", "--width", "1300")
	if err != nil {
		t.Fatalf("device width: %v", err)
	}
	if !strings.Contains(out, "1300") {
		t.Fatalf("unexpected width output:\n%s", out)
	}
}

const petstore = `
openapi: 3.0.3
info:
  title: Pets
  version: "1"
paths:
  /pets:
    post:
      operationId: createPet
      requestBody:
        content:
          application/json:
            schema:
              type: object
              required: [name]
              properties:
                name:
                  type: string
                tag:
                  type: string
      responses:
        "201":
          description: created
`

func TestOpenAPI(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "pets.yaml")
	if err := os.WriteFile(path, []byte(petstore), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	out, err := run(t, "openapi", path)
	if err != nil {
		t.Fatalf("list operations: %v", err)
	}
	if !strings.Contains(out, "createPet") {
		t.Fatalf("operation missing:\n%s", out)
	}

	out, err = run(t, "openapi", path, "--operation", "createPet", "--format", "json")
	if err != nil {
		t.Fatalf("layout operation: %v", err)
	}
	var got view.Layout
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if got.Module != "api" || got.Context != "createPet" {
		t.Fatalf("unexpected header %s.%s", got.Module, got.Context)
	}
	if _, ok := got.Find("name"); !ok {
		t.Fatalf("name field missing:\n%s", out)
	}
}
