package registry

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-layouts/pkg/builder"
)

func TestRegister_LastWriterWins(t *testing.T) {
	t.Parallel()

	reg := New()
	first := func(b *builder.Builder) error { b.Field("first"); return nil }
	second := func(b *builder.Builder) error { b.Field("second"); return nil }

	reg.MustRegister("users", "edit", first)
	reg.MustRegister("users", "edit", second)

	cb, ok := reg.Lookup("users", "edit")
	if !ok {
		t.Fatalf("expected registration")
	}
	l, err := builder.Run("users", "edit", cb)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, ok := l.Find("second"); !ok {
		t.Fatalf("latest callback should win")
	}
	if diff := cmp.Diff(map[string]bool{"users.edit": true}, reg.Registered()); diff != "" {
		t.Fatalf("registered mismatch (-want +got):\n%s", diff)
	}
}

func TestRegisterAll(t *testing.T) {
	t.Parallel()

	cb := func(b *builder.Builder) error { return nil }
	reg := New()
	err := reg.RegisterAll(map[string]builder.Callback{
		"users.edit":       cb,
		"users.list":       cb,
		"billing.invoices": cb,
	})
	if err != nil {
		t.Fatalf("register all: %v", err)
	}
	want := []string{"billing.invoices", "users.edit", "users.list"}
	if diff := cmp.Diff(want, reg.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if !reg.Has("billing", "invoices") || reg.Has("billing", "edit") {
		t.Fatalf("has mismatch")
	}

	reg.Reset()
	if len(reg.Keys()) != 0 {
		t.Fatalf("reset should drop registrations")
	}
}

func TestRegisterAll_InvalidKey(t *testing.T) {
	t.Parallel()

	err := New().RegisterAll(map[string]builder.Callback{"nodot": func(*builder.Builder) error { return nil }})
	if err == nil {
		t.Fatalf("expected invalid key error")
	}
}

func TestSplitKey(t *testing.T) {
	t.Parallel()

	module, context, err := SplitKey("admin.users.detail")
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if module != "admin" || context != "users.detail" {
		t.Fatalf("unexpected split %q %q", module, context)
	}
	if _, _, err := SplitKey(".edit"); err == nil {
		t.Fatalf("empty module should fail")
	}
}

func TestRegister_RejectsNilCallback(t *testing.T) {
	t.Parallel()

	if err := New().Register("users", "edit", nil); err == nil {
		t.Fatalf("nil callback should fail")
	}
}

func TestUnregister(t *testing.T) {
	t.Parallel()

	reg := New()
	reg.MustRegister("users", "edit", func(*builder.Builder) error { return nil })
	if !reg.Unregister("users", "edit") {
		t.Fatalf("expected registered callback to be removed")
	}
	if reg.Has("users", "edit") || reg.Unregister("users", "edit") {
		t.Fatalf("callback should be gone")
	}
}

func TestRegister_RejectsAmbiguousKeys(t *testing.T) {
	t.Parallel()

	reg := New()
	cb := func(b *builder.Builder) error { b.Field("x"); return nil }

	cases := []struct{ module, context string }{
		{"a.b", "c"},
		{"a:b", "c"},
		{"a", "b:c"},
		{"", "c"},
		{"a", " "},
	}
	for _, tc := range cases {
		if err := reg.Register(tc.module, tc.context, cb); err == nil {
			t.Fatalf("Register(%q, %q) should fail", tc.module, tc.context)
		}
	}

	if err := reg.Register("a", "b.c", cb); err != nil {
		t.Fatalf("dots in the context are allowed: %v", err)
	}
	if diff := cmp.Diff([]string{"a.b.c"}, reg.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if reg.Has("a.b", "c") {
		t.Fatal("a.b/c must not resolve to the a/b.c callback")
	}
}
