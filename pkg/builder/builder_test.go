package builder

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-layouts/pkg/component"
)

func TestRun_BuildsNestedTree(t *testing.T) {
	t.Parallel()

	l, err := Run("users", "edit", func(b *Builder) error {
		b.Section("account").Order(2).
			Field("email").Label("Email").Type("email").Required().
			Subsection("security").
			Field("password").Type("password").Placeholder("********").
			EndSubsection().
			EndSection().
			Section("profile").Order(1).
			Field("bio").HelpText("Tell us about yourself").Attr("rows", 4).
			End()
		return nil
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	got := l.ToView()
	names := []string{}
	for _, c := range got.Components {
		names = append(names, c.Name)
	}
	if diff := cmp.Diff([]string{"profile", "account"}, names); diff != "" {
		t.Fatalf("root order mismatch (-want +got):\n%s", diff)
	}

	account, _ := got.Find("account")
	if diff := cmp.Diff([]string{"email", "security"}, account.Names()); diff != "" {
		t.Fatalf("account children mismatch (-want +got):\n%s", diff)
	}
	email, _ := got.Find("email")
	want := map[string]any{"label": "Email", "type": "email", "required": true}
	if diff := cmp.Diff(want, email.Attributes.Map()); diff != "" {
		t.Fatalf("email attributes mismatch (-want +got):\n%s", diff)
	}
	password, ok := got.Find("password")
	if !ok || password.Attributes.String("placeholder") != "********" {
		t.Fatalf("password missing from subsection: %+v", password)
	}
}

func TestBuilder_DuplicateFieldFailsWithoutLayout(t *testing.T) {
	t.Parallel()

	l, err := Run("users", "edit", func(b *Builder) error {
		b.Section("account").Field("email").Field("email")
		return nil
	})
	if l != nil {
		t.Fatalf("no partial layout expected")
	}
	if !errors.Is(err, component.ErrDuplicateComponent) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestBuilder_DuplicateRootReportsEmptyParent(t *testing.T) {
	t.Parallel()

	_, err := Run("users", "edit", func(b *Builder) error {
		b.Field("email").Field("email")
		return nil
	})
	var dup *component.DuplicateComponentError
	if !errors.As(err, &dup) || dup.Parent != "" {
		t.Fatalf("expected root duplicate error, got %v", err)
	}
}

func TestBuilder_SectionReopens(t *testing.T) {
	t.Parallel()

	l, err := Run("users", "edit", func(b *Builder) error {
		b.Section("account").Field("email").EndSection()
		b.Section("account").Field("phone").EndSection()
		return nil
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	account, _ := l.Find("account")
	if diff := cmp.Diff([]string{"email", "phone"}, account.Names()); diff != "" {
		t.Fatalf("reopened section mismatch (-want +got):\n%s", diff)
	}
}

func TestBuilder_StateErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		cb   Callback
	}{
		{"end without scope", func(b *Builder) error { b.End(); return nil }},
		{"endSection without section", func(b *Builder) error { b.Field("x").EndSection(); return nil }},
		{"endSubsection inside section", func(b *Builder) error { b.Section("s").EndSubsection(); return nil }},
		{"subsection at root", func(b *Builder) error { b.Subsection("s"); return nil }},
		{"setter without component", func(b *Builder) error { b.Label("orphan"); return nil }},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			l, err := Run("m", "c", tc.cb)
			if l != nil {
				t.Fatalf("no layout expected")
			}
			if !errors.Is(err, ErrBuilderState) {
				t.Fatalf("expected ErrBuilderState, got %v", err)
			}
			var stateErr *StateError
			if !errors.As(err, &stateErr) || stateErr.Op == "" {
				t.Fatalf("expected *StateError, got %T", err)
			}
		})
	}
}

func TestBuilder_ErrorsAreSticky(t *testing.T) {
	t.Parallel()

	b := New("m", "c")
	b.End().Section("later").Field("x")
	if !errors.Is(b.Err(), ErrBuilderState) {
		t.Fatalf("first error must stick, got %v", b.Err())
	}
	if _, err := b.Build(); !errors.Is(err, ErrBuilderState) {
		t.Fatalf("build should return the sticky error, got %v", err)
	}
}

func TestBuilder_SettersApplyToClosedContainer(t *testing.T) {
	t.Parallel()

	l, err := Run("m", "c", func(b *Builder) error {
		b.Section("admin").Field("audit").EndSection().Roles("admin")
		return nil
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, ok := l.Find("admin"); ok {
		t.Fatalf("unresolved restricted section must be hidden")
	}
}

func TestBuilder_CallbackErrorAborts(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	_, err := Run("m", "c", func(b *Builder) error {
		b.Field("x")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("callback error should propagate, got %v", err)
	}
}

func TestBuilder_RejectsUseAfterBuild(t *testing.T) {
	t.Parallel()

	b := New("m", "c")
	b.Field("x")
	if _, err := b.Build(); err != nil {
		t.Fatalf("build: %v", err)
	}
	b.Field("y")
	if !errors.Is(b.Err(), ErrBuilderState) {
		t.Fatalf("mutating after build should fail, got %v", b.Err())
	}
}

func TestRun_RejectsAmbiguousModuleAndContext(t *testing.T) {
	t.Parallel()

	cb := func(b *Builder) error {
		b.Field("email")
		return nil
	}
	for _, key := range [][2]string{{"a.b", "c"}, {"users", "edit:v2"}, {"users:x", "edit"}} {
		if _, err := Run(key[0], key[1], cb); err == nil {
			t.Fatalf("Run(%q, %q) should fail", key[0], key[1])
		}
	}
	if _, err := Run("users", "edit.v2", cb); err != nil {
		t.Fatalf("dotted context should build: %v", err)
	}
}
