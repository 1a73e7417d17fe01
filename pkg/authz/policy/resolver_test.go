package policy

import (
	"context"
	"testing"

	"github.com/goliatone/go-layouts/pkg/authz"
)

func TestResolver_MatchesGrantSemantics(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	grants := map[string][]string{
		"admin":  {"*"},
		"editor": {"posts.*", "*.read"},
	}

	resolver, err := New(ctx, WithGrants(grants))
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}

	reference := authz.NewGrantResolver()
	for role, permissions := range grants {
		reference.Grant(role, permissions...)
	}

	editor := &authz.User{ID: "e1", Roles: []string{"editor"}}
	admin := &authz.User{ID: "a1", Roles: []string{"Admin"}}

	cases := []struct {
		name        string
		user        *authz.User
		permissions []string
		roles       []string
	}{
		{name: "resource wildcard", user: editor, permissions: []string{"posts.publish"}},
		{name: "action wildcard", user: editor, permissions: []string{"users.read"}},
		{name: "denied", user: editor, permissions: []string{"users.delete"}},
		{name: "admin", user: admin, permissions: []string{"billing.refund"}},
		{name: "role required", user: editor, roles: []string{"admin"}},
		{name: "role matched", user: admin, roles: []string{"admin"}},
		{name: "anonymous", user: nil, permissions: []string{"posts.read"}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			want, err := reference.CanAccess(ctx, tc.user, tc.permissions, tc.roles)
			if err != nil {
				t.Fatalf("reference: %v", err)
			}
			got, err := resolver.CanAccess(ctx, tc.user, tc.permissions, tc.roles)
			if err != nil {
				t.Fatalf("rego: %v", err)
			}
			if got != want {
				t.Fatalf("rego=%v grant=%v", got, want)
			}
		})
	}
}

func TestResolver_CustomModule(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	module := `package custom

import rego.v1

default allow := false

allow if input.user.attributes.tier == "gold"
`
	resolver, err := New(ctx, WithModule("custom.rego", module), WithQuery("data.custom.allow"))
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}

	gold := &authz.User{ID: "g", Attributes: map[string]any{"tier": "gold"}}
	ok, err := resolver.CanAccess(ctx, gold, []string{"reports.view"}, nil)
	if err != nil || !ok {
		t.Fatalf("gold user should be allowed, got %v (%v)", ok, err)
	}

	silver := &authz.User{ID: "s", Attributes: map[string]any{"tier": "silver"}}
	ok, err = resolver.CanAccess(ctx, silver, []string{"reports.view"}, nil)
	if err != nil || ok {
		t.Fatalf("silver user should be denied, got %v (%v)", ok, err)
	}
}

func TestNew_InvalidModule(t *testing.T) {
	t.Parallel()

	if _, err := New(context.Background(), WithModule("bad.rego", "package")); err == nil {
		t.Fatalf("expected compile error")
	}
}
