package openapi

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-layouts/pkg/authz"
	"github.com/goliatone/go-layouts/pkg/builder"
)

const petstore = `
openapi: 3.0.3
info:
  title: Pets
  version: "1.0"
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
                id:
                  type: string
                  readOnly: true
                tag:
                  type: string
                  enum: [dog, cat]
                name:
                  type: string
                  title: Pet name
                  description: Shown on the tag
                owner:
                  type: object
                  x-layout:
                    order: 1
                    permissions: [owners.read]
                  properties:
                    email_address:
                      type: string
                      format: email
                vaccinated:
                  type: boolean
      responses:
        "201":
          description: created
    get:
      operationId: listPets
      responses:
        "200":
          description: ok
`

func TestParse_CollectsOperations(t *testing.T) {
	t.Parallel()

	doc, err := Parse(context.Background(), []byte(petstore))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Title() != "Pets" {
		t.Fatalf("title = %q", doc.Title())
	}
	if diff := cmp.Diff([]string{"createPet", "listPets"}, doc.OperationIDs()); diff != "" {
		t.Fatalf("operation ids mismatch (-want +got):\n%s", diff)
	}
	op, _ := doc.Operation("createPet")
	if op.Method != "POST" || op.Path != "/pets" || op.Request == nil {
		t.Fatalf("unexpected operation %+v", op)
	}
}

func TestCallback_BuildsLayoutFromRequestBody(t *testing.T) {
	t.Parallel()

	doc, err := Parse(context.Background(), []byte(petstore))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	cb, err := doc.Callback("createPet")
	if err != nil {
		t.Fatalf("callback: %v", err)
	}
	l, err := builder.Run("pets", "create", cb)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	owner := &authz.User{ID: "u1", Permissions: []string{"owners.read"}}
	view := l.ResolveAuthorization(context.Background(), authz.NewGrantResolver(), owner).ToView()

	var names []string
	for _, c := range view.Components {
		names = append(names, c.Name)
	}
	if diff := cmp.Diff([]string{"owner", "name", "tag", "vaccinated"}, names); diff != "" {
		t.Fatalf("root order mismatch (-want +got):\n%s", diff)
	}

	name, _ := view.Find("name")
	if name.Attributes.String("label") != "Pet name" || name.Attributes.String("help") != "Shown on the tag" {
		t.Fatalf("name attributes: %+v", name.Attributes)
	}
	if required, _ := name.Attributes.Get("required"); !required.Bool() {
		t.Fatal("name should be required")
	}
	tag, _ := view.Find("tag")
	if tag.Attributes.String("type") != "select" {
		t.Fatalf("tag type = %q", tag.Attributes.String("type"))
	}
	email, ok := view.Find("email_address")
	if !ok || email.Attributes.String("label") != "Email Address" || email.Attributes.String("type") != "email" {
		t.Fatalf("nested email mismatch: %+v", email)
	}
	if _, ok := view.Find("id"); ok {
		t.Fatal("read-only properties should be skipped")
	}
}

func TestCallback_HonoursPermissionHints(t *testing.T) {
	t.Parallel()

	doc, err := Parse(context.Background(), []byte(petstore))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	cb, _ := doc.Callback("createPet")
	l, err := builder.Run("pets", "create", cb)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	view := l.ResolveAuthorization(context.Background(), authz.NewGrantResolver(), &authz.User{ID: "u2"}).ToView()
	if _, ok := view.Find("owner"); ok {
		t.Fatal("owner section requires owners.read")
	}
}

func TestCallback_Errors(t *testing.T) {
	t.Parallel()

	doc, err := Parse(context.Background(), []byte(petstore))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := doc.Callback("missing"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := doc.Callback("listPets"); err == nil || !strings.Contains(err.Error(), "no request body") {
		t.Fatalf("expected missing body error, got %v", err)
	}
	if got := doc.Callbacks("pets"); len(got) != 1 || got["pets.createPet"] == nil {
		t.Fatalf("expected only createPet callback, got %v", got)
	}
}

func TestParse_RejectsEmptyAndInvalid(t *testing.T) {
	t.Parallel()

	if _, err := Parse(context.Background(), []byte("  ")); err == nil {
		t.Fatal("expected error for empty payload")
	}
	if _, err := Parse(context.Background(), []byte("openapi: [")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
