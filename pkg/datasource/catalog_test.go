package datasource

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-layouts/pkg/attr"
)

func catalogOptions(t *testing.T, data attr.Attributes) []string {
	t.Helper()
	value, ok := data.Get("options")
	if !ok {
		t.Fatal("options attribute missing")
	}
	out := []string{}
	for _, item := range value.Items() {
		out = append(out, item.Str())
	}
	return out
}

func TestCatalog_Search(t *testing.T) {
	t.Parallel()

	catalog := NewCatalog(
		WithList("Countries", "Germany", "Algeria", "Nigeria", "Niger", "germany", " ", "Germany"),
		WithLimits(2, 3),
	)

	cases := []struct {
		name string
		url  string
		want []string
	}{
		{name: "prefix first", url: "catalog:countries?q=ger&limit=3", want: []string{"Germany", "germany", "Algeria"}},
		{name: "default limit", url: "catalog:countries?q=ger", want: []string{"Germany", "germany"}},
		{name: "max limit", url: "catalog:countries?q=i&limit=10", want: []string{"Algeria", "Niger", "Nigeria"}},
		{name: "empty query returns top", url: "catalog:countries", want: []string{"Algeria", "Germany"}},
		{name: "zero matches", url: "catalog:countries?q=zz", want: []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			data, err := catalog.Fetch(context.Background(), tc.url)
			if err != nil {
				t.Fatalf("fetch: %v", err)
			}
			if diff := cmp.Diff(tc.want, catalogOptions(t, data)); diff != "" {
				t.Fatalf("options mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCatalog_Errors(t *testing.T) {
	t.Parallel()

	catalog := NewCatalog(WithList("roles", "admin"))
	for _, raw := range []string{"catalog:missing", "catalog:roles?limit=x", "https://example.test/roles"} {
		if _, err := catalog.Fetch(context.Background(), raw); !errors.Is(err, ErrDataSource) {
			t.Fatalf("%s: expected data source error, got %v", raw, err)
		}
	}
}

func TestCatalog_EmptySearchNone(t *testing.T) {
	t.Parallel()

	catalog := NewCatalog(WithList("roles", "admin", "hr"), WithEmptySearch(EmptySearchNone))
	data, err := catalog.Fetch(context.Background(), "catalog:roles")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got := catalogOptions(t, data); len(got) != 0 {
		t.Fatalf("expected no options, got %v", got)
	}
}

func TestMux_RoutesByScheme(t *testing.T) {
	t.Parallel()

	catalog := NewCatalog(WithList("roles", "admin"))
	mux := NewMux(Static{"https://example.test/a": attr.Attributes{"label": attr.String("A")}}).
		Handle(CatalogScheme, catalog)

	data, err := mux.Fetch(context.Background(), "catalog:roles")
	if err != nil {
		t.Fatalf("catalog route: %v", err)
	}
	if diff := cmp.Diff([]string{"admin"}, catalogOptions(t, data)); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}

	data, err = mux.Fetch(context.Background(), "https://example.test/a")
	if err != nil {
		t.Fatalf("fallback: %v", err)
	}
	if data.String("label") != "A" {
		t.Fatalf("unexpected fallback payload %v", data.Map())
	}

	if _, err := NewMux(nil).Fetch(context.Background(), "https://x.test"); !errors.Is(err, ErrDataSource) {
		t.Fatalf("expected error without fallback, got %v", err)
	}
}
