package widgets

import (
	"context"
	"testing"

	"github.com/goliatone/go-layouts/pkg/attr"
	"github.com/goliatone/go-layouts/pkg/component"
	"github.com/goliatone/go-layouts/pkg/view"
)

func field(attrs attr.Attributes) view.Component {
	return view.Component{Type: component.TypeField, Name: "f", Visible: true, Authorized: true, Attributes: attrs}
}

func TestResolve_ExplicitWidgetWins(t *testing.T) {
	reg := NewRegistry()
	f := field(attr.Attributes{
		"type":   attr.String("boolean"),
		"widget": attr.String("custom-toggle"),
	})

	if got, ok := reg.Resolve(f); !ok || got != "custom-toggle" {
		t.Fatalf("expected explicit widget to win, got %q (ok=%v)", got, ok)
	}
}

func TestResolve_Builtins(t *testing.T) {
	reg := NewRegistry()

	cases := []struct {
		name   string
		field  view.Component
		expect string
	}{
		{
			name:   "boolean toggle",
			field:  field(attr.Attributes{"type": attr.String("checkbox")}),
			expect: WidgetToggle,
		},
		{
			name: "multiple options chips",
			field: field(attr.Attributes{
				"options":  attr.Strings("a", "b"),
				"multiple": attr.Bool(true),
			}),
			expect: WidgetChips,
		},
		{
			name:   "select options",
			field:  field(attr.Attributes{"options": attr.Strings("a")}),
			expect: WidgetSelect,
		},
		{
			name: "lookup with data source",
			field: func() view.Component {
				f := field(attr.Attributes{"type": attr.String("lookup")})
				f.DataURL = "https://api.example.com/users"
				return f
			}(),
			expect: WidgetRemote,
		},
		{
			name:   "code editor json format",
			field:  field(attr.Attributes{"format": attr.String("json")}),
			expect: WidgetCodeEditor,
		},
		{
			name:   "textarea rows",
			field:  field(attr.Attributes{"rows": attr.Int(4)}),
			expect: WidgetTextarea,
		},
		{
			name:   "plain input fallback",
			field:  field(attr.Attributes{"label": attr.String("Name")}),
			expect: WidgetInput,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := reg.Resolve(tc.field)
			if !ok {
				t.Fatalf("expected resolution for %s", tc.name)
			}
			if got != tc.expect {
				t.Fatalf("resolve %s: want %q, got %q", tc.name, tc.expect, got)
			}
		})
	}
}

func TestResolve_PriorityOverride(t *testing.T) {
	reg := NewRegistry()
	reg.Register("custom", 999, func(f view.Component) bool {
		return f.Attributes.String("type") == "boolean"
	})

	got, ok := reg.Resolve(field(attr.Attributes{"type": attr.String("boolean")}))
	if !ok || got != "custom" {
		t.Fatalf("priority matcher should win, got %q (ok=%v)", got, ok)
	}
}

func TestDecorate_FieldsOnly(t *testing.T) {
	reg := NewRegistry()
	ctx := context.Background()

	toggle := field(attr.Attributes{"type": attr.String("switch")})
	if err := reg.Decorate(ctx, &toggle); err != nil {
		t.Fatalf("decorate: %v", err)
	}
	if got := toggle.Attributes.String(AttrWidget); got != WidgetToggle {
		t.Fatalf("toggle widget not applied, got %q", got)
	}

	section := view.Component{Type: component.TypeSection, Name: "s"}
	if err := reg.Decorate(ctx, &section); err != nil {
		t.Fatalf("decorate: %v", err)
	}
	if _, ok := section.Attributes.Get(AttrWidget); ok {
		t.Fatalf("sections must not receive a widget")
	}

	reg.DecorateTypes("chart")
	chart := view.Component{Type: "chart", Name: "sales"}
	if err := reg.Decorate(ctx, &chart); err != nil {
		t.Fatalf("decorate: %v", err)
	}
	if got := chart.Attributes.String(AttrWidget); got != WidgetInput {
		t.Fatalf("custom type should be decorated, got %q", got)
	}
}

func TestDecorate_DuringRender(t *testing.T) {
	reg := NewRegistry()
	root := component.NewSection("prefs")
	if err := root.Add(component.NewField("newsletter").SetAttr("type", "checkbox")); err != nil {
		t.Fatalf("add: %v", err)
	}

	rendered := root.Render(context.Background(), component.Env{Decorators: []component.Decorator{reg}})
	newsletter, ok := rendered.Find("newsletter")
	if !ok || newsletter.Attributes.String(AttrWidget) != WidgetToggle {
		t.Fatalf("render should apply widget decoration: %+v", newsletter)
	}
	if _, ok := rendered.Attributes.Get(AttrWidget); ok {
		t.Fatalf("section should stay undecorated")
	}
}
