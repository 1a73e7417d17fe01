package definition

import (
	"github.com/goliatone/go-layouts/pkg/builder"
	"github.com/goliatone/go-layouts/pkg/component"
)

// Callback replays the definition through a builder.
func (d Definition) Callback() builder.Callback {
	components := d.Components
	return func(b *builder.Builder) error {
		for _, spec := range components {
			replay(b, spec)
		}
		return b.Err()
	}
}

func replay(b *builder.Builder, spec ComponentSpec) {
	typ := spec.kind()
	if !spec.isContainer() {
		if typ == component.TypeField {
			b.Field(spec.Name)
		} else {
			b.Component(typ, spec.Name)
		}
		apply(b, spec)
		return
	}

	switch typ {
	case component.TypeSection:
		b.Section(spec.Name)
	case component.TypeSubsection:
		b.Subsection(spec.Name)
	default:
		b.Container(typ, spec.Name)
	}
	apply(b, spec)
	for _, child := range spec.Children {
		replay(b, child)
	}
	b.End()
}

func apply(b *builder.Builder, spec ComponentSpec) {
	if spec.Order != nil {
		b.Order(*spec.Order)
	}
	if spec.Visible != nil {
		b.Visible(*spec.Visible)
	}
	if len(spec.Permissions) > 0 {
		b.Permissions(spec.Permissions...)
	}
	if len(spec.Roles) > 0 {
		b.Roles(spec.Roles...)
	}
	if spec.DataSource != "" {
		b.DataSource(spec.DataSource)
	}
	for _, key := range sortedKeys(spec.Attributes) {
		b.Attr(key, spec.Attributes[key])
	}
}

func (s ComponentSpec) kind() string {
	if s.Type != "" {
		return s.Type
	}
	if len(s.Children) > 0 || s.Container {
		return component.TypeSection
	}
	return component.TypeField
}

func (s ComponentSpec) isContainer() bool {
	switch s.kind() {
	case component.TypeSection, component.TypeSubsection:
		return true
	}
	return s.Container || len(s.Children) > 0
}
