// Package builder provides the fluent API registration callbacks use to
// assemble a layout tree.
//
// A Builder is a cursor over an append-only tree. Section, Subsection and
// Container open a scope; Field and Component add leaves to the innermost
// open scope (or to the layout root when none is open). End, EndSubsection
// and EndSection close scopes. Attribute setters such as Label or
// Permissions apply to the most recently created component, or to the
// container that was just closed.
//
// The first error sticks: later calls are ignored and Build returns it
// without a partial layout.
//
//	l, err := builder.Run("users", "edit", func(b *builder.Builder) error {
//		b.Section("account").
//			Field("email").Label("Email").Type("email").Required().
//			Field("role").Label("Role").Roles("admin").
//			EndSection()
//		return nil
//	})
package builder
