// Package component implements the polymorphic node of a layout tree.
//
// Every node, whether a field, a section, a subsection or a custom type,
// shares one contract: identity (type and name), an optional explicit
// order, forced visibility, permission and role requirements, a memoized
// authorization result and an attribute bag. Container nodes also hold
// uniquely named children.
//
// Children sort by explicit order ascending; nodes without an order come
// after every ordered sibling and keep their insertion order.
//
// ToView converts a tree into view.Component values filtered to what the
// resolved user may see. Render does the same while firing BeforeRender,
// DataLoaded/DataError and AfterRender events and loading external data for
// nodes that declare a data source. A failing data source only affects its
// own node.
package component
