package definition

import (
	"context"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-layouts/pkg/component"
	"github.com/goliatone/go-layouts/pkg/view"
)

// IconAttribute is the attribute holding inline SVG icon markup.
const IconAttribute = "icon"

var (
	iconPolicyOnce sync.Once
	iconPolicy     *bluemonday.Policy
)

// SanitizeIcon strips everything but basic SVG drawing elements from raw.
// Plain icon names ("user", "fa-home") pass through unchanged.
func SanitizeIcon(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || !strings.Contains(trimmed, "<") {
		return trimmed
	}
	return strings.TrimSpace(iconSanitizer().Sanitize(trimmed))
}

// IconSanitizer is a render decorator that sanitises icon attributes,
// including ones merged from external data.
var IconSanitizer component.Decorator = component.DecoratorFunc(func(_ context.Context, node *view.Component) error {
	raw := node.Attributes.String(IconAttribute)
	if raw == "" {
		return nil
	}
	if cleaned := SanitizeIcon(raw); cleaned != raw {
		node.Attributes.Set(IconAttribute, cleaned)
	}
	return nil
})

func iconSanitizer() *bluemonday.Policy {
	iconPolicyOnce.Do(func() {
		policy := bluemonday.StrictPolicy()
		policy.AllowElements(
			"svg", "g", "path", "circle", "rect", "line", "polyline", "polygon",
			"ellipse", "title", "desc", "defs", "use", "clipPath",
		)

		policy.AllowAttrs(
			"xmlns", "viewBox", "width", "height", "fill", "stroke",
			"stroke-width", "stroke-linecap", "stroke-linejoin", "aria-hidden",
			"role", "focusable", "class",
		).OnElements("svg")

		policy.AllowAttrs("href", "xlink:href", "clip-path").OnElements("use")

		policy.AllowAttrs(
			"d", "cx", "cy", "r", "x", "y", "x1", "y1", "x2", "y2",
			"points", "rx", "ry", "fill", "stroke", "stroke-width",
			"stroke-linecap", "stroke-linejoin", "class",
		).OnElements("path", "circle", "rect", "line", "polyline", "polygon", "ellipse")

		policy.AllowAttrs("id", "clipPathUnits").OnElements("clipPath")
		policy.AllowAttrs("id").OnElements("defs", "g")

		iconPolicy = policy
	})
	return iconPolicy
}
