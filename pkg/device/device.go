// Package device classifies user agents into mobile, tablet or desktop and
// maps each class to a responsive breakpoint. Detection is a pure function
// of the user agent and the breakpoint table.
package device

import (
	"net/http"
	"regexp"
	"strings"
)

// Type is a device class.
type Type string

const (
	Mobile  Type = "mobile"
	Tablet  Type = "tablet"
	Desktop Type = "desktop"
)

// Rule maps a user agent pattern to a device class. Rules are checked in
// order and the first match wins.
type Rule struct {
	Type    Type
	Pattern *regexp.Regexp
}

// DefaultRules checks mobile patterns before tablet ones. iPads report
// "Mobile/..." tokens, so the mobile patterns avoid a bare "Mobi" match.
func DefaultRules() []Rule {
	return []Rule{
		{Type: Mobile, Pattern: regexp.MustCompile(`(?i)iphone|ipod|android.*mobile|windows phone|iemobile|blackberry|bb10|opera mini|opera mobi|webos|mobile safari`)},
		{Type: Tablet, Pattern: regexp.MustCompile(`(?i)ipad|android|tablet|kindle|silk/|playbook|nexus (7|9|10)`)},
	}
}

// Result is the outcome of a detection.
type Result struct {
	Type       Type   `json:"type"`
	Breakpoint string `json:"breakpoint"`
	MinWidth   int    `json:"minWidth"`
}

// Option configures a Detector.
type Option func(*Detector)

// WithBreakpoints replaces the breakpoint table.
func WithBreakpoints(breakpoints Breakpoints) Option {
	return func(d *Detector) {
		if len(breakpoints) > 0 {
			d.breakpoints = append(Breakpoints(nil), breakpoints...)
		}
	}
}

// WithRules prepends rules that are checked before the defaults.
func WithRules(rules ...Rule) Option {
	return func(d *Detector) {
		d.rules = append(append([]Rule(nil), rules...), d.rules...)
	}
}

// WithTypeBreakpoint maps a device class to a breakpoint name.
func WithTypeBreakpoint(typ Type, name string) Option {
	return func(d *Detector) {
		d.names[typ] = name
	}
}

// Detector classifies user agents. It is immutable after New and safe for
// concurrent use.
type Detector struct {
	rules       []Rule
	breakpoints Breakpoints
	names       map[Type]string
}

var fallbackWidths = map[Type]int{Mobile: 0, Tablet: 768, Desktop: 1200}

// New builds a detector with the default rules and breakpoints.
func New(options ...Option) *Detector {
	d := &Detector{
		rules:       DefaultRules(),
		breakpoints: DefaultBreakpoints(),
		names:       map[Type]string{Mobile: "xs", Tablet: "md", Desktop: "xl"},
	}
	for _, option := range options {
		if option != nil {
			option(d)
		}
	}
	return d
}

// Breakpoints returns a copy of the breakpoint table.
func (d *Detector) Breakpoints() Breakpoints {
	return append(Breakpoints(nil), d.breakpoints...)
}

// DeviceType classifies ua. Empty user agents are desktop.
func (d *Detector) DeviceType(ua string) Type {
	ua = strings.TrimSpace(ua)
	if ua == "" {
		return Desktop
	}
	for _, rule := range d.rules {
		if rule.Pattern != nil && rule.Pattern.MatchString(ua) {
			return rule.Type
		}
	}
	return Desktop
}

// Breakpoint returns the breakpoint name for ua.
func (d *Detector) Breakpoint(ua string) string {
	return d.Detect(ua).Breakpoint
}

// Detect classifies ua and resolves its breakpoint.
func (d *Detector) Detect(ua string) Result {
	return d.result(d.DeviceType(ua))
}

// DetectRequest classifies the request's User-Agent header. Without a user
// agent the Sec-CH-UA-Mobile client hint is honoured.
func (d *Detector) DetectRequest(r *http.Request) Result {
	if r == nil {
		return d.result(Desktop)
	}
	if ua := r.UserAgent(); strings.TrimSpace(ua) != "" {
		return d.Detect(ua)
	}
	if r.Header.Get("Sec-CH-UA-Mobile") == "?1" {
		return d.result(Mobile)
	}
	return d.result(Desktop)
}

func (d *Detector) result(typ Type) Result {
	bp, ok := d.breakpoints.Lookup(d.names[typ])
	if !ok {
		bp = d.breakpoints.ForWidth(fallbackWidths[typ])
	}
	return Result{Type: typ, Breakpoint: bp.Name, MinWidth: bp.MinWidth}
}

var defaultDetector = New()

// Detect classifies ua with the default detector.
func Detect(ua string) Result { return defaultDetector.Detect(ua) }

// DeviceType classifies ua with the default detector.
func DeviceType(ua string) Type { return defaultDetector.DeviceType(ua) }

// BreakpointFor returns the default breakpoint name for ua.
func BreakpointFor(ua string) string { return defaultDetector.Breakpoint(ua) }
