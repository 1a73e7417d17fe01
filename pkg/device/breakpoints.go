package device

import (
	"fmt"
	"sort"
	"strings"
)

// Breakpoint names a minimum viewport width.
type Breakpoint struct {
	Name     string `json:"name" yaml:"name" toml:"name" validate:"required"`
	MinWidth int    `json:"minWidth" yaml:"minWidth" toml:"minWidth" validate:"gte=0"`
}

// Breakpoints is an ordered table, smallest width first.
type Breakpoints []Breakpoint

// DefaultBreakpoints returns xs, sm, md, lg, xl and xxl.
func DefaultBreakpoints() Breakpoints {
	return Breakpoints{
		{Name: "xs", MinWidth: 0},
		{Name: "sm", MinWidth: 576},
		{Name: "md", MinWidth: 768},
		{Name: "lg", MinWidth: 992},
		{Name: "xl", MinWidth: 1200},
		{Name: "xxl", MinWidth: 1400},
	}
}

// Validate checks names are unique and widths strictly increase.
func (b Breakpoints) Validate() error {
	if len(b) == 0 {
		return fmt.Errorf("device: breakpoint table is empty")
	}
	seen := make(map[string]struct{}, len(b))
	for i, bp := range b {
		name := strings.TrimSpace(bp.Name)
		if name == "" {
			return fmt.Errorf("device: breakpoint %d has no name", i)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("device: duplicate breakpoint %q", name)
		}
		seen[name] = struct{}{}
		if bp.MinWidth < 0 {
			return fmt.Errorf("device: breakpoint %q has negative width", name)
		}
		if i > 0 && bp.MinWidth <= b[i-1].MinWidth {
			return fmt.Errorf("device: breakpoint %q must be wider than %q", name, b[i-1].Name)
		}
	}
	return nil
}

// Lookup returns the breakpoint called name.
func (b Breakpoints) Lookup(name string) (Breakpoint, bool) {
	for _, bp := range b {
		if bp.Name == name {
			return bp, true
		}
	}
	return Breakpoint{}, false
}

// ForWidth returns the widest breakpoint whose minimum fits width.
func (b Breakpoints) ForWidth(width int) Breakpoint {
	sorted := append(Breakpoints(nil), b...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MinWidth < sorted[j].MinWidth })
	var match Breakpoint
	for i, bp := range sorted {
		if i == 0 || bp.MinWidth <= width {
			match = bp
		}
	}
	return match
}

// Names returns the breakpoint names in table order.
func (b Breakpoints) Names() []string {
	names := make([]string, len(b))
	for i, bp := range b {
		names[i] = bp.Name
	}
	return names
}
