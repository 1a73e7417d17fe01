package render

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"

	"github.com/goliatone/go-layouts/pkg/view"
)

var (
	styleRoot   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("36"))
	styleType   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	styleError  = lipgloss.NewStyle().Foreground(lipgloss.Color("167"))
	styleBranch = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Tree draws the layout as an outline: name, type and label per line.
type Tree struct {
	// Plain disables colours, for logs and tests.
	Plain bool
}

func (Tree) Name() string        { return "tree" }
func (Tree) ContentType() string { return "text/plain; charset=utf-8" }

// Render implements Renderer.
func (t Tree) Render(ctx context.Context, layout view.Layout) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	root := tree.Root(t.style(styleRoot, fmt.Sprintf("%s.%s (%s)", layout.Module, layout.Context, userLabel(layout.User))))
	for _, component := range layout.Components {
		root.Child(t.node(component))
	}
	root.Enumerator(tree.RoundedEnumerator)
	if !t.Plain {
		root.EnumeratorStyle(styleBranch)
	}
	return []byte(root.String() + "\n"), nil
}

func (t Tree) node(component view.Component) any {
	line := t.line(component)
	if len(component.Children) == 0 {
		return line
	}
	branch := tree.Root(line)
	for _, child := range component.Children {
		branch.Child(t.node(child))
	}
	return branch
}

func (t Tree) line(component view.Component) string {
	var b strings.Builder
	b.WriteString(component.Name)
	b.WriteString(" ")
	b.WriteString(t.style(styleType, "["+component.Type+"]"))
	if label := component.Attributes.String("label"); label != "" {
		fmt.Fprintf(&b, " %q", label)
	}
	if widget := component.Attributes.String("widget"); widget != "" {
		b.WriteString(" ")
		b.WriteString(t.style(styleType, "widget="+widget))
	}
	if component.DataURL != "" {
		b.WriteString(" ")
		b.WriteString(t.style(styleType, "<- "+component.DataURL))
	}
	if component.Error != "" {
		b.WriteString(" ")
		b.WriteString(t.style(styleError, "error: "+component.Error))
	}
	return b.String()
}

func (t Tree) style(style lipgloss.Style, text string) string {
	if t.Plain {
		return text
	}
	return style.Render(text)
}

func userLabel(user string) string {
	if user == "" {
		return "unresolved"
	}
	return user
}
