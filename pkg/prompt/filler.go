// Package prompt walks a rendered layout in the terminal and asks for a
// value per visible field, producing the payload the layout describes.
//
// Prompts follow the widget chosen for each field: toggles confirm, selects
// and chips pick from options, text areas and code editors read multiple
// lines and everything else reads one line. Containers nest the values of
// their children under their own name.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-layouts/pkg/attr"
	"github.com/goliatone/go-layouts/pkg/view"
	"github.com/goliatone/go-layouts/pkg/widgets"
)

// Filler collects values for the fields of a layout.
type Filler struct {
	driver  Driver
	widgets *widgets.Registry
}

// Option customises a Filler.
type Option func(*Filler)

// WithDriver swaps the terminal driver.
func WithDriver(driver Driver) Option {
	return func(f *Filler) {
		f.driver = driver
	}
}

// WithWidgets sets the registry used for fields without a widget attribute.
func WithWidgets(reg *widgets.Registry) Option {
	return func(f *Filler) {
		f.widgets = reg
	}
}

// New constructs a Filler prompting through survey.
func New(options ...Option) *Filler {
	f := &Filler{driver: SurveyDriver{}, widgets: widgets.NewRegistry()}
	for _, opt := range options {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Fill prompts for every field of layout and returns the collected values.
func (f *Filler) Fill(ctx context.Context, layout view.Layout) (map[string]any, error) {
	if f.driver == nil {
		return nil, errors.New("prompt: driver is nil")
	}
	values := make(map[string]any)
	if err := f.fillAll(ctx, layout.Components, values); err != nil {
		return nil, err
	}
	return values, nil
}

func (f *Filler) fillAll(ctx context.Context, components []view.Component, into map[string]any) error {
	for _, node := range components {
		if len(node.Children) > 0 {
			nested := make(map[string]any)
			if err := f.fillAll(ctx, node.Children, nested); err != nil {
				return err
			}
			if len(nested) > 0 {
				into[node.Name] = nested
			}
			continue
		}
		if node.Error != "" || node.Type != "field" {
			continue
		}
		value, err := f.field(ctx, node)
		if err != nil {
			return err
		}
		if value != nil {
			into[node.Name] = value
		}
	}
	return nil
}

func (f *Filler) field(ctx context.Context, node view.Component) (any, error) {
	label := node.Attributes.String("label")
	if label == "" {
		label = node.Name
	}
	help := node.Attributes.String("help")
	required := boolAttr(node.Attributes, "required")
	fallback := defaultString(node.Attributes)

	widget, _ := f.widgets.Resolve(node)
	options := stringsAttr(node.Attributes, "options")

	switch {
	case widget == widgets.WidgetToggle:
		confirmed, err := f.driver.Confirm(ctx, ConfirmConfig{Message: label, Help: help, Default: boolAttr(node.Attributes, "default")})
		if err != nil {
			return nil, err
		}
		return confirmed, nil

	case widget == widgets.WidgetChips && len(options) > 0:
		picked, err := f.driver.MultiSelect(ctx, SelectConfig{Message: label, Help: help, Options: options})
		if err != nil {
			return nil, err
		}
		out := make([]string, 0, len(picked))
		for _, idx := range picked {
			if idx >= 0 && idx < len(options) {
				out = append(out, options[idx])
			}
		}
		return out, nil

	case len(options) > 0:
		for {
			idx, err := f.driver.Select(ctx, SelectConfig{
				Message:      label,
				Help:         help,
				Options:      options,
				DefaultIndex: indexOf(options, fallback),
			})
			if err != nil {
				return nil, err
			}
			if idx >= 0 && idx < len(options) {
				return options[idx], nil
			}
			if err := f.driver.Info(ctx, fmt.Sprintf("Invalid %s selection", node.Name)); err != nil {
				return nil, err
			}
		}

	case widget == widgets.WidgetTextarea || widget == widgets.WidgetCodeEditor:
		text, err := f.driver.TextArea(ctx, InputConfig{Message: label, Help: help, Default: fallback, Validator: requiredValidator(required)})
		if err != nil {
			return nil, err
		}
		return blankToNil(text), nil

	case node.Attributes.String("type") == "password":
		text, err := f.driver.Password(ctx, InputConfig{Message: label, Help: help, Validator: requiredValidator(required)})
		if err != nil {
			return nil, err
		}
		return blankToNil(text), nil

	case node.Attributes.String("type") == "number":
		return f.number(ctx, node.Name, InputConfig{Message: label, Help: help, Default: fallback}, required)

	default:
		text, err := f.driver.Input(ctx, InputConfig{Message: label, Help: help, Default: fallback, Validator: requiredValidator(required)})
		if err != nil {
			return nil, err
		}
		return blankToNil(text), nil
	}
}

func (f *Filler) number(ctx context.Context, name string, cfg InputConfig, required bool) (any, error) {
	for {
		input, err := f.driver.Input(ctx, cfg)
		if err != nil {
			return nil, err
		}
		input = strings.TrimSpace(input)
		if input == "" && !required {
			return nil, nil
		}
		if n, err := strconv.ParseInt(input, 10, 64); err == nil {
			return n, nil
		}
		if n, err := strconv.ParseFloat(input, 64); err == nil {
			return n, nil
		}
		if err := f.driver.Info(ctx, fmt.Sprintf("Invalid %s: %q is not a number", name, input)); err != nil {
			return nil, err
		}
	}
}

func requiredValidator(required bool) func(string) error {
	if !required {
		return nil
	}
	return func(text string) error {
		if strings.TrimSpace(text) == "" {
			return errors.New("value is required")
		}
		return nil
	}
}

func blankToNil(text string) any {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return text
}

func boolAttr(attrs attr.Attributes, key string) bool {
	value, ok := attrs.Get(key)
	return ok && value.Kind() == attr.KindBool && value.Bool()
}

func stringsAttr(attrs attr.Attributes, key string) []string {
	value, ok := attrs.Get(key)
	if !ok || value.Kind() != attr.KindList {
		return nil
	}
	items := value.Items()
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.String())
	}
	return out
}

func defaultString(attrs attr.Attributes) string {
	value, ok := attrs.Get("default")
	if !ok {
		return ""
	}
	return value.String()
}

func indexOf(options []string, value string) int {
	for i, option := range options {
		if option == value {
			return i
		}
	}
	return -1
}
