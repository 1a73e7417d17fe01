package component

import (
	"errors"
	"fmt"
)

// ErrDuplicateComponent matches every DuplicateComponentError.
var ErrDuplicateComponent = errors.New("duplicate component")

// DuplicateComponentError reports two siblings sharing a name.
type DuplicateComponentError struct {
	Parent string
	Name   string
}

func (e *DuplicateComponentError) Error() string {
	if e.Parent == "" {
		return fmt.Sprintf("component: duplicate component %q at layout root", e.Name)
	}
	return fmt.Sprintf("component: duplicate component %q under %q", e.Name, e.Parent)
}

// Is lets errors.Is match ErrDuplicateComponent.
func (e *DuplicateComponentError) Is(target error) bool {
	return target == ErrDuplicateComponent
}
