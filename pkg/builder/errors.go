package builder

import (
	"errors"
	"fmt"
)

// ErrBuilderState matches every StateError.
var ErrBuilderState = errors.New("builder state error")

// StateError reports a builder call that does not fit the current cursor:
// closing a scope that is not open, or setting attributes with no component
// in scope.
type StateError struct {
	Op     string
	Reason string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("builder: %s: %s", e.Op, e.Reason)
}

// Is lets errors.Is match ErrBuilderState.
func (e *StateError) Is(target error) bool {
	return target == ErrBuilderState
}

func stateError(op, format string, args ...any) error {
	return &StateError{Op: op, Reason: fmt.Sprintf(format, args...)}
}
