package view

import (
	"errors"
	"fmt"
)

// ErrDisposed is the root cause inside every LifecycleError raised for
// operations on a disposed view.
var ErrDisposed = errors.New("view: view is disposed")

// ErrBadTarget is returned when an attach target is neither a selector
// string nor a *dom.Selection.
var ErrBadTarget = errors.New("view: attach target must be a selector string or *dom.Selection")

// LifecycleError reports an operation invoked in a state that forbids it.
// Lifecycle violations are programming errors and always surface
// immediately rather than degrading.
type LifecycleError struct {
	ViewID string
	Name   string
	Op     string
	Err    error
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("view: %s on %s (%s): %v", e.Op, e.Name, e.ViewID, e.Err)
}

func (e *LifecycleError) Unwrap() error {
	return e.Err
}

func (v *View) lifecycleError(op string) error {
	return &LifecycleError{ViewID: v.id, Name: v.def.Name, Op: op, Err: ErrDisposed}
}
