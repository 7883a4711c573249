package component

import (
	"errors"
	"fmt"
)

// Sentinel errors for component and app error conditions.
var (
	// ErrAppDestroyed is returned for work on an app that has been torn down.
	ErrAppDestroyed = errors.New("component: app destroyed")

	// ErrAlreadyMounted is returned when an app is mounted twice.
	ErrAlreadyMounted = errors.New("component: app already mounted")

	// ErrUnknownComponent is returned when an owner cannot resolve a
	// component name.
	ErrUnknownComponent = errors.New("component: unknown component")

	// ErrNodeDestroyed is returned when a render is requested on, or
	// pending for, a destroyed node.
	ErrNodeDestroyed = errors.New("component: node destroyed")

	// ErrNoBlock is returned when a render function returns a nil block.
	ErrNoBlock = errors.New("component: render returned no block")
)

// RenderError wraps a failure while rendering or running the hooks of one
// component. It is parked on the root of the batch the component was
// rendering in.
type RenderError struct {
	Node      NodeID
	Component string
	Phase     string // render, setup, willStart, willUpdateProps, or a hook name
	Err       error
	Stack     []byte // set when the failure was a panic
}

// Error returns the error message with component context.
func (e *RenderError) Error() string {
	return fmt.Sprintf("component: %s %s (node %s): %v", e.Phase, e.Component, e.Node, e.Err)
}

// Unwrap returns the underlying error.
func (e *RenderError) Unwrap() error {
	return e.Err
}

// IsPanic reports whether the failure was a recovered panic.
func (e *RenderError) IsPanic() bool {
	return e.Stack != nil
}
