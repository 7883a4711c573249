package component

import (
	"github.com/vango-dev/bloc/pkg/block"
	"github.com/vango-dev/bloc/pkg/dom"
)

// Props are the inputs a parent passes to a component.
type Props map[string]any

// RenderFunc produces a component's block from its props. It may be called
// any number of times and should only build blocks.
type RenderFunc func(props Props) (block.Block, error)

// Type describes a component.
type Type struct {
	Name string

	// Setup runs once per instance and returns the render function.
	// Hooks are registered through the Setup context.
	Setup func(s *Setup) RenderFunc

	// ShouldUpdate gates re-rendering on a props change. Nil always
	// re-renders.
	ShouldUpdate func(old, next Props) bool
}

// Status is a node's lifecycle state. It only moves forward.
type Status uint8

const (
	StatusNew Status = iota
	StatusMounted
	StatusDestroyed
)

// String returns the string representation of the Status.
func (s Status) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusMounted:
		return "mounted"
	case StatusDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Owner resolves component and method names for the template that
// declared them.
type Owner interface {
	Component(name string) (*Type, bool)
	Method(name string) (dom.Listener, bool)
}

// Registry is a map-backed Owner.
type Registry struct {
	Components map[string]*Type
	Methods    map[string]dom.Listener
}

// Component implements Owner.
func (r *Registry) Component(name string) (*Type, bool) {
	t, ok := r.Components[name]
	return t, ok && t != nil
}

// Method implements Owner.
func (r *Registry) Method(name string) (dom.Listener, bool) {
	fn, ok := r.Methods[name]
	return fn, ok && fn != nil
}

// HandlerSpec binds an event on a child component's root element to a
// method of the owner that declared it.
type HandlerSpec struct {
	Event  string
	Owner  Owner
	Method string
}
