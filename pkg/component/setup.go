package component

import (
	"context"

	"github.com/vango-dev/bloc/pkg/loop"
)

// Setup is the construction context handed to Type.Setup. It is only
// valid during that call, except for Render and Node which may be kept.
type Setup struct {
	node *Node
}

// Node returns the node being constructed.
func (s *Setup) Node() *Node { return s.node }

// Props returns the initial props.
func (s *Setup) Props() Props { return s.node.props }

// Env returns the ambient environment shared by the app.
func (s *Setup) Env() any { return s.node.env }

// OnWillStart registers work that must finish before the first render.
// It runs off the loop goroutine and must not touch the component tree.
func (s *Setup) OnWillStart(fn func(ctx context.Context) error) {
	s.node.willStart = append(s.node.willStart, fn)
}

// OnWillUpdateProps registers work that must finish before a re-render
// caused by new props. It runs off the loop goroutine.
func (s *Setup) OnWillUpdateProps(fn func(ctx context.Context, next Props) error) {
	s.node.willUpdateProps = append(s.node.willUpdateProps, fn)
}

// OnMounted registers a hook fired after the node first enters the tree.
func (s *Setup) OnMounted(fn func()) { s.node.mounted = append(s.node.mounted, fn) }

// OnWillPatch registers a hook fired before a commit that patches the node.
func (s *Setup) OnWillPatch(fn func()) { s.node.willPatch = append(s.node.willPatch, fn) }

// OnPatched registers a hook fired after a commit that patched the node.
func (s *Setup) OnPatched(fn func()) { s.node.patched = append(s.node.patched, fn) }

// OnWillUnmount registers a hook fired before a mounted node leaves the tree.
func (s *Setup) OnWillUnmount(fn func()) { s.node.willUnmount = append(s.node.willUnmount, fn) }

// OnDestroyed registers a hook fired once the node is gone, after the
// commit that removed it.
func (s *Setup) OnDestroyed(fn func()) { s.node.destroyed = append(s.node.destroyed, fn) }

// Render requests a re-render of the node.
func (s *Setup) Render() *loop.Future[struct{}] { return s.node.Render() }
