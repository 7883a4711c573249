package component

import (
	"context"
	stderrors "errors"
	"fmt"
	"runtime/debug"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/bloc/internal/errors"
	"github.com/vango-dev/bloc/pkg/block"
)

// GetChild resolves the child component requested under key during n's
// render.
//
// An unknown key creates a node from owner's component name and renders
// it right away. A known key re-renders the child with props unless its
// type's ShouldUpdate returns false, in which case only the props are
// updated. The returned node is a block the caller embeds in its output.
func (n *Node) GetChild(name string, props Props, key string, owner Owner) (*Node, error) {
	a := n.app
	if a.dead {
		return nil, ErrAppDestroyed
	}
	parent := a.arena.fiber(n.fiber)
	if parent != nil && parent.childMap == nil {
		parent.childMap = make(map[string]NodeID)
	}

	child := a.arena.node(n.children[key])
	if child != nil && (child.typ.Name != name || child.status == StatusDestroyed) {
		if child.status == StatusNew {
			// Never reached the tree, so no diff will see it leave.
			a.visitRemovedNodes(child)
		}
		child = nil
	}
	if child == nil {
		return a.createChild(n, parent, name, props, key, owner)
	}

	if parent != nil {
		parent.childMap[key] = child.id
		if child.status == StatusNew {
			// Requested by a render that has not committed yet. The node
			// keeps its setup and moves its first render into this batch.
			child.props = props
			a.initiateRender(child, a.makeChildFiber(child, parent))
			return child, nil
		}
	}
	if su := child.typ.ShouldUpdate; su != nil && !su(child.props, props) {
		child.props = props
		return child, nil
	}

	if parent == nil {
		b, err := a.callRender(child, props)
		if err != nil {
			return nil, err
		}
		child.props = props
		if child.status == StatusNew {
			child.bdom = b
		} else {
			child.nextBdom = b
		}
		return child, nil
	}
	a.updateAndRender(child, props, parent)
	return child, nil
}

func (a *App) createChild(n *Node, parent *fiber, name string, props Props, key string, owner Owner) (*Node, error) {
	var typ *Type
	ok := false
	if owner != nil {
		typ, ok = owner.Component(name)
	}
	if !ok {
		return nil, errors.New("B101").
			WithDetailf("%q requested by %s under key %q", name, n.typ.Name, key).
			WithSuggestion("Register the component on the owner that declares it").
			Wrap(ErrUnknownComponent)
	}

	child, err := a.newNode(typ, props, n, key)
	if err != nil {
		return nil, err
	}
	n.children[key] = child.id

	if parent == nil {
		b, err := a.callRender(child, props)
		if err != nil {
			return nil, err
		}
		child.bdom = b
		return child, nil
	}

	parent.childMap[key] = child.id
	f := a.newFiber(child, parent)
	a.initiateRender(child, f)
	return child, nil
}

func (a *App) newNode(typ *Type, props Props, parent *Node, key string) (*Node, error) {
	if typ == nil || typ.Setup == nil {
		name := "<nil>"
		if typ != nil {
			name = typ.Name
		}
		return nil, errors.New("B104").WithDetailf("component %s", name)
	}
	if props == nil {
		props = Props{}
	}
	n := &Node{
		app:      a,
		typ:      typ,
		key:      key,
		props:    props,
		env:      a.env,
		children: make(map[string]NodeID),
	}
	if parent != nil {
		n.parent = parent.id
		n.env = parent.env
	}
	n.id = a.arena.nodes.insert(n)

	if err := a.callSetup(n); err != nil {
		n.status = StatusDestroyed
		a.arena.nodes.release(n.id)
		return nil, err
	}
	return n, nil
}

func (a *App) callSetup(n *Node) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &RenderError{
				Node:      n.id,
				Component: n.typ.Name,
				Phase:     "setup",
				Err:       errors.New("B103").WithDetail(fmt.Sprint(r)),
				Stack:     debug.Stack(),
			}
		}
	}()

	n.renderFn = n.typ.Setup(&Setup{node: n})
	if n.renderFn == nil {
		return errors.New("B104").WithDetailf("component %s: setup returned no render function", n.typ.Name)
	}
	return nil
}

// initiateRender renders a new node, after its willStart hooks when it
// has any. The batch stays open while they run. willStart runs once per
// node: when the node is requested again before the hooks finish, their
// completion renders whichever fiber the node has by then.
func (a *App) initiateRender(n *Node, f *fiber) {
	if f.rf == nil && len(n.mounted) > 0 {
		if rs := a.rootOf(f); rs != nil {
			rs.mounted = register(rs.mounted, f.id)
		}
	}
	if n.starting {
		return
	}
	if len(n.willStart) == 0 || n.started {
		a.renderFiber(f)
		return
	}

	n.starting = true
	a.goHooks(slices.Clone(n.willStart), func(err error) {
		n.starting = false
		if a.dead || n.status != StatusNew {
			return
		}
		f := a.arena.fiber(n.fiber)
		if f == nil {
			return
		}
		if err != nil {
			a.fail(f, n, "willStart", err)
			return
		}
		n.started = true
		a.renderFiber(f)
	})
}

// updateAndRender re-renders an existing child in parent's batch, after
// its willUpdateProps hooks when it has any.
func (a *App) updateAndRender(n *Node, props Props, parent *fiber) {
	f := a.makeChildFiber(n, parent)
	if rs := a.rootOf(f); rs != nil {
		if len(n.willPatch) > 0 {
			rs.willPatch = register(rs.willPatch, f.id)
		}
		if len(n.patched) > 0 {
			rs.patched = register(rs.patched, f.id)
		}
	}

	if len(n.willUpdateProps) == 0 {
		n.props = props
		a.renderFiber(f)
		return
	}

	hooks := make([]func(context.Context) error, len(n.willUpdateProps))
	for i, h := range n.willUpdateProps {
		hooks[i] = func(ctx context.Context) error { return h(ctx, props) }
	}
	fid, seq := f.id, f.seq
	a.goHooks(hooks, func(err error) {
		f := a.arena.fiber(fid)
		if a.dead || f == nil || f.seq != seq || n.fiber != fid {
			return
		}
		if err != nil {
			a.fail(f, n, "willUpdateProps", err)
			return
		}
		n.props = props
		a.renderFiber(f)
	})
}

// goHooks runs asynchronous hooks concurrently off the loop and reports
// the first failure back on the loop.
func (a *App) goHooks(hooks []func(context.Context) error, done func(error)) {
	a.loop.Go(func(ctx context.Context) error {
		g, gctx := errgroup.WithContext(ctx)
		for _, h := range hooks {
			g.Go(func() error { return safeHook(gctx, h) })
		}
		if err := g.Wait(); err != nil {
			return errors.New("B150").Wrap(err)
		}
		return nil
	}, done)
}

func safeHook(ctx context.Context, h func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hook panic: %v", r)
		}
	}()
	return h(ctx)
}

// renderFiber calls the render function for f's node and counts the
// fiber as done. Cancelled or superseded fibers are skipped.
func (a *App) renderFiber(f *fiber) {
	n := a.arena.node(f.node)
	if a.dead || n == nil || f.cancelled || !f.pending || n.fiber != f.id {
		return
	}

	f.childMap = make(map[string]NodeID)
	start := time.Now()
	b, err := a.callRender(n, n.props)
	a.observer.RenderFinished(RenderInfo{
		App:       a.id,
		Node:      n.id,
		Component: n.typ.Name,
		Duration:  time.Since(start),
		Err:       err,
	})
	if a.dead {
		return
	}
	if err != nil {
		a.fail(f, n, "render", err)
		return
	}

	f.bdom = b
	if n.status == StatusNew {
		n.bdom = b
	} else {
		n.nextBdom = b
	}
	a.settle(f)
}

func (a *App) callRender(n *Node, props Props) (b block.Block, err error) {
	defer func() {
		if r := recover(); r != nil {
			b = nil
			err = &RenderError{
				Node:      n.id,
				Component: n.typ.Name,
				Phase:     "render",
				Err:       errors.New("B103").WithDetail(fmt.Sprint(r)),
				Stack:     debug.Stack(),
			}
		}
	}()

	b, err = n.renderFn(props)
	if err == nil && b == nil {
		err = errors.New("B102").WithDetailf("component %s", n.typ.Name).Wrap(ErrNoBlock)
	}
	return b, err
}

// fail parks err on the batch f belongs to, rejects the batch and tears
// the app down. Rendering errors are not recovered in place.
func (a *App) fail(f *fiber, n *Node, phase string, err error) {
	var re *RenderError
	if !stderrors.As(err, &re) {
		re = &RenderError{Node: n.id, Component: n.typ.Name, Phase: phase, Err: err}
	}
	a.logger.Error("render failed",
		"node", re.Node.String(),
		"component", re.Component,
		"phase", re.Phase,
		"error", re.Err)
	if re.Stack != nil {
		a.logger.Debug("render panic stack", "stack", string(re.Stack))
	}

	if r := a.arena.fiber(f.root); r != nil && r.rf != nil && !r.rf.completed {
		rs := r.rf
		rs.err = re
		rs.completed = true
		r.rf = nil
		rs.future.Reject(re)
		a.finishRoot(r, rs, OutcomeFailed, re, 0, 0)
	}
	a.Destroy()
}
