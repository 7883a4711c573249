package component

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vango-dev/bloc/internal/errors"
	"github.com/vango-dev/bloc/pkg/block"
	"github.com/vango-dev/bloc/pkg/dom"
	"github.com/vango-dev/bloc/pkg/loop"
)

// Node is one component instance. It is a persistent block: parents embed
// it in their block trees and it patches itself from its pending render.
type Node struct {
	app    *App
	id     NodeID
	typ    *Type
	parent NodeID
	key    string

	renderFn RenderFunc
	props    Props
	env      any
	status   Status
	dirty    bool
	starting bool // willStart hooks in flight
	started  bool // willStart hooks done

	fiber    FiberID
	bdom     block.Block
	nextBdom block.Block
	children map[string]NodeID

	willStart       []func(ctx context.Context) error
	willUpdateProps []func(ctx context.Context, next Props) error
	willUnmount     []func()
	mounted         []func()
	willPatch       []func()
	patched         []func()
	destroyed       []func()

	// Classes bound by the parent template onto this node's root element.
	parentClass  []string
	currentClass []string
	classTarget  *dom.Node

	handlers  []HandlerSpec
	boundTo   *dom.Node
	unbinders []func()
}

// ID returns the node's handle.
func (n *Node) ID() NodeID { return n.id }

// Name returns the component name.
func (n *Node) Name() string { return n.typ.Name }

// App returns the app the node belongs to.
func (n *Node) App() *App { return n.app }

// Status returns the lifecycle status.
func (n *Node) Status() Status { return n.status }

// Props returns the current props.
func (n *Node) Props() Props { return n.props }

// Env returns the app environment.
func (n *Node) Env() any { return n.env }

// Key returns the key the parent requested the node under.
func (n *Node) Key() string { return n.key }

// Block returns the block currently mounted, or the first rendered block
// of a node that is not mounted yet.
func (n *Node) Block() block.Block { return n.bdom }

// Dirty reports whether a render request is waiting for the checkpoint.
func (n *Node) Dirty() bool { return n.dirty }

// HasFiber reports whether the node has render work in flight.
func (n *Node) HasFiber() bool { return n.app.arena.fiber(n.fiber) != nil }

// Parent returns the parent node, or nil for the app root.
func (n *Node) Parent() *Node { return n.app.arena.node(n.parent) }

// Child returns the child requested under key.
func (n *Node) Child(key string) *Node {
	id, ok := n.children[key]
	if !ok {
		return nil
	}
	return n.app.arena.node(id)
}

// ChildKeys returns the keys of the node's children, sorted.
func (n *Node) ChildKeys() []string {
	keys := make([]string, 0, len(n.children))
	for k := range n.children {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (n *Node) String() string {
	return fmt.Sprintf("%s#%s", n.typ.Name, n.id)
}

// Render requests a re-render. Requests made before the next checkpoint
// coalesce into one render. The future settles when the batch that
// applies the render commits.
func (n *Node) Render() *loop.Future[struct{}] {
	a := n.app
	result := loop.NewFuture[struct{}](a.loop)
	if a.dead {
		result.Reject(ErrAppDestroyed)
		return result
	}
	n.dirty = true
	a.loop.Queue(func() { a.renderAtCheckpoint(n, result) })
	return result
}

func (a *App) renderAtCheckpoint(n *Node, result *loop.Future[struct{}]) {
	switch {
	case a.dead:
		result.Reject(ErrAppDestroyed)
		return
	case n.status == StatusDestroyed:
		result.Reject(ErrNodeDestroyed)
		return
	}

	cur := a.arena.fiber(n.fiber)
	if !n.dirty {
		// Handled by a request earlier in this tick.
		a.follow(cur, result)
		return
	}
	n.dirty = false
	if cur != nil && cur.pending {
		// Not rendered yet; it will render the latest state.
		a.follow(cur, result)
		return
	}

	if n.status == StatusNew && cur == nil {
		// The first render happens when the node is mounted.
		result.Resolve(struct{}{})
		return
	}

	f := a.makeRootFiber(n)
	a.follow(f, result)
	a.renderFiber(f)
}

// follow settles result with the batch f belongs to, or at once when
// there is no batch.
func (a *App) follow(f *fiber, result *loop.Future[struct{}]) {
	if f == nil {
		result.Resolve(struct{}{})
		return
	}
	r := a.arena.fiber(f.root)
	if r == nil || r.rf == nil {
		result.Resolve(struct{}{})
		return
	}
	loop.Pipe(r.rf.future, result)
}

// SetClass sets the classes the parent template binds onto the node's
// root element. They are applied on mount and reconciled on patch.
func (n *Node) SetClass(class string) {
	n.parentClass = strings.Fields(class)
}

// SetHandlers sets the event bindings the parent template declares on
// the node's root element. Each event calls the named method on its
// owner, not on this component.
func (n *Node) SetHandlers(specs []HandlerSpec) error {
	for i, h := range specs {
		if h.Event == "" {
			return errors.New("B200").
				WithDetailf("handler #%d on component %s has no event name", i, n.typ.Name).
				WithSuggestion("Name the event, e.g. HandlerSpec{Event: \"click\", Method: ...}").
				Wrap(block.ErrMissingEventName)
		}
	}
	n.handlers = specs
	return nil
}

// FirstNode implements block.Block.
func (n *Node) FirstNode() *dom.Node {
	if n.bdom == nil {
		return nil
	}
	return n.bdom.FirstNode()
}

// Mount implements block.Block.
func (n *Node) Mount(parent *dom.Node) {
	n.mustHaveBlock()
	n.bdom.Mount(parent)
	n.afterMount()
}

// MountBefore implements block.Block.
func (n *Node) MountBefore(anchor *dom.Node) {
	n.mustHaveBlock()
	n.bdom.MountBefore(anchor)
	n.afterMount()
}

func (n *Node) mustHaveBlock() {
	if n.bdom == nil {
		panic(fmt.Sprintf("component: %s mounted before it rendered", n))
	}
}

func (n *Node) afterMount() {
	if len(n.parentClass) > 0 {
		if el := n.FirstNode(); el.IsElement() {
			n.addClass(el)
		}
		n.currentClass = n.parentClass
	}
	n.bindHandlers()
	n.markMounted()
}

// markMounted records that the node's block is in the tree and, when the
// node rendered in the committing batch, marks its fiber applied.
func (n *Node) markMounted() {
	if n.status == StatusNew {
		n.status = StatusMounted
	}
	a := n.app
	f := a.arena.fiber(n.fiber)
	if f == nil || f.root != a.committing {
		return
	}
	f.appliedToDom = true
	n.fiber = FiberID{}
	a.adoptChildren(n, f)
}

func (n *Node) bindHandlers() {
	if len(n.handlers) == 0 {
		return
	}
	el := n.FirstNode()
	if !el.IsElement() {
		return
	}
	for i := range n.handlers {
		idx := i
		unbind := el.AddEventListener(n.handlers[i].Event, func(ev dom.Event) {
			n.dispatch(idx, ev)
		})
		n.unbinders = append(n.unbinders, unbind)
	}
	n.boundTo = el
}

func (n *Node) dispatch(idx int, ev dom.Event) {
	if idx >= len(n.handlers) {
		return
	}
	h := n.handlers[idx]
	if h.Owner == nil {
		return
	}
	fn, ok := h.Owner.Method(h.Method)
	if !ok {
		err := errors.New("B201").WithDetailf("method %q for %q on component %s", h.Method, h.Event, n.typ.Name)
		n.app.logger.Error("event handler missing",
			"node", n.id.String(),
			"component", n.typ.Name,
			"event", h.Event,
			"method", h.Method,
			"error", err)
		return
	}
	fn(ev)
}

// MoveBefore implements block.Block.
func (n *Node) MoveBefore(anchor *dom.Node) {
	n.bdom.MoveBefore(anchor)
}

// Patch implements block.Block. A node is only ever patched with itself:
// it applies the render pending in the committing batch, if any, then
// reconciles parent classes.
func (n *Node) Patch(next block.Block) {
	if next != block.Block(n) {
		panic(fmt.Sprintf("component: cannot patch %s with %T", n, next))
	}
	n.applyPending()
	n.reconcileClasses()
}

// Persistent implements block.Persistent.
func (n *Node) Persistent() bool { return true }

// applyPending swaps in the block rendered for the committing batch. A
// render that belongs to another batch is left for that batch.
func (n *Node) applyPending() {
	a := n.app
	f := a.arena.fiber(n.fiber)
	if f != nil {
		if f.root != a.committing || n.nextBdom == nil {
			return
		}
	} else if n.nextBdom == nil {
		return
	}

	n.bdom = block.PatchChild(n.bdom, n.nextBdom)
	n.nextBdom = nil
	if f != nil {
		f.appliedToDom = true
		n.fiber = FiberID{}
		a.adoptChildren(n, f)
	}
}

func (n *Node) reconcileClasses() {
	if len(n.parentClass) == 0 && len(n.currentClass) == 0 {
		return
	}
	el := n.FirstNode()
	if !el.IsElement() {
		el = nil
	}
	if el != nil && el == n.classTarget {
		for _, c := range n.currentClass {
			if !containsClass(n.parentClass, c) {
				el.RemoveClass(c)
			}
		}
		for _, c := range n.parentClass {
			if !containsClass(n.currentClass, c) {
				el.AddClass(c)
			}
		}
		n.currentClass = n.parentClass
		return
	}

	if n.classTarget != nil {
		n.removeClass(n.classTarget)
		n.classTarget = nil
	}
	if el != nil {
		n.addClass(el)
	}
	n.currentClass = n.parentClass
}

func (n *Node) addClass(el *dom.Node) {
	n.classTarget = el
	for _, c := range n.parentClass {
		el.AddClass(c)
	}
}

func (n *Node) removeClass(el *dom.Node) {
	for _, c := range n.currentClass {
		el.RemoveClass(c)
	}
}

func containsClass(list []string, c string) bool {
	for _, v := range list {
		if v == c {
			return true
		}
	}
	return false
}

// BeforeRemove implements block.Block.
func (n *Node) BeforeRemove() {
	n.app.visitRemovedNodes(n)
}

// Remove implements block.Block.
func (n *Node) Remove() {
	for _, unbind := range n.unbinders {
		unbind()
	}
	n.unbinders = nil
	n.boundTo = nil
	if n.bdom != nil {
		n.bdom.Remove()
	}
}

// visitRemovedNodes runs willUnmount hooks for a subtree leaving the
// tree, marks it destroyed, and queues its destroyed hooks for the end of
// the commit.
func (a *App) visitRemovedNodes(n *Node) {
	if n.status == StatusDestroyed {
		return
	}
	if n.status == StatusMounted {
		a.callHooks(n, "willUnmount", n.willUnmount)
	}
	for _, k := range n.ChildKeys() {
		if child := a.arena.node(n.children[k]); child != nil {
			a.visitRemovedNodes(child)
		}
	}
	n.status = StatusDestroyed
	a.dropFiber(n)
	a.destroyedQueue = append(a.destroyedQueue, n.id)
}

// dropFiber abandons in-flight work of a destroyed node so no batch waits
// for it.
func (a *App) dropFiber(n *Node) {
	f := a.arena.fiber(n.fiber)
	if f == nil {
		return
	}
	n.fiber = FiberID{}
	n.nextBdom = nil
	if f.root == a.committing {
		return
	}

	if f.rf != nil {
		rs := f.rf
		f.rf = nil
		rs.completed = true
		c := a.cancelFibers(f.children, f.id)
		rs.cancelled += c
		rs.future.Reject(ErrNodeDestroyed)
		a.finishRoot(f, rs, OutcomeAbandoned, ErrNodeDestroyed, 0, 0)
		return
	}

	rs := a.rootOf(f)
	c := a.cancelFibers(f.children, f.root)
	f.children = nil
	f.cancelled = true
	if f.pending {
		f.pending = false
		c++
	}
	if rs != nil {
		rs.counter -= c
		rs.cancelled += c
		if rs.counter == 0 {
			a.scheduleComplete(f.root)
		}
	}
}
