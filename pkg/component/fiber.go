package component

import (
	"slices"
	"time"

	"github.com/vango-dev/bloc/pkg/block"
	"github.com/vango-dev/bloc/pkg/dom"
	"github.com/vango-dev/bloc/pkg/loop"
)

// fiber is pending render work for one node within one batch.
//
// A fiber is pending from creation (or reuse) until its node renders, and
// counts towards its root's counter exactly while pending.
type fiber struct {
	id       FiberID
	node     NodeID
	parent   FiberID
	children []FiberID
	root     FiberID

	bdom     block.Block
	childMap map[string]NodeID

	pending      bool
	appliedToDom bool
	cancelled    bool

	// seq changes whenever the fiber is reset, so asynchronous hook
	// completions can tell they are stale.
	seq uint64

	rf *rootFiber // non-nil while the fiber governs a batch
}

// rootFiber is the batch state carried by a root fiber. A root with a
// target is a mount fiber: its commit mounts instead of patching.
type rootFiber struct {
	counter int
	err     error
	future  *loop.Future[struct{}]

	// Only fibers whose node registered the matching hooks.
	willPatch []FiberID
	patched   []FiberID
	mounted   []FiberID

	target *dom.Node

	members   []FiberID
	cancelled int
	completed bool
	started   time.Time
}

func (r *rootFiber) isMount() bool { return r.target != nil }

func (r *rootFiber) addMember(id FiberID) {
	r.members = append(r.members, id)
}

func register(list []FiberID, id FiberID) []FiberID {
	if slices.Contains(list, id) {
		return list
	}
	return append(list, id)
}

// rootOf returns the batch state of the root f belongs to.
func (a *App) rootOf(f *fiber) *rootFiber {
	if r := a.arena.fiber(f.root); r != nil {
		return r.rf
	}
	return nil
}

// newFiber creates a pending fiber for n under parent and counts it in
// the parent's root.
func (a *App) newFiber(n *Node, parent *fiber) *fiber {
	f := &fiber{node: n.id, parent: parent.id, root: parent.root, pending: true}
	f.id = a.arena.fibers.insert(f)
	n.fiber = f.id
	parent.children = append(parent.children, f.id)
	if rs := a.rootOf(parent); rs != nil {
		rs.counter++
		rs.addMember(f.id)
	}
	return f
}

// newRootFiber creates a batch for n. A non-nil target makes it a mount
// fiber.
func (a *App) newRootFiber(n *Node, target *dom.Node) *fiber {
	f := &fiber{node: n.id, pending: true}
	f.id = a.arena.fibers.insert(f)
	f.root = f.id
	f.rf = &rootFiber{
		counter: 1,
		future:  loop.NewFuture[struct{}](a.loop),
		target:  target,
		started: time.Now(),
	}
	f.rf.addMember(f.id)
	n.fiber = f.id

	if target != nil {
		if len(n.mounted) > 0 {
			f.rf.mounted = append(f.rf.mounted, f.id)
		}
	} else {
		if len(n.willPatch) > 0 {
			f.rf.willPatch = append(f.rf.willPatch, f.id)
		}
		if len(n.patched) > 0 {
			f.rf.patched = append(f.rf.patched, f.id)
		}
	}

	a.observer.RootStarted(RootInfo{App: a.id, Root: f.id, Component: n.typ.Name, Mount: target != nil})
	return f
}

// makeChildFiber returns the fiber that re-renders n as part of parent's
// batch. An active fiber is reused: its unfinished descendants are
// cancelled against its old root, and it moves into the new batch.
func (a *App) makeChildFiber(n *Node, parent *fiber) *fiber {
	cur := a.arena.fiber(n.fiber)
	if cur == nil {
		return a.newFiber(n, parent)
	}

	oldRootID := cur.root
	old := a.rootOf(cur)
	newRootID := parent.root
	nr := a.rootOf(parent)

	c := a.cancelFibers(cur.children, newRootID)
	cur.children = nil
	if old != nil {
		old.counter -= c
		old.cancelled += c
	}
	if cur.pending {
		if old != nil {
			old.counter--
		}
	} else {
		cur.pending = true
		cur.bdom = nil
		n.nextBdom = nil
	}
	nr.counter++
	cur.seq++
	cur.childMap = nil

	if p := a.arena.fiber(cur.parent); p != nil {
		p.children = slices.DeleteFunc(p.children, func(id FiberID) bool { return id == cur.id })
	}
	cur.parent = parent.id
	parent.children = append(parent.children, cur.id)

	if oldRootID != newRootID {
		cur.root = newRootID
		nr.addMember(cur.id)
		if cur.rf != nil {
			a.adoptRoot(cur, parent.root)
		} else if old != nil && old.counter == 0 {
			a.scheduleComplete(oldRootID)
		}
	}
	return cur
}

// adoptRoot folds the batch governed by f into the batch rooted at into.
// The adopted batch never commits on its own; its future settles with
// the adopting batch.
func (a *App) adoptRoot(f *fiber, into FiberID) {
	rs := f.rf
	f.rf = nil
	rs.completed = true

	target := a.arena.fiber(into)
	for _, id := range rs.members {
		m := a.arena.fiber(id)
		if m == nil || m.root != f.id {
			continue
		}
		m.root = into
		target.rf.addMember(id)
	}
	loop.Pipe(target.rf.future, rs.future)

	a.observer.CommitFinished(CommitInfo{
		App:       a.id,
		Root:      f.id,
		Component: a.componentName(f.node),
		Outcome:   OutcomeAdopted,
		Fibers:    len(rs.members),
		Start:     rs.started,
		Duration:  time.Since(rs.started),
	})
}

// makeRootFiber returns the fiber that re-renders n as a batch root. An
// active fiber is reused in place: its root stays, its unfinished
// descendants are cancelled and its produced block is discarded.
func (a *App) makeRootFiber(n *Node) *fiber {
	cur := a.arena.fiber(n.fiber)
	if cur == nil {
		return a.newRootFiber(n, nil)
	}

	rs := a.rootOf(cur)
	c := a.cancelFibers(cur.children, cur.root)
	cur.children = nil
	if rs != nil {
		rs.counter -= c
		rs.cancelled += c
		if !cur.pending {
			rs.counter++
		}
	}
	cur.pending = true
	cur.bdom = nil
	cur.childMap = nil
	cur.seq++
	n.nextBdom = nil
	return cur
}

// cancelFibers detaches every fiber in ids and its descendants from
// their nodes and reparents them onto root. It returns how many of them
// were still pending; the caller subtracts that from the counter they
// were counted in.
func (a *App) cancelFibers(ids []FiberID, root FiberID) int {
	n := a.cancelWalk(ids, root)
	if n > 0 {
		a.observer.FibersCancelled(a.id, n)
	}
	return n
}

func (a *App) cancelWalk(ids []FiberID, root FiberID) int {
	result := 0
	for _, id := range ids {
		f := a.arena.fiber(id)
		if f == nil {
			continue
		}
		if n := a.arena.node(f.node); n != nil && n.fiber == id {
			n.fiber = FiberID{}
			n.nextBdom = nil
		}
		f.cancelled = true
		if f.root != root {
			f.root = root
			if r := a.arena.fiber(root); r != nil && r.rf != nil {
				r.rf.addMember(id)
			}
		}
		if f.pending {
			f.pending = false
			result++
		}
		result += a.cancelWalk(f.children, root)
		f.children = nil
	}
	return result
}

// settle decrements the counter of f's root after f stops being pending,
// and schedules the commit once the counter reaches zero.
func (a *App) settle(f *fiber) {
	if !f.pending {
		return
	}
	f.pending = false
	rs := a.rootOf(f)
	if rs == nil {
		return
	}
	rs.counter--
	if a.dev && rs.counter < 0 {
		panic("component: root counter below zero")
	}
	if rs.counter == 0 {
		a.scheduleComplete(f.root)
	}
}

func (a *App) scheduleComplete(root FiberID) {
	a.loop.Queue(func() { a.complete(root) })
}
