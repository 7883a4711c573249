package component

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/vango-dev/bloc/internal/errors"
)

// complete commits the batch rooted at rid once its counter is zero.
//
// Phases run in order: willPatch hooks of fibers still current, the DOM
// swap (patch, or mount for a mount fiber), mounted hooks and then
// patched hooks in reverse registration order for applied fibers, and
// finally the destroyed hooks of nodes removed along the way.
func (a *App) complete(rid FiberID) {
	if a.dead {
		return
	}
	r := a.arena.fiber(rid)
	if r == nil || r.rf == nil {
		return
	}
	rs := r.rf
	if rs.completed || rs.counter != 0 {
		return
	}
	rs.completed = true

	n := a.arena.node(r.node)
	if n == nil || n.status == StatusDestroyed {
		r.rf = nil
		rs.future.Reject(ErrNodeDestroyed)
		a.finishRoot(r, rs, OutcomeAbandoned, ErrNodeDestroyed, 0, 0)
		return
	}

	start := time.Now()
	a.hookErr = nil

	for _, id := range rs.willPatch {
		f := a.arena.fiber(id)
		if f == nil {
			continue
		}
		if m := a.arena.node(f.node); m != nil && m.fiber == id {
			a.callHooks(m, "willPatch", m.willPatch)
		}
	}

	a.committing = rid
	if rs.isMount() {
		n.Mount(rs.target)
	} else {
		n.applyPending()
		n.reconcileClasses()
	}
	r.appliedToDom = true
	a.committing = FiberID{}

	for len(rs.mounted) > 0 {
		id := rs.mounted[len(rs.mounted)-1]
		rs.mounted = rs.mounted[:len(rs.mounted)-1]
		if f := a.arena.fiber(id); f != nil && f.appliedToDom {
			if m := a.arena.node(f.node); m != nil {
				a.callHooks(m, "mounted", m.mounted)
			}
		}
	}

	for len(rs.patched) > 0 {
		id := rs.patched[len(rs.patched)-1]
		rs.patched = rs.patched[:len(rs.patched)-1]
		if f := a.arena.fiber(id); f != nil && f.appliedToDom {
			if m := a.arena.node(f.node); m != nil {
				a.callHooks(m, "patched", m.patched)
			}
		}
	}

	destroyed := a.flushDestroyed()

	if n.fiber == rid {
		n.fiber = FiberID{}
	}
	r.rf = nil
	apply := time.Since(start)

	if err := a.hookErr; err != nil {
		a.hookErr = nil
		rs.err = err
		rs.future.Reject(err)
		a.finishRoot(r, rs, OutcomeFailed, err, destroyed, apply)
		a.logger.Error("commit hook failed", "component", n.typ.Name, "error", err)
		a.Destroy()
		return
	}

	a.finishRoot(r, rs, OutcomeCommitted, nil, destroyed, apply)
	rs.future.Resolve(struct{}{})
	a.logger.Debug("commit finished",
		"root", rid.String(),
		"component", n.typ.Name,
		"mount", rs.isMount(),
		"fibers", len(rs.members),
		"cancelled", rs.cancelled,
		"duration", apply)

	if a.dev {
		if err := a.checkInvariants(); err != nil {
			panic(err)
		}
	}
}

// adoptChildren makes the children requested by f's render the children
// of n. Children the block diff removed are already destroyed; ones that
// were requested by an earlier render but never mounted are dropped here.
func (a *App) adoptChildren(n *Node, f *fiber) {
	if f.childMap == nil {
		return
	}
	for key, id := range n.children {
		if f.childMap[key] == id {
			continue
		}
		if c := a.arena.node(id); c != nil && c.status == StatusNew {
			a.visitRemovedNodes(c)
		}
	}
	n.children = f.childMap
	f.childMap = nil
}

// finishRoot reports the end of a batch and releases its fibers.
func (a *App) finishRoot(r *fiber, rs *rootFiber, outcome string, err error, destroyed int, apply time.Duration) {
	fibers := 0
	for _, id := range rs.members {
		f := a.arena.fiber(id)
		if f == nil || f.root != r.id {
			continue
		}
		if n := a.arena.node(f.node); n != nil && n.fiber == id {
			n.fiber = FiberID{}
			n.nextBdom = nil
		}
		a.arena.fibers.release(id)
		fibers++
	}

	a.observer.CommitFinished(CommitInfo{
		App:       a.id,
		Root:      r.id,
		Component: a.componentName(r.node),
		Mount:     rs.isMount(),
		Outcome:   outcome,
		Fibers:    fibers,
		Destroyed: destroyed,
		Start:     rs.started,
		Duration:  time.Since(rs.started),
		Apply:     apply,
		Err:       err,
	})
}

// flushDestroyed fires the destroyed hooks of every queued node and
// releases them. It returns how many nodes were flushed.
func (a *App) flushDestroyed() int {
	count := 0
	for len(a.destroyedQueue) > 0 {
		queue := a.destroyedQueue
		a.destroyedQueue = nil
		for _, id := range queue {
			n := a.arena.node(id)
			if n == nil {
				continue
			}
			a.callHooks(n, "destroyed", n.destroyed)
			a.releaseNode(n)
			count++
		}
	}
	return count
}

func (a *App) releaseNode(n *Node) {
	if p := a.arena.node(n.parent); p != nil {
		if id, ok := p.children[n.key]; ok && id == n.id {
			delete(p.children, n.key)
		}
	}
	a.arena.nodes.release(n.id)
}

// callHooks runs lifecycle hooks of n in registration order. A panic is
// recorded as the commit's hook error and the remaining hooks still run.
func (a *App) callHooks(n *Node, name string, hooks []func()) {
	for _, h := range hooks {
		if err := a.safeCall(n, name, h); err != nil && a.hookErr == nil {
			a.hookErr = err
		}
	}
}

func (a *App) safeCall(n *Node, name string, h func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &RenderError{
				Node:      n.id,
				Component: n.typ.Name,
				Phase:     name,
				Err:       errors.New("B103").WithDetail(fmt.Sprint(r)),
				Stack:     debug.Stack(),
			}
		}
	}()
	h()
	return nil
}

func (a *App) componentName(id NodeID) string {
	if n := a.arena.node(id); n != nil {
		return n.typ.Name
	}
	return ""
}

// checkInvariants verifies scheduler bookkeeping between batches.
func (a *App) checkInvariants() error {
	var err error
	a.arena.fibers.each(func(id FiberID, f *fiber) {
		if err != nil {
			return
		}
		if f.rf != nil && f.rf.counter < 0 {
			err = fmt.Errorf("component: root %s counter %d", id, f.rf.counter)
			return
		}
		if n := a.arena.node(f.node); n != nil && n.fiber.Valid() && n.fiber != id && !f.cancelled && f.pending {
			err = fmt.Errorf("component: node %s has fiber %s but %s is pending", n.id, n.fiber, id)
		}
	})
	a.arena.nodes.each(func(id NodeID, n *Node) {
		if err != nil {
			return
		}
		if n.fiber.Valid() && a.arena.fiber(n.fiber) == nil {
			err = fmt.Errorf("component: node %s points at released fiber %s", id, n.fiber)
		}
	})
	return err
}
