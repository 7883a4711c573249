package component

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/vango-dev/bloc/pkg/dom"
	"github.com/vango-dev/bloc/pkg/loop"
)

var appSeq atomic.Uint64

// App owns one component tree, its arena, and the loop it renders on.
// All methods except ID must be called on the loop goroutine.
type App struct {
	id       string
	loop     *loop.Loop
	logger   *slog.Logger
	observer Observer
	env      any
	props    Props
	dev      bool

	rootType *Type
	root     *Node
	arena    arena

	// committing is the root whose commit is applying blocks right now.
	committing FiberID

	// Nodes destroyed since the last flush; their destroyed hooks run at
	// the end of the next commit.
	destroyedQueue []NodeID

	hookErr error
	dead    bool
}

// Option configures an App.
type Option func(*App)

// WithEnv sets the environment shared by every component.
func WithEnv(env any) Option {
	return func(a *App) { a.env = env }
}

// WithProps sets the root component's props.
func WithProps(props Props) Option {
	return func(a *App) { a.props = props }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithObserver adds an observer of scheduler events.
func WithObserver(o Observer) Option {
	return func(a *App) {
		if o == nil {
			return
		}
		if _, nop := a.observer.(NopObserver); nop {
			a.observer = o
			return
		}
		a.observer = Observers{a.observer, o}
	}
}

// WithLoop sets the loop to render on. Defaults to a new loop.
func WithLoop(l *loop.Loop) Option {
	return func(a *App) { a.loop = l }
}

// WithDev enables bookkeeping checks after every commit.
func WithDev(dev bool) Option {
	return func(a *App) { a.dev = dev }
}

// NewApp creates an app whose root component is root.
func NewApp(root *Type, opts ...Option) *App {
	a := &App{
		id:       fmt.Sprintf("app-%d", appSeq.Add(1)),
		rootType: root,
		logger:   slog.Default(),
		observer: NopObserver{},
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.loop == nil {
		a.loop = loop.New()
	}
	a.logger = a.logger.With("app_id", a.id)
	return a
}

// ID returns the app identifier used in logs and metrics.
func (a *App) ID() string { return a.id }

// Loop returns the loop the app renders on.
func (a *App) Loop() *loop.Loop { return a.loop }

// Root returns the root node, or nil before Mount.
func (a *App) Root() *Node { return a.root }

// Destroyed reports whether the app has been torn down.
func (a *App) Destroyed() bool { return a.dead }

// Stats reports arena occupancy.
func (a *App) Stats() (nodes, fibers int) {
	return a.arena.nodes.len(), a.arena.fibers.len()
}

// Mount renders the root component and mounts it into target. The future
// resolves with the root node once the mount commit has run.
func (a *App) Mount(target *dom.Node) *loop.Future[*Node] {
	result := loop.NewFuture[*Node](a.loop)
	switch {
	case a.dead:
		result.Reject(ErrAppDestroyed)
		return result
	case a.root != nil:
		result.Reject(ErrAlreadyMounted)
		return result
	case target == nil:
		result.Reject(fmt.Errorf("component: mount: nil target"))
		return result
	}

	n, err := a.newNode(a.rootType, a.props, nil, "")
	if err != nil {
		a.logger.Error("mount failed", "error", err)
		result.Reject(err)
		a.Destroy()
		return result
	}
	a.root = n

	f := a.newRootFiber(n, target)
	f.rf.future.Then(func(_ struct{}, err error) {
		if err != nil {
			result.Reject(err)
			return
		}
		a.logger.Info("app mounted", "component", n.typ.Name, "node", n.id.String())
		result.Resolve(n)
	})
	a.initiateRender(n, f)
	return result
}

// Destroy tears the app down: mounted nodes get their willUnmount hooks
// and leave the tree, every node gets its destroyed hooks, and batches
// still in flight are rejected with ErrAppDestroyed.
func (a *App) Destroy() {
	if a.dead {
		return
	}
	a.dead = true

	if root := a.root; root != nil && root.status != StatusDestroyed {
		if root.status == StatusMounted {
			a.callWillUnmount(root)
			root.Remove()
		}
		a.callDestroyed(root)
	}

	a.arena.fibers.each(func(id FiberID, f *fiber) {
		if f.rf == nil || f.rf.completed {
			return
		}
		rs := f.rf
		rs.completed = true
		rs.future.Reject(ErrAppDestroyed)
		a.observer.CommitFinished(CommitInfo{
			App:       a.id,
			Root:      id,
			Component: a.componentName(f.node),
			Mount:     rs.isMount(),
			Outcome:   OutcomeAbandoned,
			Start:     rs.started,
			Err:       ErrAppDestroyed,
		})
	})

	a.flushDestroyed()
	a.hookErr = nil
	a.logger.Info("app destroyed")
}

func (a *App) callWillUnmount(n *Node) {
	a.callHooks(n, "willUnmount", n.willUnmount)
	for _, k := range n.ChildKeys() {
		if child := a.arena.node(n.children[k]); child != nil && child.status == StatusMounted {
			a.callWillUnmount(child)
		}
	}
}

func (a *App) callDestroyed(n *Node) {
	if n.status == StatusDestroyed {
		return
	}
	n.status = StatusDestroyed
	n.fiber = FiberID{}
	for _, k := range n.ChildKeys() {
		if child := a.arena.node(n.children[k]); child != nil {
			a.callDestroyed(child)
		}
	}
	a.callHooks(n, "destroyed", n.destroyed)
}

// Config holds the recognised options of Mount.
type Config struct {
	Env    any
	Target *dom.Node
	Props  Props
}

// Mount creates an app for typ and mounts it into cfg.Target.
func Mount(typ *Type, cfg Config, opts ...Option) (*App, *loop.Future[*Node]) {
	opts = append([]Option{WithEnv(cfg.Env), WithProps(cfg.Props)}, opts...)
	a := NewApp(typ, opts...)
	return a, a.Mount(cfg.Target)
}
