package loop

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrLoopClosed is returned when work is submitted to a closed loop.
	ErrLoopClosed = errors.New("loop: closed")

	// ErrLoopRunning is returned when Run is called while another Run or
	// RunUntilIdle is active.
	ErrLoopRunning = errors.New("loop: already running")
)

// DefaultIngressSize is the default capacity of the ingress queue.
const DefaultIngressSize = 256

// Option configures a Loop.
type Option func(*Loop)

// WithIngressSize sets the capacity of the thread-safe ingress queue.
func WithIngressSize(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.ingressSize = n
		}
	}
}

// Loop is a cooperative single-goroutine scheduler.
//
// Queue and Go must be called from the goroutine driving the loop (or
// before it starts). Submit may be called from anywhere.
type Loop struct {
	microtasks []func()
	ingress    chan func()

	ingressSize int

	// inflight counts Go work whose completion has not been delivered.
	inflight int

	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once
	closed    chan struct{}

	runMu   sync.Mutex
	running bool

	ticks uint64
}

// New creates a loop.
func New(opts ...Option) *Loop {
	l := &Loop{ingressSize: DefaultIngressSize, closed: make(chan struct{})}
	for _, opt := range opts {
		opt(l)
	}
	l.ingress = make(chan func(), l.ingressSize)
	l.ctx, l.cancel = context.WithCancel(context.Background())
	return l
}

// Queue schedules fn as a microtask. It runs after every microtask queued
// before it, in the same drain.
func (l *Loop) Queue(fn func()) {
	l.microtasks = append(l.microtasks, fn)
}

// Pending returns the number of queued microtasks.
func (l *Loop) Pending() int {
	return len(l.microtasks)
}

// Inflight returns the number of Go calls whose completion has not run.
func (l *Loop) Inflight() int {
	return l.inflight
}

// Ticks returns how many tasks the loop has executed.
func (l *Loop) Ticks() uint64 {
	return l.ticks
}

// Submit schedules fn from any goroutine. It blocks while the ingress
// queue is full.
func (l *Loop) Submit(fn func()) error {
	select {
	case <-l.closed:
		return ErrLoopClosed
	default:
	}
	select {
	case l.ingress <- fn:
		return nil
	case <-l.closed:
		return ErrLoopClosed
	}
}

// Go runs work on a new goroutine and delivers done(err) on the loop. The
// loop counts as busy until done has run. The context passed to work is
// cancelled when the loop closes.
func (l *Loop) Go(work func(ctx context.Context) error, done func(error)) {
	l.inflight++
	go func() {
		err := work(l.ctx)
		finish := func() {
			l.inflight--
			done(err)
		}
		select {
		case l.ingress <- finish:
		case <-l.closed:
		}
	}()
}

// Drain runs queued microtasks until the queue is empty, including
// microtasks queued while draining.
func (l *Loop) Drain() {
	for len(l.microtasks) > 0 {
		fn := l.microtasks[0]
		l.microtasks[0] = nil
		l.microtasks = l.microtasks[1:]
		l.run(fn)
	}
	l.microtasks = nil
}

func (l *Loop) run(fn func()) {
	l.ticks++
	fn()
}

func (l *Loop) acquire() error {
	l.runMu.Lock()
	defer l.runMu.Unlock()
	if l.running {
		return ErrLoopRunning
	}
	l.running = true
	return nil
}

func (l *Loop) release() {
	l.runMu.Lock()
	l.running = false
	l.runMu.Unlock()
}

// RunUntilIdle processes microtasks and ingress until nothing is queued
// and no Go work is outstanding. It returns ctx.Err() if ctx ends first.
func (l *Loop) RunUntilIdle(ctx context.Context) error {
	if err := l.acquire(); err != nil {
		return err
	}
	defer l.release()

	for {
		l.Drain()

		select {
		case fn := <-l.ingress:
			l.run(fn)
			continue
		default:
		}

		if l.inflight == 0 {
			return nil
		}

		select {
		case fn := <-l.ingress:
			l.run(fn)
		case <-ctx.Done():
			return ctx.Err()
		case <-l.closed:
			return ErrLoopClosed
		}
	}
}

// Run processes work until ctx ends or the loop is closed.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.acquire(); err != nil {
		return err
	}
	defer l.release()

	for {
		l.Drain()
		select {
		case fn := <-l.ingress:
			l.run(fn)
		case <-ctx.Done():
			return ctx.Err()
		case <-l.closed:
			return nil
		}
	}
}

// Close stops the loop and cancels the context given to Go work. Queued
// work is dropped.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		close(l.closed)
		l.cancel()
	})
}

// Closed reports whether Close has been called.
func (l *Loop) Closed() bool {
	select {
	case <-l.closed:
		return true
	default:
		return false
	}
}
