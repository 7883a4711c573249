package bloctest

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/bloc/pkg/component"
	"github.com/vango-dev/bloc/pkg/dom"
	"github.com/vango-dev/bloc/pkg/loop"
)

// DefaultTimeout bounds each Idle call.
const DefaultTimeout = 5 * time.Second

type config struct {
	appOpts []component.Option
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Harness.
type Option func(*config)

// WithEnv sets the app environment.
func WithEnv(env any) Option {
	return func(c *config) {
		c.appOpts = append(c.appOpts, component.WithEnv(env))
	}
}

// WithProps sets the root props.
func WithProps(props component.Props) Option {
	return func(c *config) {
		c.appOpts = append(c.appOpts, component.WithProps(props))
	}
}

// WithObserver adds a scheduler observer.
func WithObserver(o component.Observer) Option {
	return func(c *config) {
		c.appOpts = append(c.appOpts, component.WithObserver(o))
	}
}

// WithLogger replaces the default discarding logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithTimeout bounds each Idle call.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// Harness is a mounted app driven synchronously by the test goroutine.
type Harness struct {
	tb      testing.TB
	timeout time.Duration

	Loop      *loop.Loop
	Doc       *dom.Document
	App       *component.App
	Root      *component.Node
	Mutations *dom.Recorder
}

// Mount mounts typ into a new document and waits for the first commit.
// The app runs in dev mode, so scheduler invariants are checked after
// every commit.
func Mount(tb testing.TB, typ *component.Type, opts ...Option) *Harness {
	tb.Helper()
	cfg := config{
		timeout: DefaultTimeout,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	h := &Harness{
		tb:        tb,
		timeout:   cfg.timeout,
		Loop:      loop.New(),
		Doc:       dom.NewDocument(),
		Mutations: &dom.Recorder{},
	}
	h.Doc.Observe(h.Mutations)

	appOpts := append([]component.Option{
		component.WithLoop(h.Loop),
		component.WithLogger(cfg.logger),
		component.WithDev(true),
	}, cfg.appOpts...)
	h.App = component.NewApp(typ, appOpts...)
	tb.Cleanup(h.Loop.Close)

	fut := h.App.Mount(h.Doc.Body())
	h.Idle()
	root, err, ok := fut.Result()
	if !ok {
		tb.Fatalf("mount of %s did not settle", typ.Name)
	}
	if err != nil {
		tb.Fatalf("mount of %s: %v", typ.Name, err)
	}
	h.Root = root
	return h
}

// Idle runs the loop until no work is queued or outstanding.
func (h *Harness) Idle() {
	h.tb.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	if err := h.Loop.RunUntilIdle(ctx); err != nil {
		h.tb.Fatalf("loop did not go idle: %v", err)
	}
}

// Do runs fn and then Idle.
func (h *Harness) Do(fn func()) {
	h.tb.Helper()
	fn()
	h.Idle()
}

// Await runs the loop until idle and returns the outcome of fut.
func (h *Harness) Await(fut *loop.Future[struct{}]) error {
	h.tb.Helper()
	h.Idle()
	_, err, ok := fut.Result()
	if !ok {
		h.tb.Fatal("future did not settle")
	}
	return err
}

// Render re-renders the root and waits for the commit.
func (h *Harness) Render() error {
	h.tb.Helper()
	return h.Await(h.Root.Render())
}

// Dispatch sends an event to the first element with the given tag.
func (h *Harness) Dispatch(tag, event string) {
	h.tb.Helper()
	el := h.Doc.Body().Find(tag)
	if el == nil {
		h.tb.Fatalf("no <%s> element in:\n%s", tag, truncate(h.HTML(), 500))
	}
	if n := el.Dispatch(dom.Event{Type: event}); n == 0 {
		h.tb.Fatalf("no %q listener on <%s>", event, tag)
	}
	h.Idle()
}

// Click dispatches a click to the first element with the given tag.
func (h *Harness) Click(tag string) {
	h.tb.Helper()
	h.Dispatch(tag, "click")
}

// HTML returns the rendered content of the mount target.
func (h *Harness) HTML() string {
	return h.Doc.Body().InnerHTML()
}

// ResetMutations forgets recorded mutations.
func (h *Harness) ResetMutations() {
	h.Mutations.Reset()
}

// ExpectHTML asserts the rendered content equals want.
func (h *Harness) ExpectHTML(want string) {
	h.tb.Helper()
	if got := h.HTML(); got != want {
		h.tb.Errorf("html =\n  %s\nwant\n  %s", got, want)
	}
}

// ExpectContains asserts that rendered output contains expected.
func (h *Harness) ExpectContains(expected string) {
	h.tb.Helper()
	if html := h.HTML(); !strings.Contains(html, expected) {
		h.tb.Errorf("expected rendered output to contain %q, got:\n%s", expected, truncate(html, 500))
	}
}

// ExpectNotContains asserts that rendered output does not contain unexpected.
func (h *Harness) ExpectNotContains(unexpected string) {
	h.tb.Helper()
	if html := h.HTML(); strings.Contains(html, unexpected) {
		h.tb.Errorf("expected rendered output to NOT contain %q, got:\n%s", unexpected, truncate(html, 500))
	}
}

// ExpectElement asserts that an element with the given tag is rendered.
func (h *Harness) ExpectElement(tag string) {
	h.tb.Helper()
	if h.Doc.Body().Find(tag) == nil {
		h.tb.Errorf("expected rendered output to contain <%s> element, got:\n%s", tag, truncate(h.HTML(), 500))
	}
}

// ExpectAttribute asserts the first element with tag has attr=value.
func (h *Harness) ExpectAttribute(tag, attr, value string) {
	h.tb.Helper()
	el := h.Doc.Body().Find(tag)
	if el == nil {
		h.tb.Errorf("no <%s> element in:\n%s", tag, truncate(h.HTML(), 500))
		return
	}
	if got, ok := el.Attr(attr); !ok || got != value {
		h.tb.Errorf("<%s> %s = %q (set=%v), want %q", tag, attr, got, ok, value)
	}
}

// ExpectMutations asserts how many mutations of op were recorded.
func (h *Harness) ExpectMutations(op dom.Op, n int) {
	h.tb.Helper()
	if got := h.Mutations.Count(op); got != n {
		h.tb.Errorf("%s mutations = %d, want %d", op, got, n)
	}
}

// ExpectStats asserts the number of live nodes and fibers.
func (h *Harness) ExpectStats(nodes, fibers int) {
	h.tb.Helper()
	if n, f := h.App.Stats(); n != nodes || f != fibers {
		h.tb.Errorf("Stats() = %d nodes, %d fibers, want %d, %d", n, f, nodes, fibers)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
