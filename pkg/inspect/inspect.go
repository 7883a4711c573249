package inspect

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/bloc/pkg/component"
	"github.com/vango-dev/bloc/pkg/dom"
	"github.com/vango-dev/bloc/pkg/loop"
)

// ErrNoRoot is returned by /render when the app has no root node yet.
var ErrNoRoot = errors.New("inspect: app has no root node")

// Defaults.
const (
	DefaultWriteTimeout = 10 * time.Second
	DefaultSendBuffer   = 256
)

// Option configures an Inspector.
type Option func(*Inspector)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Inspector) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithGatherer exposes gatherer on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(i *Inspector) {
		i.gatherer = g
	}
}

// WithCheckOrigin sets the WebSocket origin check. The default accepts
// requests without an Origin header and same-host origins.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(i *Inspector) {
		i.upgrader.CheckOrigin = fn
	}
}

// WithWriteTimeout sets the deadline for each WebSocket write.
func WithWriteTimeout(d time.Duration) Option {
	return func(i *Inspector) {
		if d > 0 {
			i.writeTimeout = d
		}
	}
}

// WithSendBuffer sets how many frames may be queued per client before the
// client is dropped as too slow.
func WithSendBuffer(n int) Option {
	return func(i *Inspector) {
		if n > 0 {
			i.sendBuffer = n
		}
	}
}

// Inspector serves the state of one App.
type Inspector struct {
	app    *component.App
	doc    *dom.Document
	target *dom.Node
	loop   *loop.Loop
	logger *slog.Logger

	gatherer     prometheus.Gatherer
	upgrader     websocket.Upgrader
	writeTimeout time.Duration
	sendBuffer   int

	// Owned by the loop goroutine.
	clients   map[*client]struct{}
	seq       uint64
	unobserve func()
}

// New creates an inspector for app, which is (or will be) mounted into
// target.
func New(app *component.App, target *dom.Node, opts ...Option) *Inspector {
	i := &Inspector{
		app:          app,
		doc:          target.Document(),
		target:       target,
		loop:         app.Loop(),
		logger:       slog.Default(),
		writeTimeout: DefaultWriteTimeout,
		sendBuffer:   DefaultSendBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     SameOriginCheck,
		},
		clients: make(map[*client]struct{}),
	}
	for _, opt := range opts {
		opt(i)
	}
	i.logger = i.logger.With("app_id", app.ID())
	return i
}

// Handler returns the inspector routes.
func (i *Inspector) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/snapshot", i.handleSnapshot)
	r.Get("/html", i.handleHTML)
	r.Post("/render", i.handleRender)
	r.Get("/ws", i.handleWebSocket)
	if i.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(i.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// onLoop runs fn on the loop goroutine and waits for it.
func (i *Inspector) onLoop(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if err := i.loop.Submit(func() {
		fn()
		close(done)
	}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// state must run on the loop goroutine.
func (i *Inspector) state() *State {
	nodes, fibers := i.app.Stats()
	return &State{
		App:       i.app.ID(),
		Destroyed: i.app.Destroyed(),
		Root:      describe(i.app.Root()),
		Nodes:     nodes,
		Fibers:    fibers,
		Seq:       i.seq,
		Tree:      i.target.Snapshot(),
	}
}

// Snapshot returns the current state. It may be called from any goroutine.
func (i *Inspector) Snapshot(ctx context.Context) (*State, error) {
	var s *State
	if err := i.onLoop(ctx, func() { s = i.state() }); err != nil {
		return nil, err
	}
	return s, nil
}

func (i *Inspector) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	c := codecFor(r.URL.Query().Get("format"))
	s, err := i.Snapshot(r.Context())
	if err != nil {
		i.writeError(w, err)
		return
	}
	data, err := c.marshal(s)
	if err != nil {
		i.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", c.contentType)
	w.Write(data)
}

func (i *Inspector) handleHTML(w http.ResponseWriter, r *http.Request) {
	var html string
	if err := i.onLoop(r.Context(), func() { html = i.target.InnerHTML() }); err != nil {
		i.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}

func (i *Inspector) handleRender(w http.ResponseWriter, r *http.Request) {
	var fut *loop.Future[struct{}]
	if err := i.onLoop(r.Context(), func() {
		if root := i.app.Root(); root != nil {
			fut = root.Render()
		}
	}); err != nil {
		i.writeError(w, err)
		return
	}
	if fut == nil {
		i.writeError(w, ErrNoRoot)
		return
	}
	if _, err := fut.Wait(r.Context()); err != nil {
		i.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (i *Inspector) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, loop.ErrLoopClosed):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.Is(err, ErrNoRoot), errors.Is(err, component.ErrAppDestroyed):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		i.logger.Error("inspect request failed", "error", err)
	}
	http.Error(w, err.Error(), status)
}
