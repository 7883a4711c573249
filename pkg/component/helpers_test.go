package component

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/vango-dev/bloc/pkg/block"
	"github.com/vango-dev/bloc/pkg/dom"
	"github.com/vango-dev/bloc/pkg/loop"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func runIdle(t *testing.T, l *loop.Loop) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.RunUntilIdle(ctx); err != nil {
		t.Fatalf("RunUntilIdle: %v", err)
	}
}

// recordingObserver keeps scheduler events for assertions.
type recordingObserver struct {
	roots     []RootInfo
	renders   []RenderInfo
	commits   []CommitInfo
	cancelled int
}

func (r *recordingObserver) RootStarted(info RootInfo)      { r.roots = append(r.roots, info) }
func (r *recordingObserver) RenderFinished(info RenderInfo) { r.renders = append(r.renders, info) }
func (r *recordingObserver) CommitFinished(info CommitInfo) { r.commits = append(r.commits, info) }
func (r *recordingObserver) FibersCancelled(_ string, n int) {
	r.cancelled += n
}

func (r *recordingObserver) count(outcome string, mount bool) int {
	n := 0
	for _, c := range r.commits {
		if c.Outcome == outcome && c.Mount == mount {
			n++
		}
	}
	return n
}

// harness mounts a component into a fresh document.
type harness struct {
	t    *testing.T
	doc  *dom.Document
	loop *loop.Loop
	obs  *recordingObserver
	app  *App
}

func newHarness(t *testing.T, root *Type, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		t:    t,
		doc:  dom.NewDocument(),
		loop: loop.New(),
		obs:  &recordingObserver{},
	}
	opts = append([]Option{
		WithLoop(h.loop),
		WithLogger(quietLogger()),
		WithObserver(h.obs),
		WithDev(true),
	}, opts...)
	h.app = NewApp(root, opts...)
	return h
}

func (h *harness) mount() *Node {
	h.t.Helper()
	fut := h.app.Mount(h.doc.Body())
	runIdle(h.t, h.loop)
	n, err, ok := fut.Result()
	if !ok {
		h.t.Fatal("mount future not settled")
	}
	if err != nil {
		h.t.Fatalf("mount: %v", err)
	}
	return n
}

func (h *harness) html() string {
	return h.doc.Body().InnerHTML()
}

// events is an ordered log of hook calls.
type events []string

func (e *events) add(format string, args ...any) {
	*e = append(*e, fmt.Sprintf(format, args...))
}

func (e events) count(s string) int {
	n := 0
	for _, v := range e {
		if v == s {
			n++
		}
	}
	return n
}

func (e events) index(s string) int {
	for i, v := range e {
		if v == s {
			return i
		}
	}
	return -1
}

// hooked registers every synchronous hook of s onto log.
func hooked(s *Setup, name string, log *events) {
	s.OnMounted(func() { log.add("%s:mounted", name) })
	s.OnWillPatch(func() { log.add("%s:willPatch", name) })
	s.OnPatched(func() { log.add("%s:patched", name) })
	s.OnWillUnmount(func() { log.add("%s:willUnmount", name) })
	s.OnDestroyed(func() { log.add("%s:destroyed", name) })
}

// labelType renders <span>{v}</span>.
func labelType(name string, log *events, renders *int) *Type {
	return &Type{
		Name: name,
		Setup: func(s *Setup) RenderFunc {
			if log != nil {
				hooked(s, name, log)
			}
			return func(p Props) (block.Block, error) {
				if renders != nil {
					*renders++
				}
				return block.Element("span", nil, block.Text(fmt.Sprint(p["v"]))), nil
			}
		},
	}
}
