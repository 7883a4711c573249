package component

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vango-dev/bloc/pkg/block"
	"github.com/vango-dev/bloc/pkg/loop"
)

func TestWillStartDelaysFirstRender(t *testing.T) {
	var ready atomic.Bool
	release := make(chan struct{})
	child := &Type{
		Name: "Child",
		Setup: func(s *Setup) RenderFunc {
			s.OnWillStart(func(ctx context.Context) error {
				select {
				case <-release:
				case <-ctx.Done():
					return ctx.Err()
				}
				ready.Store(true)
				return nil
			})
			return func(p Props) (block.Block, error) {
				if !ready.Load() {
					return nil, errors.New("rendered before willStart finished")
				}
				return block.Text("loaded"), nil
			}
		},
	}
	st := &parentState{v: 1, show: true}
	h := newHarness(t, parentType(st, child, nil, nil))

	fut := h.app.Mount(h.doc.Body())
	h.loop.Drain()
	if _, _, ok := fut.Result(); ok {
		t.Fatal("mount settled before willStart finished")
	}
	if got := h.html(); got != "" {
		t.Fatalf("html = %q before commit, want empty", got)
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		close(release)
	}()
	runIdle(t, h.loop)

	if _, err, ok := fut.Result(); !ok || err != nil {
		t.Fatalf("mount = %v, %v", err, ok)
	}
	if got, want := h.html(), "<div>loaded</div>"; got != want {
		t.Errorf("html = %q, want %q", got, want)
	}
}

func TestWillStartErrorRejectsMount(t *testing.T) {
	boom := errors.New("boom")
	var log events
	child := &Type{
		Name: "Child",
		Setup: func(s *Setup) RenderFunc {
			hooked(s, "Child", &log)
			s.OnWillStart(func(context.Context) error { return boom })
			return func(p Props) (block.Block, error) { return block.Text("x"), nil }
		},
	}
	st := &parentState{v: 1, show: true}
	h := newHarness(t, parentType(st, child, &log, nil))

	fut := h.app.Mount(h.doc.Body())
	runIdle(t, h.loop)

	_, err, ok := fut.Result()
	if !ok || !errors.Is(err, boom) {
		t.Fatalf("mount = %v, %v; want boom", err, ok)
	}
	var re *RenderError
	if !errors.As(err, &re) || re.Phase != "willStart" || re.Component != "Child" {
		t.Errorf("render error = %#v", re)
	}
	if !h.app.Destroyed() {
		t.Error("app not destroyed")
	}
	if log.count("Child:mounted")+log.count("Parent:mounted") != 0 {
		t.Errorf("mounted hooks fired: %v", log)
	}
	if log.count("Child:destroyed") != 1 || log.count("Parent:destroyed") != 1 {
		t.Errorf("destroyed hooks = %v", log)
	}
	if got := h.html(); got != "" {
		t.Errorf("html = %q, want empty", got)
	}
}

func TestSupersededWillUpdatePropsCommitsOnce(t *testing.T) {
	gates := map[int]chan struct{}{2: make(chan struct{}), 3: make(chan struct{})}
	var rendered []int
	child := &Type{
		Name: "Child",
		Setup: func(s *Setup) RenderFunc {
			s.OnWillUpdateProps(func(ctx context.Context, next Props) error {
				select {
				case <-gates[next["v"].(int)]:
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			})
			return func(p Props) (block.Block, error) {
				v := p["v"].(int)
				rendered = append(rendered, v)
				return block.Element("span", nil, block.Text(string(rune('0'+v)))), nil
			}
		},
	}
	st := &parentState{v: 1, show: true}
	h := newHarness(t, parentType(st, child, nil, nil))
	root := h.mount()

	st.v = 2
	f1 := root.Render()
	h.loop.Drain()
	if !root.HasFiber() || !root.Child("a").HasFiber() {
		t.Fatal("batch not waiting on the child")
	}

	st.v = 3
	f2 := root.Render()
	h.loop.Drain()

	close(gates[3])
	close(gates[2])
	runIdle(t, h.loop)

	for i, f := range []interface {
		Result() (struct{}, error, bool)
	}{f1, f2} {
		if _, err, ok := f.Result(); !ok || err != nil {
			t.Errorf("future %d = %v, %v", i+1, err, ok)
		}
	}
	if len(rendered) != 2 || rendered[0] != 1 || rendered[1] != 3 {
		t.Errorf("child rendered %v, want [1 3]", rendered)
	}
	if n := h.obs.count(OutcomeCommitted, false); n != 1 {
		t.Errorf("update commits = %d, want 1", n)
	}
	if h.obs.cancelled < 1 {
		t.Errorf("cancelled fibers = %d, want >= 1", h.obs.cancelled)
	}
	if got, want := h.html(), "<div><span>3</span></div>"; got != want {
		t.Errorf("html = %q, want %q", got, want)
	}
	if root.Child("a").Props()["v"] != 3 {
		t.Errorf("child props = %v", root.Child("a").Props())
	}
	if _, fibers := h.app.Stats(); fibers != 0 {
		t.Errorf("live fibers = %d, want 0", fibers)
	}
}

func TestRenderErrorTearsDownApp(t *testing.T) {
	boom := errors.New("boom")
	var log events
	child := &Type{
		Name: "Child",
		Setup: func(s *Setup) RenderFunc {
			hooked(s, "Child", &log)
			return func(p Props) (block.Block, error) {
				if p["v"] == 3 {
					return nil, boom
				}
				return block.Text("ok"), nil
			}
		},
	}
	st := &parentState{v: 1, show: true}
	h := newHarness(t, parentType(st, child, &log, nil))
	root := h.mount()
	log = nil

	st.v = 3
	fut := root.Render()
	runIdle(t, h.loop)

	_, err, ok := fut.Result()
	if !ok || !errors.Is(err, boom) {
		t.Fatalf("render = %v, %v; want boom", err, ok)
	}
	var re *RenderError
	if !errors.As(err, &re) || re.Component != "Child" || re.Phase != "render" {
		t.Errorf("render error = %#v", re)
	}
	if !h.app.Destroyed() {
		t.Fatal("app not destroyed")
	}
	want := []string{"Parent:willUnmount", "Child:willUnmount", "Child:destroyed", "Parent:destroyed"}
	if len(log) != len(want) {
		t.Fatalf("hooks = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("hook %d = %s, want %s", i, log[i], want[i])
		}
	}
	if got := h.html(); got != "" {
		t.Errorf("html = %q, want empty", got)
	}

	again := root.Render()
	if _, err, _ := again.Result(); !errors.Is(err, ErrAppDestroyed) {
		t.Errorf("render after destroy = %v, want ErrAppDestroyed", err)
	}
}

func TestRenderPanicIsRecovered(t *testing.T) {
	root := &Type{
		Name: "Root",
		Setup: func(s *Setup) RenderFunc {
			return func(p Props) (block.Block, error) {
				panic("kaboom")
			}
		},
	}
	h := newHarness(t, root)
	fut := h.app.Mount(h.doc.Body())
	runIdle(t, h.loop)

	_, err, _ := fut.Result()
	var re *RenderError
	if !errors.As(err, &re) {
		t.Fatalf("mount = %v, want *RenderError", err)
	}
	if !re.IsPanic() || re.Component != "Root" {
		t.Errorf("render error = %v (panic %v)", re, re.IsPanic())
	}
}

func TestUnknownComponentFailsMount(t *testing.T) {
	root := &Type{
		Name: "Root",
		Setup: func(s *Setup) RenderFunc {
			return func(p Props) (block.Block, error) {
				c, err := s.Node().GetChild("Missing", nil, "m", &Registry{})
				if err != nil {
					return nil, err
				}
				return c, nil
			}
		},
	}
	h := newHarness(t, root)
	fut := h.app.Mount(h.doc.Body())
	runIdle(t, h.loop)

	if _, err, _ := fut.Result(); !errors.Is(err, ErrUnknownComponent) {
		t.Errorf("mount = %v, want ErrUnknownComponent", err)
	}
	if n := h.obs.count(OutcomeFailed, true); n != 1 {
		t.Errorf("failed mount roots = %d, want 1", n)
	}
}

func TestNilBlockIsAnError(t *testing.T) {
	root := &Type{
		Name: "Root",
		Setup: func(s *Setup) RenderFunc {
			return func(p Props) (block.Block, error) { return nil, nil }
		},
	}
	h := newHarness(t, root)
	fut := h.app.Mount(h.doc.Body())
	runIdle(t, h.loop)

	if _, err, _ := fut.Result(); !errors.Is(err, ErrNoBlock) {
		t.Errorf("mount = %v, want ErrNoBlock", err)
	}
}

func TestDestroyRejectsPendingBatches(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	root := &Type{
		Name: "Root",
		Setup: func(s *Setup) RenderFunc {
			s.OnWillStart(func(ctx context.Context) error {
				select {
				case <-release:
				case <-ctx.Done():
				}
				return nil
			})
			return func(p Props) (block.Block, error) { return block.Text("x"), nil }
		},
	}
	h := newHarness(t, root)
	fut := h.app.Mount(h.doc.Body())
	h.loop.Drain()

	h.app.Destroy()
	h.loop.Drain()

	if _, err, ok := fut.Result(); !ok || !errors.Is(err, ErrAppDestroyed) {
		t.Errorf("mount = %v, %v; want ErrAppDestroyed", err, ok)
	}
	h.loop.Close()
}

func TestPendingNewChildKeptAcrossParentRenders(t *testing.T) {
	var starts atomic.Int32
	release := make(chan struct{})
	setups := 0
	var log events
	child := &Type{
		Name: "Child",
		Setup: func(s *Setup) RenderFunc {
			setups++
			hooked(s, "Child", &log)
			s.OnWillStart(func(ctx context.Context) error {
				starts.Add(1)
				select {
				case <-release:
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			})
			return func(p Props) (block.Block, error) {
				return block.Element("span", nil, block.Text(string(rune('0'+p["v"].(int))))), nil
			}
		},
	}
	st := &parentState{v: 1}
	h := newHarness(t, parentType(st, child, nil, nil))
	root := h.mount()

	st.show = true
	f1 := root.Render()
	h.loop.Drain()
	first := root.Child("a")
	if first == nil || first.Status() != StatusNew {
		t.Fatal("child not waiting on willStart")
	}

	st.v = 2
	f2 := root.Render()
	h.loop.Drain()
	if root.Child("a") != first {
		t.Fatal("pending child was recreated")
	}

	close(release)
	runIdle(t, h.loop)

	for name, f := range map[string]*loop.Future[struct{}]{"first": f1, "second": f2} {
		if _, err, ok := f.Result(); !ok || err != nil {
			t.Errorf("%s render = %v, %v", name, err, ok)
		}
	}
	if setups != 1 || starts.Load() != 1 {
		t.Errorf("setups = %d, willStart = %d, want 1 and 1", setups, starts.Load())
	}
	if log.count("Child:destroyed") != 0 || log.count("Child:mounted") != 1 {
		t.Errorf("hooks = %v", log)
	}
	if got, want := h.html(), "<div><span>2</span></div>"; got != want {
		t.Errorf("html = %q, want %q", got, want)
	}
	if root.Child("a") != first || first.Status() != StatusMounted {
		t.Errorf("child = %v, status %v", root.Child("a"), first.Status())
	}
}
