package demo

import (
	"testing"
	"time"

	"github.com/vango-dev/bloc/pkg/bloctest"
	"github.com/vango-dev/bloc/pkg/dom"
)

func mount(t *testing.T, env Env, items ...string) (*Board, *bloctest.Harness) {
	t.Helper()
	b := New("Board", items...)
	return b, bloctest.Mount(t, b.Type(), bloctest.WithEnv(env))
}

func TestBoard_Mount(t *testing.T) {
	_, h := mount(t, Env{}, "alpha", "beta")
	h.ExpectHTML("<main><h1>Board</h1><button>ticks: 0</button><ul><li>alpha</li><li>beta</li></ul></main>")
	h.ExpectStats(4, 0)
}

func TestBoard_EditsKeepItemElements(t *testing.T) {
	b, h := mount(t, Env{}, "alpha", "beta", "gamma")
	beta := h.Root.Child("item:beta").FirstNode()

	h.Do(func() { b.Add("delta") })
	h.ExpectHTML("<main><h1>Board</h1><button>ticks: 0</button><ul><li>alpha</li><li>beta</li><li>gamma</li><li>delta</li></ul></main>")

	h.ResetMutations()
	if err := h.Await(b.Reverse()); err != nil {
		t.Fatalf("Reverse: %v", err)
	}
	h.ExpectHTML("<main><h1>Board</h1><button>ticks: 0</button><ul><li>delta</li><li>gamma</li><li>beta</li><li>alpha</li></ul></main>")
	if got := h.Root.Child("item:beta").FirstNode(); got != beta {
		t.Error("beta element was recreated by a reorder")
	}
	h.ExpectMutations(dom.OpRemoveNode, 0)
	h.ExpectMutations(dom.OpSetText, 0)

	h.Do(func() { b.Remove("gamma") })
	h.ExpectHTML("<main><h1>Board</h1><button>ticks: 0</button><ul><li>delta</li><li>beta</li><li>alpha</li></ul></main>")
	if h.Root.Child("item:gamma") != nil {
		t.Error("removed item is still a child")
	}
	h.ExpectStats(5, 0)
}

func TestBoard_ClickBumpsTicker(t *testing.T) {
	b, h := mount(t, Env{}, "alpha")

	h.Click("button")
	if b.Ticks() != 1 {
		t.Fatalf("ticks = %d, want 1", b.Ticks())
	}
	h.ExpectHTML(`<main><h1>Board</h1><button class="odd">ticks: 1</button><ul><li>alpha</li></ul></main>`)

	h.Click("button")
	h.ExpectHTML("<main><h1>Board</h1><button>ticks: 2</button><ul><li>alpha</li></ul></main>")
}

func TestBoard_ItemDelayHoldsBatch(t *testing.T) {
	b, h := mount(t, Env{ItemDelay: 10 * time.Millisecond}, "alpha")
	h.ExpectHTML("<main><h1>Board</h1><button>ticks: 0</button><ul><li>alpha</li></ul></main>")

	fut := b.Add("beta")
	h.Loop.Drain()
	if _, _, ok := fut.Result(); ok {
		t.Fatal("batch committed before the new item finished loading")
	}
	h.ExpectHTML("<main><h1>Board</h1><button>ticks: 0</button><ul><li>alpha</li></ul></main>")

	if err := h.Await(fut); err != nil {
		t.Fatalf("Add: %v", err)
	}
	h.ExpectHTML("<main><h1>Board</h1><button>ticks: 0</button><ul><li>alpha</li><li>beta</li></ul></main>")
}
