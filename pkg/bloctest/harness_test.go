package bloctest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/vango-dev/bloc/pkg/block"
	"github.com/vango-dev/bloc/pkg/component"
	"github.com/vango-dev/bloc/pkg/dom"
)

// counterType renders <button data-count="n">n</button> and counts clicks.
var counterType = &component.Type{
	Name: "Counter",
	Setup: func(s *component.Setup) component.RenderFunc {
		count := 0
		if start, ok := s.Props()["start"].(int); ok {
			count = start
		}
		click := func(dom.Event) {
			count++
			s.Render()
		}
		return func(component.Props) (block.Block, error) {
			n := fmt.Sprint(count)
			return block.NewElement("button",
				block.Attrs{"data-count": n},
				[]block.Handler{{Event: "click", Fn: click}},
				block.Text(n))
		}
	},
}

func TestHarness_MountAndClick(t *testing.T) {
	h := Mount(t, counterType)
	h.ExpectHTML(`<button data-count="0">0</button>`)
	h.ExpectElement("button")
	h.ExpectStats(1, 0)

	h.ResetMutations()
	h.Click("button")

	h.ExpectHTML(`<button data-count="1">1</button>`)
	h.ExpectAttribute("button", "data-count", "1")
	h.ExpectMutations(dom.OpSetText, 1)
	h.ExpectMutations(dom.OpSetAttr, 1)
	h.ExpectMutations(dom.OpInsertNode, 0)
}

func TestHarness_Props(t *testing.T) {
	h := Mount(t, counterType, WithProps(component.Props{"start": 41}))
	h.Click("button")
	h.ExpectContains(">42<")
	h.ExpectNotContains(">41<")
}

func TestHarness_RenderIsNoopWithoutChanges(t *testing.T) {
	h := Mount(t, counterType)
	h.ResetMutations()
	if err := h.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if n := len(h.Mutations.Mutations); n != 0 {
		t.Errorf("mutations = %d, want 0", n)
	}
}

func TestHarness_AsyncWillStart(t *testing.T) {
	gate := make(chan struct{})
	typ := &component.Type{
		Name: "Slow",
		Setup: func(s *component.Setup) component.RenderFunc {
			s.OnWillStart(func(ctx context.Context) error {
				<-gate
				return nil
			})
			return func(component.Props) (block.Block, error) {
				return block.Text("ready"), nil
			}
		},
	}
	close(gate)
	h := Mount(t, typ)
	h.ExpectHTML("ready")
}

func TestHarness_AwaitReportsRenderErrors(t *testing.T) {
	fail := false
	typ := &component.Type{
		Name: "Flaky",
		Setup: func(s *component.Setup) component.RenderFunc {
			return func(component.Props) (block.Block, error) {
				if fail {
					return nil, errors.New("flaky")
				}
				return block.Text("ok"), nil
			}
		},
	}
	h := Mount(t, typ)
	fail = true
	err := h.Render()

	var re *component.RenderError
	if !errors.As(err, &re) || re.Component != "Flaky" {
		t.Fatalf("Render() error = %v, want RenderError from Flaky", err)
	}
	if !h.App.Destroyed() {
		t.Error("app survived a render error")
	}
	h.ExpectHTML("")
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 3); got != "abc..." {
		t.Errorf("truncate = %q, want abc...", got)
	}
	if got := truncate("ab", 3); got != "ab" {
		t.Errorf("truncate = %q, want ab", got)
	}
}
