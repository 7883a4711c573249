// Package demo is the sample application driven by the bloc CLI.
//
// The board renders a title, a ticker button owned by the board and a
// keyed list of items:
//
//	<main><h1>title</h1><button>ticks: 0</button><ul><li>alpha</li>...</ul></main>
//
// All methods except New must be called on the app's loop goroutine.
package demo

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/vango-dev/bloc/pkg/block"
	"github.com/vango-dev/bloc/pkg/component"
	"github.com/vango-dev/bloc/pkg/dom"
	"github.com/vango-dev/bloc/pkg/loop"
)

// Env is shared by every node of the board.
type Env struct {
	// ItemDelay holds back the first render of every new item, as if it
	// loaded data first.
	ItemDelay time.Duration
}

// Board is the state of the demo application.
type Board struct {
	title string
	items []string
	ticks int

	node *component.Node
	reg  *component.Registry
}

// New creates a board with the given items.
func New(title string, items ...string) *Board {
	b := &Board{title: title, items: slices.Clone(items)}
	b.reg = &component.Registry{
		Components: map[string]*component.Type{
			"Item":   itemType,
			"Ticker": tickerType,
		},
		Methods: map[string]dom.Listener{
			"bump": func(dom.Event) { b.Tick() },
		},
	}
	return b
}

// Type returns the root component type.
func (b *Board) Type() *component.Type {
	return &component.Type{
		Name: "Board",
		Setup: func(s *component.Setup) component.RenderFunc {
			b.node = s.Node()
			return b.render
		},
	}
}

// Items returns the current item labels in order.
func (b *Board) Items() []string { return slices.Clone(b.items) }

// Ticks returns how many times the ticker was bumped.
func (b *Board) Ticks() int { return b.ticks }

func (b *Board) render(component.Props) (block.Block, error) {
	n := b.node
	ticker, err := n.GetChild("Ticker", component.Props{"ticks": b.ticks}, "ticker", b.reg)
	if err != nil {
		return nil, err
	}
	if err := ticker.SetHandlers([]component.HandlerSpec{{Event: "click", Owner: b.reg, Method: "bump"}}); err != nil {
		return nil, err
	}
	if b.ticks%2 == 1 {
		ticker.SetClass("odd")
	} else {
		ticker.SetClass("")
	}

	items := make([]block.Item, 0, len(b.items))
	for _, label := range b.items {
		key := "item:" + label
		c, err := n.GetChild("Item", component.Props{"label": label}, key, b.reg)
		if err != nil {
			return nil, err
		}
		items = append(items, block.Keyed(key, c))
	}

	return block.Element("main", nil,
		block.Element("h1", nil, block.Text(b.title)),
		ticker,
		block.Element("ul", nil, block.List(items...)),
	), nil
}

func (b *Board) rerender() *loop.Future[struct{}] {
	return b.node.Render()
}

// Add appends an item. Labels already on the board are ignored.
func (b *Board) Add(label string) *loop.Future[struct{}] {
	if !slices.Contains(b.items, label) {
		b.items = append(b.items, label)
	}
	return b.rerender()
}

// Remove drops an item.
func (b *Board) Remove(label string) *loop.Future[struct{}] {
	if i := slices.Index(b.items, label); i >= 0 {
		b.items = slices.Delete(b.items, i, i+1)
	}
	return b.rerender()
}

// Reverse reverses the item order.
func (b *Board) Reverse() *loop.Future[struct{}] {
	slices.Reverse(b.items)
	return b.rerender()
}

// Tick bumps the ticker.
func (b *Board) Tick() *loop.Future[struct{}] {
	b.ticks++
	return b.rerender()
}

var itemType = &component.Type{
	Name: "Item",
	Setup: func(s *component.Setup) component.RenderFunc {
		if env, ok := s.Env().(Env); ok && env.ItemDelay > 0 {
			s.OnWillStart(func(ctx context.Context) error {
				t := time.NewTimer(env.ItemDelay)
				defer t.Stop()
				select {
				case <-t.C:
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			})
		}
		return func(p component.Props) (block.Block, error) {
			return block.Element("li", nil, block.Text(fmt.Sprint(p["label"]))), nil
		}
	},
	ShouldUpdate: func(old, next component.Props) bool {
		return old["label"] != next["label"]
	},
}

var tickerType = &component.Type{
	Name: "Ticker",
	Setup: func(s *component.Setup) component.RenderFunc {
		return func(p component.Props) (block.Block, error) {
			return block.Element("button", nil, block.Text(fmt.Sprintf("ticks: %v", p["ticks"]))), nil
		}
	},
}
