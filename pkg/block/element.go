package block

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"

	"github.com/vango-dev/bloc/internal/errors"
	"github.com/vango-dev/bloc/pkg/dom"
)

// ErrMissingEventName is returned for a handler binding without an event.
var ErrMissingEventName = stderrors.New("block: missing event name")

// Attrs holds element attributes. The "class" attribute is a
// space-separated class list and is diffed class by class.
type Attrs map[string]string

// Handler binds an event type on the element to a function.
type Handler struct {
	Event string
	Fn    dom.Listener
}

// ElementBlock renders one element and a fixed list of children.
type ElementBlock struct {
	tag      string
	attrs    Attrs
	handlers []Handler
	children []Block

	el *dom.Node
}

// Element creates an element block without event handlers.
func Element(tag string, attrs Attrs, children ...Block) *ElementBlock {
	return &ElementBlock{tag: tag, attrs: attrs, children: children}
}

// NewElement creates an element block with event handlers. A handler
// without an event name is an authoring error.
func NewElement(tag string, attrs Attrs, handlers []Handler, children ...Block) (*ElementBlock, error) {
	for i, h := range handlers {
		if h.Event == "" {
			return nil, errors.New("B200").
				WithDetailf("<%s> handler #%d has no event name", tag, i).
				WithSuggestion("Name the event, e.g. Handler{Event: \"click\", Fn: ...}").
				Wrap(ErrMissingEventName)
		}
	}
	return &ElementBlock{tag: tag, attrs: attrs, handlers: handlers, children: children}, nil
}

// Node returns the mounted element, or nil.
func (b *ElementBlock) Node() *dom.Node { return b.el }

// Children returns the child blocks currently mounted.
func (b *ElementBlock) Children() []Block { return b.children }

// FirstNode returns the element.
func (b *ElementBlock) FirstNode() *dom.Node { return b.el }

// Mount builds the element and appends it to parent.
func (b *ElementBlock) Mount(parent *dom.Node) {
	b.build(parent.Document())
	parent.AppendChild(b.el)
}

// MountBefore builds the element and inserts it before anchor.
func (b *ElementBlock) MountBefore(anchor *dom.Node) {
	parent := mountPoint(anchor)
	b.build(parent.Document())
	parent.InsertBefore(b.el, anchor)
}

func (b *ElementBlock) build(doc *dom.Document) {
	if b.el != nil {
		panic(fmt.Sprintf("block: <%s> already mounted", b.tag))
	}
	el := doc.CreateElement(b.tag)
	for _, k := range sortedKeys(b.attrs) {
		if k == "class" {
			for _, c := range strings.Fields(b.attrs[k]) {
				el.AddClass(c)
			}
			continue
		}
		el.SetAttr(k, b.attrs[k])
	}
	for i, h := range b.handlers {
		idx := i
		el.AddEventListener(h.Event, func(ev dom.Event) {
			if fn := b.handlers[idx].Fn; fn != nil {
				fn(ev)
			}
		})
	}
	for _, c := range b.children {
		c.Mount(el)
	}
	b.el = el
}

// MoveBefore moves the element before anchor.
func (b *ElementBlock) MoveBefore(anchor *dom.Node) {
	b.el.Parent().InsertBefore(b.el, anchor)
}

// Patch diffs attributes, swaps handler functions and patches children
// position by position.
func (b *ElementBlock) Patch(next Block) {
	n, ok := next.(*ElementBlock)
	if !ok || n.tag != b.tag || len(n.children) != len(b.children) || len(n.handlers) != len(b.handlers) {
		panic(shapeMismatch(b, next))
	}

	b.patchAttrs(n.attrs)
	b.attrs = n.attrs

	// Listeners stay bound; they read the table on every dispatch.
	copy(b.handlers, n.handlers)

	for i := range b.children {
		b.children[i] = PatchChild(b.children[i], n.children[i])
	}
}

func (b *ElementBlock) patchAttrs(next Attrs) {
	for k := range b.attrs {
		if _, ok := next[k]; !ok && k != "class" {
			b.el.RemoveAttr(k)
		}
	}
	for _, k := range sortedKeys(next) {
		if k != "class" {
			b.el.SetAttr(k, next[k])
		}
	}

	prev := strings.Fields(b.attrs["class"])
	cur := strings.Fields(next["class"])
	for _, c := range prev {
		if !contains(cur, c) {
			b.el.RemoveClass(c)
		}
	}
	for _, c := range cur {
		b.el.AddClass(c)
	}
}

// BeforeRemove propagates to the children.
func (b *ElementBlock) BeforeRemove() {
	for _, c := range b.children {
		c.BeforeRemove()
	}
}

// Remove detaches the element. Children go with it.
func (b *ElementBlock) Remove() {
	b.el.Remove()
}

func sortedKeys(m Attrs) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
