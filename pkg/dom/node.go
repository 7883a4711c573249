package dom

import (
	"fmt"
	"slices"
)

// Kind is the node type discriminator.
type Kind uint8

const (
	KindElement Kind = iota // <div>, <button>, etc.
	KindText                // Plain text node
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	default:
		return "Unknown"
	}
}

// Listener handles a dispatched event.
type Listener func(Event)

// Event is dispatched to element listeners.
type Event struct {
	Type   string
	Target *Node
	Data   any
}

type listenerEntry struct {
	id uint64
	fn Listener
}

// Node is an element or text node owned by a Document.
type Node struct {
	id       uint64
	kind     Kind
	tag      string
	text     string
	attrs    map[string]string
	classes  []string
	parent   *Node
	children []*Node
	doc      *Document

	listeners map[string][]listenerEntry
}

// ID returns the node's document-unique identifier.
func (n *Node) ID() uint64 { return n.id }

// Kind returns the node type.
func (n *Node) Kind() Kind { return n.kind }

// Tag returns the element tag name, or "" for text nodes.
func (n *Node) Tag() string { return n.tag }

// Document returns the owning document.
func (n *Node) Document() *Document { return n.doc }

// Parent returns the parent node, or nil when detached.
func (n *Node) Parent() *Node { return n.parent }

// IsElement reports whether n is an element.
func (n *Node) IsElement() bool { return n != nil && n.kind == KindElement }

// Children returns a copy of the child list.
func (n *Node) Children() []*Node {
	return slices.Clone(n.children)
}

// FirstChild returns the first child, or nil.
func (n *Node) FirstChild() *Node {
	if len(n.children) == 0 {
		return nil
	}
	return n.children[0]
}

// NextSibling returns the node after n in its parent, or nil.
func (n *Node) NextSibling() *Node {
	if n.parent == nil {
		return nil
	}
	i := n.parent.indexOf(n)
	if i < 0 || i+1 >= len(n.parent.children) {
		return nil
	}
	return n.parent.children[i+1]
}

func (n *Node) indexOf(child *Node) int {
	return slices.Index(n.children, child)
}

// Text returns the content of a text node, or the concatenated text of
// an element's descendants.
func (n *Node) Text() string {
	if n.kind == KindText {
		return n.text
	}
	var out string
	for _, c := range n.children {
		out += c.Text()
	}
	return out
}

// SetText replaces the content of a text node.
func (n *Node) SetText(text string) {
	if n.kind != KindText {
		panic("dom: SetText on element")
	}
	if n.text == text {
		return
	}
	n.text = text
	n.doc.emit(Mutation{Op: OpSetText, Node: n, Value: text})
}

// AppendChild inserts child as the last child of n.
func (n *Node) AppendChild(child *Node) {
	n.InsertBefore(child, nil)
}

// InsertBefore inserts child before anchor, which must be a child of n.
// A nil anchor appends. Inserting an attached node moves it.
func (n *Node) InsertBefore(child, anchor *Node) {
	if n.kind != KindElement {
		panic("dom: InsertBefore on text node")
	}
	if child == anchor {
		return
	}
	if anchor != nil && anchor.parent != n {
		panic(fmt.Sprintf("dom: anchor %d is not a child of %d", anchor.id, n.id))
	}

	op := OpInsertNode
	if child.parent != nil {
		op = OpMoveNode
		child.parent.detach(child)
	}

	idx := len(n.children)
	if anchor != nil {
		idx = n.indexOf(anchor)
	}
	n.children = slices.Insert(n.children, idx, child)
	child.parent = n

	m := Mutation{Op: op, Node: child, Parent: n}
	if anchor != nil {
		m.Anchor = anchor
	}
	n.doc.emit(m)
}

func (n *Node) detach(child *Node) {
	if i := n.indexOf(child); i >= 0 {
		n.children = slices.Delete(n.children, i, i+1)
	}
	child.parent = nil
}

// Remove detaches n from its parent. Removing a detached node is a no-op.
func (n *Node) Remove() {
	parent := n.parent
	if parent == nil {
		return
	}
	parent.detach(n)
	n.doc.emit(Mutation{Op: OpRemoveNode, Node: n, Parent: parent})
}

// Attr returns an attribute value.
func (n *Node) Attr(key string) (string, bool) {
	v, ok := n.attrs[key]
	return v, ok
}

// Attrs returns a copy of the attribute map.
func (n *Node) Attrs() map[string]string {
	out := make(map[string]string, len(n.attrs))
	for k, v := range n.attrs {
		out[k] = v
	}
	return out
}

// SetAttr sets an attribute on an element.
func (n *Node) SetAttr(key, value string) {
	if key == "class" {
		panic("dom: use AddClass/RemoveClass for class")
	}
	if old, ok := n.attrs[key]; ok && old == value {
		return
	}
	if n.attrs == nil {
		n.attrs = make(map[string]string)
	}
	n.attrs[key] = value
	n.doc.emit(Mutation{Op: OpSetAttr, Node: n, Key: key, Value: value})
}

// RemoveAttr removes an attribute from an element.
func (n *Node) RemoveAttr(key string) {
	if _, ok := n.attrs[key]; !ok {
		return
	}
	delete(n.attrs, key)
	n.doc.emit(Mutation{Op: OpRemoveAttr, Node: n, Key: key})
}

// Classes returns the element's classes in insertion order.
func (n *Node) Classes() []string {
	return slices.Clone(n.classes)
}

// HasClass reports whether the element carries class c.
func (n *Node) HasClass(c string) bool {
	return slices.Contains(n.classes, c)
}

// AddClass adds class c to the element.
func (n *Node) AddClass(c string) {
	if c == "" || n.HasClass(c) {
		return
	}
	n.classes = append(n.classes, c)
	n.doc.emit(Mutation{Op: OpAddClass, Node: n, Value: c})
}

// RemoveClass removes class c from the element.
func (n *Node) RemoveClass(c string) {
	i := slices.Index(n.classes, c)
	if i < 0 {
		return
	}
	n.classes = slices.Delete(n.classes, i, i+1)
	n.doc.emit(Mutation{Op: OpRemoveClass, Node: n, Value: c})
}

// AddEventListener registers fn for events of the given type and returns
// a function that unregisters it.
func (n *Node) AddEventListener(typ string, fn Listener) func() {
	if n.listeners == nil {
		n.listeners = make(map[string][]listenerEntry)
	}
	n.doc.listenerSeq++
	id := n.doc.listenerSeq
	n.listeners[typ] = append(n.listeners[typ], listenerEntry{id: id, fn: fn})
	return func() {
		entries := n.listeners[typ]
		for i, e := range entries {
			if e.id == id {
				n.listeners[typ] = slices.Delete(entries, i, i+1)
				return
			}
		}
	}
}

// ListenerCount returns the number of listeners registered for typ.
func (n *Node) ListenerCount(typ string) int {
	return len(n.listeners[typ])
}

// Dispatch fires the listeners registered for ev.Type in registration
// order and returns how many ran. The event does not bubble.
func (n *Node) Dispatch(ev Event) int {
	if ev.Target == nil {
		ev.Target = n
	}
	entries := slices.Clone(n.listeners[ev.Type])
	for _, e := range entries {
		e.fn(ev)
	}
	return len(entries)
}

// Find returns the first descendant element (depth-first, including n)
// with the given tag.
func (n *Node) Find(tag string) *Node {
	if n.kind == KindElement && n.tag == tag {
		return n
	}
	for _, c := range n.children {
		if found := c.Find(tag); found != nil {
			return found
		}
	}
	return nil
}
