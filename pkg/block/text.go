package block

import "github.com/vango-dev/bloc/pkg/dom"

// TextBlock renders a single text node.
type TextBlock struct {
	text string
	node *dom.Node
}

// Text creates a text block.
func Text(text string) *TextBlock {
	return &TextBlock{text: text}
}

// Value returns the current text.
func (t *TextBlock) Value() string { return t.text }

// FirstNode returns the text node.
func (t *TextBlock) FirstNode() *dom.Node { return t.node }

// Mount appends the text node to parent.
func (t *TextBlock) Mount(parent *dom.Node) {
	t.create(parent.Document())
	parent.AppendChild(t.node)
}

// MountBefore inserts the text node before anchor.
func (t *TextBlock) MountBefore(anchor *dom.Node) {
	parent := mountPoint(anchor)
	t.create(parent.Document())
	parent.InsertBefore(t.node, anchor)
}

func (t *TextBlock) create(doc *dom.Document) {
	if t.node != nil {
		panic("block: text already mounted")
	}
	t.node = doc.CreateText(t.text)
}

// MoveBefore moves the text node before anchor.
func (t *TextBlock) MoveBefore(anchor *dom.Node) {
	t.node.Parent().InsertBefore(t.node, anchor)
}

// Patch updates the text content.
func (t *TextBlock) Patch(next Block) {
	n, ok := next.(*TextBlock)
	if !ok {
		panic(shapeMismatch(t, next))
	}
	if n.text != t.text {
		t.text = n.text
		t.node.SetText(n.text)
	}
}

// BeforeRemove is a no-op for text.
func (t *TextBlock) BeforeRemove() {}

// Remove detaches the text node.
func (t *TextBlock) Remove() {
	t.node.Remove()
}
