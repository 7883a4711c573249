package dom

import (
	"html"
	"sort"
	"strings"
)

// Snapshot is a serialisable copy of a subtree.
type Snapshot struct {
	ID       uint64            `json:"id" msgpack:"id"`
	Kind     string            `json:"kind" msgpack:"kind"`
	Tag      string            `json:"tag,omitempty" msgpack:"tag,omitempty"`
	Text     string            `json:"text,omitempty" msgpack:"text,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty" msgpack:"attrs,omitempty"`
	Classes  []string          `json:"classes,omitempty" msgpack:"classes,omitempty"`
	Children []Snapshot        `json:"children,omitempty" msgpack:"children,omitempty"`
}

// Snapshot copies the subtree rooted at n.
func (n *Node) Snapshot() Snapshot {
	s := Snapshot{
		ID:      n.id,
		Kind:    n.kind.String(),
		Tag:     n.tag,
		Text:    n.text,
		Classes: n.Classes(),
	}
	if len(n.attrs) > 0 {
		s.Attrs = n.Attrs()
	}
	for _, c := range n.children {
		s.Children = append(s.Children, c.Snapshot())
	}
	return s
}

// HTML renders the subtree rooted at n. Attributes are sorted so output is
// deterministic; classes keep insertion order.
func (n *Node) HTML() string {
	var b strings.Builder
	n.writeHTML(&b)
	return b.String()
}

// InnerHTML renders n's children.
func (n *Node) InnerHTML() string {
	var b strings.Builder
	for _, c := range n.children {
		c.writeHTML(&b)
	}
	return b.String()
}

func (n *Node) writeHTML(b *strings.Builder) {
	if n.kind == KindText {
		b.WriteString(html.EscapeString(n.text))
		return
	}

	b.WriteString("<")
	b.WriteString(n.tag)

	keys := make([]string, 0, len(n.attrs))
	for k := range n.attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(" ")
		b.WriteString(k)
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(n.attrs[k]))
		b.WriteString(`"`)
	}
	if len(n.classes) > 0 {
		b.WriteString(` class="`)
		b.WriteString(html.EscapeString(strings.Join(n.classes, " ")))
		b.WriteString(`"`)
	}
	b.WriteString(">")

	for _, c := range n.children {
		c.writeHTML(b)
	}

	b.WriteString("</")
	b.WriteString(n.tag)
	b.WriteString(">")
}
