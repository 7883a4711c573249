package block

import "github.com/vango-dev/bloc/pkg/dom"

// MultiBlock holds a fixed number of optional slots. Each slot is followed
// by an empty text node that marks where its content goes when the slot
// switches from empty to filled.
type MultiBlock struct {
	slots   []Block
	anchors []*dom.Node
}

// Multi creates a multi block. Nil slots render nothing.
func Multi(slots ...Block) *MultiBlock {
	return &MultiBlock{slots: slots}
}

// Slot returns the block currently in slot i.
func (m *MultiBlock) Slot(i int) Block { return m.slots[i] }

// FirstNode returns the first slot's first node, or the first anchor when
// that slot is empty.
func (m *MultiBlock) FirstNode() *dom.Node {
	if len(m.slots) == 0 {
		return nil
	}
	if m.slots[0] != nil {
		return m.slots[0].FirstNode()
	}
	return m.anchors[0]
}

// Mount appends all slots to parent.
func (m *MultiBlock) Mount(parent *dom.Node) {
	m.checkUnmounted()
	doc := parent.Document()
	m.anchors = make([]*dom.Node, len(m.slots))
	for i, s := range m.slots {
		if s != nil {
			s.Mount(parent)
		}
		m.anchors[i] = doc.CreateText("")
		parent.AppendChild(m.anchors[i])
	}
}

// MountBefore inserts all slots before anchor.
func (m *MultiBlock) MountBefore(anchor *dom.Node) {
	m.checkUnmounted()
	parent := mountPoint(anchor)
	doc := parent.Document()
	m.anchors = make([]*dom.Node, len(m.slots))
	for i, s := range m.slots {
		if s != nil {
			s.MountBefore(anchor)
		}
		m.anchors[i] = doc.CreateText("")
		parent.InsertBefore(m.anchors[i], anchor)
	}
}

func (m *MultiBlock) checkUnmounted() {
	if m.anchors != nil {
		panic("block: multi already mounted")
	}
}

// MoveBefore moves every slot and anchor, in order, before anchor.
func (m *MultiBlock) MoveBefore(anchor *dom.Node) {
	for i, s := range m.slots {
		if s != nil {
			s.MoveBefore(anchor)
		}
		m.anchors[i].Parent().InsertBefore(m.anchors[i], anchor)
	}
}

// Patch mounts, removes or patches each slot.
func (m *MultiBlock) Patch(next Block) {
	n, ok := next.(*MultiBlock)
	if !ok || len(n.slots) != len(m.slots) {
		panic(shapeMismatch(m, next))
	}
	for i, old := range m.slots {
		nb := n.slots[i]
		switch {
		case old == nil && nb == nil:
		case old == nil:
			nb.MountBefore(m.anchors[i])
			m.slots[i] = nb
		case nb == nil:
			old.BeforeRemove()
			old.Remove()
			m.slots[i] = nil
		default:
			m.slots[i] = PatchChild(old, nb)
		}
	}
}

// BeforeRemove propagates to filled slots.
func (m *MultiBlock) BeforeRemove() {
	for _, s := range m.slots {
		if s != nil {
			s.BeforeRemove()
		}
	}
}

// Remove detaches every slot and anchor.
func (m *MultiBlock) Remove() {
	for i, s := range m.slots {
		if s != nil {
			s.Remove()
		}
		m.anchors[i].Remove()
	}
}
