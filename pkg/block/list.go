package block

import (
	"fmt"

	"github.com/vango-dev/bloc/pkg/dom"
)

// Item is one keyed entry of a list.
type Item struct {
	Key   string
	Block Block
}

// Keyed pairs a key with a block.
func Keyed(key string, b Block) Item {
	return Item{Key: key, Block: b}
}

// ListBlock renders keyed children followed by an end anchor.
type ListBlock struct {
	items  []Item
	anchor *dom.Node
}

// List creates a list block. Keys must be unique.
func List(items ...Item) *ListBlock {
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if _, dup := seen[it.Key]; dup {
			panic(fmt.Sprintf("block: duplicate list key %q", it.Key))
		}
		seen[it.Key] = struct{}{}
	}
	return &ListBlock{items: items}
}

// Keys returns the current keys in order.
func (l *ListBlock) Keys() []string {
	keys := make([]string, len(l.items))
	for i, it := range l.items {
		keys[i] = it.Key
	}
	return keys
}

// FirstNode returns the first item's first node, or the end anchor.
func (l *ListBlock) FirstNode() *dom.Node {
	if len(l.items) > 0 {
		return l.items[0].Block.FirstNode()
	}
	return l.anchor
}

// Mount appends all items and the end anchor to parent.
func (l *ListBlock) Mount(parent *dom.Node) {
	l.checkUnmounted()
	for _, it := range l.items {
		it.Block.Mount(parent)
	}
	l.anchor = parent.Document().CreateText("")
	parent.AppendChild(l.anchor)
}

// MountBefore inserts all items and the end anchor before anchor.
func (l *ListBlock) MountBefore(anchor *dom.Node) {
	l.checkUnmounted()
	parent := mountPoint(anchor)
	for _, it := range l.items {
		it.Block.MountBefore(anchor)
	}
	l.anchor = parent.Document().CreateText("")
	parent.InsertBefore(l.anchor, anchor)
}

func (l *ListBlock) checkUnmounted() {
	if l.anchor != nil {
		panic("block: list already mounted")
	}
}

// MoveBefore moves every item and the end anchor before anchor.
func (l *ListBlock) MoveBefore(anchor *dom.Node) {
	for _, it := range l.items {
		it.Block.MoveBefore(anchor)
	}
	l.anchor.Parent().InsertBefore(l.anchor, anchor)
}

// Patch reconciles items by key.
//
// Matched items are patched in place. Walking the next order from the end,
// a matched item stays put while its old index decreases; any other
// matched item is moved before its successor. The stayers keep their
// relative order, so only out-of-order items move.
func (l *ListBlock) Patch(next Block) {
	n, ok := next.(*ListBlock)
	if !ok {
		panic(shapeMismatch(l, next))
	}

	oldIndex := make(map[string]int, len(l.items))
	for i, it := range l.items {
		oldIndex[it.Key] = i
	}

	result := make([]Item, len(n.items))
	prevIdx := make([]int, len(n.items))
	used := make([]bool, len(l.items))
	for j, it := range n.items {
		prevIdx[j] = -1
		if i, ok := oldIndex[it.Key]; ok {
			used[i] = true
			prevIdx[j] = i
			result[j] = Item{Key: it.Key, Block: PatchChild(l.items[i].Block, it.Block)}
			continue
		}
		result[j] = it
	}

	for i, it := range l.items {
		if !used[i] {
			it.Block.BeforeRemove()
			it.Block.Remove()
		}
	}

	ref := l.anchor
	minOld := len(l.items)
	for j := len(result) - 1; j >= 0; j-- {
		b := result[j].Block
		switch i := prevIdx[j]; {
		case i < 0:
			b.MountBefore(ref)
		case i < minOld:
			minOld = i
		default:
			b.MoveBefore(ref)
		}
		ref = b.FirstNode()
	}

	l.items = result
}

// BeforeRemove propagates to every item.
func (l *ListBlock) BeforeRemove() {
	for _, it := range l.items {
		it.Block.BeforeRemove()
	}
}

// Remove detaches every item and the end anchor.
func (l *ListBlock) Remove() {
	for _, it := range l.items {
		it.Block.Remove()
	}
	l.anchor.Remove()
}
