package block

import (
	"fmt"
	"reflect"

	"github.com/vango-dev/bloc/pkg/dom"
)

// Block is a mountable, patchable unit of rendered output.
type Block interface {
	// FirstNode returns the first DOM node the block owns, used as the
	// anchor for inserting a sibling before it. Nil before mount.
	FirstNode() *dom.Node

	// Mount appends the block's content to parent.
	Mount(parent *dom.Node)

	// MountBefore inserts the block's content before anchor.
	MountBefore(anchor *dom.Node)

	// MoveBefore moves already mounted content before anchor without
	// re-creating it. A nil anchor moves to the end of the current parent.
	MoveBefore(anchor *dom.Node)

	// Patch applies next, a same-shape block, to the mounted content.
	Patch(next Block)

	// BeforeRemove notifies nested components that the content is about
	// to leave the tree.
	BeforeRemove()

	// Remove detaches all owned DOM nodes.
	Remove()
}

// Persistent marks blocks whose identity outlives a single render, such
// as component nodes. A persistent block is only patched by itself.
type Persistent interface {
	Block
	Persistent() bool
}

func isPersistent(b Block) bool {
	p, ok := b.(Persistent)
	return ok && p.Persistent()
}

// PatchChild patches old with next when they are compatible and replaces
// old in place otherwise. It returns the block now mounted.
func PatchChild(old, next Block) Block {
	if old == next {
		old.Patch(next)
		return old
	}
	if !isPersistent(old) && !isPersistent(next) && reflect.TypeOf(old) == reflect.TypeOf(next) {
		old.Patch(next)
		return old
	}
	Replace(old, next)
	return next
}

// Replace mounts next where old is and removes old.
func Replace(old, next Block) {
	anchor := old.FirstNode()
	if anchor == nil || anchor.Parent() == nil {
		panic(fmt.Sprintf("block: cannot replace unmounted %T", old))
	}
	next.MountBefore(anchor)
	old.BeforeRemove()
	old.Remove()
}

func shapeMismatch(b, next Block) string {
	return fmt.Sprintf("block: cannot patch %T with %T", b, next)
}

func mountPoint(anchor *dom.Node) *dom.Node {
	parent := anchor.Parent()
	if parent == nil {
		panic("block: anchor is detached")
	}
	return parent
}
