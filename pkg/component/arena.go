package component

import "fmt"

// handle addresses a value in a slab. The generation makes handles to
// released slots detectably stale; the zero handle is never valid.
type handle[T any] struct {
	index uint32
	gen   uint32
}

// NodeID is a generation-checked handle to a component node.
type NodeID = handle[Node]

// FiberID is a generation-checked handle to a fiber.
type FiberID = handle[fiber]

// Valid reports whether h was ever issued. A valid handle may still be
// stale.
func (h handle[T]) Valid() bool { return h.gen != 0 }

func (h handle[T]) String() string {
	if !h.Valid() {
		return "-"
	}
	return fmt.Sprintf("%d.%d", h.index, h.gen)
}

type slabEntry[T any] struct {
	gen uint32
	val *T
}

// slab stores values addressed by handles, recycling released slots.
type slab[T any] struct {
	entries []slabEntry[T]
	free    []uint32
	live    int
}

func (s *slab[T]) insert(v *T) handle[T] {
	var idx uint32
	if n := len(s.free); n > 0 {
		idx = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		idx = uint32(len(s.entries))
		s.entries = append(s.entries, slabEntry[T]{})
	}
	e := &s.entries[idx]
	e.gen++
	if e.gen == 0 {
		e.gen = 1
	}
	e.val = v
	s.live++
	return handle[T]{index: idx, gen: e.gen}
}

func (s *slab[T]) get(h handle[T]) *T {
	if !h.Valid() || int(h.index) >= len(s.entries) {
		return nil
	}
	e := &s.entries[h.index]
	if e.gen != h.gen {
		return nil
	}
	return e.val
}

func (s *slab[T]) release(h handle[T]) bool {
	if s.get(h) == nil {
		return false
	}
	e := &s.entries[h.index]
	e.val = nil
	e.gen++
	if e.gen == 0 {
		e.gen = 1
	}
	s.free = append(s.free, h.index)
	s.live--
	return true
}

func (s *slab[T]) len() int { return s.live }

func (s *slab[T]) each(fn func(handle[T], *T)) {
	for i := range s.entries {
		e := &s.entries[i]
		if e.val != nil {
			fn(handle[T]{index: uint32(i), gen: e.gen}, e.val)
		}
	}
}

// arena owns every node and fiber of one app. Nodes and fibers refer to
// each other through handles only.
type arena struct {
	nodes  slab[Node]
	fibers slab[fiber]
}

func (a *arena) node(id NodeID) *Node { return a.nodes.get(id) }

func (a *arena) fiber(id FiberID) *fiber { return a.fibers.get(id) }
