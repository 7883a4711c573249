package dom

// Op is the kind of a mutation.
type Op uint8

const (
	OpInsertNode  Op = 0x01 // Node attached under Parent
	OpRemoveNode  Op = 0x02 // Node detached from Parent
	OpMoveNode    Op = 0x03 // Attached Node moved under Parent
	OpSetText     Op = 0x04 // Text node content changed
	OpSetAttr     Op = 0x05 // Attribute set
	OpRemoveAttr  Op = 0x06 // Attribute removed
	OpAddClass    Op = 0x07 // Class added
	OpRemoveClass Op = 0x08 // Class removed
)

// String returns the string representation of the Op.
func (op Op) String() string {
	switch op {
	case OpInsertNode:
		return "InsertNode"
	case OpRemoveNode:
		return "RemoveNode"
	case OpMoveNode:
		return "MoveNode"
	case OpSetText:
		return "SetText"
	case OpSetAttr:
		return "SetAttr"
	case OpRemoveAttr:
		return "RemoveAttr"
	case OpAddClass:
		return "AddClass"
	case OpRemoveClass:
		return "RemoveClass"
	default:
		return "Unknown"
	}
}

// Mutation describes a single change to the tree.
type Mutation struct {
	Op     Op
	Node   *Node // Target node
	Parent *Node // For Insert/Move/Remove
	Anchor *Node // For Insert/Move, nil when appended
	Key    string
	Value  string
}

// Observer receives mutations in the order they happen.
type Observer interface {
	Observe(Mutation)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Mutation)

// Observe calls f(m).
func (f ObserverFunc) Observe(m Mutation) { f(m) }

// Document owns nodes and their observers.
type Document struct {
	body        *Node
	nextID      uint64
	listenerSeq uint64
	observers   []*observerEntry
}

type observerEntry struct {
	obs Observer
}

// NewDocument creates a document with an empty <body>.
func NewDocument() *Document {
	d := &Document{}
	d.body = d.CreateElement("body")
	return d
}

// Body returns the document's root element.
func (d *Document) Body() *Node { return d.body }

// CreateElement creates a detached element.
func (d *Document) CreateElement(tag string) *Node {
	d.nextID++
	return &Node{id: d.nextID, kind: KindElement, tag: tag, doc: d}
}

// CreateText creates a detached text node.
func (d *Document) CreateText(text string) *Node {
	d.nextID++
	return &Node{id: d.nextID, kind: KindText, text: text, doc: d}
}

// Observe registers an observer and returns a function that removes it.
func (d *Document) Observe(o Observer) func() {
	entry := &observerEntry{obs: o}
	d.observers = append(d.observers, entry)
	return func() {
		for i, e := range d.observers {
			if e == entry {
				d.observers = append(d.observers[:i:i], d.observers[i+1:]...)
				return
			}
		}
	}
}

func (d *Document) emit(m Mutation) {
	for _, e := range d.observers {
		e.obs.Observe(m)
	}
}

// Recorder is an Observer that keeps every mutation it sees.
type Recorder struct {
	Mutations []Mutation
}

// Observe appends m.
func (r *Recorder) Observe(m Mutation) {
	r.Mutations = append(r.Mutations, m)
}

// Count returns the number of recorded mutations with the given op.
func (r *Recorder) Count(op Op) int {
	n := 0
	for _, m := range r.Mutations {
		if m.Op == op {
			n++
		}
	}
	return n
}

// Reset forgets all recorded mutations.
func (r *Recorder) Reset() {
	r.Mutations = nil
}
