package inspect

import (
	"github.com/vango-dev/bloc/pkg/component"
	"github.com/vango-dev/bloc/pkg/dom"
)

// State is a point-in-time view of an application.
type State struct {
	App       string       `json:"app" msgpack:"app"`
	Destroyed bool         `json:"destroyed" msgpack:"destroyed"`
	Root      *NodeInfo    `json:"root,omitempty" msgpack:"root,omitempty"`
	Nodes     int          `json:"nodes" msgpack:"nodes"`
	Fibers    int          `json:"fibers" msgpack:"fibers"`
	Seq       uint64       `json:"seq" msgpack:"seq"`
	Tree      dom.Snapshot `json:"tree" msgpack:"tree"`
}

// NodeInfo describes a component node and its keyed children.
type NodeInfo struct {
	ID        string      `json:"id" msgpack:"id"`
	Component string      `json:"component" msgpack:"component"`
	Status    string      `json:"status" msgpack:"status"`
	Key       string      `json:"key,omitempty" msgpack:"key,omitempty"`
	Pending   bool        `json:"pending,omitempty" msgpack:"pending,omitempty"`
	Children  []*NodeInfo `json:"children,omitempty" msgpack:"children,omitempty"`
}

// Record is the wire form of one document mutation.
type Record struct {
	Seq    uint64        `json:"seq" msgpack:"seq"`
	Op     string        `json:"op" msgpack:"op"`
	Node   uint64        `json:"node" msgpack:"node"`
	Parent uint64        `json:"parent,omitempty" msgpack:"parent,omitempty"`
	Anchor uint64        `json:"anchor,omitempty" msgpack:"anchor,omitempty"`
	Key    string        `json:"key,omitempty" msgpack:"key,omitempty"`
	Value  string        `json:"value,omitempty" msgpack:"value,omitempty"`
	Tree   *dom.Snapshot `json:"tree,omitempty" msgpack:"tree,omitempty"`
}

// Message is one WebSocket frame.
type Message struct {
	Type     string  `json:"type" msgpack:"type"`
	State    *State  `json:"state,omitempty" msgpack:"state,omitempty"`
	Mutation *Record `json:"mutation,omitempty" msgpack:"mutation,omitempty"`
}

// Message types.
const (
	MessageSnapshot = "snapshot"
	MessageMutation = "mutation"
)

func describe(n *component.Node) *NodeInfo {
	if n == nil {
		return nil
	}
	info := &NodeInfo{
		ID:        n.ID().String(),
		Component: n.Name(),
		Status:    n.Status().String(),
		Key:       n.Key(),
		Pending:   n.HasFiber(),
	}
	for _, key := range n.ChildKeys() {
		if c := describe(n.Child(key)); c != nil {
			info.Children = append(info.Children, c)
		}
	}
	return info
}

func newRecord(seq uint64, m dom.Mutation) *Record {
	r := &Record{
		Seq:   seq,
		Op:    m.Op.String(),
		Key:   m.Key,
		Value: m.Value,
	}
	if m.Node != nil {
		r.Node = m.Node.ID()
	}
	if m.Parent != nil {
		r.Parent = m.Parent.ID()
	}
	if m.Anchor != nil {
		r.Anchor = m.Anchor.ID()
	}
	if m.Op == dom.OpInsertNode && m.Node != nil {
		tree := m.Node.Snapshot()
		r.Tree = &tree
	}
	return r
}
