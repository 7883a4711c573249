// Package component turns a tree of component instances into an
// incrementally patched block tree.
//
// A Node is one component instance: it owns its props, its lifecycle
// hooks, its children by key, and the block it rendered. Nodes are
// blocks themselves, so a parent embeds a child node anywhere in its own
// output and the child patches in place.
//
// # Batches
//
// Rendering work is tracked by fibers. A render request creates (or
// reuses) a fiber on the node; the children the node re-renders get
// child fibers in the same batch. The root fiber of the batch counts the
// fibers that have not produced a block yet, plus itself. When the count
// reaches zero the batch commits, all at once:
//
//	willPatch hooks -> DOM swap -> mounted hooks -> patched hooks -> destroyed hooks
//
// Mounted and patched hooks run children first. A node never has more
// than one fiber: a new request for a node with work in flight reuses
// that fiber and cancels its unfinished descendants.
//
// Nodes and fibers live in an arena owned by the App and refer to each
// other by generation-checked handles (NodeID, FiberID).
//
// # Scheduling
//
// Everything runs on a loop.Loop. Render marks the node dirty and waits
// for the next checkpoint, so several requests in one tick produce one
// render. Asynchronous hooks (OnWillStart, OnWillUpdateProps) run off the
// loop; the batch stays open until they finish.
//
// A render error, or a failing asynchronous hook, rejects the batch and
// destroys the app.
package component
