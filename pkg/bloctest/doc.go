// Package bloctest provides testing helpers for bloc components.
//
// A Harness mounts a component into a fresh document, drives the loop
// until idle after every step and asserts on the rendered HTML.
//
// # Quick Start
//
//	func TestCounter(t *testing.T) {
//	    h := bloctest.Mount(t, Counter)
//	    h.ExpectHTML("<button>0</button>")
//
//	    h.Click("button")
//	    h.ExpectContains("1")
//	}
//
// # Driving Updates
//
// Do runs a function on the loop and waits until all work it caused,
// including asynchronous hooks, has settled:
//
//	h.Do(func() { board.Add("delta") })
//	h.Await(board.Remove("alpha"))
//
// # Mutations
//
// Every mutation of the document is recorded, so tests can assert that
// an update touched only what it should:
//
//	h.ResetMutations()
//	h.Render()
//	h.ExpectMutations(dom.OpSetText, 1)
package bloctest
