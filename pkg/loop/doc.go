// Package loop provides the single-threaded cooperative scheduler that
// rendering runs on.
//
// A Loop owns a FIFO microtask queue. Queue schedules a function to run
// once everything queued before it has run; this is the checkpoint render
// requests wait for, so a burst of synchronous requests in one tick is
// seen together.
//
// Work that blocks (fetching data before a first render, for instance) is
// started with Go. It runs on its own goroutine, and its completion
// callback is delivered back onto the loop, so loop-owned state is only
// ever touched from one goroutine. Submit is the thread-safe way for any
// other goroutine to run something on the loop.
//
//	l := loop.New()
//	l.Queue(func() { fmt.Println("checkpoint") })
//	l.Go(fetch, func(err error) { fmt.Println("fetched", err) })
//	_ = l.RunUntilIdle(ctx)
//
// Future carries the outcome of loop work to callbacks (run as
// microtasks) and to outside goroutines (Wait).
package loop
