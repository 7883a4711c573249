// Package inspect serves a live view of a mounted application over HTTP.
//
// Routes (relative to where Handler is mounted):
//
//	GET  /snapshot   app state and element tree (JSON, or msgpack with ?format=msgpack)
//	GET  /html       rendered HTML of the mount target
//	POST /render     re-render the root component and wait for the commit
//	GET  /ws         WebSocket stream: one snapshot, then every mutation
//	GET  /metrics    Prometheus metrics, when a gatherer is configured
//	GET  /healthz    liveness
//
// All access to the application and its document goes through the
// application's loop, so the loop must be running (loop.Run) while the
// handler serves requests.
package inspect
