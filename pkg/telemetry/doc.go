// Package telemetry records rendering metrics with Prometheus and commit
// traces with OpenTelemetry.
//
// A Collector implements component.Observer:
//
//	c := telemetry.New(telemetry.WithRegistry(reg))
//	app := component.NewApp(root, component.WithObserver(c))
//
// Metrics collected (namespace "bloc" by default):
//   - bloc_renders_total: render function calls by component and status
//   - bloc_render_duration_seconds: render function duration by component
//   - bloc_render_errors_total: failed renders by component
//   - bloc_commits_total: finished batches by kind (mount, patch) and outcome
//   - bloc_commit_duration_seconds: time spent applying a batch
//   - bloc_batch_duration_seconds: batch creation to commit
//   - bloc_fibers_cancelled_total: fibers cancelled by newer requests
//   - bloc_pending_roots: batches started and not yet finished
//
// Spans use the global tracer provider unless WithTracer is given.
package telemetry
