package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/bloc/pkg/component"
)

// Default tracer name.
const defaultTracerName = "bloc"

// Config configures a Collector.
type Config struct {
	// Namespace is the metrics namespace (default: "bloc").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer

	// Tracing enables spans for commits and failed renders.
	Tracing bool

	// TracerName is the tracer name (default: "bloc").
	TracerName string

	// Tracer overrides the tracer resolved from the global provider.
	Tracer trace.Tracer
}

// Option configures a Collector.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

// WithTracing enables or disables spans.
func WithTracing(enabled bool) Option {
	return func(c *Config) {
		c.Tracing = enabled
	}
}

// WithTracerName sets the tracer name.
func WithTracerName(name string) Option {
	return func(c *Config) {
		c.TracerName = name
	}
}

// WithTracer sets the tracer and enables tracing.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Config) {
		c.Tracer = tracer
		c.Tracing = true
	}
}

func defaultConfig() Config {
	return Config{
		Namespace:  "bloc",
		Buckets:    prometheus.DefBuckets,
		Registry:   prometheus.DefaultRegisterer,
		TracerName: defaultTracerName,
	}
}

// Collector records scheduler events. It implements component.Observer.
type Collector struct {
	rendersTotal    *prometheus.CounterVec
	renderDuration  *prometheus.HistogramVec
	renderErrors    *prometheus.CounterVec
	commitsTotal    *prometheus.CounterVec
	commitDuration  *prometheus.HistogramVec
	batchDuration   *prometheus.HistogramVec
	fibersCancelled prometheus.Counter
	pendingRoots    prometheus.Gauge

	tracer trace.Tracer
}

var _ component.Observer = (*Collector)(nil)

// New creates a Collector and registers its metrics.
func New(opts ...Option) *Collector {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	c := &Collector{
		rendersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "renders_total",
			Help:        "Total number of component render function calls",
			ConstLabels: config.ConstLabels,
		}, []string{"component", "status"}),

		renderDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_duration_seconds",
			Help:        "Render function duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"component"}),

		renderErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_errors_total",
			Help:        "Total number of failed renders",
			ConstLabels: config.ConstLabels,
		}, []string{"component"}),

		commitsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "commits_total",
			Help:        "Total number of finished render batches",
			ConstLabels: config.ConstLabels,
		}, []string{"kind", "outcome"}),

		commitDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "commit_duration_seconds",
			Help:        "Time spent applying a batch in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"kind"}),

		batchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "batch_duration_seconds",
			Help:        "Time from batch creation to commit in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"kind"}),

		fibersCancelled: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "fibers_cancelled_total",
			Help:        "Total number of fibers cancelled before rendering",
			ConstLabels: config.ConstLabels,
		}),

		pendingRoots: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "pending_roots",
			Help:        "Number of render batches in flight",
			ConstLabels: config.ConstLabels,
		}),
	}

	if config.Tracing {
		c.tracer = config.Tracer
		if c.tracer == nil {
			c.tracer = otel.Tracer(config.TracerName)
		}
	}
	return c
}

func kind(mount bool) string {
	if mount {
		return "mount"
	}
	return "patch"
}

// RootStarted implements component.Observer.
func (c *Collector) RootStarted(info component.RootInfo) {
	c.pendingRoots.Inc()
}

// RenderFinished implements component.Observer.
func (c *Collector) RenderFinished(info component.RenderInfo) {
	status := "success"
	if info.Err != nil {
		status = "error"
		c.renderErrors.WithLabelValues(info.Component).Inc()
	}
	c.rendersTotal.WithLabelValues(info.Component, status).Inc()
	c.renderDuration.WithLabelValues(info.Component).Observe(info.Duration.Seconds())

	if c.tracer == nil || info.Err == nil {
		return
	}
	end := time.Now()
	_, span := c.tracer.Start(context.Background(), "bloc.render",
		trace.WithTimestamp(end.Add(-info.Duration)),
		trace.WithAttributes(
			attribute.String("bloc.app_id", info.App),
			attribute.String("bloc.component", info.Component),
			attribute.String("bloc.node", info.Node.String()),
		),
	)
	span.RecordError(info.Err)
	span.SetStatus(codes.Error, info.Err.Error())
	span.End(trace.WithTimestamp(end))
}

// CommitFinished implements component.Observer.
func (c *Collector) CommitFinished(info component.CommitInfo) {
	k := kind(info.Mount)
	c.pendingRoots.Dec()
	c.commitsTotal.WithLabelValues(k, info.Outcome).Inc()
	if info.Outcome == component.OutcomeCommitted {
		c.commitDuration.WithLabelValues(k).Observe(info.Apply.Seconds())
		c.batchDuration.WithLabelValues(k).Observe(info.Duration.Seconds())
	}

	if c.tracer == nil {
		return
	}
	_, span := c.tracer.Start(context.Background(), "bloc."+k,
		trace.WithTimestamp(info.Start),
		trace.WithAttributes(
			attribute.String("bloc.app_id", info.App),
			attribute.String("bloc.root", info.Root.String()),
			attribute.String("bloc.component", info.Component),
			attribute.String("bloc.outcome", info.Outcome),
			attribute.Int("bloc.fibers", info.Fibers),
			attribute.Int("bloc.destroyed", info.Destroyed),
		),
	)
	if info.Err != nil {
		span.RecordError(info.Err)
		var re *component.RenderError
		if errors.As(info.Err, &re) {
			span.SetAttributes(attribute.String("bloc.failed_component", re.Component))
		}
		span.SetStatus(codes.Error, info.Err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(info.Start.Add(info.Duration)))
}

// FibersCancelled implements component.Observer.
func (c *Collector) FibersCancelled(app string, n int) {
	c.fibersCancelled.Add(float64(n))
}
