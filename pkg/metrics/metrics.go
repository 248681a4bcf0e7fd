// Package metrics exports reactive runtime activity as Prometheus
// metrics and as plain atomic counters for embedding in other tooling.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ripple-dev/ripple/pkg/ripple"
)

// Config configures the Prometheus runtime metrics hook.
type Config struct {
	// Namespace is the metrics namespace (default: "ripple").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for computation and batch duration.
	// Default: exponential buckets from 1µs to ~262ms.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the Prometheus runtime metrics hook.
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

// WithBuckets sets the duration histogram buckets.
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

// defaultConfig returns the default metrics configuration.
func defaultConfig() Config {
	return Config{
		Namespace:   "ripple",
		Subsystem:   "",
		ConstLabels: nil,
		Buckets:     prometheus.ExponentialBuckets(1e-6, 4, 10),
		Registry:    prometheus.DefaultRegisterer,
	}
}

// RuntimeMetrics is a runtime hook that exports graph activity as
// Prometheus metrics. Attach it with ripple.AddHook or Install.
type RuntimeMetrics struct {
	nodesCreated  *prometheus.CounterVec
	nodesDisposed *prometheus.CounterVec
	liveNodes     prometheus.Gauge
	signalWrites  prometheus.Counter
	runsTotal     *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	batchesTotal  prometheus.Counter
	batchStaged   prometheus.Histogram
	batchDuration prometheus.Histogram
	errorsRouted  *prometheus.CounterVec
}

var _ ripple.Hook = (*RuntimeMetrics)(nil)

// New creates a RuntimeMetrics hook and registers its metrics.
//
// Metrics exported:
//   - ripple_nodes_created_total: Counter of nodes created by kind
//   - ripple_nodes_disposed_total: Counter of nodes disposed by kind
//   - ripple_live_nodes: Gauge of nodes created minus nodes disposed
//   - ripple_signal_writes_total: Counter of applied signal writes
//   - ripple_computation_runs_total: Counter of evaluations by kind
//   - ripple_computation_duration_seconds: Histogram of evaluation duration
//   - ripple_batches_committed_total: Counter of committed batches
//   - ripple_batch_staged_writes: Histogram of staged writes per batch
//   - ripple_batch_duration_seconds: Histogram of batch commit duration
//   - ripple_errors_routed_total: Counter of routed errors by status
//
// Example:
//
//	m := metrics.New(metrics.WithNamespace("myapp"))
//	remove := ripple.AddHook(m)
//	defer remove()
//
//	// Expose metrics endpoint
//	http.Handle("/metrics", promhttp.Handler())
func New(opts ...Option) *RuntimeMetrics {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &RuntimeMetrics{
		nodesCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "nodes_created_total",
			Help:        "Total number of reactive nodes created",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		nodesDisposed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "nodes_disposed_total",
			Help:        "Total number of reactive nodes disposed",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		liveNodes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "live_nodes",
			Help:        "Number of reactive nodes created and not yet disposed",
			ConstLabels: config.ConstLabels,
		}),

		signalWrites: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "signal_writes_total",
			Help:        "Total number of signal writes that changed a value",
			ConstLabels: config.ConstLabels,
		}),

		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "computation_runs_total",
			Help:        "Total number of computation evaluations",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		runDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "computation_duration_seconds",
			Help:        "Computation evaluation duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"kind"}),

		batchesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "batches_committed_total",
			Help:        "Total number of committed batches",
			ConstLabels: config.ConstLabels,
		}),

		batchStaged: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "batch_staged_writes",
			Help:        "Number of staged writes applied per batch",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{1, 2, 5, 10, 25, 50, 100, 250},
		}),

		batchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "batch_duration_seconds",
			Help:        "Batch commit duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		errorsRouted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "errors_routed_total",
			Help:        "Total number of routed computation errors by status",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),
	}
}

// Install creates a RuntimeMetrics hook and attaches it to the runtime.
// The returned function detaches the hook again; the metrics stay
// registered.
func Install(opts ...Option) (*RuntimeMetrics, func()) {
	m := New(opts...)
	return m, ripple.AddHook(m)
}

// Name implements ripple.Hook.
func (m *RuntimeMetrics) Name() string { return "metrics" }

// NodeCreated implements ripple.Hook.
func (m *RuntimeMetrics) NodeCreated(info ripple.NodeInfo) {
	m.nodesCreated.WithLabelValues(string(info.Kind)).Inc()
	m.liveNodes.Inc()
}

// NodeDisposed implements ripple.Hook.
func (m *RuntimeMetrics) NodeDisposed(info ripple.NodeInfo) {
	m.nodesDisposed.WithLabelValues(string(info.Kind)).Inc()
	m.liveNodes.Dec()
}

// SignalWrite implements ripple.Hook.
func (m *RuntimeMetrics) SignalWrite(ripple.NodeInfo, any, any) {
	m.signalWrites.Inc()
}

// ComputationRan implements ripple.Hook.
func (m *RuntimeMetrics) ComputationRan(info ripple.NodeInfo, d time.Duration) {
	kind := string(info.Kind)
	m.runsTotal.WithLabelValues(kind).Inc()
	m.runDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// BatchCommitted implements ripple.Hook.
func (m *RuntimeMetrics) BatchCommitted(staged int, d time.Duration) {
	m.batchesTotal.Inc()
	m.batchStaged.Observe(float64(staged))
	m.batchDuration.Observe(d.Seconds())
}

// ErrorRouted implements ripple.Hook.
func (m *RuntimeMetrics) ErrorRouted(_ ripple.NodeInfo, _ error, handled bool) {
	status := "unhandled"
	if handled {
		status = "handled"
	}
	m.errorsRouted.WithLabelValues(status).Inc()
}
