package metrics

import (
	"slices"
	"sync/atomic"
	"time"

	"github.com/ripple-dev/ripple/pkg/ripple"
)

// Stats is a point-in-time snapshot of collected runtime activity.
type Stats struct {
	NodesCreated     int64 `json:"nodes_created"`
	NodesDisposed    int64 `json:"nodes_disposed"`
	LiveNodes        int64 `json:"live_nodes"`
	SignalWrites     int64 `json:"signal_writes"`
	ComputationRuns  int64 `json:"computation_runs"`
	BatchesCommitted int64 `json:"batches_committed"`
	StagedWrites     int64 `json:"staged_writes"`
	ErrorsRouted     int64 `json:"errors_routed"`
	ErrorsUnhandled  int64 `json:"errors_unhandled"`

	// Evaluation latency percentiles in microseconds.
	RunLatencyP50 int64 `json:"run_latency_p50_us"`
	RunLatencyP99 int64 `json:"run_latency_p99_us"`

	CollectedAt time.Time `json:"collected_at"`
}

// Collector is a runtime hook that aggregates activity into atomic
// counters, without a Prometheus registry. The inspector serves its
// snapshots; it also works standalone for tests and benchmarks.
type Collector struct {
	nodesCreated     atomic.Int64
	nodesDisposed    atomic.Int64
	signalWrites     atomic.Int64
	computationRuns  atomic.Int64
	batchesCommitted atomic.Int64
	stagedWrites     atomic.Int64
	errorsRouted     atomic.Int64
	errorsUnhandled  atomic.Int64

	// Latency tracking
	latencies []int64
	latencyMu atomic.Int32 // Simple spinlock
}

var _ ripple.Hook = (*Collector)(nil)

// NewCollector creates a new Collector.
func NewCollector() *Collector {
	return &Collector{
		latencies: make([]int64, 0, 1000),
	}
}

// Name implements ripple.Hook.
func (c *Collector) Name() string { return "collector" }

// NodeCreated implements ripple.Hook.
func (c *Collector) NodeCreated(ripple.NodeInfo) {
	c.nodesCreated.Add(1)
}

// NodeDisposed implements ripple.Hook.
func (c *Collector) NodeDisposed(ripple.NodeInfo) {
	c.nodesDisposed.Add(1)
}

// SignalWrite implements ripple.Hook.
func (c *Collector) SignalWrite(ripple.NodeInfo, any, any) {
	c.signalWrites.Add(1)
}

// ComputationRan implements ripple.Hook.
func (c *Collector) ComputationRan(_ ripple.NodeInfo, d time.Duration) {
	c.computationRuns.Add(1)
	c.recordLatency(d.Microseconds())
}

// BatchCommitted implements ripple.Hook.
func (c *Collector) BatchCommitted(staged int, _ time.Duration) {
	c.batchesCommitted.Add(1)
	c.stagedWrites.Add(int64(staged))
}

// ErrorRouted implements ripple.Hook.
func (c *Collector) ErrorRouted(_ ripple.NodeInfo, _ error, handled bool) {
	c.errorsRouted.Add(1)
	if !handled {
		c.errorsUnhandled.Add(1)
	}
}

// recordLatency records one evaluation latency in microseconds.
func (c *Collector) recordLatency(latencyUs int64) {
	// Simple spinlock for the latency array
	for !c.latencyMu.CompareAndSwap(0, 1) {
		// Spin
	}
	defer c.latencyMu.Store(0)

	// Keep only recent samples
	if len(c.latencies) >= 1000 {
		c.latencies = c.latencies[500:] // Drop oldest half
	}
	c.latencies = append(c.latencies, latencyUs)
}

// Snapshot returns current counter values and latency percentiles.
func (c *Collector) Snapshot() Stats {
	stats := Stats{
		NodesCreated:     c.nodesCreated.Load(),
		NodesDisposed:    c.nodesDisposed.Load(),
		SignalWrites:     c.signalWrites.Load(),
		ComputationRuns:  c.computationRuns.Load(),
		BatchesCommitted: c.batchesCommitted.Load(),
		StagedWrites:     c.stagedWrites.Load(),
		ErrorsRouted:     c.errorsRouted.Load(),
		ErrorsUnhandled:  c.errorsUnhandled.Load(),
		CollectedAt:      time.Now(),
	}
	stats.LiveNodes = stats.NodesCreated - stats.NodesDisposed
	stats.RunLatencyP50, stats.RunLatencyP99 = c.latencyPercentiles()
	return stats
}

// latencyPercentiles calculates P50 and P99 latencies in microseconds.
func (c *Collector) latencyPercentiles() (p50, p99 int64) {
	for !c.latencyMu.CompareAndSwap(0, 1) {
		// Spin
	}
	defer c.latencyMu.Store(0)

	n := len(c.latencies)
	if n == 0 {
		return 0, 0
	}

	sorted := make([]int64, n)
	copy(sorted, c.latencies)
	slices.Sort(sorted)

	return sorted[n/2], sorted[(n*99)/100]
}

// Reset resets all counters and recorded latencies.
func (c *Collector) Reset() {
	c.nodesCreated.Store(0)
	c.nodesDisposed.Store(0)
	c.signalWrites.Store(0)
	c.computationRuns.Store(0)
	c.batchesCommitted.Store(0)
	c.stagedWrites.Store(0)
	c.errorsRouted.Store(0)
	c.errorsUnhandled.Store(0)

	for !c.latencyMu.CompareAndSwap(0, 1) {
		// Spin
	}
	c.latencies = c.latencies[:0]
	c.latencyMu.Store(0)
}
