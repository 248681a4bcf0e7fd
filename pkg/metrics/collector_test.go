package metrics

import (
	"testing"

	"github.com/ripple-dev/ripple/pkg/ripple"
)

func TestCollectorSnapshotAndReset(t *testing.T) {
	c := NewCollector()
	remove := ripple.AddHook(c)
	defer remove()

	count := ripple.NewSignal(0)
	ripple.CreateEffect(func() { _ = count.Get() })
	count.Set(1)
	ripple.Batch(func() {
		count.Set(2)
		count.Set(3)
	})

	stats := c.Snapshot()
	if stats.NodesCreated != 2 {
		t.Errorf("NodesCreated=%d, want 2", stats.NodesCreated)
	}
	if stats.LiveNodes != 2 {
		t.Errorf("LiveNodes=%d, want 2", stats.LiveNodes)
	}
	// Direct write plus the committed batch write.
	if stats.SignalWrites != 2 {
		t.Errorf("SignalWrites=%d, want 2", stats.SignalWrites)
	}
	// Initial run, the direct write, the commit.
	if stats.ComputationRuns != 3 {
		t.Errorf("ComputationRuns=%d, want 3", stats.ComputationRuns)
	}
	if stats.BatchesCommitted != 1 {
		t.Errorf("BatchesCommitted=%d, want 1", stats.BatchesCommitted)
	}
	if stats.StagedWrites != 1 {
		t.Errorf("StagedWrites=%d, want 1", stats.StagedWrites)
	}
	if stats.ErrorsRouted != 0 {
		t.Errorf("ErrorsRouted=%d, want 0", stats.ErrorsRouted)
	}
	if stats.CollectedAt.IsZero() {
		t.Error("CollectedAt not set")
	}

	c.Reset()
	stats = c.Snapshot()
	if stats.NodesCreated != 0 || stats.SignalWrites != 0 || stats.ComputationRuns != 0 {
		t.Errorf("stats after Reset=%+v, want zeros", stats)
	}
	if stats.RunLatencyP50 != 0 || stats.RunLatencyP99 != 0 {
		t.Errorf("latencies after Reset=%d/%d, want 0/0", stats.RunLatencyP50, stats.RunLatencyP99)
	}
}

func TestCollectorLatencyPercentiles(t *testing.T) {
	c := NewCollector()

	for i := 1; i <= 100; i++ {
		c.recordLatency(int64(i))
	}

	p50, p99 := c.latencyPercentiles()
	if p50 != 51 {
		t.Errorf("p50=%d, want 51", p50)
	}
	if p99 != 100 {
		t.Errorf("p99=%d, want 100", p99)
	}
}

func TestCollectorLatencyWindowDropsOldestHalf(t *testing.T) {
	c := NewCollector()

	for i := 0; i < 1000; i++ {
		c.recordLatency(1)
	}
	c.recordLatency(2)

	if n := len(c.latencies); n != 501 {
		t.Errorf("retained %d samples, want 501", n)
	}
}
