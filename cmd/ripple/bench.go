package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"runtime"
	"runtime/debug"
	runtimemetrics "runtime/metrics"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/ripple-dev/ripple"
	"github.com/ripple-dev/ripple/pkg/metrics"
)

const gib = int64(1024 * 1024 * 1024)

// profile is a named benchmark workload shape.
type profile struct {
	Name          string
	Graphs        int
	Duration      time.Duration
	WPS           float64
	Depth         int
	Fanout        int
	BatchSize     int
	MaxProcs      int
	MemLimitBytes int64
}

var profiles = map[string]profile{
	"fast": {
		Name:      "fast",
		Graphs:    4,
		Duration:  5 * time.Second,
		WPS:       100,
		Depth:     5,
		Fanout:    2,
		BatchSize: 1,
	},
	"standard": {
		Name:      "standard",
		Graphs:    16,
		Duration:  15 * time.Second,
		WPS:       250,
		Depth:     10,
		Fanout:    4,
		BatchSize: 1,
	},
	"stress": {
		Name:          "stress",
		Graphs:        64,
		Duration:      30 * time.Second,
		WPS:           500,
		Depth:         20,
		Fanout:        8,
		BatchSize:     8,
		MaxProcs:      4,
		MemLimitBytes: 2 * gib,
	},
}

type benchConfig struct {
	Profile       string
	Graphs        int
	Duration      time.Duration
	WPS           float64
	Depth         int
	Fanout        int
	BatchSize     int
	MaxProcs      int
	MemLimitBytes int64
	JSONOutput    string
}

func benchCmd() *cobra.Command {
	var (
		profileFlag  string
		graphsFlag   int
		durationFlag string
		wpsFlag      float64
		depthFlag    int
		fanoutFlag   int
		batchFlag    int
		maxProcsFlag int
		memLimitFlag string
		jsonFlag     string
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark write propagation through reactive graphs",
		Long: `Benchmark write propagation through reactive graphs.

Each graph runs on its own goroutine and holds a chain of memos with a
fan-out of effects at the head. Writers push values at a target rate
and measure how long each write takes to settle through the graph.

The report covers settle latency percentiles, throughput, runtime
activity observed through hooks, and GC behavior. It is written as
JSON for regression tracking; a human summary goes to stderr.

Examples:
  ripple bench
  ripple bench --profile=stress
  ripple bench --graphs=32 --depth=50 --duration=10s
  ripple bench --json=bench.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveBenchConfig(
				profileFlag, graphsFlag, durationFlag, wpsFlag, depthFlag,
				fanoutFlag, batchFlag, maxProcsFlag, memLimitFlag, jsonFlag,
			)
			if err != nil {
				return err
			}
			return runBench(cfg)
		},
	}

	cmd.Flags().StringVar(&profileFlag, "profile", "standard", "Profile: fast|standard|stress")
	cmd.Flags().IntVar(&graphsFlag, "graphs", -1, "Number of concurrent graphs")
	cmd.Flags().StringVar(&durationFlag, "duration", "", "Benchmark duration, e.g. 30s")
	cmd.Flags().Float64Var(&wpsFlag, "wps", -1, "Target writes/sec per graph")
	cmd.Flags().IntVar(&depthFlag, "depth", -1, "Memo chain depth per graph")
	cmd.Flags().IntVar(&fanoutFlag, "fanout", -1, "Effects reading the chain head")
	cmd.Flags().IntVar(&batchFlag, "batch", -1, "Signals written per batched write (1 = unbatched)")
	cmd.Flags().IntVar(&maxProcsFlag, "max-procs", -1, "GOMAXPROCS cap (0 to leave unchanged)")
	cmd.Flags().StringVar(&memLimitFlag, "mem-limit", "", "GOMEMLIMIT (e.g. 2GiB)")
	cmd.Flags().StringVar(&jsonFlag, "json", "-", "JSON output path ('-' for stdout)")

	return cmd
}

func resolveBenchConfig(
	profileName string,
	graphs int,
	duration string,
	wps float64,
	depth, fanout, batch, maxProcs int,
	memLimit, jsonOutput string,
) (benchConfig, error) {
	name := strings.ToLower(strings.TrimSpace(profileName))
	if name == "" {
		name = "standard"
	}

	base, ok := profiles[name]
	if !ok {
		return benchConfig{}, fmt.Errorf("unknown profile %q", name)
	}

	cfg := benchConfig{
		Profile:       base.Name,
		Graphs:        base.Graphs,
		Duration:      base.Duration,
		WPS:           base.WPS,
		Depth:         base.Depth,
		Fanout:        base.Fanout,
		BatchSize:     base.BatchSize,
		MaxProcs:      base.MaxProcs,
		MemLimitBytes: base.MemLimitBytes,
		JSONOutput:    strings.TrimSpace(jsonOutput),
	}

	if graphs != -1 {
		cfg.Graphs = graphs
	}
	if duration != "" {
		d, err := time.ParseDuration(duration)
		if err != nil {
			return benchConfig{}, fmt.Errorf("invalid --duration: %w", err)
		}
		cfg.Duration = d
	}
	if wps != -1 {
		cfg.WPS = wps
	}
	if depth != -1 {
		cfg.Depth = depth
	}
	if fanout != -1 {
		cfg.Fanout = fanout
	}
	if batch != -1 {
		cfg.BatchSize = batch
	}
	if maxProcs != -1 {
		cfg.MaxProcs = maxProcs
	}
	if memLimit != "" {
		limit, err := parseBytes(memLimit)
		if err != nil {
			return benchConfig{}, fmt.Errorf("invalid --mem-limit: %w", err)
		}
		cfg.MemLimitBytes = limit
	}
	if cfg.JSONOutput == "" {
		cfg.JSONOutput = "-"
	}

	if cfg.Graphs <= 0 {
		return benchConfig{}, errors.New("--graphs must be > 0")
	}
	if cfg.Duration <= 0 {
		return benchConfig{}, errors.New("--duration must be > 0")
	}
	if cfg.WPS <= 0 {
		return benchConfig{}, errors.New("--wps must be > 0")
	}
	if cfg.Depth < 1 {
		return benchConfig{}, errors.New("--depth must be >= 1")
	}
	if cfg.Fanout < 0 {
		return benchConfig{}, errors.New("--fanout must be >= 0")
	}
	if cfg.BatchSize < 1 {
		return benchConfig{}, errors.New("--batch must be >= 1")
	}
	if cfg.MaxProcs < 0 {
		return benchConfig{}, errors.New("--max-procs must be >= 0")
	}
	if cfg.MemLimitBytes < 0 {
		return benchConfig{}, errors.New("--mem-limit must be >= 0")
	}

	return cfg, nil
}

func runBench(cfg benchConfig) error {
	if cfg.MaxProcs > 0 {
		runtime.GOMAXPROCS(cfg.MaxProcs)
	}
	if cfg.MemLimitBytes > 0 {
		debug.SetMemoryLimit(cfg.MemLimitBytes)
	}
	debug.SetGCPercent(100)

	// Runtime activity lands in the collector through the hook interface,
	// the same way the inspector observes a live application.
	collector := metrics.NewCollector()
	removeHook := ripple.AddHook(collector)
	defer removeHook()

	samplesCh := make(chan time.Duration, sampleBuffer(cfg.Graphs))
	var samples []time.Duration
	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for settle := range samplesCh {
			samples = append(samples, settle)
		}
	}()

	var writes atomic.Uint64

	var before runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	beforeMetrics := readRuntimeMetrics()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(cfg.Graphs)
	for i := 0; i < cfg.Graphs; i++ {
		go func() {
			defer wg.Done()
			runGraph(ctx, cfg, &writes, samplesCh)
		}()
	}

	wg.Wait()
	close(samplesCh)
	<-collectorDone

	elapsed := time.Since(start)

	var after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&after)
	afterMetrics := readRuntimeMetrics()

	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })

	report := buildReport(cfg, elapsed, samples, writes.Load(), collector.Snapshot(), before, after, beforeMetrics, afterMetrics)

	writeSummary(os.Stderr, report)
	return writeJSON(cfg.JSONOutput, report)
}

func sampleBuffer(graphs int) int {
	if graphs < 1 {
		return 1024
	}
	buf := graphs * 4
	if buf < 1024 {
		buf = 1024
	}
	return buf
}

// runGraph owns one independent reactive graph for the whole run:
// BatchSize source signals feeding a Depth-long memo chain with Fanout
// effects at the head. It writes at the target rate until ctx expires.
func runGraph(ctx context.Context, cfg benchConfig, writes *atomic.Uint64, samples chan<- time.Duration) {
	defer ripple.ReleaseContext()

	ripple.CreateRoot(func(dispose func()) any {
		defer dispose()

		sources := make([]*ripple.Signal[int], cfg.BatchSize)
		for i := range sources {
			sources[i] = ripple.NewSignal(0)
		}

		head := ripple.NewMemo(func() int {
			sum := 0
			for _, s := range sources {
				sum += s.Get()
			}
			return sum
		})
		for d := 1; d < cfg.Depth; d++ {
			prev := head
			head = ripple.NewMemo(func() int { return prev.Get() + 1 })
		}

		sink := 0
		for f := 0; f < cfg.Fanout; f++ {
			ripple.CreateEffect(func() {
				sink += head.Get()
			})
		}

		period := time.Duration(float64(time.Second) / cfg.WPS)
		seq := 0
		for {
			select {
			case <-ctx.Done():
				return nil
			default:
			}

			seq++
			start := time.Now()
			if len(sources) == 1 {
				sources[0].Set(seq)
			} else {
				ripple.Batch(func() {
					for _, s := range sources {
						s.Update(func(v int) int { return v + 1 })
					}
				})
			}
			settle := time.Since(start)

			writes.Add(1)
			samples <- settle

			if sleep := period - settle; sleep > 0 {
				timer := time.NewTimer(sleep)
				select {
				case <-ctx.Done():
					timer.Stop()
					return nil
				case <-timer.C:
				}
			}
		}
	})
}

func parseBytes(input string) (int64, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0, errors.New("empty size")
	}

	var i int
	for i < len(s) {
		c := s[i]
		if (c >= '0' && c <= '9') || c == '.' {
			i++
			continue
		}
		break
	}
	if i == 0 {
		return 0, fmt.Errorf("invalid size %q", input)
	}

	numPart := strings.TrimSpace(s[:i])
	suffix := strings.ToLower(strings.TrimSpace(s[i:]))

	value, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return 0, err
	}

	multiplier := float64(1)
	switch suffix {
	case "", "b":
		multiplier = 1
	case "kb":
		multiplier = 1e3
	case "mb":
		multiplier = 1e6
	case "gb":
		multiplier = 1e9
	case "tb":
		multiplier = 1e12
	case "kib":
		multiplier = 1024
	case "mib":
		multiplier = 1024 * 1024
	case "gib":
		multiplier = 1024 * 1024 * 1024
	case "tib":
		multiplier = 1024 * 1024 * 1024 * 1024
	default:
		return 0, fmt.Errorf("unknown size suffix %q", suffix)
	}

	bytes := value * multiplier
	if bytes < 0 {
		return 0, fmt.Errorf("invalid size %q", input)
	}

	return int64(bytes + 0.5), nil
}

type runtimeMetricsSnapshot struct {
	cpuTotalSeconds float64
	cpuGCSeconds    float64

	heapAllocsBytes   uint64
	heapAllocsObjects uint64
}

func readRuntimeMetrics() runtimeMetricsSnapshot {
	samples := []runtimemetrics.Sample{
		{Name: "/cpu/classes/total:cpu-seconds"},
		{Name: "/cpu/classes/gc/total:cpu-seconds"},
		{Name: "/gc/heap/allocs:bytes"},
		{Name: "/gc/heap/allocs:objects"},
	}
	runtimemetrics.Read(samples)

	var out runtimeMetricsSnapshot
	for _, s := range samples {
		switch s.Name {
		case "/cpu/classes/total:cpu-seconds":
			out.cpuTotalSeconds = s.Value.Float64()
		case "/cpu/classes/gc/total:cpu-seconds":
			out.cpuGCSeconds = s.Value.Float64()
		case "/gc/heap/allocs:bytes":
			out.heapAllocsBytes = s.Value.Uint64()
		case "/gc/heap/allocs:objects":
			out.heapAllocsObjects = s.Value.Uint64()
		}
	}
	return out
}

func cpuFraction(after, before runtimeMetricsSnapshot) float64 {
	total := after.cpuTotalSeconds - before.cpuTotalSeconds
	if total <= 0 {
		return 0
	}
	gc := after.cpuGCSeconds - before.cpuGCSeconds
	if gc < 0 {
		return 0
	}
	return gc / total
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := int(math.Ceil(float64(len(sorted))*p)) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func avgPause(after, before runtime.MemStats) time.Duration {
	gcCount := after.NumGC - before.NumGC
	if gcCount == 0 {
		return 0
	}
	return time.Duration((after.PauseTotalNs - before.PauseTotalNs) / uint64(gcCount))
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func us(d time.Duration) float64 {
	return float64(d) / float64(time.Microsecond)
}

type benchReport struct {
	Version    string         `json:"version"`
	Run        runInfo        `json:"run"`
	Workload   workloadInfo   `json:"workload"`
	LatencyUS  latencyInfo    `json:"settle_latency_us"`
	Throughput throughputInfo `json:"throughput"`
	Graph      graphInfo      `json:"graph"`
	GC         gcInfo         `json:"gc"`
}

type runInfo struct {
	Timestamp string `json:"timestamp"`
	Go        string `json:"go"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	CPUCount  int    `json:"cpu_count"`
	GitCommit string `json:"git_commit,omitempty"`
}

type workloadInfo struct {
	Profile       string  `json:"profile"`
	Graphs        int     `json:"graphs"`
	DurationMS    int64   `json:"duration_ms"`
	WPSPerGraph   float64 `json:"writes_per_sec_per_graph"`
	Depth         int     `json:"depth"`
	Fanout        int     `json:"fanout"`
	BatchSize     int     `json:"batch_size"`
	MaxProcs      int     `json:"max_procs"`
	MemLimitBytes int64   `json:"mem_limit_bytes"`
}

type latencyInfo struct {
	Min float64 `json:"min"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
	Max float64 `json:"max"`
}

type throughputInfo struct {
	WritesTotal       uint64  `json:"writes_total"`
	WritesPerSec      float64 `json:"writes_per_sec"`
	WritesPerSecGraph float64 `json:"writes_per_sec_per_graph"`
}

type graphInfo struct {
	NodesCreated     int64   `json:"nodes_created"`
	SignalWrites     int64   `json:"signal_writes"`
	ComputationRuns  int64   `json:"computation_runs"`
	BatchesCommitted int64   `json:"batches_committed"`
	RunsPerWrite     float64 `json:"runs_per_write"`
	RunLatencyP50US  int64   `json:"run_latency_p50_us"`
	RunLatencyP99US  int64   `json:"run_latency_p99_us"`
}

type gcInfo struct {
	AllocMB       float64 `json:"alloc_mb"`
	HeapLiveMB    float64 `json:"heap_live_mb"`
	NumGC         uint32  `json:"num_gc"`
	PauseTotalMS  float64 `json:"pause_total_ms"`
	PauseAvgMS    float64 `json:"pause_avg_ms"`
	GCCPUFraction float64 `json:"gc_cpu_fraction"`
	AllocsObjects uint64  `json:"allocs_objects"`
}

func buildReport(
	cfg benchConfig,
	elapsed time.Duration,
	latencies []time.Duration,
	writesTotal uint64,
	stats metrics.Stats,
	before runtime.MemStats,
	after runtime.MemStats,
	beforeMetrics runtimeMetricsSnapshot,
	afterMetrics runtimeMetricsSnapshot,
) benchReport {
	elapsedSeconds := math.Max(0.001, elapsed.Seconds())
	writesPerSec := float64(writesTotal) / elapsedSeconds

	latency := latencyInfo{}
	if len(latencies) > 0 {
		latency = latencyInfo{
			Min: us(latencies[0]),
			P50: us(percentile(latencies, 0.50)),
			P95: us(percentile(latencies, 0.95)),
			P99: us(percentile(latencies, 0.99)),
			Max: us(latencies[len(latencies)-1]),
		}
	}

	runsPerWrite := 0.0
	if writesTotal > 0 {
		runsPerWrite = float64(stats.ComputationRuns) / float64(writesTotal)
	}

	pauseTotal := time.Duration(after.PauseTotalNs - before.PauseTotalNs)

	return benchReport{
		Version: "1",
		Run: runInfo{
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Go:        runtime.Version(),
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
			CPUCount:  runtime.NumCPU(),
			GitCommit: gitCommit(),
		},
		Workload: workloadInfo{
			Profile:       cfg.Profile,
			Graphs:        cfg.Graphs,
			DurationMS:    cfg.Duration.Milliseconds(),
			WPSPerGraph:   cfg.WPS,
			Depth:         cfg.Depth,
			Fanout:        cfg.Fanout,
			BatchSize:     cfg.BatchSize,
			MaxProcs:      cfg.MaxProcs,
			MemLimitBytes: cfg.MemLimitBytes,
		},
		LatencyUS: latency,
		Throughput: throughputInfo{
			WritesTotal:       writesTotal,
			WritesPerSec:      writesPerSec,
			WritesPerSecGraph: writesPerSec / float64(cfg.Graphs),
		},
		Graph: graphInfo{
			NodesCreated:     stats.NodesCreated,
			SignalWrites:     stats.SignalWrites,
			ComputationRuns:  stats.ComputationRuns,
			BatchesCommitted: stats.BatchesCommitted,
			RunsPerWrite:     runsPerWrite,
			RunLatencyP50US:  stats.RunLatencyP50,
			RunLatencyP99US:  stats.RunLatencyP99,
		},
		GC: gcInfo{
			AllocMB:       float64(after.TotalAlloc-before.TotalAlloc) / (1024 * 1024),
			HeapLiveMB:    float64(after.HeapAlloc) / (1024 * 1024),
			NumGC:         after.NumGC - before.NumGC,
			PauseTotalMS:  ms(pauseTotal),
			PauseAvgMS:    ms(avgPause(after, before)),
			GCCPUFraction: cpuFraction(afterMetrics, beforeMetrics),
			AllocsObjects: afterMetrics.heapAllocsObjects - beforeMetrics.heapAllocsObjects,
		},
	}
}

func writeSummary(w io.Writer, report benchReport) {
	fmt.Fprintln(w, "=== Ripple Reactive Benchmark ===")
	fmt.Fprintf(w, "Profile: %s\n", report.Workload.Profile)
	fmt.Fprintf(w, "Graphs: %d\n", report.Workload.Graphs)
	fmt.Fprintf(w, "Duration: %s\n", time.Duration(report.Workload.DurationMS)*time.Millisecond)
	fmt.Fprintf(w, "Target per-graph rate: %.2f writes/s\n", report.Workload.WPSPerGraph)
	fmt.Fprintf(w, "Memo chain depth: %d\n", report.Workload.Depth)
	fmt.Fprintf(w, "Effect fan-out: %d\n", report.Workload.Fanout)
	fmt.Fprintf(w, "Batch size: %d\n", report.Workload.BatchSize)
	if report.Workload.MaxProcs > 0 {
		fmt.Fprintf(w, "GOMAXPROCS cap: %d\n", report.Workload.MaxProcs)
	}
	if report.Workload.MemLimitBytes > 0 {
		fmt.Fprintf(w, "GOMEMLIMIT cap: %.2f GiB\n", float64(report.Workload.MemLimitBytes)/float64(gib))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Total writes: %d\n", report.Throughput.WritesTotal)
	fmt.Fprintf(w, "Throughput: %.1f writes/s (%.2f per graph)\n", report.Throughput.WritesPerSec, report.Throughput.WritesPerSecGraph)
	fmt.Fprintln(w)

	if report.LatencyUS.Max == 0 {
		fmt.Fprintln(w, "No latency samples recorded.")
	} else {
		fmt.Fprintln(w, "Settle latency (write -> all dependents re-ran):")
		fmt.Fprintf(w, "  min: %.1f us\n", report.LatencyUS.Min)
		fmt.Fprintf(w, "  p50: %.1f us\n", report.LatencyUS.P50)
		fmt.Fprintf(w, "  p95: %.1f us\n", report.LatencyUS.P95)
		fmt.Fprintf(w, "  p99: %.1f us\n", report.LatencyUS.P99)
		fmt.Fprintf(w, "  max: %.1f us\n", report.LatencyUS.Max)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Graph activity (via runtime hooks):")
	fmt.Fprintf(w, "  nodes created:    %d\n", report.Graph.NodesCreated)
	fmt.Fprintf(w, "  signal writes:    %d\n", report.Graph.SignalWrites)
	fmt.Fprintf(w, "  computation runs: %d (%.2f per write)\n", report.Graph.ComputationRuns, report.Graph.RunsPerWrite)
	fmt.Fprintf(w, "  batches:          %d\n", report.Graph.BatchesCommitted)
	fmt.Fprintf(w, "  run latency:      p50 %dus, p99 %dus\n", report.Graph.RunLatencyP50US, report.Graph.RunLatencyP99US)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Go runtime / GC (process-wide):")
	fmt.Fprintf(w, "  alloc:     %.2f MB\n", report.GC.AllocMB)
	fmt.Fprintf(w, "  heap_live: %.2f MB\n", report.GC.HeapLiveMB)
	fmt.Fprintf(w, "  num_gc:    %d\n", report.GC.NumGC)
	fmt.Fprintf(w, "  gc_pause:  %.2f ms (total)\n", report.GC.PauseTotalMS)
	fmt.Fprintf(w, "  gc_pause:  %.2f ms (avg)\n", report.GC.PauseAvgMS)
	fmt.Fprintf(w, "  gc_cpu:    %.2f%%\n", report.GC.GCCPUFraction*100)
}

func writeJSON(path string, report benchReport) error {
	var out io.Writer
	if path == "-" {
		out = os.Stdout
	} else {
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		defer file.Close()
		out = file
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func gitCommit() string {
	if val := strings.TrimSpace(os.Getenv("RIPPLE_GIT_COMMIT")); val != "" {
		return val
	}
	if val := strings.TrimSpace(os.Getenv("GIT_COMMIT")); val != "" {
		return val
	}
	cmd := exec.Command("git", "rev-parse", "HEAD")
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
