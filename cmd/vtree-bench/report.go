package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"runtime"
	"runtime/metrics"
	"strings"
	"time"
)

type runtimeMetricsSnapshot struct {
	cpuTotalSeconds float64
	cpuGCSeconds    float64

	heapAllocsBytes   uint64
	heapAllocsObjects uint64
}

func readRuntimeMetrics() runtimeMetricsSnapshot {
	samples := []metrics.Sample{
		{Name: "/cpu/classes/total:cpu-seconds"},
		{Name: "/cpu/classes/gc/total:cpu-seconds"},
		{Name: "/gc/heap/allocs:bytes"},
		{Name: "/gc/heap/allocs:objects"},
	}
	metrics.Read(samples)

	var out runtimeMetricsSnapshot
	for _, s := range samples {
		if s.Value.Kind() == metrics.KindBad {
			continue
		}
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

type benchReport struct {
	Version    string         `json:"version"`
	Run        runInfo        `json:"run"`
	Workload   workloadInfo   `json:"workload"`
	Reconcile  latencyInfo    `json:"reconcile_ms"`
	Layout     latencyInfo    `json:"layout_ms"`
	Throughput throughputInfo `json:"throughput"`
	Views      viewInfo       `json:"views"`
	GC         gcInfo         `json:"gc"`
	Errors     uint64         `json:"errors"`
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
	Workers       int     `json:"workers"`
	DurationMS    int64   `json:"duration_ms"`
	RPSPerWorker  float64 `json:"rps_per_worker"`
	ListSize      int     `json:"list_size"`
	Churn         int     `json:"churn"`
	LayoutEvery   int     `json:"layout_every"`
	MaxProcs      int     `json:"max_procs"`
	MemLimitBytes int64   `json:"mem_limit_bytes"`
}

type latencyInfo struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
	Max   float64 `json:"max"`
}

type throughputInfo struct {
	PassesTotal        int     `json:"passes_total"`
	PassesPerSec       float64 `json:"passes_per_sec"`
	PassesPerSecWorker float64 `json:"passes_per_sec_per_worker"`
}

type viewInfo struct {
	Constructed   int     `json:"constructed"`
	Reused        int     `json:"reused"`
	Dismantled    int     `json:"dismantled"`
	Configured    int     `json:"configured"`
	ReuseFraction float64 `json:"reuse_fraction"`
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

func latencies(sorted []time.Duration) latencyInfo {
	if len(sorted) == 0 {
		return latencyInfo{}
	}
	return latencyInfo{
		Count: len(sorted),
		Min:   ms(sorted[0]),
		P50:   ms(percentile(sorted, 0.50)),
		P95:   ms(percentile(sorted, 0.95)),
		P99:   ms(percentile(sorted, 0.99)),
		Max:   ms(sorted[len(sorted)-1]),
	}
}

func buildReport(
	cfg benchConfig,
	elapsed time.Duration,
	total workerResult,
	before runtime.MemStats,
	after runtime.MemStats,
	beforeMetrics runtimeMetricsSnapshot,
	afterMetrics runtimeMetricsSnapshot,
) benchReport {
	passes := len(total.reconcile) + len(total.layout)
	elapsedSeconds := math.Max(0.001, elapsed.Seconds())
	passesPerSec := float64(passes) / elapsedSeconds

	reuseFraction := 0.0
	if built := total.stats.Constructed + total.stats.Reused; built > 0 {
		reuseFraction = float64(total.stats.Reused) / float64(built)
	}

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
			Workers:       cfg.Workers,
			DurationMS:    cfg.Duration.Milliseconds(),
			RPSPerWorker:  cfg.RPS,
			ListSize:      cfg.ListSize,
			Churn:         cfg.Churn,
			LayoutEvery:   cfg.LayoutEvery,
			MaxProcs:      cfg.MaxProcs,
			MemLimitBytes: cfg.MemLimitBytes,
		},
		Reconcile: latencies(total.reconcile),
		Layout:    latencies(total.layout),
		Throughput: throughputInfo{
			PassesTotal:        passes,
			PassesPerSec:       passesPerSec,
			PassesPerSecWorker: passesPerSec / float64(cfg.Workers),
		},
		Views: viewInfo{
			Constructed:   total.stats.Constructed,
			Reused:        total.stats.Reused,
			Dismantled:    total.stats.Dismantled,
			Configured:    total.stats.Configured,
			ReuseFraction: reuseFraction,
		},
		GC: gcInfo{
			AllocMB:       float64(after.TotalAlloc-before.TotalAlloc) / (1024 * 1024),
			HeapLiveMB:    float64(after.HeapAlloc) / (1024 * 1024),
			NumGC:         after.NumGC - before.NumGC,
			PauseTotalMS:  ms(time.Duration(after.PauseTotalNs - before.PauseTotalNs)),
			PauseAvgMS:    ms(avgPause(after, before)),
			GCCPUFraction: cpuFraction(afterMetrics, beforeMetrics),
			AllocsObjects: afterMetrics.heapAllocsObjects - beforeMetrics.heapAllocsObjects,
		},
		Errors: total.errors,
	}
}

func writeLatency(w io.Writer, title string, l latencyInfo) {
	if l.Count == 0 {
		fmt.Fprintf(w, "%s: no samples recorded.\n", title)
		return
	}
	fmt.Fprintf(w, "%s (%d passes):\n", title, l.Count)
	fmt.Fprintf(w, "  min: %.3f ms\n", l.Min)
	fmt.Fprintf(w, "  p50: %.3f ms\n", l.P50)
	fmt.Fprintf(w, "  p95: %.3f ms\n", l.P95)
	fmt.Fprintf(w, "  p99: %.3f ms\n", l.P99)
	fmt.Fprintf(w, "  max: %.3f ms\n", l.Max)
}

func writeSummary(w io.Writer, report benchReport) {
	fmt.Fprintln(w, "=== vtree Reconcile Benchmark ===")
	fmt.Fprintf(w, "Profile: %s\n", report.Workload.Profile)
	fmt.Fprintf(w, "Workers: %d\n", report.Workload.Workers)
	fmt.Fprintf(w, "Duration: %s\n", time.Duration(report.Workload.DurationMS)*time.Millisecond)
	if report.Workload.RPSPerWorker > 0 {
		fmt.Fprintf(w, "Target per-worker rate: %.2f passes/s\n", report.Workload.RPSPerWorker)
	} else {
		fmt.Fprintln(w, "Target per-worker rate: unthrottled")
	}
	fmt.Fprintf(w, "List size: %d rows, %d replaced per pass\n", report.Workload.ListSize, report.Workload.Churn)
	if report.Workload.MaxProcs > 0 {
		fmt.Fprintf(w, "GOMAXPROCS cap: %d\n", report.Workload.MaxProcs)
	}
	if report.Workload.MemLimitBytes > 0 {
		fmt.Fprintf(w, "GOMEMLIMIT cap: %.2f GiB\n", float64(report.Workload.MemLimitBytes)/float64(gib))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Total passes: %d\n", report.Throughput.PassesTotal)
	fmt.Fprintf(w, "Throughput: %.1f passes/s (%.2f per worker)\n", report.Throughput.PassesPerSec, report.Throughput.PassesPerSecWorker)
	fmt.Fprintf(w, "Errors: %d\n", report.Errors)
	fmt.Fprintln(w)

	writeLatency(w, "Reconcile", report.Reconcile)
	writeLatency(w, "Layout", report.Layout)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Views:")
	fmt.Fprintf(w, "  constructed: %d\n", report.Views.Constructed)
	fmt.Fprintf(w, "  reused:      %d (%.1f%%)\n", report.Views.Reused, report.Views.ReuseFraction*100)
	fmt.Fprintf(w, "  dismantled:  %d\n", report.Views.Dismantled)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Go runtime / GC (process-wide):")
	fmt.Fprintf(w, "  alloc:     %.2f MB\n", report.GC.AllocMB)
	fmt.Fprintf(w, "  heap_live: %.2f MB\n", report.GC.HeapLiveMB)
	fmt.Fprintf(w, "  num_gc:    %d\n", report.GC.NumGC)
	fmt.Fprintf(w, "  gc_pause:  %.2f ms (total)\n", report.GC.PauseTotalMS)
	fmt.Fprintf(w, "  gc_pause:  %.2f ms (avg)\n", report.GC.PauseAvgMS)
	fmt.Fprintf(w, "  gc_cpu:    %.2f%%\n", report.GC.GCCPUFraction*100)
}

func encodeReport(w io.Writer, report benchReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func gitCommit() string {
	if val := strings.TrimSpace(os.Getenv("VTREE_GIT_COMMIT")); val != "" {
		return val
	}
	if val := strings.TrimSpace(os.Getenv("GIT_COMMIT")); val != "" {
		return val
	}
	out, err := exec.Command("git", "rev-parse", "HEAD").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
