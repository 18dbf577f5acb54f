// Command vtree-bench measures reconciliation passes over churning list trees.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"runtime/debug"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	gib = int64(1024 * 1024 * 1024)
)

type profile struct {
	Name          string
	Workers       int
	Duration      time.Duration
	RPS           float64
	ListSize      int
	Churn         int
	LayoutEvery   int
	MaxProcs      int
	MemLimitBytes int64
}

var profiles = map[string]profile{
	"fast": {
		Name:        "fast",
		Workers:     4,
		Duration:    5 * time.Second,
		RPS:         200,
		ListSize:    50,
		Churn:       1,
		LayoutEvery: 4,
	},
	"standard": {
		Name:        "standard",
		Workers:     16,
		Duration:    20 * time.Second,
		RPS:         100,
		ListSize:    200,
		Churn:       4,
		LayoutEvery: 4,
	},
	"stress": {
		Name:          "stress",
		Workers:       64,
		Duration:      60 * time.Second,
		RPS:           0,
		ListSize:      1000,
		Churn:         20,
		LayoutEvery:   8,
		MaxProcs:      4,
		MemLimitBytes: 2 * gib,
	},
}

type benchConfig struct {
	Profile       string
	Workers       int
	Duration      time.Duration
	RPS           float64
	ListSize      int
	Churn         int
	LayoutEvery   int
	MaxProcs      int
	MemLimitBytes int64
	JSONOutput    string
}

func main() {
	log.SetFlags(0)

	cfg, err := parseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	if cfg.MaxProcs > 0 {
		runtime.GOMAXPROCS(cfg.MaxProcs)
	}
	if cfg.MemLimitBytes > 0 {
		debug.SetMemoryLimit(cfg.MemLimitBytes)
	}
	debug.SetGCPercent(100)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	report := runBench(ctx, cfg)

	writeSummary(os.Stderr, report)
	if err := writeJSON(cfg.JSONOutput, os.Stdout, report); err != nil {
		log.Fatalf("write json: %v", err)
	}
}

// runBench drives cfg.Workers hierarchies until ctx is done and reports the
// collected samples.
func runBench(ctx context.Context, cfg benchConfig) benchReport {
	var before runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	beforeMetrics := readRuntimeMetrics()

	results := make([]workerResult, cfg.Workers)
	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		id := i
		go func() {
			defer wg.Done()
			results[id] = runWorker(ctx, id, cfg)
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	var after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&after)
	afterMetrics := readRuntimeMetrics()

	total := mergeResults(results)
	sort.Slice(total.reconcile, func(i, j int) bool { return total.reconcile[i] < total.reconcile[j] })
	sort.Slice(total.layout, func(i, j int) bool { return total.layout[i] < total.layout[j] })

	return buildReport(cfg, elapsed, total, before, after, beforeMetrics, afterMetrics)
}

func parseConfig(fs *flag.FlagSet, args []string) (benchConfig, error) {
	profileFlag := fs.String("profile", "standard", "profile: fast|standard|stress")
	workersFlag := fs.Int("workers", -1, "number of concurrent hierarchies")
	durationFlag := fs.String("duration", "", "benchmark duration, e.g. 30s")
	rpsFlag := fs.Float64("rps", -1, "target passes/sec per worker (0 for unthrottled)")
	listFlag := fs.Int("list", -1, "rows per list")
	churnFlag := fs.Int("churn", -1, "rows replaced per reconcile pass")
	layoutFlag := fs.Int("layout-every", -1, "run a layout pass after every N reconcile passes (0 disables)")
	maxProcsFlag := fs.Int("max-procs", -1, "GOMAXPROCS cap (0 to leave unchanged)")
	memLimitFlag := fs.String("mem-limit", "", "GOMEMLIMIT (e.g. 2GiB)")
	jsonFlag := fs.String("json", "-", "JSON output path ('-' for stdout)")
	if err := fs.Parse(args); err != nil {
		return benchConfig{}, err
	}

	name := strings.ToLower(strings.TrimSpace(*profileFlag))
	if name == "" {
		name = "standard"
	}

	base, ok := profiles[name]
	if !ok {
		return benchConfig{}, fmt.Errorf("unknown profile %q", name)
	}

	cfg := benchConfig{
		Profile:       base.Name,
		Workers:       base.Workers,
		Duration:      base.Duration,
		RPS:           base.RPS,
		ListSize:      base.ListSize,
		Churn:         base.Churn,
		LayoutEvery:   base.LayoutEvery,
		MaxProcs:      base.MaxProcs,
		MemLimitBytes: base.MemLimitBytes,
		JSONOutput:    strings.TrimSpace(*jsonFlag),
	}

	if *workersFlag != -1 {
		cfg.Workers = *workersFlag
	}
	if *durationFlag != "" {
		d, err := time.ParseDuration(*durationFlag)
		if err != nil {
			return benchConfig{}, fmt.Errorf("invalid -duration: %w", err)
		}
		cfg.Duration = d
	}
	if *rpsFlag != -1 {
		cfg.RPS = *rpsFlag
	}
	if *listFlag != -1 {
		cfg.ListSize = *listFlag
	}
	if *churnFlag != -1 {
		cfg.Churn = *churnFlag
	}
	if *layoutFlag != -1 {
		cfg.LayoutEvery = *layoutFlag
	}
	if *maxProcsFlag != -1 {
		cfg.MaxProcs = *maxProcsFlag
	}
	if *memLimitFlag != "" {
		limit, err := parseBytes(*memLimitFlag)
		if err != nil {
			return benchConfig{}, fmt.Errorf("invalid -mem-limit: %w", err)
		}
		cfg.MemLimitBytes = limit
	}
	if cfg.JSONOutput == "" {
		cfg.JSONOutput = "-"
	}

	if cfg.Workers <= 0 {
		return benchConfig{}, errors.New("-workers must be > 0")
	}
	if cfg.Duration <= 0 {
		return benchConfig{}, errors.New("-duration must be > 0")
	}
	if cfg.RPS < 0 {
		return benchConfig{}, errors.New("-rps must be >= 0")
	}
	if cfg.ListSize < 0 {
		return benchConfig{}, errors.New("-list must be >= 0")
	}
	if cfg.Churn < 0 || cfg.Churn > cfg.ListSize {
		return benchConfig{}, errors.New("-churn must be between 0 and -list")
	}
	if cfg.LayoutEvery < 0 {
		return benchConfig{}, errors.New("-layout-every must be >= 0")
	}
	if cfg.MaxProcs < 0 {
		return benchConfig{}, errors.New("-max-procs must be >= 0")
	}

	return cfg, nil
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

	value, err := strconv.ParseFloat(strings.TrimSpace(s[:i]), 64)
	if err != nil {
		return 0, err
	}

	var multiplier float64
	switch strings.ToLower(strings.TrimSpace(s[i:])) {
	case "", "b":
		multiplier = 1
	case "kb":
		multiplier = 1e3
	case "mb":
		multiplier = 1e6
	case "gb":
		multiplier = 1e9
	case "kib":
		multiplier = 1024
	case "mib":
		multiplier = 1024 * 1024
	case "gib":
		multiplier = float64(gib)
	default:
		return 0, fmt.Errorf("unknown size suffix %q", s[i:])
	}

	return int64(value*multiplier + 0.5), nil
}

func writeJSON(path string, stdout io.Writer, report benchReport) error {
	out := stdout
	if path != "-" {
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		defer file.Close()
		out = file
	}
	return encodeReport(out, report)
}
