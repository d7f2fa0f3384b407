package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rotkonetworks/bspwm/internal/config"
	"github.com/rotkonetworks/bspwm/internal/control"
	"github.com/rotkonetworks/bspwm/internal/engine"
	"github.com/rotkonetworks/bspwm/internal/selector"
	"github.com/rotkonetworks/bspwm/internal/state"
	"github.com/rotkonetworks/bspwm/internal/state/statetest"
	"github.com/rotkonetworks/bspwm/internal/util"
)

type benchFixture struct {
	Name    string
	State   state.Snapshot
	Queries []benchQuery
}

type benchQuery struct {
	Kind       selector.Kind
	Descriptor string
}

type benchLatencyStats struct {
	Min    float64 `json:"minMs"`
	Mean   float64 `json:"meanMs"`
	Median float64 `json:"medianMs"`
	P95    float64 `json:"p95Ms"`
	Max    float64 `json:"maxMs"`
}

type benchAllocationStats struct {
	Total               uint64  `json:"totalAllocations"`
	PerQuery            float64 `json:"allocationsPerQuery"`
	BytesTotal          uint64  `json:"bytesTotal"`
	BytesPerQuery       float64 `json:"bytesPerQuery"`
	MiBTotal            float64 `json:"miBTotal"`
	HeapAllocDelta      int64   `json:"heapAllocDeltaBytes"`
	HeapObjectsDelta    int64   `json:"heapObjectsDelta"`
	HeapObjectsPerQuery float64 `json:"heapObjectsPerQuery"`
}

type benchSummary struct {
	Fixture             string               `json:"fixture"`
	Iterations          int                  `json:"iterations"`
	WarmupIterations    int                  `json:"warmupIterations"`
	QueriesPerIteration int                  `json:"queriesPerIteration"`
	TotalQueries        int                  `json:"totalQueries"`
	Failures            int                  `json:"failures"`
	Latency             benchLatencyStats    `json:"latency"`
	IterationDuration   benchLatencyStats    `json:"iterationDuration"`
	Allocations         benchAllocationStats `json:"allocations"`
	TotalDurationMs     float64              `json:"totalDurationMs"`
	QueriesPerSecond    float64              `json:"queriesPerSecond"`
}

type benchReport struct {
	Summary     benchSummary     `json:"summary"`
	DurationsMs []float64        `json:"durationsMs"`
	Iterations  []benchIteration `json:"iterations,omitempty"`
}

type benchIteration struct {
	Index      int     `json:"index"`
	DurationMs float64 `json:"durationMs"`
	Failures   int     `json:"failures"`
	Queries    int     `json:"queries"`
}

type benchQueryTrace struct {
	Iteration  int     `json:"iteration"`
	Index      int     `json:"index"`
	Kind       string  `json:"kind"`
	Descriptor string  `json:"descriptor"`
	Error      string  `json:"error,omitempty"`
	DurationMs float64 `json:"durationMs"`
}

type iterationResult struct {
	duration  time.Duration
	failures  int
	durations []time.Duration
	traces    []benchQueryTrace
}

func main() {
	cfgPath := flag.String("config", "", "optional YAML config supplying rules and tightness")
	fixturePath := flag.String("fixture", "", "path to a fixture (JSON with state and queries, or one 'kind descriptor' per line)")
	iterations := flag.Int("iterations", 100, "number of times to resolve the query set")
	warmup := flag.Int("warmup", 0, "number of warm-up iterations to run before timing")
	cpuProfile := flag.String("cpu-profile", "", "write CPU profile to file")
	memProfile := flag.String("mem-profile", "", "write heap profile to file")
	logLevel := flag.String("log-level", "warn", "log level (trace|debug|info|warn|error)")
	outputPath := flag.String("output", "-", "write JSON report to file ('-' for stdout)")
	humanSummary := flag.Bool("human", false, "print a tabular summary alongside the JSON output")
	tracePath := flag.String("query-trace", "", "write per-query timings to file (JSON array, '-' for stdout)")
	flag.Parse()

	if *iterations <= 0 {
		fmt.Fprintln(os.Stderr, "iterations must be positive")
		os.Exit(1)
	}
	if *warmup < 0 {
		fmt.Fprintln(os.Stderr, "warmup must be zero or positive")
		os.Exit(1)
	}

	logger := util.NewLogger(util.ParseLogLevel(*logLevel))
	traceEnabled := strings.TrimSpace(*tracePath) != ""

	var cfg *config.Config
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			exitErr(fmt.Errorf("load config: %w", err))
		}
		cfg = loaded
	}

	fixture := defaultFixture()
	if *fixturePath != "" {
		loaded, err := loadFixture(*fixturePath, fixture)
		if err != nil {
			exitErr(fmt.Errorf("load fixture: %w", err))
		}
		fixture = loaded
	}
	if len(fixture.Queries) == 0 {
		exitErr(errors.New("fixture contains no queries"))
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			exitErr(fmt.Errorf("create cpu profile: %w", err))
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			exitErr(fmt.Errorf("start cpu profile: %w", err))
		}
		defer pprof.StopCPUProfile()
	}

	for i := 0; i < *warmup; i++ {
		if _, err := runIteration(fixture, cfg, logger, i+1, false, false); err != nil {
			exitErr(fmt.Errorf("warmup iteration %d: %w", i+1, err))
		}
	}

	runtime.GC()
	var startMem runtime.MemStats
	runtime.ReadMemStats(&startMem)

	results := make([]iterationResult, 0, *iterations)
	for i := 0; i < *iterations; i++ {
		res, err := runIteration(fixture, cfg, logger, i+1, true, traceEnabled)
		if err != nil {
			exitErr(fmt.Errorf("iteration %d: %w", i+1, err))
		}
		results = append(results, res)
	}

	runtime.GC()
	var endMem runtime.MemStats
	runtime.ReadMemStats(&endMem)

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			exitErr(fmt.Errorf("create mem profile: %w", err))
		}
		defer f.Close()
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			exitErr(fmt.Errorf("write heap profile: %w", err))
		}
	}

	report := buildReport(fixture, *warmup, results, startMem, endMem)
	if err := writeJSON(report, *outputPath); err != nil {
		exitErr(fmt.Errorf("encode report: %w", err))
	}
	if traceEnabled {
		var traces []benchQueryTrace
		for _, res := range results {
			traces = append(traces, res.traces...)
		}
		if err := writeJSON(traces, *tracePath); err != nil {
			exitErr(fmt.Errorf("write query trace: %w", err))
		}
	}
	if *humanSummary {
		if err := printHumanSummary(report.Summary, os.Stdout); err != nil {
			exitErr(fmt.Errorf("print human summary: %w", err))
		}
	}
}

// runIteration rebuilds the world from the fixture and resolves every query once.
func runIteration(fixture benchFixture, cfg *config.Config, logger *util.Logger, iteration int, capture, trace bool) (iterationResult, error) {
	start := time.Now()
	world, hist, err := fixture.State.Build()
	if err != nil {
		return iterationResult{}, fmt.Errorf("build state: %w", err)
	}
	eng := engine.New(logger, world, hist, nil, nil)
	if cfg != nil {
		if err := eng.Configure(cfg); err != nil {
			return iterationResult{}, fmt.Errorf("configure: %w", err)
		}
	}

	var res iterationResult
	if capture {
		res.durations = make([]time.Duration, 0, len(fixture.Queries))
	}
	for idx, q := range fixture.Queries {
		began := time.Now()
		_, err := eng.Resolve(q.Kind, q.Descriptor)
		elapsed := time.Since(began)
		if err != nil {
			res.failures++
		}
		if !capture {
			continue
		}
		res.durations = append(res.durations, elapsed)
		if trace {
			t := benchQueryTrace{
				Iteration:  iteration,
				Index:      idx + 1,
				Kind:       q.Kind.String(),
				Descriptor: q.Descriptor,
				DurationMs: toMillis(elapsed),
			}
			if err != nil {
				t.Error = err.Error()
			}
			res.traces = append(res.traces, t)
		}
	}
	res.duration = time.Since(start)
	return res, nil
}

func buildReport(fixture benchFixture, warmup int, results []iterationResult, start, end runtime.MemStats) benchReport {
	totalQueries := len(fixture.Queries) * len(results)

	var durations, iterationDurations []time.Duration
	failures := 0
	iterations := make([]benchIteration, 0, len(results))
	for i, res := range results {
		durations = append(durations, res.durations...)
		iterationDurations = append(iterationDurations, res.duration)
		failures += res.failures
		iterations = append(iterations, benchIteration{
			Index:      i + 1,
			DurationMs: toMillis(res.duration),
			Failures:   res.failures,
			Queries:    len(fixture.Queries),
		})
	}
	latency, total := buildLatencyStats(durations)
	iterationStats, _ := buildLatencyStats(iterationDurations)

	allocs := end.Mallocs - start.Mallocs
	bytesAllocated := end.TotalAlloc - start.TotalAlloc
	heapObjectsDelta := int64(end.HeapObjects) - int64(start.HeapObjects)

	durationsMs := make([]float64, len(durations))
	for i, d := range durations {
		durationsMs[i] = toMillis(d)
	}

	summary := benchSummary{
		Fixture:             fixture.Name,
		Iterations:          len(results),
		WarmupIterations:    warmup,
		QueriesPerIteration: len(fixture.Queries),
		TotalQueries:        totalQueries,
		Failures:            failures,
		Latency:             latency,
		IterationDuration:   iterationStats,
		Allocations: benchAllocationStats{
			Total:               allocs,
			PerQuery:            safeDivide(float64(allocs), totalQueries),
			BytesTotal:          bytesAllocated,
			BytesPerQuery:       safeDivide(float64(bytesAllocated), totalQueries),
			MiBTotal:            float64(bytesAllocated) / (1024 * 1024),
			HeapAllocDelta:      int64(end.HeapAlloc) - int64(start.HeapAlloc),
			HeapObjectsDelta:    heapObjectsDelta,
			HeapObjectsPerQuery: safeDivide(float64(heapObjectsDelta), totalQueries),
		},
		TotalDurationMs:  toMillis(total),
		QueriesPerSecond: perSecond(total, totalQueries),
	}
	return benchReport{Summary: summary, DurationsMs: durationsMs, Iterations: iterations}
}

func buildLatencyStats(durations []time.Duration) (benchLatencyStats, time.Duration) {
	if len(durations) == 0 {
		return benchLatencyStats{}, 0
	}
	var total time.Duration
	for _, d := range durations {
		total += d
	}
	sorted := append([]time.Duration(nil), durations...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return benchLatencyStats{
		Min:    toMillis(sorted[0]),
		Mean:   toMillis(total / time.Duration(len(durations))),
		Median: toMillis(percentile(sorted, 0.50)),
		P95:    toMillis(percentile(sorted, 0.95)),
		Max:    toMillis(sorted[len(sorted)-1]),
	}, total
}

func safeDivide(total float64, count int) float64 {
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

func writeJSON(v any, outputPath string) error {
	var w io.Writer
	switch path := strings.TrimSpace(outputPath); path {
	case "", "-":
		w = os.Stdout
	default:
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
		}
		out, err := os.Create(path)
		if err != nil {
			return err
		}
		defer out.Close()
		w = out
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printHumanSummary(summary benchSummary, w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	latency := summary.Latency
	iter := summary.IterationDuration
	allocs := summary.Allocations
	lines := []string{
		fmt.Sprintf("Fixture:\t%s\n", summary.Fixture),
		fmt.Sprintf("Iterations:\t%d (+%d warmup)\n", summary.Iterations, summary.WarmupIterations),
		fmt.Sprintf("Queries:\t%d total, %d / iteration\n", summary.TotalQueries, summary.QueriesPerIteration),
		fmt.Sprintf("Failures:\t%d\n", summary.Failures),
		fmt.Sprintf("Latency (ms):\tmin %.4f | mean %.4f | median %.4f | p95 %.4f | max %.4f\n", latency.Min, latency.Mean, latency.Median, latency.P95, latency.Max),
		fmt.Sprintf("Iteration duration (ms):\tmin %.2f | mean %.2f | median %.2f | p95 %.2f | max %.2f\n", iter.Min, iter.Mean, iter.Median, iter.P95, iter.Max),
		fmt.Sprintf("Allocations:\t%d total (%.2f / query)\n", allocs.Total, allocs.PerQuery),
		fmt.Sprintf("Bytes allocated:\t%s (%.2f / query)\n", formatBytesUnsigned(allocs.BytesTotal), allocs.BytesPerQuery),
		fmt.Sprintf("Heap delta:\t%s change, %d objects\n", formatBytesSigned(allocs.HeapAllocDelta), allocs.HeapObjectsDelta),
		fmt.Sprintf("Queries/sec:\t%.2f\n", summary.QueriesPerSecond),
	}
	for _, line := range lines {
		if _, err := io.WriteString(tw, line); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

func formatBytesUnsigned(bytes uint64) string {
	const miB = 1024 * 1024
	if bytes == 0 {
		return "0 B (0.00 MiB)"
	}
	return fmt.Sprintf("%d B (%.2f MiB)", bytes, float64(bytes)/float64(miB))
}

func formatBytesSigned(delta int64) string {
	if delta == 0 {
		return "0 B (0.00 MiB)"
	}
	sign := ""
	if delta < 0 {
		sign = "-"
		delta = -delta
	}
	return sign + formatBytesUnsigned(uint64(delta))
}

func perSecond(total time.Duration, n int) float64 {
	if total <= 0 || n == 0 {
		return 0
	}
	return float64(n) / total.Seconds()
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
	idx := int(p*float64(len(sorted)-1) + 0.5)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// loadFixture reads a JSON fixture or a plain query list. Missing parts fall back
// to base.
func loadFixture(path string, base benchFixture) (benchFixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return benchFixture{}, err
	}
	if strings.ToLower(filepath.Ext(path)) == ".json" || looksLikeJSON(data) {
		var payload struct {
			Name    string          `json:"name"`
			State   *state.Snapshot `json:"state"`
			Queries []struct {
				Kind       string `json:"kind"`
				Descriptor string `json:"descriptor"`
			} `json:"queries"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return benchFixture{}, err
		}
		fixture := benchFixture{Name: fallback(payload.Name, filepath.Base(path)), State: base.State}
		if payload.State != nil {
			fixture.State = *payload.State
		}
		for i, q := range payload.Queries {
			kind, err := control.ParseKind(strings.TrimSpace(q.Kind))
			if err != nil {
				return benchFixture{}, fmt.Errorf("query %d: %w", i+1, err)
			}
			fixture.Queries = append(fixture.Queries, benchQuery{Kind: kind, Descriptor: strings.TrimSpace(q.Descriptor)})
		}
		if len(fixture.Queries) == 0 {
			fixture.Queries = append([]benchQuery(nil), base.Queries...)
		}
		return fixture, nil
	}
	queries, err := parseQueryList(string(data))
	if err != nil {
		return benchFixture{}, err
	}
	base.Name = filepath.Base(path)
	base.Queries = queries
	return base, nil
}

func looksLikeJSON(data []byte) bool {
	return strings.HasPrefix(strings.TrimSpace(string(data)), "{")
}

// parseQueryList reads lines of the form "<kind> <descriptor>"; blank lines and
// lines starting with # are skipped.
func parseQueryList(input string) ([]benchQuery, error) {
	lines := strings.Split(input, "\n")
	queries := make([]benchQuery, 0, len(lines))
	for idx, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		fields := strings.Fields(trimmed)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: expected '<kind> <descriptor>'", idx+1)
		}
		kind, err := control.ParseKind(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", idx+1, err)
		}
		queries = append(queries, benchQuery{Kind: kind, Descriptor: fields[1]})
	}
	if len(queries) == 0 {
		return nil, errors.New("query list produced no queries")
	}
	return queries, nil
}

func defaultFixture() benchFixture {
	f := statetest.New()
	return benchFixture{
		Name:  "synthetic-two-monitor",
		State: f.World.Snapshot(f.History),
		Queries: []benchQuery{
			{Kind: selector.KindNode, Descriptor: "focused"},
			{Kind: selector.KindNode, Descriptor: "east.!floating"},
			{Kind: selector.KindNode, Descriptor: "older.leaf"},
			{Kind: selector.KindNode, Descriptor: "@/second/first"},
			{Kind: selector.KindNode, Descriptor: "biggest.local"},
			{Kind: selector.KindNode, Descriptor: "0x00C00005#any.local"},
			{Kind: selector.KindDesktop, Descriptor: "next.occupied"},
			{Kind: selector.KindDesktop, Descriptor: "DP-1:^2"},
			{Kind: selector.KindDesktop, Descriptor: "%two"},
			{Kind: selector.KindMonitor, Descriptor: "primary"},
			{Kind: selector.KindMonitor, Descriptor: "east"},
		},
	}
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return def
}

func exitErr(err error) {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		fmt.Fprintf(os.Stderr, "error: %v\n", pathErr)
	} else {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(1)
}
