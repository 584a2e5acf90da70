// Package main sweeps one input parameter across a range and writes one
// result row per value, for drawing response curves such as metabolic rate
// against air temperature.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/pthm-cable/endotherm/config"
	"github.com/pthm-cable/endotherm/model"
	"github.com/pthm-cable/endotherm/telemetry"
)

// SweepRow is one result row tagged with the swept value.
type SweepRow struct {
	Run   int     `csv:"run"`
	Value float64 `csv:"value"`
	model.Row
}

// formatDuration formats a duration as 1m05s, or fractional seconds below a minute.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Millisecond)
	m := d / time.Minute
	d -= m * time.Minute
	if m > 0 {
		return fmt.Sprintf("%dm%02.0fs", m, d.Seconds())
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	param := flag.String("param", "environment.air_temp", "Dotted config path to sweep")
	from := flag.Float64("from", 0, "First value")
	to := flag.Float64("to", 45, "Last value (inclusive)")
	step := flag.Float64("step", 1, "Increment")
	workers := flag.Int("workers", 0, "Concurrent solves (0 = GOMAXPROCS)")
	trace := flag.Bool("trace", false, "Write every escalation iteration to trace.csv")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if *outputDir == "" {
		slog.Error("--output is required")
		os.Exit(1)
	}

	base, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	base.Debug.Trace = *trace
	// One dump path cannot hold a whole batch.
	base.Debug.Dump = false

	spec := ParamSpec{Path: *param, From: *from, To: *to, Step: *step}
	cfgs, values, err := spec.Configs(base)
	if err != nil {
		slog.Error("invalid sweep", "param", *param, "error", err)
		os.Exit(1)
	}

	n := *workers
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}

	slog.Info("starting sweep", "param", *param, "runs", len(cfgs), "workers", n)
	start := time.Now()

	results := make([]*model.Result, len(cfgs))
	errs := make([]error, len(cfgs))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < n; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				// Per-solve records stay at debug level; the sweep summary is enough.
				results[i], errs[i] = model.Solve(cfgs[i], model.Options{})
			}
		}()
	}
	for i := range cfgs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	out, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output", "error", err)
		os.Exit(1)
	}

	if err := out.WriteConfig(base); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	rows := make([]SweepRow, 0, len(results))
	var events []telemetry.EscalationEvent
	failed := 0
	for i, res := range results {
		if errs[i] != nil {
			failed++
			slog.Error("solve failed", "run", i, "value", values[i], "error", errs[i])
			continue
		}
		rows = append(rows, SweepRow{Run: i, Value: values[i], Row: res.Row()})
		for _, ev := range res.Trace {
			ev.Run = i
			events = append(events, ev)
		}
		if !res.Energy.Converged {
			slog.Warn("run did not balance", "run", i, "value", values[i], "outcome", res.Energy.Outcome)
		}
	}

	if err := out.WriteResults(rows); err != nil {
		slog.Error("failed to write results", "error", err)
	}
	if err := out.WriteTrace(events); err != nil {
		slog.Error("failed to write trace", "error", err)
	}

	if err := out.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}

	slog.Info("sweep complete",
		"runs", len(cfgs),
		"failed", failed,
		"elapsed", formatDuration(time.Since(start)),
		"dir", out.Dir(),
	)
	if failed > 0 {
		os.Exit(1)
	}
}
