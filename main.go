package main

import (
	"errors"
	"flag"
	"log/slog"
	"os"

	"github.com/pthm-cable/endotherm/config"
	"github.com/pthm-cable/endotherm/model"
	"github.com/pthm-cable/endotherm/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV results and config snapshot")
	trace := flag.Bool("trace", false, "Record every escalation iteration")
	dump := flag.String("dump", "", "Write the flattened input bundle to this CSV path (.gz compresses)")
	verbose := flag.Bool("verbose", false, "Log each escalation iteration")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *trace {
		cfg.Debug.Trace = true
	}
	if *dump != "" {
		cfg.Debug.Dump = true
		cfg.Debug.DumpPath = *dump
	}

	res, err := model.Solve(cfg, model.Options{Logger: logger})
	if err != nil {
		var cerr *model.ConfigError
		if errors.As(err, &cerr) {
			slog.Error("invalid input bundle", "component", cerr.Component, "error", cerr.Err)
		} else {
			slog.Error("solve failed", "error", err)
		}
		os.Exit(1)
	}

	out, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output", "error", err)
		os.Exit(1)
	}
	defer out.Close()

	if err := out.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}
	if err := out.WriteResults([]model.Row{res.Row()}); err != nil {
		slog.Error("failed to write results", "error", err)
	}
	if err := out.WriteTrace(res.Trace); err != nil {
		slog.Error("failed to write trace", "error", err)
	}
	if out != nil {
		slog.Info("output written", "dir", out.Dir())
	}
}
