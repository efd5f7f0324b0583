// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package main implements the cartograph CLI for indexing a repository or a
// workspace of repositories into a queryable source-code knowledge graph.
//
// Usage:
//
//	cartograph index [path]         Index a single project (default: cwd)
//	cartograph workspace [path]     Index every project under a workspace root
//	cartograph --version            Show version and exit
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/kraklabs/cartograph"
	cgerrors "github.com/kraklabs/cartograph/internal/errors"
	"github.com/kraklabs/cartograph/internal/ui"
	"github.com/kraklabs/cartograph/pkg/eventbus"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	var (
		showVersion = pflag.Bool("version", false, "Show version and exit")
		jsonOutput  = pflag.Bool("json", false, "Emit machine-readable JSON instead of progress bars")
		quiet       = pflag.BoolP("quiet", "q", false, "Suppress progress output")
		noColor     = pflag.Bool("no-color", false, "Disable colored output")
		dataRoot    = pflag.String("data-root", defaultDataRoot(), "Root directory for persisted project graphs")
		threads     = pflag.Int("threads", 0, "CPU worker pool size (0 selects runtime.NumCPU())")
	)

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, `cartograph - source-code knowledge graph indexer

Usage:
  cartograph <command> [path] [options]

Commands:
  index [path]       Index a single project (default: current directory)
  workspace [path]    Index every project under a workspace root

Options:
`)
		pflag.PrintDefaults()
	}
	pflag.Parse()
	ui.InitColors(*noColor)

	if *showVersion {
		fmt.Printf("cartograph version %s\ncommit: %s\nbuilt: %s\n", version, commit, date)
		os.Exit(0)
	}

	args := pflag.Args()
	if len(args) == 0 {
		pflag.Usage()
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	if *quiet {
		logLevel = slog.LevelWarn
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	opts := cartograph.DefaultOptions()
	opts.Threads = *threads

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		opts.HardCancel = true
		logger.Info("shutdown.signal")
		cancel()
	}()

	command := args[0]
	path := "."
	if len(args) > 1 {
		path = args[1]
	}
	progressCfg := NewProgressConfig(*jsonOutput, *quiet, *noColor)

	switch command {
	case "index":
		runIndexProject(ctx, path, *dataRoot, opts, logger, progressCfg)
	case "workspace":
		runIndexWorkspace(ctx, path, *dataRoot, opts, logger, progressCfg)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		pflag.Usage()
		os.Exit(1)
	}
}

func defaultDataRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cartograph/data"
	}
	return filepath.Join(home, ".cartograph", "data")
}

func runIndexProject(ctx context.Context, path, dataRoot string, opts cartograph.Options, logger *slog.Logger, progressCfg ProgressConfig) {
	bus := eventbus.New()
	defer bus.Close()
	var bar barLike
	if b := NewProgressBar(progressCfg, 0, "parsing"); b != nil {
		bar = b
	}
	go watchProjectEvents(bus, bar)

	result, err := cartograph.IndexProject(ctx, path, dataRoot, opts, bus, logger)
	if err != nil {
		printErr(err)
		os.Exit(1)
	}

	ui.Success(fmt.Sprintf("indexed %s", result.ProjectPath))
	fmt.Printf("  %s %d\n", ui.Label("files:"), result.Stats.FilesScanned)
	fmt.Printf("  %s %d\n", ui.Label("definitions:"), result.Stats.Definitions)
	fmt.Printf("  %s %d\n", ui.Label("edges:"), result.Stats.Edges)
	fmt.Printf("  %s %s\n", ui.Label("database:"), ui.DimText(result.DBPath))
	if len(result.Diagnostics) > 0 {
		ui.Warningf("%d diagnostics recorded", len(result.Diagnostics))
	}
}

func runIndexWorkspace(ctx context.Context, path, dataRoot string, opts cartograph.Options, logger *slog.Logger, progressCfg ProgressConfig) {
	bus := eventbus.New()
	defer bus.Close()
	var spinner barLike
	if s := NewSpinner(progressCfg, "indexing workspace"); s != nil {
		spinner = s
	}
	go watchWorkspaceEvents(bus, spinner)

	result, err := cartograph.IndexWorkspace(ctx, path, dataRoot, opts, bus, logger)
	if err != nil {
		printErr(err)
		os.Exit(1)
	}

	ui.Success(fmt.Sprintf("indexed %d project(s) under %s", len(result.Projects), result.WorkspacePath))
	for _, p := range result.Projects {
		fmt.Printf("  %s %s (%d definitions, %d edges)\n", ui.Label(p.ProjectPath), ui.DimText(p.DBPath), p.Stats.Definitions, p.Stats.Edges)
	}
	if len(result.Diagnostics) > 0 {
		ui.Warningf("%d diagnostics recorded", len(result.Diagnostics))
	}
}

func watchProjectEvents(bus *eventbus.Bus, bar barLike) {
	sub := bus.Subscribe(64)
	defer sub.Unsubscribe()
	for ev := range sub.C {
		if ev.Channel != eventbus.ProjectIndexing || bar == nil {
			continue
		}
		switch ev.Kind {
		case eventbus.StateProgress:
			bar.ChangeMax(ev.Total)
			bar.Set(ev.Completed)
		case eventbus.StateCompleted:
			bar.Finish()
		}
	}
}

func watchWorkspaceEvents(bus *eventbus.Bus, spinner barLike) {
	sub := bus.Subscribe(64)
	defer sub.Unsubscribe()
	for ev := range sub.C {
		if ev.Channel != eventbus.WorkspaceIndexing || spinner == nil {
			continue
		}
		if ev.Kind == eventbus.StateCompleted {
			spinner.Finish()
		}
	}
}

// barLike is satisfied by *progressbar.ProgressBar; it lets the event
// watchers above accept either a bar or a spinner (or nil) uniformly.
type barLike interface {
	Set(int) error
	ChangeMax(int)
	Finish() error
}

func printErr(err error) {
	var pipelineErr *cgerrors.PipelineError
	if e, ok := err.(*cgerrors.PipelineError); ok {
		pipelineErr = e
	}
	if pipelineErr != nil {
		fmt.Fprint(os.Stderr, pipelineErr.Format(false))
		return
	}
	ui.Error(err.Error())
}
