// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package cartograph

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/kraklabs/cartograph/pkg/discovery"
	"github.com/kraklabs/cartograph/pkg/eventbus"
	"github.com/kraklabs/cartograph/pkg/graphmodel"
	"github.com/kraklabs/cartograph/pkg/langsupport"
	"github.com/kraklabs/cartograph/pkg/metrics"
	"github.com/kraklabs/cartograph/pkg/scheduler"
)

// WorkspaceResult is what IndexWorkspace returns: one ProjectResult per
// discovered project plus the workspace-level discovery diagnostics, per
// spec §6's `WorkspaceResult = { projects: ProjectResult[], diagnostics[] }`.
type WorkspaceResult struct {
	WorkspacePath string
	Projects      []ProjectResult
	Diagnostics   []graphmodel.Diagnostic
}

// IndexWorkspace discovers every project under workspaceRoot and indexes
// each independently: a project that fails does not stop the others, per
// the Discovery failure semantics (a missing/unreadable project root fails
// only that project). Projects run with bounded cross-project concurrency
// sharing one scheduler, so the CPU worker pool is never oversubscribed by
// running every project's parse stage at once.
func IndexWorkspace(ctx context.Context, workspaceRoot, dataRoot string, opts Options, bus *eventbus.Bus, logger *slog.Logger) (WorkspaceResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	absRoot, err := filepath.Abs(workspaceRoot)
	if err != nil {
		absRoot = workspaceRoot
	}

	m := metrics.Get()
	registry := langsupport.NewRegistry()
	disc := opts.discoveryOptions(registry.Languages())

	publish(bus, eventbus.WorkspaceIndexing, eventbus.StateStarted, absRoot, nil)

	projects, diags, err := discovery.DiscoverWorkspace(absRoot, disc, logger)
	if err != nil {
		publish(bus, eventbus.WorkspaceIndexing, eventbus.StateFailed, absRoot, err)
		return WorkspaceResult{WorkspacePath: absRoot, Diagnostics: diags}, err
	}
	for _, d := range diags {
		if d.Kind == "discovery.file_too_large" || d.Kind == "discovery.binary_file" {
			m.DiscoveryFilesSkipped.WithLabelValues(d.Kind).Inc()
		}
	}
	m.DiscoveryFilesTotal.Add(float64(totalFiles(projects)))

	if len(projects) == 0 {
		logger.Info("workspace.index.empty", "root", absRoot)
		publishProgress(bus, eventbus.WorkspaceIndexing, absRoot, 0, 0, "projects")
		publish(bus, eventbus.WorkspaceIndexing, eventbus.StateCompleted, absRoot, WorkspaceResult{WorkspacePath: absRoot})
		return WorkspaceResult{WorkspacePath: absRoot, Diagnostics: diags}, nil
	}

	sched := scheduler.New(scheduler.Config{Workers: opts.Threads})

	// Cross-project concurrency is capped at the CPU worker count: each
	// project's own parse stage already fans out across that same pool, so
	// running more projects than workers at once would only add contention,
	// not throughput.
	maxInFlight := sched.Workers()
	if maxInFlight > len(projects) {
		maxInFlight = len(projects)
	}
	sem := make(chan struct{}, maxInFlight)

	results := make([]ProjectResult, len(projects))
	var wg sync.WaitGroup
	var mu sync.Mutex
	var workspaceDiags []graphmodel.Diagnostic

	for i, project := range projects {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, project *discovery.Project) {
			defer wg.Done()
			defer func() { <-sem }()

			publishProgress(bus, eventbus.WorkspaceIndexing, absRoot, i, len(projects), "projects")
			res, err := runProject(ctx, absRoot, project, dataRoot, opts, registry, sched, bus, logger)
			results[i] = res
			if err != nil {
				mu.Lock()
				workspaceDiags = append(workspaceDiags, graphmodel.Diagnostic{
					Severity: graphmodel.SeverityError,
					File:     project.RootPath,
					Kind:     "workspace.project_failed",
					Message:  err.Error(),
				})
				mu.Unlock()
				logger.Warn("workspace.project.failed", "project", project.RootPath, "err", err)
			}
		}(i, project)
	}
	wg.Wait()
	publishProgress(bus, eventbus.WorkspaceIndexing, absRoot, len(projects), len(projects), "projects")

	result := WorkspaceResult{
		WorkspacePath: absRoot,
		Projects:      results,
		Diagnostics:   append(diags, workspaceDiags...),
	}
	publish(bus, eventbus.WorkspaceIndexing, eventbus.StateCompleted, absRoot, result)
	logger.Info("workspace.index.complete", "root", absRoot, "projects", len(projects), "failed", len(workspaceDiags))
	return result, nil
}

func totalFiles(projects []*discovery.Project) int {
	n := 0
	for _, p := range projects {
		n += len(p.Files)
	}
	return n
}
