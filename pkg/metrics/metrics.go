// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

// Package metrics holds the Prometheus instrumentation for the indexing
// pipeline: one counter or histogram per stage boundary (A discovery, B
// parse, D resolve, E export), registered lazily exactly once regardless of
// how many projects or workspaces a process indexes in its lifetime, the
// same sync.Once/package-singleton shape the teacher's ingestion metrics
// used, retargeted from Datalog-batch counters to spec §4's stage names.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Pipeline holds every metric the indexing pipeline records.
type Pipeline struct {
	DiscoveryFilesTotal      prometheus.Counter
	DiscoveryFilesSkipped    *prometheus.CounterVec // label "reason"
	ParseFilesTotal          prometheus.Counter
	ParseErrorsTotal         prometheus.Counter
	ResolvePassDuration      *prometheus.HistogramVec // label "pass"
	ResolveReferencesTotal   *prometheus.CounterVec   // label "outcome" (resolved|dropped)
	ExportRowsTotal          *prometheus.CounterVec   // label "relation"
	ExportCommitDuration     prometheus.Histogram
	ProjectsIndexedTotal     *prometheus.CounterVec // label "result" (ok|failed|cancelled)
}

var (
	once     sync.Once
	pipeline *Pipeline
)

// Get returns the process-wide Pipeline singleton, registering its metrics
// with the default Prometheus registry on first call.
func Get() *Pipeline {
	once.Do(func() {
		pipeline = &Pipeline{
			DiscoveryFilesTotal: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "cartograph_discovery_files_total",
				Help: "Candidate source files found by workspace discovery.",
			}),
			DiscoveryFilesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "cartograph_discovery_files_skipped_total",
				Help: "Files skipped during discovery, by reason.",
			}, []string{"reason"}),
			ParseFilesTotal: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "cartograph_parse_files_total",
				Help: "Files successfully handed to an extractor.",
			}),
			ParseErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "cartograph_parse_errors_total",
				Help: "Files whose extraction yielded a diagnostic.",
			}),
			ResolvePassDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name: "cartograph_resolve_pass_duration_seconds",
				Help: "Wall-clock duration of one resolver pass.",
			}, []string{"pass"}),
			ResolveReferencesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "cartograph_resolve_references_total",
				Help: "References processed by the resolver, by outcome.",
			}, []string{"outcome"}),
			ExportRowsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "cartograph_export_rows_total",
				Help: "Rows written to a columnar batch, by relation.",
			}, []string{"relation"}),
			ExportCommitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
				Name: "cartograph_export_commit_duration_seconds",
				Help: "Wall-clock duration of one project's bulk load + commit.",
			}),
			ProjectsIndexedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "cartograph_projects_indexed_total",
				Help: "Projects indexed, by result.",
			}, []string{"result"}),
		}
		prometheus.MustRegister(
			pipeline.DiscoveryFilesTotal,
			pipeline.DiscoveryFilesSkipped,
			pipeline.ParseFilesTotal,
			pipeline.ParseErrorsTotal,
			pipeline.ResolvePassDuration,
			pipeline.ResolveReferencesTotal,
			pipeline.ExportRowsTotal,
			pipeline.ExportCommitDuration,
			pipeline.ProjectsIndexedTotal,
		)
	})
	return pipeline
}
