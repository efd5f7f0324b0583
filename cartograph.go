// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package cartograph

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/kraklabs/cartograph/internal/contract"
	cgerrors "github.com/kraklabs/cartograph/internal/errors"
	"github.com/kraklabs/cartograph/pkg/discovery"
	"github.com/kraklabs/cartograph/pkg/eventbus"
	"github.com/kraklabs/cartograph/pkg/export"
	"github.com/kraklabs/cartograph/pkg/graphbuild"
	"github.com/kraklabs/cartograph/pkg/graphdb"
	"github.com/kraklabs/cartograph/pkg/graphmodel"
	"github.com/kraklabs/cartograph/pkg/langsupport"
	"github.com/kraklabs/cartograph/pkg/metrics"
	"github.com/kraklabs/cartograph/pkg/resolve"
	"github.com/kraklabs/cartograph/pkg/scheduler"
)

// Stats summarizes one project's indexing run across every stage. It is the
// concrete shape behind `ProjectResult.stats` in spec §6.
type Stats struct {
	FilesScanned     int
	FilesParsed      int
	FilesUnsupported int
	FilesUnchanged   int
	Definitions      int
	Imports          int
	References       int
	Edges            int
	Resolve          resolve.Stats
	Export           graphdb.LoadResult
	Duration         time.Duration
}

// ProjectResult is what IndexProject returns, per spec §6:
// `ProjectResult = { db_path, staging_path, stats, diagnostics[] }`.
type ProjectResult struct {
	// RunID uniquely identifies this indexing run in logs and events; it is
	// not persisted as part of the graph and has no bearing on node IDs,
	// which stay purely a function of path/kind/byte-range.
	RunID       string
	ProjectPath string
	DBPath      string
	StagingPath string
	Stats       Stats
	Diagnostics []graphmodel.Diagnostic
	Cancelled   bool
}

// IndexProject runs the full A→B→C→D→E pipeline over a single project
// rooted at projectPath, persisting its graph under dataRoot per spec §6's
// layout. With no enclosing workspace to hash, the project's own parent
// directory stands in for workspace_path in the persisted path.
func IndexProject(ctx context.Context, projectPath, dataRoot string, opts Options, bus *eventbus.Bus, logger *slog.Logger) (ProjectResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	registry := langsupport.NewRegistry()
	disc := opts.discoveryOptions(registry.Languages())

	absProject, err := filepath.Abs(projectPath)
	if err != nil {
		return ProjectResult{}, cgerrors.NewDiscoveryError("cannot resolve project path", err.Error(), "", err)
	}
	workspacePath := filepath.Dir(absProject)

	project, diags, err := discovery.ScanProject(absProject, disc, logger)
	if err != nil {
		return ProjectResult{}, err
	}

	sched := scheduler.New(scheduler.Config{Workers: opts.Threads})
	result, err := runProject(ctx, workspacePath, project, dataRoot, opts, registry, sched, bus, logger)
	result.Diagnostics = append(diags, result.Diagnostics...)
	return result, err
}

// runProject is the shared per-project pipeline both IndexProject and
// IndexWorkspace drive: B (parse, parallel) → C (graph assembly) → D
// (resolve) → E (export/load). It never touches other projects' state.
func runProject(
	ctx context.Context,
	workspacePath string,
	project *discovery.Project,
	dataRoot string,
	opts Options,
	registry *langsupport.Registry,
	sched *scheduler.Scheduler,
	bus *eventbus.Bus,
	logger *slog.Logger,
) (ProjectResult, error) {
	start := time.Now()
	m := metrics.Get()
	runID := uuid.New().String()

	publish(bus, eventbus.ProjectIndexing, eventbus.StateStarted, project.RootPath, nil)

	projectDir, dbPath, stagingDir := layoutPaths(dataRoot, workspacePath, project.RootPath)
	result := ProjectResult{RunID: runID, ProjectPath: project.RootPath, DBPath: dbPath, StagingPath: stagingDir}

	changes, err := graphbuild.LoadChangeSet(changeSetPath(dataRoot, workspacePath, project.RootPath))
	if err != nil {
		logger.Warn("project.changeset.load_failed", "project", project.RootPath, "err", err)
		changes, _ = graphbuild.LoadChangeSet("")
	}

	g := graphbuild.NewGraph()

	n := len(project.Files)
	parsed := make([]*fileParse, n)

	publishProgress(bus, eventbus.ProjectIndexing, project.RootPath, 0, n, "parse")
	sched.RunCPU(ctx, n, func(i int) {
		parsed[i] = parseOneFile(project.Files[i], registry)
	})
	// RunCPU stops starting jobs once ctx is done; files whose job never
	// started are parsed here so C always sees every discovered file.
	for i, fp := range parsed {
		if fp == nil {
			parsed[i] = parseOneFile(project.Files[i], registry)
		}
	}
	publishProgress(bus, eventbus.ProjectIndexing, project.RootPath, n, n, "parse")

	dirCache := make(map[string]*graphmodel.Directory)
	unchangedCount := 0
	for i, fp := range parsed {
		sf := project.Files[i]
		m.ParseFilesTotal.Inc()

		dir := ensureDirectory(g, dirCache, project.RootPath, filepath.Dir(sf.AbsPath))
		fp.file.ParentDirID = dir.ID

		// Every file is still re-extracted regardless of this check: the
		// aggregated graph is rebuilt from scratch each run, so skipping
		// extraction here would leave gaps in containment/cluster indexes
		// for files nothing else repopulates. Unchanged only tracks the
		// bookkeeping signal a future incremental pass would act on.
		if fp.file.ContentHash != "" && changes.Unchanged(sf.RepoRelativePath, fp.file.ContentHash) {
			unchangedCount++
		}

		if err := g.AddFile(fp.file); err != nil {
			publish(bus, eventbus.ProjectIndexing, eventbus.StateFailed, project.RootPath, err)
			return result, cgerrors.NewInvariantError("duplicate file id", err.Error(), err)
		}
		for _, d := range fp.diagnostics {
			g.AddDiagnostic(d)
			if d.Severity == graphmodel.SeverityError || d.Severity == graphmodel.SeverityWarning {
				m.ParseErrorsTotal.Inc()
			}
		}
		if fp.output != nil {
			if err := g.AddExtraction(fp.file, fp.output); err != nil {
				publish(bus, eventbus.ProjectIndexing, eventbus.StateFailed, project.RootPath, err)
				return result, cgerrors.NewInvariantError("duplicate definition id", err.Error(), err)
			}
		}
	}

	g.FinalizeContainment()
	g.SortDeterministic()

	if res := contract.ValidateUniqueIDs(directoryIDs(g.Directories), fileIDs(g.Files), definitionIDs(g.Definitions)); !res.OK {
		publish(bus, eventbus.ProjectIndexing, eventbus.StateFailed, project.RootPath, nil)
		return result, cgerrors.NewInvariantError("duplicate node id", res.Message, nil)
	}
	if res := contract.ValidateContainment(g.Directories, g.Definitions); !res.OK {
		publish(bus, eventbus.ProjectIndexing, eventbus.StateFailed, project.RootPath, nil)
		return result, cgerrors.NewInvariantError("containment cycle", res.Message, nil)
	}

	resolver := resolve.New(g)
	resolveStats, resolveErr := resolver.Resolve()
	if resolveErr != nil {
		logger.Warn("project.resolve.panics", "project", project.RootPath, "err", resolveErr)
	}
	if res := validateResolvedEdges(g); !res.OK {
		logger.Warn("project.resolve.invariant_violation", "project", project.RootPath, "detail", res.Message)
		g.AddDiagnostic(graphmodel.Diagnostic{
			Severity: graphmodel.SeverityCritical,
			Kind:     "resolve.invalid_edge",
			Message:  res.Message,
		})
	}

	m.ResolveReferencesTotal.WithLabelValues("resolved").Add(float64(resolveStats.ReferencesResolved))
	m.ResolveReferencesTotal.WithLabelValues("dropped").Add(float64(resolveStats.ReferencesDropped))

	result.Stats = Stats{
		FilesScanned:     n,
		FilesParsed:      countParsed(parsed),
		FilesUnsupported: countUnsupported(parsed),
		FilesUnchanged:   unchangedCount,
		Definitions:      len(g.Definitions),
		Imports:          len(g.Imports),
		References:       len(g.References),
		Edges:            len(g.Edges),
		Resolve:          resolveStats,
	}
	result.Diagnostics = append(result.Diagnostics, g.Diagnostics...)

	if opts.HardCancel && ctx.Err() != nil {
		result.Cancelled = true
		result.Diagnostics = append(result.Diagnostics, graphmodel.Diagnostic{
			Severity: graphmodel.SeverityInfo,
			Kind:     "project.cancelled",
			Message:  "hard-cancel requested before export; no commit was made",
		})
		publish(bus, eventbus.ProjectIndexing, eventbus.StateFailed, project.RootPath, ctx.Err())
		m.ProjectsIndexedTotal.WithLabelValues("cancelled").Inc()
		return result, nil
	}

	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		publish(bus, eventbus.ProjectIndexing, eventbus.StateFailed, project.RootPath, err)
		return result, cgerrors.NewExportError("cannot create staging directory", err.Error(), "check data_root permissions", err)
	}

	commitStart := time.Now()
	exportResult, err := export.Commit(g, stagingDir, dbPath)
	m.ExportCommitDuration.Observe(time.Since(commitStart).Seconds())
	if err != nil {
		publish(bus, eventbus.ProjectIndexing, eventbus.StateFailed, project.RootPath, err)
		m.ProjectsIndexedTotal.WithLabelValues("failed").Inc()
		return result, cgerrors.NewExportError("export/load failed", err.Error(), "inspect the staging directory and retry", err)
	}
	result.Stats.Export = exportResult.Loaded
	result.Stats.Duration = time.Since(start)

	if err := changes.Save(); err != nil {
		logger.Warn("project.changeset.save_failed", "project", project.RootPath, "err", err)
	}

	m.ExportRowsTotal.WithLabelValues("directories").Add(float64(len(g.Directories)))
	m.ExportRowsTotal.WithLabelValues("files").Add(float64(len(g.Files)))
	m.ExportRowsTotal.WithLabelValues("definitions").Add(float64(len(g.Definitions)))
	m.ExportRowsTotal.WithLabelValues("imports").Add(float64(len(g.Imports)))
	m.ExportRowsTotal.WithLabelValues("edges").Add(float64(len(g.Edges)))
	m.ProjectsIndexedTotal.WithLabelValues("ok").Inc()
	publish(bus, eventbus.ProjectIndexing, eventbus.StateCompleted, project.RootPath, result.Stats)

	logger.Info("project.index.complete",
		"run_id", runID,
		"project", project.RootPath,
		"files", n,
		"definitions", result.Stats.Definitions,
		"edges", result.Stats.Edges,
		"duration", result.Stats.Duration,
	)
	return result, nil
}

// fileParse is one file's B-stage output, produced in parallel and merged
// into the graph sequentially by C.
type fileParse struct {
	file        *graphmodel.File
	output      *langsupport.ExtractorOutput
	diagnostics []graphmodel.Diagnostic
}

func parseOneFile(sf discovery.ScannedFile, registry *langsupport.Registry) *fileParse {
	content, err := os.ReadFile(sf.AbsPath)
	if err != nil {
		return &fileParse{
			file: &graphmodel.File{ID: graphmodel.FileID(sf.RepoRelativePath), AbsPath: sf.AbsPath, RepoRelativePath: sf.RepoRelativePath, Language: sf.Language},
			diagnostics: []graphmodel.Diagnostic{{
				Severity: graphmodel.SeverityWarning,
				File:     sf.RepoRelativePath,
				Kind:     "parse.unreadable_file",
				Message:  err.Error(),
			}},
		}
	}

	file := &graphmodel.File{
		ID:               graphmodel.FileID(sf.RepoRelativePath),
		AbsPath:          sf.AbsPath,
		RepoRelativePath: sf.RepoRelativePath,
		Language:         sf.Language,
		ContentHash:      graphbuild.ContentHash(content),
		ByteLen:          len(content),
	}

	extractor := registry.For(sf.Language)
	if extractor == nil {
		return &fileParse{file: file, diagnostics: []graphmodel.Diagnostic{{
			Severity: graphmodel.SeverityInfo,
			File:     sf.RepoRelativePath,
			Kind:     "parse.unsupported_language",
			Message:  fmt.Sprintf("no extractor registered for %q", sf.Language),
		}}}
	}

	out, err := extractor.Extract(file, content)
	if err != nil {
		return &fileParse{file: file, diagnostics: []graphmodel.Diagnostic{{
			Severity: graphmodel.SeverityError,
			File:     sf.RepoRelativePath,
			Kind:     "parse.extract_failed",
			Message:  err.Error(),
		}}}
	}
	return &fileParse{file: file, output: out}
}

func countParsed(parsed []*fileParse) int {
	n := 0
	for _, p := range parsed {
		if p.output != nil {
			n++
		}
	}
	return n
}

func countUnsupported(parsed []*fileParse) int {
	n := 0
	for _, p := range parsed {
		for _, d := range p.diagnostics {
			if d.Kind == "parse.unsupported_language" {
				n++
			}
		}
	}
	return n
}

// ensureDirectory returns (creating and registering if necessary) the
// Directory for absDirPath, building parent Directories up to projectRoot
// as needed so the containment forest has no gaps.
func ensureDirectory(g *graphbuild.Graph, cache map[string]*graphmodel.Directory, projectRoot, absDirPath string) *graphmodel.Directory {
	if d, ok := cache[absDirPath]; ok {
		return d
	}
	var parentID string
	if absDirPath != projectRoot && absDirPath != filepath.Dir(absDirPath) {
		parent := ensureDirectory(g, cache, projectRoot, filepath.Dir(absDirPath))
		parentID = parent.ID
	}
	d := &graphmodel.Directory{ID: graphmodel.DirectoryID(absDirPath), AbsPath: absDirPath, ParentDirID: parentID}
	cache[absDirPath] = d
	g.AddDirectory(d)
	return d
}

func directoryIDs(dirs []*graphmodel.Directory) []string {
	ids := make([]string, len(dirs))
	for i, d := range dirs {
		ids[i] = d.ID
	}
	return ids
}

func fileIDs(files []*graphmodel.File) []string {
	ids := make([]string, len(files))
	for i, f := range files {
		ids[i] = f.ID
	}
	return ids
}

func definitionIDs(defs []*graphmodel.Definition) []string {
	ids := make([]string, len(defs))
	for i, d := range defs {
		ids[i] = d.ID
	}
	return ids
}

// validateResolvedEdges checks invariant 3 (resolved-reference target
// existence and same-language) over every semantic edge the resolver
// produced. CONTAINS edges are excluded: they link directories/files/
// definitions across the containment forest, not across reference targets.
func validateResolvedEdges(g *graphbuild.Graph) *contract.ValidationResult {
	defByID := make(map[string]*graphmodel.Definition, len(g.Definitions))
	for _, d := range g.Definitions {
		defByID[d.ID] = d
	}
	fileLanguage := make(map[string]string, len(g.Files))
	for _, f := range g.Files {
		fileLanguage[f.ID] = f.Language
	}

	for _, e := range g.Edges {
		if e.Label == graphmodel.EdgeContains {
			continue
		}
		refFileID := nodeFileID(g, defByID, e.SourceID)
		if res := contract.ValidateResolvedReference(e, defByID, fileLanguage, refFileID); !res.OK {
			return res
		}
	}
	return &contract.ValidationResult{OK: true}
}

// nodeFileID returns the File a node ID belongs to: directly, if id names a
// File, or via its owning Definition's FileID otherwise.
func nodeFileID(g *graphbuild.Graph, defByID map[string]*graphmodel.Definition, id string) string {
	if f := g.File(id); f != nil {
		return f.ID
	}
	if d, ok := defByID[id]; ok {
		return d.FileID
	}
	return ""
}

func publish(bus *eventbus.Bus, ch eventbus.Channel, kind eventbus.StateKind, subject string, payload any) {
	if bus == nil {
		return
	}
	ev := eventbus.Event{Channel: ch, Kind: kind, SubjectID: subject}
	switch kind {
	case eventbus.StateCompleted:
		ev.Stats = payload
	case eventbus.StateFailed:
		if err, ok := payload.(error); ok {
			ev.Err = err
		}
	}
	bus.Publish(ev)
}

func publishProgress(bus *eventbus.Bus, ch eventbus.Channel, subject string, completed, total int, stage string) {
	if bus == nil {
		return
	}
	bus.Publish(eventbus.Event{Channel: ch, Kind: eventbus.StateProgress, SubjectID: subject, Completed: completed, Total: total, Stage: stage})
}
