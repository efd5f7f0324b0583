// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package discovery

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"

	cgerrors "github.com/kraklabs/cartograph/internal/errors"
	"github.com/kraklabs/cartograph/pkg/graphmodel"
)

// DefaultMaxFileBytes is the default per-file size cap; larger files are
// skipped with a diagnostic.
const DefaultMaxFileBytes int64 = 4 << 20

// IgnoreFileName is the name of the per-directory ignore file read
// hierarchically from a project's root down into every subdirectory.
const IgnoreFileName = ".cartographignore"

// Options configures a discovery run.
type Options struct {
	// MaxFileBytes caps the size of a candidate source file. Zero selects
	// DefaultMaxFileBytes.
	MaxFileBytes int64

	// Languages restricts discovery to this set, or all supported
	// languages when nil.
	Languages map[string]bool
}

func (o Options) maxBytes() int64 {
	if o.MaxFileBytes > 0 {
		return o.MaxFileBytes
	}
	return DefaultMaxFileBytes
}

// ScannedFile is a candidate source file found during discovery.
type ScannedFile struct {
	AbsPath          string
	RepoRelativePath string
	Language         string
	Size             int64
}

// Project is a directory containing a version-control marker, with its
// enumerated candidate source files.
type Project struct {
	RootPath string
	Files    []ScannedFile
}

// DiscoverWorkspace finds every Project under workspaceRoot, a directory
// carrying a .git marker, or the root itself if it carries one, and scans
// each independently. A project that fails to scan is recorded as a
// Discovery diagnostic and skipped; other projects continue (per the
// discovery failure semantics: a missing/unreadable project root fails that
// project only).
func DiscoverWorkspace(workspaceRoot string, opts Options, logger *slog.Logger) ([]*Project, []graphmodel.Diagnostic, error) {
	if logger == nil {
		logger = slog.Default()
	}
	roots, err := findProjectRoots(workspaceRoot)
	if err != nil {
		return nil, nil, cgerrors.NewDiscoveryError(
			"cannot enumerate workspace",
			err.Error(),
			"verify the workspace path exists and is readable",
			err,
		)
	}

	logger.Info("workspace.discover.start", "root", workspaceRoot, "projects", len(roots))

	var projects []*Project
	var diags []graphmodel.Diagnostic
	for _, root := range roots {
		project, projectDiags, err := ScanProject(root, opts, logger)
		diags = append(diags, projectDiags...)
		if err != nil {
			diags = append(diags, graphmodel.Diagnostic{
				Severity: graphmodel.SeverityError,
				File:     root,
				Kind:     "discovery.project_failed",
				Message:  err.Error(),
			})
			logger.Warn("project.discover.failed", "root", root, "err", err)
			continue
		}
		projects = append(projects, project)
	}

	logger.Info("workspace.discover.complete", "root", workspaceRoot, "projects", len(projects))
	return projects, diags, nil
}

// findProjectRoots walks workspaceRoot looking for directories containing a
// .git marker. The workspace root itself counts if it carries one.
func findProjectRoots(workspaceRoot string) ([]string, error) {
	abs, err := filepath.Abs(workspaceRoot)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &os.PathError{Op: "discover", Path: abs, Err: os.ErrInvalid}
	}

	var roots []string
	var walk func(dir string) error
	walk = func(dir string) error {
		if isGitRepo(dir) {
			roots = append(roots, dir)
			return nil // do not descend into nested projects
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil // unreadable directory: skip, not workspace-fatal
		}
		for _, e := range entries {
			if !e.IsDir() || e.Name() == ".git" {
				continue
			}
			if err := walk(filepath.Join(dir, e.Name())); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(abs); err != nil {
		return nil, err
	}
	sort.Strings(roots)
	return roots, nil
}

func isGitRepo(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil && info.IsDir()
}

// ScanProject enumerates a single project's candidate source files,
// applying the project's hierarchical ignore rules, the language
// allow-list, the max-file-size cap, and a binary sniff. It prefers
// `git ls-files` when a git binary is available, falling back to a plain
// filesystem walk otherwise.
func ScanProject(root string, opts Options, logger *slog.Logger) (*Project, []graphmodel.Diagnostic, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("project.scan.start", "root", root)

	candidatePaths, err := listCandidatePaths(root)
	if err != nil {
		return nil, nil, cgerrors.NewDiscoveryError(
			"cannot enumerate project files",
			err.Error(),
			"check permissions on the project working tree",
			err,
		)
	}

	patterns, err := collectIgnorePatterns(root)
	if err != nil {
		return nil, nil, cgerrors.NewDiscoveryError(
			"cannot read ignore files",
			err.Error(),
			"",
			err,
		)
	}

	var merr *multierror.Error
	var diags []graphmodel.Diagnostic
	var files []ScannedFile

	for _, relPath := range candidatePaths {
		absPath := filepath.Join(root, relPath)
		normalized := filepath.ToSlash(relPath)

		if matchesIgnore(normalized, patterns[""]) || matchesScopedIgnore(normalized, patterns) {
			continue
		}

		lang := DetectLanguage(relPath)
		if lang == "" {
			continue
		}
		if opts.Languages != nil && !opts.Languages[lang] {
			continue
		}

		info, statErr := os.Lstat(absPath)
		if statErr != nil {
			diags = append(diags, graphmodel.Diagnostic{
				Severity: graphmodel.SeverityWarning,
				File:     relPath,
				Kind:     "discovery.unreadable_file",
				Message:  statErr.Error(),
			})
			merr = multierror.Append(merr, statErr)
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}

		if info.Size() > opts.maxBytes() {
			diags = append(diags, graphmodel.Diagnostic{
				Severity: graphmodel.SeverityInfo,
				File:     relPath,
				Kind:     "discovery.file_too_large",
				Message:  "file exceeds the max-file-size cap and was skipped",
			})
			continue
		}

		isBinary, err := looksBinary(absPath)
		if err != nil {
			diags = append(diags, graphmodel.Diagnostic{
				Severity: graphmodel.SeverityWarning,
				File:     relPath,
				Kind:     "discovery.unreadable_file",
				Message:  err.Error(),
			})
			continue
		}
		if isBinary {
			diags = append(diags, graphmodel.Diagnostic{
				Severity: graphmodel.SeverityInfo,
				File:     relPath,
				Kind:     "discovery.binary_file",
				Message:  "NUL byte in first 8 KiB, treated as binary and skipped",
			})
			continue
		}

		files = append(files, ScannedFile{
			AbsPath:          absPath,
			RepoRelativePath: normalized,
			Language:         lang,
			Size:             info.Size(),
		})
	}

	logger.Info("project.scan.complete", "root", root, "files", len(files), "diagnostics", len(diags))
	return &Project{RootPath: root, Files: files}, diags, merr.ErrorOrNil()
}

// listCandidatePaths lists every tracked-or-untracked-but-not-ignored file
// path via `git ls-files`, falling back to a plain recursive walk (skipping
// .git) when git is unavailable or the call fails.
func listCandidatePaths(root string) ([]string, error) {
	if paths, err := gitListFiles(root); err == nil {
		return paths, nil
	}
	return walkListFiles(root)
}

func gitListFiles(root string) ([]string, error) {
	if _, err := exec.LookPath("git"); err != nil {
		return nil, err
	}
	cmd := exec.Command("git", "-C", root, "ls-files", "--cached", "--others", "--exclude-standard")
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil, err
	}
	var paths []string
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			paths = append(paths, line)
		}
	}
	return paths, scanner.Err()
}

func walkListFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	return paths, err
}

// collectIgnorePatterns reads IgnoreFileName hierarchically: patterns in a
// directory's ignore file are scoped to paths under that directory. The
// returned map is keyed by the directory's path relative to root ("" for
// the root itself).
func collectIgnorePatterns(root string) (map[string][]string, error) {
	patterns := make(map[string][]string)
	var walk func(dir, relDir string) error
	walk = func(dir, relDir string) error {
		ignorePath := filepath.Join(dir, IgnoreFileName)
		if data, err := os.ReadFile(ignorePath); err == nil {
			patterns[relDir] = parseIgnoreFile(data)
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil
		}
		for _, e := range entries {
			if !e.IsDir() || e.Name() == ".git" {
				continue
			}
			childRel := e.Name()
			if relDir != "" {
				childRel = relDir + "/" + e.Name()
			}
			if err := walk(filepath.Join(dir, e.Name()), childRel); err != nil {
				return err
			}
		}
		return nil
	}
	err := walk(root, "")
	return patterns, err
}

func parseIgnoreFile(data []byte) []string {
	var patterns []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}

// matchesScopedIgnore checks a path against every scoped directory's
// pattern set whose scope is an ancestor of the path (excluding the root
// scope, already checked by the caller).
func matchesScopedIgnore(path string, scoped map[string][]string) bool {
	for scope, patterns := range scoped {
		if scope == "" {
			continue
		}
		if path != scope && !strings.HasPrefix(path, scope+"/") {
			continue
		}
		rel := strings.TrimPrefix(path, scope+"/")
		if matchesIgnore(rel, patterns) || matchesIgnore(path, patterns) {
			return true
		}
	}
	return false
}

// looksBinary reports whether the file at path contains a NUL byte in its
// first 8 KiB, the binary-file heuristic used to skip non-source files.
func looksBinary(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	buf := make([]byte, 8192)
	n, err := f.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	return bytes.IndexByte(buf[:n], 0) >= 0, nil
}
