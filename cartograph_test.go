// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package cartograph

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/cartograph/pkg/eventbus"
	cgtesting "github.com/kraklabs/cartograph/internal/testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func smallGoProject(t *testing.T) string {
	return cgtesting.WriteProjectFiles(t, map[string]string{
		"main.go": "package main\n\nfunc helper() int {\n\treturn 1\n}\n\nfunc main() {\n\thelper()\n}\n",
		"util/util.go": "package util\n\nfunc Add(a, b int) int {\n\treturn a + b\n}\n",
	})
}

func TestIndexProject_SmallGoProjectProducesDefinitionsAndCommitsDB(t *testing.T) {
	root := smallGoProject(t)
	dataRoot := t.TempDir()
	bus := eventbus.New()
	defer bus.Close()

	result, err := IndexProject(context.Background(), root, dataRoot, DefaultOptions(), bus, discardLogger())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Stats.FilesScanned)
	assert.Equal(t, 2, result.Stats.FilesParsed)
	assert.Greater(t, result.Stats.Definitions, 0)
	assert.False(t, result.Cancelled)
	assert.NotEmpty(t, result.RunID)
	assert.FileExists(t, result.DBPath)
}

func TestIndexProject_SecondRunOverUnchangedFilesIsIdempotent(t *testing.T) {
	root := smallGoProject(t)
	dataRoot := t.TempDir()
	bus := eventbus.New()
	defer bus.Close()

	first, err := IndexProject(context.Background(), root, dataRoot, DefaultOptions(), bus, discardLogger())
	require.NoError(t, err)

	second, err := IndexProject(context.Background(), root, dataRoot, DefaultOptions(), bus, discardLogger())
	require.NoError(t, err)

	assert.Equal(t, first.Stats.Definitions, second.Stats.Definitions)
	assert.Equal(t, first.Stats.Edges, second.Stats.Edges)
	assert.Equal(t, 2, second.Stats.FilesUnchanged, "every file should be reported unchanged on the second run")
}

func TestIndexProject_HardCancelBeforeExportLeavesNoDatabase(t *testing.T) {
	root := smallGoProject(t)
	dataRoot := t.TempDir()
	bus := eventbus.New()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // already done, so the pre-export check observes ctx.Err() != nil

	opts := DefaultOptions()
	opts.HardCancel = true

	result, err := IndexProject(ctx, root, dataRoot, opts, bus, discardLogger())
	require.NoError(t, err)
	assert.True(t, result.Cancelled)
	assert.NoFileExists(t, result.DBPath)
}

func TestIndexProject_UnsupportedLanguageIsSkippedNotFatal(t *testing.T) {
	root := cgtesting.WriteProjectFiles(t, map[string]string{
		"main.go":  "package main\n\nfunc main() {}\n",
		"lib.rs":   "fn unused() {}\n",
	})
	dataRoot := t.TempDir()
	bus := eventbus.New()
	defer bus.Close()

	result, err := IndexProject(context.Background(), root, dataRoot, DefaultOptions(), bus, discardLogger())
	require.NoError(t, err)

	// lib.rs is filtered out at discovery since rust has no registered
	// extractor and Options.Languages defaults to the registry's set.
	assert.Equal(t, 1, result.Stats.FilesScanned)
}

func TestLayoutPaths_SameWorkspaceAndProjectAreDeterministicAcrossRuns(t *testing.T) {
	dataRoot := "/data"
	dir1, db1, _ := layoutPaths(dataRoot, "/ws", "/ws/proj")
	dir2, db2, _ := layoutPaths(dataRoot, "/ws", "/ws/proj")

	assert.Equal(t, dir1, dir2)
	assert.Equal(t, db1, db2)
	assert.Equal(t, filepath.Join(dir1, "database.kz"), db1)
}
