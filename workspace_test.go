// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package cartograph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cgtesting "github.com/kraklabs/cartograph/internal/testing"
	"github.com/kraklabs/cartograph/pkg/eventbus"
)

func TestIndexWorkspace_EmptyWorkspaceCompletesWithNoProjects(t *testing.T) {
	root := cgtesting.WriteProjectFiles(t, map[string]string{
		"README.md": "no projects here\n",
	})
	dataRoot := t.TempDir()
	bus := eventbus.New()
	defer bus.Close()

	result, err := IndexWorkspace(context.Background(), root, dataRoot, DefaultOptions(), bus, discardLogger())
	require.NoError(t, err)
	assert.Empty(t, result.Projects)
}

func TestIndexWorkspace_MultipleProjectsEachGetOwnDatabase(t *testing.T) {
	root := cgtesting.WriteProjectFiles(t, map[string]string{
		"svc-a/.git/HEAD": "ref: refs/heads/main\n",
		"svc-a/main.go":   "package main\n\nfunc main() {}\n",
		"svc-b/.git/HEAD": "ref: refs/heads/main\n",
		"svc-b/main.go":   "package main\n\nfunc main() {}\n",
	})
	dataRoot := t.TempDir()
	bus := eventbus.New()
	defer bus.Close()

	result, err := IndexWorkspace(context.Background(), root, dataRoot, DefaultOptions(), bus, discardLogger())
	require.NoError(t, err)
	require.Len(t, result.Projects, 2)

	seen := map[string]bool{}
	for _, p := range result.Projects {
		assert.FileExists(t, p.DBPath)
		assert.False(t, seen[p.DBPath], "each project must get a distinct database path")
		seen[p.DBPath] = true
	}
}

func TestIndexWorkspace_SecondRunOverSameTreeIsIdempotentPerProject(t *testing.T) {
	root := cgtesting.WriteProjectFiles(t, map[string]string{
		"svc-a/.git/HEAD": "ref: refs/heads/main\n",
		"svc-a/main.go":   "package main\n\nfunc main() {}\n",
		"svc-b/.git/HEAD": "ref: refs/heads/main\n",
		"svc-b/main.go":   "package main\n\nfunc main() {}\n",
	})
	dataRoot := t.TempDir()
	bus := eventbus.New()
	defer bus.Close()

	first, err := IndexWorkspace(context.Background(), root, dataRoot, DefaultOptions(), bus, discardLogger())
	require.NoError(t, err)

	second, err := IndexWorkspace(context.Background(), root, dataRoot, DefaultOptions(), bus, discardLogger())
	require.NoError(t, err)

	require.Len(t, first.Projects, 2)
	require.Len(t, second.Projects, 2)

	firstByPath := map[string]ProjectResult{}
	for _, p := range first.Projects {
		firstByPath[p.ProjectPath] = p
	}
	for _, p := range second.Projects {
		want, ok := firstByPath[p.ProjectPath]
		require.True(t, ok, "project %s present in first run", p.ProjectPath)
		assert.Equal(t, want.Stats.Definitions, p.Stats.Definitions)
		assert.Equal(t, want.Stats.Edges, p.Stats.Edges)
	}
}
