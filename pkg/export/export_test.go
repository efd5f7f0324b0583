// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/cartograph/pkg/graphbuild"
	"github.com/kraklabs/cartograph/pkg/graphdb"
	"github.com/kraklabs/cartograph/pkg/graphmodel"
	"github.com/kraklabs/cartograph/pkg/langsupport"
)

func smallGraph() *graphbuild.Graph {
	g := graphbuild.NewGraph()
	file := &graphmodel.File{ID: "file:1", RepoRelativePath: "a.go", Language: "go", ContentHash: "abc", ByteLen: 10}
	_ = g.AddFile(file)
	def := &graphmodel.Definition{ID: "def:1", FileID: file.ID, Kind: graphmodel.KindFunction, FullyQualifiedName: "main", SimpleName: "main"}
	_ = g.AddExtraction(file, &langsupport.ExtractorOutput{Definitions: []*graphmodel.Definition{def}})
	g.AddEdge(&graphmodel.Edge{SourceID: file.ID, TargetID: def.ID, Label: graphmodel.EdgeContains})
	return g
}

func TestCommit_RoundTripYieldsSameEdgeMultiset(t *testing.T) {
	g := smallGraph()
	dir := t.TempDir()

	result, err := Commit(g, filepath.Join(dir, "staging"), filepath.Join(dir, "database.kz"))
	require.NoError(t, err)
	assert.Equal(t, 3, result.Loaded.RowsLoaded) // 1 file + 1 definition + 1 edge; the directories and imports batches are empty

	db, err := graphdb.Open(result.DBPath)
	require.NoError(t, err)
	edges1 := db.Relation("edges")
	require.NoError(t, db.Close())

	// Re-run Commit against the same graph: same inputs must yield the same
	// edge multiset (spec §8 property 6, idempotence).
	result2, err := Commit(g, filepath.Join(dir, "staging2"), filepath.Join(dir, "database2.kz"))
	require.NoError(t, err)
	db2, err := graphdb.Open(result2.DBPath)
	require.NoError(t, err)
	edges2 := db2.Relation("edges")
	require.NoError(t, db2.Close())

	assert.ElementsMatch(t, edges1, edges2)
}

func TestBuildBatches_EdgeKeyIsSourceTargetLabel(t *testing.T) {
	g := smallGraph()
	batches := BuildBatches(g)

	var edgeBatch *graphdb.Batch
	for i := range batches {
		if batches[i].Relation == "edges" {
			edgeBatch = &batches[i]
		}
	}
	require.NotNil(t, edgeBatch)
	assert.Equal(t, []string{"source_id", "target_id", "label"}, edgeBatch.Key)
	require.Len(t, edgeBatch.Rows, 1)
	assert.Equal(t, "CONTAINS", edgeBatch.Rows[0]["label"])
}
