// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package graphdb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDB_BulkLoadIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "database.kz")
	db, err := Open(path)
	require.NoError(t, err)

	batch := []Batch{{
		Relation: "directories",
		Key:      []string{"id"},
		Rows:     []Row{{"id": "dir:a", "absolute_path": "/a"}},
	}}

	result1, err := db.BulkLoad(batch)
	require.NoError(t, err)
	result2, err := db.BulkLoad(batch)
	require.NoError(t, err)

	assert.Equal(t, result1, result2)
	assert.Len(t, db.Relation("directories"), 1)
}

func TestDB_CommitThenReopenRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "database.kz")
	db, err := Open(path)
	require.NoError(t, err)

	_, err = db.BulkLoad([]Batch{{
		Relation: "edges",
		Key:      []string{"source_id", "target_id", "label"},
		Rows: []Row{
			{"source_id": "def:1", "target_id": "def:2", "label": "CALLS"},
		},
	}})
	require.NoError(t, err)
	require.NoError(t, db.Commit())
	require.NoError(t, db.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	rows := reopened.Relation("edges")
	require.Len(t, rows, 1)
	assert.Equal(t, "def:1", rows[0]["source_id"])
	assert.Equal(t, "CALLS", rows[0]["label"])
}

func TestDB_BulkLoadRejectsRowMissingKeyColumn(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "database.kz"))
	require.NoError(t, err)

	_, err = db.BulkLoad([]Batch{{
		Relation: "files",
		Key:      []string{"id"},
		Rows:     []Row{{"path": "main.go"}},
	}})
	assert.Error(t, err)
}
