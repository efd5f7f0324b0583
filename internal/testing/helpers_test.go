// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package testing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/cartograph/pkg/graphdb"
)

func TestWriteProjectFiles(t *testing.T) {
	root := WriteProjectFiles(t, map[string]string{
		"main.go":          "package main\n",
		"handlers/auth.go": "package handlers\n",
	})
	require.DirExists(t, root)
	require.FileExists(t, root+"/main.go")
	require.FileExists(t, root+"/handlers/auth.go")
}

func TestOpenTestDBRoundTrip(t *testing.T) {
	db := OpenTestDB(t)

	loaded, err := db.BulkLoad([]graphdb.Batch{
		{Relation: "files", Key: []string{"id"}, Rows: []graphdb.Row{{"id": "file:a", "path": "a.go"}}},
	})
	require.NoError(t, err)
	require.Equal(t, 1, loaded.RowsLoaded)

	RequireRelationRows(t, db, "files", 1)
}
