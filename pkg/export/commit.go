// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"fmt"
	"path/filepath"

	"github.com/kraklabs/cartograph/pkg/graphbuild"
	"github.com/kraklabs/cartograph/pkg/graphdb"
)

// Result is what a completed (or failed-but-staged) export/load leaves
// behind for a project.
type Result struct {
	DBPath      string
	StagingPath string
	Loaded      graphdb.LoadResult
}

// Commit writes a project's parquet batches under stagingDir, bulk-loads
// them into the database at dbPath and commits. Per spec §4.E: on load
// failure the staging directory is retained for diagnosis and the error is
// returned with the project otherwise untouched. A failure here never
// touches a previously-committed database.kz, since BulkLoad only mutates
// an in-memory relation set that Commit applies atomically at the end.
func Commit(g *graphbuild.Graph, stagingDir, dbPath string) (Result, error) {
	result := Result{DBPath: dbPath, StagingPath: stagingDir}

	if err := NewWriter(stagingDir).WriteAll(g); err != nil {
		return result, fmt.Errorf("write parquet batches: %w", err)
	}
	if err := WriteDiagnostics(filepath.Join(filepath.Dir(dbPath), "diagnostics.jsonl"), g.Diagnostics); err != nil {
		return result, fmt.Errorf("write diagnostics: %w", err)
	}

	db, err := graphdb.Open(dbPath)
	if err != nil {
		return result, fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	loaded, err := db.BulkLoad(BuildBatches(g))
	if err != nil {
		return result, fmt.Errorf("bulk load: %w", err)
	}
	result.Loaded = loaded

	if err := db.Commit(); err != nil {
		return result, fmt.Errorf("commit database: %w", err)
	}
	return result, nil
}
