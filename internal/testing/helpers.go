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

package testing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kraklabs/cartograph/pkg/graphdb"
)

// WriteProjectFiles materializes a small file tree under a fresh temp
// directory, one entry per path -> content, and returns the tree root. The
// directory (and everything under it) is removed when the test finishes.
//
// Example:
//
//	root := testing.WriteProjectFiles(t, map[string]string{
//	    "main.go":           "package main\nfunc main() {}\n",
//	    "handlers/auth.go":  "package handlers\n",
//	})
func WriteProjectFiles(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for rel, content := range files {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", filepath.Dir(abs), err)
		}
		if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", abs, err)
		}
	}
	return root
}

// OpenTestDB opens a fresh graphdb.DB backed by a file under t.TempDir(),
// closing it automatically when the test finishes.
func OpenTestDB(t *testing.T) *graphdb.DB {
	t.Helper()

	db, err := graphdb.Open(filepath.Join(t.TempDir(), "database.kz"))
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// RequireRelationRows asserts relation holds exactly the given row count,
// a common assertion after a BulkLoad/Commit round trip in export tests.
func RequireRelationRows(t *testing.T, db *graphdb.DB, relation string, want int) {
	t.Helper()

	got := db.Relation(relation)
	if len(got) != want {
		t.Fatalf("relation %s: got %d rows, want %d", relation, len(got), want)
	}
}
