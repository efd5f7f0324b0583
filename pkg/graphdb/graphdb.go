// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package graphdb

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Row is one relation row, keyed by column name. Values are the Go-native
// types export's writer would otherwise put in a parquet column: string,
// int64, bool, or nil for an absent optional column.
type Row map[string]any

// Batch is one relation's rows for a single bulk_load call. Key names the
// columns that make a row's identity for idempotent re-load: ["id"] for
// directories/files/definitions/imports, ["source_id", "target_id",
// "label"] for edges (spec §4.E has no edge ID, so the triple is the key).
type Batch struct {
	Relation string
	Key      []string
	Rows     []Row
}

// LoadResult summarizes one bulk_load call.
type LoadResult struct {
	RelationsLoaded int
	RowsLoaded      int
}

// DB is one project's graph database handle.
type DB struct {
	path string

	mu        sync.Mutex
	relations map[string]map[string]Row // relation -> row key -> row
	dirty     bool
}

// Open opens (or creates) the database at path. If path already holds a
// committed database, its relations are loaded so a subsequent bulk_load
// is a merge, not a fresh start, matching the idempotent-on-node-ID
// contract spec §4.E requires.
func Open(path string) (*DB, error) {
	db := &DB{path: path, relations: make(map[string]map[string]Row)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return db, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if len(data) == 0 {
		return db, nil
	}
	dec := gob.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&db.relations); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return db, nil
}

// BulkLoad merges each batch's rows into its relation, keyed by Key,
// overwriting any existing row with the same key. Loading the same batch
// twice in a row is a no-op after the first application.
func (db *DB) BulkLoad(batches []Batch) (LoadResult, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var result LoadResult
	seenRelation := make(map[string]bool)
	for _, batch := range batches {
		rel, ok := db.relations[batch.Relation]
		if !ok {
			rel = make(map[string]Row)
			db.relations[batch.Relation] = rel
		}
		for _, row := range batch.Rows {
			key, err := rowKey(batch.Key, row)
			if err != nil {
				return result, fmt.Errorf("relation %s: %w", batch.Relation, err)
			}
			rel[key] = row
			result.RowsLoaded++
		}
		seenRelation[batch.Relation] = true
		db.dirty = true
	}
	result.RelationsLoaded = len(seenRelation)
	return result, nil
}

// rowKey joins the values of the named key columns into a stable string
// key. Missing key columns are a caller bug, not a soft failure.
func rowKey(columns []string, row Row) (string, error) {
	parts := make([]string, len(columns))
	for i, col := range columns {
		v, ok := row[col]
		if !ok || v == nil {
			return "", fmt.Errorf("row missing key column %q", col)
		}
		parts[i] = fmt.Sprintf("%v", v)
	}
	return strings.Join(parts, "\x1f"), nil
}

// Commit persists the current relation set to disk as one atomic write
// (spec §4.E's "commit as one transaction per project"), via a temp file
// plus rename so a crash mid-write never leaves a half-written database.kz.
func (db *DB) Commit() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if !db.dirty {
		return nil
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(db.relations); err != nil {
		return fmt.Errorf("encode database: %w", err)
	}

	tmp := db.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write temp database: %w", err)
	}
	if err := os.Rename(tmp, db.path); err != nil {
		return fmt.Errorf("commit database: %w", err)
	}
	db.dirty = false
	return nil
}

// Relation returns a snapshot of a relation's rows, for querying and for
// round-trip verification. The returned slice is a defensive copy.
func (db *DB) Relation(name string) []Row {
	db.mu.Lock()
	defer db.mu.Unlock()

	rel := db.relations[name]
	rows := make([]Row, 0, len(rel))
	for _, row := range rel {
		rows = append(rows, row)
	}
	return rows
}

// Close releases the handle. The engine holds no OS resources beyond the
// already-closed file reads/writes, so Close only guards against reuse.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.relations = nil
	return nil
}
