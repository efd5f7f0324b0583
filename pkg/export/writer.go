// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/kraklabs/cartograph/pkg/graphbuild"
	"github.com/kraklabs/cartograph/pkg/graphmodel"
)

// parquetBatchSize mirrors the teacher's Batcher target-mutation-count idea
// (pkg/ingestion/batcher.go), applied here to parquet row-group sizing
// instead of Datalog script splitting: one row group per this many rows
// keeps a single project's write from building one unbounded in-memory
// column chunk.
const parquetBatchSize = 50_000

// Writer serializes one project's graph to the parquet_files/ layout spec
// §6 defines, under stagingDir.
type Writer struct {
	stagingDir string
}

// NewWriter returns a Writer that stages files under stagingDir/parquet_files.
func NewWriter(stagingDir string) *Writer {
	return &Writer{stagingDir: stagingDir}
}

// WriteAll writes directories, files, definitions, imports and edges, in
// that order, nodes before edges, per spec §4.E's write-order rule.
func (w *Writer) WriteAll(g *graphbuild.Graph) error {
	dir := filepath.Join(w.stagingDir, "parquet_files")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create parquet staging dir: %w", err)
	}

	if err := writeRows(filepath.Join(dir, "directories.parquet"), new(directoryRow), directoryRows(g.Directories)); err != nil {
		return fmt.Errorf("write directories.parquet: %w", err)
	}
	if err := writeRows(filepath.Join(dir, "files.parquet"), new(fileRow), fileRows(g.Files)); err != nil {
		return fmt.Errorf("write files.parquet: %w", err)
	}
	if err := writeRows(filepath.Join(dir, "definitions.parquet"), new(definitionRow), definitionRows(g.Definitions)); err != nil {
		return fmt.Errorf("write definitions.parquet: %w", err)
	}
	if err := writeRows(filepath.Join(dir, "imports.parquet"), new(importRow), importRows(g.Imports)); err != nil {
		return fmt.Errorf("write imports.parquet: %w", err)
	}
	if err := writeRows(filepath.Join(dir, "edges.parquet"), new(edgeRow), edgeRows(g.Edges)); err != nil {
		return fmt.Errorf("write edges.parquet: %w", err)
	}
	return nil
}

// writeRows drives one parquet file end to end: open, write every row in
// parquetBatchSize-row chunks, flush, close. rows is a slice of pointers to
// the same concrete row type as template.
func writeRows(path string, template any, rows []any) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	defer fw.Close()

	pw, err := writer.NewParquetWriter(fw, template, 4)
	if err != nil {
		return err
	}
	pw.RowGroupSize = 128 * 1024 * 1024
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i, row := range rows {
		if err := pw.Write(row); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		if (i+1)%parquetBatchSize == 0 {
			if err := pw.Flush(true); err != nil {
				return fmt.Errorf("flush at row %d: %w", i, err)
			}
		}
	}
	return pw.WriteStop()
}

func directoryRows(dirs []*graphmodel.Directory) []any {
	rows := make([]any, 0, len(dirs))
	for _, d := range dirs {
		row := directoryRow{ID: d.ID, AbsolutePath: d.AbsPath}
		if d.ParentDirID != "" {
			row.ParentID = &d.ParentDirID
		}
		rows = append(rows, row)
	}
	return rows
}

func fileRows(files []*graphmodel.File) []any {
	rows := make([]any, 0, len(files))
	for _, f := range files {
		rows = append(rows, fileRow{
			ID:          f.ID,
			Path:        f.RepoRelativePath,
			Language:    f.Language,
			ContentHash: f.ContentHash,
			Size:        int64(f.ByteLen),
			ParentDirID: f.ParentDirID,
		})
	}
	return rows
}

func definitionRows(defs []*graphmodel.Definition) []any {
	rows := make([]any, 0, len(defs))
	for _, d := range defs {
		row := definitionRow{
			ID:         d.ID,
			FileID:     d.FileID,
			Kind:       string(d.Kind),
			FQN:        d.FullyQualifiedName,
			SimpleName: d.SimpleName,
			StartByte:  int64(d.ByteRange.Start),
			EndByte:    int64(d.ByteRange.End),
		}
		if d.OwnerDefID != "" {
			row.OwnerID = &d.OwnerDefID
		}
		if d.Signature != "" {
			row.Signature = &d.Signature
		}
		if d.Visibility != "" {
			row.Visibility = &d.Visibility
		}
		rows = append(rows, row)
	}
	return rows
}

func importRows(imports []*graphmodel.Import) []any {
	rows := make([]any, 0, len(imports))
	for _, imp := range imports {
		row := importRow{
			ID:         imp.ID,
			FileID:     imp.FileID,
			RawSpec:    imp.RawSpec,
			IsWildcard: imp.IsWildcard,
		}
		if imp.ResolvedTargetDefID != "" {
			row.ResolvedTargetID = &imp.ResolvedTargetDefID
		}
		if imp.Alias != "" {
			row.Alias = &imp.Alias
		}
		rows = append(rows, row)
	}
	return rows
}

func edgeRows(edges []*graphmodel.Edge) []any {
	rows := make([]any, 0, len(edges))
	for _, e := range edges {
		row := edgeRow{SourceID: e.SourceID, TargetID: e.TargetID, Label: string(e.Label)}
		if e.SourceByteRange != nil {
			start := int64(e.SourceByteRange.Start)
			end := int64(e.SourceByteRange.End)
			row.SourceStartByte = &start
			row.SourceEndByte = &end
		}
		rows = append(rows, row)
	}
	return rows
}
