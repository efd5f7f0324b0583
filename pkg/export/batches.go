// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"github.com/kraklabs/cartograph/pkg/graphbuild"
	"github.com/kraklabs/cartograph/pkg/graphdb"
)

// BuildBatches converts a project graph into the graphdb.Batch set spec
// §4.E's bulk_load consumes, in write order: nodes before edges.
func BuildBatches(g *graphbuild.Graph) []graphdb.Batch {
	return []graphdb.Batch{
		{Relation: "directories", Key: []string{"id"}, Rows: toRows(directoryRows(g.Directories))},
		{Relation: "files", Key: []string{"id"}, Rows: toRows(fileRows(g.Files))},
		{Relation: "definitions", Key: []string{"id"}, Rows: toRows(definitionRows(g.Definitions))},
		{Relation: "imports", Key: []string{"id"}, Rows: toRows(importRows(g.Imports))},
		{Relation: "edges", Key: []string{"source_id", "target_id", "label"}, Rows: toRows(edgeRows(g.Edges))},
	}
}

// toRows converts the parquet-tagged row structs this package writes to
// disk into the generic graphdb.Row maps bulk_load accepts, so the same
// extraction pass feeds both the persisted parquet snapshot and the live
// database without re-parsing what was just written.
func toRows(structs []any) []graphdb.Row {
	rows := make([]graphdb.Row, 0, len(structs))
	for _, s := range structs {
		switch v := s.(type) {
		case directoryRow:
			rows = append(rows, graphdb.Row{"id": v.ID, "absolute_path": v.AbsolutePath, "parent_id": derefStr(v.ParentID)})
		case fileRow:
			rows = append(rows, graphdb.Row{
				"id": v.ID, "path": v.Path, "language": v.Language,
				"content_hash": v.ContentHash, "size": v.Size, "parent_dir_id": v.ParentDirID,
			})
		case definitionRow:
			rows = append(rows, graphdb.Row{
				"id": v.ID, "file_id": v.FileID, "owner_id": derefStr(v.OwnerID),
				"kind": v.Kind, "fqn": v.FQN, "simple_name": v.SimpleName,
				"start_byte": v.StartByte, "end_byte": v.EndByte,
				"signature": derefStr(v.Signature), "visibility": derefStr(v.Visibility),
			})
		case importRow:
			rows = append(rows, graphdb.Row{
				"id": v.ID, "file_id": v.FileID, "raw_spec": v.RawSpec,
				"resolved_target_id": derefStr(v.ResolvedTargetID), "alias": derefStr(v.Alias),
				"is_wildcard": v.IsWildcard,
			})
		case edgeRow:
			row := graphdb.Row{"source_id": v.SourceID, "target_id": v.TargetID, "label": v.Label}
			if v.SourceStartByte != nil {
				row["source_start_byte"] = *v.SourceStartByte
				row["source_end_byte"] = *v.SourceEndByte
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func derefStr(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
