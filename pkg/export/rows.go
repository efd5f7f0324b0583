// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

// Package export serializes a resolved project graph into the columnar
// batches spec §4.E/§6 persist to disk: one parquet file per entity type,
// written in the fixed schema and order (nodes before edges) the graph DB
// collaborator then bulk-loads from.
package export

// directoryRow mirrors spec §4.E's directories(id, absolute_path, parent_id?).
type directoryRow struct {
	ID          string  `parquet:"name=id, type=BYTE_ARRAY, convertedtype=UTF8"`
	AbsolutePath string `parquet:"name=absolute_path, type=BYTE_ARRAY, convertedtype=UTF8"`
	ParentID    *string `parquet:"name=parent_id, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
}

// fileRow mirrors files(id, path, language, content_hash, size, parent_dir_id).
type fileRow struct {
	ID          string `parquet:"name=id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Path        string `parquet:"name=path, type=BYTE_ARRAY, convertedtype=UTF8"`
	Language    string `parquet:"name=language, type=BYTE_ARRAY, convertedtype=UTF8"`
	ContentHash string `parquet:"name=content_hash, type=BYTE_ARRAY, convertedtype=UTF8"`
	Size        int64  `parquet:"name=size, type=INT64"`
	ParentDirID string `parquet:"name=parent_dir_id, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// definitionRow mirrors definitions(id, file_id, owner_id?, kind, fqn,
// simple_name, start_byte, end_byte, signature?, visibility?).
type definitionRow struct {
	ID         string  `parquet:"name=id, type=BYTE_ARRAY, convertedtype=UTF8"`
	FileID     string  `parquet:"name=file_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	OwnerID    *string `parquet:"name=owner_id, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Kind       string  `parquet:"name=kind, type=BYTE_ARRAY, convertedtype=UTF8"`
	FQN        string  `parquet:"name=fqn, type=BYTE_ARRAY, convertedtype=UTF8"`
	SimpleName string  `parquet:"name=simple_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	StartByte  int64   `parquet:"name=start_byte, type=INT64"`
	EndByte    int64   `parquet:"name=end_byte, type=INT64"`
	Signature  *string `parquet:"name=signature, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Visibility *string `parquet:"name=visibility, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
}

// importRow mirrors imports(id, file_id, raw_spec, resolved_target_id?,
// alias?, is_wildcard).
type importRow struct {
	ID               string  `parquet:"name=id, type=BYTE_ARRAY, convertedtype=UTF8"`
	FileID           string  `parquet:"name=file_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	RawSpec          string  `parquet:"name=raw_spec, type=BYTE_ARRAY, convertedtype=UTF8"`
	ResolvedTargetID *string `parquet:"name=resolved_target_id, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Alias            *string `parquet:"name=alias, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	IsWildcard       bool    `parquet:"name=is_wildcard, type=BOOLEAN"`
}

// edgeRow mirrors edges(source_id, target_id, label, source_start_byte?,
// source_end_byte?).
type edgeRow struct {
	SourceID        string `parquet:"name=source_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	TargetID        string `parquet:"name=target_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Label           string `parquet:"name=label, type=BYTE_ARRAY, convertedtype=UTF8"`
	SourceStartByte *int64 `parquet:"name=source_start_byte, type=INT64, repetitiontype=OPTIONAL"`
	SourceEndByte   *int64 `parquet:"name=source_end_byte, type=INT64, repetitiontype=OPTIONAL"`
}
