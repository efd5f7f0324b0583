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

package graphmodel

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
)

// DirectoryID generates a deterministic directory ID from its absolute path.
func DirectoryID(absPath string) string {
	return hashID("dir", normalizePath(absPath))
}

// FileID generates a deterministic file ID from its repo-relative path.
// Strategy: use the normalized path directly when short enough, otherwise
// hash it so IDs remain a bounded size regardless of path length.
func FileID(repoRelativePath string) string {
	normalized := normalizePath(repoRelativePath)
	if len(normalized) <= 256 {
		return fmt.Sprintf("file:%s", normalized)
	}
	hash := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("file:%s", hex.EncodeToString(hash[:16]))
}

// DefinitionID generates a deterministic ID for a Definition as a function
// of (kind, file_id, byte_range, simple_name), per the stable-ID invariant.
// Signature is deliberately excluded so IDs stay stable across extractor
// refinements that only change signature text, not source location.
func DefinitionID(kind, fileID, simpleName string, startByte, endByte int) string {
	idStr := fmt.Sprintf("%s|%s|%s|%d|%d", kind, fileID, simpleName, startByte, endByte)
	return hashID("def", idStr)
}

// ImportID generates a deterministic ID for an Import occurrence.
func ImportID(fileID, rawSpec string, startByte, endByte int) string {
	idStr := fmt.Sprintf("%s|%s|%d|%d", fileID, rawSpec, startByte, endByte)
	return hashID("import", idStr)
}

// ReferenceID generates a deterministic ID for an unresolved Reference
// occurrence, used only internally by the resolver before it is replaced
// by an edge or dropped.
func ReferenceID(fileID string, namePath []string, startByte, endByte int) string {
	idStr := fmt.Sprintf("%s|%v|%d|%d", fileID, namePath, startByte, endByte)
	return hashID("ref", idStr)
}

func hashID(prefix, input string) string {
	hash := sha256.Sum256([]byte(input))
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// normalizePath normalizes a file path for consistent, cross-platform ID
// generation: strips a leading "./", cleans redundant separators, forces
// forward slashes, and drops a leading slash so absolute and relative
// spellings of the same path hash identically.
func normalizePath(path string) string {
	if len(path) >= 2 && path[0:2] == "./" {
		path = path[2:]
	}
	path = filepath.Clean(path)
	path = filepath.ToSlash(path)
	if len(path) > 0 && path[0] == '/' {
		path = path[1:]
	}
	return path
}
