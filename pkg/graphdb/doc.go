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
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package graphdb is the graph database collaborator spec §6 describes:
// open(path), bulk_load(schema, columnar_batches) -> result, commit(),
// close(). It keeps one relation per entity type (directories, files,
// definitions, imports, edges), bulk loads are idempotent keyed on node ID
// (or, for edges, the (source_id, target_id, label) triple), and a commit
// is a single atomic write of the whole project's relation set to
// database.kz.
//
// # Engine
//
// This package persists to a single project-local file rather than binding
// a standalone graph database server or CGO library, see DESIGN.md for why
// a CozoDB-shaped engine has the same four-verb contract without depending
// on a C library this environment cannot build. Swapping in a real
// Datalog-backed engine later is a change behind this package's DB
// type; nothing upstream of graphdb depends on the storage format.
package graphdb
