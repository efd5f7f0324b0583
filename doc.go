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

// Package cartograph builds a structured, queryable knowledge graph of a
// source-code workspace: files, directories and symbolic entities linked by
// contains/defines/imports/references/inherits/calls relationships.
//
// The package exposes two entry points: IndexProject runs the full pipeline
// (discovery, parse, graph assembly, reference resolution, export) over a
// single version-controlled repository, and IndexWorkspace runs it over
// every repository found under a workspace root. Both publish progress to an
// *eventbus.Bus and persist a project's graph as a database file plus a
// parquet_files/ columnar export under a configured data root.
//
// Everything outside these two operations (the HTTP/SSE server, the MCP
// adapter, a desktop or CLI front-end, the file watcher, workspace-manager
// persistence, packaging) is an external collaborator, not part of this
// module.
package cartograph
