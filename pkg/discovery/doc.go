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

// Package discovery finds Projects under a workspace root and, for each
// project, enumerates candidate source files honoring ignore rules, an
// extension allow-list, a max-file-size cap and a binary-file sniff.
//
// A Project is a directory containing a version-control marker (a .git
// subdirectory), or the workspace root itself when it carries one. Within
// a project's working tree, file discovery prefers `git ls-files` when the
// git binary and a repository are available, falling back to a plain
// filesystem walk otherwise.
package discovery
