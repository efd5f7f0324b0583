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

// Package contract validates the data-model invariants the graph builder
// and resolver must uphold: unique node IDs, an acyclic containment forest,
// and resolved references that point at a same-language, in-project target.
//
// A violation here is treated as a bug rather than an expected runtime
// condition: callers should emit a critical diagnostic and abort the
// project (per the error handling design), not attempt to repair the graph.
//
//	result := contract.ValidateContainment(directories, defs)
//	if !result.OK {
//	    log.Printf("invariant violation: %s", result.Message)
//	}
package contract
