// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package resolve turns unresolved Imports and References in a project
// graph into edges, in three ordered passes: imports, then
// inheritance/implements, then a reference fixed point. Each pass only
// adds information and never retracts an earlier one's output.
package resolve

import (
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/kraklabs/cartograph/pkg/graphbuild"
	"github.com/kraklabs/cartograph/pkg/graphmodel"
)

// Stats summarizes one project's resolution run.
type Stats struct {
	ImportsResolved      int
	ImportsExternal      int
	InheritsResolved     int
	ImplementsResolved   int
	ReferencesResolved   int
	ReferencesDropped    int
	ResolverPanics       int
}

// Resolver runs the three passes over a single project's Graph. It is not
// safe for concurrent use against the same Graph; the scheduler owns
// cross-project parallelism, not this package.
type Resolver struct {
	g *graphbuild.Graph

	// aliasBindings: file_id -> local_name -> target definition id.
	aliasBindings map[string]map[string]string
	// wildcardBindings: file_id -> list of container definition ids whose
	// immediate children are bound into that file's name table.
	wildcardBindings map[string][]string
	// parentChains: definition_id -> resolved parent/implemented definition
	// ids, in declared order (INHERITS entries first, then IMPLEMENTS).
	parentChains map[string][]string
}

// New returns a Resolver bound to g.
func New(g *graphbuild.Graph) *Resolver {
	return &Resolver{
		g:                g,
		aliasBindings:    make(map[string]map[string]string),
		wildcardBindings: make(map[string][]string),
		parentChains:     make(map[string][]string),
	}
}

// Resolve runs all three passes to completion and returns summary stats.
// Diagnostics for dropped references and external imports are recorded
// directly on the Graph. The returned error aggregates any per-reference
// resolver panics (genuine implementation bugs); it never reflects ordinary
// unresolved references, which are soft failures tracked in Stats instead.
func (r *Resolver) Resolve() (Stats, error) {
	var stats Stats

	r.resolveImports(&stats)
	r.resolveInheritance(&stats)
	panics := r.resolveReferences(&stats)

	return stats, panics.ErrorOrNil()
}

// importSegments splits an import's raw_spec into name_path segments. Most
// languages use dotted specs ("mod.util", "com.example.Foo"); Go uses
// slash-separated import paths, so slash is the fallback separator.
func importSegments(rawSpec string) []string {
	sep := "."
	if !strings.Contains(rawSpec, ".") && strings.Contains(rawSpec, "/") {
		sep = "/"
	}
	var segs []string
	for _, s := range strings.Split(rawSpec, sep) {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// lookupFQNPath resolves segs against language's by-FQN index, preferring
// an exact match and falling back to the longest matching prefix that
// lands on a definition (spec §4.D Pass 1 step 2).
func lookupFQNPath(g *graphbuild.Graph, language string, segs []string) *graphmodel.DefinitionCluster {
	for n := len(segs); n > 0; n-- {
		fqn := strings.Join(segs[:n], ".")
		if c := g.Cluster(language, fqn); c != nil {
			return c
		}
	}
	return nil
}

// pickRepresentative applies the tie-break rule to a cluster with more than
// one member: prefer the member in contextFileID (if any), else the
// lexically earliest by (file path, byte offset).
func pickRepresentative(g *graphbuild.Graph, members []*graphmodel.Definition, contextFileID string) *graphmodel.Definition {
	if len(members) == 1 {
		return members[0]
	}
	best := members[0]
	bestPath := g.FilePath(best.FileID)
	for _, m := range members[1:] {
		mPath := g.FilePath(m.FileID)
		switch {
		case contextFileID != "" && m.FileID == contextFileID && best.FileID != contextFileID:
			best, bestPath = m, mPath
		case contextFileID != "" && best.FileID == contextFileID:
			// keep best: it's already the same-file match
		case mPath < bestPath:
			best, bestPath = m, mPath
		case mPath == bestPath && m.ByteRange.Start < best.ByteRange.Start:
			best, bestPath = m, mPath
		}
	}
	return best
}
