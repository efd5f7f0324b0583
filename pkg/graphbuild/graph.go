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

// Package graphbuild aggregates per-file extractor output into a single
// project-scoped property graph: a by-FQN index of definition clusters, a
// by-file ownership forest, and the CONTAINS edge set linking directories,
// files and definitions. The graph it produces is structurally complete but
// semantically unlinked (imports and references still name things, not IDs),
// which is exactly the boundary the resolver package picks up from.
package graphbuild

import (
	"fmt"
	"sort"

	"github.com/kraklabs/cartograph/pkg/graphmodel"
	"github.com/kraklabs/cartograph/pkg/langsupport"
)

// Graph holds one project's aggregated entities and indexes.
type Graph struct {
	Directories []*graphmodel.Directory
	Files       []*graphmodel.File
	Definitions []*graphmodel.Definition
	Imports     []*graphmodel.Import
	References  []*graphmodel.Reference
	Edges       []*graphmodel.Edge
	Diagnostics []graphmodel.Diagnostic

	// byFQN indexes definition clusters per language: language -> fqn -> cluster.
	byFQN map[string]map[string]*graphmodel.DefinitionCluster

	byDefID     map[string]*graphmodel.Definition
	byFileID    map[string]*graphmodel.File
	byFileLang  map[string]string                    // file_id -> language
	topLevel    map[string][]*graphmodel.Definition // file_id -> owner-less definitions
	ownedByDef  map[string][]*graphmodel.Definition // owner_def_id -> children
	dirByPath   map[string]*graphmodel.Directory
	seenFileIDs map[string]bool
}

// NewGraph returns an empty project graph.
func NewGraph() *Graph {
	return &Graph{
		byFQN:       make(map[string]map[string]*graphmodel.DefinitionCluster),
		byDefID:     make(map[string]*graphmodel.Definition),
		byFileID:    make(map[string]*graphmodel.File),
		byFileLang:  make(map[string]string),
		topLevel:    make(map[string][]*graphmodel.Definition),
		ownedByDef:  make(map[string][]*graphmodel.Definition),
		dirByPath:   make(map[string]*graphmodel.Directory),
		seenFileIDs: make(map[string]bool),
	}
}

// AddDirectory registers a Directory, skipping ones already seen by ID.
func (g *Graph) AddDirectory(dir *graphmodel.Directory) {
	if _, ok := g.dirByPath[dir.ID]; ok {
		return
	}
	g.dirByPath[dir.ID] = dir
	g.Directories = append(g.Directories, dir)
}

// AddFile registers a File entity discovered by Workspace Discovery.
func (g *Graph) AddFile(file *graphmodel.File) error {
	if g.seenFileIDs[file.ID] {
		return fmt.Errorf("duplicate file id %s (%s)", file.ID, file.RepoRelativePath)
	}
	g.seenFileIDs[file.ID] = true
	g.Files = append(g.Files, file)
	g.byFileID[file.ID] = file
	g.byFileLang[file.ID] = file.Language
	return nil
}

// AddExtraction merges one file's ExtractorOutput into the graph: indexes
// its definitions into clusters and ownership maps, and appends its raw
// imports/references to the pending buffers the resolver consumes.
func (g *Graph) AddExtraction(file *graphmodel.File, out *langsupport.ExtractorOutput) error {
	for _, def := range out.Definitions {
		if existing, ok := g.byDefID[def.ID]; ok {
			return fmt.Errorf("duplicate definition id %s (%s and %s)", def.ID, existing.FullyQualifiedName, def.FullyQualifiedName)
		}
		g.byDefID[def.ID] = def
		g.Definitions = append(g.Definitions, def)

		if def.OwnerDefID == "" {
			g.topLevel[file.ID] = append(g.topLevel[file.ID], def)
		} else {
			g.ownedByDef[def.OwnerDefID] = append(g.ownedByDef[def.OwnerDefID], def)
		}

		g.cluster(file.Language, def.FullyQualifiedName).Add(def)
	}

	g.Imports = append(g.Imports, out.Imports...)
	g.References = append(g.References, out.References...)
	return nil
}

// cluster returns (creating if necessary) the definition cluster for
// (language, fqn). Clusters are how re-opened modules and partial classes
// (several Definitions sharing one fully_qualified_name) stay discoverable
// as a single name-lookup target.
func (g *Graph) cluster(language, fqn string) *graphmodel.DefinitionCluster {
	byFQN, ok := g.byFQN[language]
	if !ok {
		byFQN = make(map[string]*graphmodel.DefinitionCluster)
		g.byFQN[language] = byFQN
	}
	c, ok := byFQN[fqn]
	if !ok {
		c = &graphmodel.DefinitionCluster{FullyQualifiedName: fqn, Language: language}
		byFQN[fqn] = c
	}
	return c
}

// Cluster looks up the definition cluster for fqn within language, or nil
// if nothing was defined under that name.
func (g *Graph) Cluster(language, fqn string) *graphmodel.DefinitionCluster {
	byFQN, ok := g.byFQN[language]
	if !ok {
		return nil
	}
	return byFQN[fqn]
}

// Language returns the language a file was parsed as.
func (g *Graph) Language(fileID string) string {
	return g.byFileLang[fileID]
}

// FilePath returns the repo-relative path of fileID, for diagnostics.
func (g *Graph) FilePath(fileID string) string {
	if f, ok := g.byFileID[fileID]; ok {
		return f.RepoRelativePath
	}
	return ""
}

// File looks up a File entity by ID.
func (g *Graph) File(fileID string) *graphmodel.File {
	return g.byFileID[fileID]
}

// Definition looks up a Definition by ID.
func (g *Graph) Definition(id string) *graphmodel.Definition {
	return g.byDefID[id]
}

// Children returns the definitions directly owned by ownerID (empty for
// file-scoped top-level definitions, use TopLevel for those).
func (g *Graph) Children(ownerID string) []*graphmodel.Definition {
	return g.ownedByDef[ownerID]
}

// TopLevelByName returns every owner-less definition across the project,
// in language, whose simple_name matches name. This backs same-package
// visibility (Go files in one package, Java's default package) where a
// top-level symbol is reachable from another file without an import: this
// is the project-wide fallback frame beneath a file's own name table.
func (g *Graph) TopLevelByName(language, name string) []*graphmodel.Definition {
	var matches []*graphmodel.Definition
	for fileID, defs := range g.topLevel {
		if g.byFileLang[fileID] != language {
			continue
		}
		for _, d := range defs {
			if d.SimpleName == name {
				matches = append(matches, d)
			}
		}
	}
	return matches
}

// TopLevel returns the owner-less definitions declared directly in fileID.
func (g *Graph) TopLevel(fileID string) []*graphmodel.Definition {
	return g.topLevel[fileID]
}

// AddDiagnostic records a non-fatal diagnostic against the project.
func (g *Graph) AddDiagnostic(d graphmodel.Diagnostic) {
	g.Diagnostics = append(g.Diagnostics, d)
}

// AddEdge appends a resolved edge. Resolver passes are the only callers;
// the graph itself never infers edges.
func (g *Graph) AddEdge(e *graphmodel.Edge) {
	g.Edges = append(g.Edges, e)
}

// FinalizeContainment builds the CONTAINS edge set: Directory->Directory
// (parent chains), Directory->File, File->top-level Definition, and
// Definition->child Definition. Every call appends a fresh set of edges, so
// a second call duplicates them; runProject calls it once, after all files
// have been added and extracted, before the resolver runs.
func (g *Graph) FinalizeContainment() {
	for _, dir := range g.Directories {
		if dir.ParentDirID == "" {
			continue
		}
		g.Edges = append(g.Edges, &graphmodel.Edge{
			SourceID: dir.ParentDirID,
			TargetID: dir.ID,
			Label:    graphmodel.EdgeContains,
		})
	}
	for _, file := range g.Files {
		if file.ParentDirID == "" {
			continue
		}
		g.Edges = append(g.Edges, &graphmodel.Edge{
			SourceID: file.ParentDirID,
			TargetID: file.ID,
			Label:    graphmodel.EdgeContains,
		})
	}
	for _, def := range g.Definitions {
		source := def.OwnerDefID
		if source == "" {
			source = def.FileID
		}
		g.Edges = append(g.Edges, &graphmodel.Edge{
			SourceID:        source,
			TargetID:        def.ID,
			Label:           graphmodel.EdgeContains,
			SourceByteRange: &def.ByteRange,
		})
	}
}

// SortDeterministic orders Directories, Files, Definitions and Edges by a
// stable key (the other slices keep their insertion order) so two runs over
// identical input byte-for-byte produce identical output ordering, the
// extractor contract's determinism guarantee, carried through aggregation.
func (g *Graph) SortDeterministic() {
	sort.Slice(g.Directories, func(i, j int) bool { return g.Directories[i].ID < g.Directories[j].ID })
	sort.Slice(g.Files, func(i, j int) bool { return g.Files[i].RepoRelativePath < g.Files[j].RepoRelativePath })
	sort.Slice(g.Definitions, func(i, j int) bool {
		a, b := g.Definitions[i], g.Definitions[j]
		if a.FileID != b.FileID {
			return a.FileID < b.FileID
		}
		return a.ByteRange.Start < b.ByteRange.Start
	})
	sort.Slice(g.Edges, func(i, j int) bool {
		a, b := g.Edges[i], g.Edges[j]
		if a.SourceID != b.SourceID {
			return a.SourceID < b.SourceID
		}
		if a.TargetID != b.TargetID {
			return a.TargetID < b.TargetID
		}
		return a.Label < b.Label
	})
}
