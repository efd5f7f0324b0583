// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package resolve

import "github.com/kraklabs/cartograph/pkg/graphmodel"

// resolveImports is Pass 1: map each Import's raw_spec to a Definition ID
// in the same language, recording either a wildcard container binding or
// an alias binding into the file's name table.
func (r *Resolver) resolveImports(stats *Stats) {
	for _, imp := range r.g.Imports {
		language := r.g.Language(imp.FileID)
		segs := importSegments(imp.RawSpec)
		if len(segs) == 0 {
			stats.ImportsExternal++
			continue
		}

		cluster := lookupFQNPath(r.g, language, segs)
		if cluster == nil || len(cluster.Members) == 0 {
			stats.ImportsExternal++
			r.g.AddDiagnostic(graphmodel.Diagnostic{
				Severity:  graphmodel.SeverityInfo,
				File:      r.g.FilePath(imp.FileID),
				ByteRange: &imp.ByteRange,
				Kind:      "import_external",
				Message:   "import " + imp.RawSpec + " does not match an in-project definition",
			})
			continue
		}

		target := pickRepresentative(r.g, cluster.Members, "")
		imp.ResolvedTargetDefID = target.ID
		stats.ImportsResolved++

		if imp.IsWildcard && target.Kind.IsContainer() {
			r.wildcardBindings[imp.FileID] = append(r.wildcardBindings[imp.FileID], target.ID)
		} else {
			localName := imp.Alias
			if localName == "" {
				localName = segs[len(segs)-1]
			}
			if r.aliasBindings[imp.FileID] == nil {
				r.aliasBindings[imp.FileID] = make(map[string]string)
			}
			r.aliasBindings[imp.FileID][localName] = target.ID
		}

		r.g.AddEdge(&graphmodel.Edge{
			SourceID:        imp.FileID,
			TargetID:        target.ID,
			Label:           graphmodel.EdgeImports,
			SourceByteRange: &imp.ByteRange,
		})
	}
}
