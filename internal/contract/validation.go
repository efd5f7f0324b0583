// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package contract

import (
	"fmt"

	"github.com/kraklabs/cartograph/pkg/graphmodel"
)

// ValidationResult represents the result of an invariant check.
type ValidationResult struct {
	OK      bool
	Message string
}

func ok() *ValidationResult { return &ValidationResult{OK: true} }

func fail(format string, args ...any) *ValidationResult {
	return &ValidationResult{OK: false, Message: fmt.Sprintf(format, args...)}
}

// ValidateUniqueIDs checks invariant 5: node IDs are collision-free. It
// accepts any number of ID slices (directories, files, definitions, …) and
// reports the first duplicate found across all of them combined, since IDs
// share one namespace in the exported graph.
func ValidateUniqueIDs(idSets ...[]string) *ValidationResult {
	seen := make(map[string]bool)
	for _, ids := range idSets {
		for _, id := range ids {
			if seen[id] {
				return fail("duplicate node ID %q", id)
			}
			seen[id] = true
		}
	}
	return ok()
}

// ValidateContainment checks invariant 4: the containment subgraph
// (Directory → File → Definition → Definition) is a forest. It walks each
// definition's owner chain looking for a cycle, and each directory's parent
// chain likewise.
func ValidateContainment(dirs []*graphmodel.Directory, defs []*graphmodel.Definition) *ValidationResult {
	dirParent := make(map[string]string, len(dirs))
	for _, d := range dirs {
		dirParent[d.ID] = d.ParentDirID
	}
	for _, d := range dirs {
		if res := walkNoCycle(d.ID, dirParent); !res.OK {
			return res
		}
	}

	defOwner := make(map[string]string, len(defs))
	for _, d := range defs {
		defOwner[d.ID] = d.OwnerDefID
	}
	for _, d := range defs {
		if res := walkNoCycle(d.ID, defOwner); !res.OK {
			return res
		}
	}
	return ok()
}

func walkNoCycle(start string, parentOf map[string]string) *ValidationResult {
	visited := map[string]bool{start: true}
	cur := parentOf[start]
	for cur != "" {
		if visited[cur] {
			return fail("containment cycle detected reaching %q", cur)
		}
		visited[cur] = true
		cur = parentOf[cur]
	}
	return ok()
}

// ValidateResolvedReference checks invariant 3: a resolved reference's
// target Definition exists in the project's node set and shares the
// reference's language.
func ValidateResolvedReference(edge *graphmodel.Edge, defByID map[string]*graphmodel.Definition, fileLanguage map[string]string, refFileID string) *ValidationResult {
	target, exists := defByID[edge.TargetID]
	if !exists {
		return fail("resolved edge %s->%s targets an unknown definition", edge.SourceID, edge.TargetID)
	}
	if fileLanguage[target.FileID] != fileLanguage[refFileID] {
		return fail("resolved edge %s->%s crosses language boundary", edge.SourceID, edge.TargetID)
	}
	return ok()
}

// ValidateImportSuffix checks invariant 4 (import resolution): a resolved
// import's target FQN is a suffix match of (or equal to) the import's
// segment list.
func ValidateImportSuffix(segments []string, targetFQN string) *ValidationResult {
	fqnSegments := splitFQN(targetFQN)
	if len(segments) > len(fqnSegments) {
		return fail("import segments %v longer than target FQN %q", segments, targetFQN)
	}
	offset := len(fqnSegments) - len(segments)
	for i, seg := range segments {
		if fqnSegments[offset+i] != seg {
			return fail("import segments %v are not a suffix of target FQN %q", segments, targetFQN)
		}
	}
	return ok()
}

func splitFQN(fqn string) []string {
	var out []string
	start := 0
	for i := 0; i < len(fqn); i++ {
		if fqn[i] == '.' {
			out = append(out, fqn[start:i])
			start = i + 1
		}
	}
	out = append(out, fqn[start:])
	return out
}
