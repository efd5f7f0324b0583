// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package resolve

import "github.com/kraklabs/cartograph/pkg/graphmodel"

// childNamed returns the child of ownerID whose simple_name matches name,
// tie-broken toward contextFileID and then lexical order when the owner has
// more than one child with that name (legal for overloaded members in some
// languages; this resolver does not distinguish overloads by arity).
func (r *Resolver) childNamed(ownerID, name, contextFileID string) *graphmodel.Definition {
	var matches []*graphmodel.Definition
	for _, c := range r.g.Children(ownerID) {
		if c.SimpleName == name {
			matches = append(matches, c)
		}
	}
	if len(matches) == 0 {
		return nil
	}
	return pickRepresentative(r.g, matches, contextFileID)
}

// topLevelNamed returns the owner-less definition declared directly in
// fileID whose simple_name matches name.
func (r *Resolver) topLevelNamed(fileID, name, contextFileID string) *graphmodel.Definition {
	var matches []*graphmodel.Definition
	for _, d := range r.g.TopLevel(fileID) {
		if d.SimpleName == name {
			matches = append(matches, d)
		}
	}
	if len(matches) == 0 {
		return nil
	}
	return pickRepresentative(r.g, matches, contextFileID)
}

// fileNameTable resolves name against fileID's file-level name table: local
// top-level definitions, then Pass 1 alias bindings, then Pass 1
// wildcard-imported containers' immediate children, then (lowest priority)
// same-language top-level definitions anywhere in the project. That last
// step is the fallback that makes same-package/same-package-less
// visibility work (Go files sharing a package, Java's default package)
// without an import.
func (r *Resolver) fileNameTable(fileID, name string) *graphmodel.Definition {
	if d := r.topLevelNamed(fileID, name, fileID); d != nil {
		return d
	}
	if aliasID, ok := r.aliasBindings[fileID][name]; ok {
		if d := r.g.Definition(aliasID); d != nil {
			return d
		}
	}
	for _, containerID := range r.wildcardBindings[fileID] {
		if d := r.childNamed(containerID, name, fileID); d != nil {
			return d
		}
	}
	if matches := r.g.TopLevelByName(r.g.Language(fileID), name); len(matches) > 0 {
		return pickRepresentative(r.g, matches, fileID)
	}
	return nil
}

// parentChainBFS searches the transitive INHERITS/IMPLEMENTS chain of
// startID breadth-first, left-to-right as declared, for a child named name.
func (r *Resolver) parentChainBFS(startID, name, contextFileID string) *graphmodel.Definition {
	visited := map[string]bool{startID: true}
	queue := append([]string{}, r.parentChains[startID]...)
	for len(queue) > 0 {
		parentID := queue[0]
		queue = queue[1:]
		if visited[parentID] {
			continue
		}
		visited[parentID] = true

		if d := r.childNamed(parentID, name, contextFileID); d != nil {
			return d
		}
		queue = append(queue, r.parentChains[parentID]...)
	}
	return nil
}

// memberWalk resolves the remaining dotted segments of a name_path starting
// from current, extending the search into current's resolved parent chain
// when a segment isn't found among its own children (spec §4.D Pass 3 step
// 3). Returns nil if any segment is unresolvable.
func (r *Resolver) memberWalk(current *graphmodel.Definition, segs []string, contextFileID string) *graphmodel.Definition {
	for _, seg := range segs {
		if d := r.childNamed(current.ID, seg, contextFileID); d != nil {
			current = d
			continue
		}
		if d := r.parentChainBFS(current.ID, seg, contextFileID); d != nil {
			current = d
			continue
		}
		return nil
	}
	return current
}

// scopeChain returns the enclosing-definition chain starting at enclosingID
// and walking owner_def_id pointers outward (innermost first). It stops at
// the first definition with no owner (the file-scoped root).
func (r *Resolver) scopeChain(enclosingID string) []*graphmodel.Definition {
	var chain []*graphmodel.Definition
	seen := map[string]bool{}
	id := enclosingID
	for id != "" && !seen[id] {
		seen[id] = true
		def := r.g.Definition(id)
		if def == nil {
			break
		}
		chain = append(chain, def)
		id = def.OwnerDefID
	}
	return chain
}
