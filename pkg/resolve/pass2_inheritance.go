// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"strings"

	"github.com/kraklabs/cartograph/pkg/graphmodel"
)

var inheritableKinds = map[graphmodel.DefinitionKind]bool{
	graphmodel.KindClass:     true,
	graphmodel.KindStruct:    true,
	graphmodel.KindInterface: true,
	graphmodel.KindTrait:     true,
	graphmodel.KindEnum:      true,
}

// resolveInheritance is Pass 2: resolve each class/struct/interface/
// trait/enum's parent and implemented-interface names against its file's
// name table, emitting INHERITS/IMPLEMENTS edges and recording the resolved
// parent chain (declared order, INHERITS first) for Pass 3's member walk.
func (r *Resolver) resolveInheritance(stats *Stats) {
	for _, def := range r.g.Definitions {
		if !inheritableKinds[def.Kind] {
			continue
		}

		for _, name := range def.ParentNames {
			if parent := r.resolveFileScopedName(def.FileID, name); parent != nil {
				r.parentChains[def.ID] = append(r.parentChains[def.ID], parent.ID)
				r.g.AddEdge(&graphmodel.Edge{SourceID: def.ID, TargetID: parent.ID, Label: graphmodel.EdgeInherits})
				stats.InheritsResolved++
			}
		}
		for _, name := range def.ImplementsNames {
			if parent := r.resolveFileScopedName(def.FileID, name); parent != nil {
				r.parentChains[def.ID] = append(r.parentChains[def.ID], parent.ID)
				r.g.AddEdge(&graphmodel.Edge{SourceID: def.ID, TargetID: parent.ID, Label: graphmodel.EdgeImplements})
				stats.ImplementsResolved++
			}
		}
	}
}

// resolveFileScopedName resolves a (possibly dotted) parent/implements
// clause name against fileID's file-level name table.
func (r *Resolver) resolveFileScopedName(fileID, name string) *graphmodel.Definition {
	segs := splitDotted(name)
	if len(segs) == 0 {
		return nil
	}
	head := r.fileNameTable(fileID, segs[0])
	if head == nil {
		return nil
	}
	if len(segs) == 1 {
		return head
	}
	return r.memberWalk(head, segs[1:], fileID)
}

func splitDotted(s string) []string {
	var segs []string
	for _, part := range strings.Split(s, ".") {
		if part != "" {
			segs = append(segs, part)
		}
	}
	return segs
}
