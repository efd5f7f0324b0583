// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/kraklabs/cartograph/pkg/graphmodel"
)

// resolveReferences is Pass 3: a fixed-point walk over pending References.
// The alias/wildcard bindings and parent chains built in Passes 1-2 are
// static by the time this runs (this module does not model transitive
// import chains), so a single iteration already reaches the fixed point,
// the degenerate case spec §4.D explicitly allows.
func (r *Resolver) resolveReferences(stats *Stats) *multierror.Error {
	var panics *multierror.Error

	for _, ref := range r.g.References {
		edge, diag, panicErr := r.resolveReferenceSafe(ref)
		switch {
		case panicErr != nil:
			stats.ResolverPanics++
			panics = multierror.Append(panics, panicErr)
			r.g.AddDiagnostic(graphmodel.Diagnostic{
				Severity:  graphmodel.SeverityError,
				File:      r.g.FilePath(ref.FileID),
				ByteRange: &ref.ByteRange,
				Kind:      "resolver_panic",
				Message:   panicErr.Error(),
			})
		case edge != nil:
			r.g.AddEdge(edge)
			stats.ReferencesResolved++
		default:
			stats.ReferencesDropped++
			r.g.AddDiagnostic(*diag)
		}
	}
	return panics
}

// resolveReferenceSafe isolates a panic in a single Reference's resolution
// so it cannot abort the fixed point for the rest of the project.
func (r *Resolver) resolveReferenceSafe(ref *graphmodel.Reference) (edge *graphmodel.Edge, diag *graphmodel.Diagnostic, panicErr error) {
	defer func() {
		if rec := recover(); rec != nil {
			panicErr = fmt.Errorf("resolving reference %s: %v", ref.ID, rec)
		}
	}()
	edge, diag = r.resolveReference(ref)
	return edge, diag, nil
}

func (r *Resolver) resolveReference(ref *graphmodel.Reference) (*graphmodel.Edge, *graphmodel.Diagnostic) {
	if len(ref.NamePath) == 0 {
		return nil, &graphmodel.Diagnostic{
			Severity: graphmodel.SeverityWarning,
			File:     r.g.FilePath(ref.FileID),
			Kind:     "reference_empty_path",
			Message:  "reference has an empty name_path",
		}
	}

	var resolved *graphmodel.Definition
	head := ref.NamePath[0]

	if head == "super" && len(ref.NamePath) >= 2 {
		resolved = r.resolveSuperReference(ref)
	} else {
		resolved = r.headLookup(ref.FileID, ref.EnclosingDefID, head)
		if resolved != nil && len(ref.NamePath) > 1 {
			resolved = r.memberWalk(resolved, ref.NamePath[1:], ref.FileID)
		}
	}

	if resolved == nil {
		return nil, &graphmodel.Diagnostic{
			Severity:  graphmodel.SeverityInfo,
			File:      r.g.FilePath(ref.FileID),
			ByteRange: &ref.ByteRange,
			Kind:      "reference_unresolved",
			Message:   "could not resolve " + strings.Join(ref.NamePath, "."),
		}
	}

	label := graphmodel.EdgeReferences
	if ref.KindHint == graphmodel.RefCall && resolved.Kind.IsCallable() {
		label = graphmodel.EdgeCalls
	}

	source := ref.EnclosingDefID
	if source == "" {
		source = ref.FileID
	}
	return &graphmodel.Edge{
		SourceID:        source,
		TargetID:        resolved.ID,
		Label:           label,
		SourceByteRange: &ref.ByteRange,
	}, nil
}

// resolveSuperReference handles super.method()-shaped references: spec
// §4.D step 5 says to consult the enclosing class's parent chain directly,
// skipping the class's own members (a plain head lookup would otherwise
// find the overriding method, the wrong target for a super call).
func (r *Resolver) resolveSuperReference(ref *graphmodel.Reference) *graphmodel.Definition {
	enclosingClass := r.nearestContainer(ref.EnclosingDefID)
	if enclosingClass == nil {
		return nil
	}
	member := ref.NamePath[1]
	target := r.parentChainBFS(enclosingClass.ID, member, ref.FileID)
	if target == nil {
		return nil
	}
	if len(ref.NamePath) > 2 {
		return r.memberWalk(target, ref.NamePath[2:], ref.FileID)
	}
	return target
}

// nearestContainer walks the scope chain outward from enclosingID looking
// for the innermost class/struct/trait/interface/enum.
func (r *Resolver) nearestContainer(enclosingID string) *graphmodel.Definition {
	for _, def := range r.scopeChain(enclosingID) {
		if inheritableKinds[def.Kind] {
			return def
		}
	}
	return nil
}

// headLookup resolves the first name_path segment: walk the scope stack
// from the enclosing definition outward (nearest lexical frame first),
// then fall back to the file's name table (local defs, aliases, wildcard
// imports).
func (r *Resolver) headLookup(fileID, enclosingID, name string) *graphmodel.Definition {
	for _, frame := range r.scopeChain(enclosingID) {
		if d := r.childNamed(frame.ID, name, fileID); d != nil {
			return d
		}
	}
	return r.fileNameTable(fileID, name)
}
