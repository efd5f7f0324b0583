// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package langsupport

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/kraklabs/cartograph/pkg/graphmodel"
)

// nodeText returns the source text spanned by node.
func nodeText(node *sitter.Node, content []byte) string {
	if node == nil {
		return ""
	}
	return node.Content(content)
}

// byteRangeOf converts a tree-sitter node's span into a graphmodel.ByteRange.
func byteRangeOf(node *sitter.Node) graphmodel.ByteRange {
	return graphmodel.ByteRange{Start: int(node.StartByte()), End: int(node.EndByte())}
}

// scopeStack tracks the enclosing-definition chain while walking a single
// file's tree, innermost last. It is rebuilt per file, never shared.
type scopeStack struct {
	ids []string
}

func (s *scopeStack) push(id string) { s.ids = append(s.ids, id) }
func (s *scopeStack) pop()           { s.ids = s.ids[:len(s.ids)-1] }

func (s *scopeStack) current() string {
	if len(s.ids) == 0 {
		return ""
	}
	return s.ids[len(s.ids)-1]
}

// newDefinition builds a Definition with a deterministic ID and records it
// on the output, returning it so the caller can push its ID onto the scope
// stack for descendants.
func newDefinition(out *ExtractorOutput, fileID string, kind graphmodel.DefinitionKind, fqn, simpleName string, node *sitter.Node, owner string) *graphmodel.Definition {
	rng := byteRangeOf(node)
	def := &graphmodel.Definition{
		ID:                 graphmodel.DefinitionID(string(kind), fileID, simpleName, rng.Start, rng.End),
		FileID:             fileID,
		Kind:               kind,
		FullyQualifiedName: fqn,
		SimpleName:         simpleName,
		ByteRange:          rng,
		OwnerDefID:         owner,
	}
	out.Definitions = append(out.Definitions, def)
	return def
}

// newReference appends an unresolved Reference at the current scope.
func newReference(out *ExtractorOutput, fileID string, enclosing string, namePath []string, node *sitter.Node, hint graphmodel.ReferenceKindHint) {
	rng := byteRangeOf(node)
	out.References = append(out.References, &graphmodel.Reference{
		ID:             graphmodel.ReferenceID(fileID, namePath, rng.Start, rng.End),
		FileID:         fileID,
		EnclosingDefID: enclosing,
		NamePath:       namePath,
		ByteRange:      rng,
		KindHint:       hint,
	})
}

// newImport appends a resolved-later Import entry.
func newImport(out *ExtractorOutput, fileID, rawSpec, alias string, wildcard bool, node *sitter.Node) {
	rng := byteRangeOf(node)
	out.Imports = append(out.Imports, &graphmodel.Import{
		ID:         graphmodel.ImportID(fileID, rawSpec, rng.Start, rng.End),
		FileID:     fileID,
		RawSpec:    rawSpec,
		Alias:      alias,
		IsWildcard: wildcard,
		ByteRange:  rng,
	})
}

// qualify joins an owner FQN and a simple name, skipping an empty owner.
func qualify(owner, name string) string {
	if owner == "" {
		return name
	}
	return owner + "." + name
}

// splitDotted splits a dotted reference expression into name_path segments.
func splitDotted(s string) []string {
	var segs []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			if i > start {
				segs = append(segs, s[start:i])
			}
			start = i + 1
		}
	}
	if start < len(s) {
		segs = append(segs, s[start:])
	}
	return segs
}
