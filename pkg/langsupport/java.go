// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package langsupport

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/kraklabs/cartograph/pkg/graphmodel"
)

// JavaExtractor implements Extractor for Java source.
type JavaExtractor struct {
	parser *sitter.Parser
}

func NewJavaExtractor() *JavaExtractor {
	p := sitter.NewParser()
	p.SetLanguage(java.GetLanguage())
	return &JavaExtractor{parser: p}
}

func (e *JavaExtractor) Language() string { return "java" }

func (e *JavaExtractor) Extract(file *graphmodel.File, content []byte) (*ExtractorOutput, error) {
	tree, err := e.parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse: %w", err)
	}
	defer tree.Close()

	out := &ExtractorOutput{}
	e.walk(tree.RootNode(), content, file.ID, out, "", "")
	return out, nil
}

func (e *JavaExtractor) walk(node *sitter.Node, content []byte, fileID string, out *ExtractorOutput, owner, ownerFQN string) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "import_declaration":
		e.extractImport(node, content, fileID, out)
		return
	case "class_declaration", "interface_declaration":
		def := e.extractType(node, content, fileID, out, owner, ownerFQN)
		if body := node.ChildByFieldName("body"); body != nil {
			e.walkChildren(body, content, fileID, out, def.ID, def.FullyQualifiedName)
		}
		return
	case "method_declaration", "constructor_declaration":
		def := e.extractMethod(node, content, fileID, out, owner, ownerFQN)
		if body := node.ChildByFieldName("body"); body != nil {
			e.walkCalls(body, content, fileID, def.ID, out)
		}
		return
	case "method_invocation":
		e.extractCall(node, content, fileID, owner, out)
	}
	e.walkChildren(node, content, fileID, out, owner, ownerFQN)
}

func (e *JavaExtractor) walkChildren(node *sitter.Node, content []byte, fileID string, out *ExtractorOutput, owner, ownerFQN string) {
	for i := 0; i < int(node.ChildCount()); i++ {
		e.walk(node.Child(i), content, fileID, out, owner, ownerFQN)
	}
}

func (e *JavaExtractor) walkCalls(node *sitter.Node, content []byte, fileID, enclosing string, out *ExtractorOutput) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "class_declaration", "interface_declaration", "method_declaration", "constructor_declaration":
		e.walk(node, content, fileID, out, enclosing, "")
		return
	case "method_invocation":
		e.extractCall(node, content, fileID, enclosing, out)
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		e.walkCalls(node.Child(i), content, fileID, enclosing, out)
	}
}

func (e *JavaExtractor) extractCall(node *sitter.Node, content []byte, fileID, enclosing string, out *ExtractorOutput) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	var segs []string
	if obj := node.ChildByFieldName("object"); obj != nil {
		segs = append(segs, splitDotted(nodeText(obj, content))...)
	}
	segs = append(segs, nodeText(nameNode, content))
	newReference(out, fileID, enclosing, segs, node, graphmodel.RefCall)
}

func (e *JavaExtractor) extractType(node *sitter.Node, content []byte, fileID string, out *ExtractorOutput, owner, ownerFQN string) *graphmodel.Definition {
	nameNode := node.ChildByFieldName("name")
	name := nodeText(nameNode, content)

	kind := graphmodel.KindClass
	if node.Type() == "interface_declaration" {
		kind = graphmodel.KindInterface
	}
	def := newDefinition(out, fileID, kind, qualify(ownerFQN, name), name, node, owner)

	if super := node.ChildByFieldName("superclass"); super != nil {
		if t := super.ChildByFieldName("type"); t != nil {
			def.ParentNames = append(def.ParentNames, nodeText(t, content))
		} else {
			def.ParentNames = append(def.ParentNames, strings.TrimSpace(strings.TrimPrefix(nodeText(super, content), "extends")))
		}
	}
	if ifaces := node.ChildByFieldName("interfaces"); ifaces != nil {
		e.collectTypeIdentifiers(ifaces, content, &def.ImplementsNames)
	}
	return def
}

func (e *JavaExtractor) collectTypeIdentifiers(node *sitter.Node, content []byte, out *[]string) {
	if node.Type() == "type_identifier" || node.Type() == "scoped_type_identifier" {
		*out = append(*out, nodeText(node, content))
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		e.collectTypeIdentifiers(node.Child(i), content, out)
	}
}

func (e *JavaExtractor) extractMethod(node *sitter.Node, content []byte, fileID string, out *ExtractorOutput, owner, ownerFQN string) *graphmodel.Definition {
	nameNode := node.ChildByFieldName("name")
	kind := graphmodel.KindMethod
	var name string
	if nameNode != nil {
		name = nodeText(nameNode, content)
	} else {
		// constructor_declaration names itself after the enclosing type
		kind = graphmodel.KindConstructor
		name = lastSegment(ownerFQN)
	}
	def := newDefinition(out, fileID, kind, qualify(ownerFQN, name), name, node, owner)
	if params := node.ChildByFieldName("parameters"); params != nil {
		def.Signature = name + nodeText(params, content)
	}
	return def
}

func lastSegment(fqn string) string {
	segs := splitDotted(fqn)
	if len(segs) == 0 {
		return fqn
	}
	return segs[len(segs)-1]
}

func (e *JavaExtractor) extractImport(node *sitter.Node, content []byte, fileID string, out *ExtractorOutput) {
	raw := nodeText(node, content)
	raw = strings.TrimSuffix(strings.TrimSpace(strings.TrimPrefix(raw, "import")), ";")
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "static"))
	wildcard := strings.HasSuffix(raw, ".*")
	raw = strings.TrimSuffix(raw, ".*")
	newImport(out, fileID, raw, "", wildcard, node)
}
