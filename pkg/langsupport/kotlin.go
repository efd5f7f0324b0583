// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package langsupport

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/kotlin"

	"github.com/kraklabs/cartograph/pkg/graphmodel"
)

// KotlinExtractor implements Extractor for Kotlin source.
type KotlinExtractor struct {
	parser *sitter.Parser
}

func NewKotlinExtractor() *KotlinExtractor {
	p := sitter.NewParser()
	p.SetLanguage(kotlin.GetLanguage())
	return &KotlinExtractor{parser: p}
}

func (e *KotlinExtractor) Language() string { return "kotlin" }

func (e *KotlinExtractor) Extract(file *graphmodel.File, content []byte) (*ExtractorOutput, error) {
	tree, err := e.parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse: %w", err)
	}
	defer tree.Close()

	out := &ExtractorOutput{}
	e.walk(tree.RootNode(), content, file.ID, out, "", "")
	return out, nil
}

func (e *KotlinExtractor) walk(node *sitter.Node, content []byte, fileID string, out *ExtractorOutput, owner, ownerFQN string) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "import_header":
		e.extractImport(node, content, fileID, out)
		return
	case "class_declaration", "object_declaration":
		def := e.extractClass(node, content, fileID, out, owner, ownerFQN)
		if body := node.ChildByFieldName("body"); body != nil {
			e.walkChildren(body, content, fileID, out, def.ID, def.FullyQualifiedName)
		}
		return
	case "function_declaration":
		def := e.extractFunction(node, content, fileID, out, owner, ownerFQN)
		if body := node.ChildByFieldName("body"); body != nil {
			e.walkCalls(body, content, fileID, def.ID, out)
		}
		return
	case "call_expression":
		e.extractCall(node, content, fileID, owner, out)
	}
	e.walkChildren(node, content, fileID, out, owner, ownerFQN)
}

func (e *KotlinExtractor) walkChildren(node *sitter.Node, content []byte, fileID string, out *ExtractorOutput, owner, ownerFQN string) {
	for i := 0; i < int(node.ChildCount()); i++ {
		e.walk(node.Child(i), content, fileID, out, owner, ownerFQN)
	}
}

func (e *KotlinExtractor) walkCalls(node *sitter.Node, content []byte, fileID, enclosing string, out *ExtractorOutput) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "class_declaration", "object_declaration", "function_declaration":
		e.walk(node, content, fileID, out, enclosing, "")
		return
	case "call_expression":
		e.extractCall(node, content, fileID, enclosing, out)
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		e.walkCalls(node.Child(i), content, fileID, enclosing, out)
	}
}

// extractCall handles both plain calls (foo()) and super-qualified calls
// (super.f()), which the end-to-end "super call" scenario depends on: the
// name_path is built as ["super", "f"] so the resolver can special-case the
// leading super segment against the enclosing class's parent names.
func (e *KotlinExtractor) extractCall(node *sitter.Node, content []byte, fileID, enclosing string, out *ExtractorOutput) {
	fn := node.Child(0)
	if fn == nil {
		return
	}
	switch fn.Type() {
	case "simple_identifier":
		newReference(out, fileID, enclosing, []string{nodeText(fn, content)}, fn, graphmodel.RefCall)
	case "navigation_expression":
		segs := e.navigationPath(fn, content)
		if len(segs) > 0 {
			newReference(out, fileID, enclosing, segs, fn, graphmodel.RefCall)
		}
	}
}

func (e *KotlinExtractor) navigationPath(node *sitter.Node, content []byte) []string {
	if node == nil {
		return nil
	}
	if node.Type() != "navigation_expression" {
		return []string{nodeText(node, content)}
	}
	var segs []string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "navigation_expression":
			segs = append(segs, e.navigationPath(child, content)...)
		case "simple_identifier", "super_expression":
			segs = append(segs, nodeText(child, content))
		case "navigation_suffix":
			if id := child.ChildByFieldName("name"); id != nil {
				segs = append(segs, nodeText(id, content))
			} else {
				segs = append(segs, nodeText(child, content))
			}
		}
	}
	return segs
}

func (e *KotlinExtractor) extractClass(node *sitter.Node, content []byte, fileID string, out *ExtractorOutput, owner, ownerFQN string) *graphmodel.Definition {
	nameNode := node.ChildByFieldName("name")
	name := nodeText(nameNode, content)

	kind := graphmodel.KindClass
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == "interface" {
			kind = graphmodel.KindInterface
		}
	}
	def := newDefinition(out, fileID, kind, qualify(ownerFQN, name), name, node, owner)

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "delegation_specifiers" {
			continue
		}
		for j := 0; j < int(child.ChildCount()); j++ {
			spec := child.Child(j)
			if t := e.delegationTypeName(spec, content); t != "" {
				def.ParentNames = append(def.ParentNames, t)
			}
		}
	}
	return def
}

func (e *KotlinExtractor) delegationTypeName(node *sitter.Node, content []byte) string {
	switch node.Type() {
	case "delegation_specifier", "constructor_invocation":
		for i := 0; i < int(node.ChildCount()); i++ {
			if n := e.delegationTypeName(node.Child(i), content); n != "" {
				return n
			}
		}
	case "user_type":
		return nodeText(node, content)
	}
	return ""
}

func (e *KotlinExtractor) extractFunction(node *sitter.Node, content []byte, fileID string, out *ExtractorOutput, owner, ownerFQN string) *graphmodel.Definition {
	nameNode := node.ChildByFieldName("name")
	name := nodeText(nameNode, content)
	kind := graphmodel.KindFunction
	if owner != "" {
		kind = graphmodel.KindMethod
	}
	def := newDefinition(out, fileID, kind, qualify(ownerFQN, name), name, node, owner)
	if params := node.ChildByFieldName("parameters"); params != nil {
		def.Signature = "fun " + name + nodeText(params, content)
	}
	return def
}

func (e *KotlinExtractor) extractImport(node *sitter.Node, content []byte, fileID string, out *ExtractorOutput) {
	var identNode, aliasNode *sitter.Node
	wildcard := false
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier":
			identNode = child
		case "*":
			wildcard = true
		case "import_alias":
			aliasNode = child
		}
	}
	if identNode == nil {
		return
	}
	alias := ""
	if aliasNode != nil {
		alias = nodeText(aliasNode, content)
	}
	newImport(out, fileID, nodeText(identNode, content), alias, wildcard, node)
}
