// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package langsupport

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/kraklabs/cartograph/pkg/graphmodel"
)

// JavaScriptExtractor implements Extractor for both JavaScript and
// TypeScript source; the two grammars share almost every node type this
// extractor inspects, so one walker serves both languages.
type JavaScriptExtractor struct {
	language string
	parser   *sitter.Parser
}

func NewJavaScriptExtractor(language string) *JavaScriptExtractor {
	p := sitter.NewParser()
	if language == "typescript" {
		p.SetLanguage(typescript.GetLanguage())
	} else {
		p.SetLanguage(javascript.GetLanguage())
	}
	return &JavaScriptExtractor{language: language, parser: p}
}

func (e *JavaScriptExtractor) Language() string { return e.language }

func (e *JavaScriptExtractor) Extract(file *graphmodel.File, content []byte) (*ExtractorOutput, error) {
	tree, err := e.parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse: %w", err)
	}
	defer tree.Close()

	out := &ExtractorOutput{}
	e.walk(tree.RootNode(), content, file.ID, out, "", "")
	return out, nil
}

func (e *JavaScriptExtractor) walk(node *sitter.Node, content []byte, fileID string, out *ExtractorOutput, owner, ownerFQN string) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "import_statement":
		e.extractImport(node, content, fileID, out)
		return
	case "class_declaration":
		def := e.extractClass(node, content, fileID, out, owner, ownerFQN)
		if body := node.ChildByFieldName("body"); body != nil {
			e.walkChildren(body, content, fileID, out, def.ID, def.FullyQualifiedName)
		}
		return
	case "function_declaration":
		def := e.extractFunction(node, content, fileID, out, owner, ownerFQN, graphmodel.KindFunction)
		if body := node.ChildByFieldName("body"); body != nil {
			e.walkCalls(body, content, fileID, def.ID, out)
		}
		return
	case "method_definition":
		def := e.extractFunction(node, content, fileID, out, owner, ownerFQN, graphmodel.KindMethod)
		if body := node.ChildByFieldName("body"); body != nil {
			e.walkCalls(body, content, fileID, def.ID, out)
		}
		return
	case "call_expression":
		if fn := node.ChildByFieldName("function"); fn != nil {
			newReference(out, fileID, owner, splitDotted(nodeText(fn, content)), fn, graphmodel.RefCall)
		}
	}
	e.walkChildren(node, content, fileID, out, owner, ownerFQN)
}

func (e *JavaScriptExtractor) walkChildren(node *sitter.Node, content []byte, fileID string, out *ExtractorOutput, owner, ownerFQN string) {
	for i := 0; i < int(node.ChildCount()); i++ {
		e.walk(node.Child(i), content, fileID, out, owner, ownerFQN)
	}
}

func (e *JavaScriptExtractor) walkCalls(node *sitter.Node, content []byte, fileID, enclosing string, out *ExtractorOutput) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "class_declaration", "function_declaration", "method_definition":
		e.walk(node, content, fileID, out, enclosing, "")
		return
	case "call_expression":
		if fn := node.ChildByFieldName("function"); fn != nil {
			newReference(out, fileID, enclosing, splitDotted(nodeText(fn, content)), fn, graphmodel.RefCall)
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		e.walkCalls(node.Child(i), content, fileID, enclosing, out)
	}
}

func (e *JavaScriptExtractor) extractClass(node *sitter.Node, content []byte, fileID string, out *ExtractorOutput, owner, ownerFQN string) *graphmodel.Definition {
	nameNode := node.ChildByFieldName("name")
	name := nodeText(nameNode, content)
	def := newDefinition(out, fileID, graphmodel.KindClass, qualify(ownerFQN, name), name, node, owner)

	if heritage := node.ChildByFieldName("heritage"); heritage != nil {
		for i := 0; i < int(heritage.ChildCount()); i++ {
			clause := heritage.Child(i)
			if clause.Type() == "extends_clause" {
				if val := clause.ChildByFieldName("value"); val != nil {
					def.ParentNames = append(def.ParentNames, nodeText(val, content))
				} else {
					def.ParentNames = append(def.ParentNames, strings.TrimSpace(strings.TrimPrefix(nodeText(clause, content), "extends")))
				}
			}
		}
	}
	return def
}

func (e *JavaScriptExtractor) extractFunction(node *sitter.Node, content []byte, fileID string, out *ExtractorOutput, owner, ownerFQN string, kind graphmodel.DefinitionKind) *graphmodel.Definition {
	nameNode := node.ChildByFieldName("name")
	name := nodeText(nameNode, content)
	if kind == graphmodel.KindMethod && name == "constructor" {
		kind = graphmodel.KindConstructor
	}
	def := newDefinition(out, fileID, kind, qualify(ownerFQN, name), name, node, owner)
	if params := node.ChildByFieldName("parameters"); params != nil {
		def.Signature = name + nodeText(params, content)
	}
	return def
}

func (e *JavaScriptExtractor) extractImport(node *sitter.Node, content []byte, fileID string, out *ExtractorOutput) {
	sourceNode := node.ChildByFieldName("source")
	if sourceNode == nil {
		return
	}
	source := strings.Trim(nodeText(sourceNode, content), `"'`)

	clause := node.ChildByFieldName("import") // "import_clause" in some grammar versions
	if clause == nil {
		newImport(out, fileID, source, "", false, node)
		return
	}
	for i := 0; i < int(clause.ChildCount()); i++ {
		spec := clause.Child(i)
		switch spec.Type() {
		case "namespace_import":
			newImport(out, fileID, source, "", true, spec)
		case "named_imports":
			for j := 0; j < int(spec.ChildCount()); j++ {
				item := spec.Child(j)
				if item.Type() != "import_specifier" {
					continue
				}
				nameNode := item.ChildByFieldName("name")
				aliasNode := item.ChildByFieldName("alias")
				if nameNode == nil {
					continue
				}
				alias := ""
				if aliasNode != nil {
					alias = nodeText(aliasNode, content)
				}
				newImport(out, fileID, source+"."+nodeText(nameNode, content), alias, false, item)
			}
		case "identifier":
			// default import
			newImport(out, fileID, source, nodeText(spec, content), false, spec)
		}
	}
}
