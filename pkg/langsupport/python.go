// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package langsupport

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/kraklabs/cartograph/pkg/graphmodel"
)

// PythonExtractor implements Extractor for Python source.
type PythonExtractor struct {
	parser *sitter.Parser
}

func NewPythonExtractor() *PythonExtractor {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &PythonExtractor{parser: p}
}

func (e *PythonExtractor) Language() string { return "python" }

func (e *PythonExtractor) Extract(file *graphmodel.File, content []byte) (*ExtractorOutput, error) {
	tree, err := e.parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse: %w", err)
	}
	defer tree.Close()

	out := &ExtractorOutput{}
	e.walk(tree.RootNode(), content, file.ID, out, "", "")
	return out, nil
}

// walk descends the module body tracking owner (enclosing Definition ID)
// and ownerFQN (its fully-qualified name, for building nested FQNs).
func (e *PythonExtractor) walk(node *sitter.Node, content []byte, fileID string, out *ExtractorOutput, owner, ownerFQN string) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "import_statement":
		e.extractImport(node, content, fileID, out)
		return
	case "import_from_statement":
		e.extractFromImport(node, content, fileID, out)
		return
	case "class_definition":
		def := e.extractClass(node, content, fileID, out, owner, ownerFQN)
		if body := node.ChildByFieldName("body"); body != nil {
			e.walkChildren(body, content, fileID, out, def.ID, def.FullyQualifiedName)
		}
		return
	case "function_definition":
		def := e.extractFunction(node, content, fileID, out, owner, ownerFQN)
		if body := node.ChildByFieldName("body"); body != nil {
			e.walkCalls(body, content, fileID, def.ID, out)
		}
		return
	case "call":
		if fn := node.ChildByFieldName("function"); fn != nil {
			newReference(out, fileID, owner, splitDotted(nodeText(fn, content)), fn, graphmodel.RefCall)
		}
	}
	e.walkChildren(node, content, fileID, out, owner, ownerFQN)
}

func (e *PythonExtractor) walkChildren(node *sitter.Node, content []byte, fileID string, out *ExtractorOutput, owner, ownerFQN string) {
	for i := 0; i < int(node.ChildCount()); i++ {
		e.walk(node.Child(i), content, fileID, out, owner, ownerFQN)
	}
}

func (e *PythonExtractor) extractClass(node *sitter.Node, content []byte, fileID string, out *ExtractorOutput, owner, ownerFQN string) *graphmodel.Definition {
	nameNode := node.ChildByFieldName("name")
	name := nodeText(nameNode, content)
	def := newDefinition(out, fileID, graphmodel.KindClass, qualify(ownerFQN, name), name, node, owner)

	if super := node.ChildByFieldName("superclasses"); super != nil {
		for i := 0; i < int(super.ChildCount()); i++ {
			child := super.Child(i)
			if child.Type() == "identifier" || child.Type() == "attribute" {
				def.ParentNames = append(def.ParentNames, nodeText(child, content))
			}
		}
	}
	return def
}

func (e *PythonExtractor) extractFunction(node *sitter.Node, content []byte, fileID string, out *ExtractorOutput, owner, ownerFQN string) *graphmodel.Definition {
	nameNode := node.ChildByFieldName("name")
	name := nodeText(nameNode, content)
	kind := graphmodel.KindFunction
	if owner != "" {
		kind = graphmodel.KindMethod
	}
	def := newDefinition(out, fileID, kind, qualify(ownerFQN, name), name, node, owner)
	if params := node.ChildByFieldName("parameters"); params != nil {
		def.Signature = "def " + name + nodeText(params, content)
	}
	return def
}

// walkCalls recurses a function body collecting call references without
// re-entering nested class/def handling (those are walked by walk itself
// via the outer recursion, so this only needs to find "call" nodes).
func (e *PythonExtractor) walkCalls(node *sitter.Node, content []byte, fileID, enclosing string, out *ExtractorOutput) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "class_definition", "function_definition":
		// Nested scopes are handled by the outer walk once it reaches here
		// via normal recursion; do not double-walk calls inside them here.
		e.walk(node, content, fileID, out, enclosing, "")
		return
	case "call":
		if fn := node.ChildByFieldName("function"); fn != nil {
			newReference(out, fileID, enclosing, splitDotted(nodeText(fn, content)), fn, graphmodel.RefCall)
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		e.walkCalls(node.Child(i), content, fileID, enclosing, out)
	}
}

func (e *PythonExtractor) extractImport(node *sitter.Node, content []byte, fileID string, out *ExtractorOutput) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "dotted_name":
			newImport(out, fileID, nodeText(child, content), "", false, child)
		case "aliased_import":
			nameNode := child.ChildByFieldName("name")
			aliasNode := child.ChildByFieldName("alias")
			if nameNode != nil {
				alias := ""
				if aliasNode != nil {
					alias = nodeText(aliasNode, content)
				}
				newImport(out, fileID, nodeText(nameNode, content), alias, false, child)
			}
		}
	}
}

func (e *PythonExtractor) extractFromImport(node *sitter.Node, content []byte, fileID string, out *ExtractorOutput) {
	moduleNode := node.ChildByFieldName("module_name")
	if moduleNode == nil {
		return
	}
	module := nodeText(moduleNode, content)

	wildcard := false
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == "wildcard_import" {
			wildcard = true
		}
	}
	if wildcard {
		newImport(out, fileID, module, "", true, node)
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "dotted_name":
			if child == moduleNode {
				continue
			}
			newImport(out, fileID, module+"."+nodeText(child, content), "", false, child)
		case "aliased_import":
			nameNode := child.ChildByFieldName("name")
			aliasNode := child.ChildByFieldName("alias")
			if nameNode != nil {
				alias := ""
				if aliasNode != nil {
					alias = nodeText(aliasNode, content)
				}
				newImport(out, fileID, module+"."+nodeText(nameNode, content), alias, false, child)
			}
		}
	}
}
