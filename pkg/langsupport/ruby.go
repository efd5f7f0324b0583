// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package langsupport

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/ruby"

	"github.com/kraklabs/cartograph/pkg/graphmodel"
)

// RubyExtractor implements Extractor for Ruby source. Ruby has no import
// statement; require/require_relative calls are treated as Imports, and
// module bodies are re-enterable, so the same FQN can legitimately appear
// as more than one Definition across a file or a project.
type RubyExtractor struct {
	parser *sitter.Parser
}

func NewRubyExtractor() *RubyExtractor {
	p := sitter.NewParser()
	p.SetLanguage(ruby.GetLanguage())
	return &RubyExtractor{parser: p}
}

func (e *RubyExtractor) Language() string { return "ruby" }

func (e *RubyExtractor) Extract(file *graphmodel.File, content []byte) (*ExtractorOutput, error) {
	tree, err := e.parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse: %w", err)
	}
	defer tree.Close()

	out := &ExtractorOutput{}
	e.walk(tree.RootNode(), content, file.ID, out, "", "")
	return out, nil
}

func (e *RubyExtractor) walk(node *sitter.Node, content []byte, fileID string, out *ExtractorOutput, owner, ownerFQN string) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "module":
		def := e.extractContainer(node, content, fileID, out, owner, ownerFQN, graphmodel.KindNamespace)
		if body := node.ChildByFieldName("body"); body != nil {
			e.walkChildren(body, content, fileID, out, def.ID, def.FullyQualifiedName)
		}
		return
	case "class":
		def := e.extractContainer(node, content, fileID, out, owner, ownerFQN, graphmodel.KindClass)
		if super := node.ChildByFieldName("superclass"); super != nil {
			def.ParentNames = append(def.ParentNames, strings.TrimSpace(nodeText(super, content)))
		}
		if body := node.ChildByFieldName("body"); body != nil {
			e.walkChildren(body, content, fileID, out, def.ID, def.FullyQualifiedName)
		}
		return
	case "method", "singleton_method":
		def := e.extractMethod(node, content, fileID, out, owner, ownerFQN)
		if body := node.ChildByFieldName("body"); body != nil {
			e.walkCalls(body, content, fileID, def.ID, out)
		}
		return
	case "call":
		e.extractCall(node, content, fileID, owner, out)
	}
	e.walkChildren(node, content, fileID, out, owner, ownerFQN)
}

func (e *RubyExtractor) walkChildren(node *sitter.Node, content []byte, fileID string, out *ExtractorOutput, owner, ownerFQN string) {
	for i := 0; i < int(node.ChildCount()); i++ {
		e.walk(node.Child(i), content, fileID, out, owner, ownerFQN)
	}
}

func (e *RubyExtractor) walkCalls(node *sitter.Node, content []byte, fileID, enclosing string, out *ExtractorOutput) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "module", "class", "method", "singleton_method":
		e.walk(node, content, fileID, out, enclosing, "")
		return
	case "call":
		e.extractCall(node, content, fileID, enclosing, out)
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		e.walkCalls(node.Child(i), content, fileID, enclosing, out)
	}
}

func (e *RubyExtractor) extractCall(node *sitter.Node, content []byte, fileID, enclosing string, out *ExtractorOutput) {
	methodNode := node.ChildByFieldName("method")
	if methodNode == nil {
		return
	}
	name := nodeText(methodNode, content)

	if name == "require" || name == "require_relative" {
		if args := node.ChildByFieldName("arguments"); args != nil {
			for i := 0; i < int(args.ChildCount()); i++ {
				if args.Child(i).Type() == "string" {
					spec := strings.Trim(nodeText(args.Child(i), content), `"'`)
					newImport(out, fileID, spec, "", false, args.Child(i))
					return
				}
			}
		}
		return
	}

	var segs []string
	if recv := node.ChildByFieldName("receiver"); recv != nil {
		segs = append(segs, splitDotted(nodeText(recv, content))...)
	}
	segs = append(segs, name)
	newReference(out, fileID, enclosing, segs, methodNode, graphmodel.RefCall)
}

func (e *RubyExtractor) extractContainer(node *sitter.Node, content []byte, fileID string, out *ExtractorOutput, owner, ownerFQN string, kind graphmodel.DefinitionKind) *graphmodel.Definition {
	nameNode := node.ChildByFieldName("name")
	name := nodeText(nameNode, content)
	return newDefinition(out, fileID, kind, qualify(ownerFQN, name), name, node, owner)
}

func (e *RubyExtractor) extractMethod(node *sitter.Node, content []byte, fileID string, out *ExtractorOutput, owner, ownerFQN string) *graphmodel.Definition {
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
