// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package langsupport

import (
	"context"
	"fmt"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/kraklabs/cartograph/pkg/graphmodel"
)

// GoExtractor implements Extractor for Go source, walking the tree-sitter
// grammar's function_declaration, method_declaration, type_declaration and
// import_spec nodes.
type GoExtractor struct {
	parser *sitter.Parser
}

// NewGoExtractor builds a GoExtractor with its own tree-sitter parser
// instance; *sitter.Parser is not safe for concurrent use, so each
// extractor (and hence each per-file worker) owns one.
func NewGoExtractor() *GoExtractor {
	p := sitter.NewParser()
	p.SetLanguage(golang.GetLanguage())
	return &GoExtractor{parser: p}
}

func (e *GoExtractor) Language() string { return "go" }

func (e *GoExtractor) Extract(file *graphmodel.File, content []byte) (*ExtractorOutput, error) {
	tree, err := e.parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse: %w", err)
	}
	defer tree.Close()

	out := &ExtractorOutput{}
	root := tree.RootNode()

	e.extractImports(root, content, file.ID, out)

	methodsByReceiver := map[string]string{} // receiver type simple name -> owning Definition ID
	e.walkTypes(root, content, file.ID, out, methodsByReceiver)
	e.walkFuncs(root, content, file.ID, out, methodsByReceiver)

	// Types are walked before functions so methods can find their receiver;
	// restore source order afterwards.
	sort.SliceStable(out.Definitions, func(i, j int) bool {
		return out.Definitions[i].ByteRange.Start < out.Definitions[j].ByteRange.Start
	})

	return out, nil
}

func (e *GoExtractor) walkTypes(node *sitter.Node, content []byte, fileID string, out *ExtractorOutput, ownerOf map[string]string) {
	if node == nil {
		return
	}
	if node.Type() == "type_declaration" {
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			switch child.Type() {
			case "type_spec":
				e.extractTypeSpec(child, content, fileID, out, ownerOf)
			case "type_spec_list":
				for j := 0; j < int(child.ChildCount()); j++ {
					spec := child.Child(j)
					if spec.Type() == "type_spec" {
						e.extractTypeSpec(spec, content, fileID, out, ownerOf)
					}
				}
			}
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		e.walkTypes(node.Child(i), content, fileID, out, ownerOf)
	}
}

func (e *GoExtractor) extractTypeSpec(node *sitter.Node, content []byte, fileID string, out *ExtractorOutput, ownerOf map[string]string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nodeText(nameNode, content)

	typeNode := node.ChildByFieldName("type")
	var kind graphmodel.DefinitionKind
	var implementsNames []string
	switch {
	case typeNode != nil && typeNode.Type() == "struct_type":
		kind = graphmodel.KindStruct
	case typeNode != nil && typeNode.Type() == "interface_type":
		kind = graphmodel.KindInterface
		implementsNames = e.embeddedInterfaceNames(typeNode, content)
	default:
		kind = graphmodel.KindTypeAlias
	}

	def := newDefinition(out, fileID, kind, name, name, node, "")
	def.ImplementsNames = implementsNames
	ownerOf[name] = def.ID

	if kind == graphmodel.KindStruct {
		e.extractFieldsAndEmbeds(typeNode, content, fileID, out, def)
	}
}

// embeddedInterfaceNames captures interface embedding as Go's nearest
// equivalent to IMPLEMENTS: an interface that embeds another extends its
// method set.
func (e *GoExtractor) embeddedInterfaceNames(typeNode *sitter.Node, content []byte) []string {
	var names []string
	for i := 0; i < int(typeNode.ChildCount()); i++ {
		child := typeNode.Child(i)
		if child.Type() == "type_identifier" {
			names = append(names, nodeText(child, content))
		}
	}
	return names
}

// extractFieldsAndEmbeds records struct fields as child Definitions and
// embedded struct types as an INHERITS-like parent clause, Go's closest
// analogue to inheritance.
func (e *GoExtractor) extractFieldsAndEmbeds(typeNode *sitter.Node, content []byte, fileID string, out *ExtractorOutput, owner *graphmodel.Definition) {
	if typeNode == nil || typeNode.Type() != "struct_type" {
		return
	}
	body := typeNode.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		decl := body.Child(i)
		if decl.Type() != "field_declaration" {
			continue
		}
		nameNode := decl.ChildByFieldName("name")
		typeRef := decl.ChildByFieldName("type")
		if nameNode == nil && typeRef != nil && typeRef.Type() == "type_identifier" {
			// Embedded field: anonymous struct field names the embedded type.
			owner.ParentNames = append(owner.ParentNames, nodeText(typeRef, content))
			continue
		}
		if nameNode == nil {
			continue
		}
		fieldName := nodeText(nameNode, content)
		newDefinition(out, fileID, graphmodel.KindField, qualify(owner.FullyQualifiedName, fieldName), fieldName, decl, owner.ID)
	}
}

func (e *GoExtractor) walkFuncs(node *sitter.Node, content []byte, fileID string, out *ExtractorOutput, ownerOf map[string]string) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "function_declaration":
		e.extractFunction(node, content, fileID, out)
	case "method_declaration":
		e.extractMethod(node, content, fileID, out, ownerOf)
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		e.walkFuncs(node.Child(i), content, fileID, out, ownerOf)
	}
}

func (e *GoExtractor) extractFunction(node *sitter.Node, content []byte, fileID string, out *ExtractorOutput) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nodeText(nameNode, content)
	def := newDefinition(out, fileID, graphmodel.KindFunction, name, name, node, "")
	def.Signature = e.buildSignature("func "+name, node, content)

	if body := node.ChildByFieldName("body"); body != nil {
		e.walkCalls(body, content, fileID, def.ID, out)
	}
}

func (e *GoExtractor) extractMethod(node *sitter.Node, content []byte, fileID string, out *ExtractorOutput, ownerOf map[string]string) {
	nameNode := node.ChildByFieldName("name")
	receiverNode := node.ChildByFieldName("receiver")
	if nameNode == nil {
		return
	}
	methodName := nodeText(nameNode, content)
	receiverType := extractReceiverType(receiverNode, content)

	owner := ownerOf[receiverType]
	fqn := qualify(receiverType, methodName)
	def := newDefinition(out, fileID, graphmodel.KindMethod, fqn, methodName, node, owner)
	def.Signature = e.buildSignature("func ("+nodeText(receiverNode, content)+") "+methodName, node, content)

	if body := node.ChildByFieldName("body"); body != nil {
		e.walkCalls(body, content, fileID, def.ID, out)
	}
}

func (e *GoExtractor) buildSignature(prefix string, node *sitter.Node, content []byte) string {
	var sb strings.Builder
	sb.WriteString(prefix)
	if params := node.ChildByFieldName("parameters"); params != nil {
		sb.WriteString(nodeText(params, content))
	}
	if result := node.ChildByFieldName("result"); result != nil {
		sb.WriteString(" ")
		sb.WriteString(nodeText(result, content))
	}
	return sb.String()
}

// extractReceiverType returns the base type name of a method receiver,
// stripping pointer and generic-instantiation syntax: (s *Server) -> Server.
func extractReceiverType(receiverNode *sitter.Node, content []byte) string {
	if receiverNode == nil {
		return ""
	}
	for i := 0; i < int(receiverNode.ChildCount()); i++ {
		child := receiverNode.Child(i)
		if child.Type() != "parameter_declaration" {
			continue
		}
		typeNode := child.ChildByFieldName("type")
		if typeNode == nil {
			continue
		}
		return baseTypeName(typeNode, content)
	}
	return ""
}

func baseTypeName(typeNode *sitter.Node, content []byte) string {
	if typeNode == nil {
		return ""
	}
	switch typeNode.Type() {
	case "pointer_type":
		for i := 0; i < int(typeNode.ChildCount()); i++ {
			child := typeNode.Child(i)
			if child.Type() != "*" {
				return baseTypeName(child, content)
			}
		}
	case "generic_type":
		if tn := typeNode.ChildByFieldName("type"); tn != nil {
			return nodeText(tn, content)
		}
	case "type_identifier":
		return nodeText(typeNode, content)
	}
	name := nodeText(typeNode, content)
	name = strings.TrimPrefix(name, "*")
	if idx := strings.Index(name, "["); idx > 0 {
		name = name[:idx]
	}
	return name
}

// walkCalls walks a function/method body collecting call_expression
// occurrences (with identifier or selector_expression callees) as
// References; selector expressions outside a call are not collected.
func (e *GoExtractor) walkCalls(node *sitter.Node, content []byte, fileID, enclosing string, out *ExtractorOutput) {
	if node == nil {
		return
	}
	if node.Type() == "call_expression" {
		if fn := node.ChildByFieldName("function"); fn != nil {
			name := e.calleeName(fn, content)
			if name != "" {
				newReference(out, fileID, enclosing, splitDotted(name), fn, graphmodel.RefCall)
			}
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		e.walkCalls(node.Child(i), content, fileID, enclosing, out)
	}
}

func (e *GoExtractor) calleeName(fn *sitter.Node, content []byte) string {
	switch fn.Type() {
	case "identifier":
		return nodeText(fn, content)
	case "selector_expression":
		operand := fn.ChildByFieldName("operand")
		field := fn.ChildByFieldName("field")
		if operand == nil || field == nil {
			return ""
		}
		return e.calleeName(operand, content) + "." + nodeText(field, content)
	default:
		return ""
	}
}

func (e *GoExtractor) extractImports(root *sitter.Node, content []byte, fileID string, out *ExtractorOutput) {
	e.walkImports(root, content, fileID, out)
}

func (e *GoExtractor) walkImports(node *sitter.Node, content []byte, fileID string, out *ExtractorOutput) {
	if node == nil {
		return
	}
	if node.Type() == "import_declaration" {
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			switch child.Type() {
			case "import_spec":
				e.extractImportSpec(child, content, fileID, out)
			case "import_spec_list":
				for j := 0; j < int(child.ChildCount()); j++ {
					spec := child.Child(j)
					if spec.Type() == "import_spec" {
						e.extractImportSpec(spec, content, fileID, out)
					}
				}
			}
		}
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		e.walkImports(node.Child(i), content, fileID, out)
	}
}

func (e *GoExtractor) extractImportSpec(node *sitter.Node, content []byte, fileID string, out *ExtractorOutput) {
	pathNode := node.ChildByFieldName("path")
	if pathNode == nil {
		return
	}
	raw := strings.Trim(nodeText(pathNode, content), `"`)

	alias := ""
	wildcard := false
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		switch nodeText(nameNode, content) {
		case "_":
			// blank import, not a name binding
		case ".":
			wildcard = true
		default:
			alias = nodeText(nameNode, content)
		}
	}
	newImport(out, fileID, raw, alias, wildcard, node)
}
