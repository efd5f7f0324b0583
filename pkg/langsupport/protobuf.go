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
	"strings"

	"github.com/kraklabs/cartograph/pkg/graphmodel"
)

// ProtobufExtractor extracts services, RPCs, messages and enums from .proto
// files. There is no bundled tree-sitter-proto grammar, so this walks lines
// and tracks brace depth instead, same approach as every other proto reader
// in this codebase's lineage.
type ProtobufExtractor struct{}

func NewProtobufExtractor() *ProtobufExtractor { return &ProtobufExtractor{} }

func (e *ProtobufExtractor) Language() string { return "protobuf" }

type protoFrame struct {
	defID string
	fqn   string
	kind  graphmodel.DefinitionKind
}

func (e *ProtobufExtractor) Extract(file *graphmodel.File, content []byte) (*ExtractorOutput, error) {
	out := &ExtractorOutput{}

	var stack []protoFrame
	offset := 0
	lines := strings.Split(string(content), "\n")

	owner := func() string {
		if len(stack) == 0 {
			return ""
		}
		return stack[len(stack)-1].defID
	}
	ownerFQN := func() string {
		if len(stack) == 0 {
			return ""
		}
		return stack[len(stack)-1].fqn
	}

	for _, line := range lines {
		lineStart := offset
		offset += len(line) + 1 // account for the stripped '\n'
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "//") || trimmed == "" {
			continue
		}

		switch {
		case strings.HasPrefix(trimmed, "import "):
			spec := strings.TrimPrefix(trimmed, "import ")
			spec = strings.TrimPrefix(spec, "public ")
			spec = strings.TrimPrefix(spec, "weak ")
			spec = strings.Trim(strings.TrimSuffix(strings.TrimSpace(spec), ";"), `"`)
			out.Imports = append(out.Imports, &graphmodel.Import{
				ID:        graphmodel.ImportID(file.ID, spec, lineStart, lineStart+len(line)),
				FileID:    file.ID,
				RawSpec:   spec,
				ByteRange: graphmodel.ByteRange{Start: lineStart, End: lineStart + len(line)},
			})

		case strings.HasPrefix(trimmed, "message ") && strings.Contains(trimmed, "{"):
			name := firstWordAfter(trimmed, "message ")
			fqn := qualify(ownerFQN(), name)
			def := e.pushDef(out, file.ID, graphmodel.KindStruct, fqn, name, owner(), lineStart, lineStart+len(line))
			stack = append(stack, protoFrame{defID: def.ID, fqn: fqn, kind: graphmodel.KindStruct})

		case strings.HasPrefix(trimmed, "enum ") && strings.Contains(trimmed, "{"):
			name := firstWordAfter(trimmed, "enum ")
			fqn := qualify(ownerFQN(), name)
			def := e.pushDef(out, file.ID, graphmodel.KindEnum, fqn, name, owner(), lineStart, lineStart+len(line))
			stack = append(stack, protoFrame{defID: def.ID, fqn: fqn, kind: graphmodel.KindEnum})

		case strings.HasPrefix(trimmed, "service ") && strings.Contains(trimmed, "{"):
			name := firstWordAfter(trimmed, "service ")
			fqn := qualify(ownerFQN(), name)
			def := e.pushDef(out, file.ID, graphmodel.KindInterface, fqn, name, owner(), lineStart, lineStart+len(line))
			stack = append(stack, protoFrame{defID: def.ID, fqn: fqn, kind: graphmodel.KindInterface})

		case strings.HasPrefix(trimmed, "rpc ") && len(stack) > 0 && stack[len(stack)-1].kind == graphmodel.KindInterface:
			name, sig := extractRPCSignature(trimmed)
			if name != "" {
				fqn := qualify(ownerFQN(), name)
				out.Definitions = append(out.Definitions, &graphmodel.Definition{
					ID:                 graphmodel.DefinitionID(string(graphmodel.KindMethod), file.ID, name, lineStart, lineStart+len(line)),
					FileID:             file.ID,
					Kind:               graphmodel.KindMethod,
					FullyQualifiedName: fqn,
					SimpleName:         name,
					Signature:          sig,
					ByteRange:          graphmodel.ByteRange{Start: lineStart, End: lineStart + len(line)},
					OwnerDefID:         owner(),
				})
			}

		case len(stack) > 0 && stack[len(stack)-1].kind == graphmodel.KindEnum && strings.Contains(trimmed, "="):
			name := strings.TrimSpace(strings.SplitN(trimmed, "=", 2)[0])
			if name != "" && !strings.ContainsAny(name, "{}") {
				fqn := qualify(ownerFQN(), name)
				out.Definitions = append(out.Definitions, &graphmodel.Definition{
					ID:                 graphmodel.DefinitionID(string(graphmodel.KindEnumMember), file.ID, name, lineStart, lineStart+len(line)),
					FileID:             file.ID,
					Kind:               graphmodel.KindEnumMember,
					FullyQualifiedName: fqn,
					SimpleName:         name,
					ByteRange:          graphmodel.ByteRange{Start: lineStart, End: lineStart + len(line)},
					OwnerDefID:         owner(),
				})
			}
		}

		if strings.Contains(trimmed, "}") && len(stack) > 0 && !strings.HasPrefix(trimmed, "message ") && !strings.HasPrefix(trimmed, "enum ") && !strings.HasPrefix(trimmed, "service ") {
			stack = stack[:len(stack)-1]
		}
	}

	return out, nil
}

func (e *ProtobufExtractor) pushDef(out *ExtractorOutput, fileID string, kind graphmodel.DefinitionKind, fqn, name, owner string, start, end int) *graphmodel.Definition {
	def := &graphmodel.Definition{
		ID:                 graphmodel.DefinitionID(string(kind), fileID, name, start, end),
		FileID:             fileID,
		Kind:               kind,
		FullyQualifiedName: fqn,
		SimpleName:         name,
		ByteRange:          graphmodel.ByteRange{Start: start, End: end},
		OwnerDefID:         owner,
	}
	out.Definitions = append(out.Definitions, def)
	return def
}

func firstWordAfter(line, prefix string) string {
	rest := strings.TrimPrefix(line, prefix)
	rest = strings.TrimSuffix(strings.TrimSpace(rest), "{")
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// extractRPCSignature extracts the RPC name and full signature from a proto
// rpc line, e.g. "rpc GetUser(GetUserRequest) returns (User);".
func extractRPCSignature(line string) (name, signature string) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(line), "rpc ")
	parenIdx := strings.Index(trimmed, "(")
	if parenIdx == -1 {
		return "", ""
	}
	name = strings.TrimSpace(trimmed[:parenIdx])

	semiIdx := strings.Index(trimmed, ";")
	braceIdx := strings.Index(trimmed, "{")
	endIdx := len(trimmed)
	if semiIdx >= 0 && (braceIdx < 0 || semiIdx < braceIdx) {
		endIdx = semiIdx
	} else if braceIdx >= 0 {
		endIdx = braceIdx
	}
	return name, "rpc " + strings.TrimSpace(trimmed[:endIdx])
}
