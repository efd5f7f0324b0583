// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package discovery

import (
	"path/filepath"
	"strings"
)

// extensionLanguage is the allow-list mapping file extensions to language
// identifiers. It includes languages no extractor is registered for
// (rust); Options.Languages filters those out during a scan. A path whose
// extension is absent from this map is not a candidate source file.
var extensionLanguage = map[string]string{
	".go":    "go",
	".py":    "python",
	".js":    "javascript",
	".jsx":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".java":  "java",
	".kt":    "kotlin",
	".kts":   "kotlin",
	".rb":    "ruby",
	".rs":    "rust",
	".proto": "protobuf",
}

// DetectLanguage returns the language registered for path's extension, or
// "" if the extension is not in the allow-list.
func DetectLanguage(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	return extensionLanguage[ext]
}

// SupportedLanguages returns the set of languages the allow-list covers.
func SupportedLanguages() []string {
	seen := make(map[string]bool)
	var out []string
	for _, lang := range extensionLanguage {
		if !seen[lang] {
			seen[lang] = true
			out = append(out, lang)
		}
	}
	return out
}
