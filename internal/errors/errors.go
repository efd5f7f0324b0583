// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package errors provides the structured error taxonomy used across the
// indexing pipeline.
//
// Every error a component returns is either nil or a *PipelineError carrying
// a Category drawn from the five buckets the pipeline distinguishes:
// Discovery, Parse, Resolve, Export and Invariant. IsFatal reports whether a
// Category is project-fatal (Discovery, Export, Invariant) or merely
// diagnostic (Parse, Resolve).
//
// # Usage Example
//
//	err := errors.NewExportError(
//	    "bulk load failed",
//	    "graph database rejected the columnar batch",
//	    "inspect the staging directory and retry the load",
//	    underlyingErr,
//	)
//
// # Categories
//
//   - CategoryDiscovery: unreadable root, permission denied. Fatal for that
//     project, never fatal workspace-wide.
//   - CategoryParse: best-effort recovery; the project continues with partial
//     results plus a diagnostic.
//   - CategoryResolve: an unresolved reference or isolated resolver panic;
//     counted, not treated as a project failure.
//   - CategoryExport: bulk load or staging failure; fails the project, keeps
//     staging for diagnosis, the workspace continues.
//   - CategoryInvariant: a data-model invariant violation (duplicate node ID,
//     containment cycle). Treated as a bug: that project is aborted.
package errors

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Category is the taxonomy bucket a PipelineError belongs to, per the error
// handling design: it governs how the scheduler propagates the failure.
type Category string

const (
	CategoryDiscovery Category = "discovery"
	CategoryParse     Category = "parse"
	CategoryResolve   Category = "resolve"
	CategoryExport    Category = "export"
	CategoryInvariant Category = "invariant"
)

// PipelineError represents an error with structured context: what went
// wrong, why, and (when there is an actionable next step) how to address it.
type PipelineError struct {
	// Category is the taxonomy bucket this error belongs to.
	Category Category

	// Message describes what went wrong.
	Message string

	// Cause explains why the error occurred.
	Cause string

	// Fix is an actionable suggestion, when one exists.
	Fix string

	// Err is the underlying error, if any, for errors.Is/errors.As chains.
	Err error
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap implements error unwrapping for errors.Is/errors.As.
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether this error's category is project-fatal, per the
// propagation rules in the error handling design: Discovery, Export and
// Invariant errors abort the project; Parse and Resolve do not.
func (e *PipelineError) IsFatal() bool {
	switch e.Category {
	case CategoryDiscovery, CategoryExport, CategoryInvariant:
		return true
	default:
		return false
	}
}

func newError(cat Category, msg, cause, fix string, err error) *PipelineError {
	return &PipelineError{Category: cat, Message: msg, Cause: cause, Fix: fix, Err: err}
}

// NewDiscoveryError creates a project-fatal discovery error: unreadable
// root, missing project marker, permission denied on the working tree.
func NewDiscoveryError(msg, cause, fix string, err error) *PipelineError {
	return newError(CategoryDiscovery, msg, cause, fix, err)
}

// NewParseError creates a non-fatal parse error: the extractor recovered a
// partial result and this is attached as a diagnostic, not a project abort.
func NewParseError(msg, cause, fix string, err error) *PipelineError {
	return newError(CategoryParse, msg, cause, fix, err)
}

// NewResolveError creates a non-fatal resolve error: an isolated panic or
// unexpected condition while resolving a single Reference.
func NewResolveError(msg, cause, fix string, err error) *PipelineError {
	return newError(CategoryResolve, msg, cause, fix, err)
}

// NewExportError creates a project-fatal export error: staging or bulk-load
// failure. The staging directory is retained for diagnosis.
func NewExportError(msg, cause, fix string, err error) *PipelineError {
	return newError(CategoryExport, msg, cause, fix, err)
}

// NewInvariantError creates a project-fatal invariant violation: a bug, not
// an expected runtime condition (duplicate node ID, containment cycle).
func NewInvariantError(msg, cause string, err error) *PipelineError {
	return newError(CategoryInvariant, msg, cause, "this is a bug, please report it", err)
}

// Color definitions for error formatting, reused by cmd/cartograph.
var (
	colorError = color.New(color.FgRed, color.Bold)
	colorCause = color.New(color.FgYellow)
	colorFix   = color.New(color.FgGreen)
)

// Format returns a formatted error for terminal display. Empty Cause or Fix
// fields are omitted. Color respects NO_COLOR and the noColor parameter.
func (e *PipelineError) Format(noColor bool) string {
	originalNoColor := color.NoColor
	defer func() { color.NoColor = originalNoColor }()

	if noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	var out strings.Builder
	out.WriteString(colorError.Sprint("Error: "))
	out.WriteString(e.Message)
	out.WriteString("\n")

	if e.Cause != "" {
		out.WriteString(colorCause.Sprint("Cause: "))
		out.WriteString(e.Cause)
		out.WriteString("\n")
	}
	if e.Fix != "" {
		out.WriteString(colorFix.Sprint("Fix:   "))
		out.WriteString(e.Fix)
		out.WriteString("\n")
	}
	return out.String()
}

// JSON represents a PipelineError in JSON form, suitable for a project's
// diagnostics.jsonl stream.
type JSON struct {
	Category string `json:"category"`
	Error    string `json:"error"`
	Cause    string `json:"cause,omitempty"`
	Fix      string `json:"fix,omitempty"`
}

// ToJSON converts the PipelineError to a JSON-serializable structure.
func (e *PipelineError) ToJSON() JSON {
	return JSON{
		Category: string(e.Category),
		Error:    e.Message,
		Cause:    e.Cause,
		Fix:      e.Fix,
	}
}

// WriteJSON encodes the error as JSON to w, for diagnostics.jsonl lines or
// CLI --json output modes.
func (e *PipelineError) WriteJSON(w *json.Encoder) error {
	return w.Encode(e.ToJSON())
}
