// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestPipelineError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *PipelineError
		want string
	}{
		{
			name: "message only",
			err:  &PipelineError{Category: CategoryDiscovery, Message: "cannot enumerate workspace"},
			want: "cannot enumerate workspace",
		},
		{
			name: "message with wrapped error",
			err: &PipelineError{
				Category: CategoryExport,
				Message:  "bulk load failed",
				Err:      fmt.Errorf("connection refused"),
			},
			want: "bulk load failed: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPipelineError_Unwrap(t *testing.T) {
	underlying := fmt.Errorf("disk full")

	tests := []struct {
		name string
		err  *PipelineError
		want error
	}{
		{
			name: "with underlying error",
			err:  &PipelineError{Category: CategoryExport, Message: "write failed", Err: underlying},
			want: underlying,
		},
		{
			name: "without underlying error",
			err:  &PipelineError{Category: CategoryParse, Message: "recovered from partial tree"},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Unwrap(); got != tt.want {
				t.Errorf("Unwrap() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPipelineError_IsFatal(t *testing.T) {
	tests := []struct {
		category Category
		want     bool
	}{
		{CategoryDiscovery, true},
		{CategoryExport, true},
		{CategoryInvariant, true},
		{CategoryParse, false},
		{CategoryResolve, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			err := &PipelineError{Category: tt.category, Message: "x"}
			if got := err.IsFatal(); got != tt.want {
				t.Errorf("IsFatal() for %s = %v, want %v", tt.category, got, tt.want)
			}
		})
	}
}

func TestConstructors(t *testing.T) {
	underlying := fmt.Errorf("boom")

	tests := []struct {
		name         string
		err          *PipelineError
		wantCategory Category
		wantFatal    bool
	}{
		{
			name:         "discovery error is fatal",
			err:          NewDiscoveryError("cannot read root", "permission denied", "check permissions", underlying),
			wantCategory: CategoryDiscovery,
			wantFatal:    true,
		},
		{
			name:         "parse error is not fatal",
			err:          NewParseError("partial recovery", "syntax error at byte 40", "", underlying),
			wantCategory: CategoryParse,
			wantFatal:    false,
		},
		{
			name:         "resolve error is not fatal",
			err:          NewResolveError("resolver panic isolated", "nil pointer in pass 3", "", underlying),
			wantCategory: CategoryResolve,
			wantFatal:    false,
		},
		{
			name:         "export error is fatal",
			err:          NewExportError("bulk load failed", "db rejected batch", "inspect staging dir", underlying),
			wantCategory: CategoryExport,
			wantFatal:    true,
		},
		{
			name:         "invariant error is fatal",
			err:          NewInvariantError("duplicate node id", "two definitions share an id", underlying),
			wantCategory: CategoryInvariant,
			wantFatal:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Category != tt.wantCategory {
				t.Errorf("Category = %s, want %s", tt.err.Category, tt.wantCategory)
			}
			if tt.err.IsFatal() != tt.wantFatal {
				t.Errorf("IsFatal() = %v, want %v", tt.err.IsFatal(), tt.wantFatal)
			}
			if tt.err.Err != underlying {
				t.Errorf("Err = %v, want %v", tt.err.Err, underlying)
			}
		})
	}
}

func TestInvariantError_FixIsFixed(t *testing.T) {
	err := NewInvariantError("containment cycle", "definition owns itself", nil)
	const want = "this is a bug, please report it"
	if err.Fix != want {
		t.Errorf("Fix = %q, want %q", err.Fix, want)
	}
}

func TestErrorChain(t *testing.T) {
	t.Run("errors.Is works through Unwrap", func(t *testing.T) {
		base := fmt.Errorf("disk full")
		wrapped := NewExportError("write failed", "", "", base)

		if !errors.Is(wrapped, base) {
			t.Error("errors.Is should find the underlying error through PipelineError")
		}
	})

	t.Run("errors.As extracts PipelineError", func(t *testing.T) {
		wrapped := fmt.Errorf("stage failed: %w", NewResolveError("panic isolated", "", "", nil))

		var target *PipelineError
		if !errors.As(wrapped, &target) {
			t.Fatal("errors.As should extract PipelineError")
		}
		if target.Category != CategoryResolve {
			t.Errorf("Category = %s, want %s", target.Category, CategoryResolve)
		}
	})
}

func TestPipelineError_Format(t *testing.T) {
	tests := []struct {
		name    string
		err     *PipelineError
		noColor bool
		want    []string
	}{
		{
			name: "full error with color disabled",
			err: &PipelineError{
				Category: CategoryExport,
				Message:  "cannot open database",
				Cause:    "the database file is locked",
				Fix:      "close other cartograph runs against this project",
			},
			noColor: true,
			want: []string{
				"Error: cannot open database",
				"Cause: the database file is locked",
				"Fix:   close other cartograph runs against this project",
			},
		},
		{
			name: "error without cause or fix",
			err: &PipelineError{
				Category: CategoryParse,
				Message:  "partial tree recovered",
			},
			noColor: true,
			want:    []string{"Error: partial tree recovered"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Format(tt.noColor)
			for _, want := range tt.want {
				if !contains(got, want) {
					t.Errorf("Format() = %q, want substring %q", got, want)
				}
			}
		})
	}
}

func TestPipelineError_ToJSON(t *testing.T) {
	err := &PipelineError{
		Category: CategoryDiscovery,
		Message:  "cannot enumerate workspace",
		Cause:    "permission denied",
		Fix:      "check permissions",
	}

	j := err.ToJSON()
	if j.Category != "discovery" {
		t.Errorf("Category = %q, want %q", j.Category, "discovery")
	}
	if j.Error != err.Message {
		t.Errorf("Error = %q, want %q", j.Error, err.Message)
	}
	if j.Cause != err.Cause || j.Fix != err.Fix {
		t.Errorf("Cause/Fix = %q/%q, want %q/%q", j.Cause, j.Fix, err.Cause, err.Fix)
	}
}

func contains(haystack, needle string) bool {
	return len(haystack) >= len(needle) && (needle == "" || indexOf(haystack, needle) >= 0)
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}
