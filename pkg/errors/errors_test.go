package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestImportErrorFormatting(t *testing.T) {
	err := ParseError(CodeInvalidFormat, "export.csv", 12, "amount", "abc",
		fmt.Errorf("bad decimal"))

	msg := err.Error()
	if !strings.Contains(msg, "export.csv") {
		t.Errorf("Error message must name the file: %s", msg)
	}
	if err.Category != CategoryParse {
		t.Errorf("Expected parse category, got %s", err.Category)
	}
	if err.Code != CodeInvalidFormat {
		t.Errorf("Expected invalid_format code, got %s", err.Code)
	}
	if err.Context["line"] != 12 {
		t.Errorf("Expected line in context, got %v", err.Context)
	}
	if err.Unwrap() == nil {
		t.Error("Expected the cause to be wrapped")
	}
}

func TestWithContextAndSuggestion(t *testing.T) {
	err := New(CategoryImport, CodeBatchFailed, "batch failed").
		WithContext("batch_id", "abc").
		WithSuggestion("retry the import")

	if err.Context["batch_id"] != "abc" {
		t.Errorf("Context not recorded: %v", err.Context)
	}
	if err.Suggestion != "retry the import" {
		t.Errorf("Suggestion not recorded: %q", err.Suggestion)
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		category ErrorCategory
		expected int
	}{
		{CategoryFile, 2},
		{CategoryParse, 3},
		{CategoryValidation, 3},
		{CategoryConfiguration, 4},
		{CategoryMatch, 5},
		{CategoryImport, 5},
		{CategoryInternal, 5},
		{CategoryStore, 6},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			err := New(tt.category, CodeUnexpectedError, "test")
			if got := err.GetExitCode(); got != tt.expected {
				t.Errorf("GetExitCode() for %s = %d, expected %d", tt.category, got, tt.expected)
			}
		})
	}
}

func TestAsImportError(t *testing.T) {
	importErr := FileError(CodeFileNotFound, "missing.csv", nil)

	if got, ok := AsImportError(importErr); !ok || got != importErr {
		t.Error("AsImportError must recover the typed error")
	}
	if _, ok := AsImportError(fmt.Errorf("plain")); ok {
		t.Error("AsImportError must reject plain errors")
	}
	if !IsImportError(importErr) {
		t.Error("IsImportError must recognize typed errors")
	}
}

func TestWrapIfNeeded(t *testing.T) {
	original := StoreError(CodeQueryFailed, "list_contacts", fmt.Errorf("timeout"))
	if got := WrapIfNeeded(original, CategoryInternal, CodeUnexpectedError, "other"); got != original {
		t.Error("WrapIfNeeded must not rewrap a typed error")
	}

	plain := fmt.Errorf("plain failure")
	wrapped := WrapIfNeeded(plain, CategoryStore, CodeQueryFailed, "query failed")
	if wrapped.Category != CategoryStore {
		t.Errorf("Expected store category, got %s", wrapped.Category)
	}
}

func TestErrorSummary(t *testing.T) {
	errs := []*ImportError{
		FileError(CodeFileNotFound, "a.csv", nil),
		ParseError(CodeInvalidFormat, "b.csv", 1, "", "", nil),
		ParseError(CodeInvalidFormat, "b.csv", 2, "", "", nil),
	}
	summary := NewErrorSummary(errs)

	if summary.Total != 3 {
		t.Errorf("Expected 3 errors, got %d", summary.Total)
	}
	if summary.ByCategory[CategoryParse] != 2 {
		t.Errorf("Expected 2 parse errors, got %d", summary.ByCategory[CategoryParse])
	}
	if !summary.HasCategory(CategoryFile) {
		t.Error("Expected file category present")
	}
	// The highest-priority exit code wins: parse (3) over file (2).
	if got := summary.GetExitCode(); got != 3 {
		t.Errorf("Expected exit code 3, got %d", got)
	}
}
