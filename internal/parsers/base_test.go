package parsers

import (
	"testing"

	"payment-import-service/pkg/errors"
)

func TestParseStatsErrorSummary(t *testing.T) {
	stats := NewParseStats()
	stats.AddError(&RowError{Line: 5, Field: FieldAmount, Value: "abc", Message: "invalid amount"})
	stats.AddError(&RowError{Line: 9, Field: FieldAmount, Value: "1,2,3", Message: "invalid amount"})
	stats.AddError(&RowError{Line: 12, Field: FieldStatus, Value: "", Message: "missing status"})

	summary := stats.ErrorSummary()
	if summary.Total != 3 {
		t.Errorf("Expected 3 errors in the summary, got %d", summary.Total)
	}
	if summary.ByCategory[errors.CategoryValidation] != 3 {
		t.Errorf("Expected 3 validation errors, got %+v", summary.ByCategory)
	}
	if summary.ByCode[errors.CodeInvalidAmount] != 2 {
		t.Errorf("Expected 2 invalid-amount errors, got %+v", summary.ByCode)
	}
	if summary.ByCode[errors.CodeMissingField] != 1 {
		t.Errorf("Expected 1 missing-field error, got %+v", summary.ByCode)
	}
}

func TestParseStatsErrorSummaryEmpty(t *testing.T) {
	summary := NewParseStats().ErrorSummary()
	if summary.Total != 0 {
		t.Errorf("Expected an empty summary, got %d", summary.Total)
	}
	if got := summary.Error(); got != "no errors" {
		t.Errorf("Unexpected empty summary message: %q", got)
	}
}

func TestRowErrorImportError(t *testing.T) {
	rowErr := &RowError{Line: 7, Field: FieldAmount, Value: "abc", Message: "invalid amount"}
	imported := rowErr.ImportError()
	if imported.Code != errors.CodeInvalidAmount {
		t.Errorf("Expected invalid-amount code for a present value, got %q", imported.Code)
	}
	if imported.Context["line"] != 7 {
		t.Errorf("Expected the line number in context, got %+v", imported.Context)
	}

	missing := &RowError{Line: 8, Field: FieldStatus, Message: "missing status"}
	if code := missing.ImportError().Code; code != errors.CodeMissingField {
		t.Errorf("Expected missing-field code for an empty value, got %q", code)
	}
}
