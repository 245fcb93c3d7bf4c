package reporter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"payment-import-service/internal/importer"
	"payment-import-service/internal/matcher"
	"payment-import-service/internal/models"
	"payment-import-service/internal/reconciler"
)

func createTestReport() *Report {
	conflict := &models.Transaction{
		UID:            "uid-9",
		Status:         models.StatusRefunded,
		Amount:         decimal.NewFromInt(100),
		Currency:       "BYN",
		Verdict:        models.VerdictConflict,
		ConflictReason: models.ReasonStatusDiverged,
		ConflictSource: models.SourceLedger,
	}
	return &Report{
		FileName: "export.csv",
		Match:    &matcher.MatchStats{Total: 10, Matched: 8, Unmatched: 2},
		Reconcile: &reconciler.ReconcileStats{
			Total: 10,
			ByVerdict: map[models.Verdict]int{
				models.VerdictNew:      5,
				models.VerdictConflict: 1,
			},
			Conflicts: []*models.Transaction{conflict},
		},
		Import: &importer.ImportResult{Created: 5, Skipped: 4, Errors: 1},
		Unmatched: []UnmatchedRow{
			{UID: "uid-2", CardHolder: "IVAN PETROF", Suggestions: []matcher.Suggestion{
				{ContactID: 1, Name: "Иван Петров", Distance: 1},
			}},
		},
	}
}

func TestConsoleReport(t *testing.T) {
	var buf bytes.Buffer
	reporter, err := NewReporter(FormatConsole, &buf)
	if err != nil {
		t.Fatalf("NewReporter failed: %v", err)
	}

	if err := reporter.Write(createTestReport()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"export.csv",
		"8 of 10 resolved",
		"5 new",
		"1 conflict",
		"uid-9",
		"status_diverged",
		"Иван Петров",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Console report missing %q:\n%s", want, out)
		}
	}
}

func TestJSONReport(t *testing.T) {
	var buf bytes.Buffer
	reporter, err := NewReporter(FormatJSON, &buf)
	if err != nil {
		t.Fatalf("NewReporter failed: %v", err)
	}

	if err := reporter.Write(createTestReport()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	var decoded Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Report is not valid JSON: %v", err)
	}
	if decoded.FileName != "export.csv" {
		t.Errorf("Unexpected file name %q", decoded.FileName)
	}
	if decoded.Import == nil || decoded.Import.Created != 5 {
		t.Errorf("Import section not round-tripped: %+v", decoded.Import)
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if _, err := NewReporter(Format("xml"), &bytes.Buffer{}); err == nil {
		t.Fatal("Expected an error for an unsupported format")
	}
}
