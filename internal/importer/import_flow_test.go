package importer

import (
	"context"
	"testing"

	"payment-import-service/internal/matcher"
	"payment-import-service/internal/models"
	"payment-import-service/internal/parsers"
	"payment-import-service/internal/reconciler"
	"payment-import-service/internal/store"
)

// exportFile feeds an in-memory export sheet to the parser.
type exportFile struct {
	sheets []parsers.Sheet
}

func (f *exportFile) ReadSheets(ctx context.Context, path string) ([]parsers.Sheet, error) {
	return f.sheets, nil
}

// A provider export can repeat a uid, typically when a payment was
// retried. When the first occurrence is already finalized, the repeat
// with a different status must surface as a ledger conflict and its
// override must never rewrite the ledger row itself.
func TestImportFlowDuplicateUIDAgainstLedger(t *testing.T) {
	ctx := context.Background()

	st := store.NewMemoryStore()
	st.SeedContacts(&models.Contact{ID: 1, Name: "Анна", Email: "a@x.com"})
	st.SeedLedger(&models.FinalizedRecord{
		Provider: "bepaid",
		UID:      "U1",
		Status:   "successful",
		Amount:   amount("100.00"),
		Currency: "BYN",
	})

	parser, err := parsers.NewLedgerParser(nil)
	if err != nil {
		t.Fatalf("NewLedgerParser failed: %v", err)
	}
	parser.SetReader(&exportFile{sheets: []parsers.Sheet{{
		Name:    "Transactions",
		Headers: []string{"UID", "Статус", "Сумма", "Email"},
		Rows: []parsers.Row{
			{"UID": "U1", "Статус": "Успешно", "Сумма": "100.00", "Email": "a@x.com"},
			{"UID": "U1", "Статус": "Ошибка", "Сумма": "100.00", "Email": "a@x.com"},
		},
	}}})

	transactions, stats, err := parser.ParseFile(ctx, "export.csv")
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if stats.Parsed != 2 || len(transactions) != 2 {
		t.Fatalf("Expected 2 parsed rows, got %d (%+v)", len(transactions), stats)
	}

	m, err := matcher.NewMatcher(matcher.BuildIndex(
		[]*models.Contact{{ID: 1, Name: "Анна", Email: "a@x.com"}}, nil), nil)
	if err != nil {
		t.Fatalf("NewMatcher failed: %v", err)
	}
	m.MatchAll(transactions)
	for _, tx := range transactions {
		if tx.MatchedContactID != 1 {
			t.Fatalf("Expected uid %s to match contact 1, got %d", tx.UID, tx.MatchedContactID)
		}
	}

	session, err := reconciler.NewImportSession(ctx, st, "bepaid", transactions)
	if err != nil {
		t.Fatalf("NewImportSession failed: %v", err)
	}
	recStats := reconciler.NewReconciler(session).ReconcileAll(transactions)

	if transactions[0].Verdict != models.VerdictMatch {
		t.Errorf("Expected the successful row to match the ledger, got %q", transactions[0].Verdict)
	}
	if transactions[1].Verdict != models.VerdictConflict {
		t.Fatalf("Expected the failed row to conflict, got %q", transactions[1].Verdict)
	}
	if transactions[1].ConflictReason != models.ReasonStatusDiverged {
		t.Errorf("Expected status divergence, got %q", transactions[1].ConflictReason)
	}
	if transactions[1].ConflictSource != models.SourceLedger {
		t.Errorf("Expected a ledger conflict, got %q", transactions[1].ConflictSource)
	}
	if len(recStats.Conflicts) != 1 {
		t.Fatalf("Expected 1 conflict, got %d", len(recStats.Conflicts))
	}

	result := NewOverrideApplier(st).ApplyOverrides(ctx, recStats.Conflicts, "duplicate export row")
	if result.Applied != 1 {
		t.Fatalf("Expected 1 override applied, got %+v", result)
	}

	override, err := st.GetOverride(ctx, "bepaid", "U1")
	if err != nil {
		t.Fatalf("GetOverride failed: %v", err)
	}
	if override == nil {
		t.Fatal("Expected an override for U1")
	}
	if override.ProposedStatus != "failed" || override.OriginalStatus != "successful" {
		t.Errorf("Unexpected override: %+v", override)
	}

	// The ledger row itself stays as posted.
	ledger, err := st.GetLedgerByUIDs(ctx, "bepaid", []string{"U1"})
	if err != nil {
		t.Fatalf("GetLedgerByUIDs failed: %v", err)
	}
	if len(ledger) != 1 || ledger[0].Status != "successful" || !ledger[0].Amount.Equal(amount("100.00")) {
		t.Errorf("The ledger row must be untouched, got %+v", ledger)
	}
}
