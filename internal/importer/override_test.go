package importer

import (
	"context"
	"testing"

	"payment-import-service/internal/models"
	"payment-import-service/internal/store"
)

func conflictTransaction(uid string, status models.CanonicalStatus) *models.Transaction {
	return &models.Transaction{
		UID:            uid,
		Provider:       "bepaid",
		Status:         status,
		RawStatus:      string(status),
		Type:           models.TypePaymentCard,
		Amount:         amount("100.00"),
		Verdict:        models.VerdictConflict,
		ConflictReason: models.ReasonStatusDiverged,
		ConflictSource: models.SourceLedger,
	}
}

func TestApplyOverrides(t *testing.T) {
	st := store.NewMemoryStore()
	st.SeedLedger(&models.FinalizedRecord{
		Provider: "bepaid", UID: "uid-1", Status: "successful", Amount: amount("100.00"),
	})
	applier := NewOverrideApplier(st)

	tx := conflictTransaction("uid-1", models.StatusRefunded)
	result := applier.ApplyOverrides(context.Background(), []*models.Transaction{tx}, "refund confirmed by support")

	if result.Applied != 1 {
		t.Fatalf("Expected 1 applied override, got %+v", result)
	}
	if tx.Outcome != models.OutcomeUpdated {
		t.Errorf("Expected updated outcome, got %q", tx.Outcome)
	}

	override, err := st.GetOverride(context.Background(), "bepaid", "uid-1")
	if err != nil || override == nil {
		t.Fatalf("Expected stored override: %v", err)
	}
	if override.ProposedStatus != "refunded" {
		t.Errorf("Expected proposed status refunded, got %q", override.ProposedStatus)
	}
	if override.OriginalStatus != "successful" {
		t.Errorf("Expected original status successful, got %q", override.OriginalStatus)
	}
	if override.Justification != "refund confirmed by support" {
		t.Errorf("Unexpected justification %q", override.Justification)
	}

	// The ledger row itself is never touched.
	rows, _ := st.GetLedgerByUIDs(context.Background(), "bepaid", []string{"uid-1"})
	if len(rows) != 1 || rows[0].Status != "successful" {
		t.Error("Override must not mutate the ledger")
	}
}

func TestApplyOverridesUpsertKeepsOriginal(t *testing.T) {
	st := store.NewMemoryStore()
	st.SeedLedger(&models.FinalizedRecord{
		Provider: "bepaid", UID: "uid-1", Status: "successful", Amount: amount("100.00"),
	})
	applier := NewOverrideApplier(st)

	first := conflictTransaction("uid-1", models.StatusRefunded)
	applier.ApplyOverrides(context.Background(), []*models.Transaction{first}, "first pass")

	second := conflictTransaction("uid-1", models.StatusFailed)
	result := applier.ApplyOverrides(context.Background(), []*models.Transaction{second}, "second pass")
	if result.Applied != 1 {
		t.Fatalf("Expected upsert to apply, got %+v", result)
	}

	override, _ := st.GetOverride(context.Background(), "bepaid", "uid-1")
	if override.ProposedStatus != "failed" {
		t.Errorf("Expected refreshed proposed status, got %q", override.ProposedStatus)
	}
	if override.OriginalStatus != "successful" {
		t.Errorf("The original status must stay pinned, got %q", override.OriginalStatus)
	}
}

func TestApplyOverridesSkipsUnresolvedStatus(t *testing.T) {
	st := store.NewMemoryStore()
	st.SeedLedger(&models.FinalizedRecord{
		Provider: "bepaid", UID: "uid-1", Status: "successful", Amount: amount("100.00"),
	})
	applier := NewOverrideApplier(st)

	tx := conflictTransaction("uid-1", models.StatusUnresolved)
	tx.RawStatus = "Какой-то новый статус"

	result := applier.ApplyOverrides(context.Background(), []*models.Transaction{tx}, "")
	if result.Skipped != 1 || result.Applied != 0 {
		t.Fatalf("Expected the unresolved status to be skipped, got %+v", result)
	}
	if tx.Outcome != models.OutcomeSkipped {
		t.Errorf("Expected skipped outcome, got %q", tx.Outcome)
	}

	override, _ := st.GetOverride(context.Background(), "bepaid", "uid-1")
	if override != nil {
		t.Error("No override may be recorded for an unresolved status")
	}
}

func TestApplyOverridesIgnoresNonStatusConflicts(t *testing.T) {
	st := store.NewMemoryStore()
	applier := NewOverrideApplier(st)

	// A ledger conflict with no status to propose is accounted for as
	// skipped rather than silently dropped.
	amountConflict := conflictTransaction("uid-1", models.StatusSuccessful)
	amountConflict.ConflictReason = models.ReasonAmountDiverged

	update := conflictTransaction("uid-2", models.StatusSuccessful)
	update.Verdict = models.VerdictUpdate
	update.ConflictReason = models.ReasonNone
	update.ConflictSource = models.SourceNone

	stagingConflict := conflictTransaction("uid-3", models.StatusSuccessful)
	stagingConflict.ConflictSource = models.SourceStaging

	result := applier.ApplyOverrides(context.Background(),
		[]*models.Transaction{amountConflict, update, stagingConflict}, "")
	if result.Applied != 0 {
		t.Errorf("Only status-diverged ledger conflicts take overrides, got %+v", result)
	}
	if result.Skipped != 1 {
		t.Errorf("Expected the amount-diverged ledger conflict to count as skipped, got %+v", result)
	}
	if amountConflict.Outcome != models.OutcomeSkipped {
		t.Errorf("Expected skipped outcome, got %q", amountConflict.Outcome)
	}
	if override, _ := st.GetOverride(context.Background(), "bepaid", "uid-1"); override != nil {
		t.Error("No override may be recorded for an amount divergence")
	}
}
