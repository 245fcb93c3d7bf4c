package importer

import (
	"context"

	"payment-import-service/internal/models"
	"payment-import-service/internal/store"
	"payment-import-service/pkg/logger"
)

// OverrideApplier records status overrides for ledger conflicts. The
// ledger itself is never mutated: an override is a separate row keyed by
// provider and uid that downstream reporting reads alongside the ledger.
type OverrideApplier struct {
	store  store.Store
	logger logger.Logger
}

// OverrideResult summarizes one override pass
type OverrideResult struct {
	Applied int
	Skipped int
	Errors  int
}

// NewOverrideApplier creates an override applier
func NewOverrideApplier(st store.Store) *OverrideApplier {
	return &OverrideApplier{
		store:  st,
		logger: logger.GetGlobalLogger().WithComponent("override_applier"),
	}
}

// ApplyOverrides records an override for each status-diverged ledger
// conflict. Overrides are upserts: re-running a file refreshes the
// proposed status instead of stacking rows. Ledger conflicts without a
// proposable status count as skipped: amount divergences, and rows whose
// parsed status is unresolved, where the ledger status constraint has no
// value and a guess must never be recorded.
func (oa *OverrideApplier) ApplyOverrides(ctx context.Context, conflicts []*models.Transaction, justification string) *OverrideResult {
	result := &OverrideResult{}

	for _, tx := range conflicts {
		if tx.Verdict != models.VerdictConflict || tx.ConflictSource != models.SourceLedger {
			continue
		}
		if tx.ConflictReason != models.ReasonStatusDiverged {
			// Amount divergences carry no status to propose; they stay
			// with the operator but are accounted for.
			tx.Outcome = models.OutcomeSkipped
			result.Skipped++
			continue
		}
		if !tx.Status.IsResolved() {
			tx.Outcome = models.OutcomeSkipped
			result.Skipped++
			oa.logger.WithFields(logger.Fields{
				"uid":        tx.UID,
				"raw_status": tx.RawStatus,
			}).Warn("Override skipped, parsed status is unresolved")
			continue
		}

		original, err := oa.originalStatus(ctx, tx)
		if err != nil {
			tx.Outcome = models.OutcomeError
			tx.OutcomeError = err.Error()
			result.Errors++
			continue
		}

		override := &models.StatusOverride{
			Provider:       tx.Provider,
			UID:            tx.UID,
			ProposedStatus: string(tx.Status),
			OriginalStatus: original,
			Justification:  justification,
		}
		if err := oa.store.UpsertOverride(ctx, override); err != nil {
			tx.Outcome = models.OutcomeError
			tx.OutcomeError = err.Error()
			result.Errors++
			continue
		}

		tx.Outcome = models.OutcomeUpdated
		result.Applied++
	}

	oa.logger.WithFields(logger.Fields{
		"applied": result.Applied,
		"skipped": result.Skipped,
		"errors":  result.Errors,
	}).Info("Status overrides applied")

	return result
}

// originalStatus reads the ledger status the override reinterprets. The
// first override for a uid pins the original; later upserts keep it.
func (oa *OverrideApplier) originalStatus(ctx context.Context, tx *models.Transaction) (string, error) {
	if existing, err := oa.store.GetOverride(ctx, tx.Provider, tx.UID); err != nil {
		return "", err
	} else if existing != nil {
		return existing.OriginalStatus, nil
	}

	rows, err := oa.store.GetLedgerByUIDs(ctx, tx.Provider, []string{tx.UID})
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", nil
	}
	return rows[0].Status, nil
}
