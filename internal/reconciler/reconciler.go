package reconciler

import (
	"payment-import-service/internal/models"
	"payment-import-service/pkg/logger"
)

// Reconciler classifies transactions against an ImportSession
type Reconciler struct {
	session *ImportSession
	logger  logger.Logger
}

// ReconcileStats summarizes one classification pass
type ReconcileStats struct {
	Total          int
	ByVerdict      map[models.Verdict]int
	Conflicts      []*models.Transaction
	SignMismatches int
}

// NewReconciler creates a reconciler over a loaded session
func NewReconciler(session *ImportSession) *Reconciler {
	return &Reconciler{
		session: session,
		logger:  logger.GetGlobalLogger().WithComponent("reconciler"),
	}
}

// ReconcileAll classifies every transaction in place
func (r *Reconciler) ReconcileAll(transactions []*models.Transaction) *ReconcileStats {
	stats := &ReconcileStats{ByVerdict: make(map[models.Verdict]int)}

	for _, tx := range transactions {
		r.Reconcile(tx)
		stats.Total++
		stats.ByVerdict[tx.Verdict]++
		if tx.Verdict == models.VerdictConflict {
			stats.Conflicts = append(stats.Conflicts, tx)
		}
		if tx.SignMismatch {
			stats.SignMismatches++
		}
	}

	r.logger.WithFields(logger.Fields{
		"total":     stats.Total,
		"new":       stats.ByVerdict[models.VerdictNew],
		"update":    stats.ByVerdict[models.VerdictUpdate],
		"match":     stats.ByVerdict[models.VerdictMatch],
		"conflicts": stats.ByVerdict[models.VerdictConflict],
	}).Info("Reconciliation completed")

	return stats
}

// Reconcile classifies one transaction. The ledger is checked first: a
// uid present there can never be new, and any divergence from the ledger
// is a conflict. Only uids absent from the ledger are classified against
// the mutable staging queue.
func (r *Reconciler) Reconcile(tx *models.Transaction) {
	if ledger := r.session.Ledger(tx.UID); ledger != nil {
		tx.Verdict, tx.ConflictReason = r.classifyAgainstLedger(tx, ledger)
		tx.ConflictSource = conflictSource(tx.Verdict, models.SourceLedger)
		return
	}

	if staging := r.session.Staging(tx.UID); staging != nil {
		tx.Verdict, tx.ConflictReason = r.classifyAgainstStaging(tx, staging)
		tx.ConflictSource = conflictSource(tx.Verdict, models.SourceStaging)
		return
	}

	tx.Verdict = models.VerdictNew
	tx.ConflictReason = models.ReasonNone
	tx.ConflictSource = models.SourceNone
}

func conflictSource(verdict models.Verdict, source models.ConflictSource) models.ConflictSource {
	if verdict != models.VerdictConflict {
		return models.SourceNone
	}
	return source
}

func (r *Reconciler) classifyAgainstLedger(tx *models.Transaction, ledger *models.FinalizedRecord) (models.Verdict, models.ConflictReason) {
	cmp := models.CompareAmounts(tx.Amount, ledger.Amount)
	tx.SignMismatch = cmp.SignMismatch

	if string(tx.Status) != ledger.Status {
		return models.VerdictConflict, models.ReasonStatusDiverged
	}
	if !cmp.Equal {
		return models.VerdictConflict, models.ReasonAmountDiverged
	}
	return models.VerdictMatch, models.ReasonNone
}

// classifyAgainstStaging applies the same divergence rules as the ledger
// branch. Agreement is still an update when the export resolves a contact
// different from the one on the staging row, since contact linkage may
// legitimately improve between passes.
func (r *Reconciler) classifyAgainstStaging(tx *models.Transaction, staging *models.StagingRecord) (models.Verdict, models.ConflictReason) {
	cmp := models.CompareAmounts(tx.Amount, staging.Amount)
	tx.SignMismatch = cmp.SignMismatch

	if string(tx.Status) != staging.Status {
		return models.VerdictConflict, models.ReasonStatusDiverged
	}
	if !cmp.Equal {
		return models.VerdictConflict, models.ReasonAmountDiverged
	}

	if tx.IsMatched() && tx.MatchedContactID != staging.ContactID {
		return models.VerdictUpdate, models.ReasonNone
	}
	return models.VerdictMatch, models.ReasonNone
}
