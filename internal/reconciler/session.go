// Package reconciler classifies parsed transactions against the staging
// queue and the finalized ledger. The classification is the sole input to
// the importer: new rows enter staging, updates refresh staging, and any
// divergence from the ledger is a conflict that no import may resolve
// silently.
package reconciler

import (
	"context"

	"payment-import-service/internal/models"
	"payment-import-service/internal/store"
	"payment-import-service/pkg/logger"
)

// ImportSession holds the persisted-state snapshot for one reconcile
// pass: the staging and ledger rows matching the uids of the parsed
// transactions. Lookups happen once, paged, when the session is built.
type ImportSession struct {
	Provider string

	staging map[string]*models.StagingRecord
	ledger  map[string]*models.FinalizedRecord
}

// NewImportSession loads the staging and ledger rows for the given
// transactions' uids.
func NewImportSession(ctx context.Context, st store.Store, provider string, transactions []*models.Transaction) (*ImportSession, error) {
	uids := make([]string, 0, len(transactions))
	seen := make(map[string]bool, len(transactions))
	for _, tx := range transactions {
		if !seen[tx.UID] {
			seen[tx.UID] = true
			uids = append(uids, tx.UID)
		}
	}

	session := &ImportSession{
		Provider: provider,
		staging:  make(map[string]*models.StagingRecord),
		ledger:   make(map[string]*models.FinalizedRecord),
	}

	stagingRows, err := st.GetStagingByUIDs(ctx, provider, uids)
	if err != nil {
		return nil, err
	}
	for _, row := range stagingRows {
		session.staging[row.UID] = row
	}

	ledgerRows, err := st.GetLedgerByUIDs(ctx, provider, uids)
	if err != nil {
		return nil, err
	}
	for _, row := range ledgerRows {
		session.ledger[row.UID] = row
	}

	logger.GetGlobalLogger().WithComponent("reconciler").WithFields(logger.Fields{
		"provider":     provider,
		"uids":         len(uids),
		"staging_hits": len(session.staging),
		"ledger_hits":  len(session.ledger),
	}).Debug("Import session loaded")

	return session, nil
}

// Staging returns the staging row for a uid, or nil
func (s *ImportSession) Staging(uid string) *models.StagingRecord {
	return s.staging[uid]
}

// Ledger returns the finalized row for a uid, or nil
func (s *ImportSession) Ledger(uid string) *models.FinalizedRecord {
	return s.ledger[uid]
}
