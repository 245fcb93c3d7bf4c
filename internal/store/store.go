// Package store persists the import service's records. The MySQL-backed
// implementation is the production path; the in-memory implementation
// backs tests and dry runs.
package store

import (
	"context"

	"github.com/google/uuid"

	"payment-import-service/internal/models"
)

// LookupPageSize bounds the "where uid in (...)" lookups so a large
// export never produces an unbounded query parameter list.
const LookupPageSize = 500

// ContactStore reads the CRM contact snapshot for the match index
type ContactStore interface {
	ListContacts(ctx context.Context) ([]*models.Contact, error)
}

// CardLinkStore reads and records confirmed card-to-contact links
type CardLinkStore interface {
	ListCardLinks(ctx context.Context) ([]*models.CardLink, error)
	SaveCardLink(ctx context.Context, link *models.CardLink) error
}

// StagingStore manages the reconcile queue
type StagingStore interface {
	// GetStagingByUIDs returns the staging rows for the given uids,
	// querying in pages of LookupPageSize.
	GetStagingByUIDs(ctx context.Context, provider string, uids []string) ([]*models.StagingRecord, error)
	InsertStaging(ctx context.Context, record *models.StagingRecord) error
	UpdateStaging(ctx context.Context, record *models.StagingRecord) error
	DeleteStagingByBatch(ctx context.Context, batchID string) (int64, error)
}

// LedgerStore reads the finalized payments ledger. The import service
// never writes it.
type LedgerStore interface {
	GetLedgerByUIDs(ctx context.Context, provider string, uids []string) ([]*models.FinalizedRecord, error)
}

// OverrideStore manages status overrides keyed by provider and uid
type OverrideStore interface {
	UpsertOverride(ctx context.Context, override *models.StatusOverride) error
	GetOverride(ctx context.Context, provider, uid string) (*models.StatusOverride, error)
}

// BatchStore tracks import batch lifecycle
type BatchStore interface {
	CreateBatch(ctx context.Context, batch *models.ImportBatch) error
	UpdateBatch(ctx context.Context, batch *models.ImportBatch) error
	GetBatch(ctx context.Context, id uuid.UUID) (*models.ImportBatch, error)
}

// OrderStore creates orders from imported payments
type OrderStore interface {
	FindOrderMapping(ctx context.Context, description string) (*models.OrderMapping, error)
	CreateOrder(ctx context.Context, order *models.Order) error
}

// Store is the full persistence surface of the import service
type Store interface {
	ContactStore
	CardLinkStore
	StagingStore
	LedgerStore
	OverrideStore
	BatchStore
	OrderStore

	Close() error
}

// pages splits uids into LookupPageSize chunks
func pages(uids []string) [][]string {
	if len(uids) == 0 {
		return nil
	}
	out := make([][]string, 0, (len(uids)+LookupPageSize-1)/LookupPageSize)
	for start := 0; start < len(uids); start += LookupPageSize {
		end := start + LookupPageSize
		if end > len(uids) {
			end = len(uids)
		}
		out = append(out, uids[start:end])
	}
	return out
}
