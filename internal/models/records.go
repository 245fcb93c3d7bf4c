package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Contact is a CRM contact. Owned by the CRM side of the system; the
// import service only reads it when building the match index.
type Contact struct {
	ID         int64                      `gorm:"primaryKey" json:"id"`
	ExternalID string                     `gorm:"index" json:"external_id,omitempty"`
	Name       string                     `json:"name"`
	Email      string                     `gorm:"index" json:"email,omitempty"`
	AltEmails  datatypes.JSONSlice[string] `json:"alt_emails,omitempty"`
	Phone      string                     `gorm:"index" json:"phone,omitempty"`
	AltPhones  datatypes.JSONSlice[string] `json:"alt_phones,omitempty"`
	Telegram   string                     `json:"telegram,omitempty"`
	CreatedAt  time.Time                  `json:"created_at"`
	UpdatedAt  time.Time                  `json:"updated_at"`
}

// AllEmails returns the primary and alternate emails as one slice
func (c *Contact) AllEmails() []string {
	out := make([]string, 0, 1+len(c.AltEmails))
	if c.Email != "" {
		out = append(out, c.Email)
	}
	return append(out, c.AltEmails...)
}

// AllPhones returns the primary and alternate phones as one slice
func (c *Contact) AllPhones() []string {
	out := make([]string, 0, 1+len(c.AltPhones))
	if c.Phone != "" {
		out = append(out, c.Phone)
	}
	return append(out, c.AltPhones...)
}

// CardLink remembers a (card last-4, holder name) pair an operator
// confirmed for a contact, so future card-only payments without an email
// match directly.
type CardLink struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	CardLast4  string    `gorm:"size:4;uniqueIndex:idx_card_holder" json:"card_last4"`
	HolderName string    `gorm:"size:191;uniqueIndex:idx_card_holder" json:"holder_name"`
	ContactID  int64     `gorm:"index" json:"contact_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// StagingRecord is one reconcile-queue row per provider transaction uid,
// awaiting classification or posting. It carries a denormalized snapshot
// of the transaction plus the full parsed payload for audit.
type StagingRecord struct {
	ID          int64           `gorm:"primaryKey" json:"id"`
	Provider    string          `gorm:"size:32;uniqueIndex:idx_provider_uid" json:"provider"`
	UID         string          `gorm:"size:64;uniqueIndex:idx_provider_uid" json:"uid"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2)" json:"amount"`
	Currency    string          `gorm:"size:3" json:"currency"`
	Status      string          `gorm:"size:16" json:"status"`
	RawStatus   string          `json:"raw_status,omitempty"`
	Type        string          `gorm:"size:16" json:"type"`
	ContactID   int64           `gorm:"index" json:"contact_id,omitempty"`
	ContactName string          `json:"contact_name,omitempty"`
	IsFee       bool            `json:"is_fee"`
	BatchID     string          `gorm:"size:36;index" json:"batch_id"`
	Payload     datatypes.JSON  `json:"payload,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// FinalizedRecord is one payments-ledger row per posted transaction uid.
// Once present it is the ledger of record; the reconciler treats any
// divergence from it as a conflict, never a silent update.
type FinalizedRecord struct {
	ID        int64           `gorm:"primaryKey" json:"id"`
	Provider  string          `gorm:"size:32;uniqueIndex:idx_ledger_provider_uid" json:"provider"`
	UID       string          `gorm:"size:64;uniqueIndex:idx_ledger_provider_uid" json:"uid"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2)" json:"amount"`
	Currency  string          `gorm:"size:3" json:"currency"`
	// Status carries a database check constraint over the canonical
	// status enumeration; the override applier refuses unresolved
	// statuses because of it.
	Status    string    `gorm:"size:16;check:status IN ('successful','failed','pending','expired','refunded')" json:"status"`
	Type      string    `gorm:"size:16" json:"type"`
	ContactID int64     `gorm:"index" json:"contact_id,omitempty"`
	PostedAt  time.Time `json:"posted_at"`
	CreatedAt time.Time `json:"created_at"`
}

// StatusOverride records an operator-approved reinterpretation of a
// finalized record's status without mutating ledger history.
type StatusOverride struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	Provider       string    `gorm:"size:32;uniqueIndex:idx_override_provider_uid" json:"provider"`
	UID            string    `gorm:"size:64;uniqueIndex:idx_override_provider_uid" json:"uid"`
	ProposedStatus string    `gorm:"size:16" json:"proposed_status"`
	OriginalStatus string    `gorm:"size:16" json:"original_status"`
	Justification  string    `json:"justification"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// BatchStatus enumerates the lifecycle of an import batch
type BatchStatus string

const (
	BatchPending    BatchStatus = "pending"
	BatchProcessing BatchStatus = "processing"
	BatchCompleted  BatchStatus = "completed"
	BatchFailed     BatchStatus = "failed"
	BatchRolledBack BatchStatus = "rolled_back"
)

// ImportBatch tracks one bulk-import run for progress reporting and for
// rollback (delete staging rows by batch id).
type ImportBatch struct {
	ID          uuid.UUID   `gorm:"type:char(36);primaryKey" json:"id"`
	FileName    string      `json:"file_name"`
	Total       int         `json:"total"`
	Processed   int         `json:"processed"`
	Created     int         `json:"created"`
	Updated     int         `json:"updated"`
	Skipped     int         `json:"skipped"`
	Errors      int         `json:"errors"`
	Status      BatchStatus `gorm:"size:16" json:"status"`
	StartedAt   time.Time   `json:"started_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// OrderMapping links a provider payment description to a product/tariff
// pair for auto order creation after import.
type OrderMapping struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Description string    `gorm:"size:191;index" json:"description"`
	ProductID   int64     `json:"product_id"`
	TariffID    int64     `json:"tariff_id"`
	Active      bool      `gorm:"index" json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Order is a commercial order created from an imported staging record.
// Order creation is best-effort and independently retryable by staging
// record id.
type Order struct {
	ID              int64     `gorm:"primaryKey" json:"id"`
	StagingRecordID int64     `gorm:"uniqueIndex" json:"staging_record_id"`
	ContactID       int64     `gorm:"index" json:"contact_id"`
	ProductID       int64     `json:"product_id"`
	TariffID        int64     `json:"tariff_id"`
	CreatedAt       time.Time `json:"created_at"`
}
