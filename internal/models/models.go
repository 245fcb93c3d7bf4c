// Package models defines the transaction and record types shared by the
// parsing, matching, reconciliation and import components.
package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CanonicalStatus is one of the small fixed enumeration of transaction
// outcomes. Unrecognized raw labels stay StatusUnresolved, never a guess.
type CanonicalStatus string

const (
	StatusUnresolved CanonicalStatus = ""
	StatusSuccessful CanonicalStatus = "successful"
	StatusFailed     CanonicalStatus = "failed"
	StatusPending    CanonicalStatus = "pending"
	StatusExpired    CanonicalStatus = "expired"
	StatusRefunded   CanonicalStatus = "refunded"
)

// String returns the string representation of CanonicalStatus
func (s CanonicalStatus) String() string {
	return string(s)
}

// IsResolved reports whether the status was mapped to a known enum value
func (s CanonicalStatus) IsResolved() bool {
	switch s {
	case StatusSuccessful, StatusFailed, StatusPending, StatusExpired, StatusRefunded:
		return true
	}
	return false
}

// TransactionType classifies the kind of financial event a row represents
type TransactionType string

const (
	TypePaymentCard TransactionType = "payment_card"
	TypePaymentERIP TransactionType = "payment_erip"
	TypeRefund      TransactionType = "refund"
	TypeCancel      TransactionType = "cancel"
	TypeFee         TransactionType = "fee"
)

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// IsValid checks if the transaction type is valid
func (t TransactionType) IsValid() bool {
	switch t {
	case TypePaymentCard, TypePaymentERIP, TypeRefund, TypeCancel, TypeFee:
		return true
	}
	return false
}

// IsPayment reports whether the type is one of the payment channels
func (t TransactionType) IsPayment() bool {
	return t == TypePaymentCard || t == TypePaymentERIP
}

// MatchMethod records which identity key resolved a transaction to a contact
type MatchMethod string

const (
	MatchByExternalID MatchMethod = "external_id"
	MatchByEmail      MatchMethod = "email"
	MatchByPhone      MatchMethod = "phone"
	MatchByCard       MatchMethod = "card"
	MatchByTelegram   MatchMethod = "telegram"
	MatchByName       MatchMethod = "name"
	MatchByTranslit   MatchMethod = "name_translit"
	MatchByNone       MatchMethod = "none"
)

// Verdict is the reconciliation classification of a transaction
type Verdict string

const (
	VerdictNew      Verdict = "new"
	VerdictUpdate   Verdict = "update"
	VerdictMatch    Verdict = "match"
	VerdictConflict Verdict = "conflict"
)

// ConflictReason narrows down what diverged when a verdict is conflict
type ConflictReason string

const (
	ReasonNone           ConflictReason = ""
	ReasonStatusDiverged ConflictReason = "status_diverged"
	ReasonAmountDiverged ConflictReason = "amount_diverged"
)

// ConflictSource records which store a conflict verdict diverged from.
// Only ledger conflicts are eligible for status overrides; staging
// conflicts are resolved by updating the staging row itself.
type ConflictSource string

const (
	SourceNone    ConflictSource = ""
	SourceLedger  ConflictSource = "ledger"
	SourceStaging ConflictSource = "staging"
)

// Outcome is the per-row result of applying a transaction during import
type Outcome string

const (
	OutcomeNone    Outcome = ""
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
	OutcomeExists  Outcome = "exists"
	OutcomeSkipped Outcome = "skipped"
	OutcomeError   Outcome = "error"
)

// Transaction is the ephemeral representation of one provider export row.
// It is created by the parser, enriched by the matcher and reconciler, and
// consumed once by the importer; only its effects are persisted.
type Transaction struct {
	// Identity
	UID        string `json:"uid"`
	OrderID    string `json:"order_id,omitempty"`
	TrackingID string `json:"tracking_id,omitempty"`
	Provider   string `json:"provider"`

	// Classification
	RawStatus  string          `json:"raw_status"`
	Status     CanonicalStatus `json:"status"`
	Type       TransactionType `json:"type"`
	RawType    string          `json:"raw_type,omitempty"`
	RawMessage string          `json:"raw_message,omitempty"`

	// Financial. Amount is always a non-negative magnitude after
	// sign-normalization of cancel/refund rows.
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Fee         decimal.Decimal `json:"fee"`
	Transferred decimal.Decimal `json:"transferred"`

	// Customer
	Email       string   `json:"email,omitempty"`
	Emails      []string `json:"emails,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	Phones      []string `json:"phones,omitempty"`
	CardHolder  string   `json:"card_holder,omitempty"`
	CardLast4   string   `json:"card_last4,omitempty"`
	CardBrand   string   `json:"card_brand,omitempty"`
	Telegram    string   `json:"telegram,omitempty"`
	Address     string   `json:"address,omitempty"`
	Description string   `json:"description,omitempty"`

	// Derived by the matcher
	MatchedContactID   int64       `json:"matched_contact_id,omitempty"`
	MatchedContactName string      `json:"matched_contact_name,omitempty"`
	MatchedBy          MatchMethod `json:"matched_by"`

	// Derived by the reconciler
	Verdict        Verdict        `json:"verdict,omitempty"`
	ConflictReason ConflictReason `json:"conflict_reason,omitempty"`
	ConflictSource ConflictSource `json:"conflict_source,omitempty"`
	// SignMismatch flags rows whose amount agrees with the persisted
	// record in magnitude but not in sign. Such rows still classify as
	// match, but the flag is surfaced for operator review because a
	// sign flip on a non-refund row can hide a real discrepancy.
	SignMismatch bool `json:"sign_mismatch,omitempty"`

	// Derived by the importer
	Outcome      Outcome `json:"outcome,omitempty"`
	OutcomeError string  `json:"outcome_error,omitempty"`
	OrderCreated bool    `json:"order_created,omitempty"`
}

// Validate performs basic validation on the Transaction
func (t *Transaction) Validate() error {
	if strings.TrimSpace(t.UID) == "" {
		return fmt.Errorf("transaction uid cannot be empty")
	}

	if t.Amount.IsNegative() {
		return fmt.Errorf("transaction amount cannot be negative after normalization: %s", t.Amount)
	}

	if !t.Type.IsValid() {
		return fmt.Errorf("invalid transaction type: %s", t.Type)
	}

	return nil
}

// HasContactKey reports whether the row carries at least one addressable
// identity field. Rows without any are administrative noise and are
// skipped by the parser.
func (t *Transaction) HasContactKey() bool {
	return t.Email != "" || t.Phone != ""
}

// IsMatched reports whether the matcher resolved the row to a contact
func (t *Transaction) IsMatched() bool {
	return t.MatchedContactID != 0 && t.MatchedBy != MatchByNone
}

// String returns a string representation of the Transaction
func (t *Transaction) String() string {
	return fmt.Sprintf("Transaction{UID: %s, Status: %s, Type: %s, Amount: %s %s}",
		t.UID, t.Status, t.Type, t.Amount.String(), t.Currency)
}

// AmountEpsilon is the tolerance used when comparing persisted magnitudes
// against parsed magnitudes.
var AmountEpsilon = decimal.NewFromFloat(0.01)

// AmountComparison is the result of a sign-aware amount comparison
type AmountComparison struct {
	Equal        bool
	SignMismatch bool
}

// CompareAmounts compares two amounts within AmountEpsilon. When either
// side is negative the comparison is performed on absolute values, which
// tolerates differing refund/cancel sign conventions; in that case
// SignMismatch records that the raw signs disagreed so callers can
// surface it distinctly from a magnitude divergence.
func CompareAmounts(a, b decimal.Decimal) AmountComparison {
	signMismatch := a.Sign()*b.Sign() < 0

	left, right := a, b
	if a.IsNegative() || b.IsNegative() {
		left, right = a.Abs(), b.Abs()
	}

	diff := left.Sub(right).Abs()
	return AmountComparison{
		Equal:        diff.LessThanOrEqual(AmountEpsilon),
		SignMismatch: signMismatch,
	}
}

// ParseAmount parses a decimal amount from a provider export cell. Exports
// mix dot and comma decimal separators and may embed currency codes and
// spaces.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	cleaned := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-', r == '+':
			cleaned = append(cleaned, r)
		}
	}
	out := string(cleaned)

	// "1 234,56" style: comma is the decimal separator unless a dot is
	// already present, in which case commas are thousands separators.
	if strings.Contains(out, ",") {
		if strings.Contains(out, ".") {
			out = strings.ReplaceAll(out, ",", "")
		} else {
			out = strings.Replace(out, ",", ".", 1)
		}
	}

	d, err := decimal.NewFromString(out)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}

	return d, nil
}
