// Package importer applies reconciled transactions to the staging queue.
// Application is sequential and at-least-once: every write is preceded by
// a fresh ledger check, so replaying a file after a partial failure
// converges instead of duplicating.
package importer

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ImporterConfig configures batch import behavior
type ImporterConfig struct {
	// BatchSize is the number of transactions whose ledger state is
	// re-checked in one query before their writes.
	BatchSize int

	// CreateOrders enables best-effort order creation for imported
	// payments with an active description mapping.
	CreateOrders bool

	// FeeAmountThreshold marks payment rows at or below this amount as
	// provider fee postings.
	FeeAmountThreshold decimal.Decimal

	// DryRun classifies and logs but writes nothing.
	DryRun bool
}

// DefaultImporterConfig returns the default import configuration
func DefaultImporterConfig() *ImporterConfig {
	return &ImporterConfig{
		BatchSize:          100,
		CreateOrders:       true,
		FeeAmountThreshold: decimal.NewFromInt(1),
	}
}

// Validate validates the importer configuration
func (c *ImporterConfig) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	if c.FeeAmountThreshold.IsNegative() {
		return fmt.Errorf("fee amount threshold cannot be negative")
	}
	return nil
}

// Clone returns a copy of the configuration
func (c *ImporterConfig) Clone() *ImporterConfig {
	clone := *c
	return &clone
}
