package importer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"payment-import-service/internal/models"
	"payment-import-service/internal/store"
	"payment-import-service/pkg/errors"
	"payment-import-service/pkg/logger"
)

// Importer applies reconciled transactions to the staging queue
type Importer struct {
	config *ImporterConfig
	store  store.Store
	logger logger.Logger
}

// ImportResult summarizes one import run
type ImportResult struct {
	BatchID   uuid.UUID
	Total     int
	Created   int
	Updated   int
	Exists    int
	Skipped   int
	Errors    int
	Orders    int
	Duration  time.Duration
	RowErrors []string
}

// NewImporter creates an importer. A nil config uses the defaults.
func NewImporter(st store.Store, config *ImporterConfig) (*Importer, error) {
	if config == nil {
		config = DefaultImporterConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "importer", nil, err)
	}

	return &Importer{
		config: config.Clone(),
		store:  st,
		logger: logger.GetGlobalLogger().WithComponent("importer"),
	}, nil
}

// ImportSelected applies the selected transactions sequentially in
// fixed-size batches. Each batch's ledger state is re-checked immediately
// before its writes: a uid that reached the ledger since reconciliation
// gets the exists outcome instead of a write. New rows are inserted into
// staging; update and conflict rows refresh the existing staging row and
// never insert; matches are confirmations and are not written. Row
// failures are recorded and the run continues.
func (im *Importer) ImportSelected(ctx context.Context, transactions []*models.Transaction, fileName string) (*ImportResult, error) {
	start := time.Now()
	batch := &models.ImportBatch{
		ID:        uuid.New(),
		FileName:  fileName,
		Total:     len(transactions),
		Status:    models.BatchProcessing,
		StartedAt: start,
	}
	result := &ImportResult{BatchID: batch.ID, Total: len(transactions)}

	if im.config.DryRun {
		im.logger.WithField("total", len(transactions)).Info("Dry run, nothing will be written")
		for _, tx := range transactions {
			tx.Outcome = models.OutcomeSkipped
			result.Skipped++
		}
		result.Duration = time.Since(start)
		return result, nil
	}

	if err := im.store.CreateBatch(ctx, batch); err != nil {
		return nil, err
	}

	progress := logger.NewProgressTracker(logger.ProgressConfig{
		Operation: "import",
		Total:     int64(len(transactions)),
		Logger:    im.logger,
	})

	for begin := 0; begin < len(transactions); begin += im.config.BatchSize {
		end := begin + im.config.BatchSize
		if end > len(transactions) {
			end = len(transactions)
		}
		chunk := transactions[begin:end]

		select {
		case <-ctx.Done():
			im.failBatch(ctx, batch)
			return result, errors.BatchError(errors.CodeBatchFailed, batch.ID.String(), ctx.Err())
		default:
		}

		ledger, err := im.freshLedger(ctx, chunk)
		if err != nil {
			im.failBatch(ctx, batch)
			return result, err
		}

		for _, tx := range chunk {
			im.applyOne(ctx, tx, ledger, batch, result)
			batch.Processed++
			progress.Increment()
		}

		im.syncBatch(ctx, batch)
	}

	progress.Complete()

	batch.Status = models.BatchCompleted
	if result.Errors > 0 {
		batch.Status = models.BatchFailed
	}
	now := time.Now()
	batch.CompletedAt = &now
	im.syncBatch(ctx, batch)

	result.Duration = time.Since(start)
	im.logger.WithFields(logger.Fields{
		"batch_id": batch.ID.String(),
		"created":  result.Created,
		"updated":  result.Updated,
		"exists":   result.Exists,
		"skipped":  result.Skipped,
		"errors":   result.Errors,
		"orders":   result.Orders,
		"duration": result.Duration.String(),
	}).Info("Import completed")

	return result, nil
}

// freshLedger re-reads the ledger rows for one chunk's uids
func (im *Importer) freshLedger(ctx context.Context, chunk []*models.Transaction) (map[string]*models.FinalizedRecord, error) {
	uids := make([]string, 0, len(chunk))
	for _, tx := range chunk {
		uids = append(uids, tx.UID)
	}
	rows, err := im.store.GetLedgerByUIDs(ctx, providerOf(chunk), uids)
	if err != nil {
		return nil, err
	}
	ledger := make(map[string]*models.FinalizedRecord, len(rows))
	for _, row := range rows {
		ledger[row.UID] = row
	}
	return ledger, nil
}

func providerOf(chunk []*models.Transaction) string {
	if len(chunk) == 0 {
		return ""
	}
	return chunk[0].Provider
}

func (im *Importer) applyOne(ctx context.Context, tx *models.Transaction, ledger map[string]*models.FinalizedRecord, batch *models.ImportBatch, result *ImportResult) {
	// The ledger may have gained this uid since reconciliation; a write
	// now would duplicate a posted payment.
	if _, posted := ledger[tx.UID]; posted {
		tx.Outcome = models.OutcomeExists
		result.Exists++
		batch.Skipped++
		return
	}

	switch tx.Verdict {
	case models.VerdictNew:
		im.applyNew(ctx, tx, batch, result)
	case models.VerdictUpdate, models.VerdictConflict:
		// Ledger conflicts are caught by the posted check above; this
		// path only refreshes existing staging rows.
		im.applyUpdate(ctx, tx, batch, result)
	case models.VerdictMatch:
		tx.Outcome = models.OutcomeSkipped
		result.Skipped++
		batch.Skipped++
	default:
		tx.Outcome = models.OutcomeError
		tx.OutcomeError = "transaction was not reconciled"
		result.Errors++
		batch.Errors++
	}
}

func (im *Importer) applyNew(ctx context.Context, tx *models.Transaction, batch *models.ImportBatch, result *ImportResult) {
	record := im.buildStagingRecord(tx, batch.ID.String())
	if err := im.store.InsertStaging(ctx, record); err != nil {
		im.recordError(tx, batch, result, err)
		return
	}

	tx.Outcome = models.OutcomeCreated
	result.Created++
	batch.Created++

	im.rememberCardLink(ctx, tx)
	if im.config.CreateOrders {
		im.tryCreateOrder(ctx, tx, record, result)
	}
}

func (im *Importer) applyUpdate(ctx context.Context, tx *models.Transaction, batch *models.ImportBatch, result *ImportResult) {
	existing, err := im.store.GetStagingByUIDs(ctx, tx.Provider, []string{tx.UID})
	if err != nil {
		im.recordError(tx, batch, result, err)
		return
	}
	if len(existing) == 0 {
		// The staging row vanished between reconciliation and now,
		// possibly through a concurrent rollback. An update never
		// inserts; the uid is reclassified on the next run.
		tx.Outcome = models.OutcomeSkipped
		result.Skipped++
		batch.Skipped++
		return
	}

	record := existing[0]
	record.Amount = tx.Amount
	record.Currency = tx.Currency
	record.Status = string(tx.Status)
	record.RawStatus = tx.RawStatus
	record.Type = string(tx.Type)
	record.IsFee = im.isFee(tx)
	if tx.IsMatched() {
		record.ContactID = tx.MatchedContactID
		record.ContactName = tx.MatchedContactName
	}
	if payload, err := json.Marshal(tx); err == nil {
		record.Payload = payload
	}

	if err := im.store.UpdateStaging(ctx, record); err != nil {
		im.recordError(tx, batch, result, err)
		return
	}

	tx.Outcome = models.OutcomeUpdated
	result.Updated++
	batch.Updated++

	im.rememberCardLink(ctx, tx)
}

// rememberCardLink persists a (card last4, holder name) to contact
// mapping when a row resolved through a non-card key carries card data.
// Future exports where the card is the only identity then match
// directly. Best-effort: a failed save is logged, never a row error.
func (im *Importer) rememberCardLink(ctx context.Context, tx *models.Transaction) {
	if !tx.IsMatched() || tx.MatchedBy == models.MatchByCard {
		return
	}
	if tx.CardLast4 == "" || tx.CardHolder == "" {
		return
	}

	link := &models.CardLink{
		CardLast4:  tx.CardLast4,
		HolderName: tx.CardHolder,
		ContactID:  tx.MatchedContactID,
	}
	if err := im.store.SaveCardLink(ctx, link); err != nil {
		im.logger.WithError(err).WithField("uid", tx.UID).Warn("Failed to save card link")
	}
}

func (im *Importer) buildStagingRecord(tx *models.Transaction, batchID string) *models.StagingRecord {
	record := &models.StagingRecord{
		Provider:    tx.Provider,
		UID:         tx.UID,
		Amount:      tx.Amount,
		Currency:    tx.Currency,
		Status:      string(tx.Status),
		RawStatus:   tx.RawStatus,
		Type:        string(tx.Type),
		ContactID:   tx.MatchedContactID,
		ContactName: tx.MatchedContactName,
		IsFee:       im.isFee(tx),
		BatchID:     batchID,
	}
	if payload, err := json.Marshal(tx); err == nil {
		record.Payload = payload
	}
	return record
}

// isFee marks provider fee postings. Refunds are never fees whatever
// their size; cancels always are; other non-payment rows are fees only
// at or below the threshold. Payments are never fees.
func (im *Importer) isFee(tx *models.Transaction) bool {
	switch tx.Type {
	case models.TypeRefund:
		return false
	case models.TypeCancel:
		return true
	}
	if tx.Type.IsPayment() {
		return false
	}
	return tx.Amount.LessThanOrEqual(im.config.FeeAmountThreshold)
}

// tryCreateOrder creates an order for an imported payment when an active
// description mapping exists. Failures degrade to a log line; order
// creation never fails the import of the payment itself.
func (im *Importer) tryCreateOrder(ctx context.Context, tx *models.Transaction, record *models.StagingRecord, result *ImportResult) {
	if !tx.IsMatched() || !tx.Type.IsPayment() || tx.Status != models.StatusSuccessful || tx.Description == "" {
		return
	}

	mapping, err := im.store.FindOrderMapping(ctx, tx.Description)
	if err != nil || mapping == nil {
		if err != nil {
			im.logger.WithError(err).WithField("uid", tx.UID).Warn("Order mapping lookup failed")
		}
		return
	}

	order := &models.Order{
		StagingRecordID: record.ID,
		ContactID:       tx.MatchedContactID,
		ProductID:       mapping.ProductID,
		TariffID:        mapping.TariffID,
	}
	if err := im.store.CreateOrder(ctx, order); err != nil {
		im.logger.WithError(err).WithField("uid", tx.UID).Warn("Order creation failed")
		return
	}

	tx.OrderCreated = true
	result.Orders++
}

func (im *Importer) recordError(tx *models.Transaction, batch *models.ImportBatch, result *ImportResult, err error) {
	tx.Outcome = models.OutcomeError
	tx.OutcomeError = err.Error()
	result.Errors++
	batch.Errors++
	result.RowErrors = append(result.RowErrors, tx.UID+": "+err.Error())
	im.logger.WithError(err).WithField("uid", tx.UID).Error("Failed to apply transaction")
}

func (im *Importer) syncBatch(ctx context.Context, batch *models.ImportBatch) {
	if err := im.store.UpdateBatch(ctx, batch); err != nil {
		im.logger.WithError(err).WithField("batch_id", batch.ID.String()).Warn("Failed to update batch progress")
	}
}

func (im *Importer) failBatch(ctx context.Context, batch *models.ImportBatch) {
	batch.Status = models.BatchFailed
	now := time.Now()
	batch.CompletedAt = &now
	im.syncBatch(ctx, batch)
}

// Rollback deletes the staging rows created by a batch and marks it
// rolled back. Updates applied to preexisting staging rows are not
// reverted; only rows the batch created are removed.
func (im *Importer) Rollback(ctx context.Context, batchID uuid.UUID) (int64, error) {
	batch, err := im.store.GetBatch(ctx, batchID)
	if err != nil {
		return 0, err
	}
	if batch == nil {
		return 0, errors.BatchError(errors.CodeRollbackFailed, batchID.String(),
			nil).WithSuggestion("Check the batch id; it was never recorded")
	}
	if batch.Status == models.BatchRolledBack {
		return 0, nil
	}

	deleted, err := im.store.DeleteStagingByBatch(ctx, batchID.String())
	if err != nil {
		return 0, errors.BatchError(errors.CodeRollbackFailed, batchID.String(), err)
	}

	batch.Status = models.BatchRolledBack
	if err := im.store.UpdateBatch(ctx, batch); err != nil {
		return deleted, err
	}

	im.logger.WithFields(logger.Fields{
		"batch_id": batchID.String(),
		"deleted":  deleted,
	}).Info("Batch rolled back")

	return deleted, nil
}
