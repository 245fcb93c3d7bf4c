package parsers

import (
	"context"
	"strings"
	"time"
	"unicode"

	"payment-import-service/internal/models"
	"payment-import-service/internal/normalize"
	"payment-import-service/pkg/errors"
	"payment-import-service/pkg/logger"
)

// LedgerParser parses a payment provider export into transactions.
// Rows without a uid or without any contact key are skipped, not failed;
// a file where nothing parses aborts the session.
type LedgerParser struct {
	config *LedgerParserConfig
	reader FileReader
	logger logger.Logger
}

// NewLedgerParser creates a parser with the given configuration. A nil
// config uses the default bePaid configuration.
func NewLedgerParser(config *LedgerParserConfig) (*LedgerParser, error) {
	if config == nil {
		config = DefaultLedgerParserConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "ledger_parser", nil, err)
	}

	return &LedgerParser{
		config: config.Clone(),
		reader: NewCSVReader(config.Delimiter, config.HasHeader),
		logger: logger.GetGlobalLogger().WithComponent("ledger_parser"),
	}, nil
}

// SetReader replaces the file reader. Used to plug in readers for other
// export formats and by tests.
func (lp *LedgerParser) SetReader(reader FileReader) {
	lp.reader = reader
}

// ParseFile reads and parses a provider export file. It returns the
// parsed transactions together with the parsing statistics; row-level
// problems are collected in the stats rather than aborting the file.
func (lp *LedgerParser) ParseFile(ctx context.Context, path string) ([]*models.Transaction, *ParseStats, error) {
	start := time.Now()
	lp.logger.WithFields(logger.Fields{
		"file_path": path,
		"provider":  lp.config.Provider,
	}).Info("Parsing provider export")

	sheets, err := lp.reader.ReadSheets(ctx, path)
	if err != nil {
		return nil, nil, errors.WrapIfNeeded(err, errors.CategoryFile, errors.CodeFileCorrupted,
			"failed to read export file")
	}

	sheet, resolver := lp.selectSheet(sheets)
	if sheet == nil {
		return nil, nil, errors.ParseError(errors.CodeMissingColumn, path, 1, FieldUID, "", nil).
			WithSuggestion("Check that the file is a transaction export with a UID column")
	}

	stats := NewParseStats()
	transactions := make([]*models.Transaction, 0, len(sheet.Rows))

	var progress *logger.ProgressTracker
	if lp.config.ChunkSize > 0 && len(sheet.Rows) > lp.config.ChunkSize {
		progress = logger.NewProgressTracker(logger.ProgressConfig{
			Operation: "parse_export",
			Total:     int64(len(sheet.Rows)),
			Logger:    lp.logger,
		})
	}

	for i, row := range sheet.Rows {
		select {
		case <-ctx.Done():
			return nil, nil, errors.InternalError(errors.CodeUnexpectedError, "parse_export", ctx.Err())
		default:
		}

		stats.TotalRows++
		line := i + 2 // 1-based, after the header row

		if resolver.Value(row, FieldUID) == "" {
			stats.SkippedNoUID++
			continue
		}

		tx, rowErr := lp.ParseRow(row, resolver, line)
		if rowErr != nil {
			stats.AddError(rowErr)
			continue
		}
		if tx == nil {
			stats.SkippedNoContact++
			continue
		}

		stats.Parsed++
		transactions = append(transactions, tx)

		if progress != nil {
			progress.Increment()
		}
	}

	if progress != nil {
		progress.Complete()
	}

	if stats.Parsed == 0 {
		return nil, stats, errors.ParseError(errors.CodeEmptyFile, path, 0, "", "", nil).
			WithSuggestion("The export contains no importable transaction rows")
	}

	lp.logger.WithFields(logger.Fields{
		"file_path": path,
		"parsed":    stats.Parsed,
		"skipped":   stats.Skipped(),
		"errors":    stats.ErrorCount,
		"duration":  time.Since(start).String(),
	}).Info("Export parsed")

	if len(stats.Errors) > 0 {
		lp.logger.WithFields(logger.Fields{
			"summary": stats.ErrorSummary().Error(),
			"samples": stats.SampleErrors(5),
		}).Warn("Some rows failed to parse")
	}

	return transactions, stats, nil
}

// selectSheet picks the sheet whose headers resolve a uid column. Export
// files from spreadsheet tools can carry extra summary sheets; the one
// with transaction columns wins.
func (lp *LedgerParser) selectSheet(sheets []Sheet) (*Sheet, *FieldResolver) {
	for i := range sheets {
		resolver := NewFieldResolver(sheets[i].Headers, lp.config.Aliases)
		if resolver.Has(FieldUID) {
			return &sheets[i], resolver
		}
	}
	return nil, nil
}

// ParseRow converts one export row into a Transaction. It returns
// (nil, nil) for rows that are deliberately skipped: rows without a uid
// and rows without any contact key. Parse failures on required fields
// return a RowError.
func (lp *LedgerParser) ParseRow(row Row, resolver *FieldResolver, line int) (*models.Transaction, *RowError) {
	uid := resolver.Value(row, FieldUID)
	if uid == "" {
		return nil, nil
	}

	tx := &models.Transaction{
		UID:        uid,
		OrderID:    resolver.Value(row, FieldOrderID),
		TrackingID: resolver.Value(row, FieldTrackingID),
		Provider:   lp.config.Provider,
		RawStatus:  resolver.Value(row, FieldStatus),
		RawType:    resolver.Value(row, FieldType),
		RawMessage: resolver.Value(row, FieldMessage),
		Currency:   strings.ToUpper(resolver.Value(row, FieldCurrency)),
		MatchedBy:  models.MatchByNone,
	}

	lp.parseContacts(tx, row, resolver)
	if !tx.HasContactKey() {
		return nil, nil
	}

	tx.Status = ClassifyStatus(tx.RawStatus, tx.RawMessage)
	tx.Type = ClassifyType(tx.RawType, resolver.Value(row, FieldPaymentMethod), resolver.Value(row, FieldERIP) != "")

	if err := lp.parseAmounts(tx, row, resolver, line); err != nil {
		return nil, err
	}

	tx.CardHolder = strings.TrimSpace(resolver.Value(row, FieldCardHolder))
	tx.CardLast4 = cardLast4(resolver.Value(row, FieldCard))
	tx.CardBrand = resolver.Value(row, FieldCardBrand)
	tx.Telegram = normalize.Telegram(resolver.Value(row, FieldTelegram))
	tx.Address = resolver.Value(row, FieldAddress)
	tx.Description = resolver.Value(row, FieldDescription)

	return tx, nil
}

// parseContacts collects every email and phone value from the primary and
// alternate columns, normalizes them and deduplicates on the normalized
// form. The first valid value of each kind becomes the primary.
func (lp *LedgerParser) parseContacts(tx *models.Transaction, row Row, resolver *FieldResolver) {
	seenEmails := make(map[string]bool)
	for _, field := range []string{FieldEmail, FieldEmailAlt} {
		for _, raw := range normalize.SplitValues(resolver.Value(row, field)) {
			email := normalize.Email(raw)
			if email == "" || !strings.Contains(email, "@") || seenEmails[email] {
				continue
			}
			seenEmails[email] = true
			tx.Emails = append(tx.Emails, email)
			if tx.Email == "" {
				tx.Email = email
			}
		}
	}

	seenPhones := make(map[string]bool)
	for _, field := range []string{FieldPhone, FieldPhoneAlt} {
		for _, raw := range normalize.SplitPhones(resolver.Value(row, field)) {
			phone := normalize.Phone(raw)
			if phone == "" || seenPhones[phone] {
				continue
			}
			seenPhones[phone] = true
			tx.Phones = append(tx.Phones, phone)
			if tx.Phone == "" {
				tx.Phone = phone
			}
		}
	}
}

// parseAmounts fills the financial fields. The gross amount column is
// preferred; the transferred amount is kept separately. Amounts are
// stored as non-negative magnitudes: cancel and refund rows often carry
// a provider-side minus sign that is dropped here.
func (lp *LedgerParser) parseAmounts(tx *models.Transaction, row Row, resolver *FieldResolver, line int) *RowError {
	rawAmount := resolver.Value(row, FieldAmount)
	if rawAmount == "" {
		rawAmount = resolver.Value(row, FieldTransferred)
	}
	if rawAmount == "" {
		return &RowError{Line: line, Field: FieldAmount, Message: "amount is missing"}
	}

	amount, err := models.ParseAmount(rawAmount)
	if err != nil {
		return &RowError{Line: line, Field: FieldAmount, Value: rawAmount, Message: "invalid amount", Err: err}
	}
	tx.Amount = amount.Abs()

	if raw := resolver.Value(row, FieldFee); raw != "" {
		fee, err := models.ParseAmount(raw)
		if err != nil {
			return &RowError{Line: line, Field: FieldFee, Value: raw, Message: "invalid fee", Err: err}
		}
		tx.Fee = fee.Abs()
	}

	if raw := resolver.Value(row, FieldTransferred); raw != "" {
		transferred, err := models.ParseAmount(raw)
		if err != nil {
			return &RowError{Line: line, Field: FieldTransferred, Value: raw, Message: "invalid transferred amount", Err: err}
		}
		tx.Transferred = transferred.Abs()
	}

	return nil
}

// cardLast4 extracts the last four digits from a masked card number cell
// such as "4242 42** **** 1234" or "************1234".
func cardLast4(raw string) string {
	digits := make([]rune, 0, len(raw))
	for _, r := range raw {
		if unicode.IsDigit(r) {
			digits = append(digits, r)
		}
	}
	if len(digits) < 4 {
		return ""
	}
	return string(digits[len(digits)-4:])
}
