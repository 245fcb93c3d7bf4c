// Package parsers converts payment provider exports into structured
// transactions. The file reader yields sheets of string-keyed rows with
// headers preserved verbatim; header names are resolved to logical fields
// once per sheet through the configured alias table, never per row.
package parsers

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"payment-import-service/pkg/errors"
	"payment-import-service/pkg/logger"
)

// Row is one export row keyed by the verbatim column header
type Row map[string]string

// Sheet is one sheet of an export file
type Sheet struct {
	Name    string
	Headers []string
	Rows    []Row
}

// FileReader yields the sheets of an uploaded export file
type FileReader interface {
	ReadSheets(ctx context.Context, path string) ([]Sheet, error)
}

// CSVReader reads a CSV export as a single sheet
type CSVReader struct {
	delimiter rune
	hasHeader bool
	logger    logger.Logger
}

// NewCSVReader creates a CSV file reader
func NewCSVReader(delimiter rune, hasHeader bool) *CSVReader {
	if delimiter == 0 {
		delimiter = ','
	}
	return &CSVReader{
		delimiter: delimiter,
		hasHeader: hasHeader,
		logger:    logger.GetGlobalLogger().WithComponent("csv_reader"),
	}
}

// ReadSheets implements FileReader for CSV files
func (cr *CSVReader) ReadSheets(ctx context.Context, path string) ([]Sheet, error) {
	cr.logger.WithField("file_path", path).Debug("Opening export file")

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileError(errors.CodeFileNotFound, path, err)
		}
		if os.IsPermission(err) {
			return nil, errors.FileError(errors.CodeFilePermission, path, err)
		}
		return nil, errors.FileError(errors.CodeFileCorrupted, path, err)
	}
	defer file.Close()

	if err := validateEncoding(file, path); err != nil {
		return nil, err
	}
	if _, err := file.Seek(0, 0); err != nil {
		return nil, errors.FileError(errors.CodeFileCorrupted, path, err)
	}

	reader := csv.NewReader(file)
	reader.Comma = cr.delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	var headers []string
	if cr.hasHeader {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				return nil, errors.ParseError(errors.CodeEmptyFile, path, 0, "", "", nil)
			}
			return nil, errors.ParseError(errors.CodeInvalidFormat, path, 1, "headers", "", err)
		}
		headers = make([]string, len(record))
		for i, h := range record {
			headers[i] = strings.TrimSpace(h)
		}
	}

	sheet := Sheet{Name: "export", Headers: headers}
	line := 1
	for {
		select {
		case <-ctx.Done():
			return nil, errors.InternalError(errors.CodeUnexpectedError, "file_read", ctx.Err())
		default:
		}

		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.ParseError(errors.CodeInvalidFormat, path, line+1, "record", "", err)
		}
		line++

		if isEmptyRecord(record) {
			continue
		}

		row := make(Row, len(headers))
		for i, value := range record {
			if i < len(headers) {
				row[headers[i]] = strings.TrimSpace(value)
			}
		}
		sheet.Rows = append(sheet.Rows, row)
	}

	cr.logger.WithFields(logger.Fields{
		"file_path": path,
		"rows":      len(sheet.Rows),
	}).Debug("Export file read")

	return []Sheet{sheet}, nil
}

// validateEncoding checks that the file is valid UTF-8 text. Exports saved
// from spreadsheet tools in legacy encodings break substring heuristics on
// Cyrillic labels, so this is checked up front.
func validateEncoding(file *os.File, path string) error {
	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() && line < 100 {
		line++
		if !utf8.Valid(scanner.Bytes()) {
			return errors.ParseError(
				errors.CodeEncodingError,
				path,
				line,
				"encoding",
				"",
				fmt.Errorf("invalid UTF-8 encoding detected"),
			)
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.FileError(errors.CodeFileCorrupted, path, err)
	}
	return nil
}

func isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// FieldResolver maps logical fields to the actual headers of one sheet.
// It is built once per sheet; rows are then read through it.
type FieldResolver struct {
	byField map[string]string
}

// NewFieldResolver resolves the alias table against a sheet's headers.
// The first alias present in the sheet wins; matching is case-insensitive
// on trimmed header names.
func NewFieldResolver(headers []string, aliases map[string][]string) *FieldResolver {
	index := make(map[string]string, len(headers))
	for _, h := range headers {
		index[strings.ToLower(strings.TrimSpace(h))] = h
	}

	byField := make(map[string]string, len(aliases))
	for field, names := range aliases {
		for _, name := range names {
			if actual, ok := index[strings.ToLower(strings.TrimSpace(name))]; ok {
				byField[field] = actual
				break
			}
		}
	}

	return &FieldResolver{byField: byField}
}

// Has reports whether the sheet has a column for the logical field
func (fr *FieldResolver) Has(field string) bool {
	_, ok := fr.byField[field]
	return ok
}

// Value returns the row's value for a logical field, or "" when the sheet
// has no column for it.
func (fr *FieldResolver) Value(row Row, field string) string {
	header, ok := fr.byField[field]
	if !ok {
		return ""
	}
	return strings.TrimSpace(row[header])
}

// RowError describes a row that could not be parsed
type RowError struct {
	Line    int
	Field   string
	Value   string
	Message string
	Err     error
}

func (e *RowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("row %d (%s='%s'): %s: %v", e.Line, e.Field, e.Value, e.Message, e.Err)
	}
	return fmt.Sprintf("row %d (%s='%s'): %s", e.Line, e.Field, e.Value, e.Message)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// ImportError converts the row error into the categorized form used for
// error summaries. A present-but-unparsable value is invalid data; an
// absent value is a missing field.
func (e *RowError) ImportError() *errors.ImportError {
	code := errors.CodeInvalidAmount
	if e.Value == "" {
		code = errors.CodeMissingField
	}
	return errors.ValidationError(code, e.Field, e.Value, e).
		WithContext("line", e.Line)
}

// ParseStats holds statistics about a parsing operation. Skipped rows are
// counted separately from parsed rows and from errors: a row without a uid
// or without any contact key is a deliberate skip, not a failure.
type ParseStats struct {
	TotalRows        int
	Parsed           int
	SkippedNoUID     int
	SkippedNoContact int
	ErrorCount       int
	Errors           []*RowError
}

// NewParseStats creates a new ParseStats instance
func NewParseStats() *ParseStats {
	return &ParseStats{Errors: make([]*RowError, 0)}
}

// AddError adds an error to the parsing statistics
func (ps *ParseStats) AddError(err *RowError) {
	ps.Errors = append(ps.Errors, err)
	ps.ErrorCount++
}

// Skipped returns the total number of deliberately skipped rows
func (ps *ParseStats) Skipped() int {
	return ps.SkippedNoUID + ps.SkippedNoContact
}

// String returns a human-readable summary of parsing statistics
func (ps *ParseStats) String() string {
	return fmt.Sprintf("Parsed %d of %d rows (%d skipped, %d errors)",
		ps.Parsed, ps.TotalRows, ps.Skipped(), ps.ErrorCount)
}

// ErrorSummary aggregates the collected row errors by category and code
func (ps *ParseStats) ErrorSummary() *errors.ErrorSummary {
	converted := make([]*errors.ImportError, 0, len(ps.Errors))
	for _, rowErr := range ps.Errors {
		converted = append(converted, rowErr.ImportError())
	}
	return errors.NewErrorSummary(converted)
}

// SampleErrors returns up to maxSamples error strings for logging
func (ps *ParseStats) SampleErrors(maxSamples int) []string {
	if len(ps.Errors) == 0 {
		return nil
	}
	limit := len(ps.Errors)
	if maxSamples > 0 && maxSamples < limit {
		limit = maxSamples
	}
	samples := make([]string, 0, limit)
	for i := 0; i < limit; i++ {
		samples = append(samples, ps.Errors[i].Error())
	}
	return samples
}
