// Package reporter renders the outcome of an import run for operators,
// as console text or JSON.
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"payment-import-service/internal/importer"
	"payment-import-service/internal/matcher"
	"payment-import-service/internal/models"
	"payment-import-service/internal/parsers"
	"payment-import-service/internal/reconciler"
)

// Format selects the report output format
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

// Report aggregates the stages of one import run
type Report struct {
	FileName    string                     `json:"file_name"`
	GeneratedAt time.Time                  `json:"generated_at"`
	Parse       *parsers.ParseStats        `json:"parse,omitempty"`
	Match       *matcher.MatchStats        `json:"match,omitempty"`
	Reconcile   *reconciler.ReconcileStats `json:"reconcile,omitempty"`
	Import      *importer.ImportResult     `json:"import,omitempty"`
	Overrides   *importer.OverrideResult   `json:"overrides,omitempty"`

	// Unmatched rows with their operator suggestions.
	Unmatched []UnmatchedRow `json:"unmatched,omitempty"`
}

// UnmatchedRow is one unresolved transaction with name suggestions
type UnmatchedRow struct {
	UID         string               `json:"uid"`
	CardHolder  string               `json:"card_holder,omitempty"`
	Email       string               `json:"email,omitempty"`
	Phone       string               `json:"phone,omitempty"`
	Suggestions []matcher.Suggestion `json:"suggestions,omitempty"`
}

// Reporter writes reports to an output stream
type Reporter struct {
	format Format
	out    io.Writer
}

// NewReporter creates a reporter for the given format
func NewReporter(format Format, out io.Writer) (*Reporter, error) {
	switch format {
	case FormatConsole, FormatJSON:
	default:
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
	return &Reporter{format: format, out: out}, nil
}

// CollectUnmatched gathers unmatched transactions and their suggestions
func CollectUnmatched(transactions []*models.Transaction, m *matcher.Matcher) []UnmatchedRow {
	var out []UnmatchedRow
	for _, tx := range transactions {
		if tx.IsMatched() {
			continue
		}
		row := UnmatchedRow{
			UID:        tx.UID,
			CardHolder: tx.CardHolder,
			Email:      tx.Email,
			Phone:      tx.Phone,
		}
		if m != nil && tx.CardHolder != "" {
			row.Suggestions = m.Suggest(tx.CardHolder)
		}
		out = append(out, row)
	}
	return out
}

// Write renders the report
func (r *Reporter) Write(report *Report) error {
	if report.GeneratedAt.IsZero() {
		report.GeneratedAt = time.Now()
	}
	if r.format == FormatJSON {
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return r.writeConsole(report)
}

func (r *Reporter) writeConsole(report *Report) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Import report: %s\n", report.FileName)
	fmt.Fprintf(&b, "%s\n", strings.Repeat("=", 40))

	if report.Parse != nil {
		fmt.Fprintf(&b, "Parsing:    %s\n", report.Parse.String())
		if report.Parse.ErrorCount > 0 {
			fmt.Fprintf(&b, "Row errors: %s\n", report.Parse.ErrorSummary().Error())
		}
	}
	if report.Match != nil {
		fmt.Fprintf(&b, "Matching:   %d of %d resolved\n", report.Match.Matched, report.Match.Total)
	}
	if report.Reconcile != nil {
		v := report.Reconcile.ByVerdict
		fmt.Fprintf(&b, "Reconcile:  %d new, %d update, %d match, %d conflict\n",
			v[models.VerdictNew], v[models.VerdictUpdate], v[models.VerdictMatch], v[models.VerdictConflict])
		if report.Reconcile.SignMismatches > 0 {
			fmt.Fprintf(&b, "Warning:    %d row(s) agree in magnitude but differ in sign\n",
				report.Reconcile.SignMismatches)
		}
	}
	if report.Import != nil {
		fmt.Fprintf(&b, "Import:     %d created, %d updated, %d exists, %d skipped, %d errors\n",
			report.Import.Created, report.Import.Updated, report.Import.Exists,
			report.Import.Skipped, report.Import.Errors)
		if report.Import.Orders > 0 {
			fmt.Fprintf(&b, "Orders:     %d created\n", report.Import.Orders)
		}
		fmt.Fprintf(&b, "Batch:      %s\n", report.Import.BatchID)
	}
	if report.Overrides != nil {
		fmt.Fprintf(&b, "Overrides:  %d applied, %d skipped, %d errors\n",
			report.Overrides.Applied, report.Overrides.Skipped, report.Overrides.Errors)
	}

	if report.Reconcile != nil && len(report.Reconcile.Conflicts) > 0 {
		fmt.Fprintf(&b, "\nConflicts:\n")
		for _, tx := range report.Reconcile.Conflicts {
			fmt.Fprintf(&b, "  %s  %s  %s %s  (%s, %s)\n",
				tx.UID, tx.Status, tx.Amount.StringFixed(2), tx.Currency, tx.ConflictReason, tx.ConflictSource)
		}
	}

	if len(report.Unmatched) > 0 {
		fmt.Fprintf(&b, "\nUnmatched rows:\n")
		for _, row := range report.Unmatched {
			fmt.Fprintf(&b, "  %s  %s %s %s\n", row.UID, row.CardHolder, row.Email, row.Phone)
			for _, s := range row.Suggestions {
				fmt.Fprintf(&b, "    maybe: %s (contact %d, distance %d)\n", s.Name, s.ContactID, s.Distance)
			}
		}
	}

	_, err := io.WriteString(r.out, b.String())
	return err
}
