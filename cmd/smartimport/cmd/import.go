package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"payment-import-service/cmd/smartimport/config"
	"payment-import-service/internal/importer"
	"payment-import-service/internal/matcher"
	"payment-import-service/internal/models"
	"payment-import-service/internal/notify"
	"payment-import-service/internal/parsers"
	"payment-import-service/internal/reconciler"
	"payment-import-service/internal/reporter"
	"payment-import-service/internal/store"
	"payment-import-service/pkg/errors"
	"payment-import-service/pkg/logger"
)

// Flags for the import command
var (
	importFile     string
	outputFormat   string
	outputFile     string
	batchSize      int
	dryRun         bool
	createOrders   bool
	applyOverrides bool
	overrideReason string
	verdicts       []string
	timeoutMinutes int
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a payment provider export",
	Long: `Import parses a provider export file, resolves customers, reconciles
every row against the staging queue and the finalized ledger, and applies
the result in sequential batches.

A row already present in the ledger is never imported as new; ledger
divergences are reported as conflicts and left untouched unless
--apply-conflict-overrides records status overrides for them.

Examples:
  # Classify and import
  smartimport import --file export.csv

  # Classify only, write nothing
  smartimport import --file export.csv --dry-run

  # Import only new rows, as JSON report
  smartimport import --file export.csv --verdicts new --output-format json

  # Record status overrides for ledger conflicts
  smartimport import --file export.csv --apply-conflict-overrides \
    --override-reason "statuses corrected after provider incident"`,

	PreRunE: validateImportFlags,
	RunE:    runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "path to provider export CSV file (required)")

	importCmd.Flags().StringVar(&outputFormat, "output-format", "console", "output format: console, json")
	importCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")

	importCmd.Flags().IntVar(&batchSize, "batch-size", 0, "transactions per write batch (default from config)")
	importCmd.Flags().BoolVar(&dryRun, "dry-run", false, "classify and report without writing")
	importCmd.Flags().BoolVar(&createOrders, "create-orders", true, "create orders for mapped payments")
	importCmd.Flags().StringSliceVar(&verdicts, "verdicts", []string{"new", "update"}, "verdicts to apply: new, update, conflict")

	importCmd.Flags().BoolVar(&applyOverrides, "apply-conflict-overrides", false, "record status overrides for ledger conflicts")
	importCmd.Flags().StringVar(&overrideReason, "override-reason", "", "justification stored with each override")

	importCmd.Flags().IntVar(&timeoutMinutes, "timeout", 30, "overall timeout in minutes")

	importCmd.MarkFlagRequired("file")

	viper.BindPFlag("file", importCmd.Flags().Lookup("file"))
	viper.BindPFlag("output-format", importCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", importCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("batch-size", importCmd.Flags().Lookup("batch-size"))
	viper.BindPFlag("dry-run", importCmd.Flags().Lookup("dry-run"))
	viper.BindPFlag("create-orders", importCmd.Flags().Lookup("create-orders"))
	viper.BindPFlag("verdicts", importCmd.Flags().Lookup("verdicts"))
	viper.BindPFlag("apply-conflict-overrides", importCmd.Flags().Lookup("apply-conflict-overrides"))
	viper.BindPFlag("override-reason", importCmd.Flags().Lookup("override-reason"))
	viper.BindPFlag("timeout", importCmd.Flags().Lookup("timeout"))
}

func validateImportFlags(cmd *cobra.Command, args []string) error {
	importFile = viper.GetString("file")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	dryRun = viper.GetBool("dry-run")
	applyOverrides = viper.GetBool("apply-conflict-overrides")
	overrideReason = viper.GetString("override-reason")
	verdicts = viper.GetStringSlice("verdicts")
	timeoutMinutes = viper.GetInt("timeout")

	if importFile == "" {
		return errors.ConfigurationError(errors.CodeMissingConfig, "file", nil,
			fmt.Errorf("an export file is required"))
	}
	if _, err := os.Stat(importFile); os.IsNotExist(err) {
		return errors.FileError(errors.CodeFileNotFound, importFile, err)
	}

	switch outputFormat {
	case "console", "json":
	default:
		return errors.ConfigurationError(errors.CodeInvalidConfig, "output-format", outputFormat,
			fmt.Errorf("supported formats are console and json"))
	}

	for _, v := range verdicts {
		switch models.Verdict(v) {
		case models.VerdictNew, models.VerdictUpdate, models.VerdictConflict:
		default:
			return errors.ConfigurationError(errors.CodeInvalidConfig, "verdicts", v,
				fmt.Errorf("only new, update and conflict rows can be applied"))
		}
	}

	if applyOverrides && overrideReason == "" {
		return errors.ConfigurationError(errors.CodeMissingConfig, "override-reason", nil,
			fmt.Errorf("overrides require a justification"))
	}
	if timeoutMinutes <= 0 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "timeout", timeoutMinutes,
			fmt.Errorf("timeout must be positive"))
	}

	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	handler := NewCLIErrorHandler()

	if err := doImport(); err != nil {
		os.Exit(handler.HandleError(err))
	}
	return nil
}

func doImport() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.Importer.DryRun = dryRun
	if batchSize > 0 {
		cfg.Importer.BatchSize = batchSize
	}

	if err := initLogging(cfg); err != nil {
		return err
	}
	log := logger.GetGlobalLogger().WithComponent("cli")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutMinutes)*time.Minute)
	defer cancel()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	// Parse.
	parser, err := parsers.NewLedgerParser(cfg.Parser)
	if err != nil {
		return err
	}
	transactions, parseStats, err := parser.ParseFile(ctx, importFile)
	if err != nil {
		return err
	}

	// Match.
	contacts, err := st.ListContacts(ctx)
	if err != nil {
		return err
	}
	links, err := st.ListCardLinks(ctx)
	if err != nil {
		return err
	}
	m, err := matcher.NewMatcher(matcher.BuildIndex(contacts, links), cfg.Matcher)
	if err != nil {
		return err
	}
	matchStats := m.MatchAll(transactions)

	// Reconcile.
	session, err := reconciler.NewImportSession(ctx, st, cfg.Parser.Provider, transactions)
	if err != nil {
		return err
	}
	reconcileStats := reconciler.NewReconciler(session).ReconcileAll(transactions)

	// Import the selected verdicts.
	selected := selectByVerdict(transactions, verdicts)
	imp, err := importer.NewImporter(st, cfg.Importer)
	if err != nil {
		return err
	}
	importResult, err := imp.ImportSelected(ctx, selected, importFile)
	if err != nil {
		return err
	}

	var overrideResult *importer.OverrideResult
	if applyOverrides && !dryRun {
		overrideResult = importer.NewOverrideApplier(st).
			ApplyOverrides(ctx, reconcileStats.Conflicts, overrideReason)
	}

	report := &reporter.Report{
		FileName:  importFile,
		Parse:     parseStats,
		Match:     matchStats,
		Reconcile: reconcileStats,
		Import:    importResult,
		Overrides: overrideResult,
		Unmatched: reporter.CollectUnmatched(transactions, m),
	}
	if err := writeReport(report); err != nil {
		return err
	}

	if cfg.NotificationsEnabled() && !dryRun {
		notifier, err := notify.NewTelegramNotifier(cfg.Telegram)
		if err != nil {
			log.WithError(err).Warn("Notifications disabled, bot connection failed")
		} else {
			notifier.NotifyImport(importFile, reconcileStats, importResult)
		}
	}

	return nil
}

func selectByVerdict(transactions []*models.Transaction, verdicts []string) []*models.Transaction {
	allowed := make(map[models.Verdict]bool, len(verdicts))
	for _, v := range verdicts {
		allowed[models.Verdict(v)] = true
	}
	out := make([]*models.Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if allowed[tx.Verdict] {
			out = append(out, tx)
		}
	}
	return out
}

func writeReport(report *reporter.Report) error {
	var out io.Writer = os.Stdout
	if outputFile != "" {
		file, err := os.Create(outputFile)
		if err != nil {
			return errors.FileError(errors.CodeFilePermission, outputFile, err)
		}
		defer file.Close()
		out = file
	}

	r, err := reporter.NewReporter(reporter.Format(outputFormat), out)
	if err != nil {
		return err
	}
	return r.Write(report)
}

func initLogging(cfg *config.AppConfig) error {
	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		return err
	}
	logger.SetGlobalLogger(log)
	return nil
}

func openStore(cfg *config.AppConfig) (store.Store, error) {
	return store.Open(cfg.Database)
}
