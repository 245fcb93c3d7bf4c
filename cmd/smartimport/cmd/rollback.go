package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"payment-import-service/cmd/smartimport/config"
	"payment-import-service/internal/importer"
	"payment-import-service/pkg/errors"
)

var rollbackBatchID string

// rollbackCmd represents the rollback command
var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Roll back an import batch",
	Long: `Rollback deletes the staging rows created by one import batch and marks
the batch rolled back. Updates the batch applied to preexisting staging
rows are not reverted, and the finalized ledger is never touched.

Examples:
  smartimport rollback --batch-id 6f1c3f0a-8f2e-4f1b-9a35-54a8f0a3c001`,

	PreRunE: validateRollbackFlags,
	RunE:    runRollback,
}

func init() {
	rootCmd.AddCommand(rollbackCmd)

	rollbackCmd.Flags().StringVar(&rollbackBatchID, "batch-id", "", "id of the batch to roll back (required)")
	rollbackCmd.MarkFlagRequired("batch-id")

	viper.BindPFlag("batch-id", rollbackCmd.Flags().Lookup("batch-id"))
}

func validateRollbackFlags(cmd *cobra.Command, args []string) error {
	rollbackBatchID = viper.GetString("batch-id")
	if _, err := uuid.Parse(rollbackBatchID); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "batch-id", rollbackBatchID,
			fmt.Errorf("batch id must be a UUID: %w", err))
	}
	return nil
}

func runRollback(cmd *cobra.Command, args []string) error {
	handler := NewCLIErrorHandler()

	if err := doRollback(); err != nil {
		os.Exit(handler.HandleError(err))
	}
	return nil
}

func doRollback() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := initLogging(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	imp, err := importer.NewImporter(st, cfg.Importer)
	if err != nil {
		return err
	}

	batchID := uuid.MustParse(rollbackBatchID)
	deleted, err := imp.Rollback(ctx, batchID)
	if err != nil {
		return err
	}

	fmt.Printf("Batch %s rolled back, %d staging rows deleted\n", batchID, deleted)
	return nil
}
