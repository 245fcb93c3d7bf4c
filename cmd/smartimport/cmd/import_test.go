package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"payment-import-service/internal/models"
)

func TestValidateImportFlags(t *testing.T) {
	tmpDir := t.TempDir()
	exportFile := filepath.Join(tmpDir, "export.csv")
	if err := os.WriteFile(exportFile, []byte("UID,Статус,Сумма\nuid-1,Successful,100.00"), 0644); err != nil {
		t.Fatalf("failed to create export file: %v", err)
	}

	tests := []struct {
		name          string
		setupFlags    func()
		expectError   bool
		errorContains string
	}{
		{
			name: "valid flags",
			setupFlags: func() {
				viper.Set("file", exportFile)
				viper.Set("output-format", "console")
				viper.Set("verdicts", []string{"new", "update"})
				viper.Set("timeout", 30)
			},
			expectError: false,
		},
		{
			name: "missing file",
			setupFlags: func() {
				viper.Set("output-format", "console")
				viper.Set("timeout", 30)
			},
			expectError:   true,
			errorContains: "missing required configuration: file",
		},
		{
			name: "non-existent file",
			setupFlags: func() {
				viper.Set("file", "/non/existent/export.csv")
				viper.Set("output-format", "console")
				viper.Set("timeout", 30)
			},
			expectError:   true,
			errorContains: "file not found",
		},
		{
			name: "invalid output format",
			setupFlags: func() {
				viper.Set("file", exportFile)
				viper.Set("output-format", "xml")
				viper.Set("timeout", 30)
			},
			expectError:   true,
			errorContains: "invalid configuration for 'output-format'",
		},
		{
			name: "conflict is an importable verdict",
			setupFlags: func() {
				viper.Set("file", exportFile)
				viper.Set("output-format", "console")
				viper.Set("verdicts", []string{"new", "update", "conflict"})
				viper.Set("timeout", 30)
			},
			expectError: false,
		},
		{
			name: "match is not an importable verdict",
			setupFlags: func() {
				viper.Set("file", exportFile)
				viper.Set("output-format", "console")
				viper.Set("verdicts", []string{"new", "match"})
				viper.Set("timeout", 30)
			},
			expectError:   true,
			errorContains: "invalid configuration for 'verdicts'",
		},
		{
			name: "overrides require a reason",
			setupFlags: func() {
				viper.Set("file", exportFile)
				viper.Set("output-format", "console")
				viper.Set("apply-conflict-overrides", true)
				viper.Set("timeout", 30)
			},
			expectError:   true,
			errorContains: "missing required configuration: override-reason",
		},
		{
			name: "zero timeout",
			setupFlags: func() {
				viper.Set("file", exportFile)
				viper.Set("output-format", "console")
			},
			expectError:   true,
			errorContains: "invalid configuration for 'timeout'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			tt.setupFlags()

			cmd := &cobra.Command{}
			err := validateImportFlags(cmd, []string{})

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				} else if tt.errorContains != "" && !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("expected error to contain '%s', got: %v", tt.errorContains, err)
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
		})
	}
}

func TestImportCommandFlags(t *testing.T) {
	for _, name := range []string{
		"file",
		"output-format",
		"output-file",
		"batch-size",
		"dry-run",
		"create-orders",
		"verdicts",
		"apply-conflict-overrides",
		"override-reason",
		"timeout",
	} {
		if importCmd.Flags().Lookup(name) == nil {
			t.Errorf("%s flag not found", name)
		}
	}
}

func TestSelectByVerdict(t *testing.T) {
	transactions := []*models.Transaction{
		{UID: "uid-1", Verdict: models.VerdictNew},
		{UID: "uid-2", Verdict: models.VerdictUpdate},
		{UID: "uid-3", Verdict: models.VerdictMatch},
		{UID: "uid-4", Verdict: models.VerdictConflict},
	}

	selected := selectByVerdict(transactions, []string{"new", "update"})
	if len(selected) != 2 {
		t.Fatalf("expected 2 selected transactions, got %d", len(selected))
	}
	if selected[0].UID != "uid-1" || selected[1].UID != "uid-2" {
		t.Errorf("expected uid-1 and uid-2, got %s and %s", selected[0].UID, selected[1].UID)
	}

	if got := selectByVerdict(transactions, []string{"new"}); len(got) != 1 {
		t.Errorf("expected 1 transaction for new only, got %d", len(got))
	}
	if got := selectByVerdict(transactions, nil); len(got) != 0 {
		t.Errorf("expected no transactions for empty verdict list, got %d", len(got))
	}
}
