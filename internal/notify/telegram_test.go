package notify

import (
	"strings"
	"testing"

	"payment-import-service/internal/importer"
	"payment-import-service/internal/models"
	"payment-import-service/internal/reconciler"
)

func TestTelegramConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  TelegramConfig
		wantErr bool
	}{
		{"valid", TelegramConfig{Token: "123:abc", ChatID: -100200300}, false},
		{"missing token", TelegramConfig{ChatID: 1}, true},
		{"missing chat id", TelegramConfig{Token: "123:abc"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFormatSummary(t *testing.T) {
	reconcile := &reconciler.ReconcileStats{
		Total:     10,
		Conflicts: []*models.Transaction{{UID: "uid-1"}},
	}
	result := &importer.ImportResult{
		Created: 5,
		Updated: 2,
		Skipped: 1,
		Exists:  1,
		Errors:  1,
		Orders:  3,
	}

	summary := formatSummary("export.csv", reconcile, result)
	for _, want := range []string{"export.csv", "Строк: 10", "конфликтов: 1", "Создано: 5", "Заказов создано: 3"} {
		if !strings.Contains(summary, want) {
			t.Errorf("Summary missing %q:\n%s", want, summary)
		}
	}

	if got := formatSummary("export.csv", nil, nil); !strings.Contains(got, "export.csv") {
		t.Errorf("Summary without stats must still name the file, got %q", got)
	}
}
