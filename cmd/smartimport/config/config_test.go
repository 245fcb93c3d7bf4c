package config

import (
	"strings"
	"testing"

	"github.com/spf13/viper"

	"payment-import-service/pkg/logger"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load default config: %v", err)
	}

	if cfg.Database.Host != "127.0.0.1" {
		t.Errorf("expected default database host '127.0.0.1', got '%s'", cfg.Database.Host)
	}
	if cfg.Database.Port != 3306 {
		t.Errorf("expected default database port 3306, got %d", cfg.Database.Port)
	}
	if cfg.Parser.Provider != "bepaid" {
		t.Errorf("expected default provider 'bepaid', got '%s'", cfg.Parser.Provider)
	}
	if !cfg.Matcher.EnableNameMatching {
		t.Error("expected name matching to be enabled by default")
	}
	if cfg.Importer.BatchSize != 100 {
		t.Errorf("expected default batch size 100, got %d", cfg.Importer.BatchSize)
	}
	if !cfg.Importer.CreateOrders {
		t.Error("expected order creation to be enabled by default")
	}
	if cfg.Importer.DryRun {
		t.Error("expected dry run to be disabled by default")
	}
	if cfg.Logger.Level != logger.InfoLevel {
		t.Errorf("expected default log level info, got '%s'", cfg.Logger.Level)
	}
	if cfg.NotificationsEnabled() {
		t.Error("expected notifications to be disabled without a token")
	}
}

func TestLoadOverrides(t *testing.T) {
	viper.Reset()
	viper.Set("db-host", "db.internal")
	viper.Set("db-port", 3307)
	viper.Set("db-user", "importer")
	viper.Set("db-password", "secret")
	viper.Set("db-name", "payments")
	viper.Set("provider", "bepaid-erip")
	viper.Set("name-matching", false)
	viper.Set("batch-size", 250)
	viper.Set("create-orders", false)
	viper.Set("dry-run", true)
	viper.Set("verbose", true)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Database.Host != "db.internal" {
		t.Errorf("expected database host 'db.internal', got '%s'", cfg.Database.Host)
	}
	if cfg.Database.Port != 3307 {
		t.Errorf("expected database port 3307, got %d", cfg.Database.Port)
	}
	if cfg.Database.User != "importer" {
		t.Errorf("expected database user 'importer', got '%s'", cfg.Database.User)
	}
	if cfg.Database.Password != "secret" {
		t.Errorf("expected database password to be set")
	}
	if cfg.Database.Database != "payments" {
		t.Errorf("expected database name 'payments', got '%s'", cfg.Database.Database)
	}
	if cfg.Parser.Provider != "bepaid-erip" {
		t.Errorf("expected provider 'bepaid-erip', got '%s'", cfg.Parser.Provider)
	}
	if cfg.Matcher.EnableNameMatching {
		t.Error("expected name matching to be disabled")
	}
	if cfg.Importer.BatchSize != 250 {
		t.Errorf("expected batch size 250, got %d", cfg.Importer.BatchSize)
	}
	if cfg.Importer.CreateOrders {
		t.Error("expected order creation to be disabled")
	}
	if !cfg.Importer.DryRun {
		t.Error("expected dry run to be enabled")
	}
	if cfg.Logger.Level != logger.DebugLevel {
		t.Errorf("expected verbose to raise log level to debug, got '%s'", cfg.Logger.Level)
	}
}

func TestLoadTelegram(t *testing.T) {
	viper.Reset()
	viper.Set("telegram-token", "123456:bot-token")
	viper.Set("telegram-chat-id", int64(-100200300))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if !cfg.NotificationsEnabled() {
		t.Error("expected notifications to be enabled with a token")
	}
	if cfg.Telegram.ChatID != -100200300 {
		t.Errorf("expected chat id -100200300, got %d", cfg.Telegram.ChatID)
	}
}

func TestLoadInvalidTelegram(t *testing.T) {
	// A token without a chat id cannot be delivered anywhere.
	viper.Reset()
	viper.Set("telegram-token", "123456:bot-token")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for telegram token without chat id")
	}
	if !strings.Contains(err.Error(), "telegram config") {
		t.Errorf("expected telegram config error, got: %v", err)
	}
}

func TestLoadInvalidBatchSize(t *testing.T) {
	viper.Reset()
	viper.Set("batch-size", -5)

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for negative batch size")
	}
	if !strings.Contains(err.Error(), "importer config") {
		t.Errorf("expected importer config error, got: %v", err)
	}
}
