// Package config assembles the component configurations for the CLI from
// flags, environment variables and an optional config file.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"payment-import-service/internal/importer"
	"payment-import-service/internal/matcher"
	"payment-import-service/internal/notify"
	"payment-import-service/internal/parsers"
	"payment-import-service/internal/store"
	"payment-import-service/pkg/logger"
)

// AppConfig is the full application configuration
type AppConfig struct {
	Database *store.Config
	Parser   *parsers.LedgerParserConfig
	Matcher  *matcher.MatcherConfig
	Importer *importer.ImporterConfig
	Telegram *notify.TelegramConfig
	Logger   *logger.Config
}

// Load builds the application configuration from viper's merged view of
// defaults, config file and SMARTIMPORT_* environment variables.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		Database: store.DefaultConfig(),
		Parser:   parsers.DefaultLedgerParserConfig(),
		Matcher:  matcher.DefaultMatcherConfig(),
		Importer: importer.DefaultImporterConfig(),
		Telegram: &notify.TelegramConfig{},
		Logger:   logger.DefaultConfig(),
	}

	if v := viper.GetString("db-host"); v != "" {
		cfg.Database.Host = v
	}
	if v := viper.GetInt("db-port"); v != 0 {
		cfg.Database.Port = v
	}
	if v := viper.GetString("db-user"); v != "" {
		cfg.Database.User = v
	}
	if viper.IsSet("db-password") {
		cfg.Database.Password = viper.GetString("db-password")
	}
	if v := viper.GetString("db-name"); v != "" {
		cfg.Database.Database = v
	}

	if v := viper.GetString("provider"); v != "" {
		cfg.Parser.Provider = v
	}

	if viper.IsSet("name-matching") {
		cfg.Matcher.EnableNameMatching = viper.GetBool("name-matching")
	}

	if v := viper.GetInt("batch-size"); v != 0 {
		cfg.Importer.BatchSize = v
	}
	if viper.IsSet("create-orders") {
		cfg.Importer.CreateOrders = viper.GetBool("create-orders")
	}
	cfg.Importer.DryRun = viper.GetBool("dry-run")

	cfg.Telegram.Token = viper.GetString("telegram-token")
	cfg.Telegram.ChatID = viper.GetInt64("telegram-chat-id")

	if viper.GetBool("verbose") {
		cfg.Logger.Level = logger.DebugLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates all component configurations
func (c *AppConfig) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database config: %w", err)
	}
	if err := c.Parser.Validate(); err != nil {
		return fmt.Errorf("parser config: %w", err)
	}
	if err := c.Matcher.Validate(); err != nil {
		return fmt.Errorf("matcher config: %w", err)
	}
	if err := c.Importer.Validate(); err != nil {
		return fmt.Errorf("importer config: %w", err)
	}
	if err := c.Logger.Validate(); err != nil {
		return fmt.Errorf("logger config: %w", err)
	}
	// Telegram is optional; validated only when a token is set.
	if c.Telegram.Token != "" {
		if err := c.Telegram.Validate(); err != nil {
			return fmt.Errorf("telegram config: %w", err)
		}
	}
	return nil
}

// NotificationsEnabled reports whether a Telegram channel is configured
func (c *AppConfig) NotificationsEnabled() bool {
	return c.Telegram.Token != ""
}
