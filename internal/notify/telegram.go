// Package notify delivers import summaries to operators. Delivery is
// fire-and-forget: a failed notification is logged and never fails the
// import that produced it.
package notify

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"payment-import-service/internal/importer"
	"payment-import-service/internal/reconciler"
	"payment-import-service/pkg/logger"
)

// Notifier sends an import summary to an operator channel
type Notifier interface {
	NotifyImport(fileName string, reconcile *reconciler.ReconcileStats, result *importer.ImportResult)
}

// TelegramConfig configures the Telegram operator channel
type TelegramConfig struct {
	Token  string
	ChatID int64
}

// Validate validates the Telegram configuration
func (c *TelegramConfig) Validate() error {
	if strings.TrimSpace(c.Token) == "" {
		return fmt.Errorf("telegram token cannot be empty")
	}
	if c.ChatID == 0 {
		return fmt.Errorf("telegram chat id cannot be zero")
	}
	return nil
}

// TelegramNotifier posts summaries to a Telegram chat
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger logger.Logger
}

// NewTelegramNotifier connects the bot API
func NewTelegramNotifier(config *TelegramConfig) (*TelegramNotifier, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	bot, err := tgbotapi.NewBotAPI(config.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect telegram bot: %w", err)
	}

	return &TelegramNotifier{
		bot:    bot,
		chatID: config.ChatID,
		logger: logger.GetGlobalLogger().WithComponent("notifier"),
	}, nil
}

// NotifyImport sends the import summary. Errors are logged, not returned.
func (n *TelegramNotifier) NotifyImport(fileName string, reconcile *reconciler.ReconcileStats, result *importer.ImportResult) {
	msg := tgbotapi.NewMessage(n.chatID, formatSummary(fileName, reconcile, result))
	if _, err := n.bot.Send(msg); err != nil {
		n.logger.WithError(err).Warn("Failed to send import notification")
	}
}

func formatSummary(fileName string, reconcile *reconciler.ReconcileStats, result *importer.ImportResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Импорт платежей: %s\n", fileName)
	if reconcile != nil {
		fmt.Fprintf(&b, "Строк: %d, конфликтов: %d\n", reconcile.Total, len(reconcile.Conflicts))
	}
	if result != nil {
		fmt.Fprintf(&b, "Создано: %d, обновлено: %d, пропущено: %d, ошибок: %d",
			result.Created, result.Updated, result.Skipped+result.Exists, result.Errors)
		if result.Orders > 0 {
			fmt.Fprintf(&b, "\nЗаказов создано: %d", result.Orders)
		}
	}
	return b.String()
}

// NopNotifier discards notifications. Used when no channel is configured.
type NopNotifier struct{}

// NotifyImport implements Notifier
func (NopNotifier) NotifyImport(string, *reconciler.ReconcileStats, *importer.ImportResult) {}
