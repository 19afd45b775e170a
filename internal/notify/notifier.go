// Package notify pushes trade events to Telegram. Without a token the
// notifier degrades to the log so the trader never depends on Telegram
// being reachable.
package notify

import (
	"fmt"

	"github.com/mitin111/stock-dashboard-sub000/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID}, nil
}

func (t *Telegram) Sendf(format string, args ...any) {
	msg := tgbotapi.NewMessage(t.chatID, fmt.Sprintf(format, args...))
	if _, err := t.bot.Send(msg); err != nil {
		logger.Error("telegram send: %v", err)
	}
}

// Log is the fallback notifier when Telegram is not configured.
type Log struct{}

func (Log) Sendf(format string, args ...any) {
	logger.Info(format, args...)
}
