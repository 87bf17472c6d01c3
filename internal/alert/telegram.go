package alert

import (
	"context"

	"github.com/go-telegram/bot"

	"github.com/topstrike/syscall-relayer/pkg/logger"
)

// TelegramAlerter pushes operator alerts to a Telegram ops channel. It is
// the reconciliation signal for delivered-but-unconsumed payments, which are
// never surfaced to the paying client.
type TelegramAlerter struct {
	logger *logger.Logger
	bot    *bot.Bot
	chatID string
}

func NewTelegramAlerter(logger *logger.Logger, token, chatID string) (*TelegramAlerter, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, err
	}

	return &TelegramAlerter{logger: logger, bot: b, chatID: chatID}, nil
}

func (t *TelegramAlerter) Alert(ctx context.Context, message string) {
	params := &bot.SendMessageParams{
		ChatID: t.chatID,
		Text:   message,
	}
	_, err := t.bot.SendMessage(ctx, params)
	if err != nil {
		t.logger.Error("Failed to send operator alert: ", err)
	}
}
