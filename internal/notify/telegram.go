// Package notify delivers formatted signal and journal messages over
// Telegram.
package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"gpt-signal-relay/internal/logger"
)

type Telegram struct {
	bot *tgbotapi.BotAPI
}

func NewTelegram(botToken string) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("telegram init: %w", err)
	}
	return &Telegram{bot: bot}, nil
}

// Send posts an HTML message to a chat. chatRef is either a numeric
// chat id or an @channel username. Returns the posted message id.
func (t *Telegram) Send(ctx context.Context, chatRef, html string) (int, error) {
	var msg tgbotapi.MessageConfig
	if id, err := strconv.ParseInt(chatRef, 10, 64); err == nil {
		msg = tgbotapi.NewMessage(id, html)
	} else {
		ref := chatRef
		if !strings.HasPrefix(ref, "@") {
			ref = "@" + ref
		}
		msg = tgbotapi.NewMessageToChannel(ref, html)
	}
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	sent, err := t.bot.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("telegram send to %s: %w", chatRef, err)
	}
	logger.Debug(ctx, "telegram message sent", "chat", chatRef, "message_id", sent.MessageID)
	return sent.MessageID, nil
}

// FileURL resolves a Telegram file id to a direct download URL, used to
// hand chart screenshots to the vision model.
func (t *Telegram) FileURL(fileID string) (string, error) {
	url, err := t.bot.GetFileDirectURL(fileID)
	if err != nil {
		return "", fmt.Errorf("telegram getFile: %w", err)
	}
	return url, nil
}
