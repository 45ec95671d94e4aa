package bot

import (
	"context"
	"log/slog"
	"strings"

	"phonereuse/lib/sl"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
)

func (t *TgBot) stats(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveChat.Id
	if !t.allowed(chatId) || t.core == nil {
		return nil
	}

	c, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	stats, err := t.core.NumberStats(c)
	if err != nil {
		t.reportError(chatId, "/stats", err)
		return nil
	}
	t.plainResponse(chatId, formatStats(stats, t.core.ReuseWindow()))
	return nil
}

// numbers lists the records; an optional argument filters by number substring.
func (t *TgBot) numbers(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveChat.Id
	if !t.allowed(chatId) || t.core == nil {
		return nil
	}

	filter := ""
	args := strings.Fields(ctx.EffectiveMessage.Text)
	if len(args) > 1 {
		filter = args[1]
	}

	c, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	views, err := t.core.ListNumbers(c, filter)
	if err != nil {
		t.reportError(chatId, "/numbers", err)
		return nil
	}
	t.plainResponse(chatId, formatNumbers(views))
	return nil
}

func (t *TgBot) help(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveChat.Id
	if !t.allowed(chatId) {
		return nil
	}
	t.plainResponse(chatId, helpText)
	return nil
}

func (t *TgBot) reportError(chatId int64, command string, err error) {
	t.log.Error("bot command failed",
		slog.String("command", command),
		slog.Int64("chat_id", chatId),
		sl.Err(err),
	)
	t.plainResponse(chatId, "Something went wrong\\. Please try again later\\.")
}
