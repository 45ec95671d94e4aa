// Package bot is the operator side of the registry on Telegram: it delivers
// log alerts to the configured chats and answers /stats and /numbers there.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"phonereuse/entity"
	"phonereuse/lib/sl"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
)

const (
	maxMessageLength = 4000
	commandTimeout   = 10 * time.Second
)

// Core is the part of the service the bot reports on.
type Core interface {
	NumberStats(ctx context.Context) (*entity.Statistics, error)
	ListNumbers(ctx context.Context, filter string) ([]*entity.NumberView, error)
	ReuseWindow() time.Duration
}

type TgBot struct {
	log     *slog.Logger
	api     *tgbotapi.Bot
	core    Core
	chatIds []int64
	updater *ext.Updater
}

func NewTgBot(apiKey string, chatIds []int64, log *slog.Logger) (*TgBot, error) {
	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	return &TgBot{
		log:     log.With(sl.Module("tgbot")),
		api:     api,
		chatIds: chatIds,
	}, nil
}

func (t *TgBot) SetCore(core Core) {
	t.core = core
}

// Start polls for updates and blocks until Stop.
func (t *TgBot) Start() error {
	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(b *tgbotapi.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			t.log.Error("handling update:", sl.Err(err))
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})
	t.updater = ext.NewUpdater(dispatcher, nil)

	dispatcher.AddHandler(handlers.NewCommand("stats", t.stats))
	dispatcher.AddHandler(handlers.NewCommand("numbers", t.numbers))
	dispatcher.AddHandler(handlers.NewCommand("help", t.help))

	t.setCommands()

	err := t.updater.StartPolling(t.api, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &tgbotapi.GetUpdatesOpts{
			Timeout: 9,
			RequestOpts: &tgbotapi.RequestOpts{
				Timeout: time.Second * 10,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start polling: %w", err)
	}
	t.log.With(slog.Int("chats", len(t.chatIds))).Info("telegram bot started")

	t.updater.Idle()
	return nil
}

func (t *TgBot) Stop() {
	if t.updater != nil {
		t.log.Info("stopping telegram bot")
		t.updater.Stop()
	}
}

// SendMessageWithLevel delivers a log alert to every operator chat.
func (t *TgBot) SendMessageWithLevel(msg string, _ slog.Level) {
	for _, id := range t.chatIds {
		t.plainResponse(id, msg)
	}
}

func (t *TgBot) allowed(chatId int64) bool {
	return slices.Contains(t.chatIds, chatId)
}

func (t *TgBot) setCommands() {
	_, err := t.api.SetMyCommands([]tgbotapi.BotCommand{
		{Command: "stats", Description: "Registry statistics"},
		{Command: "numbers", Description: "Numbers available for reuse"},
		{Command: "help", Description: "Available commands"},
	}, nil)
	if err != nil {
		t.log.Warn("setting bot commands", sl.Err(err))
	}
}

func (t *TgBot) plainResponse(chatId int64, text string) {
	if text == "" {
		t.log.With("id", chatId).Debug("empty message")
		return
	}

	for _, part := range splitMessage(text, maxMessageLength) {
		_, err := t.api.SendMessage(chatId, part, &tgbotapi.SendMessageOpts{
			ParseMode: "MarkdownV2",
		})
		if err != nil {
			t.log.With(slog.Int64("id", chatId)).Warn("sending message", sl.Err(err))
			_, err = t.api.SendMessage(chatId, part, &tgbotapi.SendMessageOpts{})
			if err != nil {
				t.log.With(slog.Int64("id", chatId)).Error("sending safe message", sl.Err(err))
			}
		}
	}
}
