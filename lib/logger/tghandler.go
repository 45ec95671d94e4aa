package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Notifier delivers an alert text to operators.
type Notifier interface {
	SendMessageWithLevel(msg string, level slog.Level)
}

// TelegramHandler is a slog.Handler that forwards records at or above minLevel
// to a Notifier, after passing every record to the wrapped handler.
type TelegramHandler struct {
	handler  slog.Handler
	notifier Notifier
	minLevel slog.Level
	mu       *sync.Mutex
	attrs    []slog.Attr
	group    string
}

func NewTelegramHandler(handler slog.Handler, notifier Notifier, minLevel slog.Level) *TelegramHandler {
	return &TelegramHandler{
		handler:  handler,
		notifier: notifier,
		minLevel: minLevel,
		mu:       &sync.Mutex{},
	}
}

// Enabled defers to the wrapped handler; the alert threshold is applied in Handle.
func (h *TelegramHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *TelegramHandler) Handle(ctx context.Context, record slog.Record) error {
	if err := h.handler.Handle(ctx, record); err != nil {
		return err
	}
	if record.Level < h.minLevel || h.notifier == nil {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var msg strings.Builder
	if h.group != "" {
		msg.WriteString(fmt.Sprintf("*%s* `%s.%s`", record.Level.String(), h.group, record.Message))
	} else {
		msg.WriteString(fmt.Sprintf("*%s* `%s`", record.Level.String(), record.Message))
	}
	for _, attr := range h.attrs {
		writeAttr(&msg, attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		writeAttr(&msg, attr)
		return true
	})

	h.notifier.SendMessageWithLevel(msg.String(), record.Level)
	return nil
}

func writeAttr(msg *strings.Builder, attr slog.Attr) {
	if attr.Key == "error" {
		msg.WriteString(fmt.Sprintf("\nerror: ```%v```", attr.Value))
		return
	}
	msg.WriteString(Sanitize(fmt.Sprintf("\n%s: %v", attr.Key, attr.Value)))
}

func (h *TelegramHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)

	return &TelegramHandler{
		handler:  h.handler.WithAttrs(attrs),
		notifier: h.notifier,
		minLevel: h.minLevel,
		mu:       h.mu,
		attrs:    newAttrs,
		group:    h.group,
	}
}

func (h *TelegramHandler) WithGroup(name string) slog.Handler {
	group := name
	if h.group != "" {
		group = h.group + "." + name
	}

	return &TelegramHandler{
		handler:  h.handler.WithGroup(name),
		notifier: h.notifier,
		minLevel: h.minLevel,
		mu:       h.mu,
		attrs:    h.attrs,
		group:    group,
	}
}

// Sanitize escapes Telegram MarkdownV2 reserved characters.
func Sanitize(input string) string {
	const reserved = "\\_*[]()~`>#+-=|{}.!"
	var b strings.Builder
	for _, char := range input {
		if strings.ContainsRune(reserved, char) {
			b.WriteRune('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
