// Package logger builds the process-wide slog logger and the Telegram
// update-logging middleware.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// previewLength caps how much user text ends up in logs.
const previewLength = 50

// NewLogger creates the logger for the process and installs it as slog's default.
// Unknown levels fall back to info.
func NewLogger(levelStr string, jsonOutput bool) *slog.Logger {
	logger := slog.New(newHandler(os.Stdout, parseLevel(levelStr), jsonOutput))
	slog.SetDefault(logger)
	return logger
}

func newHandler(w io.Writer, level slog.Level, jsonOutput bool) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if jsonOutput {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// updateInfo is what the middleware records about an update.
type updateInfo struct {
	kind    string
	userID  int64
	chatID  int64
	preview string
}

func (u updateInfo) attrs() []any {
	attrs := []any{"update_type", u.kind}
	if u.userID != 0 {
		attrs = append(attrs, "user_id", u.userID)
	}
	if u.chatID != 0 {
		attrs = append(attrs, "chat_id", u.chatID)
	}
	if u.preview != "" {
		attrs = append(attrs, "preview", u.preview)
	}
	return attrs
}

func describeUpdate(update *models.Update) updateInfo {
	switch {
	case update.Message != nil:
		msg := update.Message
		info := updateInfo{kind: "text", chatID: msg.Chat.ID, preview: truncateString(msg.Text, previewLength)}
		if msg.From != nil {
			info.userID = msg.From.ID
		}
		switch {
		case strings.HasPrefix(msg.Text, "/"):
			info.kind = "command"
		case len(msg.Photo) > 0:
			info.kind = "photo"
		case msg.Voice != nil:
			info.kind = "voice"
		case msg.Text == "":
			info.kind = "message"
		}
		return info
	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		info := updateInfo{kind: "button", userID: cq.From.ID, preview: cq.Data}
		if cq.Message.Message != nil {
			info.chatID = cq.Message.Message.Chat.ID
		} else if cq.Message.InaccessibleMessage != nil {
			info.chatID = cq.Message.InaccessibleMessage.Chat.ID
		}
		return info
	}
	return updateInfo{kind: "other"}
}

// Middleware logs every incoming update before handing it on.
func Middleware(log *slog.Logger) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			started := time.Now()
			entry := log.With(append([]any{"update_id", update.ID}, describeUpdate(update).attrs()...)...)
			entry.InfoContext(ctx, "Update received")

			next(ctx, b, update)

			entry.DebugContext(ctx, "Update handed off", "duration", time.Since(started))
		}
	}
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return string(r[:maxLen-3]) + "..."
}
