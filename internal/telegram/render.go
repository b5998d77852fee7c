package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/sismos-scu/sismobot/internal/conversation"
)

// TypingInterval is how often the typing indicator is refreshed; Telegram shows it for about five seconds.
const TypingInterval = 4 * time.Second

// Messenger is the subset of *bot.Bot the renderer uses.
type Messenger interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
	SendChatAction(ctx context.Context, params *bot.SendChatActionParams) (bool, error)
}

// Target says where replies go. When EditMessageID is set the first reply
// replaces that message's text instead of being sent anew.
type Target struct {
	ChatID          int64
	EditMessageID   int
	CallbackQueryID string
}

// Renderer turns conversation replies into Bot API calls.
type Renderer struct {
	api Messenger
	log *slog.Logger
}

// NewRenderer creates a renderer on top of api.
func NewRenderer(api Messenger, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Renderer{api: api, log: logger.With("component", "renderer")}
}

// Render delivers replies in order. It keeps going after a failed message and
// returns the joined errors.
func (r *Renderer) Render(ctx context.Context, target Target, replies []conversation.Reply) error {
	if target.CallbackQueryID != "" {
		if _, err := r.api.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: target.CallbackQueryID}); err != nil {
			r.log.WarnContext(ctx, "Failed to answer callback query", "chat_id", target.ChatID, "error", err)
		}
	}

	var errs []error
	for i, reply := range replies {
		if i == 0 && target.EditMessageID != 0 && editable(reply) {
			err := r.edit(ctx, target, reply)
			if err == nil {
				continue
			}
			r.log.DebugContext(ctx, "Editing message failed, sending a new one", "chat_id", target.ChatID, "message_id", target.EditMessageID, "error", err)
		}
		if err := r.send(ctx, target.ChatID, reply); err != nil {
			r.log.ErrorContext(ctx, "Failed to send reply", "chat_id", target.ChatID, "index", i, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// editable reports whether reply can replace an inline-keyboard message:
// edits accept only inline keyboards.
func editable(reply conversation.Reply) bool {
	return len(reply.Keyboard) == 0 && !reply.RemoveKeyboard
}

func (r *Renderer) send(ctx context.Context, chatID int64, reply conversation.Reply) error {
	params := &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        reply.Text,
		ReplyMarkup: markup(reply),
	}
	if reply.Markdown {
		params.ParseMode = models.ParseModeMarkdownV1
	}

	_, err := r.api.SendMessage(ctx, params)
	if err != nil && reply.Markdown {
		r.log.WarnContext(ctx, "Markdown message rejected, retrying as plain text", "chat_id", chatID, "error", err)
		params.ParseMode = ""
		_, err = r.api.SendMessage(ctx, params)
	}
	if err != nil {
		return fmt.Errorf("send message to chat %d: %w", chatID, err)
	}
	return nil
}

func (r *Renderer) edit(ctx context.Context, target Target, reply conversation.Reply) error {
	params := &bot.EditMessageTextParams{
		ChatID:    target.ChatID,
		MessageID: target.EditMessageID,
		Text:      reply.Text,
	}
	if kb := inlineKeyboard(reply.Buttons); kb != nil {
		params.ReplyMarkup = kb
	}
	if reply.Markdown {
		params.ParseMode = models.ParseModeMarkdownV1
	}

	_, err := r.api.EditMessageText(ctx, params)
	if err != nil && reply.Markdown {
		params.ParseMode = ""
		_, err = r.api.EditMessageText(ctx, params)
	}
	if err != nil {
		return fmt.Errorf("edit message %d in chat %d: %w", target.EditMessageID, target.ChatID, err)
	}
	return nil
}

// KeepTyping shows the typing indicator in chatID until the returned stop func is called.
func (r *Renderer) KeepTyping(ctx context.Context, chatID int64) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(TypingInterval)
		defer ticker.Stop()

		for {
			_, err := r.api.SendChatAction(ctx, &bot.SendChatActionParams{ChatID: chatID, Action: models.ChatActionTyping})
			if err != nil && ctx.Err() == nil {
				r.log.DebugContext(ctx, "Typing action failed", "chat_id", chatID, "error", err)
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

func markup(reply conversation.Reply) models.ReplyMarkup {
	switch {
	case len(reply.Keyboard) > 0:
		rows := make([][]models.KeyboardButton, len(reply.Keyboard))
		for i, row := range reply.Keyboard {
			rows[i] = make([]models.KeyboardButton, len(row))
			for j, label := range row {
				rows[i][j] = models.KeyboardButton{Text: label}
			}
		}
		return &models.ReplyKeyboardMarkup{Keyboard: rows, OneTimeKeyboard: true, ResizeKeyboard: true}
	case len(reply.Buttons) > 0:
		return inlineKeyboard(reply.Buttons)
	case reply.RemoveKeyboard:
		return &models.ReplyKeyboardRemove{RemoveKeyboard: true}
	}
	return nil
}

func inlineKeyboard(buttons [][]conversation.Button) *models.InlineKeyboardMarkup {
	if len(buttons) == 0 {
		return nil
	}
	rows := make([][]models.InlineKeyboardButton, len(buttons))
	for i, row := range buttons {
		rows[i] = make([]models.InlineKeyboardButton, len(row))
		for j, b := range row {
			rows[i][j] = models.InlineKeyboardButton{Text: b.Label, CallbackData: b.Tag}
		}
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}
