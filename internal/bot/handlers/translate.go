package handlers

import (
	"strings"

	"github.com/go-telegram/bot/models"

	"github.com/sismos-scu/sismobot/internal/conversation"
	"github.com/sismos-scu/sismobot/internal/telegram"
)

// inbound is an update reduced to what the dispatcher and renderer need.
type inbound struct {
	userID int64
	event  conversation.Event
	target telegram.Target
}

// translateUpdate maps an update to an event. It returns false for updates the
// bot does not react to (edits, stickers, channel posts and the like).
func translateUpdate(update *models.Update) (inbound, bool) {
	switch {
	case update.Message != nil && update.Message.From != nil:
		return translateMessage(update.Message)
	case update.CallbackQuery != nil:
		return translateCallback(update.CallbackQuery)
	}
	return inbound{}, false
}

func translateMessage(msg *models.Message) (inbound, bool) {
	in := inbound{
		userID: msg.From.ID,
		target: telegram.Target{ChatID: msg.Chat.ID},
	}

	switch {
	case msg.Text != "":
		if name, ok := parseCommand(msg.Text); ok {
			in.event = conversation.CommandEvent{Name: name}
		} else {
			in.event = conversation.TextEvent{Body: msg.Text}
		}
	case len(msg.Photo) > 0:
		// The last size is the largest.
		in.event = conversation.MediaEvent{Kind: conversation.MediaPhoto, Ref: msg.Photo[len(msg.Photo)-1].FileID}
	case msg.Voice != nil:
		in.event = conversation.MediaEvent{Kind: conversation.MediaVoice, Ref: msg.Voice.FileID}
	default:
		return inbound{}, false
	}
	return in, true
}

func translateCallback(cq *models.CallbackQuery) (inbound, bool) {
	in := inbound{
		userID: cq.From.ID,
		event:  conversation.ButtonEvent{Tag: cq.Data},
		target: telegram.Target{ChatID: cq.From.ID, CallbackQueryID: cq.ID},
	}

	switch {
	case cq.Message.Message != nil:
		in.target.ChatID = cq.Message.Message.Chat.ID
		in.target.EditMessageID = cq.Message.Message.ID
	case cq.Message.InaccessibleMessage != nil:
		in.target.ChatID = cq.Message.InaccessibleMessage.Chat.ID
	}
	return in, true
}

// parseCommand extracts "start" from "/start", "/start@SismoBot" or "/start payload".
func parseCommand(text string) (string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	name := strings.Fields(text[1:])
	if len(name) == 0 {
		return "", false
	}
	cmd, _, _ := strings.Cut(name[0], "@")
	if cmd == "" {
		return "", false
	}
	return strings.ToLower(cmd), true
}
