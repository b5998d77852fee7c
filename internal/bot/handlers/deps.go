// Package handlers turns Telegram updates into conversation events and
// delivers the dispatcher's replies.
package handlers

import (
	"context"
	"log/slog"

	"github.com/sismos-scu/sismobot/internal/config"
	"github.com/sismos-scu/sismobot/internal/conversation"
	"github.com/sismos-scu/sismobot/internal/session"
	"github.com/sismos-scu/sismobot/internal/telegram"
)

// Router routes one event for a user given their current session.
type Router interface {
	Handle(ctx context.Context, userID int64, ev conversation.Event, s session.Session) conversation.Result
}

// Renderer delivers replies to a chat.
type Renderer interface {
	Render(ctx context.Context, target telegram.Target, replies []conversation.Reply) error
	KeepTyping(ctx context.Context, chatID int64) (stop func())
}

// HandlerDeps provides dependencies for Telegram update handlers.
type HandlerDeps struct {
	Logger   *slog.Logger
	Config   *config.Config
	Sessions session.Store
	Queue    *session.Queue
	Router   Router
	Renderer Renderer
}
