package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/sismos-scu/sismobot/internal/conversation"
)

// NewUpdateHandler returns the default handler for every update. Updates are
// queued per user so each user's events are processed in arrival order.
func NewUpdateHandler(deps HandlerDeps) bot.HandlerFunc {
	return updateHandler{deps}.Handle
}

type updateHandler struct {
	deps HandlerDeps
}

func (h updateHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "update")

	in, ok := translateUpdate(update)
	if !ok {
		log.DebugContext(ctx, "Ignoring update without a supported payload", "update_id", update.ID)
		return
	}

	// Jobs outlive the polling context so queued work drains on shutdown.
	jobCtx := context.WithoutCancel(ctx)
	if !h.deps.Queue.Submit(in.userID, func() { h.process(jobCtx, in) }) {
		log.WarnContext(ctx, "Queue closed, dropping update", "update_id", update.ID, "user_id", in.userID)
	}
}

// process runs one event: load session, dispatch, store the session once, reply.
// When the session cannot be loaded the event is not dispatched and the stored
// session is left untouched.
func (h updateHandler) process(ctx context.Context, in inbound) {
	log := h.deps.Logger.With("handler", "update", "user_id", in.userID)

	s, err := h.deps.Sessions.Get(ctx, in.userID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load session, asking the user to retry", "event", conversation.EventKind(in.event), "error", err)
		target := in.target
		target.EditMessageID = 0
		retry := []conversation.Reply{{Text: h.deps.Config.Messages.Unavailable}}
		if err := h.deps.Renderer.Render(ctx, target, retry); err != nil {
			log.ErrorContext(ctx, "Failed to deliver retry notice", "error", err)
		}
		return
	}

	var stopTyping func()
	if _, isText := in.event.(conversation.TextEvent); isText && !s.Idle() {
		stopTyping = h.deps.Renderer.KeepTyping(ctx, in.target.ChatID)
	}

	res := h.deps.Router.Handle(ctx, in.userID, in.event, s)

	if stopTyping != nil {
		stopTyping()
	}

	if res.Session.Idle() {
		err = h.deps.Sessions.Clear(ctx, in.userID)
	} else {
		err = h.deps.Sessions.Put(ctx, in.userID, res.Session)
	}
	if err != nil {
		log.ErrorContext(ctx, "Failed to store session", "flow", res.Session.Flow, "state", res.Session.State, "error", err)
	}

	if err := h.deps.Renderer.Render(ctx, in.target, res.Replies); err != nil {
		log.ErrorContext(ctx, "Failed to deliver replies", "rule", res.Rule, "error", err)
		return
	}
	log.DebugContext(ctx, "Event processed", "rule", res.Rule, "replies", len(res.Replies))
}
