package handlers

import (
	"github.com/go-telegram/bot/models"

	"github.com/sismos-scu/sismobot/internal/config"
	"github.com/sismos-scu/sismobot/internal/conversation"
)

// Commands returns the slash commands published in the client's command menu.
// All of them are served by the update handler.
func Commands(msgs config.MessagesConfig) []models.BotCommand {
	return []models.BotCommand{
		{Command: conversation.CommandStart, Description: msgs.CmdStartDescription},
		{Command: conversation.CommandMenu, Description: msgs.CmdMenuDescription},
		{Command: conversation.CommandCancel, Description: msgs.CmdCancelDescription},
	}
}
