package telegram

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

type fakeCommandSetter struct {
	got *bot.SetMyCommandsParams
	err error
}

func (f *fakeCommandSetter) SetMyCommands(_ context.Context, p *bot.SetMyCommandsParams) (bool, error) {
	f.got = p
	return f.err == nil, f.err
}

func TestSetCommands(t *testing.T) {
	t.Parallel()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cmds := []models.BotCommand{{Command: "start", Description: "Mostrar el menú principal"}}

	api := &fakeCommandSetter{}
	if err := SetCommands(context.Background(), api, cmds, log); err != nil {
		t.Fatalf("SetCommands() error = %v", err)
	}
	if api.got == nil || len(api.got.Commands) != 1 || api.got.Commands[0].Command != "start" {
		t.Errorf("SetMyCommands params = %+v", api.got)
	}

	failing := &fakeCommandSetter{err: errors.New("unauthorized")}
	if err := SetCommands(context.Background(), failing, cmds, log); err == nil {
		t.Error("SetCommands() error = nil, want error")
	}
}

func TestNewTelegramBot_EmptyToken(t *testing.T) {
	t.Parallel()
	if _, err := NewTelegramBot("", nil); err == nil {
		t.Error("NewTelegramBot(\"\") error = nil, want error")
	}
}

func TestTokenPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"123456789:ABCDEF", "12345678..."},
		{"short", "***"},
	}
	for _, tt := range tests {
		if got := tokenPrefix(tt.in); got != tt.want {
			t.Errorf("tokenPrefix(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
