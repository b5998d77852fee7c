package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/go-telegram/bot/models"
)

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{name: "short", input: "hola", maxLen: 10, want: "hola"},
		{name: "exact", input: "hola", maxLen: 4, want: "hola"},
		{name: "truncated", input: "terremoto en Santiago", maxLen: 10, want: "terremo..."},
		{name: "multibyte kept whole", input: "¿Cuándo ocurrió?", maxLen: 8, want: "¿Cuán..."},
		{name: "tiny limit", input: "sismo", maxLen: 2, want: "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := truncateString(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestNewLogger_Level(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"unknown": slog.LevelInfo,
	}
	ctx := context.Background()
	for level, want := range tests {
		log := NewLogger(level, true)
		if !log.Enabled(ctx, want) {
			t.Errorf("NewLogger(%q) does not enable %v", level, want)
		}
		if want > slog.LevelDebug && log.Enabled(ctx, want-4) {
			t.Errorf("NewLogger(%q) enables level below %v", level, want)
		}
	}
}

func TestDescribeUpdate(t *testing.T) {
	t.Parallel()

	msg := func(m models.Message) *models.Update {
		m.Chat = models.Chat{ID: 100}
		m.From = &models.User{ID: 7}
		return &models.Update{Message: &m}
	}

	tests := []struct {
		name   string
		update *models.Update
		want   updateInfo
	}{
		{
			name:   "text",
			update: msg(models.Message{Text: "¿Qué hago durante un sismo?"}),
			want:   updateInfo{kind: "text", userID: 7, chatID: 100, preview: "¿Qué hago durante un sismo?"},
		},
		{
			name:   "command",
			update: msg(models.Message{Text: "/menu"}),
			want:   updateInfo{kind: "command", userID: 7, chatID: 100, preview: "/menu"},
		},
		{
			name:   "photo",
			update: msg(models.Message{Photo: []models.PhotoSize{{FileID: "p1"}}}),
			want:   updateInfo{kind: "photo", userID: 7, chatID: 100},
		},
		{
			name:   "voice",
			update: msg(models.Message{Voice: &models.Voice{FileID: "v1"}}),
			want:   updateInfo{kind: "voice", userID: 7, chatID: 100},
		},
		{
			name: "button on accessible message",
			update: &models.Update{CallbackQuery: &models.CallbackQuery{
				From:    models.User{ID: 9},
				Data:    "registro",
				Message: models.MaybeInaccessibleMessage{Message: &models.Message{Chat: models.Chat{ID: 90}}},
			}},
			want: updateInfo{kind: "button", userID: 9, chatID: 90, preview: "registro"},
		},
		{
			name: "button on inaccessible message",
			update: &models.Update{CallbackQuery: &models.CallbackQuery{
				From:    models.User{ID: 9},
				Data:    "menu",
				Message: models.MaybeInaccessibleMessage{InaccessibleMessage: &models.InaccessibleMessage{Chat: models.Chat{ID: 91}}},
			}},
			want: updateInfo{kind: "button", userID: 9, chatID: 91, preview: "menu"},
		},
		{
			name:   "other",
			update: &models.Update{},
			want:   updateInfo{kind: "other"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := describeUpdate(tt.update); got != tt.want {
				t.Errorf("describeUpdate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
