package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/sismos-scu/sismobot/internal/config"
	"github.com/sismos-scu/sismobot/internal/conversation"
	"github.com/sismos-scu/sismobot/internal/database"
	"github.com/sismos-scu/sismobot/internal/session"
	"github.com/sismos-scu/sismobot/internal/telegram"
)

type stubGenerator struct{}

func (stubGenerator) Generate(_ context.Context, _ string, _ float32, _ int32) (string, error) {
	// Slow enough that later updates queue up behind the generation.
	time.Sleep(10 * time.Millisecond)
	return "respuesta", nil
}

type memoryPersistence struct {
	mu       sync.Mutex
	profiles map[int64]database.Profile
	queries  int
}

func (p *memoryPersistence) UpsertProfile(_ context.Context, profile *database.Profile) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.profiles[profile.UserID] = *profile
	return nil
}

func (p *memoryPersistence) AppendQuery(context.Context, *database.QueryRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queries++
	return nil
}

func (p *memoryPersistence) AppendMedia(context.Context, *database.MediaRecord) error { return nil }

type rendered struct {
	target  telegram.Target
	replies []conversation.Reply
}

type recordingRenderer struct {
	mu     sync.Mutex
	out    []rendered
	typing int
}

func (r *recordingRenderer) Render(_ context.Context, target telegram.Target, replies []conversation.Reply) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.out = append(r.out, rendered{target: target, replies: replies})
	return nil
}

func (r *recordingRenderer) KeepTyping(context.Context, int64) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.typing++
	return func() {}
}

type harness struct {
	handler  updateHandler
	sessions *session.MemoryStore
	queue    *session.Queue
	store    *memoryPersistence
	renderer *recordingRenderer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := &memoryPersistence{profiles: make(map[int64]database.Profile)}

	d, err := conversation.NewDispatcher(stubGenerator{}, store, config.DefaultMessages, log)
	if err != nil {
		t.Fatalf("NewDispatcher() error = %v", err)
	}

	h := &harness{
		sessions: session.NewMemoryStore(),
		queue:    session.NewQueue(log),
		store:    store,
		renderer: &recordingRenderer{},
	}
	h.handler = updateHandler{HandlerDeps{
		Logger:   log,
		Config:   &config.Config{Messages: config.DefaultMessages},
		Sessions: h.sessions,
		Queue:    h.queue,
		Router:   d,
		Renderer: h.renderer,
	}}
	return h
}

func (h *harness) wait(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.queue.Close(ctx); err != nil {
		t.Fatalf("Queue.Close() error = %v", err)
	}
}

func textUpdate(userID int64, text string) *models.Update {
	return &models.Update{Message: &models.Message{From: &models.User{ID: userID}, Chat: models.Chat{ID: userID}, Text: text}}
}

func buttonUpdate(userID int64, tag string, messageID int) *models.Update {
	return &models.Update{CallbackQuery: &models.CallbackQuery{
		ID: "cb", From: models.User{ID: userID}, Data: tag,
		Message: models.MaybeInaccessibleMessage{Message: &models.Message{ID: messageID, Chat: models.Chat{ID: userID}}},
	}}
}

func TestUpdateHandler_RegistrationInOrder(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	h.handler.Handle(ctx, nil, buttonUpdate(1, conversation.TagRegister, 50))
	for _, text := range []string{"Ana", "Pérez", "30", "Femenino", "Universitario", "Santiago", "no", "Sí"} {
		h.handler.Handle(ctx, nil, textUpdate(1, text))
	}
	h.wait(t)

	p, ok := h.store.profiles[1]
	if !ok {
		t.Fatal("profile was not saved")
	}
	if p.Name != "Ana" || p.Surname != "Pérez" || p.Age != 30 || p.Email.Valid {
		t.Errorf("profile = %+v, want fields in submission order", p)
	}

	s, err := h.sessions.Get(ctx, 1)
	if err != nil || !s.Idle() {
		t.Errorf("session after completion = %+v, %v, want idle", s, err)
	}
	if h.sessions.Len() != 0 {
		t.Errorf("sessions stored = %d, want 0", h.sessions.Len())
	}

	if len(h.renderer.out) != 9 {
		t.Fatalf("render calls = %d, want 9", len(h.renderer.out))
	}
	first := h.renderer.out[0].target
	if first.EditMessageID != 50 || first.CallbackQueryID != "cb" {
		t.Errorf("button reply target = %+v, want edit of message 50", first)
	}
	if h.renderer.typing != 8 {
		t.Errorf("typing indicators = %d, want one per in-flow text", h.renderer.typing)
	}
}

func TestUpdateHandler_MenuAfterPendingQuestion(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	h.handler.Handle(ctx, nil, buttonUpdate(2, conversation.TagQuestion, 10))
	h.handler.Handle(ctx, nil, textUpdate(2, "¿Qué hago durante un sismo?"))
	h.handler.Handle(ctx, nil, textUpdate(2, "/menu"))
	h.wait(t)

	if h.store.queries != 1 {
		t.Errorf("queries = %d, want 1", h.store.queries)
	}
	last := h.renderer.out[len(h.renderer.out)-1].replies
	if last[len(last)-1].Text != config.DefaultMessages.Welcome {
		t.Errorf("last reply = %q, want the main menu", last[len(last)-1].Text)
	}
	if s, _ := h.sessions.Get(ctx, 2); !s.Idle() {
		t.Errorf("session = %+v, want idle", s)
	}
}

func TestUpdateHandler_KeepsSessionMidFlow(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	h.handler.Handle(ctx, nil, buttonUpdate(3, conversation.TagRegister, 1))
	h.handler.Handle(ctx, nil, textUpdate(3, "Luis"))
	h.wait(t)

	s, err := h.sessions.Get(ctx, 3)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if s.Flow != string(conversation.FlowRegistration) || s.State != string(conversation.StateSurname) || s.Fields[conversation.FieldName] != "Luis" {
		t.Errorf("session = %+v, want registration at surname with the name stored", s)
	}
}

func TestUpdateHandler_IgnoresUnsupportedAndClosedQueue(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	h.handler.Handle(ctx, nil, &models.Update{ID: 1})
	h.wait(t)
	h.handler.Handle(ctx, nil, textUpdate(4, "hola"))

	if len(h.renderer.out) != 0 {
		t.Errorf("render calls = %d, want 0", len(h.renderer.out))
	}
}

// flakySessions fails reads while down is set and counts writes.
type flakySessions struct {
	*session.MemoryStore
	mu     sync.Mutex
	down   bool
	writes int
}

func (f *flakySessions) setDown(down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.down = down
}

func (f *flakySessions) Get(ctx context.Context, userID int64) (session.Session, error) {
	f.mu.Lock()
	down := f.down
	f.mu.Unlock()
	if down {
		return session.Session{}, errors.New("redis: i/o timeout")
	}
	return f.MemoryStore.Get(ctx, userID)
}

func (f *flakySessions) Put(ctx context.Context, userID int64, s session.Session) error {
	f.mu.Lock()
	f.writes++
	f.mu.Unlock()
	return f.MemoryStore.Put(ctx, userID, s)
}

func (f *flakySessions) Clear(ctx context.Context, userID int64) error {
	f.mu.Lock()
	f.writes++
	f.mu.Unlock()
	return f.MemoryStore.Clear(ctx, userID)
}

func TestUpdateHandler_SessionReadFailureKeepsFlow(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	stored := session.Session{
		Flow:   string(conversation.FlowRegistration),
		State:  string(conversation.StateAge),
		Fields: map[string]string{conversation.FieldName: "Ana", conversation.FieldSurname: "Pérez"},
	}
	sessions := &flakySessions{MemoryStore: h.sessions}
	if err := h.sessions.Put(ctx, 5, stored); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	h.handler.deps.Sessions = sessions
	sessions.setDown(true)

	h.handler.Handle(ctx, nil, textUpdate(5, "42"))
	h.handler.Handle(ctx, nil, buttonUpdate(5, conversation.TagMenu, 7))
	h.wait(t)

	if sessions.writes != 0 {
		t.Errorf("session writes = %d, want 0 while reads fail", sessions.writes)
	}
	sessions.setDown(false)
	got, err := sessions.Get(ctx, 5)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Flow != stored.Flow || got.State != stored.State || len(got.Fields) != 2 {
		t.Errorf("session after failed reads = %+v, want %+v", got, stored)
	}

	if len(h.renderer.out) != 2 {
		t.Fatalf("render calls = %d, want 2", len(h.renderer.out))
	}
	for i, out := range h.renderer.out {
		if len(out.replies) != 1 || out.replies[0].Text != config.DefaultMessages.Unavailable {
			t.Errorf("render %d replies = %+v, want the retry notice only", i, out.replies)
		}
		if out.target.EditMessageID != 0 {
			t.Errorf("render %d edits message %d, want a new message", i, out.target.EditMessageID)
		}
	}
	if h.renderer.out[1].target.CallbackQueryID != "cb" {
		t.Error("button press was not answered")
	}
	if len(h.store.profiles) != 0 {
		t.Errorf("profiles = %d, want 0", len(h.store.profiles))
	}
}

func TestCommands(t *testing.T) {
	t.Parallel()
	cmds := Commands(config.DefaultMessages)

	want := []string{"start", "menu", "cancel"}
	if len(cmds) != len(want) {
		t.Fatalf("Commands() returned %d commands, want %d", len(cmds), len(want))
	}
	for i, c := range cmds {
		if c.Command != want[i] || c.Description == "" {
			t.Errorf("command %d = %+v, want %q with a description", i, c, want[i])
		}
	}
}
