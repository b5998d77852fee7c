package conversation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/sismos-scu/sismobot/internal/config"
	"github.com/sismos-scu/sismobot/internal/database"
	"github.com/sismos-scu/sismobot/internal/gemini"
	"github.com/sismos-scu/sismobot/internal/session"
)

type generateCall struct {
	Prompt      string
	Temperature float32
	MaxTokens   int32
}

type fakeGenerator struct {
	mu    sync.Mutex
	text  string
	err   error
	calls []generateCall
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string, temperature float32, maxTokens int32) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, generateCall{Prompt: prompt, Temperature: temperature, MaxTokens: maxTokens})
	if g.err != nil {
		return "", g.err
	}
	return g.text, nil
}

type fakeStore struct {
	mu       sync.Mutex
	profiles map[int64]database.Profile
	upserts  int
	queries  []database.QueryRecord
	media    []database.MediaRecord
	err      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{profiles: make(map[int64]database.Profile)}
}

func (s *fakeStore) UpsertProfile(_ context.Context, p *database.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.upserts++
	s.profiles[p.UserID] = *p
	return nil
}

func (s *fakeStore) AppendQuery(_ context.Context, r *database.QueryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.queries = append(s.queries, *r)
	return nil
}

func (s *fakeStore) AppendMedia(_ context.Context, r *database.MediaRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.media = append(s.media, *r)
	return nil
}

var errBackendDown = &gemini.GenerationError{Reason: "api call failed", Err: errors.New("503 unavailable")}

func newTestDispatcher(t *testing.T, gen *fakeGenerator, store *fakeStore) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(gen, store, config.DefaultMessages, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewDispatcher() error = %v", err)
	}
	return d
}

// feed sends events one after another, carrying the session like the handler does.
func feed(d *Dispatcher, userID int64, s session.Session, events ...Event) (Result, session.Session) {
	var res Result
	for _, ev := range events {
		res = d.Handle(context.Background(), userID, ev, s)
		s = res.Session
	}
	return res, s
}

func texts(events ...string) []Event {
	out := make([]Event, len(events))
	for i, e := range events {
		out[i] = TextEvent{Body: e}
	}
	return out
}

// registrationInputs are valid answers for every registration step, in order.
var registrationInputs = []string{"Ana", "Pérez", "30", "Femenino", "Universitario", "Santiago", "ANA@Example.com", "Sí"}
