package tasks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sismos-scu/sismobot/internal/config"
	"github.com/sismos-scu/sismobot/internal/session"
)

type fakeMaintainer struct {
	calls int
	err   error
}

func (f *fakeMaintainer) RunSQLMaintenance(context.Context) error {
	f.calls++
	return f.err
}

type fakeSweeper struct {
	cutoff time.Time
	n      int
	err    error
}

func (f *fakeSweeper) Sweep(_ context.Context, idleSince time.Time) (int, error) {
	f.cutoff = idleSince
	return f.n, f.err
}

func testDeps(store Maintainer, sweeper session.Sweeper) TaskDeps {
	return TaskDeps{
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Store:   store,
		Sweeper: sweeper,
		Config: &config.Config{
			Database: config.DatabaseConfig{OperationTimeout: time.Second},
			Session:  config.SessionConfig{TTL: time.Hour},
		},
	}
}

func TestRegisterAllTasks(t *testing.T) {
	t.Parallel()

	withSweeper := RegisterAllTasks(testDeps(&fakeMaintainer{}, &fakeSweeper{}))
	if _, ok := withSweeper[SQLMaintenanceTask]; !ok {
		t.Error("sql_maintenance not registered")
	}
	if _, ok := withSweeper[SessionSweepTask]; !ok {
		t.Error("session_sweep not registered with a sweeper")
	}

	withoutSweeper := RegisterAllTasks(testDeps(&fakeMaintainer{}, nil))
	if _, ok := withoutSweeper[SessionSweepTask]; ok {
		t.Error("session_sweep registered without a sweeper")
	}
}

func TestSQLMaintenanceTask(t *testing.T) {
	t.Parallel()

	ok := &fakeMaintainer{}
	if err := newSQLMaintenanceTask(testDeps(ok, nil))(context.Background()); err != nil || ok.calls != 1 {
		t.Errorf("task error = %v, calls = %d, want nil and 1", err, ok.calls)
	}

	failing := &fakeMaintainer{err: errors.New("database is locked")}
	if err := newSQLMaintenanceTask(testDeps(failing, nil))(context.Background()); err == nil {
		t.Error("task error = nil, want error")
	}
}

func TestSessionSweepTask(t *testing.T) {
	t.Parallel()

	sweeper := &fakeSweeper{n: 3}
	before := time.Now().Add(-time.Hour)
	if err := newSessionSweepTask(testDeps(&fakeMaintainer{}, sweeper))(context.Background()); err != nil {
		t.Fatalf("task error = %v", err)
	}
	if sweeper.cutoff.Before(before) || sweeper.cutoff.After(time.Now().Add(-time.Hour+time.Second)) {
		t.Errorf("cutoff = %v, want about one hour ago", sweeper.cutoff)
	}

	failing := &fakeSweeper{err: errors.New("boom")}
	if err := newSessionSweepTask(testDeps(&fakeMaintainer{}, failing))(context.Background()); err == nil {
		t.Error("task error = nil, want error")
	}
}

func TestSessionSweepTask_MemoryStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := session.NewMemoryStore()
	if err := store.Put(ctx, 1, session.Session{Flow: "qa", State: "question"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	deps := testDeps(&fakeMaintainer{}, store)
	deps.Config.Session.TTL = -time.Minute // everything counts as stale
	if err := newSessionSweepTask(deps)(ctx); err != nil {
		t.Fatalf("task error = %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("sessions left = %d, want 0", store.Len())
	}
}
