package bot

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sismos-scu/sismobot/internal/bot/tasks"
	"github.com/sismos-scu/sismobot/internal/config"
	"github.com/sismos-scu/sismobot/internal/session"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type blockingListener struct{}

func (blockingListener) Start(ctx context.Context) { <-ctx.Done() }

type returningListener struct{}

func (returningListener) Start(context.Context) {}

func newTestScheduler(t *testing.T, cfg *config.SchedulerConfig, taskMap map[string]tasks.ScheduledTaskFunc) *Scheduler {
	t.Helper()
	s, err := NewScheduler(discard, cfg, taskMap)
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	return s
}

func TestRun_StopsOnCancel(t *testing.T) {
	t.Parallel()
	queue := session.NewQueue(discard)
	var ran atomic.Bool
	queue.Submit(1, func() { ran.Store(true) })

	b := NewBot(discard, blockingListener{}, newTestScheduler(t, nil, nil), queue)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancellation")
	}

	if !ran.Load() {
		t.Error("queued job did not run before shutdown completed")
	}
	if queue.Submit(1, func() {}) {
		t.Error("queue still accepts work after Run returned")
	}
}

func TestRun_ListenerStopsUnexpectedly(t *testing.T) {
	t.Parallel()
	b := NewBot(discard, returningListener{}, newTestScheduler(t, nil, nil), session.NewQueue(discard))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := b.Run(ctx); err == nil {
		t.Error("Run() error = nil, want error")
	}
}

func TestScheduler_RunsEnabledTasks(t *testing.T) {
	t.Parallel()
	var runs atomic.Int32
	taskMap := map[string]tasks.ScheduledTaskFunc{
		"every_second": func(context.Context) error { runs.Add(1); return nil },
		"disabled":     func(context.Context) error { t.Error("disabled task ran"); return nil },
		"bad_schedule": func(context.Context) error { return nil },
	}
	cfg := &config.SchedulerConfig{Tasks: map[string]config.TaskConfig{
		"every_second": {Enabled: true, Schedule: "* * * * * *"},
		"disabled":     {Enabled: false, Schedule: "* * * * * *"},
		"bad_schedule": {Enabled: true, Schedule: "not a cron"},
		"unregistered": {Enabled: true, Schedule: "* * * * * *"},
	}}

	s := newTestScheduler(t, cfg, taskMap)
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Start(); err == nil {
		t.Error("second Start() error = nil, want error")
	}
	if got := s.Scheduled(); got != 1 {
		t.Errorf("Scheduled() = %d, want 1", got)
	}

	deadline := time.Now().Add(3 * time.Second)
	for runs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if err := s.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if runs.Load() == 0 {
		t.Error("enabled task never ran")
	}
	if err := s.Stop(); err != nil {
		t.Errorf("second Stop() error = %v, want nil", err)
	}
}
