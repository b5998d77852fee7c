package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"github.com/sismos-scu/sismobot/internal/bot/tasks"
	"github.com/sismos-scu/sismobot/internal/config"
)

// StopTimeout bounds how long Stop waits for running tasks.
const StopTimeout = 30 * time.Second

var (
	errTaskDisabled   = errors.New("task disabled")
	errTaskUnknown    = errors.New("task configured but not registered")
	errTaskNoSchedule = errors.New("task enabled without a schedule")
)

// Scheduler runs the configured maintenance tasks on their cron schedules.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	cfg       *config.SchedulerConfig
	taskMap   map[string]tasks.ScheduledTaskFunc
	mu        sync.Mutex
	running   bool
	scheduled int
}

// NewScheduler creates a gocron-backed scheduler. Tasks are only added on Start.
func NewScheduler(logger *slog.Logger, cfg *config.SchedulerConfig, taskMap map[string]tasks.ScheduledTaskFunc) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "scheduler")

	s, err := gocron.NewScheduler(
		gocron.WithLogger(log),
		gocron.WithStopTimeout(StopTimeout),
		gocron.WithGlobalJobOptions(
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithEventListeners(
				gocron.BeforeJobRuns(func(_ uuid.UUID, name string) {
					log.Info("Running scheduled task", "task_name", name)
				}),
				gocron.AfterJobRuns(func(_ uuid.UUID, name string) {
					log.Info("Finished scheduled task", "task_name", name)
				}),
				gocron.AfterJobRunsWithError(func(_ uuid.UUID, name string, err error) {
					log.Error("Scheduled task failed", "task_name", name, "error", err)
				}),
			),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: s,
		logger:    log,
		cfg:       cfg,
		taskMap:   taskMap,
	}, nil
}

// Start adds every usable configured task and starts ticking. Tasks that are
// disabled, unregistered or badly scheduled are logged and skipped.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	var names []string
	if s.cfg != nil {
		for name := range s.cfg.Tasks {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	if len(names) == 0 {
		s.logger.Warn("No scheduler tasks configured.")
	}

	for _, name := range names {
		taskCfg := s.cfg.Tasks[name]
		if err := s.add(name, taskCfg); err != nil {
			if errors.Is(err, errTaskDisabled) {
				s.logger.Info("Skipping disabled task", "task_name", name)
			} else {
				s.logger.Warn("Skipping scheduled task", "task_name", name, "schedule", taskCfg.Schedule, "error", err)
			}
			continue
		}
		s.logger.Info("Scheduled task", "task_name", name, "schedule", taskCfg.Schedule)
		s.scheduled++
	}

	s.scheduler.Start()
	s.running = true
	s.logger.Info("Scheduler started", "tasks_scheduled", s.scheduled)
	return nil
}

func (s *Scheduler) add(name string, taskCfg config.TaskConfig) error {
	if !taskCfg.Enabled {
		return errTaskDisabled
	}
	fn, ok := s.taskMap[name]
	if !ok {
		return errTaskUnknown
	}
	if taskCfg.Schedule == "" {
		return errTaskNoSchedule
	}

	_, err := s.scheduler.NewJob(
		gocron.CronJob(taskCfg.Schedule, true),
		gocron.NewTask(func(ctx context.Context) error { return fn(ctx) }, context.Background()),
		gocron.WithName(name),
	)
	return err
}

// Scheduled returns how many tasks Start accepted.
func (s *Scheduler) Scheduled() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduled
}

// Stop shuts the scheduler down, waiting up to StopTimeout for running tasks.
// Stopping a scheduler that is not running is a no-op.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if err := s.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("scheduler shutdown: %w", err)
	}
	s.logger.Info("Scheduler stopped.")
	return nil
}
