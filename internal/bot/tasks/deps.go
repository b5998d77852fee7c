// Package tasks implements the bot's scheduled maintenance jobs.
package tasks

import (
	"context"
	"log/slog"

	"github.com/sismos-scu/sismobot/internal/config"
	"github.com/sismos-scu/sismobot/internal/session"
)

// Maintainer runs database housekeeping.
type Maintainer interface {
	RunSQLMaintenance(ctx context.Context) error
}

// TaskDeps contains all dependencies required by scheduled tasks.
// Sweeper is nil when the session backend expires entries on its own.
type TaskDeps struct {
	Logger  *slog.Logger
	Store   Maintainer
	Sweeper session.Sweeper
	Config  *config.Config
}
