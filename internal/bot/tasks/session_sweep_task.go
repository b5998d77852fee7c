package tasks

import (
	"context"
	"fmt"
	"time"
)

// newSessionSweepTask drops sessions that have not moved for longer than the session TTL,
// so abandoned flows restart from the menu.
func newSessionSweepTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", SessionSweepTask)

	return func(ctx context.Context) error {
		cutoff := time.Now().Add(-deps.Config.Session.TTL)

		removed, err := deps.Sweeper.Sweep(ctx, cutoff)
		if err != nil {
			log.ErrorContext(ctx, "Session sweep failed", "error", err)
			return fmt.Errorf("session sweep failed: %w", err)
		}

		if removed > 0 {
			log.InfoContext(ctx, "Expired idle sessions", "removed", removed, "cutoff", cutoff)
		} else {
			log.DebugContext(ctx, "No idle sessions to expire", "cutoff", cutoff)
		}
		return nil
	}
}
