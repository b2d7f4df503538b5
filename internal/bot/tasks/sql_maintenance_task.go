package tasks

import (
	"context"
	"fmt"
	"time"
)

// newSQLMaintenanceTask creates the scheduled task that prunes old
// identification history and runs database maintenance.
func newSQLMaintenanceTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "sql_maintenance")

	return func(ctx context.Context) error {
		log.InfoContext(ctx, "Starting scheduled SQL maintenance task")
		startTime := time.Now()

		cutoff := time.Now().UTC().AddDate(0, 0, -deps.Config.Database.RetentionDays)
		pruned, err := deps.Store.DeleteIdentificationsBefore(ctx, cutoff)
		if err != nil {
			log.ErrorContext(ctx, "Failed to prune identification history", "error", err, "cutoff", cutoff)
			return fmt.Errorf("history pruning failed: %w", err)
		}
		if pruned > 0 {
			log.InfoContext(ctx, "Pruned old identification history", "rows", pruned, "cutoff", cutoff)
		}

		if err := deps.Store.RunSQLMaintenance(ctx); err != nil {
			log.ErrorContext(ctx, "SQL maintenance task failed", "error", err, "duration", time.Since(startTime))
			return fmt.Errorf("sql maintenance failed: %w", err)
		}

		log.InfoContext(ctx, "Scheduled SQL maintenance task completed", "duration", time.Since(startTime))
		return nil
	}
}
