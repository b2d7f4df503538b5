package tasks

import (
	"context"
	"time"

	"github.com/verdantlab/papabois/internal/metrics"
)

// newStateExpiryTask creates the scheduled task that clears awaiting-photo
// entries older than the configured TTL. A user whose prompt expires simply
// has to issue /whois_plant again.
func newStateExpiryTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "state_expiry")

	return func(ctx context.Context) error {
		cutoff := time.Now().UTC().Add(-deps.Config.State.PendingTTL)
		expired := deps.States.ExpireBefore(cutoff)
		metrics.AwaitingUsers.Set(float64(deps.States.Len()))

		if expired > 0 {
			log.InfoContext(ctx, "Expired stale awaiting-photo entries",
				"expired", expired, "remaining", deps.States.Len())
		}
		return nil
	}
}
