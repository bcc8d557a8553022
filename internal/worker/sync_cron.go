package worker

// sync_cron.go
// Background goroutine that enqueues a product-cache synchronization on a
// fixed interval. Skips a tick while the Supabase circuit breaker is open so
// a downed cache endpoint is not hammered on schedule.

import (
	"context"
	"time"

	"backoffice/internal/infra"

	"github.com/rs/zerolog/log"
)

// SyncCronConfig holds the dependencies for the periodic sync.
type SyncCronConfig struct {
	Dispatcher *Dispatcher
	Tracker    *SyncTracker
	CB         *infra.CircuitBreaker
	Interval   time.Duration
}

// StartSyncCron launches a background goroutine that enqueues one sync job
// per interval. It respects the context for graceful shutdown.
func StartSyncCron(ctx context.Context, cfg SyncCronConfig) {
	if cfg.Interval <= 0 {
		cfg.Interval = 168 * time.Hour
	}
	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		log.Info().Dur("interval", cfg.Interval).Msg("sync_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("sync_cron: shutting down")
				return
			case <-ticker.C:
				enqueueScheduledSync(ctx, cfg)
			}
		}
	}()
}

func enqueueScheduledSync(ctx context.Context, cfg SyncCronConfig) {
	if cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("sync_cron: circuit breaker is open, skipping tick")
		return
	}
	taskID, err := cfg.Tracker.Enqueue(ctx, cfg.Dispatcher)
	if err != nil {
		log.Error().Err(err).Msg("sync_cron: failed to enqueue sync job")
		return
	}
	log.Info().Str("task_id", taskID).Msg("sync_cron: sync job enqueued")
}
