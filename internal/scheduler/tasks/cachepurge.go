package tasks

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/folio/folio/internal/scheduler"
)

const CachePurgeTaskID = "cache-purge"

// Purger drops expired download cache entries.
type Purger interface {
	Purge(ctx context.Context) (int, error)
}

// RegisterCachePurgeTask purges the download cache every interval.
func RegisterCachePurgeTask(sched *scheduler.Scheduler, cache Purger, interval time.Duration, logger zerolog.Logger) error {
	if interval <= 0 || cache == nil {
		return nil
	}
	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          CachePurgeTaskID,
		Name:        "Cache Purge",
		Description: "Deletes expired entries from the download cache",
		Interval:    interval,
		Func: func(ctx context.Context) error {
			n, err := cache.Purge(ctx)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Debug().Int("purged", n).Msg("Purged expired cache entries")
			}
			return nil
		},
	})
}
