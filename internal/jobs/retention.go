// Package jobs runs the background maintenance work that lives outside
// the knowledge store core: currently a daily prune of closed forum
// posts past the retention window.
package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"supportboard/internal/services"
)

// StartScheduler creates and starts the background job scheduler.
// Callers own the returned scheduler and should Shutdown it on exit.
func StartScheduler(tracker *services.ForumTrackerService, retentionDays int) (gocron.Scheduler, error) {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	retention := time.Duration(retentionDays) * 24 * time.Hour

	_, err = scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(4, 0, 0))),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			pruned, err := tracker.PruneClosed(ctx, retention)
			if err != nil {
				log.Printf("❌ [JOBS] Forum retention cleanup failed: %v", err)
				return
			}
			if pruned > 0 {
				log.Printf("🗑️  [JOBS] Pruned %d closed forum posts older than %d days", pruned, retentionDays)
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register retention job: %w", err)
	}

	scheduler.Start()
	log.Printf("✅ [JOBS] Scheduler started (forum retention: %d days)", retentionDays)
	return scheduler, nil
}
