// services/scheduler.go
package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartSnapshotScheduler snapshots every referrer's funnel each interval.
// The caller shuts the returned scheduler down.
func (s *AnalyticsService) StartSnapshotScheduler(ctx context.Context, interval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			saved, err := s.TakeSnapshots(ctx)
			if err != nil {
				log.Printf("[Scheduler] snapshot run failed: %v", err)
				return
			}
			log.Printf("✅ Stored %d funnel snapshots", saved)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("schedule snapshot job: %w", err)
	}

	sched.Start()
	return sched, nil
}
