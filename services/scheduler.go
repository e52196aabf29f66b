// services/scheduler.go
package services

import (
	"context"
	"log"
	"time"

	"matchverse/models"

	"github.com/go-co-op/gocron/v2"
)

// ReportPool logs how many match requests sit in each status.
func (s *MatchService) ReportPool(ctx context.Context) {
	counts, err := s.PoolCounts(ctx)
	if err != nil {
		log.Printf("[Scheduler] DB error: %v", err)
		return
	}
	log.Printf("[Scheduler] match pool: pending=%d pending_confirmation=%d scheduled=%d cancelled=%d",
		counts[models.MatchStatusPending],
		counts[models.MatchStatusPendingConfirmation],
		counts[models.MatchStatusScheduled],
		counts[models.MatchStatusCancelled],
	)
}

// StartPoolReporter runs ReportPool every interval until the returned
// scheduler is shut down.
func (s *MatchService) StartPoolReporter(ctx context.Context, interval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.ReportPool, ctx),
		gocron.WithName("match-pool-report"),
		gocron.WithTags("match"),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, err
	}

	sched.Start()
	return sched, nil
}
