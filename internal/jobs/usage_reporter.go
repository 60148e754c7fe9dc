// Package jobs runs background maintenance on a cron scheduler. The quota
// rollover itself is self-healing on access; the reporter only snapshots the
// closing day's numbers into the log before the boundary passes.
package jobs

import (
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"liuyao/internal/quota"
)

// UsageReporter logs aggregate quota statistics once a day, just before the
// reset hour wipes the counters.
type UsageReporter struct {
	scheduler gocron.Scheduler
	quota     *quota.Store
}

// NewUsageReporter creates the reporter. The scheduler runs in loc so the
// cron expression lines up with the quota day.
func NewUsageReporter(quotaStore *quota.Store, loc *time.Location) (*UsageReporter, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(loc),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &UsageReporter{
		scheduler: scheduler,
		quota:     quotaStore,
	}, nil
}

// Start registers the nightly job and starts the scheduler.
func (r *UsageReporter) Start(resetHour int) error {
	// Five minutes before the reset hour, while the day's counters are
	// still in the table.
	reportHour := (resetHour + 23) % 24
	cron := fmt.Sprintf("55 %d * * *", reportHour)

	_, err := r.scheduler.NewJob(
		gocron.CronJob(cron, false),
		gocron.NewTask(r.report),
		gocron.WithName("usage-report"),
	)
	if err != nil {
		return fmt.Errorf("failed to register usage report job: %w", err)
	}

	r.scheduler.Start()
	log.Printf("⏰ [JOBS] Usage reporter scheduled (cron %q)", cron)
	return nil
}

// Stop shuts the scheduler down.
func (r *UsageReporter) Stop() error {
	log.Println("⏹️  [JOBS] Stopping usage reporter...")
	return r.scheduler.Shutdown()
}

func (r *UsageReporter) report() {
	stats, err := r.quota.Statistics()
	if err != nil {
		log.Printf("❌ [JOBS] Usage report failed: %v", err)
		return
	}
	log.Printf("📊 [JOBS] Daily usage: %d users, %d casts (period since %s)",
		stats.TotalUsers, stats.TotalUsage, stats.LastReset)
}
