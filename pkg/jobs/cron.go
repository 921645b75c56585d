package jobs

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultReapSchedule runs the reaper every ten minutes
const DefaultReapSchedule = "*/10 * * * *"

// CronManager manages scheduled jobs
type CronManager struct {
	cron   *cron.Cron
	reaper *StaleReaper
	logger *log.Logger
}

// NewCronManager creates a new cron manager
func NewCronManager(reaper *StaleReaper, logger *log.Logger) *CronManager {
	if logger == nil {
		logger = log.Default()
	}

	return &CronManager{
		cron:   cron.New(),
		reaper: reaper,
		logger: logger,
	}
}

// SetupJobs configures all scheduled jobs
func (cm *CronManager) SetupJobs(reapSchedule string) error {
	cm.logger.Println("Setting up cron jobs...")

	if reapSchedule == "" {
		reapSchedule = DefaultReapSchedule
	}

	_, err := cm.cron.AddFunc(reapSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if _, err := cm.reaper.Run(ctx); err != nil {
			cm.logger.Printf("❌ Stale prompt reaper failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	cm.logger.Println("✅ Cron jobs configured successfully")
	cm.logger.Printf("  - %s: Fail prompts stuck in processing", reapSchedule)

	return nil
}

// Entries returns the number of scheduled jobs
func (cm *CronManager) Entries() int {
	return len(cm.cron.Entries())
}

// Start starts the cron scheduler
func (cm *CronManager) Start() {
	cm.logger.Println("🚀 Starting cron scheduler...")
	cm.cron.Start()
}

// Stop stops the cron scheduler and waits for running jobs
func (cm *CronManager) Stop() {
	cm.logger.Println("🛑 Stopping cron scheduler...")
	<-cm.cron.Stop().Done()
}

// Reaper returns the stale prompt reaper (for manual runs)
func (cm *CronManager) Reaper() *StaleReaper {
	return cm.reaper
}
