// Package jobs provides scheduled background tasks for the worker service.
package jobs

import (
	"log"

	"github.com/hibiken/asynq"
)

// Task type identifiers
const (
	TypeMonitoringTrigger = "monitoring:trigger"
)

// Scheduler manages periodic job scheduling using asynq.
type Scheduler struct {
	scheduler *asynq.Scheduler
}

// NewScheduler creates a new job scheduler. monitoringCron may be empty
// to leave the monitoring trigger unregistered (e.g. local dev without
// the API service running).
func NewScheduler(redisURL string, monitoringCron string) (*Scheduler, error) {
	redisOpt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, err
	}

	scheduler := asynq.NewScheduler(redisOpt, nil)

	if monitoringCron != "" {
		_, err = scheduler.Register(monitoringCron, asynq.NewTask(TypeMonitoringTrigger, nil))
		if err != nil {
			return nil, err
		}
		log.Printf("Registered monitoring trigger job with schedule: %s", monitoringCron)
	}

	return &Scheduler{scheduler: scheduler}, nil
}

// Run starts the scheduler. Blocks until shutdown.
func (s *Scheduler) Run() error {
	return s.scheduler.Run()
}

// Shutdown gracefully stops the scheduler.
func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
