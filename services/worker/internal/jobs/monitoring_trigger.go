package jobs

import (
	"context"
	"log"

	"github.com/hibiken/asynq"

	"github.com/tradewatch/monitor/services/worker/internal/clients"
)

// MonitoringTriggerHandler invokes the API service's monitoring trigger
// route on the cron schedule registered in NewScheduler, reusing this
// package's existing asynq-scheduled periodic-task pattern.
type MonitoringTriggerHandler struct {
	client *clients.MonitorTriggerClient
}

// NewMonitoringTriggerHandler builds a handler for TypeMonitoringTrigger.
func NewMonitoringTriggerHandler(client *clients.MonitorTriggerClient) *MonitoringTriggerHandler {
	return &MonitoringTriggerHandler{client: client}
}

// ProcessTask implements asynq.Handler.
func (h *MonitoringTriggerHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	summary, err := h.client.TriggerRun(ctx)
	if err != nil {
		log.Printf("monitoring trigger failed: %v", err)
		return err
	}
	log.Printf("monitoring run: status=%s monitored=%d updates_found=%d lock=%s",
		summary.Status, summary.Monitored, summary.UpdatesFound, summary.Lock)
	return nil
}
