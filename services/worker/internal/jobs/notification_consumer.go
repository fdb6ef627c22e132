package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// NotificationConsumer drains the monitoring core's per-channel
// notification queues (§6.3): BRPOP the queue for a task uuid, HGETALL
// the detail hash, simulate channel delivery, then delete the detail
// hash once delivered.
type NotificationConsumer struct {
	client       *redis.Client
	detailPrefix string
	queueKeys    []string
	blockTimeout time.Duration
}

// NewNotificationConsumer builds a consumer draining queuePrefix+channel
// for each of channels (e.g. "EMAIL", "SMS") via BRPOP.
func NewNotificationConsumer(client *redis.Client, queuePrefix, detailPrefix string, channels []string) *NotificationConsumer {
	keys := make([]string, len(channels))
	for i, ch := range channels {
		keys[i] = queuePrefix + ch
	}
	return &NotificationConsumer{
		client:       client,
		detailPrefix: detailPrefix,
		queueKeys:    keys,
		blockTimeout: 5 * time.Second,
	}
}

// Run blocks, draining the configured queues until ctx is cancelled.
func (c *NotificationConsumer) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		result, err := c.client.BRPop(ctx, c.blockTimeout, c.queueKeys...).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue // block timeout elapsed, no task ready
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("notification consumer: brpop failed: %v", err)
			continue
		}

		queueKey, taskID := result[0], result[1]
		if err := c.deliver(ctx, taskID); err != nil {
			log.Printf("notification consumer: delivering task %s from %s failed: %v", taskID, queueKey, err)
		}
	}
}

// deliver reads the task's detail hash, simulates channel delivery by
// logging it, then deletes the hash so it is processed at most once.
func (c *NotificationConsumer) deliver(ctx context.Context, taskID string) error {
	detailKey := c.detailPrefix + taskID

	detail, err := c.client.HGetAll(ctx, detailKey).Result()
	if err != nil {
		return fmt.Errorf("hgetall %q: %w", detailKey, err)
	}
	if len(detail) == 0 {
		log.Printf("notification consumer: detail %q missing, skipping", detailKey)
		return nil
	}

	log.Printf("delivering %s notification to user %s: %s", detail["type"], detail["user_id"], detail["message"])

	if err := c.client.Del(ctx, detailKey).Err(); err != nil {
		return fmt.Errorf("del %q: %w", detailKey, err)
	}
	return nil
}
