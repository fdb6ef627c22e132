// Package notifyqueue implements the Notification Enqueuer (C5): after
// the finding persister commits, it writes a detail hash and pushes the
// task uuid onto a per-channel queue, grounded on the donor's
// services/api/internal/notification/queue.go RedisQueue.Enqueue.
package notifyqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/tradewatch/monitor/internal/bookmarks"
	"github.com/tradewatch/monitor/internal/feed"
)

// Channel is a notification delivery channel.
type Channel string

const (
	ChannelEmail Channel = "EMAIL"
	ChannelSMS   Channel = "SMS"
)

// ChannelPolicy decides which channels a bookmark's owner should be
// notified on. The default policy reads email_enabled/sms_enabled
// directly; callers may inject a richer policy (e.g. backed by a
// per-user-preference service) without changing the enqueuer's
// signature.
type ChannelPolicy func(bookmarks.Bookmark) []Channel

// DefaultChannelPolicy reproduces the donor's current behavior exactly.
func DefaultChannelPolicy(b bookmarks.Bookmark) []Channel {
	var chans []Channel
	if b.EmailEnabled {
		chans = append(chans, ChannelEmail)
	}
	if b.SMSEnabled {
		chans = append(chans, ChannelSMS)
	}
	return chans
}

// Enqueuer writes notification tasks to Redis.
type Enqueuer struct {
	client       *redis.Client
	queuePrefix  string
	detailPrefix string
	policy       ChannelPolicy
}

// New builds an Enqueuer. queuePrefix/detailPrefix are the configured
// MONITORING_NOTIFICATION_QUEUE_KEY_PREFIX / _DETAIL_KEY_PREFIX values.
// A nil policy defaults to DefaultChannelPolicy.
func New(client *redis.Client, queuePrefix, detailPrefix string, policy ChannelPolicy) *Enqueuer {
	if policy == nil {
		policy = DefaultChannelPolicy
	}
	return &Enqueuer{client: client, queuePrefix: queuePrefix, detailPrefix: detailPrefix, policy: policy}
}

// notificationMessage builds the detail hash's user-facing message,
// distinct from the update_feeds row's own title (internal/feed.title),
// grounded on the donor's _handle_update_found notification string.
func notificationMessage(displayName string) string {
	return fmt.Sprintf("'%s'에 새로운 업데이트가 있습니다!", displayName)
}

// Enqueue writes one notification task per channel the policy selects
// for b, per §4.6: HSET the detail hash before LPUSH onto the channel
// queue, so a task is never visible on the queue before its detail hash
// exists.
func (e *Enqueuer) Enqueue(ctx context.Context, b bookmarks.Bookmark, f *feed.Finding) error {
	channels := e.policy(b)
	for _, ch := range channels {
		taskID := uuid.New().String()
		detailKey := e.detailPrefix + taskID
		queueKey := e.queuePrefix + string(ch)

		fields := map[string]interface{}{
			"user_id":        f.UserID,
			"message":        notificationMessage(b.DisplayName),
			"type":           string(ch),
			"update_feed_id": f.ID,
			"created_at":     f.CreatedAt.Format(time.RFC3339),
		}
		if err := e.client.HSet(ctx, detailKey, fields).Err(); err != nil {
			return fmt.Errorf("notifyqueue: hset %q: %w", detailKey, err)
		}
		if err := e.client.LPush(ctx, queueKey, taskID).Err(); err != nil {
			return fmt.Errorf("notifyqueue: lpush %q: %w", queueKey, err)
		}
	}
	return nil
}
