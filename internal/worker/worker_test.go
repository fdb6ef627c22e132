package worker

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"

	"github.com/tradewatch/monitor/internal/bookmarks"
	"github.com/tradewatch/monitor/internal/database"
	"github.com/tradewatch/monitor/internal/detector"
	"github.com/tradewatch/monitor/internal/feed"
	"github.com/tradewatch/monitor/internal/notifyqueue"
	"github.com/tradewatch/monitor/internal/ratelimit"
	"github.com/tradewatch/monitor/internal/retry"
	"github.com/tradewatch/monitor/internal/telemetry"
	"github.com/tradewatch/monitor/internal/testutil"
)

func newHarness(t *testing.T) (*database.DB, *redis.Client) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := testutil.StartPostgresContainer(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgContainer.Stop(ctx) })

	db, err := database.NewConnection(database.Config{
		Host: pgContainer.Host(), Port: pgContainer.Port(),
		User: pgContainer.User(), Password: pgContainer.Password(),
		DBName: pgContainer.DBName(), SSLMode: "disable",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.ExecContext(ctx, `
		CREATE TABLE bookmarks (
			id BIGSERIAL PRIMARY KEY, user_id BIGINT NOT NULL, type TEXT NOT NULL,
			target_value VARCHAR(50) NOT NULL, display_name VARCHAR(200),
			sms_notification_enabled BOOLEAN NOT NULL DEFAULT false,
			email_notification_enabled BOOLEAN NOT NULL DEFAULT true,
			monitoring_active BOOLEAN GENERATED ALWAYS AS (sms_notification_enabled OR email_notification_enabled) STORED
		);
		CREATE TABLE update_feeds (
			id BIGSERIAL PRIMARY KEY, user_id BIGINT NOT NULL, feed_type TEXT NOT NULL,
			target_type TEXT, target_value VARCHAR(50), title VARCHAR(500) NOT NULL,
			content TEXT NOT NULL, importance TEXT NOT NULL DEFAULT 'MEDIUM',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`)
	require.NoError(t, err)

	redisContainer, err := testutil.StartRedisContainer(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = redisContainer.Stop(ctx) })
	client := redis.NewClient(&redis.Options{Addr: redisContainer.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())

	return db, client
}

func insertBookmark(t *testing.T, db *sql.DB) bookmarks.Bookmark {
	t.Helper()
	var id int64
	require.NoError(t, db.QueryRow(`
		INSERT INTO bookmarks (user_id, type, target_value, display_name, email_notification_enabled)
		VALUES (1, 'HS_CODE', '6109.10', 'T-shirts', true) RETURNING id
	`).Scan(&id))
	return bookmarks.Bookmark{ID: id, UserID: 1, Type: bookmarks.TypeHSCode, TargetValue: "6109.10", DisplayName: "T-shirts", EmailEnabled: true}
}

func fastPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 3, Initial: 1, Max: 2, Multiplier: 1.0}
}

func TestProcess_UpdateFoundPersistsAndEnqueues(t *testing.T) {
	db, client := newHarness(t)
	ctx := context.Background()
	b := insertBookmark(t, db.DB)

	d := detector.Func(func(ctx context.Context, target string) (detector.Result, error) {
		return detector.Result{Status: detector.StatusUpdateFound, Summary: "tariff up 2%"}, nil
	})

	w := New(ratelimit.New(6000), fastPolicy(), d, feed.NewPersister(db), notifyqueue.New(client, "daily_notification:queue:", "daily_notification:detail:", nil))

	ok, err := w.Process(ctx, b)
	require.NoError(t, err)
	require.True(t, ok)

	var count int
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM update_feeds`).Scan(&count))
	require.Equal(t, 1, count)

	length, err := client.LLen(ctx, "daily_notification:queue:EMAIL").Result()
	require.NoError(t, err)
	require.EqualValues(t, 1, length)
}

func TestProcess_NoUpdateReturnsFalse(t *testing.T) {
	db, client := newHarness(t)
	ctx := context.Background()
	b := insertBookmark(t, db.DB)

	d := detector.Func(func(ctx context.Context, target string) (detector.Result, error) {
		return detector.Result{Status: detector.StatusNoUpdate}, nil
	})

	w := New(ratelimit.New(6000), fastPolicy(), d, feed.NewPersister(db), notifyqueue.New(client, "daily_notification:queue:", "daily_notification:detail:", nil))

	ok, err := w.Process(ctx, b)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestProcess_DetectorErrorStatusReturnsFalseNotError(t *testing.T) {
	db, client := newHarness(t)
	ctx := context.Background()
	b := insertBookmark(t, db.DB)

	d := detector.Func(func(ctx context.Context, target string) (detector.Result, error) {
		return detector.Result{Status: detector.StatusError, ErrorMessage: "upstream confused"}, nil
	})

	w := New(ratelimit.New(6000), fastPolicy(), d, feed.NewPersister(db), notifyqueue.New(client, "daily_notification:queue:", "daily_notification:detail:", nil))

	ok, err := w.Process(ctx, b)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestProcess_RetriesThenSucceeds(t *testing.T) {
	db, client := newHarness(t)
	ctx := context.Background()
	b := insertBookmark(t, db.DB)

	seq := detector.NewSequence(
		detector.Step{Err: &detector.Error{Kind: detector.KindTransientRateLimited, Message: "rl"}},
		detector.Step{Err: &detector.Error{Kind: detector.KindTransientRateLimited, Message: "rl"}},
		detector.Step{Result: detector.Result{Status: detector.StatusUpdateFound, Summary: "tariff up 2%"}},
	)

	w := New(ratelimit.New(6000), fastPolicy(), seq, feed.NewPersister(db), notifyqueue.New(client, "daily_notification:queue:", "daily_notification:detail:", nil))

	ok, err := w.Process(ctx, b)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 3, seq.CallCount())
}

func TestProcess_PersistSucceedsEnqueueFailsReturnsFalseAndLogsCritical(t *testing.T) {
	db, _ := newHarness(t)
	ctx := context.Background()
	b := insertBookmark(t, db.DB)

	var buf bytes.Buffer
	telemetry.GetGlobalLogger().SetOutput(&buf)
	t.Cleanup(func() { telemetry.GetGlobalLogger().SetOutput(os.Stdout) })

	d := detector.Func(func(ctx context.Context, target string) (detector.Result, error) {
		return detector.Result{Status: detector.StatusUpdateFound, Summary: "tariff up 2%"}, nil
	})

	// An Enqueuer pointed at an address nothing listens on reproduces
	// the persist-succeeds/enqueue-fails path without a mock.
	brokenClient := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond})
	t.Cleanup(func() { _ = brokenClient.Close() })

	w := New(ratelimit.New(6000), fastPolicy(), d, feed.NewPersister(db), notifyqueue.New(brokenClient, "daily_notification:queue:", "daily_notification:detail:", nil))

	ok, err := w.Process(ctx, b)
	require.NoError(t, err)
	require.False(t, ok)

	var count int
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM update_feeds`).Scan(&count))
	require.Equal(t, 1, count, "finding must be persisted even though enqueue failed")

	require.Contains(t, buf.String(), "feed committed but notification enqueue failed")
	require.Contains(t, buf.String(), `"critical":true`)
}

func TestProcess_NonRetriableErrorStopsImmediately(t *testing.T) {
	db, client := newHarness(t)
	ctx := context.Background()
	b := insertBookmark(t, db.DB)

	seq := detector.NewSequence(
		detector.Step{Err: &detector.Error{Kind: detector.KindMalformedOutput, Message: "bad"}},
	)

	w := New(ratelimit.New(6000), fastPolicy(), seq, feed.NewPersister(db), notifyqueue.New(client, "daily_notification:queue:", "daily_notification:detail:", nil))

	ok, err := w.Process(ctx, b)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 1, seq.CallCount())
}
