// Command monitorjob runs a single monitoring pass: acquire the
// single-flight lock, load active bookmarks, detect updates, persist
// findings, and enqueue notifications. Exits non-zero on a
// coordinator-level failure (Redis unreachable); a benign
// already-running observation exits zero.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"

	"github.com/tradewatch/monitor/internal/bookmarks"
	"github.com/tradewatch/monitor/internal/config"
	"github.com/tradewatch/monitor/internal/coordinator"
	"github.com/tradewatch/monitor/internal/database"
	"github.com/tradewatch/monitor/internal/detector"
	"github.com/tradewatch/monitor/internal/feed"
	"github.com/tradewatch/monitor/internal/notifyqueue"
	"github.com/tradewatch/monitor/internal/ratelimit"
	"github.com/tradewatch/monitor/internal/retry"
	"github.com/tradewatch/monitor/internal/telemetry"
	"github.com/tradewatch/monitor/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(database.Config{
		Host:     cfg.DatabaseHost,
		Port:     cfg.DatabasePort,
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		DBName:   cfg.DatabaseName,
		SSLMode:  cfg.DatabaseSSLMode,
	})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()
	if err := telemetry.InstrumentRedisClient(redisClient); err != nil {
		log.Printf("redis tracing instrumentation unavailable: %v", err)
	}

	repo := bookmarks.NewRepository(db.DB)
	persister := feed.NewPersister(db)
	enqueuer := notifyqueue.New(redisClient, cfg.NotificationQueueKeyPrefix, cfg.NotificationDetailKeyPrefix, nil)
	limiter := ratelimit.New(cfg.RPMLimit)
	policy := retry.DefaultPolicy()

	// noUpdateDetector is a placeholder: detecting real-world updates is
	// explicitly out of scope for this repository (§1 Non-goals). Operators
	// wire a real detector.Detector implementation here.
	noUpdateDetector := detector.Func(func(ctx context.Context, targetValue string) (detector.Result, error) {
		return detector.Result{Status: detector.StatusNoUpdate}, nil
	})

	newWorker := func() *worker.Worker {
		return worker.New(limiter, policy, noUpdateDetector, persister, enqueuer)
	}

	c := coordinator.New(redisClient, repo, newWorker, coordinator.Config{
		LockKey:     cfg.JobLockKey,
		LockTTL:     cfg.JobLockTimeout,
		Concurrency: cfg.ConcurrentRequestsLimit,
	})

	summary, err := c.RunMonitoring(ctx)
	if err != nil {
		log.Fatalf("run monitoring: %v", err)
	}

	log.Printf("monitoring run complete: status=%s monitored=%d updates_found=%d lock=%s",
		summary.Status, summary.Monitored, summary.UpdatesFound, summary.Lock)

	if summary.Status == "service_unavailable" {
		os.Exit(1)
	}
}
