package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	goredis "github.com/go-redis/redis/v8"

	"github.com/tradewatch/monitor/internal/bookmarks"
	monitorconfig "github.com/tradewatch/monitor/internal/config"
	"github.com/tradewatch/monitor/internal/coordinator"
	monitordb "github.com/tradewatch/monitor/internal/database"
	"github.com/tradewatch/monitor/internal/detector"
	"github.com/tradewatch/monitor/internal/feed"
	"github.com/tradewatch/monitor/internal/notifyqueue"
	"github.com/tradewatch/monitor/internal/observability"
	"github.com/tradewatch/monitor/internal/ratelimit"
	"github.com/tradewatch/monitor/internal/retry"
	"github.com/tradewatch/monitor/internal/telemetry"
	"github.com/tradewatch/monitor/internal/worker"
	"github.com/tradewatch/monitor/services/api/internal/config"
	"github.com/tradewatch/monitor/services/api/internal/httpserver"
)

// buildMonitorCoordinator wires the monitoring core's coordinator from
// its own config/DB/Redis, independent of this service's own config
// (§6.3: the core keeps its own go-redis v8 client). Returns nil with a
// logged warning if the core cannot be wired, so the rest of the API
// still starts.
func buildMonitorCoordinator(logger *log.Logger) (*coordinator.Coordinator, *observability.HealthChecker) {
	cfg, err := monitorconfig.Load()
	if err != nil {
		logger.Printf("WARNING: monitoring core config invalid, trigger route disabled: %v", err)
		return nil, nil
	}

	db, err := monitordb.NewConnection(monitordb.Config{
		Host:     cfg.DatabaseHost,
		Port:     cfg.DatabasePort,
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		DBName:   cfg.DatabaseName,
		SSLMode:  cfg.DatabaseSSLMode,
	})
	if err != nil {
		logger.Printf("WARNING: monitoring core database unavailable, trigger route disabled: %v", err)
		return nil, nil
	}

	redisClient := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := telemetry.InstrumentRedisClient(redisClient); err != nil {
		logger.Printf("WARNING: redis tracing instrumentation unavailable: %v", err)
	}

	repo := bookmarks.NewRepository(db.DB)
	persister := feed.NewPersister(db)
	enqueuer := notifyqueue.New(redisClient, cfg.NotificationQueueKeyPrefix, cfg.NotificationDetailKeyPrefix, nil)
	limiter := ratelimit.New(cfg.RPMLimit)
	policy := retry.DefaultPolicy()

	// See cmd/monitorjob/main.go: no real detector ships in this repo.
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

	health := observability.NewHealthChecker()
	health.RegisterDatabaseCheck("monitoring_db", db.DB)
	health.RegisterRedisCheck("monitoring_redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})

	return c, health
}

func main() {
	cfg := config.Load()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	monitorCoordinator, monitorHealth := buildMonitorCoordinator(logger)
	httpApp := httpserver.New(monitorCoordinator, monitorHealth)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Printf("http listening on %s", cfg.HTTPAddr)
		if err := httpApp.Listen(cfg.HTTPAddr); err != nil {
			if groupCtx.Err() != nil {
				return nil
			}
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := httpApp.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Printf("HTTP shutdown error: %v", err)
		}

		logger.Println("Graceful shutdown completed")
		return nil
	})

	if err := group.Wait(); err != nil {
		logger.Printf("server error: %v", err)
		os.Exit(1)
	}
}
