// Package main is the entry point for the worker service.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/tradewatch/monitor/services/worker/internal/clients"
	"github.com/tradewatch/monitor/services/worker/internal/config"
	"github.com/tradewatch/monitor/services/worker/internal/jobs"
)

func main() {
	log.Println("Starting monitor worker service...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to parse REDIS_URL: %v", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	notificationConsumer := jobs.NewNotificationConsumer(redisClient, cfg.NotificationQueueKeyPrefix, cfg.NotificationDetailKeyPrefix, cfg.NotificationChannels)

	// Create worker to process tasks
	worker, err := jobs.NewWorker(cfg.RedisURL, cfg.Concurrency)
	if err != nil {
		log.Fatalf("Failed to create worker: %v", err)
	}

	monitoringCron := cfg.MonitoringSchedule
	if cfg.MonitoringAPIURL != "" {
		monitoringClient := clients.NewMonitorTriggerClient(cfg.MonitoringAPIURL)
		worker.RegisterHandler(jobs.TypeMonitoringTrigger, jobs.NewMonitoringTriggerHandler(monitoringClient))
		log.Printf("Monitoring trigger job targets %s", cfg.MonitoringAPIURL)
	} else {
		monitoringCron = ""
		log.Println("MONITORING_API_URL not set, monitoring trigger job disabled")
	}

	// Create scheduler to enqueue periodic tasks
	scheduler, err := jobs.NewScheduler(cfg.RedisURL, monitoringCron)
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start health check server
	healthServer := startHealthServer(cfg.HealthPort, worker)

	// Run scheduler, task worker, and the notification consumer concurrently
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Println("Starting task scheduler...")
		return scheduler.Run()
	})

	g.Go(func() error {
		log.Println("Starting task worker...")
		return worker.Run()
	})

	g.Go(func() error {
		log.Println("Starting notification queue consumer...")
		if err := notificationConsumer.Run(gctx); err != nil && gctx.Err() == nil {
			return err
		}
		return nil
	})

	// Wait for shutdown signal
	<-ctx.Done()
	log.Println("Shutting down worker service...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Health server shutdown error: %v", err)
	}

	scheduler.Shutdown()
	worker.Shutdown()

	if err := g.Wait(); err != nil && gctx.Err() == nil {
		log.Printf("worker service error: %v", err)
	}

	log.Println("Worker service stopped")
}

// startHealthServer starts the health check HTTP server.
func startHealthServer(port string, worker *jobs.Worker) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if worker.IsHealthy() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"healthy"}`))
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unhealthy"}`))
		}
	})

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("Health server listening on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Health server error: %v", err)
		}
	}()

	return server
}
