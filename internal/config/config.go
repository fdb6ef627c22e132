// Package config loads the monitoring core's tunables from the
// environment, the way services/api/internal/notification/config.go loads
// notification tunables: a typed struct, a Default constructor, and a
// Load that overlays env vars on top of the defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the monitoring core reads at run time.
type Config struct {
	// Lock (C8)
	JobLockKey     string
	JobLockTimeout time.Duration

	// Concurrency & rate limiting (C1, C7)
	ConcurrentRequestsLimit int
	RPMLimit                int

	// Redis key prefixes (C5)
	NotificationQueueKeyPrefix  string
	NotificationDetailKeyPrefix string

	// Redis connection
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Database connection
	DatabaseHost     string
	DatabasePort     string
	DatabaseUser     string
	DatabasePassword string
	DatabaseName     string
	DatabaseSSLMode  string
}

// Default returns the literal defaults carried over from the donor
// source's Settings class.
func Default() Config {
	return Config{
		JobLockKey:                  "monitoring:job:lock",
		JobLockTimeout:              3600 * time.Second,
		ConcurrentRequestsLimit:     5,
		RPMLimit:                    60,
		NotificationQueueKeyPrefix:  "daily_notification:queue:",
		NotificationDetailKeyPrefix: "daily_notification:detail:",
		RedisAddr:                   "localhost:6379",
		RedisDB:                     0,
		DatabaseHost:                "localhost",
		DatabasePort:                "5432",
		DatabaseUser:                "postgres",
		DatabaseName:                "tradewatch",
		DatabaseSSLMode:             "disable",
	}
}

// Load overlays environment variables onto Default, loading a local .env
// file first if present (tolerating its absence, matching the donor's
// cmd/api/main.go startup sequence).
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if v := os.Getenv("MONITORING_JOB_LOCK_KEY"); v != "" {
		cfg.JobLockKey = v
	}
	if v := os.Getenv("MONITORING_JOB_LOCK_TIMEOUT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid MONITORING_JOB_LOCK_TIMEOUT: %q", v)
		}
		cfg.JobLockTimeout = time.Duration(n) * time.Second
	}
	if v := os.Getenv("MONITORING_CONCURRENT_REQUESTS_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid MONITORING_CONCURRENT_REQUESTS_LIMIT: %q", v)
		}
		cfg.ConcurrentRequestsLimit = n
	}
	if v := os.Getenv("MONITORING_RPM_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid MONITORING_RPM_LIMIT: %q", v)
		}
		cfg.RPMLimit = n
	}
	if v := os.Getenv("MONITORING_NOTIFICATION_QUEUE_KEY_PREFIX"); v != "" {
		cfg.NotificationQueueKeyPrefix = v
	}
	if v := os.Getenv("MONITORING_NOTIFICATION_DETAIL_KEY_PREFIX"); v != "" {
		cfg.NotificationDetailKeyPrefix = v
	}

	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("invalid REDIS_DB: %q", v)
		}
		cfg.RedisDB = n
	}

	if v := os.Getenv("DATABASE_HOST"); v != "" {
		cfg.DatabaseHost = v
	}
	if v := os.Getenv("DATABASE_PORT"); v != "" {
		cfg.DatabasePort = v
	}
	if v := os.Getenv("DATABASE_USER"); v != "" {
		cfg.DatabaseUser = v
	}
	if v := os.Getenv("DATABASE_PASSWORD"); v != "" {
		cfg.DatabasePassword = v
	}
	if v := os.Getenv("DATABASE_NAME"); v != "" {
		cfg.DatabaseName = v
	}
	if v := os.Getenv("DATABASE_SSL_MODE"); v != "" {
		cfg.DatabaseSSLMode = v
	}

	if cfg.ConcurrentRequestsLimit < 1 {
		return Config{}, fmt.Errorf("concurrent requests limit must be >= 1, got %d", cfg.ConcurrentRequestsLimit)
	}
	if cfg.RPMLimit < 1 {
		return Config{}, fmt.Errorf("RPM limit must be >= 1, got %d", cfg.RPMLimit)
	}

	return cfg, nil
}
