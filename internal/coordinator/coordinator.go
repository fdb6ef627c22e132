// Package coordinator implements the Run Coordinator (C7): the
// single entry point that acquires the distributed lock, loads active
// bookmarks, fans work out across a bounded pool of per-bookmark
// workers, and aggregates the results into a RunSummary.
package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/errgroup"

	"github.com/tradewatch/monitor/internal/bookmarks"
	apperrors "github.com/tradewatch/monitor/internal/errors"
	"github.com/tradewatch/monitor/internal/lock"
	"github.com/tradewatch/monitor/internal/observability"
	"github.com/tradewatch/monitor/internal/telemetry"
	"github.com/tradewatch/monitor/internal/worker"
)

// Status is the coarse outcome of a RunMonitoring call.
type Status string

const (
	StatusSuccess            Status = "success"
	StatusAlreadyRunning     Status = "already_running"
	StatusServiceUnavailable Status = "service_unavailable"
)

// LockStatus reports whether this invocation held the single-flight lock.
type LockStatus string

const (
	LockAcquired    LockStatus = "acquired"
	LockNotAcquired LockStatus = "not_acquired"
)

// RunSummary is the external result shape (§6.1).
type RunSummary struct {
	Status       Status     `json:"status"`
	Monitored    int        `json:"monitored_bookmarks"`
	UpdatesFound int        `json:"updates_found"`
	Lock         LockStatus `json:"lock_status"`
}

// BookmarkLoader loads the set of bookmarks to process for a run.
type BookmarkLoader interface {
	ActiveBookmarks(ctx context.Context) ([]bookmarks.Bookmark, error)
}

// Coordinator wires the lock, bookmark loader, and per-bookmark worker
// factory together into RunMonitoring.
type Coordinator struct {
	redis       *redis.Client
	lock        *lock.Lock
	lockKey     string
	lockTTL     time.Duration
	loader      BookmarkLoader
	concurrency int
	newWorker   func() *worker.Worker
	metrics     *observability.Metrics
}

// Config configures a Coordinator.
type Config struct {
	LockKey     string
	LockTTL     time.Duration
	Concurrency int
}

// New builds a Coordinator. newWorker is called once per bookmark, in
// that bookmark's goroutine, to obtain the *worker.Worker that processes
// it; the run's correlation ID travels in ctx, so callers may return
// workers built from the same shared collaborators every time.
func New(redisClient *redis.Client, loader BookmarkLoader, newWorker func() *worker.Worker, cfg Config) *Coordinator {
	metrics, err := observability.NewMetrics()
	if err != nil {
		telemetry.GetContextualLogger(context.Background()).WithError(err).Warn("monitoring metrics unavailable, run will proceed unmetered")
		metrics = nil
	}

	return &Coordinator{
		redis:       redisClient,
		lock:        lock.New(redisClient),
		lockKey:     cfg.LockKey,
		lockTTL:     cfg.LockTTL,
		loader:      loader,
		concurrency: cfg.Concurrency,
		newWorker:   newWorker,
		metrics:     metrics,
	}
}


// RunMonitoring implements the §4.8 algorithm.
func (c *Coordinator) RunMonitoring(ctx context.Context) (summary RunSummary, err error) {
	ctx = telemetry.WithCorrelationID(ctx, telemetry.NewCorrelationID())
	logger := telemetry.GetContextualLogger(ctx).WithField("operation", "run_monitoring")

	ctx, span := observability.StartRunSpan(ctx)
	start := time.Now()
	defer func() {
		if c.metrics != nil {
			c.metrics.RecordRunDuration(ctx, time.Since(start).Seconds())
			c.metrics.RecordBookmarksMonitored(ctx, int64(summary.Monitored))
			for i := 0; i < summary.UpdatesFound; i++ {
				c.metrics.RecordUpdateFound(ctx)
			}
		}
		observability.EndWithError(span, err)
	}()

	if err := c.redis.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Error("redis unavailable at run start")
		return RunSummary{Status: StatusServiceUnavailable, Lock: LockNotAcquired}, apperrors.NewServiceUnavailableError("redis", err)
	}

	token, acquired, err := c.lock.Acquire(ctx, c.lockKey, c.lockTTL)
	if err != nil {
		logger.WithError(err).Error("lock acquisition failed")
		return RunSummary{Status: StatusServiceUnavailable, Lock: LockNotAcquired}, apperrors.NewServiceUnavailableError("redis", err)
	}
	if !acquired {
		logger.Info("another run already holds the lock")
		return RunSummary{Status: StatusAlreadyRunning, Lock: LockNotAcquired}, nil
	}
	defer func() {
		if err := c.lock.Release(ctx, c.lockKey, token); err != nil {
			logger.WithError(err).Warn("lock release failed")
		}
	}()

	active, err := c.loader.ActiveBookmarks(ctx)
	if err != nil {
		logger.WithError(err).Error("failed to load active bookmarks")
		return RunSummary{Status: StatusSuccess, Monitored: 0, UpdatesFound: 0, Lock: LockAcquired}, nil
	}
	if len(active) == 0 {
		return RunSummary{Status: StatusSuccess, Monitored: 0, UpdatesFound: 0, Lock: LockAcquired}, nil
	}

	sem := make(chan struct{}, c.concurrency)
	var mu sync.Mutex
	updatesFound := 0

	// A plain errgroup.Group (not WithContext) collects every
	// goroutine's error without deriving a cancellable context, so one
	// bookmark's failure never aborts its siblings (§9 propagation
	// policy); the semaphore below bounds concurrency (P6).
	var g errgroup.Group

	for _, b := range active {
		b := b
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}
			defer func() { <-sem }()

			w := c.newWorker()
			success, werr := func() (ok bool, rerr error) {
				defer func() {
					if p := recover(); p != nil {
						logger.WithField("bookmark_id", b.ID).WithField("panic", p).Error("worker panicked")
						ok, rerr = false, nil
					}
				}()
				return w.Process(ctx, b)
			}()
			if werr != nil {
				logger.WithField("bookmark_id", b.ID).WithError(werr).Error("worker returned an error")
			}
			if success {
				mu.Lock()
				updatesFound++
				mu.Unlock()
			}
			return nil
		})
	}

	_ = g.Wait()

	return RunSummary{
		Status:       StatusSuccess,
		Monitored:    len(active),
		UpdatesFound: updatesFound,
		Lock:         LockAcquired,
	}, nil
}
