// Package worker implements the Per-Bookmark Worker (C6): the state
// machine that takes one bookmark through rate-limited, retried
// detection, transactional persistence, and notification enqueue.
package worker

import (
	"context"
	"time"

	"github.com/tradewatch/monitor/internal/bookmarks"
	"github.com/tradewatch/monitor/internal/detector"
	"github.com/tradewatch/monitor/internal/errors"
	"github.com/tradewatch/monitor/internal/feed"
	"github.com/tradewatch/monitor/internal/notifyqueue"
	"github.com/tradewatch/monitor/internal/observability"
	"github.com/tradewatch/monitor/internal/ratelimit"
	"github.com/tradewatch/monitor/internal/retry"
	"github.com/tradewatch/monitor/internal/telemetry"
)

// Worker processes a single bookmark per run.
type Worker struct {
	limiter   *ratelimit.Limiter
	policy    retry.Policy
	detector  detector.Detector
	persister *feed.Persister
	enqueuer  *notifyqueue.Enqueuer
	metrics   *observability.Metrics
}

// New builds a Worker from the run's shared collaborators. sem is
// acquired by the caller (the coordinator) before invoking Process and
// released by the caller on every return path; Process itself does not
// touch the semaphore.
func New(limiter *ratelimit.Limiter, policy retry.Policy, d detector.Detector, persister *feed.Persister, enqueuer *notifyqueue.Enqueuer) *Worker {
	metrics, err := observability.NewMetrics()
	if err != nil {
		metrics = nil
	}
	return &Worker{limiter: limiter, policy: policy, detector: d, persister: persister, enqueuer: enqueuer, metrics: metrics}
}

// Process runs the §4.7 state machine for one bookmark and reports
// whether a meaningful update was persisted and enqueued.
func (w *Worker) Process(ctx context.Context, b bookmarks.Bookmark) (found bool, procErr error) {
	logger := telemetry.GetContextualLogger(ctx).WithField("bookmark_id", b.ID)

	ctx, span := observability.StartWorkerSpan(ctx, b.ID, b.TargetValue)
	defer func() { observability.EndWithError(span, procErr) }()

	detectStart := time.Now()
	result, err := retry.Do(ctx, w.policy, func(ctx context.Context) (detector.Result, error) {
		if err := w.limiter.Wait(ctx); err != nil {
			return detector.Result{}, err
		}
		return w.detector.Detect(ctx, b.TargetValue)
	})
	if w.metrics != nil {
		w.metrics.RecordDetectorLatency(ctx, time.Since(detectStart).Seconds())
	}
	if err != nil {
		if derr, ok := err.(*detector.Error); ok {
			if derr.Kind == detector.KindTransientRateLimited {
				logger.WithError(err).Warn("detector rate limited after retries exhausted")
			} else {
				logger.WithField("event", "detector call failed").ErrorWithStack(err)
			}
		} else {
			logger.WithField("event", "detector call failed").ErrorWithStack(err)
		}
		return false, nil
	}

	switch result.Status {
	case detector.StatusNoUpdate:
		return false, nil
	case detector.StatusError:
		logger.WithField("error_message", result.ErrorMessage).Warn("detector reported an error status")
		return false, nil
	case detector.StatusUpdateFound:
		// fallthrough below
	default:
		logger.WithField("status", result.Status).Error("unexpected detector status")
		return false, nil
	}

	// Persist and enqueue run to completion once entered, even if the
	// caller's ctx is cancelled meanwhile.
	ctx = context.WithoutCancel(ctx)

	f, err := w.persister.Persist(ctx, b, result)
	if err != nil {
		appErr := errors.NewPersistFailureError(err)
		logger.WithError(appErr).Error("failed to persist finding")
		if w.metrics != nil {
			w.metrics.RecordPersistFailure(ctx)
		}
		return false, nil
	}
	if f == nil {
		return false, nil
	}

	if err := w.enqueuer.Enqueue(ctx, b, f); err != nil {
		appErr := errors.NewEnqueueFailureError(f.ID, err)
		logger.WithError(appErr).WithField("critical", true).Error("feed committed but notification enqueue failed")
		if w.metrics != nil {
			w.metrics.RecordEnqueueFailure(ctx)
		}
		return false, nil
	}

	return true, nil
}
