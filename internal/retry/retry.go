// Package retry wraps the update-detector call in bounded exponential
// backoff with jitter (C2), retrying only on the error kinds the
// detector classifies as transient. It is grounded on
// github.com/cenkalti/backoff/v5, already a dependency of this
// module's go.mod (the donor carries it only as an indirect
// dependency of testcontainers-go; this is its first direct use).
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/tradewatch/monitor/internal/detector"
)

// Policy is the backoff shape applied to a retried operation. Exposed
// as a struct with exported fields (rather than hard-coded constants)
// per the donor source's own open question about whether multiplier=1
// was intentional — an implementer can tune it without touching the
// wrapper.
type Policy struct {
	MaxAttempts uint
	Initial     time.Duration
	Max         time.Duration
	Multiplier  float64
}

// DefaultPolicy matches the donor source literally: max_attempts=3,
// wait_exponential(multiplier=1, min=2s, max=10s).
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		Initial:     2 * time.Second,
		Max:         10 * time.Second,
		Multiplier:  1.0,
	}
}

// Do runs op, retrying per policy only when op's error is a
// *detector.Error whose Kind reports Retriable() == true. Any other
// error (including a non-retriable *detector.Error) is returned on the
// first attempt without delay. Each attempt is the caller's
// responsibility to gate behind the rate limiter again — the wrapper
// does not call the limiter itself (§4.3's "wrapper composes outside
// the rate limiter" ordering rule).
func Do(ctx context.Context, policy Policy, op func(ctx context.Context) (detector.Result, error)) (detector.Result, error) {
	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(policy.Initial),
		backoff.WithMaxInterval(policy.Max),
		backoff.WithMultiplier(policy.Multiplier),
	)

	return backoff.Retry(ctx, func() (detector.Result, error) {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		var detErr *detector.Error
		if de, ok := err.(*detector.Error); ok {
			detErr = de
		}

		if detErr == nil || !detErr.Kind.Retriable() {
			return detector.Result{}, backoff.Permanent(err)
		}
		return detector.Result{}, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(policy.MaxAttempts))
}
