// Package retry runs an operation with bounded exponential backoff.
package retry

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/joseph-ayodele/papertrans/internal/common"
)

// Policy bounds the attempts and delays of Do.
type Policy struct {
	MaxAttempts int
	Initial     time.Duration
	Max         time.Duration
	// Jitter is the fraction of each delay that is randomized, in [0,1].
	Jitter float64
	// Sleep waits for d or until ctx is done. Nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// FromConfig builds a policy from shared backoff bounds and a per-stage attempt count.
func FromConfig(cfg common.RetryConfig, attempts int) Policy {
	return Policy{MaxAttempts: attempts, Initial: cfg.InitialBackoff, Max: cfg.MaxBackoff, Jitter: 0.2}
}

// Delay returns the backoff before attempt n+1, n starting at 1.
func (p Policy) Delay(n int) time.Duration {
	d := p.Initial
	for i := 1; i < n && d < p.Max; i++ {
		d *= 2
	}
	if p.Max > 0 && d > p.Max {
		d = p.Max
	}
	if p.Jitter > 0 && d > 0 {
		span := float64(d) * p.Jitter
		d = time.Duration(float64(d) - span + rand.Float64()*2*span)
	}
	return d
}

// Do calls fn until it succeeds, returns a non-retryable error, or attempts are exhausted.
// The last error is returned unchanged so callers can classify it.
func Do(ctx context.Context, p Policy, logger *slog.Logger, op string, fn func(ctx context.Context, attempt int) error) error {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = timerSleep
	}
	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		err = fn(ctx, attempt)
		if err == nil {
			return nil
		}
		if !common.Retryable(err) || attempt == p.MaxAttempts {
			break
		}
		d := p.Delay(attempt)
		if logger != nil {
			logger.Warn("retry.backoff", "op", op, "attempt", attempt, "delay_ms", d.Milliseconds(), "error", err)
		}
		if sErr := sleep(ctx, d); sErr != nil {
			return sErr
		}
	}
	return err
}

func timerSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// NoSleep is a Sleep function for tests.
func NoSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }
