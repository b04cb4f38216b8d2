package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/feedhaus/storyvec/app/metrics"
)

// RetryPolicy retries an operation a bounded number of times with backoff.
// Exhaustion is reported in the returned RetryResult rather than through
// control flow.
type RetryPolicy struct {
	MaxAttempts  int
	Backoff      func(attempt int) time.Duration
	NonRetryable func(err error) bool
}

// RetryResult records how an operation fared under the policy. Err is nil on
// success; otherwise it holds the last attempt's error.
type RetryResult struct {
	Attempts int
	Err      error
}

// NewRetryPolicy creates a policy with the default exponential backoff
func NewRetryPolicy(maxAttempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		Backoff:     defaultBackoff,
	}
}

// defaultBackoff doubles the delay per attempt starting at one second,
// capped at 30 seconds
func defaultBackoff(attempt int) time.Duration {
	delay := time.Duration(1<<uint(attempt-1)) * time.Second
	if delay > 30*time.Second {
		delay = 30 * time.Second
	}
	return delay
}

// Execute runs op until it succeeds, the attempts are exhausted, the error is
// non-retryable, or the context is cancelled.
func (p RetryPolicy) Execute(ctx context.Context, op func(ctx context.Context) error) RetryResult {
	result := RetryResult{}

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		result.Attempts = attempt
		result.Err = op(ctx)
		if result.Err == nil {
			return result
		}

		if p.NonRetryable != nil && p.NonRetryable(result.Err) {
			return result
		}

		if attempt == p.MaxAttempts {
			break
		}

		metrics.BatchRetriesTotal.Inc()
		delay := p.Backoff(attempt)
		slog.Warn("Operation failed, retrying", "attempt", attempt, "max_attempts", p.MaxAttempts, "delay", delay.String(), "error", result.Err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			result.Err = ctx.Err()
			return result
		}
	}

	return result
}
