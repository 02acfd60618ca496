package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

const MaxRetries = 3

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, Truncate(e.Message, 200))
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

// Retrying wraps a provider and retries retryable failures with backoff.
type Retrying struct {
	next    Provider
	log     *slog.Logger
	retries int
	backoff func(int) time.Duration
}

func WithRetry(p Provider, log *slog.Logger) *Retrying {
	return &Retrying{next: p, log: log, retries: MaxRetries, backoff: Backoff}
}

func (r *Retrying) Name() string { return r.next.Name() }

func (r *Retrying) Complete(ctx context.Context, req Request) (Completion, error) {
	var (
		out     Completion
		lastErr error
	)
	for attempt := range r.retries {
		out, lastErr = r.next.Complete(ctx, req)
		if lastErr == nil || !IsRetryable(lastErr) {
			return out, lastErr
		}
		r.log.Warn("retryable llm error", "provider", r.next.Name(), "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(r.backoff(attempt)):
		case <-ctx.Done():
			return Completion{}, ctx.Err()
		}
	}
	return out, lastErr
}
