package store

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/lib/pq"
)

// RetryConfig configures the exponential backoff retry loop a Workspace
// implementation wraps around transient resource errors (spec.md §7,
// ClassResource) before surfacing them as fatal.
type RetryConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
	JitterFactor   float64
}

// DefaultRetryConfig returns the backoff schedule used when a caller
// doesn't supply its own.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
		BackoffFactor:  2.0,
		JitterFactor:   0.2,
	}
}

// RetryableFunc is an operation a caller wants retried on a transient
// resource error.
type RetryableFunc func(ctx context.Context, attempt int) error

// Retry runs fn up to config.MaxAttempts times, backing off exponentially
// with jitter between attempts. It stops immediately on a non-retryable
// error or once ctx is done, and returns the last error if every attempt
// is exhausted.
func Retry(ctx context.Context, config RetryConfig, fn RetryableFunc) error {
	backoff := config.InitialBackoff

	var lastErr error
	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryable(err) || attempt == config.MaxAttempts {
			return lastErr
		}

		wait := jittered(backoff, config.JitterFactor)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		backoff = nextBackoff(backoff, config.BackoffFactor, config.MaxBackoff)
	}
	return lastErr
}

func jittered(base time.Duration, jitterFactor float64) time.Duration {
	if jitterFactor <= 0 {
		return base
	}
	jitter := (rand.Float64()*2 - 1) * jitterFactor
	return time.Duration(float64(base) * (1.0 + jitter))
}

func nextBackoff(current time.Duration, factor float64, max time.Duration) time.Duration {
	next := time.Duration(float64(current) * factor)
	if next > max {
		return max
	}
	return next
}

// IsRetryable reports whether err looks like a transient resource failure
// (connection loss, deadlock, serialization conflict) rather than a
// permanent one (constraint violation, bad SQL, context cancellation).
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "40", // transaction rollback (serialization failure, deadlock)
			"53", // insufficient resources
			"58": // system error (connection failure)
			return true
		}
		return false
	}

	// Connection-level errors from database/sql/driver don't always come
	// back as typed pq errors (e.g. driver.ErrBadConn, a dropped TCP
	// connection); a net.Error reporting a timeout is the common shape of
	// those and is safe to retry.
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}
