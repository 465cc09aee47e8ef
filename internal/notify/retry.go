package notify

import (
	"context"
	"math"
	"strings"
	"time"
)

// RetryPolicy controls how often a failed channel send is retried.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	BackoffFactor float64
	MaxDelay      time.Duration
}

// DefaultRetryPolicy retries transient failures twice.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries:    2,
	InitialDelay:  time.Second,
	BackoffFactor: 2,
	MaxDelay:      5 * time.Second,
}

// backoff computes the delay before retry attempt+1.
func (p RetryPolicy) backoff(attempt int) time.Duration {
	delay := float64(p.InitialDelay) * math.Pow(p.BackoffFactor, float64(attempt))
	if p.MaxDelay > 0 && time.Duration(delay) > p.MaxDelay {
		return p.MaxDelay
	}
	return time.Duration(delay)
}

// isRetryable reports whether a send error looks transient.
func isRetryable(err error) bool {
	lower := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"timeout", "deadline exceeded", "too many requests",
		"returned 429", "returned 500", "returned 502", "returned 503", "returned 504",
		"connection reset", "connection refused", "eof",
	} {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
