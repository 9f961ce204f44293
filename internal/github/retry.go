package github

import (
	"context"
	"errors"
	"time"

	"github.com/google/go-github/v62/github"

	"github.com/TobiSchelling/startracker/internal/logger"
)

// withRetry runs call up to attempts times, pausing delay between tries.
// Only transport failures and 5xx responses are retried; 4xx answers and
// 202 "still computing" responses return immediately.
func withRetry[T any](ctx context.Context, attempts int, delay time.Duration, call func() (T, *github.Response, error)) (T, error) {
	var zero T
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; ; attempt++ {
		v, resp, err := call()
		if err == nil {
			return v, nil
		}
		if attempt >= attempts || !retryable(ctx, resp, err) {
			return zero, err
		}
		logger.Debugf("GitHub request failed (attempt %d/%d), retrying in %v: %v", attempt, attempts, delay, err)
		if !pause(ctx, delay) {
			return zero, err
		}
	}
}

func retryable(ctx context.Context, resp *github.Response, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var accepted *github.AcceptedError
	if errors.As(err, &accepted) {
		return false
	}
	if resp == nil || resp.Response == nil {
		return true
	}
	return resp.StatusCode >= 500
}
