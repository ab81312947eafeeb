package platform

import (
	"context"
	"time"
)

// maxFetchRetries bounds how often a transient member fetch failure is
// retried. Delays double starting at one second: 1s, 2s, 4s.
const maxFetchRetries = 3

// RetryingFetcher decorates a MemberFetcher with bounded retry on transient
// failures. Non-transient failures and context cancellation surface
// immediately. Gateways wrap their raw fetcher in this before handing it to
// the engine; roster code never retries on its own.
type RetryingFetcher struct {
	inner MemberFetcher
	sleep func(context.Context, time.Duration) error
}

// RetryOption customizes a RetryingFetcher.
type RetryOption func(*RetryingFetcher)

// WithSleep replaces the delay function. Tests use this to skip real waiting.
func WithSleep(sleep func(context.Context, time.Duration) error) RetryOption {
	return func(r *RetryingFetcher) {
		if sleep != nil {
			r.sleep = sleep
		}
	}
}

// NewRetryingFetcher wraps inner with the retry policy.
func NewRetryingFetcher(inner MemberFetcher, opts ...RetryOption) *RetryingFetcher {
	r := &RetryingFetcher{inner: inner, sleep: sleepContext}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ MemberFetcher = (*RetryingFetcher)(nil)

func (r *RetryingFetcher) FetchMembers(ctx context.Context, guildID string) ([]Member, error) {
	delay := time.Second
	for attempt := 0; ; attempt++ {
		members, err := r.inner.FetchMembers(ctx, guildID)
		if err == nil {
			return members, nil
		}
		if attempt >= maxFetchRetries || !IsTransient(err) {
			return nil, err
		}
		if sleepErr := r.sleep(ctx, delay); sleepErr != nil {
			return nil, sleepErr
		}
		delay *= 2
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
