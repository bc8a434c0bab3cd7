package llm

import (
	"context"
	"time"
)

// baseProvider holds the retry policy shared by every concrete Client.
// Grounded on the teacher's agent/providers.BaseProvider, but tuned for
// loom's domain: every retry() call here blocks a single errand call inside
// the harness's single-threaded cooperative loop (spec.md §5), not a
// background agent turn, so the defaults favor giving up sooner over the
// teacher's more patient multi-attempt policy.
type baseProvider struct {
	name       string
	maxRetries int
	retryDelay time.Duration
}

func newBaseProvider(name string, maxRetries int, retryDelay time.Duration) baseProvider {
	if maxRetries <= 0 {
		maxRetries = 2
	}
	if retryDelay <= 0 {
		retryDelay = 500 * time.Millisecond
	}
	return baseProvider{name: name, maxRetries: maxRetries, retryDelay: retryDelay}
}

// retry executes op with linear backoff while isRetryable(err) holds.
func (b *baseProvider) retry(ctx context.Context, isRetryable func(error) bool, op func() error) error {
	if op == nil {
		return nil
	}
	var lastErr error
	for attempt := 1; attempt <= b.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if isRetryable == nil || !isRetryable(lastErr) {
			return lastErr
		}
		if attempt >= b.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.retryDelay * time.Duration(attempt)):
		}
	}
	return lastErr
}
