// Package retry wraps outbound calls with bounded exponential backoff.
package retry

import (
	"context"
	"time"
)

const (
	DefaultAttempts  = 3 // 1 initial + 2 retries
	DefaultBaseDelay = 500 * time.Millisecond
	DefaultMaxDelay  = 5 * time.Second
)

// Policy retries a call on any failure, up to Attempts total tries, sleeping
// BaseDelay<<n (capped at MaxDelay) between tries. Zero values fall back to
// the defaults above.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// Do runs fn until it succeeds or the attempt budget is spent. The last error
// is returned unchanged on exhaustion. A canceled context stops the backoff
// sleep early and returns whatever fn last reported.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	base := p.BaseDelay
	if base <= 0 {
		base = DefaultBaseDelay
	}
	maxDelay := p.MaxDelay
	if maxDelay <= 0 {
		maxDelay = DefaultMaxDelay
	}

	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			delay := base << (i - 1)
			if delay > maxDelay {
				delay = maxDelay
			}
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return err
			case <-timer.C:
			}
		}
		if err = fn(ctx); err == nil {
			return nil
		}
	}
	return err
}
