package util

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter spaces out repeated work such as watch-triggered re-extractions.
type Limiter struct {
	inner *rate.Limiter
}

// NewIntervalLimiter allows one event per interval with no burst beyond the
// first. A non-positive interval never blocks.
func NewIntervalLimiter(interval time.Duration) *Limiter {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Limiter{inner: rate.NewLimiter(limit, 1)}
}

// Allow reports whether an event may happen now, consuming a token if so.
func (l *Limiter) Allow() bool {
	return l.inner.Allow()
}

// Wait blocks until an event may happen or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.inner.Wait(ctx)
}
