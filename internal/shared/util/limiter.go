package util

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter wraps rate.Limiter to provide a simpler interface.
// A nil Limiter never blocks, so callers can treat throttling as optional.
type Limiter struct {
	inner *rate.Limiter
}

// NewLimiter creates a token bucket limiter.
// r: tokens per second. b: burst size.
func NewLimiter(r float64, b int) *Limiter {
	return &Limiter{
		inner: rate.NewLimiter(rate.Limit(r), b),
	}
}

// Wait blocks until n tokens are available.
func (l *Limiter) Wait(ctx context.Context, n int) error {
	if l == nil {
		return nil
	}
	return l.inner.WaitN(ctx, n)
}
