package google

import (
	"context"

	"golang.org/x/time/rate"
)

// DefaultRate is the proactive throttle applied to Google API calls
// (requests per second). Well under the per-user quota so a sync never
// starves interactive use of the same account.
const DefaultRate = 5

// Limiter throttles outgoing Google API requests.
type Limiter struct {
	bucket *rate.Limiter
}

// NewLimiter creates a limiter at the default proactive rate.
func NewLimiter() *Limiter {
	return &Limiter{bucket: rate.NewLimiter(rate.Limit(DefaultRate), 1)}
}

// Wait blocks until it's safe to make a request or the context ends.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.bucket.Wait(ctx)
}
