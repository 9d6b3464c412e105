package ratelimit

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// Limiter spaces out the calls made to a single provider. Each provider gets
// its own Limiter configured with that provider's minimum interval.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a Limiter that permits one call per interval. The first call is
// never delayed.
func New(interval time.Duration) *Limiter {
	// a burst of 1 means no two permitted calls are ever closer than interval
	return &Limiter{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the next call is permitted or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Attach makes every request sent by client wait on the limiter first. It
// should be attached before any instrumentation so request timings do not
// include the wait.
func (l *Limiter) Attach(client *resty.Client) {
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return l.Wait(req.Context())
	})
}
