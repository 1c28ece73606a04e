package retry

import (
	"context"
	"math/rand/v2"
	"time"
)

// Pacer inserts a fixed, optionally jittered, wait between consecutive requests
// to respect informal rate limits.
type Pacer struct {
	Interval time.Duration
	Jitter   float64
	Sleeper  func(context.Context, time.Duration) error
}

// NewPacer returns a pacer waiting interval between calls.
func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{Interval: interval}
}

// Wait blocks for the pacing interval or until ctx ends.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil {
		return ctx.Err()
	}
	delay := p.Interval
	if p.Jitter > 0 && delay > 0 {
		delay = time.Duration(float64(delay) * (1 + p.Jitter*rand.Float64()))
	}
	if p.Sleeper != nil {
		return p.Sleeper(ctx, delay)
	}
	return SleepWithContext(ctx, delay)
}
