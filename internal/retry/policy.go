package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

const (
	defaultMaxAttempts = 5
	defaultBaseDelay   = time.Second
	defaultMaxDelay    = 30 * time.Second
)

// Policy describes how many times an operation is attempted and how long to wait
// between attempts. The zero value performs a single attempt.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Jitter is the fraction (0..1) of each delay that is randomized.
	Jitter float64

	// Sleeper replaces the context-aware timer, for tests.
	Sleeper func(context.Context, time.Duration) error
	// OnRetry is called before each wait.
	OnRetry func(attempt int, delay time.Duration, err error)
	// Classify overrides IsRetriable.
	Classify func(error) bool

	rand func() float64
}

// Default returns the policy used when configuration does not override it:
// five attempts starting at one second, capped at thirty.
func Default() Policy {
	return Policy{
		MaxAttempts: defaultMaxAttempts,
		BaseDelay:   defaultBaseDelay,
		MaxDelay:    defaultMaxDelay,
		Jitter:      0.2,
	}
}

// Do runs fn until it succeeds, returns a non-retriable error, the context ends,
// or MaxAttempts is reached.
func (p Policy) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	attempts := p.attempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return fmt.Errorf("%s: %w (last error: %v)", op, err, lastErr)
			}
			return fmt.Errorf("%s: %w", op, err)
		}
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if !p.retriable(err) {
			return err
		}
		if attempt == attempts {
			break
		}
		delay := p.Delay(attempt, err)
		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, err)
		}
		if err := p.sleep(ctx, delay); err != nil {
			return fmt.Errorf("%s: %w (last error: %v)", op, err, lastErr)
		}
	}
	if attempts == 1 {
		return lastErr
	}
	return fmt.Errorf("%s: giving up after %d attempts: %w", op, attempts, lastErr)
}

// Delay returns the wait before the attempt following attempt (1-based). A
// Retry-After hint carried by err takes precedence over exponential backoff.
func (p Policy) Delay(attempt int, err error) time.Duration {
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.RetryAfter > 0 {
		return p.capDelay(statusErr.RetryAfter)
	}
	return p.applyJitter(p.backoffDelay(attempt))
}

func (p Policy) attempts() int {
	if p.MaxAttempts <= 0 {
		return 1
	}
	return p.MaxAttempts
}

func (p Policy) retriable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if p.Classify != nil {
		return p.Classify(err)
	}
	return IsRetriable(err)
}

func (p Policy) backoffDelay(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		return 0
	}
	if attempt <= 0 {
		attempt = 1
	}

	// attempt 1 -> base, attempt 2 -> base*2, attempt 3 -> base*4, ...
	delay := base
	for i := 1; i < attempt; i++ {
		if p.MaxDelay > 0 && delay > p.MaxDelay/2 {
			delay = p.MaxDelay
			break
		}
		delay *= 2
	}
	return p.capDelay(delay)
}

func (p Policy) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

func (p Policy) applyJitter(delay time.Duration) time.Duration {
	if p.Jitter <= 0 || delay <= 0 {
		return delay
	}
	jitter := p.Jitter
	if jitter > 1 {
		jitter = 1
	}
	random := rand.Float64
	if p.rand != nil {
		random = p.rand
	}
	// Spread uniformly over [delay*(1-jitter), delay*(1+jitter)].
	factor := 1 - jitter + 2*jitter*random()
	return p.capDelay(time.Duration(float64(delay) * factor))
}

func (p Policy) sleep(ctx context.Context, delay time.Duration) error {
	if p.Sleeper != nil {
		return p.Sleeper(ctx, delay)
	}
	return SleepWithContext(ctx, delay)
}

// SleepWithContext blocks for the given duration, returning early if the
// context is cancelled.
func SleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
