package retry_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bahaibot/internal/retry"
	"bahaibot/internal/services"
)

func recordingSleeper(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return ctx.Err()
	}
}

func TestDoRetriesTransientErrorsUntilSuccess(t *testing.T) {
	var delays []time.Duration
	policy := retry.Policy{MaxAttempts: 4, BaseDelay: time.Second, MaxDelay: 10 * time.Second, Sleeper: recordingSleeper(&delays)}

	calls := 0
	err := policy.Do(context.Background(), "search", func(context.Context) error {
		calls++
		if calls < 3 {
			return &retry.StatusError{StatusCode: http.StatusTooManyRequests}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays)
}

func TestDoStopsAfterMaxAttempts(t *testing.T) {
	var delays []time.Duration
	policy := retry.Policy{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 1500 * time.Millisecond, Sleeper: recordingSleeper(&delays)}

	calls := 0
	base := services.Wrap(services.ErrTransient, "store", "search", "maxlag", nil)
	err := policy.Do(context.Background(), "search", func(context.Context) error {
		calls++
		return base
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrTransient)
	assert.Contains(t, err.Error(), "giving up after 3 attempts")
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 1500 * time.Millisecond}, delays)
}

func TestDoReturnsPermanentErrorImmediately(t *testing.T) {
	policy := retry.Policy{MaxAttempts: 5, BaseDelay: time.Second, Sleeper: func(context.Context, time.Duration) error {
		t.Fatal("sleeper should not be called")
		return nil
	}}

	permanent := errors.New("no-such-entity")
	calls := 0
	err := policy.Do(context.Background(), "get", func(context.Context) error {
		calls++
		return permanent
	})

	assert.Same(t, permanent, err)
	assert.Equal(t, 1, calls)
}

func TestDoHonoursRetryAfter(t *testing.T) {
	var delays []time.Duration
	policy := retry.Policy{MaxAttempts: 2, BaseDelay: time.Second, MaxDelay: time.Minute, Sleeper: recordingSleeper(&delays)}

	calls := 0
	_ = policy.Do(context.Background(), "edit", func(context.Context) error {
		calls++
		if calls == 1 {
			return &retry.StatusError{StatusCode: http.StatusServiceUnavailable, RetryAfter: 7 * time.Second}
		}
		return nil
	})

	assert.Equal(t, []time.Duration{7 * time.Second}, delays)
}

func TestDoStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := retry.Policy{MaxAttempts: 5, BaseDelay: time.Second, Sleeper: func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}}

	calls := 0
	err := policy.Do(ctx, "search", func(context.Context) error {
		calls++
		return &retry.StatusError{StatusCode: http.StatusBadGateway}
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestZeroPolicyRunsOnce(t *testing.T) {
	calls := 0
	err := retry.Policy{}.Do(context.Background(), "once", func(context.Context) error {
		calls++
		return &retry.StatusError{StatusCode: http.StatusTooManyRequests}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestIsRetriable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"429", &retry.StatusError{StatusCode: 429}, true},
		{"500", &retry.StatusError{StatusCode: 500}, true},
		{"404", &retry.StatusError{StatusCode: 404}, false},
		{"maxlag", errors.New("maxlag: Waiting for db: 5 seconds lagged"), true},
		{"ratelimited", errors.New("API error: ratelimited"), true},
		{"transient marker", services.Wrap(services.ErrTransient, "", "", "x", nil), true},
		{"cancelled", context.Canceled, false},
		{"validation", services.Wrap(services.ErrValidation, "", "", "missing TITLE", nil), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, retry.IsRetriable(tc.err))
		})
	}
}

func TestNewStatusErrorParsesRetryAfter(t *testing.T) {
	rec := httptest.NewRecorder()
	rec.Header().Set("Retry-After", "3")
	rec.WriteHeader(http.StatusTooManyRequests)
	resp := rec.Result()

	err := retry.NewStatusError(resp, []byte("slow down"))
	assert.Equal(t, 3*time.Second, err.RetryAfter)
	assert.Equal(t, "http status 429: slow down", err.Error())
}

func TestPacerWaitsInterval(t *testing.T) {
	var delays []time.Duration
	pacer := retry.NewPacer(15 * time.Second)
	pacer.Sleeper = recordingSleeper(&delays)

	require.NoError(t, pacer.Wait(context.Background()))
	assert.Equal(t, []time.Duration{15 * time.Second}, delays)
}
