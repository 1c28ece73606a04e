package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplyJitterBounds(t *testing.T) {
	p := Policy{BaseDelay: time.Second, MaxDelay: time.Minute, Jitter: 0.5}

	p.rand = func() float64 { return 0 }
	assert.Equal(t, 500*time.Millisecond, p.applyJitter(time.Second))

	p.rand = func() float64 { return 1 }
	assert.Equal(t, 1500*time.Millisecond, p.applyJitter(time.Second))

	p.Jitter = 0
	assert.Equal(t, time.Second, p.applyJitter(time.Second))
}

func TestBackoffDelayDoublesAndCaps(t *testing.T) {
	p := Policy{BaseDelay: time.Second, MaxDelay: 5 * time.Second}
	assert.Equal(t, time.Second, p.backoffDelay(1))
	assert.Equal(t, 2*time.Second, p.backoffDelay(2))
	assert.Equal(t, 4*time.Second, p.backoffDelay(3))
	assert.Equal(t, 5*time.Second, p.backoffDelay(4))
	assert.Equal(t, 5*time.Second, p.backoffDelay(10))
}
