package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_ExhaustsQuota(t *testing.T) {
	limiter := NewRateLimiter(5)

	for i := 0; i < 5; i++ {
		decision := limiter.Allow("10.0.0.1")
		assert.True(t, decision.Allowed, "request %d should pass", i+1)
		assert.Equal(t, 5, decision.Limit)
	}

	decision := limiter.Allow("10.0.0.1")
	assert.False(t, decision.Allowed)
	assert.Equal(t, 0, decision.Remaining)
	assert.Greater(t, decision.RetryAfter.Seconds(), 0.0)
	assert.False(t, decision.Reset.IsZero())
}

func TestRateLimiter_PerClientIsolation(t *testing.T) {
	limiter := NewRateLimiter(2)

	limiter.Allow("10.0.0.1")
	limiter.Allow("10.0.0.1")
	assert.False(t, limiter.Allow("10.0.0.1").Allowed)

	// A different client has its own bucket
	assert.True(t, limiter.Allow("10.0.0.2").Allowed)
}

func TestRateLimiter_RemainingDecreases(t *testing.T) {
	limiter := NewRateLimiter(10)

	first := limiter.Allow("10.0.0.9")
	second := limiter.Allow("10.0.0.9")
	assert.Greater(t, first.Remaining, second.Remaining)
}
