package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestRateLimiterBurst verifies that bursts are capped.
func TestRateLimiterBurst(t *testing.T) {
	rl := newRateLimiter(3, time.Hour)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.allow(), "message %d should pass", i)
	}
	assert.False(t, rl.allow())
}

// TestRateLimiterRefills verifies that tokens come back over time.
func TestRateLimiterRefills(t *testing.T) {
	rl := newRateLimiter(1, 20*time.Millisecond)

	assert.True(t, rl.allow())
	assert.False(t, rl.allow())
	assert.Eventually(t, rl.allow, time.Second, 5*time.Millisecond)
}

// TestRateLimiterDefaults verifies fallback for invalid limiter settings.
func TestRateLimiterDefaults(t *testing.T) {
	rl := newRateLimiter(0, 0)

	assert.True(t, rl.allow())
	assert.False(t, rl.allow())
}
