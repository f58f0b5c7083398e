package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoginRateLimiter(t *testing.T) {
	rl := NewLoginRateLimiter(3, time.Minute)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"), "attempt %d", i+1)
	}
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"), "other IPs are independent")

	retry := rl.RetryAfterSeconds("10.0.0.1")
	assert.Greater(t, retry, 0)
	assert.LessOrEqual(t, retry, 61)

	rl.Reset("10.0.0.1")
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.Equal(t, 0, rl.RetryAfterSeconds("unknown"))
}

func TestLoginRateLimiter_WindowExpiry(t *testing.T) {
	rl := NewLoginRateLimiter(1, 20*time.Millisecond)
	defer rl.Stop()

	assert.True(t, rl.Allow("ip"))
	assert.False(t, rl.Allow("ip"))

	time.Sleep(40 * time.Millisecond)
	assert.True(t, rl.Allow("ip"))

	rl.Stop() // ikinci Stop panic atmamalı
}

func TestActionRateLimiter_Cooldown(t *testing.T) {
	rl := NewActionRateLimiter(2, time.Minute, 30*time.Millisecond)
	defer rl.Stop()

	assert.True(t, rl.Allow("u1"))
	assert.True(t, rl.Allow("u1"))
	assert.False(t, rl.Allow("u1"))
	assert.Greater(t, rl.CooldownSeconds("u1"), 0)
	assert.False(t, rl.Allow("u1"), "cooldown holds even inside window")

	time.Sleep(50 * time.Millisecond)
	assert.True(t, rl.Allow("u1"))
	assert.Equal(t, 0, rl.CooldownSeconds("u1"))
}

func TestActionRateLimiter_Cleanup(t *testing.T) {
	rl := NewActionRateLimiter(1, time.Millisecond, time.Millisecond)
	defer rl.Stop()

	rl.Allow("u1")
	time.Sleep(5 * time.Millisecond)
	rl.cleanup()

	rl.mu.RLock()
	defer rl.mu.RUnlock()
	assert.Empty(t, rl.buckets)
}

func TestExtractIP(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/auth/signin", nil)
	r.RemoteAddr = "192.0.2.1:5555"
	assert.Equal(t, "192.0.2.1", ExtractIP(r))

	r.Header.Set("X-Real-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", ExtractIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", ExtractIP(r))
}

func TestFormatRetryMessage(t *testing.T) {
	assert.Equal(t, "2 minute(s)", FormatRetryMessage(120))
	assert.Equal(t, "45 second(s)", FormatRetryMessage(45))
}
