package ratelimit

import (
	"sync"
	"time"
)

// actionBucket, bir kullanıcının sayaç + ceza durumu.
// cooldownUntil zero value → ceza yok.
type actionBucket struct {
	count         int
	windowStart   time.Time
	cooldownUntil time.Time
}

// ActionRateLimiter, kullanıcı bazlı limiter. LoginRateLimiter'dan farkı:
// limit aşılınca pencereden bağımsız bir cooldown (ceza) süresi uygulanır.
//
//	limiter := NewActionRateLimiter(5, time.Minute, 2*time.Minute)
//	if !limiter.Allow(userID) { return 429 }
type ActionRateLimiter struct {
	mu          sync.RWMutex
	buckets     map[string]*actionBucket
	maxActions  int
	window      time.Duration
	cooldown    time.Duration
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// NewActionRateLimiter, limiter oluşturur ve 30 saniyelik temizleme döngüsünü başlatır.
func NewActionRateLimiter(maxActions int, window, cooldown time.Duration) *ActionRateLimiter {
	rl := &ActionRateLimiter{
		buckets:     make(map[string]*actionBucket),
		maxActions:  maxActions,
		window:      window,
		cooldown:    cooldown,
		stopCleanup: make(chan struct{}),
	}

	go runCleanup(30*time.Second, rl.stopCleanup, rl.cleanup)

	return rl
}

// Allow, kullanıcının aksiyonuna izin verilip verilmediğini döner.
// Cooldown'dayken hiçbir aksiyon geçmez; cooldown bitince pencere sıfırlanır.
func (rl *ActionRateLimiter) Allow(userID string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, exists := rl.buckets[userID]
	if !exists {
		rl.buckets[userID] = &actionBucket{count: 1, windowStart: now}
		return true
	}

	if !b.cooldownUntil.IsZero() {
		if now.Before(b.cooldownUntil) {
			return false
		}
		b.count = 1
		b.windowStart = now
		b.cooldownUntil = time.Time{}
		return true
	}

	if now.Sub(b.windowStart) > rl.window {
		b.count = 1
		b.windowStart = now
		return true
	}

	b.count++
	if b.count > rl.maxActions {
		b.cooldownUntil = now.Add(rl.cooldown)
		return false
	}

	return true
}

// CooldownSeconds, kalan ceza süresi; ceza yoksa 0.
func (rl *ActionRateLimiter) CooldownSeconds(userID string) int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	b, exists := rl.buckets[userID]
	if !exists || b.cooldownUntil.IsZero() {
		return 0
	}

	remaining := time.Until(b.cooldownUntil)
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Seconds()) + 1
}

// Stop, temizleme goroutine'ini durdurur.
func (rl *ActionRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCleanup) })
}

// cleanup, penceresi ve cezası bitmiş bucket'ları siler.
func (rl *ActionRateLimiter) cleanup() {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for userID, b := range rl.buckets {
		windowExpired := now.Sub(b.windowStart) > rl.window
		cooldownExpired := b.cooldownUntil.IsZero() || now.After(b.cooldownUntil)

		if windowExpired && cooldownExpired {
			delete(rl.buckets, userID)
		}
	}
}
