package ratelimit

import (
	"sync"
	"time"
)

// mutationBucket, bir kullanıcının yazma sayacı ve cooldown bilgisi.
type mutationBucket struct {
	count         int
	windowStart   time.Time
	cooldownUntil time.Time // zero value = cooldown yok
}

// MutationRateLimiter, okuma durumu yazma istekleri için kullanıcı bazlı
// limiter. LoginRateLimiter'dan farkı, limit aşılınca pencereden bağımsız
// bir cooldown uygulamasıdır: window içinde maxRequests'i aşan kullanıcı
// cooldown boyunca tamamen reddedilir.
//
//	limiter := NewMutationRateLimiter(60, 10*time.Second, 30*time.Second)
//	if !limiter.Allow(userID) { return 429 }
type MutationRateLimiter struct {
	mu          sync.RWMutex
	buckets     map[string]*mutationBucket
	maxRequests int
	window      time.Duration
	cooldown    time.Duration
	now         func() time.Time
	stop        *stopper
}

// NewMutationRateLimiter, limiter'ı oluşturur ve 30 saniyede bir çalışan
// temizleme goroutine'ini başlatır.
func NewMutationRateLimiter(maxRequests int, window, cooldown time.Duration) *MutationRateLimiter {
	rl := &MutationRateLimiter{
		buckets:     make(map[string]*mutationBucket),
		maxRequests: maxRequests,
		window:      window,
		cooldown:    cooldown,
		now:         time.Now,
	}
	rl.stop = startCleanup(30*time.Second, rl.cleanup)
	return rl
}

// Allow, kullanıcının isteğine izin verilip verilmediğini döner.
func (rl *MutationRateLimiter) Allow(userID string) bool {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, exists := rl.buckets[userID]
	if !exists {
		rl.buckets[userID] = &mutationBucket{count: 1, windowStart: now}
		return true
	}

	if !b.cooldownUntil.IsZero() {
		if now.Before(b.cooldownUntil) {
			return false
		}
		// Cooldown bitti, yeni pencere.
		*b = mutationBucket{count: 1, windowStart: now}
		return true
	}

	if now.Sub(b.windowStart) > rl.window {
		b.count = 1
		b.windowStart = now
		return true
	}

	b.count++
	if b.count > rl.maxRequests {
		b.cooldownUntil = now.Add(rl.cooldown)
		return false
	}
	return true
}

// CooldownSeconds, kalan cooldown süresi (Retry-After). Cooldown yoksa 0.
func (rl *MutationRateLimiter) CooldownSeconds(userID string) int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	b, exists := rl.buckets[userID]
	if !exists || b.cooldownUntil.IsZero() {
		return 0
	}
	return ceilSeconds(b.cooldownUntil.Sub(rl.now()))
}

// Close, temizleme goroutine'ini durdurur.
func (rl *MutationRateLimiter) Close() {
	rl.stop.close()
}

// cleanup, hem penceresi hem cooldown'ı bitmiş bucket'ları siler.
func (rl *MutationRateLimiter) cleanup() {
	now := rl.now()

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
