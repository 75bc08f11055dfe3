// Package ratelimit, bellek içi rate limiter'lar sağlar.
//
//   - LoginRateLimiter: IP bazlı, login brute-force koruması.
//   - MutationRateLimiter: kullanıcı bazlı, okuma durumu yazma istekleri için
//     pencere + cooldown.
//
// Her limiter süresi dolan bucket'ları arka plandaki bir goroutine ile
// temizler; Close bu goroutine'i durdurur. Paket proje içi hiçbir pakete
// bağımlı değildir, handlers ve middleware ikisi de import edebilir.
package ratelimit

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// bucket, bir IP için sayaç ve pencere başlangıcı.
type bucket struct {
	count       int
	windowStart time.Time
}

// LoginRateLimiter, IP bazlı login rate limiting.
//
//	limiter := NewLoginRateLimiter(5, 2*time.Minute)
//	defer limiter.Close()
//	if !limiter.Allow(ip) { return 429 }
//	// başarılı login:
//	limiter.Reset(ip)
type LoginRateLimiter struct {
	mu          sync.RWMutex
	buckets     map[string]*bucket
	maxAttempts int
	window      time.Duration
	now         func() time.Time
	stop        *stopper
}

// NewLoginRateLimiter, limiter'ı oluşturur ve dakikada bir çalışan
// temizleme goroutine'ini başlatır.
func NewLoginRateLimiter(maxAttempts int, window time.Duration) *LoginRateLimiter {
	rl := &LoginRateLimiter{
		buckets:     make(map[string]*bucket),
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
	}
	rl.stop = startCleanup(time.Minute, rl.cleanup)
	return rl
}

// Allow, IP'nin denemesine izin verilip verilmediğini döner. Her çağrı
// sayacı artırır; başarılı login'de caller Reset çağırmalıdır.
func (rl *LoginRateLimiter) Allow(ip string) bool {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, exists := rl.buckets[ip]
	if !exists || now.Sub(b.windowStart) > rl.window {
		rl.buckets[ip] = &bucket{count: 1, windowStart: now}
		return true
	}

	b.count++
	return b.count <= rl.maxAttempts
}

// Reset, IP sayacını sıfırlar.
func (rl *LoginRateLimiter) Reset(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.buckets, ip)
}

// RetryAfterSeconds, pencere bitene kadar kalan süre (Retry-After header'ı).
func (rl *LoginRateLimiter) RetryAfterSeconds(ip string) int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	b, exists := rl.buckets[ip]
	if !exists {
		return 0
	}
	return ceilSeconds(rl.window - rl.now().Sub(b.windowStart))
}

// Close, temizleme goroutine'ini durdurur.
func (rl *LoginRateLimiter) Close() {
	rl.stop.close()
}

func (rl *LoginRateLimiter) cleanup() {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, b := range rl.buckets {
		if now.Sub(b.windowStart) > rl.window {
			delete(rl.buckets, ip)
		}
	}
}

// stopper, temizleme goroutine'ini bir kez durdurup çıkışını bekler.
type stopper struct {
	once sync.Once
	quit chan struct{}
	done chan struct{}
}

func startCleanup(interval time.Duration, fn func()) *stopper {
	s := &stopper{quit: make(chan struct{}), done: make(chan struct{})}

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				fn()
			case <-s.quit:
				return
			}
		}
	}()

	return s
}

func (s *stopper) close() {
	s.once.Do(func() { close(s.quit) })
	<-s.done
}

// ceilSeconds, süreyi yukarı yuvarlanmış saniyeye çevirir; negatifse 0.
func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

// ExtractIP, request'ten client IP'sini çıkarır.
//
// Öncelik: X-Forwarded-For'daki ilk adres, X-Real-IP, RemoteAddr.
// Uygulama genelde bir reverse proxy arkasında çalışır; o durumda
// RemoteAddr proxy'nin adresidir.
func ExtractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// FormatRetryMessage, saniyeyi okunabilir metne çevirir: 120 → "2 minute(s)".
func FormatRetryMessage(seconds int) string {
	if seconds >= 60 {
		return fmt.Sprintf("%d minute(s)", seconds/60)
	}
	return fmt.Sprintf("%d second(s)", seconds)
}
