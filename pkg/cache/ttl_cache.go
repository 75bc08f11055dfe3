// Package cache, generic in-memory TTL cache sağlar.
//
// Okuma durumu slot'ları her request'te backend'den (SQLite/Redis) okunur;
// TTLCache bu okumaları kısa süreliğine bellekte tutar. Her entry bir
// son kullanma zamanı taşır, süresi geçen entry okunamaz ve arka plandaki
// goroutine tarafından periyodik olarak silinir.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache, thread-safe generic TTL cache.
//
//	c := cache.New[string, int](30*time.Second, 5*time.Minute)
//	defer c.Close()
//	c.Set("key", 42)
//	val, ok := c.Get("key")
type TTLCache[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]entry[V]
	ttl     time.Duration
	now     func() time.Time

	stopCleanup chan struct{}
	closeOnce   sync.Once
	done        chan struct{}
}

// New, cache'i oluşturur ve temizleme goroutine'ini başlatır.
// cleanupInterval, ttl'den küçük olmalıdır; aksi halde map gereksiz büyür.
// Goroutine Close ile durdurulur.
func New[K comparable, V any](ttl, cleanupInterval time.Duration) *TTLCache[K, V] {
	return newWithClock[K, V](ttl, cleanupInterval, time.Now)
}

func newWithClock[K comparable, V any](ttl, cleanupInterval time.Duration, now func() time.Time) *TTLCache[K, V] {
	c := &TTLCache[K, V]{
		entries:     make(map[K]entry[V]),
		ttl:         ttl,
		now:         now,
		stopCleanup: make(chan struct{}),
		done:        make(chan struct{}),
	}

	go func() {
		defer close(c.done)
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.evictExpired()
			case <-c.stopCleanup:
				return
			}
		}
	}()

	return c
}

// Get, key varsa ve süresi dolmamışsa (value, true) döner.
// Süresi dolan entry burada silinmez; RLock yeterli kalır.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || c.now().After(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set, değeri TTL ile yazar.
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{
		value:     value,
		expiresAt: c.now().Add(c.ttl),
	}
}

// Delete, tek bir key'i siler.
func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// DeleteFunc, predicate'i sağlayan tüm key'leri siler.
// Bir namespace'in tüm slot'larını invalidate etmek için kullanılır.
func (c *TTLCache[K, V]) DeleteFunc(predicate func(key K) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		if predicate(key) {
			delete(c.entries, key)
		}
	}
}

// Clear, tüm cache'i boşaltır.
func (c *TTLCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]entry[V])
}

// Len, süresi dolmuşlar dahil entry sayısını döner.
func (c *TTLCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Close, temizleme goroutine'ini durdurur ve çıkmasını bekler.
// Birden fazla çağrılabilir.
func (c *TTLCache[K, V]) Close() {
	c.closeOnce.Do(func() { close(c.stopCleanup) })
	<-c.done
}

func (c *TTLCache[K, V]) evictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}
