package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/akinalp/feedmark/pkg/cache"
)

// cachedSlot, negatif sonuçları (key yok) da cache'leyebilmek için.
type cachedSlot struct {
	value string
	ok    bool
}

// CachedKVRepo, bir KVRepository'nin okumalarını TTL cache'te tutar.
// Yazmalar önce alttaki depoya gider, başarılı olursa cache güncellenir.
//
// Cache süreç içidir: aynı depoyu paylaşan birden fazla instance varsa
// diğer instance'ın yazması TTL dolana kadar görünmeyebilir.
//
// Her namespace için bir yazma sayacı tutulur. Get cache'i sadece okuma
// başladığından beri o namespace'e yazma olmadıysa doldurur; yavaş bir
// okuma eş zamanlı bir Set'in değerini eskisiyle ezemez.
type CachedKVRepo struct {
	next  KVRepository
	cache *cache.TTLCache[string, cachedSlot]

	mu       sync.Mutex
	versions map[string]uint64
}

// NewCachedKVRepo, next'i ttl süreli bir cache ile sarar.
// Kullanım bittiğinde Close çağrılmalıdır.
func NewCachedKVRepo(next KVRepository, ttl time.Duration) *CachedKVRepo {
	return &CachedKVRepo{
		next:     next,
		cache:    cache.New[string, cachedSlot](ttl, max(ttl/2, time.Second)),
		versions: make(map[string]uint64),
	}
}

func cacheKey(namespace, key string) string {
	return namespace + "\x00" + key
}

func (r *CachedKVRepo) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	ck := cacheKey(namespace, key)
	if slot, hit := r.cache.Get(ck); hit {
		return slot.value, slot.ok, nil
	}

	since := r.version(namespace)
	value, ok, err := r.next.Get(ctx, namespace, key)
	if err != nil {
		return "", false, err
	}

	r.mu.Lock()
	if r.versions[namespace] == since {
		r.cache.Set(ck, cachedSlot{value: value, ok: ok})
	}
	r.mu.Unlock()
	return value, ok, nil
}

func (r *CachedKVRepo) Set(ctx context.Context, namespace, key, value string) error {
	r.write(namespace, nil)
	if err := r.next.Set(ctx, namespace, key, value); err != nil {
		r.write(namespace, func() { r.cache.Delete(cacheKey(namespace, key)) })
		return err
	}
	r.write(namespace, func() {
		r.cache.Set(cacheKey(namespace, key), cachedSlot{value: value, ok: true})
	})
	return nil
}

func (r *CachedKVRepo) SetMany(ctx context.Context, namespace string, values map[string]string) error {
	r.write(namespace, nil)
	if err := r.next.SetMany(ctx, namespace, values); err != nil {
		r.write(namespace, func() { r.invalidate(namespace) })
		return err
	}
	r.write(namespace, func() {
		for k, v := range values {
			r.cache.Set(cacheKey(namespace, k), cachedSlot{value: v, ok: true})
		}
	})
	return nil
}

func (r *CachedKVRepo) DeleteNamespace(ctx context.Context, namespace string) error {
	r.write(namespace, nil)
	err := r.next.DeleteNamespace(ctx, namespace)
	r.write(namespace, func() { r.invalidate(namespace) })
	return err
}

// Close, cache'in temizleme goroutine'ini durdurur.
func (r *CachedKVRepo) Close() {
	r.cache.Close()
}

func (r *CachedKVRepo) version(namespace string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.versions[namespace]
}

// write, namespace sayacını artırır ve varsa apply'ı aynı kilit altında
// çalıştırır. Alttaki yazmadan önce ve sonra çağrılır: arada başlayan
// okumalar da cache'i dolduramaz.
func (r *CachedKVRepo) write(namespace string, apply func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.versions[namespace]++
	if apply != nil {
		apply()
	}
}

func (r *CachedKVRepo) invalidate(namespace string) {
	prefix := namespace + "\x00"
	r.cache.DeleteFunc(func(key string) bool {
		return strings.HasPrefix(key, prefix)
	})
}
