package repository

import (
	"context"

	"github.com/akinalp/feedmark/pkg/readstate"
)

// KVRepository, okuma durumu slot'larının tutulduğu string key-value
// deposu. Her kullanıcı kendi namespace'ine (user ID) yazar; key'ler
// readstate.KeyThreshold, KeyRead, KeyUnread ve KeyDataset'tir.
//
// Implementasyonlar: SQLite (kv_slots tablosu), Redis (hash), bellek.
// NewCachedKVRepo herhangi birini TTL cache ile sarar.
type KVRepository interface {
	// Get, key yoksa ("", false, nil) döner.
	Get(ctx context.Context, namespace, key string) (string, bool, error)
	Set(ctx context.Context, namespace, key, value string) error
	// SetMany, tüm değerleri atomik olarak yazar: ya hepsi ya hiçbiri.
	SetMany(ctx context.Context, namespace string, values map[string]string) error
	// DeleteNamespace, namespace'in tüm slot'larını siler.
	DeleteNamespace(ctx context.Context, namespace string) error
}

// namespacedSlots, bir KVRepository namespace'ini readstate.BatchStore'a
// uyarlar.
type namespacedSlots struct {
	kv        KVRepository
	namespace string
}

// Slots, namespace'i readstate.Load/Persist'in beklediği store olarak döner.
func Slots(kv KVRepository, namespace string) readstate.BatchStore {
	return &namespacedSlots{kv: kv, namespace: namespace}
}

func (s *namespacedSlots) Get(ctx context.Context, key string) (string, bool, error) {
	return s.kv.Get(ctx, s.namespace, key)
}

func (s *namespacedSlots) Set(ctx context.Context, key, value string) error {
	return s.kv.Set(ctx, s.namespace, key, value)
}

func (s *namespacedSlots) SetMany(ctx context.Context, values map[string]string) error {
	return s.kv.SetMany(ctx, s.namespace, values)
}
