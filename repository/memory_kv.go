package repository

import (
	"context"
	"maps"
	"sync"
)

// memoryKVRepo, süreç belleğinde tutulan KVRepository. Restart'ta veri
// kaybolur; geliştirme ve testler için.
type memoryKVRepo struct {
	mu     sync.RWMutex
	spaces map[string]map[string]string
}

// NewMemoryKVRepo, boş bir bellek deposu döner.
func NewMemoryKVRepo() KVRepository {
	return &memoryKVRepo{spaces: make(map[string]map[string]string)}
}

func (r *memoryKVRepo) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	value, ok := r.spaces[namespace][key]
	return value, ok, nil
}

func (r *memoryKVRepo) Set(ctx context.Context, namespace, key, value string) error {
	return r.SetMany(ctx, namespace, map[string]string{key: value})
}

func (r *memoryKVRepo) SetMany(ctx context.Context, namespace string, values map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	space, ok := r.spaces[namespace]
	if !ok {
		space = make(map[string]string, len(values))
		r.spaces[namespace] = space
	}
	maps.Copy(space, values)
	return nil
}

func (r *memoryKVRepo) DeleteNamespace(ctx context.Context, namespace string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.spaces, namespace)
	return nil
}
