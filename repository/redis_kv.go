package repository

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

// redisKVRepo, her namespace'i tek bir Redis hash'inde tutar:
// key "<prefix><namespace>", field slot adı.
type redisKVRepo struct {
	rdb    goredis.Cmdable
	prefix string
}

// NewRedisKVRepo, constructor. prefix, paylaşılan bir Redis'te anahtarları
// ayırmak için kullanılır (ör. "feedmark:readstate:").
func NewRedisKVRepo(rdb goredis.Cmdable, prefix string) KVRepository {
	return &redisKVRepo{rdb: rdb, prefix: prefix}
}

func (r *redisKVRepo) key(namespace string) string {
	return r.prefix + namespace
}

func (r *redisKVRepo) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	value, err := r.rdb.HGet(ctx, r.key(namespace), key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get slot %s: %w", key, err)
	}
	return value, true, nil
}

func (r *redisKVRepo) Set(ctx context.Context, namespace, key, value string) error {
	if err := r.rdb.HSet(ctx, r.key(namespace), key, value).Err(); err != nil {
		return fmt.Errorf("failed to set slot %s: %w", key, err)
	}
	return nil
}

// SetMany, tek HSET komutuyla yazar; Redis tek komutu atomik çalıştırır.
func (r *redisKVRepo) SetMany(ctx context.Context, namespace string, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	args := make([]any, 0, len(values)*2)
	for k, v := range values {
		args = append(args, k, v)
	}

	if err := r.rdb.HSet(ctx, r.key(namespace), args...).Err(); err != nil {
		return fmt.Errorf("failed to set slots: %w", err)
	}
	return nil
}

func (r *redisKVRepo) DeleteNamespace(ctx context.Context, namespace string) error {
	if err := r.rdb.Del(ctx, r.key(namespace)).Err(); err != nil {
		return fmt.Errorf("failed to delete slots: %w", err)
	}
	return nil
}
