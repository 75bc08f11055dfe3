package database

import (
	"context"
	"fmt"
	"log"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RedisOptions, Redis bağlantı ayarları.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedis, Redis client'ı açar ve ping ile bağlantıyı doğrular.
// Ping başarısız olursa client kapatılır.
func NewRedis(ctx context.Context, opts RedisOptions) (*goredis.Client, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[database] connected to redis at %s (db %d)", opts.Addr, opts.DB)
	return rdb, nil
}
