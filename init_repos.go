// Repository katmanı başlatma.
//
// initRepositories, kullanıcı/oturum repository'lerini ve STORE_BACKEND'e
// göre okuma durumu slot store'unu oluşturur.

package main

import (
	"context"
	"fmt"
	"log"

	goredis "github.com/redis/go-redis/v9"

	"github.com/akinalp/feedmark/config"
	"github.com/akinalp/feedmark/database"
	"github.com/akinalp/feedmark/handlers"
	"github.com/akinalp/feedmark/repository"
)

// Repositories, tüm repository instance'larını tutan container struct.
type Repositories struct {
	User    repository.UserRepository
	Session repository.SessionRepository
	Slots   repository.KVRepository

	// HealthChecks, /api/health'in ping'lediği bağımlılıklar.
	HealthChecks map[string]handlers.Pinger

	closers []func() error
}

// Close, slot store'un açtığı kaynakları (cache goroutine'i, Redis
// bağlantısı) ters sırada kapatır. SQLite bağlantısı main'e aittir.
func (r *Repositories) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			log.Printf("[main] failed to close repository resource: %v", err)
		}
	}
}

// redisPinger, *goredis.Client'ı handlers.Pinger'a uyarlar.
type redisPinger struct {
	rdb *goredis.Client
}

func (p redisPinger) PingContext(ctx context.Context) error {
	return p.rdb.Ping(ctx).Err()
}

// initRepositories, veritabanı bağlantısından repository'leri oluşturur.
// Kullanıcılar ve oturumlar her zaman SQLite'tadır; okuma durumu slot'ları
// cfg.Store.Backend'e göre SQLite, Redis veya bellekte tutulur.
func initRepositories(ctx context.Context, db *database.DB, cfg *config.Config) (*Repositories, error) {
	repos := &Repositories{
		User:         repository.NewSQLiteUserRepo(db.Conn),
		Session:      repository.NewSQLiteSessionRepo(db.Conn),
		HealthChecks: map[string]handlers.Pinger{"sqlite": db.Conn},
	}

	switch cfg.Store.Backend {
	case config.BackendSQLite:
		repos.Slots = repository.NewSQLiteKVRepo(db.Conn)

	case config.BackendRedis:
		rdb, err := database.NewRedis(ctx, database.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		repos.Slots = repository.NewRedisKVRepo(rdb, cfg.Redis.KeyPrefix)
		repos.HealthChecks["redis"] = redisPinger{rdb: rdb}
		repos.closers = append(repos.closers, rdb.Close)

	case config.BackendMemory:
		// Restart'ta her şey kaybolur; geliştirme ve demo içindir.
		log.Println("[main] WARNING: read state is kept in memory only")
		repos.Slots = repository.NewMemoryKVRepo()

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	// Memory backend'in önüne cache koymanın anlamı yok.
	if cfg.Store.CacheTTL > 0 && cfg.Store.Backend != config.BackendMemory {
		cached := repository.NewCachedKVRepo(repos.Slots, cfg.Store.CacheTTL)
		repos.Slots = cached
		repos.closers = append(repos.closers, func() error {
			cached.Close()
			return nil
		})
		log.Printf("[main] read state cache enabled (ttl=%s)", cfg.Store.CacheTTL)
	}

	log.Printf("[main] read state backend: %s", cfg.Store.Backend)
	return repos, nil
}
