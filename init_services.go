// Service katmanı başlatma.
//
// initServices, service implementasyonlarını ve rate limiter'ları oluşturur.
// Her service, ihtiyaç duyduğu repository interface'lerini constructor
// injection ile alır.

package main

import (
	"context"
	"log"
	"time"

	"github.com/akinalp/feedmark/config"
	"github.com/akinalp/feedmark/pkg/ratelimit"
	"github.com/akinalp/feedmark/services"
)

// sessionPurgeInterval, süresi dolmuş refresh oturumlarının temizlenme sıklığı.
const sessionPurgeInterval = time.Hour

// Services, tüm service instance'larını tutan container struct.
type Services struct {
	Auth      services.AuthService
	ReadState services.ReadStateService
}

// RateLimiters, tüm rate limiter instance'larını tutan container.
// Mutation nil ise yazma endpoint'leri sınırlanmaz.
type RateLimiters struct {
	Login    *ratelimit.LoginRateLimiter
	Mutation *ratelimit.MutationRateLimiter
}

// Close, limiter'ların temizleme goroutine'lerini durdurur.
func (l *RateLimiters) Close() {
	l.Login.Close()
	if l.Mutation != nil {
		l.Mutation.Close()
	}
}

// initServices, repository'lerden service'leri ve config'ten limiter'ları oluşturur.
func initServices(repos *Repositories, cfg *config.Config) (*Services, *RateLimiters) {
	svcs := &Services{
		Auth: services.NewAuthService(repos.User, repos.Session, repos.Slots, services.AuthOptions{
			JWTSecret:  cfg.JWT.Secret,
			AccessExp:  cfg.JWT.AccessExpiry(),
			RefreshExp: cfg.JWT.RefreshExpiry(),
			BcryptCost: cfg.JWT.BcryptCost,
		}),
		ReadState: services.NewReadStateService(repos.Slots),
	}

	limiters := &RateLimiters{
		Login: ratelimit.NewLoginRateLimiter(cfg.RateLimit.LoginAttempts, cfg.RateLimit.LoginWindow),
	}
	if cfg.RateLimit.MutationMax > 0 {
		limiters.Mutation = ratelimit.NewMutationRateLimiter(
			cfg.RateLimit.MutationMax,
			cfg.RateLimit.MutationWindow,
			cfg.RateLimit.MutationCooldown,
		)
	}

	return svcs, limiters
}

// startSessionPurge, süresi dolmuş oturumları periyodik olarak siler.
// ctx iptal edilince durur.
func startSessionPurge(ctx context.Context, authService services.AuthService) {
	go func() {
		ticker := time.NewTicker(sessionPurgeInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := authService.PurgeExpiredSessions(ctx)
				if err != nil {
					log.Printf("[main] session purge failed: %v", err)
					continue
				}
				if n > 0 {
					log.Printf("[main] purged %d expired sessions", n)
				}
			}
		}
	}()
}
