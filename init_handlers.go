// Handler katmanı başlatma.
//
// Handler'lar "thin" dir: sadece HTTP parse + service call + response write.

package main

import (
	"github.com/akinalp/feedmark/config"
	"github.com/akinalp/feedmark/handlers"
)

// Handlers, tüm handler instance'larını tutan container struct.
type Handlers struct {
	Health    *handlers.HealthHandler
	Auth      *handlers.AuthHandler
	ReadState *handlers.ReadStateHandler
}

func initHandlers(svcs *Services, repos *Repositories, limiters *RateLimiters, cfg *config.Config) *Handlers {
	return &Handlers{
		Health:    handlers.NewHealthHandler(cfg.Store.Backend, repos.HealthChecks),
		Auth:      handlers.NewAuthHandler(svcs.Auth, limiters.Login),
		ReadState: handlers.NewReadStateHandler(svcs.ReadState),
	}
}
