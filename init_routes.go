// HTTP route registration.
//
// initRoutes, tüm API endpoint'lerini mux'a bağlar.
// Middleware chain helper'ları burada tanımlıdır:
//   - auth: JWT token doğrulaması
//   - authWrite: auth + kullanıcı bazlı yazma limiti

package main

import (
	"net/http"

	"github.com/akinalp/feedmark/middleware"
	"github.com/akinalp/feedmark/services"
)

// initRoutes, middleware chain'i kurar ve tüm endpoint'leri mux'a bağlar.
func initRoutes(mux *http.ServeMux, h *Handlers, authService services.AuthService, limiters *RateLimiters) {
	// ─── Middleware ───
	authMw := middleware.NewAuthMiddleware(authService)
	mutationLimit := middleware.MutationLimit(limiters.Mutation)

	// ─── Middleware Chain Helpers ───
	auth := authMw.RequireFunc
	authWrite := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(mutationLimit(handler))
	}

	// Health
	mux.HandleFunc("GET /api/health", h.Health.Health)

	// Auth
	mux.HandleFunc("POST /api/auth/register", h.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", h.Auth.Login)
	mux.HandleFunc("POST /api/auth/refresh", h.Auth.Refresh)
	mux.Handle("POST /api/auth/logout", auth(h.Auth.Logout))

	// User
	mux.Handle("GET /api/users/me", auth(h.Auth.Me))
	mux.Handle("DELETE /api/users/me", auth(h.Auth.DeleteAccount))

	// Read state: okuma endpoint'leri (status/unread body alır ama yazmaz)
	mux.Handle("GET /api/datasets/{datasetId}/read-state", auth(h.ReadState.Get))
	mux.Handle("POST /api/datasets/{datasetId}/read-state/status", auth(h.ReadState.Status))
	mux.Handle("POST /api/datasets/{datasetId}/read-state/unread", auth(h.ReadState.Unread))

	// Read state: yazma endpoint'leri
	mux.Handle("POST /api/datasets/{datasetId}/read-state/read", authWrite(h.ReadState.MarkRead))
	mux.Handle("POST /api/datasets/{datasetId}/read-state/unread-mark", authWrite(h.ReadState.MarkUnread))
	mux.Handle("POST /api/datasets/{datasetId}/read-state/read-all", authWrite(h.ReadState.MarkAllRead))
	mux.Handle("POST /api/datasets/{datasetId}/items/{itemId}/toggle", authWrite(h.ReadState.Toggle))
	mux.Handle("DELETE /api/datasets/{datasetId}/read-state", authWrite(h.ReadState.Reset))
}
