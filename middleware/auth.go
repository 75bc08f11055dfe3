// Package middleware, handler'lardan önce çalışan HTTP ara katmanlarıdır.
//
// Her middleware func(next http.Handler) http.Handler şeklindedir: işini
// yapar, sorun yoksa next'i çağırır, varsa yanıtı kendisi yazıp zinciri keser.
package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/akinalp/feedmark/handlers"
	"github.com/akinalp/feedmark/pkg"
	"github.com/akinalp/feedmark/services"
)

// AuthMiddleware, Bearer JWT doğrulaması.
type AuthMiddleware struct {
	authService services.AuthService
}

// NewAuthMiddleware, constructor.
func NewAuthMiddleware(authService services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// Require, geçerli bir access token zorunlu kılar. Token geçerliyse
// kullanıcı yüklenip context'e eklenir; token geçerli ama kullanıcı
// silinmişse de 401 döner.
//
// Header formatı: Authorization: Bearer <token>
func (m *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "authorization header required")
			return
		}

		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found || tokenString == "" {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "invalid authorization format, use: Bearer <token>")
			return
		}

		claims, err := m.authService.ValidateAccessToken(tokenString)
		if err != nil {
			pkg.Error(w, err)
			return
		}

		user, err := m.authService.Me(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, pkg.ErrNotFound) {
				pkg.Error(w, fmt.Errorf("%w: user not found", pkg.ErrUnauthorized))
				return
			}
			pkg.Error(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(handlers.WithUser(r.Context(), user)))
	})
}

// RequireFunc, Require'ın HandlerFunc kısayolu (route tanımlarında).
func (m *AuthMiddleware) RequireFunc(fn http.HandlerFunc) http.Handler {
	return m.Require(fn)
}
