// Package handlers, HTTP request/response katmanıdır.
//
// Handler incedir: body'yi parse eder, service'i çağırır, sonucu
// pkg.JSON / pkg.Error zarfıyla döner. İş mantığı service'tedir.
package handlers

import (
	"fmt"
	"net/http"

	"github.com/akinalp/feedmark/models"
	"github.com/akinalp/feedmark/pkg"
	"github.com/akinalp/feedmark/pkg/ratelimit"
	"github.com/akinalp/feedmark/services"
)

// AuthHandler, auth ve hesap endpoint'leri.
type AuthHandler struct {
	authService  services.AuthService
	loginLimiter *ratelimit.LoginRateLimiter
}

// NewAuthHandler, constructor. loginLimiter nil ise login rate limiting kapalıdır.
func NewAuthHandler(authService services.AuthService, loginLimiter *ratelimit.LoginRateLimiter) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		loginLimiter: loginLimiter,
	}
}

type refreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type deleteAccountRequest struct {
	Password string `json:"password"`
}

// Register godoc
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := pkg.DecodeJSON(w, r, &req); err != nil {
		pkg.Error(w, err)
		return
	}

	tokens, err := h.authService.Register(r.Context(), &req, r.UserAgent())
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, tokens)
}

// Login godoc
// POST /api/auth/login
//
// IP bazlı brute-force koruması: limit aşılınca 429 + Retry-After.
// Başarılı login sayacı sıfırlar.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ip := ratelimit.ExtractIP(r)
	if h.loginLimiter != nil && !h.loginLimiter.Allow(ip) {
		retryAfter := h.loginLimiter.RetryAfterSeconds(ip)
		w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
		pkg.ErrorWithMessage(w, http.StatusTooManyRequests,
			fmt.Sprintf("too many login attempts, please try again in %s",
				ratelimit.FormatRetryMessage(retryAfter)))
		return
	}

	var req models.LoginRequest
	if err := pkg.DecodeJSON(w, r, &req); err != nil {
		pkg.Error(w, err)
		return
	}

	tokens, err := h.authService.Login(r.Context(), &req, r.UserAgent())
	if err != nil {
		pkg.Error(w, err)
		return
	}

	if h.loginLimiter != nil {
		h.loginLimiter.Reset(ip)
	}

	pkg.JSON(w, http.StatusOK, tokens)
}

// Refresh godoc
// POST /api/auth/refresh
// Body: { "refresh_token": "..." }
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshTokenRequest
	if err := pkg.DecodeJSON(w, r, &req); err != nil {
		pkg.Error(w, err)
		return
	}

	tokens, err := h.authService.RefreshToken(r.Context(), req.RefreshToken, r.UserAgent())
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, tokens)
}

// Logout godoc
// POST /api/auth/logout
// Body: { "refresh_token": "..." }
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshTokenRequest
	if err := pkg.DecodeJSON(w, r, &req); err != nil {
		pkg.Error(w, err)
		return
	}

	if err := h.authService.Logout(r.Context(), req.RefreshToken); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Me godoc
// GET /api/users/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	pkg.JSON(w, http.StatusOK, user)
}

// DeleteAccount godoc
// DELETE /api/users/me
// Body: { "password": "..." }
// Kullanıcı, oturumları ve tüm okuma durumu silinir.
func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req deleteAccountRequest
	if err := pkg.DecodeJSON(w, r, &req); err != nil {
		pkg.Error(w, err)
		return
	}

	if err := h.authService.DeleteAccount(r.Context(), user.ID, req.Password); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "account deleted"})
}
