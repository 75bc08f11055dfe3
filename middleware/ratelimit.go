package middleware

import (
	"fmt"
	"net/http"

	"github.com/akinalp/feedmark/handlers"
	"github.com/akinalp/feedmark/pkg"
	"github.com/akinalp/feedmark/pkg/ratelimit"
)

// MutationLimit, okuma durumu yazan endpoint'leri kullanıcı bazlı sınırlar.
// Auth middleware'dan sonra çalışmalıdır; context'te kullanıcı yoksa
// istek olduğu gibi geçer. limiter nil ise middleware etkisizdir.
func MutationLimit(limiter *ratelimit.MutationRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := handlers.UserFromContext(r.Context())
			if ok && !limiter.Allow(user.ID) {
				retryAfter := limiter.CooldownSeconds(user.ID)
				w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
				pkg.ErrorWithMessage(w, http.StatusTooManyRequests,
					fmt.Sprintf("too many requests, please try again in %s",
						ratelimit.FormatRetryMessage(retryAfter)))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
