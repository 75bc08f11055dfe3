package handlers

import (
	"context"

	"github.com/akinalp/feedmark/models"
)

// contextKey, context.Value için özel key tipi. String key başka
// paketlerin key'leriyle çakışabilir.
type contextKey string

// UserContextKey, auth middleware'ın doğrulanmış kullanıcıyı koyduğu key.
const UserContextKey contextKey = "user"

// WithUser, kullanıcıyı context'e ekler.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

// UserFromContext, auth middleware'ın eklediği kullanıcıyı döner.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	return user, ok && user != nil
}
