package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims, access token'ın payload'ı.
//
// Server her request'te bu token'ı doğrular; UserID okuma durumunun
// namespace'i olarak kullanılır. RegisteredClaims.ID (jti) her token için
// yeni bir UUID'dir.
type TokenClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
