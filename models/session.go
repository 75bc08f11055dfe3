package models

import "time"

// Session, bir refresh token oturumu.
//
// Access token kısa ömürlüdür ve DB'ye yazılmaz. Refresh token uzun
// ömürlüdür; DB'de tutulduğu için logout veya hesap silme ile iptal
// edilebilir.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	RefreshToken string    `json:"-"` // API'ye gönderilmez
	UserAgent    string    `json:"user_agent"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}
