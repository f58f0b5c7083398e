package models

import "time"

// Session, refresh token oturumu.
// Access token kısa ömürlü (15dk), refresh token DB'de tutulur;
// sign-out ilgili satırı siler, refresh ise rotate eder.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// EmailConfirmation, bekleyen email doğrulaması.
// Token'ın kendisi değil SHA256 hex hash'i saklanır.
type EmailConfirmation struct {
	TokenHash string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
