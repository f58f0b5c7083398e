package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims, access token payload'ı.
// services, middleware ve ws aynı struct'ı kullanır.
type TokenClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// AuthTokens, başarılı sign-in / refresh yanıtı.
type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"` // saniye
	User         *User  `json:"user"`
}

// SignUpResult, kayıt yanıtı.
// Email doğrulaması gerekiyorsa Tokens nil ve ConfirmationRequired true olur.
type SignUpResult struct {
	User                 *User       `json:"user"`
	Tokens               *AuthTokens `json:"tokens,omitempty"`
	ConfirmationRequired bool        `json:"confirmation_required"`
}
